package experiment

// Metric is one named value of a result row.
type Metric struct {
	Name  string
	Value string
}

// ResultRow is an ordered metric-name to value mapping.
type ResultRow []Metric

// Set replaces the named metric or appends it.
func (r *ResultRow) Set(name, value string) {
	for i := range *r {
		if (*r)[i].Name == name {
			(*r)[i].Value = value
			return
		}
	}
	*r = append(*r, Metric{Name: name, Value: value})
}

// Get returns the value of the named metric.
func (r ResultRow) Get(name string) (string, bool) {
	for _, m := range r {
		if m.Name == name {
			return m.Value, true
		}
	}
	return "", false
}

// MetricNames returns the distinct metric names of rows in order of first
// appearance.
func MetricNames(rows []ResultRow) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range rows {
		for _, m := range r {
			if _, ok := seen[m.Name]; !ok {
				seen[m.Name] = struct{}{}
				names = append(names, m.Name)
			}
		}
	}
	return names
}
