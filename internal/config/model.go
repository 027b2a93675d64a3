package config

import (
	"errors"
	"fmt"
	"strings"
)

// Node kinds known to the resolver.
const (
	KindSettings      = "experiments"
	KindExperiment    = "experiment"
	KindModel         = "model"
	KindSplit         = "split"
	KindDataContainer = "dataContainer"
	KindReader        = "reader"
	KindEvalContext   = "evalContext"
	KindParameters    = "parameters"
	KindEvaluator     = "evaluator"
)

var (
	// ErrNotFound is returned when a referenced id has no definition.
	ErrNotFound = errors.New("no definition found")
	// ErrAmbiguous is returned when a referenced id has more than one definition.
	ErrAmbiguous = errors.New("ambiguous definition")
)

// Attribute is a single declared name/value pair. List is set when the
// source declared the value as a list, in which case Value holds the
// comma-joined form.
type Attribute struct {
	Name  string
	Value string
	List  []string
}

// Attributes is an ordered attribute collection.
type Attributes []Attribute

// Get returns the value of the named attribute.
func (a Attributes) Get(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Value returns the value of the named attribute, or def when it is absent
// or empty.
func (a Attributes) Value(name, def string) string {
	if v, ok := a.Get(name); ok && v != "" {
		return v
	}
	return def
}

// Values returns the value list of the named attribute. A list attribute
// is returned verbatim, a scalar one is split on commas.
func (a Attributes) Values(name string) []string {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Values()
		}
	}
	return nil
}

// Set replaces the named attribute or appends it when absent.
func (a *Attributes) Set(name, value string) {
	for i := range *a {
		if (*a)[i].Name == name {
			(*a)[i] = Attribute{Name: name, Value: value}
			return
		}
	}
	*a = append(*a, Attribute{Name: name, Value: value})
}

// Without returns a copy that omits the named attributes.
func (a Attributes) Without(names ...string) Attributes {
	out := make(Attributes, 0, len(a))
outer:
	for _, attr := range a {
		for _, n := range names {
			if attr.Name == n {
				continue outer
			}
		}
		out = append(out, attr)
	}
	return out
}

// Names returns attribute names in declared order.
func (a Attributes) Names() []string {
	names := make([]string, len(a))
	for i, attr := range a {
		names[i] = attr.Name
	}
	return names
}

// Values returns the value list of the attribute.
func (a Attribute) Values() []string {
	if a.List != nil {
		return a.List
	}
	return SplitList(a.Value)
}

// SplitList splits a comma separated value, trimming surrounding spaces.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Node is one named definition in the document.
type Node struct {
	Kind     string
	ID       string
	Attrs    Attributes
	Children []*Node
	// Source locates the definition, e.g. "main.hcl:12".
	Source string
}

// ChildrenOf returns the child nodes of the given kind in declared order.
func (n *Node) ChildrenOf(kind string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) String() string {
	if n.ID == "" {
		return fmt.Sprintf("%s (%s)", n.Kind, n.Source)
	}
	return fmt.Sprintf("%s %q (%s)", n.Kind, n.ID, n.Source)
}

// Document is the unified, format-agnostic representation of one or more
// configuration files.
type Document struct {
	nodes []*Node
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Add appends a node in document order.
func (d *Document) Add(n *Node) {
	d.nodes = append(d.nodes, n)
}

// Merge appends every node of other.
func (d *Document) Merge(other *Document) {
	d.nodes = append(d.nodes, other.nodes...)
}

// Nodes returns every node of the given kind in document order.
func (d *Document) Nodes(kind string) []*Node {
	var out []*Node
	for _, n := range d.nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of top-level nodes.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Lookup returns the single node of the given kind and id.
func (d *Document) Lookup(kind, id string) (*Node, error) {
	var found *Node
	for _, n := range d.nodes {
		if n.Kind != kind || n.ID != id {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s %q is defined at %s and %s", ErrAmbiguous, kind, id, found.Source, n.Source)
		}
		found = n
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
	}
	return found, nil
}

// Settings returns the experiments settings node, or nil when the document
// has none.
func (d *Document) Settings() (*Node, error) {
	nodes := d.Nodes(KindSettings)
	switch len(nodes) {
	case 0:
		return nil, nil
	case 1:
		return nodes[0], nil
	default:
		return nil, fmt.Errorf("%w: %s is defined at %s and %s", ErrAmbiguous, KindSettings, nodes[0].Source, nodes[1].Source)
	}
}
