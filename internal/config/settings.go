package config

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultResultsFolder is used when the settings node names none.
const DefaultResultsFolder = "results"

// Settings is the parsed experiments node.
type Settings struct {
	Verbosity       string
	Separator       rune
	SubFolder       bool
	ResultsFolder   string
	JointResults    string
	ResultsDatabase string
	// Run restricts execution to these experiment ids, in order. Empty
	// means every experiment of the document.
	Run []string
}

// ParseSettings reads the experiments node. A nil node yields defaults.
func ParseSettings(n *Node) (*Settings, error) {
	s := &Settings{
		Verbosity:     "info",
		Separator:     ',',
		ResultsFolder: DefaultResultsFolder,
	}
	if n == nil {
		return s, nil
	}

	s.Verbosity = strings.ToLower(n.Attrs.Value("verbosity", s.Verbosity))
	s.ResultsFolder = n.Attrs.Value("resultsFolder", s.ResultsFolder)
	s.JointResults = n.Attrs.Value("jointResults", "")
	s.ResultsDatabase = n.Attrs.Value("resultsDatabase", "")

	sep, err := ParseSeparator(n.Attrs.Value("separator", ","))
	if err != nil {
		return nil, err
	}
	s.Separator = sep

	if s.SubFolder, err = ParseBool(n.Attrs, "subFolder", false); err != nil {
		return nil, err
	}

	if run, ok := n.Attrs.Get("run"); ok && run != "" {
		for _, id := range n.Attrs.Values("run") {
			if id != "" {
				s.Run = append(s.Run, id)
			}
		}
	}
	return s, nil
}

// ParseSeparator unescapes a separator attribute. "\t" denotes a tab. The
// result must be a single character.
func ParseSeparator(v string) (rune, error) {
	v = strings.ReplaceAll(v, `\t`, "\t")
	if utf8.RuneCountInString(v) != 1 {
		return 0, fmt.Errorf("separator %q must be a single character", v)
	}
	r, _ := utf8.DecodeRuneInString(v)
	return r, nil
}

// ParseBool reads an optional boolean attribute.
func ParseBool(attrs Attributes, name string, def bool) (bool, error) {
	v, ok := attrs.Get(name)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("attribute %q: %q is not a boolean", name, v)
	}
	return b, nil
}

// ParseInt reads an optional integer attribute.
func ParseInt(attrs Attributes, name string, def int) (int, error) {
	v, ok := attrs.Get(name)
	if !ok || v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("attribute %q: %q is not an integer", name, v)
	}
	return i, nil
}

// ParseFloat reads an optional floating point attribute.
func ParseFloat(attrs Attributes, name string, def float64) (float64, error) {
	v, ok := attrs.Get(name)
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %q: %q is not a number", name, v)
	}
	return f, nil
}
