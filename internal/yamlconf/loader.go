package yamlconf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/ctxlog"
	"github.com/vk/recgrid/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// Extensions are the file extensions handled by the loader.
var Extensions = []string{".yaml", ".yml"}

var namedKinds = map[string]bool{
	config.KindExperiment:    true,
	config.KindModel:         true,
	config.KindSplit:         true,
	config.KindDataContainer: true,
	config.KindReader:        true,
	config.KindEvalContext:   true,
}

// Loader is the YAML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every YAML file found under the given paths into one document.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}

	doc := config.NewDocument()
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		fileDoc, err := l.Parse(src, file)
		if err != nil {
			return nil, err
		}
		doc.Merge(fileDoc)
	}

	logger.Debug("YAML loading complete.", "files", len(files), "nodes", doc.Len())
	return doc, nil
}

// Parse decodes YAML source held in memory. A file may contain several
// YAML documents separated by "---".
func (l *Loader) Parse(src []byte, filename string) (*config.Document, error) {
	doc := config.NewDocument()
	dec := yaml.NewDecoder(bytes.NewReader(src))
	for {
		var root yaml.Node
		err := dec.Decode(&root)
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
		}
		if err := decodeRoot(doc, &root, filename); err != nil {
			return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
		}
	}
}

func decodeRoot(doc *config.Document, root *yaml.Node, filename string) error {
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		root = root.Content[0]
	}
	if isNull(root) {
		return nil
	}
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: document root must be a mapping", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], resolve(root.Content[i+1])
		kind := key.Value

		if kind == config.KindSettings {
			n := &config.Node{Kind: kind, Source: source(filename, key)}
			if err := decodeBody(n, val, filename); err != nil {
				return err
			}
			doc.Add(n)
			continue
		}
		if !namedKinds[kind] {
			return fmt.Errorf("line %d: unsupported node kind %q", key.Line, kind)
		}
		if isNull(val) {
			continue
		}
		if val.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: %s must map ids to definitions", key.Line, kind)
		}
		for j := 0; j+1 < len(val.Content); j += 2 {
			idNode, body := val.Content[j], resolve(val.Content[j+1])
			id := strings.TrimSpace(idNode.Value)
			if id == "" {
				return fmt.Errorf("line %d: %s with an empty id", idNode.Line, kind)
			}
			n := &config.Node{
				Kind:   kind,
				ID:     id,
				Attrs:  config.Attributes{{Name: "id", Value: id}},
				Source: source(filename, idNode),
			}
			if err := decodeBody(n, body, filename); err != nil {
				return err
			}
			doc.Add(n)
		}
	}
	return nil
}

func decodeBody(n *config.Node, body *yaml.Node, filename string) error {
	if isNull(body) {
		return nil
	}
	if body.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %s must be a mapping", body.Line, n.Kind)
	}

	for i := 0; i+1 < len(body.Content); i += 2 {
		key, val := body.Content[i], resolve(body.Content[i+1])
		name := key.Value
		if name == "id" && n.ID != "" {
			return fmt.Errorf("line %d: the id of %s %q is given by its key", key.Line, n.Kind, n.ID)
		}

		switch val.Kind {
		case yaml.ScalarNode:
			value := val.Value
			if isNull(val) {
				value = ""
			}
			n.Attrs = append(n.Attrs, config.Attribute{Name: name, Value: value})
			if name == "id" {
				n.ID = value
			}

		case yaml.MappingNode:
			child := &config.Node{Kind: name, Source: source(filename, key)}
			if err := decodeBody(child, val, filename); err != nil {
				return err
			}
			n.Children = append(n.Children, child)

		case yaml.SequenceNode:
			if err := decodeSequence(n, name, val, filename); err != nil {
				return err
			}

		default:
			return fmt.Errorf("line %d: unsupported value for %q", val.Line, name)
		}
	}
	return nil
}

func decodeSequence(n *config.Node, name string, seq *yaml.Node, filename string) error {
	var list []string
	var children []*config.Node
	for _, item := range seq.Content {
		item = resolve(item)
		switch item.Kind {
		case yaml.ScalarNode:
			list = append(list, item.Value)
		case yaml.MappingNode:
			child := &config.Node{Kind: name, Source: source(filename, item)}
			if err := decodeBody(child, item, filename); err != nil {
				return err
			}
			children = append(children, child)
		default:
			return fmt.Errorf("line %d: unsupported list element for %q", item.Line, name)
		}
	}
	if list != nil && children != nil {
		return fmt.Errorf("line %d: %q mixes values and definitions", seq.Line, name)
	}
	if children != nil {
		n.Children = append(n.Children, children...)
		return nil
	}
	if list == nil {
		list = []string{}
	}
	n.Attrs = append(n.Attrs, config.Attribute{Name: name, Value: strings.Join(list, ","), List: list})
	return nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func source(filename string, n *yaml.Node) string {
	return fmt.Sprintf("%s:%d", filename, n.Line)
}
