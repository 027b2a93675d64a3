package hcl

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/ctxlog"
	"github.com/vk/recgrid/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// Extension is the file extension handled by the loader.
const Extension = ".hcl"

// topLevelLabels maps every accepted top-level block type to its label count.
var topLevelLabels = map[string]int{
	config.KindSettings:      0,
	config.KindExperiment:    1,
	config.KindModel:         1,
	config.KindSplit:         1,
	config.KindDataContainer: 1,
	config.KindReader:        1,
	config.KindEvalContext:   1,
}

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	evalCtx *hcl.EvalContext
}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{evalCtx: envContext(os.Environ())}
}

// Load parses every .hcl file found under the given paths, in lexical order
// per directory, into a single document.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extension)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	doc := config.NewDocument()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		fileDoc, err := l.decodeFile(hclFile)
		if err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
		doc.Merge(fileDoc)
	}

	logger.Debug("HCL loading complete.", "files", len(files), "nodes", doc.Len())
	return doc, nil
}

// Parse decodes HCL source held in memory. filename is used for diagnostics.
func (l *Loader) Parse(src []byte, filename string) (*config.Document, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return l.decodeFile(hclFile)
}

func (l *Loader) decodeFile(f *hcl.File) (*config.Document, error) {
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("unsupported HCL body type %T", f.Body)
	}
	if attrs := orderedAttributes(body); len(attrs) > 0 {
		return nil, fmt.Errorf("%s: unexpected top-level attribute %q", attrs[0].SrcRange, attrs[0].Name)
	}

	doc := config.NewDocument()
	for _, block := range body.Blocks {
		labels, known := topLevelLabels[block.Type]
		if !known {
			return nil, fmt.Errorf("%s: unsupported block type %q", block.DefRange(), block.Type)
		}
		if len(block.Labels) != labels {
			return nil, fmt.Errorf("%s: block %q needs %d label(s), got %d", block.DefRange(), block.Type, labels, len(block.Labels))
		}
		n, err := l.decodeBlock(block)
		if err != nil {
			return nil, err
		}
		doc.Add(n)
	}
	return doc, nil
}

func (l *Loader) decodeBlock(block *hclsyntax.Block) (*config.Node, error) {
	if len(block.Labels) > 1 {
		return nil, fmt.Errorf("%s: block %q takes at most one label", block.DefRange(), block.Type)
	}
	n := &config.Node{
		Kind:   block.Type,
		Source: fmt.Sprintf("%s:%d", block.DefRange().Filename, block.DefRange().Start.Line),
	}
	if len(block.Labels) == 1 {
		n.ID = block.Labels[0]
		if strings.TrimSpace(n.ID) == "" {
			return nil, fmt.Errorf("%s: block %q has an empty label", block.DefRange(), block.Type)
		}
		n.Attrs = append(n.Attrs, config.Attribute{Name: "id", Value: n.ID})
	}

	for _, attr := range orderedAttributes(block.Body) {
		if attr.Name == "id" && n.ID != "" {
			return nil, fmt.Errorf("%s: the id of %s %q is given by its label", attr.SrcRange, block.Type, n.ID)
		}
		val, diags := attr.Expr.Value(l.evalCtx)
		if diags.HasErrors() {
			return nil, diags
		}
		a, err := toAttribute(attr.Name, val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attr.SrcRange, err)
		}
		n.Attrs = append(n.Attrs, a)
	}

	for _, child := range block.Body.Blocks {
		c, err := l.decodeBlock(child)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

func envContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok && hclsyntax.ValidIdentifier(k) {
			vars[k] = cty.StringVal(v)
		}
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"env": env}}
}
