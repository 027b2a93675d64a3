package app

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/ctxlog"
	"github.com/vk/recgrid/internal/fsutil"
	"github.com/vk/recgrid/internal/hcl"
	"github.com/vk/recgrid/internal/yamlconf"
)

// documentLoader dispatches files to the HCL or YAML loader by extension
// and merges the results.
type documentLoader struct {
	hcl  config.Loader
	yaml config.Loader
}

// NewLoader returns a loader accepting .hcl, .yaml and .yml files.
func NewLoader() config.Loader {
	return &documentLoader{hcl: hcl.NewLoader(), yaml: yamlconf.NewLoader()}
}

// Load implements config.Loader.
func (l *documentLoader) Load(ctx context.Context, paths ...string) (*config.Document, error) {
	files, err := fsutil.CollectFiles(paths, slices.Concat([]string{hcl.Extension}, yamlconf.Extensions)...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no configuration files found in %s", strings.Join(paths, ", "))
	}

	var hclFiles, yamlFiles []string
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), hcl.Extension) {
			hclFiles = append(hclFiles, f)
		} else {
			yamlFiles = append(yamlFiles, f)
		}
	}
	ctxlog.FromContext(ctx).Debug("Configuration files discovered.", "hcl", len(hclFiles), "yaml", len(yamlFiles))

	doc := config.NewDocument()
	for _, part := range []struct {
		loader config.Loader
		files  []string
	}{{l.hcl, hclFiles}, {l.yaml, yamlFiles}} {
		if len(part.files) == 0 {
			continue
		}
		d, err := part.loader.Load(ctx, part.files...)
		if err != nil {
			return nil, err
		}
		doc.Merge(d)
	}
	return doc, nil
}
