// Package runtime runs the per-language outline scripts. A script parses
// the source with tree-sitter and reports constructor expressions through
// host functions; the runtime assembles them into an outline tree.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/tliron/commonlog"

	"github.com/jward/treeguides/internal/outline"
)

var log = commonlog.GetLogger("treeguides.runtime")

// Runtime embeds a Risor VM and provides tree-sitter host functions to
// outline scripts.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Import statements resolve against the same FS.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// NewRuntime creates a Runtime that loads scripts from scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{scriptsDir: scriptsDir}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outline runs the outline script for language over src and returns the
// root of the reported tree. The root spans the whole source.
func (r *Runtime) Outline(ctx context.Context, language string, src []byte) (*outline.Node, error) {
	if _, ok := ParserForLanguage(language); !ok {
		return nil, fmt.Errorf("runtime: outline %q: %w", language, ErrUnsupportedLanguage)
	}
	c := newCollector(len(src))
	err := r.RunScript(ctx, OutlineScriptPath(language), map[string]any{
		"source":         string(src),
		"language":       language,
		"emit_node":      c.emitNodeFn(),
		"emit_attribute": c.emitAttributeFn(),
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("outline %s: %d nodes", language, c.count())
	return c.root, nil
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly. Useful for testing without
// script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	// Trees parsed during one evaluation are only reachable from it.
	globals := buildGlobals(newSourceStore(), extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file from the configured FS, or from disk
// relative to scriptsDir.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// ScriptPaths lists every .risor file the runtime can load, sorted.
func (r *Runtime) ScriptPaths() []string {
	var paths []string
	collect := func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasSuffix(path, ".risor") {
			paths = append(paths, path)
		}
		return nil
	}
	switch {
	case r.fsys != nil:
		_ = fs.WalkDir(r.fsys, ".", collect)
	case r.scriptsDir != "":
		_ = fs.WalkDir(os.DirFS(r.scriptsDir), ".", collect)
	}
	return paths
}

// OutlineScriptPath returns the path to a language's outline script.
func OutlineScriptPath(language string) string {
	return filepath.Join("outline", language+".risor")
}

func buildGlobals(ss *sourceStore, extra map[string]any) map[string]any {
	globals := map[string]any{
		"parse_src":  makeParseSrcFn(ss),
		"node_text":  makeNodeTextFn(ss),
		"node_child": makeNodeChildFn(),
		"node_span":  makeNodeSpanFn(),
		"query":      makeQueryFn(ss),
		"log":        mustProxy(&logObject{log: commonlog.GetLogger("treeguides.script")}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
