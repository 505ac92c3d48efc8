package treeguides

import (
	"io/fs"

	"github.com/jward/treeguides/internal/guide"
	"github.com/jward/treeguides/internal/hittest"
	"github.com/jward/treeguides/internal/reconcile"
	"github.com/jward/treeguides/internal/store"
)

// Option configures a Pass.
type Option func(*Pass)

// WithHost makes the Pass create and dispose annotations through host
// instead of placing highlights on the document.
func WithHost(host reconcile.Host) Option {
	return func(p *Pass) {
		p.host = host
	}
}

// WithBulkThreshold sets the number of guides above which new annotations
// are created in one bulk operation.
func WithBulkThreshold(n int) Option {
	return func(p *Pass) {
		p.bulkThreshold = n
	}
}

// WithOffsetConverter translates outline offsets into document offsets.
// It is only consulted for outlines whose length differs from the
// document's.
func WithOffsetConverter(convert guide.OffsetConverter) Option {
	return func(p *Pass) {
		p.convert = convert
	}
}

// WithHitTesterListener registers fn to be called whenever a refresh
// changes the set of lines covered by guides.
func WithHitTesterListener(fn func(old, new *hittest.Tester)) Option {
	return func(p *Pass) {
		p.onHitTester = fn
	}
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithScriptsFS loads outline scripts from fsys instead of the scripts
// directory. This enables embedding scripts via go:embed.
func WithScriptsFS(fsys fs.FS) AnalyzerOption {
	return func(a *Analyzer) {
		a.scriptsFS = fsys
	}
}

// WithCache keeps outlines in s, keyed by path and content hash.
func WithCache(s *store.Store) AnalyzerOption {
	return func(a *Analyzer) {
		a.store = s
	}
}

// WithWorkers sets the number of analysis goroutines. The default is the
// number of CPUs.
func WithWorkers(n int) AnalyzerOption {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithLanguages maps file extensions to outline script names. Without it
// every language with a bundled grammar is analyzed.
func WithLanguages(languages map[string]string) AnalyzerOption {
	return func(a *Analyzer) {
		a.languages = languages
	}
}
