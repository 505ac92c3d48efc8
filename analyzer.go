package treeguides

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path/filepath"
	goruntime "runtime"
	"sync"

	"github.com/jward/treeguides/internal/outline"
	"github.com/jward/treeguides/internal/runtime"
	"github.com/jward/treeguides/internal/store"
)

// request is the newest text of one file waiting to be analyzed.
type request struct {
	path    string
	version int
	src     []byte
}

// Analyzer computes outlines by running the outline script of a file's
// language over its text. Requests are served by a pool of worker
// goroutines and their results are published into a Registry.
type Analyzer struct {
	registry   *Registry
	runtime    *runtime.Runtime
	scriptsDir string
	scriptsFS  fs.FS
	store      *store.Store
	languages  map[string]string
	workers    int

	mu      sync.Mutex
	cond    *sync.Cond
	pending map[string]request
	order   []string
	closed  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAnalyzer creates an Analyzer publishing into registry and starts its
// workers. Scripts are read from scriptsDir unless WithScriptsFS is given.
// When a cache is configured and the scripts changed since it was filled,
// the cache is cleared.
func NewAnalyzer(registry *Registry, scriptsDir string, opts ...AnalyzerOption) (*Analyzer, error) {
	a := &Analyzer{
		registry:   registry,
		scriptsDir: scriptsDir,
		workers:    goruntime.NumCPU(),
		pending:    make(map[string]request),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.cond = sync.NewCond(&a.mu)
	if a.workers < 1 {
		a.workers = 1
	}

	var rtOpts []runtime.RuntimeOption
	if a.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(a.scriptsFS))
	}
	a.runtime = runtime.NewRuntime(scriptsDir, rtOpts...)

	if a.store != nil {
		if err := a.resetStaleCache(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	for range a.workers {
		a.wg.Add(1)
		go a.work(ctx)
	}
	return a, nil
}

// scriptsHash hashes the path and contents of every outline script.
func (a *Analyzer) scriptsHash() string {
	h := sha256.New()
	for _, p := range a.runtime.ScriptPaths() {
		src, err := a.runtime.LoadScript(p)
		if err != nil {
			continue
		}
		h.Write([]byte(p))
		h.Write([]byte(src))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func (a *Analyzer) resetStaleCache() error {
	current := a.scriptsHash()
	if !a.store.ScriptsChanged(current) {
		return nil
	}
	log.Infof("outline scripts changed, clearing cache")
	if err := a.store.Clear(); err != nil {
		return fmt.Errorf("treeguides: clear cache: %w", err)
	}
	if err := a.store.SetMetadata(store.ScriptsHashKey, current); err != nil {
		return fmt.Errorf("treeguides: store scripts hash: %w", err)
	}
	return nil
}

// Language returns the outline script name for path.
func (a *Analyzer) Language(path string) (string, bool) {
	if a.languages == nil {
		return runtime.LanguageForFile(path)
	}
	lang, ok := a.languages[filepath.Ext(path)]
	return lang, ok && lang != ""
}

// Analyze computes the outline of src synchronously. Cached outlines are
// returned without running the script.
func (a *Analyzer) Analyze(ctx context.Context, path string, version int, src []byte) (*outline.Outline, error) {
	lang, ok := a.Language(path)
	if !ok {
		return nil, fmt.Errorf("treeguides: analyze %s: %w", path, ErrUnsupportedLanguage)
	}
	hash := store.ContentHash(src)

	if a.store != nil {
		e, err := a.store.Outline(path, hash)
		if err != nil {
			log.Warningf("cache lookup %s: %s", path, err)
		} else if e != nil {
			o := *e.Outline
			o.Path = path
			o.Version = version
			return &o, nil
		}
	}

	root, err := a.runtime.Outline(ctx, lang, src)
	if err != nil {
		return nil, fmt.Errorf("treeguides: analyze %s: %w", path, err)
	}
	o := &outline.Outline{
		Path:    path,
		Version: version,
		Length:  len(src),
		Hash:    hash,
		Root:    root,
	}

	if a.store != nil {
		if err := a.store.PutOutline(&store.Entry{Path: path, Hash: hash, Language: lang, Outline: o}); err != nil {
			log.Warningf("cache store %s: %s", path, err)
		} else if _, err := a.store.Prune(path, hash); err != nil {
			log.Warningf("cache prune %s: %s", path, err)
		}
	}
	return o, nil
}

// Request queues src for analysis and returns at once. A newer request for
// the same path replaces one that has not started yet.
func (a *Analyzer) Request(path string, version int, src string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAnalyzerClosed
	}
	if _, ok := a.pending[path]; !ok {
		a.order = append(a.order, path)
	}
	a.pending[path] = request{path: path, version: version, src: []byte(src)}
	a.cond.Signal()
	return nil
}

func (a *Analyzer) next() (request, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for len(a.order) == 0 && !a.closed {
		a.cond.Wait()
	}
	if a.closed {
		return request{}, false
	}
	path := a.order[0]
	a.order = a.order[1:]
	req := a.pending[path]
	delete(a.pending, path)
	return req, true
}

func (a *Analyzer) work(ctx context.Context) {
	defer a.wg.Done()
	for {
		req, ok := a.next()
		if !ok {
			return
		}
		if a.registry == nil || !a.registry.IsOpen(req.path) {
			continue
		}
		o, err := a.Analyze(ctx, req.path, req.version, req.src)
		if err != nil {
			log.Warningf("%s", err)
			continue
		}
		a.registry.Publish(o)
	}
}

// Close drops pending requests, stops the workers and waits for them.
func (a *Analyzer) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.pending = make(map[string]request)
	a.order = nil
	a.cond.Broadcast()
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()
}
