package treeguides

import (
	"sync"

	"github.com/jward/treeguides/internal/outline"
)

// Listener receives every outline accepted for a path. It is called on the
// publishing goroutine and must hand the outline to the document's owner
// before applying it.
type Listener func(o *outline.Outline)

// ListenerID identifies a registered Listener.
type ListenerID int

type fileEntry struct {
	outline   *outline.Outline
	listeners map[ListenerID]Listener
}

// Registry tracks the files open in one session and the newest outline of
// each. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	files    map[string]*fileEntry
	owners   map[ListenerID]string
	nextID   ListenerID
	disposed bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		files:  make(map[string]*fileEntry),
		owners: make(map[ListenerID]string),
	}
}

// Open starts accepting outlines for path. Opening an open path is a no-op.
func (r *Registry) Open(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	if _, ok := r.files[path]; !ok {
		r.files[path] = &fileEntry{listeners: make(map[ListenerID]Listener)}
	}
}

// Close forgets path together with its outline and listeners. Outlines
// published for it afterwards are dropped.
func (r *Registry) Close(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path]
	if !ok {
		return
	}
	for id := range f.listeners {
		delete(r.owners, id)
	}
	delete(r.files, path)
}

// IsOpen reports whether path is open.
func (r *Registry) IsOpen(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.files[path]
	return ok
}

// Outline returns the newest outline of path, or nil.
func (r *Registry) Outline(path string) *outline.Outline {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[path]; ok {
		return f.outline
	}
	return nil
}

// OutlineIfUpdated returns the newest outline of path only when it was
// computed for a text of the given length.
func (r *Registry) OutlineIfUpdated(path string, length int) *outline.Outline {
	o := r.Outline(path)
	if o == nil || o.Length != length {
		return nil
	}
	return o
}

// AddListener registers l for outlines of path. The path must be open.
func (r *Registry) AddListener(path string, l Listener) (ListenerID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path]
	if !ok {
		return 0, false
	}
	r.nextID++
	id := r.nextID
	f.listeners[id] = l
	r.owners[id] = path
	return id, true
}

// RemoveListener unregisters a listener. Unknown ids are ignored.
func (r *Registry) RemoveListener(id ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, ok := r.owners[id]
	if !ok {
		return
	}
	delete(r.owners, id)
	if f, ok := r.files[path]; ok {
		delete(f.listeners, id)
	}
}

// Publish offers o as the newest outline of o.Path and notifies the path's
// listeners if it is accepted. Outlines for closed paths and outlines not
// newer than the current one are dropped.
func (r *Registry) Publish(o *outline.Outline) bool {
	if o == nil || o.Root == nil {
		return false
	}
	r.mu.Lock()
	f, ok := r.files[o.Path]
	if !ok || r.disposed {
		r.mu.Unlock()
		log.Debugf("dropping outline for closed %s", o.Path)
		return false
	}
	if f.outline != nil && o.Version <= f.outline.Version {
		r.mu.Unlock()
		log.Debugf("dropping outline v%d for %s, have v%d", o.Version, o.Path, f.outline.Version)
		return false
	}
	f.outline = o
	listeners := make([]Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	r.mu.Unlock()

	for _, l := range listeners {
		l(o)
	}
	return true
}

// Paths returns the number of open paths.
func (r *Registry) Paths() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

// Dispose closes every path. The registry accepts nothing afterwards.
func (r *Registry) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposed = true
	r.files = make(map[string]*fileEntry)
	r.owners = make(map[ListenerID]string)
}
