// Package registry tracks every known model file under the models directory
// and its lifecycle status. It is pure bookkeeping: the only I/O it performs
// is the directory scan that rebuilds the descriptor snapshot.
package registry

import (
	"sort"
	"sync"
)

// Kind distinguishes chat models from embedding models.
type Kind string

const (
	KindChat      Kind = "chat"
	KindEmbedding Kind = "embedding"
)

// Status is the lifecycle state of one model file.
type Status string

const (
	StatusAbsent      Status = "absent"
	StatusDownloading Status = "downloading"
	StatusReady       Status = "ready"
	StatusLoaded      Status = "loaded"
	StatusError       Status = "error"
)

// Descriptor describes one model file. Identity key is Name, unique across
// the registry. Mutated only through Registry and Downloader methods.
type Descriptor struct {
	Name      string
	Path      string
	Kind      Kind
	SizeBytes int64
	Status    Status
	// Retained failure detail when Status is StatusError.
	Reason string
}

// Registry is the descriptor table. Readers always observe a consistent
// snapshot: Scan builds a fresh map and swaps it in under the write lock.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Descriptor
}

func New() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// List returns descriptors of the given kind, sorted by name.
func (r *Registry) List(kind Kind) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.byName))
	for _, d := range r.byName {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the descriptor for name, or a not-found error.
func (r *Registry) Get(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, notFoundError{name: name}
	}
	return d, nil
}

// SetStatus updates the lifecycle status of a known descriptor and clears
// any retained error reason.
func (r *Registry) SetStatus(name string, st Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byName[name]
	if !ok {
		return notFoundError{name: name}
	}
	d.Status = st
	d.Reason = ""
	r.byName[name] = d
	return nil
}

// SetError transitions a descriptor to StatusError, retaining the reason.
func (r *Registry) SetError(name, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byName[name]
	if !ok {
		return notFoundError{name: name}
	}
	d.Status = StatusError
	d.Reason = reason
	r.byName[name] = d
	return nil
}

// SetSize records the on-disk size of a descriptor once known.
func (r *Registry) SetSize(name string, sizeBytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byName[name]
	if !ok {
		return notFoundError{name: name}
	}
	d.SizeBytes = sizeBytes
	r.byName[name] = d
	return nil
}

// Register inserts or replaces a descriptor. Used by the downloader to
// announce an in-flight transfer before any file exists on disk.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	r.byName[d.Name] = d
	r.mu.Unlock()
}

// Remove deletes a descriptor, e.g. after a failed download is cleaned up.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	delete(r.byName, name)
	r.mu.Unlock()
}

type notFoundError struct{ name string }

func (e notFoundError) Error() string { return "model not found: " + e.name }

// ErrNotFound constructs a not-found error for the given model name.
func ErrNotFound(name string) error { return notFoundError{name: name} }

// IsNotFound reports whether err indicates a missing model name.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}
