// Package cache owns model residency: at most one loaded engine per model
// name, reference-counted checkout, and explicit unload. Loading is
// linearized per name through a lazily created per-name lock, so concurrent
// requests for the same model trigger exactly one physical load while
// unrelated models never contend.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/engine"
	"inferd/internal/registry"
)

// EngineFactory constructs the inference backend for a descriptor. This is
// the expensive step the cache guards against running twice.
type EngineFactory func(d registry.Descriptor) (engine.Engine, error)

// LoadedModel is a checked-out resident model. Callers must hand it back
// via Cache.Release on every exit path.
type LoadedModel struct {
	desc     registry.Descriptor
	eng      engine.Engine
	refs     int
	lastUsed time.Time
	// size 1: generation is a critical section per engine, llama.cpp
	// contexts are not reentrant.
	genCh chan struct{}
}

// Descriptor returns the registry descriptor this model was loaded from.
func (lm *LoadedModel) Descriptor() registry.Descriptor { return lm.desc }

// Generate runs one completion on the underlying engine, waiting for the
// per-model in-flight slot first.
func (lm *LoadedModel) Generate(ctx context.Context, prompt string, p engine.GenerateParams) (string, error) {
	select {
	case lm.genCh <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-lm.genCh }()
	return lm.eng.Generate(ctx, prompt, p)
}

// Embed runs one embedding on the underlying engine, serialized the same
// way as Generate.
func (lm *LoadedModel) Embed(ctx context.Context, input string) ([]float32, error) {
	select {
	case lm.genCh <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-lm.genCh }()
	return lm.eng.Embed(ctx, input)
}

// Cache is the process-wide model residency manager. Construct one at
// startup and pass it by reference; Close drains it at shutdown.
type Cache struct {
	mu      sync.Mutex // guards loaded, locks and ref counts only
	loaded  map[string]*LoadedModel
	locks   map[string]*sync.Mutex
	reg     *registry.Registry
	factory EngineFactory
	log     zerolog.Logger
}

func New(reg *registry.Registry, factory EngineFactory, log zerolog.Logger) *Cache {
	return &Cache{
		loaded:  make(map[string]*LoadedModel),
		locks:   make(map[string]*sync.Mutex),
		reg:     reg,
		factory: factory,
		log:     log,
	}
}

// Acquire checks out the model, loading it first if needed. Concurrent
// callers for the same name block until the single load finishes and then
// share the resulting engine, each with their own reference.
func (c *Cache) Acquire(ctx context.Context, name string) (*LoadedModel, error) {
	// Fast path: already resident.
	if lm := c.addRefIfLoaded(name); lm != nil {
		return lm, nil
	}

	lk := c.nameLock(name)
	lk.Lock()
	defer lk.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Someone else may have finished the load while we waited on the lock.
	if lm := c.addRefIfLoaded(name); lm != nil {
		return lm, nil
	}

	d, err := c.reg.Get(name)
	if err != nil {
		return nil, err
	}
	switch d.Status {
	case registry.StatusReady, registry.StatusLoaded:
		// StatusLoaded without a cache entry means the previous engine is
		// gone (e.g. process-internal inconsistency); reload.
	default:
		return nil, notReadyError{name: name, status: string(d.Status)}
	}

	start := time.Now()
	c.log.Info().Str("model", name).Str("path", d.Path).Msg("loading model")
	eng, err := c.factory(d)
	if err != nil {
		// No cache entry is created and the per-name lock is released on
		// return, so the load can simply be retried. The registry keeps
		// StatusReady: the file on disk is still usable.
		c.log.Error().Str("model", name).Err(err).Msg("model load failed")
		return nil, loadFailureError{name: name, err: err}
	}

	lm := &LoadedModel{
		desc:     d,
		eng:      eng,
		refs:     1,
		lastUsed: time.Now(),
		genCh:    make(chan struct{}, 1),
	}
	c.mu.Lock()
	c.loaded[name] = lm
	c.mu.Unlock()
	_ = c.reg.SetStatus(name, registry.StatusLoaded)
	c.log.Info().Str("model", name).Dur("dur", time.Since(start)).Msg("model loaded")
	return lm, nil
}

// Release hands a reference back. It never evicts: residency is explicit-
// lifetime, the model stays warm for subsequent requests until Unload.
func (c *Cache) Release(lm *LoadedModel) {
	if lm == nil {
		return
	}
	c.mu.Lock()
	if lm.refs > 0 {
		lm.refs--
	}
	lm.lastUsed = time.Now()
	c.mu.Unlock()
}

// Unload destroys the engine and frees the name for a fresh load. A model
// with outstanding references is left untouched and the call fails; callers
// retry later rather than the cache deferring the unload invisibly.
func (c *Cache) Unload(name string) error {
	lk := c.nameLock(name)
	lk.Lock()
	defer lk.Unlock()

	c.mu.Lock()
	lm := c.loaded[name]
	if lm == nil {
		c.mu.Unlock()
		return notLoadedError{name: name}
	}
	if lm.refs > 0 {
		refs := lm.refs
		c.mu.Unlock()
		return busyError{name: name, refs: refs}
	}
	delete(c.loaded, name)
	c.mu.Unlock()

	if err := lm.eng.Close(); err != nil {
		c.log.Error().Str("model", name).Err(err).Msg("engine close failed")
	}
	_ = c.reg.SetStatus(name, registry.StatusReady)
	c.log.Info().Str("model", name).Msg("model unloaded")
	return nil
}

// Loaded returns descriptors of all resident models, sorted by name.
func (c *Cache) Loaded() []registry.Descriptor {
	c.mu.Lock()
	out := make([]registry.Descriptor, 0, len(c.loaded))
	for _, lm := range c.loaded {
		out = append(out, lm.desc)
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsLoaded reports residency for one name.
func (c *Cache) IsLoaded(name string) bool {
	c.mu.Lock()
	_, ok := c.loaded[name]
	c.mu.Unlock()
	return ok
}

// Refs returns the current reference count for a resident model, 0 if the
// model is not loaded.
func (c *Cache) Refs(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lm := c.loaded[name]; lm != nil {
		return lm.refs
	}
	return 0
}

// Close force-closes every resident engine at shutdown, outstanding
// references included; the process is going away.
func (c *Cache) Close() {
	c.mu.Lock()
	resident := make([]*LoadedModel, 0, len(c.loaded))
	for name, lm := range c.loaded {
		if lm.refs > 0 {
			c.log.Warn().Str("model", name).Int("refs", lm.refs).Msg("closing model with outstanding references")
		}
		resident = append(resident, lm)
		delete(c.loaded, name)
	}
	c.mu.Unlock()
	for _, lm := range resident {
		if err := lm.eng.Close(); err != nil {
			c.log.Error().Str("model", lm.desc.Name).Err(err).Msg("engine close failed")
		}
		_ = c.reg.SetStatus(lm.desc.Name, registry.StatusReady)
	}
}

func (c *Cache) addRefIfLoaded(name string) *LoadedModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	lm := c.loaded[name]
	if lm != nil {
		lm.refs++
		lm.lastUsed = time.Now()
	}
	return lm
}

// nameLock returns the load lock for name, creating it on first use. The
// lookup itself is guarded by the short-held cache mutex, distinct from the
// per-name lock callers then block on.
func (c *Cache) nameLock(name string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lk := c.locks[name]
	if lk == nil {
		lk = &sync.Mutex{}
		c.locks[name] = lk
	}
	return lk
}
