package shaderset

import (
	"fmt"
	"sync"

	"github.com/gogpu/shaderset/cache"
	"github.com/gogpu/shaderset/reflection"
)

// ModuleCache is a Device that shares one backend module between all
// callers compiling identical bytecode. Modules are reference counted by
// content hash and destroyed on the last DestroyShaderModule.
//
// Create one at startup, pass it wherever a Device is expected, and Close
// it at shutdown. ModuleCache is safe for concurrent use; the wrapped
// device is only called with the cache lock held.
type ModuleCache struct {
	dev Device

	mu     sync.Mutex
	byHash map[[32]byte]*cachedModule
	byID   map[ShaderModuleID]*cachedModule
	closed bool

	hits, misses uint64
}

type cachedModule struct {
	id   ShaderModuleID
	hash [32]byte
	refs int
}

// ModuleCacheStats reports ModuleCache activity.
type ModuleCacheStats struct {
	Modules int
	Hits    uint64
	Misses  uint64
}

// NewModuleCache wraps dev.
func NewModuleCache(dev Device) *ModuleCache {
	return &ModuleCache{
		dev:    dev,
		byHash: make(map[[32]byte]*cachedModule),
		byID:   make(map[ShaderModuleID]*cachedModule),
	}
}

// CreateShaderModule returns the shared module for code, creating it on
// first use.
func (c *ModuleCache) CreateShaderModule(code []uint32, label string) (ShaderModuleID, error) {
	bc, err := FromWords(code)
	if err != nil {
		return InvalidModule, err
	}
	hash := bc.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return InvalidModule, ErrCacheClosed
	}
	if m, ok := c.byHash[hash]; ok {
		m.refs++
		c.hits++
		Logger().Debug("shaderset: module cache hit", "module", uint64(m.id), "refs", m.refs)
		return m.id, nil
	}
	id, err := c.dev.CreateShaderModule(code, label)
	if err != nil {
		return InvalidModule, err
	}
	if id == InvalidModule {
		return InvalidModule, fmt.Errorf("%w: device returned the invalid module ID", ErrBackendCompile)
	}
	m := &cachedModule{id: id, hash: hash, refs: 1}
	c.byHash[hash] = m
	c.byID[id] = m
	c.misses++
	return id, nil
}

// DestroyShaderModule drops one reference to id and destroys the module
// when none remain.
func (c *ModuleCache) DestroyShaderModule(id ShaderModuleID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.byID[id]
	if !ok {
		Logger().Warn("shaderset: destroy of unknown module", "module", uint64(id))
		return
	}
	m.refs--
	if m.refs > 0 {
		return
	}
	delete(c.byID, id)
	delete(c.byHash, m.hash)
	c.dev.DestroyShaderModule(id)
}

// Refs returns the reference count of id, or 0 if the cache does not hold
// it.
func (c *ModuleCache) Refs(id ShaderModuleID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.byID[id]; ok {
		return m.refs
	}
	return 0
}

// Stats returns a snapshot of cache activity.
func (c *ModuleCache) Stats() ModuleCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ModuleCacheStats{Modules: len(c.byID), Hits: c.hits, Misses: c.misses}
}

// Close destroys every module still alive and returns how many there were.
// Any such module is a leak: some Set was never disposed. Further
// CreateShaderModule calls fail with ErrCacheClosed.
func (c *ModuleCache) Close() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0
	}
	c.closed = true
	leaked := len(c.byID)
	for id, m := range c.byID {
		Logger().Warn("shaderset: module leaked", "module", uint64(id), "refs", m.refs)
		c.dev.DestroyShaderModule(id)
	}
	clear(c.byID)
	clear(c.byHash)
	return leaked
}

// ReflectionCache memoizes per-stage reflection by bytecode hash in a
// sharded LRU. Cached modules are shared and must not be modified.
type ReflectionCache struct {
	lru *cache.Sharded[cache.Digest, *reflection.Module]
}

// NewReflectionCache returns a cache holding about capacity modules.
// capacity <= 0 selects cache.DefaultCapacity.
func NewReflectionCache(capacity int) *ReflectionCache {
	return &ReflectionCache{lru: cache.NewSharded[cache.Digest, *reflection.Module](capacity, cache.DigestHasher)}
}

// Module returns the reflection of code, parsing it on a miss.
// Parse errors are not cached.
func (rc *ReflectionCache) Module(code Bytecode) (*reflection.Module, error) {
	if code.IsZero() {
		return nil, fmt.Errorf("%w: no words", ErrInvalidBytecode)
	}
	return rc.lru.GetOrCompute(cache.Digest(code.Hash()), func() (*reflection.Module, error) {
		return reflection.Parse(code.words)
	})
}

// Layout is Builder.Reflect backed by the cache.
func (rc *ReflectionCache) Layout(b Builder, opts ...reflection.MergeOption) (*reflection.Layout, error) {
	return b.reflect(rc, opts)
}

// Stats returns the underlying LRU statistics.
func (rc *ReflectionCache) Stats() cache.Stats {
	return rc.lru.Stats()
}
