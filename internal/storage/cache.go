package storage

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/RMahshie/photoiso/pkg/spectral"
)

// CachedSpectrumStore serves repeated reads from memory. Entries expire after
// the configured TTL and are dropped when their section is written.
//
// Each kind carries a generation that Save advances. A read that overlapped
// a Save of its kind returns what it read but does not cache it.
type CachedSpectrumStore struct {
	next  SpectrumStore
	cache *cache.Cache

	mu  sync.Mutex
	gen map[Kind]uint64
}

// NewCachedSpectrumStore wraps next with a read-through cache.
func NewCachedSpectrumStore(next SpectrumStore, ttl time.Duration) *CachedSpectrumStore {
	return &CachedSpectrumStore{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
		gen:   make(map[Kind]uint64),
	}
}

func (c *CachedSpectrumStore) generation(kind Kind) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[kind]
}

// store caches v unless a Save of kind started since gen was read.
func (c *CachedSpectrumStore) store(kind Kind, gen uint64, key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[kind] == gen {
		c.cache.SetDefault(key, v)
	}
}

func (c *CachedSpectrumStore) invalidate(kind Kind, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[kind]++
	c.cache.Delete(loadCacheKey(kind, name))
	c.cache.Delete(listCacheKey(kind))
}

func listCacheKey(kind Kind) string { return "list:" + string(kind) }

func loadCacheKey(kind Kind, name string) string { return "load:" + string(kind) + "/" + name }

func (c *CachedSpectrumStore) List(ctx context.Context, kind Kind) ([]string, error) {
	if v, ok := c.cache.Get(listCacheKey(kind)); ok {
		return append([]string(nil), v.([]string)...), nil
	}

	gen := c.generation(kind)
	names, err := c.next.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	c.store(kind, gen, listCacheKey(kind), names)
	return append([]string(nil), names...), nil
}

func (c *CachedSpectrumStore) Load(ctx context.Context, kind Kind, name string) (spectral.RawSpectrum, error) {
	if v, ok := c.cache.Get(loadCacheKey(kind, name)); ok {
		return append(spectral.RawSpectrum(nil), v.(spectral.RawSpectrum)...), nil
	}

	gen := c.generation(kind)
	raw, err := c.next.Load(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	c.store(kind, gen, loadCacheKey(kind, name), raw)
	return append(spectral.RawSpectrum(nil), raw...), nil
}

func (c *CachedSpectrumStore) Save(ctx context.Context, kind Kind, name string, s spectral.GridSpectrum) error {
	// Invalidate on both sides: before, so reads in flight are not cached;
	// after, so anything cached while the write was running is dropped.
	c.invalidate(kind, name)
	err := c.next.Save(ctx, kind, name, s)
	c.invalidate(kind, name)
	return err
}

func (c *CachedSpectrumStore) DownloadURL(ctx context.Context, kind Kind, name string) (string, error) {
	return c.next.DownloadURL(ctx, kind, name)
}
