package feature

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// FilterBankCache builds each filter bank configuration at most once and
// shares the result. Banks are read-only after construction; callers must not
// mutate the returned matrices.
type FilterBankCache struct {
	entries sync.Map // FilterBankKey -> *cacheEntry
	builds  atomic.Int64
}

type cacheEntry struct {
	once sync.Once
	fb   atomic.Pointer[mat.Dense]
}

func NewFilterBankCache() *FilterBankCache {
	return &FilterBankCache{}
}

// Get returns the filter bank for key, constructing it on first use.
// Concurrent first calls for the same key block until the single build
// finishes.
func (c *FilterBankCache) Get(key FilterBankKey) *mat.Dense {
	if v, ok := c.entries.Load(key); ok {
		if fb := v.(*cacheEntry).fb.Load(); fb != nil {
			return fb
		}
	}
	v, _ := c.entries.LoadOrStore(key, &cacheEntry{})
	e := v.(*cacheEntry)
	e.once.Do(func() {
		e.fb.Store(NewFilterBank(key))
		c.builds.Add(1)
	})
	return e.fb.Load()
}

// Builds reports how many filter banks have been constructed.
func (c *FilterBankCache) Builds() int {
	return int(c.builds.Load())
}
