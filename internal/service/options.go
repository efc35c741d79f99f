package service

import "github.com/himanishpuri/AcousticScene/internal/feature"

type options struct {
	store   Storage
	log     Logger
	workers int
	cache   *feature.FilterBankCache
	strict  bool
}

type Option func(*options)

// WithStore replaces the sqlite store opened from the configured path.
func WithStore(store Storage) Option {
	return func(o *options) {
		o.store = store
	}
}

func WithLogger(log Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithWorkers overrides the configured worker count.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithFilterBankCache shares a filter bank cache across services.
func WithFilterBankCache(cache *feature.FilterBankCache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithStrict makes PrepareData fail on recordings shorter than one context
// window instead of skipping them.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}
