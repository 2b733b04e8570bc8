// Package services contains server-side business logic: account
// registration and login (UserService) and video upload and listing
// (VideoService).
package services

import (
	"github.com/dmitrijs2005/clipshare/internal/server/cache"
	"github.com/dmitrijs2005/clipshare/internal/server/events"
	"github.com/dmitrijs2005/clipshare/internal/server/metrics"
)

type options struct {
	publisher events.Publisher
	cache     cache.ListingCache
	metrics   *metrics.Metrics
}

// Option wires an optional collaborator into a service.
type Option func(*options)

// WithPublisher sends domain events through p.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithCache caches video listings in c.
func WithCache(c cache.ListingCache) Option {
	return func(o *options) { o.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{publisher: events.Nop{}, cache: cache.Nop{}}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
