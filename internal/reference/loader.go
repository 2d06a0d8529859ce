// Package reference serves the static catalog (branches, insurance policies,
// promotions) to the rest of the console, cached for a short TTL.
package reference

import (
	"context"
	"time"

	"rentawheel/pkg/logger"
	"rentawheel/pkg/model"
)

// Source fetches the catalog from the rental API.
type Source interface {
	StaticData(ctx context.Context) (model.ReferenceData, error)
}

type Loader struct {
	source Source
	cache  Cache
	ttl    time.Duration
	log    *logger.Logger
}

func NewLoader(source Source, cache Cache, ttl time.Duration, log *logger.Logger) *Loader {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Loader{
		source: source,
		cache:  cache,
		ttl:    ttl,
		log:    log,
	}
}

// Load returns the cached catalog or fetches a fresh one. Cache failures are
// logged and fall through to the API.
func (l *Loader) Load(ctx context.Context) (*model.ReferenceData, error) {
	ref, ok, err := l.cache.Get(ctx)
	if err != nil {
		l.log.Warn("Reference cache read failed", "error", err)
	}
	if ok {
		return &ref, nil
	}

	ref, err = l.source.StaticData(ctx)
	if err != nil {
		return nil, err
	}

	if err := l.cache.Set(ctx, ref, l.ttl); err != nil {
		l.log.Warn("Reference cache write failed", "error", err)
	}
	l.log.Debug("Reference data refreshed",
		"branches", len(ref.Branches),
		"insurance", len(ref.Insurance),
		"promotions", len(ref.Promotions),
	)
	return &ref, nil
}

func (l *Loader) Invalidate(ctx context.Context) {
	if err := l.cache.Invalidate(ctx); err != nil {
		l.log.Warn("Reference cache invalidation failed", "error", err)
	}
}
