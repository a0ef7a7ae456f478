package ephemeris

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shandianxiao218/fly-cline/core"
)

// DefaultCacheSize bounds the position cache when callers pass no size.
// It comfortably covers a full constellation over several stream ticks.
const DefaultCacheSize = 4096

// CachingProvider wraps an EphemerisProvider with a bounded LRU cache of
// propagated positions keyed by (satellite, epoch). The stream loop asks
// for the same (satellite, epoch) pairs from multiple clients; caching
// skips the repeated Kepler solves. Failed propagations are never cached.
type CachingProvider struct {
	inner core.EphemerisProvider
	cache *lru.Cache[positionKey, core.Vec3]
}

type positionKey struct {
	satelliteID string
	unixNano    int64
}

// NewCachingProvider wraps inner with a cache of the given size; size <= 0
// selects DefaultCacheSize.
func NewCachingProvider(inner core.EphemerisProvider, size int) (*CachingProvider, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: ephemeris provider", core.ErrMissingParameter)
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[positionKey, core.Vec3](size)
	if err != nil {
		return nil, err
	}
	return &CachingProvider{inner: inner, cache: cache}, nil
}

// PositionSource implements core.EphemerisProvider.
func (p *CachingProvider) PositionSource(satelliteID string) (core.PositionSource, error) {
	src, err := p.inner.PositionSource(satelliteID)
	if err != nil {
		return nil, err
	}
	return &cachingSource{satelliteID: satelliteID, inner: src, cache: p.cache}, nil
}

type cachingSource struct {
	satelliteID string
	inner       core.PositionSource
	cache       *lru.Cache[positionKey, core.Vec3]
}

func (s *cachingSource) PositionECEF(t time.Time) (core.Vec3, error) {
	key := positionKey{satelliteID: s.satelliteID, unixNano: t.UnixNano()}
	if pos, ok := s.cache.Get(key); ok {
		return pos, nil
	}
	pos, err := s.inner.PositionECEF(t)
	if err != nil {
		return core.Vec3{}, err
	}
	s.cache.Add(key, pos)
	return pos, nil
}
