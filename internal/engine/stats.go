package engine

import (
	"sync"

	"github.com/saffronlabs/saffron/internal/model"
)

// stats accumulates pipeline counters. Cache hits are tracked apart
// from method counts so hit rate and method distribution stay
// independent.
type stats struct {
	byMethod      map[model.Method]int64
	totalConf     float64
	classified    int64
	cacheHits     int64
	cacheMisses   int64
	mu            sync.Mutex
}

// StatsSnapshot is a point-in-time copy of engine counters.
type StatsSnapshot struct {
	ByMethod          map[model.Method]int64
	Classified        int64
	CacheHits         int64
	CacheMisses       int64
	AverageConfidence float64
}

// CacheHitRate returns hits over total cache lookups, or zero when the
// cache was never consulted.
func (s StatsSnapshot) CacheHitRate() float64 {
	lookups := s.CacheHits + s.CacheMisses
	if lookups == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(lookups)
}

func (s *stats) recordResult(result model.ClassificationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byMethod == nil {
		s.byMethod = make(map[model.Method]int64)
	}
	s.byMethod[result.Method]++
	s.totalConf += result.Confidence
	s.classified++
}

func (s *stats) recordCacheHit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheHits++
}

func (s *stats) recordCacheMiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheMisses++
}

func (s *stats) snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byMethod := make(map[model.Method]int64, len(s.byMethod))
	for method, count := range s.byMethod {
		byMethod[method] = count
	}

	snap := StatsSnapshot{
		ByMethod:    byMethod,
		Classified:  s.classified,
		CacheHits:   s.cacheHits,
		CacheMisses: s.cacheMisses,
	}
	if s.classified > 0 {
		snap.AverageConfidence = s.totalConf / float64(s.classified)
	}
	return snap
}
