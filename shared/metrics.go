package shared

import (
	"sync"
	"time"
)

// ResolverMetrics tracks resolution outcomes across all reading types.
// Cache hits must dominate: every miss is a paid generation call.
type ResolverMetrics struct {
	CacheHits           int64     `json:"cache_hits"`
	CacheMisses         int64     `json:"cache_misses"`
	CacheReadFailures   int64     `json:"cache_read_failures"`
	Generations         int64     `json:"generations"`
	GenerationFailures  int64     `json:"generation_failures"`
	PersistenceWrites   int64     `json:"persistence_writes"`
	PersistenceFailures int64     `json:"persistence_failures"`
	LastUpdated         time.Time `json:"last_updated"`
	mutex               sync.RWMutex
}

// NewResolverMetrics creates a new metrics tracker.
func NewResolverMetrics() *ResolverMetrics {
	return &ResolverMetrics{LastUpdated: time.Now()}
}

func (m *ResolverMetrics) RecordCacheHit() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.CacheHits++
	m.LastUpdated = time.Now()
}

func (m *ResolverMetrics) RecordCacheMiss() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.CacheMisses++
	m.LastUpdated = time.Now()
}

func (m *ResolverMetrics) RecordCacheReadFailure() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.CacheReadFailures++
	m.LastUpdated = time.Now()
}

// RecordGeneration records a generation attempt and its outcome.
func (m *ResolverMetrics) RecordGeneration(success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Generations++
	if !success {
		m.GenerationFailures++
	}
	m.LastUpdated = time.Now()
}

// RecordPersistenceWrite records a fire-and-forget write attempt and its outcome.
func (m *ResolverMetrics) RecordPersistenceWrite(success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.PersistenceWrites++
	if !success {
		m.PersistenceFailures++
	}
	m.LastUpdated = time.Now()
}

// Snapshot returns a copy safe for serialization.
func (m *ResolverMetrics) Snapshot() ResolverMetrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return ResolverMetrics{
		CacheHits:           m.CacheHits,
		CacheMisses:         m.CacheMisses,
		CacheReadFailures:   m.CacheReadFailures,
		Generations:         m.Generations,
		GenerationFailures:  m.GenerationFailures,
		PersistenceWrites:   m.PersistenceWrites,
		PersistenceFailures: m.PersistenceFailures,
		LastUpdated:         m.LastUpdated,
	}
}

// HitRate returns the cache hit rate as a percentage.
func (m *ResolverMetrics) HitRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	lookups := m.CacheHits + m.CacheMisses
	if lookups == 0 {
		return 0.0
	}
	return float64(m.CacheHits) / float64(lookups) * 100.0
}
