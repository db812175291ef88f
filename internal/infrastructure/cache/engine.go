package cache

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/fingerprint"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

// Separator joins a namespace and a fingerprint hash into a store key.
const Separator = ":"

const (
	missAbsent      = "absent"
	missExpired     = "expired"
	missFingerprint = "fingerprint"
)

const (
	issueSizeLarge  = "cache size large"
	issueLowHitRate = "low hit rate"
)

// HealthPolicy holds the thresholds Health reports against.
type HealthPolicy struct {
	MaxSize    int
	// MinHitRate is a percentage; 0 turns the hit-rate rule off and a negative value
	// falls back to the default.
	MinHitRate float64
	// MinSamples is the number of lookups required before the hit rate is judged.
	MinSamples uint64
}

// Config configures an Engine. Zero values fall back to the defaults of DefaultConfig,
// except Health.MinHitRate.
type Config struct {
	DefaultTTL time.Duration
	TTLs       map[string]time.Duration
	Schemas    map[string]fingerprint.Schema
	// MaxEntries caps the store with LRU eviction. 0 means unbounded.
	MaxEntries int
	Health     HealthPolicy
	Clock      func() time.Time
	Hash       fingerprint.HashFunc
}

func DefaultConfig() Config {
	return Config{
		DefaultTTL: insight.DefaultTTL,
		TTLs:       insight.DefaultTTLs(),
		Schemas:    insight.DefaultSchemas(),
		Health: HealthPolicy{
			MaxSize:    100,
			MinHitRate: 30,
			MinSamples: 10,
		},
		Clock: time.Now,
		Hash:  fingerprint.Hash32,
	}
}

// Engine is the namespaced, fingerprint-aware TTL cache in front of insight generation.
// All operations hold one mutex for their whole duration and never perform I/O.
type Engine struct {
	mu     sync.Mutex
	store  *Store
	cfg    Config
	logger *logrus.Logger

	hits      uint64
	misses    uint64
	evictions uint64
}

var _ ports.InsightCache = (*Engine)(nil)

func NewEngine(cfg Config, logger *logrus.Logger) *Engine {
	def := DefaultConfig()
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = def.DefaultTTL
	}
	if cfg.TTLs == nil {
		cfg.TTLs = def.TTLs
	}
	if cfg.Schemas == nil {
		cfg.Schemas = def.Schemas
	}
	if cfg.Health.MaxSize <= 0 {
		cfg.Health.MaxSize = def.Health.MaxSize
	}
	if cfg.Health.MinHitRate < 0 {
		cfg.Health.MinHitRate = def.Health.MinHitRate
	}
	if cfg.Health.MinSamples == 0 {
		cfg.Health.MinSamples = def.Health.MinSamples
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.Hash == nil {
		cfg.Hash = def.Hash
	}
	return &Engine{store: NewStore(cfg.MaxEntries), cfg: cfg, logger: logger}
}

// Key returns the store key of a fingerprint within a namespace.
func Key(namespace string, fp fingerprint.Fingerprint) string {
	return namespace + Separator + fp.HashString()
}

// TTL returns the lifetime entries of namespace get when Set is called without an override.
func (e *Engine) TTL(namespace string) time.Duration {
	if ttl, ok := e.cfg.TTLs[namespace]; ok && ttl > 0 {
		return ttl
	}
	return e.cfg.DefaultTTL
}

func (e *Engine) fingerprint(namespace string, d fingerprint.Descriptor) fingerprint.Fingerprint {
	return fingerprint.Compute(e.cfg.Schemas[namespace], d, e.cfg.Hash)
}

func (e *Engine) Get(namespace string, d fingerprint.Descriptor) (insight.Artifact, bool) {
	fp := e.fingerprint(namespace, d)
	key := Key(namespace, fp)

	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.store.Get(key)
	if !ok {
		e.recordMiss(namespace, key, missAbsent)
		return insight.Artifact{}, false
	}
	if entry.Expired(e.cfg.Clock()) {
		e.store.Delete(key)
		e.recordMiss(namespace, key, missExpired)
		return insight.Artifact{}, false
	}
	// equal hashes with different canonical text are a collision, not a hit
	if entry.Fingerprint != fp.Canonical {
		e.store.Delete(key)
		e.recordMiss(namespace, key, missFingerprint)
		return insight.Artifact{}, false
	}

	e.hits++
	cacheHitsTotal.WithLabelValues(namespace).Inc()
	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{"namespace": namespace, "key": key}).Debug("insight cache hit")
	}
	return entry.Artifact.Clone(), true
}

func (e *Engine) recordMiss(namespace, key, reason string) {
	e.misses++
	cacheMissesTotal.WithLabelValues(namespace, reason).Inc()
	if reason != missAbsent {
		cacheEntries.Set(float64(e.store.Len()))
	}
	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{"namespace": namespace, "key": key, "reason": reason}).Debug("insight cache miss")
	}
}

func (e *Engine) Set(namespace string, d fingerprint.Descriptor, artifact insight.Artifact, ttl time.Duration) {
	if ttl <= 0 {
		ttl = e.TTL(namespace)
	}
	fp := e.fingerprint(namespace, d)
	key := Key(namespace, fp)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.cfg.Clock()
	evicted := e.store.Put(key, &Entry{
		Namespace:   namespace,
		Artifact:    artifact.Clone(),
		Fingerprint: fp.Canonical,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	})
	if evicted {
		e.evictions++
		cacheEvictionsTotal.Inc()
	}
	cacheSetsTotal.WithLabelValues(namespace).Inc()

	swept := e.store.Sweep(now)
	if swept > 0 {
		cacheRemovedTotal.WithLabelValues("expired").Add(float64(swept))
	}
	cacheEntries.Set(float64(e.store.Len()))

	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{
			"namespace": namespace,
			"key":       key,
			"ttl":       ttl.String(),
			"insights":  len(artifact.Insights),
			"swept":     swept,
			"evicted":   evicted,
		}).Debug("insight cache set")
	}
}

func (e *Engine) Invalidate(namespace string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.store.DeletePrefix(namespace + Separator)
	cacheRemovedTotal.WithLabelValues("invalidate").Add(float64(removed))
	cacheEntries.Set(float64(e.store.Len()))
	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{"namespace": namespace, "removed": removed}).Info("insight cache namespace invalidated")
	}
	return removed
}

func (e *Engine) Clear() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.store.Purge()
	cacheRemovedTotal.WithLabelValues("clear").Add(float64(removed))
	cacheEntries.Set(0)
	if e.logger != nil {
		e.logger.WithField("removed", removed).Info("insight cache cleared")
	}
	return removed
}

func (e *Engine) Cleanup() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.store.Sweep(e.cfg.Clock())
	cacheRemovedTotal.WithLabelValues("expired").Add(float64(removed))
	cacheEntries.Set(float64(e.store.Len()))
	return removed
}

func (e *Engine) Stats() ports.CacheStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statsLocked()
}

func (e *Engine) statsLocked() ports.CacheStats {
	return ports.CacheStats{
		Hits:      e.hits,
		Misses:    e.misses,
		Size:      e.store.Len(),
		HitRate:   hitRate(e.hits, e.misses),
		Evictions: e.evictions,
	}
}

func (e *Engine) Health() ports.CacheHealth {
	e.mu.Lock()
	stats := e.statsLocked()
	e.mu.Unlock()

	issues := []string{}
	if stats.Size > e.cfg.Health.MaxSize {
		issues = append(issues, issueSizeLarge)
	}
	if stats.Hits+stats.Misses > e.cfg.Health.MinSamples && stats.HitRate < e.cfg.Health.MinHitRate {
		issues = append(issues, issueLowHitRate)
	}
	return ports.CacheHealth{Healthy: len(issues) == 0, Issues: issues}
}

func (e *Engine) ResetStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hits, e.misses, e.evictions = 0, 0, 0
	if e.logger != nil {
		e.logger.Info("insight cache stats reset")
	}
}

func (e *Engine) NamespaceSizes() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.cfg.Clock()
	sizes := make(map[string]int)
	e.store.Each(func(key string, entry *Entry) {
		if entry.Expired(now) {
			return
		}
		ns := entry.Namespace
		if ns == "" {
			ns, _, _ = strings.Cut(key, Separator)
		}
		sizes[ns]++
	})
	return sizes
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(total)*100*100) / 100
}
