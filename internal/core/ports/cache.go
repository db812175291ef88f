package ports

import (
	"context"
	"time"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/fingerprint"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
)

// Cache defines a minimal key-value cache contract for shared, serialized snapshots.
// Implementations should degrade gracefully (returning an error without crashing callers)
// so that application logic can fall back to the primary datastore.
type Cache interface {
	// Get returns the raw bytes for key. ok=false if not found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for key with TTL (0 or negative means no expiration if supported).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
}

// CacheStats is a point-in-time view of the insight cache counters.
type CacheStats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Size      int     `json:"size"`
	HitRate   float64 `json:"hit_rate"`
	Evictions uint64  `json:"evictions"`
}

// CacheHealth is healthy exactly when Issues is empty.
type CacheHealth struct {
	Healthy bool     `json:"healthy"`
	Issues  []string `json:"issues"`
}

// InsightCache is the process-local, namespaced, fingerprint-aware TTL cache in front
// of insight generation. Operations are bounded-time and never block on I/O, so they
// take no context.
type InsightCache interface {
	// Get returns the artifact stored for the descriptor's fingerprint, or false when the
	// entry is absent, expired, or was stored under a different fingerprint.
	Get(namespace string, d fingerprint.Descriptor) (insight.Artifact, bool)
	// Set overwrites the entry for the descriptor's fingerprint. ttl <= 0 uses the namespace TTL.
	Set(namespace string, d fingerprint.Descriptor, artifact insight.Artifact, ttl time.Duration)
	// Invalidate removes every entry of one namespace and returns how many were removed.
	Invalidate(namespace string) int
	// Clear removes every entry. Counters are kept.
	Clear() int
	// Cleanup removes expired entries.
	Cleanup() int
	Stats() CacheStats
	Health() CacheHealth
	ResetStats()
	// NamespaceSizes counts live entries per namespace.
	NamespaceSizes() map[string]int
}
