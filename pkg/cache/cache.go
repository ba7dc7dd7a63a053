// Package cache provides the compute-once caching layer for critlens.
//
// The core forest computation is pure and deterministic, so repeated
// analyses of the same trace can be served from cache keyed by input
// identity. This package defines the [Cache] interface with several
// backends (file, Redis, MongoDB, null) and the [Keyer] abstraction that
// derives stable, collision-free keys for each pipeline stage.
//
// # Backends
//
//   - [FileCache]: directory-backed cache for CLI usage (XDG cache dir)
//   - [RedisCache]: Redis-backed cache for server deployments
//   - [MongoCache]: MongoDB-backed cache for shared archival deployments
//   - [NullCache]: no-op cache for tests or when caching is disabled
//
// # Keys
//
// Keys are prefixed by stage ("trace:", "forest:", "artifact:") and derive
// from a SHA-256 content hash of the stage input plus the options that
// affect the stage's output. Use [ScopedKeyer] to add a namespace prefix
// for multi-tenant isolation.
package cache

import (
	"context"
	"time"
)

// TTLs for the different pipeline stages. Forest computation is pure, so
// its entries could live forever; the TTLs bound disk usage, not
// correctness.
const (
	// TTLHTTP is the lifetime of cached remote trace fetches.
	TTLHTTP = 1 * time.Hour

	// TTLForest is the lifetime of cached assembled forests.
	TTLForest = 7 * 24 * time.Hour

	// TTLArtifact is the lifetime of cached rendered artifacts.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys with per-entry TTLs.
//
// Get returns (nil, false, nil) for a miss; errors are reserved for backend
// failures. Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves the value stored under key.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the value stored under key, if any.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources (connections, file handles).
	Close() error
}

// ForestKeyOpts are the options that affect forest assembly and therefore
// participate in the forest cache key.
type ForestKeyOpts struct {
	// MaxRequests caps how many records the pipeline feeds the assembler.
	MaxRequests int `json:"max_requests"`
}

// ArtifactKeyOpts are the options that affect artifact rendering and
// therefore participate in the artifact cache key.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// Keyer derives cache keys for the pipeline stages.
type Keyer interface {
	// HTTPKey generates a key for a cached HTTP response.
	HTTPKey(namespace, key string) string

	// ForestKey generates a key for an assembled forest, derived from the
	// content hash of the input trace and the assembly options.
	ForestKey(traceHash string, opts ForestKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact, derived from
	// the content hash of the serialized forest and the render options.
	ArtifactKey(forestHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard Keyer implementation.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ForestKey generates a key for forest caching.
func (k *DefaultKeyer) ForestKey(traceHash string, opts ForestKeyOpts) string {
	return hashKey("forest", traceHash, opts)
}

// ArtifactKey generates a key for artifact caching.
func (k *DefaultKeyer) ArtifactKey(forestHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", forestHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
