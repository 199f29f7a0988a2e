// Package cache provides artifact caching for rendered images.
//
// Rendering a TikZ snippet means running a full LaTeX toolchain, which
// easily takes seconds; re-rendering an unchanged document is pure
// waste. The cache keys artifacts by a hash of the assembled LaTeX
// document plus the options that influence the output bytes, so any
// change to the snippet, preamble, size or format misses cleanly.
//
// Two backends are provided: a file cache for CLI usage and a Redis
// cache for server deployments. A null backend disables caching.
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long rendered artifacts stay valid. Artifacts are
// content-addressed, so the TTL only bounds disk usage.
const TTLArtifact = 14 * 24 * time.Hour

// Cache stores rendered artifacts keyed by string.
type Cache interface {
	// Get returns the cached data and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key with the given TTL (0 = no expiry).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts are the render options that change output bytes and
// therefore participate in the cache key.
type ArtifactKeyOpts struct {
	Format string
	Width  int
	Height int
	Scale  float64

	// SizeExplicit participates because SVG bytes depend on it: with an
	// explicit size the requested dimensions are stamped onto the SVG,
	// otherwise the viewBox supplies them. The same document rendered
	// both ways must not share one cache entry.
	SizeExplicit bool
}

// Keyer derives cache keys. Implementations must be deterministic.
type Keyer interface {
	// ArtifactKey derives a key from the assembled document hash and
	// the output options.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the document hash together with the options.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ArtifactKey implements Keyer.
func (k *DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", docHash, opts)
}
