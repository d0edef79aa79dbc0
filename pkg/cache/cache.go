// Package cache stores rendered figure bytes between runs.
//
// Keys are content addressed: they hash the chart's SVG rendering together
// with the export spec, so an entry never goes stale when data or styling
// changes. Two implementations are provided: [FileCache] for the CLI and
// [NullCache] for --no-cache and tests.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store keyed by string.
type Cache interface {
	// Get returns the cached bytes. A miss returns ok=false and a nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry and reports how many were removed.
	Clear(ctx context.Context) (int, error)

	Close() error
}
