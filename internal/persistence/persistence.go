// Package persistence stores the last-seen release tag per tracked item.
//
// Keys are composite "{watcher_type}_{repo_identifier}" strings; the
// same repo under two watcher types is two independent entries.
package persistence

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownBackend indicates an unregistered backend type
	ErrUnknownBackend = errors.New("unknown persistence backend")
	// ErrUnavailable indicates the backend cannot be reached; fatal for
	// a run, there is no safe fallback for dedup state
	ErrUnavailable = errors.New("persistence backend unavailable")
)

// Backend stores and retrieves last-seen release tags.
type Backend interface {
	// GetLastRelease returns the stored tag for a key; found is false
	// for a never-seen key, which is not an error.
	GetLastRelease(ctx context.Context, key string) (tag string, found bool, err error)
	// SetLastRelease stores the tag for a key, replacing any previous
	// value atomically from the reader's perspective.
	SetLastRelease(ctx context.Context, key, tag string) error
	// GetAllEntries returns every key->tag pair whose key starts with
	// prefix; an empty prefix returns everything.
	GetAllEntries(ctx context.Context, prefix string) (map[string]string, error)
	// DeleteEntries removes every entry whose key starts with prefix
	// and returns how many were deleted.
	DeleteEntries(ctx context.Context, prefix string) (int, error)
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
	Close() error
}

// Options carries the backend-specific config map.
type Options map[string]interface{}

func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		// TOML decodes integers as int64
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// New builds the configured backend and verifies connectivity.
func New(ctx context.Context, backendType string, opts Options) (Backend, error) {
	switch backendType {
	case "redis":
		return NewRedisStore(ctx, opts)
	case "file":
		return NewFileStore(opts.String("path", "release-tracker.json"))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backendType)
	}
}
