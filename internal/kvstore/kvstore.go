// Package kvstore is the durable string-keyed store every stateful component
// goes through. Backends implement Store; components use an Adapter, which
// namespaces keys and handles JSON encoding.
package kvstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store.Get for a missing key.
var ErrNotFound = errors.New("kvstore: key not found")

// ErrNoStore is returned by writers of components built without a store.
var ErrNoStore = errors.New("kvstore: no store configured")

// Store is the storage port.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendRedis   = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	Path      string // leveldb directory
	RedisAddr string
	RedisPass string
	RedisDB   int
}

// Open constructs the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendLevelDB, "":
		return OpenLevelDB(opts.Path)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPass, opts.RedisDB)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
