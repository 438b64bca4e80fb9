// Package persistence provides the raw key-value engines the storage layer
// is built on.
package persistence

import "errors"

// ErrKeyNotFound is returned by Engine.Get when the key is absent.
var ErrKeyNotFound = errors.New("key not found")

// Engine represents a persistence backend. Values are opaque bytes; keys are
// flat strings. Implementations must be safe for concurrent use.
type Engine interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	List(prefix string) ([]string, error)

	// Batch operations. BatchGet omits absent keys from the result.
	BatchGet(keys []string) (map[string][]byte, error)
	BatchSet(items map[string][]byte) error
	BatchDelete(keys []string) error

	// Clear removes every key managed by the engine.
	Clear() error

	Close() error
	Backup(path string) error
	Restore(path string) error
}

// Config holds persistence configuration
type Config struct {
	Type       string // "memory", "badger", "sqlite"
	DataDir    string
	SyncWrites bool
}
