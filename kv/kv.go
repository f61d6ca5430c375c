// Package kv provides namespaced durable key/value storage for visitor bags.
package kv

import (
	"errors"
	"fmt"
)

// Driver names a storage backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// ErrUnknownDriver is returned by Open for unsupported drivers.
var ErrUnknownDriver = errors.New("kv: unknown driver")

// Store is a key/value store partitioned by namespace.
type Store interface {
	Get(namespace, key string) (string, bool, error)
	Set(namespace, key, value string) error
	Delete(namespace, key string) error
	Close() error
}

// Open returns a Store for driver. dsn is a file path for sqlite and a
// connection string for postgres; it is ignored for memory.
func Open(driver Driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(dsn)
	case DriverPostgres:
		return OpenPostgres(dsn)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Namespace scopes a Store to one namespace.
type Namespace struct {
	store Store
	name  string
}

// Scope returns the view of s for namespace name.
func Scope(s Store, name string) *Namespace {
	return &Namespace{store: s, name: name}
}

// Name returns the namespace.
func (n *Namespace) Name() string { return n.name }

func (n *Namespace) Get(key string) (string, bool, error) {
	return n.store.Get(n.name, key)
}

func (n *Namespace) Set(key, value string) error {
	return n.store.Set(n.name, key, value)
}

func (n *Namespace) Remove(key string) error {
	return n.store.Delete(n.name, key)
}
