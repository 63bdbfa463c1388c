package storage

import (
	"context"
	"fmt"
)

// Adapter wraps a caller-supplied connection and names its dialect.
type Adapter interface {
	Dialect() string
}

// Driver owns schema migration and exposes the repositories for one dialect.
type Driver interface {
	Dialect() string
	Migrate(ctx context.Context) error
	Repos
}

type adapterMatcher func(conn any) bool
type adapterFactory func(conn any) (Adapter, error)
type driverFactory func(adapter Adapter) (Driver, error)

var (
	adapterRegistry = make([]struct {
		match   adapterMatcher
		factory adapterFactory
	}, 0)
	driverRegistry = make(map[string]driverFactory)
)

func RegisterAdapter(match adapterMatcher, factory adapterFactory) {
	adapterRegistry = append(adapterRegistry, struct {
		match   adapterMatcher
		factory adapterFactory
	}{match: match, factory: factory})
}

func RegisterDriver(dialect string, factory driverFactory) {
	driverRegistry[dialect] = factory
}

func RegistryAdapter(conn any) (Adapter, error) {
	for _, entry := range adapterRegistry {
		if entry.match(conn) {
			return entry.factory(conn)
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrNoAdapter, conn)
}

func RegistryDriver(adapter Adapter) (Driver, error) {
	dialect := adapter.Dialect()
	f, ok := driverRegistry[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoDriver, dialect)
	}
	return f(adapter)
}
