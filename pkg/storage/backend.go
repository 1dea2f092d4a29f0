// Package storage provides the database backends for the model registry and
// call ledger: a pooled PostgreSQL backend and an embedded SQLite backend,
// selected by connection-string shape. Both satisfy Backend, so the registry
// layer issues the same logical queries regardless of engine.
package storage

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by every data method invoked before Connect
// or after Close.
var ErrNotConnected = errors.New("storage: backend not connected")

// Row is a single result row keyed by column name.
type Row map[string]any

// Backend is the capability contract every storage engine must satisfy.
// Implementations are substitutable: the registry issues identical logical
// queries to either backend and receives semantically identical rows.
type Backend interface {
	// Connect opens the underlying connection or pool.
	Connect(ctx context.Context) error

	// Close releases the connection. Safe to call when never connected.
	Close() error

	// Exec runs a statement without returning rows.
	Exec(ctx context.Context, query string, args ...any) error

	// FetchOne returns the first result row, or nil when there is none.
	FetchOne(ctx context.Context, query string, args ...any) (Row, error)

	// FetchAll returns every result row.
	FetchAll(ctx context.Context, query string, args ...any) ([]Row, error)

	// FetchScalar returns the first column of the first row, or nil when
	// there is none.
	FetchScalar(ctx context.Context, query string, args ...any) (any, error)

	// InsertReturning executes an INSERT and returns the generated row
	// identity. Callers append the RETURNING clause only when the backend's
	// dialect reports support for it.
	InsertReturning(ctx context.Context, query string, args ...any) (int64, error)

	// Dialect describes how this backend renders engine-specific SQL.
	Dialect() Dialect
}

// Dialect renders the engine-specific SQL constructs the registry needs.
// Each backend renders its own syntax up front, so no query text ever has to
// be rewritten after the fact.
type Dialect interface {
	// Placeholder returns the positional parameter marker for a 1-based index.
	Placeholder(index int) string

	// Now returns the expression for the current timestamp.
	Now() string

	// Window returns the expression for "now minus the given number of days".
	Window(days int) string

	// SupportsReturning reports whether INSERT ... RETURNING is native.
	SupportsReturning() bool
}

// SchemaOwner is implemented by backends whose schema is managed by an
// explicit setup step rather than on Connect.
type SchemaOwner interface {
	// Setup creates tables and indexes if absent and seeds the default
	// registry when empty.
	Setup(ctx context.Context) error
}

// Resettable is implemented by backends that can drop and recreate their
// schema, losing all data.
type Resettable interface {
	Reset(ctx context.Context) error
}
