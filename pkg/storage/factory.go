package storage

import "strings"

// DefaultSQLitePath is the embedded database file used when no connection
// string is configured.
const DefaultSQLitePath = "llmbridge.db"

// NewBackend selects a backend from the shape of the connection string.
// It performs no I/O; nothing is opened until Connect.
//
//   - empty string: SQLite with DefaultSQLitePath
//   - postgres:// or postgresql:// prefix: PostgreSQL
//   - sqlite:// prefix or a path ending in .db: SQLite with the extracted path
//   - anything else: PostgreSQL (legacy default)
func NewBackend(conn string) Backend {
	switch {
	case conn == "":
		return NewSQLite(DefaultSQLitePath)
	case strings.HasPrefix(conn, "postgres://"), strings.HasPrefix(conn, "postgresql://"):
		return NewPostgres(conn)
	case strings.HasPrefix(conn, "sqlite://"):
		path := strings.TrimPrefix(conn, "sqlite:///")
		path = strings.TrimPrefix(path, "sqlite://")
		return NewSQLite(path)
	case strings.HasSuffix(conn, ".db"):
		return NewSQLite(conn)
	default:
		return NewPostgres(conn)
	}
}
