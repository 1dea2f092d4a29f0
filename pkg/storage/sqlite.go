package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is the canonical stored form for timestamps: UTC, space
// separated, fractional seconds appended when present. It compares correctly
// against the output of datetime('now').
const sqliteTimeLayout = "2006-01-02 15:04:05.999999999"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS models (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider TEXT NOT NULL,
	model_name TEXT NOT NULL,
	display_name TEXT,
	description TEXT,
	max_context INTEGER,
	max_output_tokens INTEGER,
	supports_vision BOOLEAN DEFAULT 0,
	supports_function_calling BOOLEAN DEFAULT 0,
	supports_json_mode BOOLEAN DEFAULT 0,
	supports_parallel_tool_calls BOOLEAN DEFAULT 0,
	tool_call_format TEXT,
	price_input_per_million REAL,
	price_output_per_million REAL,
	inactive_from TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(provider, model_name)
);

CREATE TABLE IF NOT EXISTS api_calls (
	id TEXT PRIMARY KEY,
	origin TEXT NOT NULL,
	id_at_origin TEXT NOT NULL,
	model_id INTEGER,
	provider TEXT NOT NULL,
	model_name TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	total_tokens INTEGER NOT NULL,
	estimated_cost REAL NOT NULL,
	price_input_used REAL,
	price_output_used REAL,
	error_type TEXT,
	error_message TEXT,
	called_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (model_id) REFERENCES models(id)
);

CREATE INDEX IF NOT EXISTS idx_api_calls_called_at ON api_calls(called_at DESC);
CREATE INDEX IF NOT EXISTS idx_api_calls_provider_model ON api_calls(provider, model_name);
`

// SQLite is the embedded single-file backend. It owns schema creation and
// default-registry seeding, serializes all statements through one connection,
// and commits each mutating call before returning.
type SQLite struct {
	path string
	db   *sql.DB
}

// NewSQLite returns an unconnected SQLite backend for the given file path.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Connect opens the database file, creates the schema if absent, and seeds
// the default model registry when the models table is empty.
func (s *SQLite) Connect(ctx context.Context) error {
	dsn := s.path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection: concurrent callers queue rather than race the file.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	s.db = db

	if err := s.seedIfEmpty(ctx); err != nil {
		s.db = nil
		db.Close()
		return err
	}
	return nil
}

// seedIfEmpty inserts the default registry only when the models table holds
// no rows. The count guard plus INSERT OR IGNORE keeps seeding idempotent.
func (s *SQLite) seedIfEmpty(ctx context.Context) error {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM models").Scan(&count); err != nil {
		return fmt.Errorf("count models: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, m := range DefaultModels {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO models (
				provider, model_name, display_name, description,
				max_context, max_output_tokens, supports_vision,
				supports_function_calling, supports_json_mode, supports_parallel_tool_calls,
				price_input_per_million, price_output_per_million
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sqliteArgs(
				m.Provider, m.ModelName, m.DisplayName, m.Description,
				m.MaxContext, m.MaxOutputTokens, m.SupportsVision,
				m.SupportsFunctionCalling, m.SupportsJSONMode, m.SupportsParallelToolCalls,
				m.PriceInputPerMillion, m.PriceOutputPerMillion,
			)...)
		if err != nil {
			return fmt.Errorf("seed model %s/%s: %w", m.Provider, m.ModelName, err)
		}
	}
	log.WithFields(log.Fields{"path": s.path, "models": len(DefaultModels)}).
		Debug("seeded default model registry")
	return nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Exec runs a statement without returning rows.
func (s *SQLite) Exec(ctx context.Context, query string, args ...any) error {
	if s.db == nil {
		return ErrNotConnected
	}
	if _, err := s.db.ExecContext(ctx, query, sqliteArgs(args...)...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// FetchOne returns the first result row, or nil when there is none.
func (s *SQLite) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	rows, err := s.db.QueryContext(ctx, query, sqliteArgs(args...)...)
	if err != nil {
		return nil, fmt.Errorf("fetch one: %w", err)
	}
	defer rows.Close()

	all, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("fetch one: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

// FetchAll returns every result row.
func (s *SQLite) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	rows, err := s.db.QueryContext(ctx, query, sqliteArgs(args...)...)
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}
	defer rows.Close()

	all, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}
	return all, nil
}

// FetchScalar returns the first column of the first row, or nil when there
// is none.
func (s *SQLite) FetchScalar(ctx context.Context, query string, args ...any) (any, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	var v any
	err := s.db.QueryRowContext(ctx, query, sqliteArgs(args...)...).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch scalar: %w", err)
	}
	return v, nil
}

// InsertReturning executes an INSERT and returns the engine-assigned row id.
// A trailing RETURNING clause is stripped if present; the registry only
// appends one when the dialect reports support, but stripping keeps the
// backend safe against queries written for the relational dialect.
func (s *SQLite) InsertReturning(ctx context.Context, query string, args ...any) (int64, error) {
	if s.db == nil {
		return 0, ErrNotConnected
	}
	if i := strings.LastIndex(strings.ToUpper(query), "RETURNING"); i >= 0 {
		query = strings.TrimSpace(query[:i])
	}
	res, err := s.db.ExecContext(ctx, query, sqliteArgs(args...)...)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert id: %w", err)
	}
	return id, nil
}

// Dialect returns the SQLite dialect.
func (s *SQLite) Dialect() Dialect { return sqliteDialect{} }

// Reset drops both tables; the next Connect recreates and reseeds them.
func (s *SQLite) Reset(ctx context.Context) error {
	if s.db == nil {
		return ErrNotConnected
	}
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS api_calls",
		"DROP TABLE IF EXISTS models",
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("reset schema: %w", err)
	}
	return s.seedIfEmpty(ctx)
}

type sqliteDialect struct{}

// Placeholder is the same marker for every index; SQLite has no numbered
// substitution.
func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) Now() string { return "datetime('now')" }

func (sqliteDialect) Window(days int) string {
	return fmt.Sprintf("datetime('now', '-%d days')", days)
}

func (sqliteDialect) SupportsReturning() bool { return false }

// sqliteArgs coerces parameters into types the embedded engine stores
// natively: UUIDs and timestamps to strings, decimals to floats, booleans to
// 0/1, structured maps to JSON text.
func sqliteArgs(args ...any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = sqliteArg(a)
	}
	return out
}

func sqliteArg(a any) any {
	switch v := a.(type) {
	case uuid.UUID:
		return v.String()
	case decimal.Decimal:
		return v.InexactFloat64()
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		return v.InexactFloat64()
	case bool:
		if v {
			return 1
		}
		return 0
	case time.Time:
		return v.UTC().Format(sqliteTimeLayout)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC().Format(sqliteTimeLayout)
	case *int64:
		if v == nil {
			return nil
		}
		return *v
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return a
	}
}

// scanRows reads every row into a column-keyed map.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var all []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		all = append(all, row)
	}
	return all, rows.Err()
}
