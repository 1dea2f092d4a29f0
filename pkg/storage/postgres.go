package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS models (
	id BIGSERIAL PRIMARY KEY,
	provider TEXT NOT NULL,
	model_name TEXT NOT NULL,
	display_name TEXT,
	description TEXT,
	max_context INTEGER,
	max_output_tokens INTEGER,
	supports_vision BOOLEAN DEFAULT FALSE,
	supports_function_calling BOOLEAN DEFAULT FALSE,
	supports_json_mode BOOLEAN DEFAULT FALSE,
	supports_parallel_tool_calls BOOLEAN DEFAULT FALSE,
	tool_call_format TEXT,
	price_input_per_million DOUBLE PRECISION,
	price_output_per_million DOUBLE PRECISION,
	inactive_from TIMESTAMPTZ,
	created_at TIMESTAMPTZ DEFAULT NOW(),
	updated_at TIMESTAMPTZ DEFAULT NOW(),
	UNIQUE(provider, model_name)
);

CREATE TABLE IF NOT EXISTS api_calls (
	id TEXT PRIMARY KEY,
	origin TEXT NOT NULL,
	id_at_origin TEXT NOT NULL,
	model_id BIGINT REFERENCES models(id),
	provider TEXT NOT NULL,
	model_name TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	total_tokens INTEGER NOT NULL,
	estimated_cost DOUBLE PRECISION NOT NULL,
	price_input_used DOUBLE PRECISION,
	price_output_used DOUBLE PRECISION,
	error_type TEXT,
	error_message TEXT,
	called_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_api_calls_called_at ON api_calls(called_at DESC);
CREATE INDEX IF NOT EXISTS idx_api_calls_provider_model ON api_calls(provider, model_name);
`

// Postgres is the pooled client/server backend. Schema management is an
// explicit Setup step, not a Connect side effect, so a production database
// is never mutated just by opening a connection to it.
type Postgres struct {
	connString string
	pool       *pgxpool.Pool
}

// NewPostgres returns an unconnected Postgres backend for the given
// connection string.
func NewPostgres(connString string) *Postgres {
	return &Postgres{connString: connString}
}

// Connect creates the connection pool and verifies it with a ping.
func (p *Postgres) Connect(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, p.connString)
	if err != nil {
		return fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	p.pool = pool
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	if p.pool == nil {
		return nil
	}
	p.pool.Close()
	p.pool = nil
	return nil
}

// Setup creates the schema if absent and seeds the default registry when the
// models table is empty.
func (p *Postgres) Setup(ctx context.Context) error {
	if p.pool == nil {
		return ErrNotConnected
	}
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create postgres schema: %w", err)
	}

	var count int64
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM models").Scan(&count); err != nil {
		return fmt.Errorf("count models: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, m := range DefaultModels {
		_, err := p.pool.Exec(ctx, `
			INSERT INTO models (
				provider, model_name, display_name, description,
				max_context, max_output_tokens, supports_vision,
				supports_function_calling, supports_json_mode, supports_parallel_tool_calls,
				price_input_per_million, price_output_per_million
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (provider, model_name) DO NOTHING`,
			postgresArgs(
				m.Provider, m.ModelName, m.DisplayName, m.Description,
				m.MaxContext, m.MaxOutputTokens, m.SupportsVision,
				m.SupportsFunctionCalling, m.SupportsJSONMode, m.SupportsParallelToolCalls,
				m.PriceInputPerMillion, m.PriceOutputPerMillion,
			)...)
		if err != nil {
			return fmt.Errorf("seed model %s/%s: %w", m.Provider, m.ModelName, err)
		}
	}
	log.WithField("models", len(DefaultModels)).Debug("seeded default model registry")
	return nil
}

// Reset drops both tables and recreates them via Setup.
func (p *Postgres) Reset(ctx context.Context) error {
	if p.pool == nil {
		return ErrNotConnected
	}
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS api_calls",
		"DROP TABLE IF EXISTS models CASCADE",
	} {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return p.Setup(ctx)
}

// Exec runs a statement without returning rows.
func (p *Postgres) Exec(ctx context.Context, query string, args ...any) error {
	if p.pool == nil {
		return ErrNotConnected
	}
	if _, err := p.pool.Exec(ctx, query, postgresArgs(args...)...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// FetchOne returns the first result row, or nil when there is none.
func (p *Postgres) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	if p.pool == nil {
		return nil, ErrNotConnected
	}
	rows, err := p.pool.Query(ctx, query, postgresArgs(args...)...)
	if err != nil {
		return nil, fmt.Errorf("fetch one: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch one: %w", err)
	}
	return Row(m), nil
}

// FetchAll returns every result row.
func (p *Postgres) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	if p.pool == nil {
		return nil, ErrNotConnected
	}
	rows, err := p.pool.Query(ctx, query, postgresArgs(args...)...)
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}
	all := make([]Row, len(maps))
	for i, m := range maps {
		all[i] = Row(m)
	}
	return all, nil
}

// FetchScalar returns the first column of the first row, or nil when there
// is none.
func (p *Postgres) FetchScalar(ctx context.Context, query string, args ...any) (any, error) {
	if p.pool == nil {
		return nil, ErrNotConnected
	}
	var v any
	err := p.pool.QueryRow(ctx, query, postgresArgs(args...)...).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch scalar: %w", err)
	}
	return v, nil
}

// InsertReturning executes an INSERT ... RETURNING and returns the generated
// row identity.
func (p *Postgres) InsertReturning(ctx context.Context, query string, args ...any) (int64, error) {
	if p.pool == nil {
		return 0, ErrNotConnected
	}
	var id int64
	if err := p.pool.QueryRow(ctx, query, postgresArgs(args...)...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert returning: %w", err)
	}
	return id, nil
}

// Dialect returns the PostgreSQL dialect.
func (p *Postgres) Dialect() Dialect { return postgresDialect{} }

type postgresDialect struct{}

func (postgresDialect) Placeholder(index int) string { return fmt.Sprintf("$%d", index) }

func (postgresDialect) Now() string { return "NOW()" }

func (postgresDialect) Window(days int) string {
	return fmt.Sprintf("NOW() - INTERVAL '%d days'", days)
}

func (postgresDialect) SupportsReturning() bool { return true }

// postgresArgs coerces parameters pgx has no native mapping for: UUIDs to
// their string form, decimals to floats (prices are stored as DOUBLE
// PRECISION), structured maps to JSON text.
func postgresArgs(args ...any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case uuid.UUID:
			out[i] = v.String()
		case decimal.Decimal:
			out[i] = v.InexactFloat64()
		case *decimal.Decimal:
			if v == nil {
				out[i] = nil
			} else {
				out[i] = v.InexactFloat64()
			}
		case map[string]any:
			b, err := json.Marshal(v)
			if err != nil {
				out[i] = nil
			} else {
				out[i] = string(b)
			}
		default:
			out[i] = a
		}
	}
	return out
}
