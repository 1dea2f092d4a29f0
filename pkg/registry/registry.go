// Package registry is the model registry and call ledger: the single data
// access layer application code talks to. It owns all SQL; callers hand it
// entities and get entities back, regardless of which backend stores them.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/juanre/llmbridge/pkg/models"
	"github.com/juanre/llmbridge/pkg/storage"
)

// DefaultStatsDays is the trailing window for usage statistics.
const DefaultStatsDays = 30

// DB is the registry and ledger façade over a storage backend. One instance
// is safe for concurrent use by multiple callers.
type DB struct {
	backend storage.Backend

	mu          sync.Mutex
	initialized bool
}

// New selects a backend from the connection string and returns an
// uninitialized façade. See storage.NewBackend for the selection rules.
func New(conn string) *DB {
	return &DB{backend: storage.NewBackend(conn)}
}

// NewWithBackend wraps a pre-configured backend.
func NewWithBackend(b storage.Backend) *DB {
	return &DB{backend: b}
}

// Initialize connects the backend. A second call is a no-op.
func (d *DB) Initialize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil
	}
	if err := d.backend.Connect(ctx); err != nil {
		return fmt.Errorf("initialize registry: %w", err)
	}
	d.initialized = true
	log.Debug("registry initialized")
	return nil
}

// Close disconnects the backend. Idempotent, and safe to call when
// Initialize never ran.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil
	}
	d.initialized = false
	return d.backend.Close()
}

// Setup runs explicit schema management for backends that need it (the
// Postgres backend). The embedded backend creates its schema on Connect, so
// Setup is a no-op there.
func (d *DB) Setup(ctx context.Context) error {
	if s, ok := d.backend.(storage.SchemaOwner); ok {
		return s.Setup(ctx)
	}
	return nil
}

// Reset drops and recreates the schema, losing all data.
func (d *DB) Reset(ctx context.Context) error {
	if r, ok := d.backend.(storage.Resettable); ok {
		return r.Reset(ctx)
	}
	return fmt.Errorf("reset: backend does not support it")
}

// HealthCheck verifies the backend answers a trivial query.
func (d *DB) HealthCheck(ctx context.Context) error {
	if _, err := d.backend.FetchScalar(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// AddModel inserts a registry row and returns the generated identity.
// Inserting a duplicate (provider, model_name) fails with the storage
// engine's constraint violation, active or not.
func (d *DB) AddModel(ctx context.Context, m models.Model) (int64, error) {
	dl := d.backend.Dialect()
	query := fmt.Sprintf(`
		INSERT INTO models (
			provider, model_name, display_name, description,
			max_context, max_output_tokens, supports_vision,
			supports_function_calling, supports_json_mode, supports_parallel_tool_calls,
			tool_call_format, price_input_per_million, price_output_per_million,
			inactive_from
		) VALUES (%s)`, placeholderList(dl, 14))
	if dl.SupportsReturning() {
		query += " RETURNING id"
	}

	id, err := d.backend.InsertReturning(ctx, query,
		m.Provider, m.ModelName, m.DisplayName, m.Description,
		m.MaxContext, m.MaxOutputTokens, m.SupportsVision,
		m.SupportsFunctionCalling, m.SupportsJSONMode, m.SupportsParallelToolCalls,
		m.ToolCallFormat, m.PriceInputPerMillion, m.PriceOutputPerMillion,
		m.InactiveFrom,
	)
	if err != nil {
		return 0, fmt.Errorf("add model %s/%s: %w", m.Provider, m.ModelName, err)
	}
	return id, nil
}

// GetModel returns the active model matching provider and name, or nil.
func (d *DB) GetModel(ctx context.Context, provider, modelName string) (*models.Model, error) {
	dl := d.backend.Dialect()
	query := fmt.Sprintf(`
		SELECT * FROM models
		WHERE provider = %s AND model_name = %s AND inactive_from IS NULL`,
		dl.Placeholder(1), dl.Placeholder(2))

	row, err := d.backend.FetchOne(ctx, query, provider, modelName)
	if err != nil {
		return nil, fmt.Errorf("get model %s/%s: %w", provider, modelName, err)
	}
	if row == nil {
		return nil, nil
	}
	m := rowToModel(row)
	return &m, nil
}

// ListModels returns models ordered by (provider, model_name), filtered by
// provider when non-empty. Deactivated rows are excluded unless activeOnly
// is false.
func (d *DB) ListModels(ctx context.Context, provider string, activeOnly bool) ([]models.Model, error) {
	dl := d.backend.Dialect()

	query := "SELECT * FROM models"
	var clauses []string
	var args []any
	if provider != "" {
		clauses = append(clauses, fmt.Sprintf("provider = %s", dl.Placeholder(1)))
		args = append(args, provider)
	}
	if activeOnly {
		clauses = append(clauses, "inactive_from IS NULL")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY provider, model_name"

	rows, err := d.backend.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	out := make([]models.Model, len(rows))
	for i, row := range rows {
		out[i] = rowToModel(row)
	}
	return out, nil
}

// updatableColumns are the model fields a sparse update may touch.
var updatableColumns = map[string]bool{
	"provider":                     true,
	"model_name":                   true,
	"display_name":                 true,
	"description":                  true,
	"max_context":                  true,
	"max_output_tokens":            true,
	"supports_vision":              true,
	"supports_function_calling":    true,
	"supports_json_mode":           true,
	"supports_parallel_tool_calls": true,
	"tool_call_format":             true,
	"price_input_per_million":      true,
	"price_output_per_million":     true,
	"inactive_from":                true,
}

// UpdateModel applies a sparse column update by identity. An empty update
// set is a no-op returning false.
func (d *DB) UpdateModel(ctx context.Context, modelID int64, updates map[string]any) (bool, error) {
	if len(updates) == 0 {
		return false, nil
	}

	cols := make([]string, 0, len(updates))
	for col := range updates {
		if !updatableColumns[col] {
			return false, fmt.Errorf("update model: unknown column %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	dl := d.backend.Dialect()
	set := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		set[i] = fmt.Sprintf("%s = %s", col, dl.Placeholder(i+1))
		args = append(args, updates[col])
	}
	args = append(args, modelID)

	query := fmt.Sprintf("UPDATE models SET %s WHERE id = %s",
		strings.Join(set, ", "), dl.Placeholder(len(cols)+1))
	if err := d.backend.Exec(ctx, query, args...); err != nil {
		return false, fmt.Errorf("update model %d: %w", modelID, err)
	}
	return true, nil
}

// DeactivateModel stamps inactive_from with the engine's current time. A
// missing row is a silent success; soft delete does not verify existence.
func (d *DB) DeactivateModel(ctx context.Context, provider, modelName string) error {
	dl := d.backend.Dialect()
	query := fmt.Sprintf(`
		UPDATE models SET inactive_from = %s
		WHERE provider = %s AND model_name = %s`,
		dl.Now(), dl.Placeholder(1), dl.Placeholder(2))

	if err := d.backend.Exec(ctx, query, provider, modelName); err != nil {
		return fmt.Errorf("deactivate model %s/%s: %w", provider, modelName, err)
	}
	return nil
}

// RecordCall appends one ledger entry and returns the identity used,
// generating one when the caller did not supply it.
func (d *DB) RecordCall(ctx context.Context, rec models.CallRecord) (uuid.UUID, error) {
	callID := rec.ID
	if callID == uuid.Nil {
		callID = uuid.New()
	}
	calledAt := rec.CalledAt
	if calledAt.IsZero() {
		calledAt = time.Now().UTC()
	}

	dl := d.backend.Dialect()
	query := fmt.Sprintf(`
		INSERT INTO api_calls (
			id, origin, id_at_origin, model_id, provider, model_name,
			prompt_tokens, completion_tokens, total_tokens,
			estimated_cost, price_input_used, price_output_used,
			error_type, error_message, called_at
		) VALUES (%s)`, placeholderList(dl, 15))

	err := d.backend.Exec(ctx, query,
		callID, rec.Origin, rec.IDAtOrigin, rec.ModelID, rec.Provider, rec.ModelName,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		rec.EstimatedCost, rec.PriceInputUsed, rec.PriceOutputUsed,
		nullIfEmpty(rec.ErrorType), nullIfEmpty(rec.ErrorMessage), calledAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("record call: %w", err)
	}
	return callID, nil
}

// UsageStats aggregates the ledger over the trailing window of the given
// number of days, optionally filtered by origin. Days <= 0 falls back to
// DefaultStatsDays. With zero calls in the window the averages are zero and
// the success rate is one.
func (d *DB) UsageStats(ctx context.Context, origin string, days int) (*models.UsageStats, error) {
	if days <= 0 {
		days = DefaultStatsDays
	}
	dl := d.backend.Dialect()

	where := fmt.Sprintf("WHERE called_at >= %s", dl.Window(days))
	var args []any
	if origin != "" {
		where += fmt.Sprintf(" AND origin = %s", dl.Placeholder(1))
		args = append(args, origin)
	}

	totals := fmt.Sprintf(`
		SELECT
			COUNT(*) AS total_calls,
			COALESCE(SUM(total_tokens), 0) AS total_tokens,
			COALESCE(SUM(estimated_cost), 0) AS total_cost,
			COALESCE(SUM(CASE WHEN error_type IS NULL AND error_message IS NULL THEN 1 ELSE 0 END), 0) AS ok_calls
		FROM api_calls %s`, where)

	row, err := d.backend.FetchOne(ctx, totals, args...)
	if err != nil {
		return nil, fmt.Errorf("usage stats: %w", err)
	}

	stats := &models.UsageStats{
		TotalCost:      decimal.Zero,
		AvgCostPerCall: decimal.Zero,
		SuccessRate:    decimal.NewFromInt(1),
		Providers:      map[string]models.ProviderUsage{},
	}
	if row != nil {
		stats.TotalCalls = asInt64(row["total_calls"])
		stats.TotalTokens = asInt64(row["total_tokens"])
		stats.TotalCost = asDecimal(row["total_cost"])
		if stats.TotalCalls > 0 {
			calls := decimal.NewFromInt(stats.TotalCalls)
			stats.AvgCostPerCall = stats.TotalCost.Div(calls)
			stats.SuccessRate = decimal.NewFromInt(asInt64(row["ok_calls"])).Div(calls)
		}
	}

	breakdown := fmt.Sprintf(`
		SELECT
			provider,
			COUNT(*) AS calls,
			COALESCE(SUM(total_tokens), 0) AS tokens,
			COALESCE(SUM(estimated_cost), 0) AS cost
		FROM api_calls %s
		GROUP BY provider`, where)

	rows, err := d.backend.FetchAll(ctx, breakdown, args...)
	if err != nil {
		return nil, fmt.Errorf("usage stats breakdown: %w", err)
	}
	for _, r := range rows {
		stats.Providers[asString(r["provider"])] = models.ProviderUsage{
			Calls:  asInt64(r["calls"]),
			Tokens: asInt64(r["tokens"]),
			Cost:   asDecimal(r["cost"]),
		}
	}
	return stats, nil
}

// RecentCalls returns ledger entries ordered by call time descending,
// paginated. The id tie-break keeps pages disjoint when timestamps collide.
func (d *DB) RecentCalls(ctx context.Context, limit, offset int) ([]models.CallRecord, error) {
	dl := d.backend.Dialect()
	query := fmt.Sprintf(`
		SELECT * FROM api_calls
		ORDER BY called_at DESC, id DESC
		LIMIT %s OFFSET %s`,
		dl.Placeholder(1), dl.Placeholder(2))

	rows, err := d.backend.FetchAll(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("recent calls: %w", err)
	}
	out := make([]models.CallRecord, len(rows))
	for i, row := range rows {
		out[i] = rowToCall(row)
	}
	return out, nil
}

// placeholderList renders "p1, p2, ..., pn" in the backend's dialect.
func placeholderList(dl storage.Dialect, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = dl.Placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

// nullIfEmpty stores absent error fields as NULL rather than empty strings,
// so the success-rate aggregate can test IS NULL on both engines.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
