package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err := s.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteNotConnected(t *testing.T) {
	s := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	ctx := context.Background()

	if err := s.Exec(ctx, "SELECT 1"); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if _, err := s.FetchOne(ctx, "SELECT 1"); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if _, err := s.FetchScalar(ctx, "SELECT 1"); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("close before connect should be a no-op, got %v", err)
	}
}

func TestSQLiteClosedAfterClose(t *testing.T) {
	s := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Exec(ctx, "SELECT 1"); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected after close, got %v", err)
	}
}

func TestSQLiteSeedsDefaults(t *testing.T) {
	s := newTestSQLite(t)

	count, err := s.FetchScalar(context.Background(), "SELECT COUNT(*) FROM models")
	if err != nil {
		t.Fatal(err)
	}
	if count.(int64) != int64(len(DefaultModels)) {
		t.Errorf("expected %d seeded models, got %v", len(DefaultModels), count)
	}
}

func TestSQLiteSeedIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1 := NewSQLite(path)
	if err := s1.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}

	// A second initialize against the same store must not reseed.
	s2 := NewSQLite(path)
	if err := s2.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	count, err := s2.FetchScalar(ctx, "SELECT COUNT(*) FROM models")
	if err != nil {
		t.Fatal(err)
	}
	if count.(int64) != int64(len(DefaultModels)) {
		t.Errorf("expected %d models after double init, got %v", len(DefaultModels), count)
	}
}

func TestSQLiteInsertReturningStripsClause(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	// The relational dialect would append RETURNING id; the embedded engine
	// must strip it and report the assigned rowid instead.
	id, err := s.InsertReturning(ctx, `
		INSERT INTO models (provider, model_name) VALUES (?, ?) RETURNING id`,
		"test", "strip-model")
	if err != nil {
		t.Fatal(err)
	}
	if id <= 0 {
		t.Errorf("expected positive generated id, got %d", id)
	}

	got, err := s.FetchScalar(ctx, "SELECT id FROM models WHERE model_name = ?", "strip-model")
	if err != nil {
		t.Fatal(err)
	}
	if got.(int64) != id {
		t.Errorf("expected id %d, got %v", id, got)
	}
}

func TestSQLiteParamCoercion(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	callID := uuid.New()
	cost := decimal.RequireFromString("0.0015")
	calledAt := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	err := s.Exec(ctx, `
		INSERT INTO api_calls (
			id, origin, id_at_origin, provider, model_name,
			prompt_tokens, completion_tokens, total_tokens, estimated_cost, called_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		callID, "test", "user-1", "openai", "gpt-4o", 100, 50, 150, cost, calledAt)
	if err != nil {
		t.Fatal(err)
	}

	row, err := s.FetchOne(ctx, "SELECT * FROM api_calls WHERE id = ?", callID)
	if err != nil {
		t.Fatal(err)
	}
	if row == nil {
		t.Fatal("expected a row")
	}
	if row["id"] != callID.String() {
		t.Errorf("uuid should be stored as its string form, got %v", row["id"])
	}
	if row["estimated_cost"].(float64) != 0.0015 {
		t.Errorf("decimal should be stored as float, got %v", row["estimated_cost"])
	}
}

func TestSQLiteBoolCoercion(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if err := s.Exec(ctx, `
		INSERT INTO models (provider, model_name, supports_vision, supports_json_mode)
		VALUES (?, ?, ?, ?)`, "test", "bool-model", true, false); err != nil {
		t.Fatal(err)
	}

	row, err := s.FetchOne(ctx,
		"SELECT supports_vision, supports_json_mode FROM models WHERE model_name = ?",
		"bool-model")
	if err != nil {
		t.Fatal(err)
	}
	if row["supports_vision"].(int64) != 1 {
		t.Errorf("true should be stored as 1, got %v", row["supports_vision"])
	}
	if row["supports_json_mode"].(int64) != 0 {
		t.Errorf("false should be stored as 0, got %v", row["supports_json_mode"])
	}
}

func TestSQLiteFetchOneMissing(t *testing.T) {
	s := newTestSQLite(t)

	row, err := s.FetchOne(context.Background(),
		"SELECT * FROM models WHERE provider = ?", "no-such-provider")
	if err != nil {
		t.Fatal(err)
	}
	if row != nil {
		t.Errorf("expected nil row, got %v", row)
	}
}

func TestSQLiteFetchScalarMissing(t *testing.T) {
	s := newTestSQLite(t)

	v, err := s.FetchScalar(context.Background(),
		"SELECT id FROM models WHERE provider = ?", "no-such-provider")
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Errorf("expected nil scalar, got %v", v)
	}
}

func TestSQLiteReset(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if err := s.Exec(ctx, `
		INSERT INTO models (provider, model_name) VALUES (?, ?)`, "test", "doomed"); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	// Reset drops everything and reseeds only the defaults.
	count, err := s.FetchScalar(ctx, "SELECT COUNT(*) FROM models")
	if err != nil {
		t.Fatal(err)
	}
	if count.(int64) != int64(len(DefaultModels)) {
		t.Errorf("expected %d models after reset, got %v", len(DefaultModels), count)
	}
	row, err := s.FetchOne(ctx, "SELECT * FROM models WHERE model_name = ?", "doomed")
	if err != nil {
		t.Fatal(err)
	}
	if row != nil {
		t.Error("expected custom model gone after reset")
	}
}

func TestSQLiteUniqueConstraint(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if err := s.Exec(ctx, `
		INSERT INTO models (provider, model_name) VALUES (?, ?)`, "test", "dup"); err != nil {
		t.Fatal(err)
	}
	err := s.Exec(ctx, `
		INSERT INTO models (provider, model_name) VALUES (?, ?)`, "test", "dup")
	if err == nil {
		t.Fatal("expected unique constraint violation")
	}
}
