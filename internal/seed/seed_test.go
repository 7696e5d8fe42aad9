package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/db"
	"github.com/Simplici0/quotecalc/internal/migrations"
	"github.com/Simplici0/quotecalc/internal/store"
)

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(context.Background(), database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := Config{CPIRate: 0.035}
	wantInserts := len(component.Catalog()) + 2

	for i := 0; i < 10; i++ {
		stats, err := Run(database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != wantInserts {
				t.Fatalf("expected %d inserts in first run, got %d", wantInserts, stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
		if stats.Kept != wantInserts {
			t.Fatalf("expected %d kept rows in iteration %d, got %d", wantInserts, i, stats.Kept)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM component_instances`, nil, len(component.Catalog()))
	assertCount(t, database, `SELECT COUNT(*) FROM component_instances WHERE enabled = 1`, nil, 0)
	assertCount(t, database, `SELECT COUNT(*) FROM settings WHERE key = ?`, store.SettingCPIRate, 1)

	terms, err := store.NewSQLite(database).Terms()
	if err != nil {
		t.Fatalf("read terms: %v", err)
	}
	if terms.CPIRate != 0.035 {
		t.Fatalf("expected seeded cpi rate 0.035, got %v", terms.CPIRate)
	}
}

func TestRunKeepsUserEdits(t *testing.T) {
	t.Parallel()

	database, err := db.Open(filepath.Join(t.TempDir(), "seed-edits.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(context.Background(), database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := Run(database, Config{CPIRate: 0.03}); err != nil {
		t.Fatalf("first seed: %v", err)
	}

	s := store.NewSQLite(database)
	if err := s.SetEnabled(component.Monitoring, true); err != nil {
		t.Fatalf("enable monitoring: %v", err)
	}
	if _, err := Run(database, Config{CPIRate: 0.05}); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	inst, err := s.ComponentInstance(component.Monitoring)
	if err != nil {
		t.Fatalf("load monitoring: %v", err)
	}
	if !inst.Enabled {
		t.Fatalf("expected monitoring to stay enabled after reseed")
	}
	terms, err := s.Terms()
	if err != nil {
		t.Fatalf("read terms: %v", err)
	}
	if terms.CPIRate != 0.03 {
		t.Fatalf("expected existing cpi rate to be kept, got %v", terms.CPIRate)
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
