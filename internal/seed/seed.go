package seed

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/store"
)

// Config contains the values required by startup seed.
type Config struct {
	CPIRate             float64
	PromotionalDiscount float64
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	// Kept counts rows that already existed and were left as they are.
	Kept int
}

// Run executes the startup seed in an idempotent way. Existing rows are left
// untouched so user edits survive restarts.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	for _, def := range component.Catalog() {
		if err := ensureInstance(tx, def.ID, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}
	if err := ensureSetting(tx, store.SettingCPIRate, cfg.CPIRate, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureSetting(tx, store.SettingPromotionalDiscount, cfg.PromotionalDiscount, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureInstance(tx *sql.Tx, id component.ID, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM component_instances WHERE id = ?)`, string(id)).Scan(&exists); err != nil {
		return fmt.Errorf("check component %s existence: %w", id, err)
	}
	if exists {
		stats.Kept++
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO component_instances (id, enabled, params_json)
		VALUES (?, 0, '{}')
	`, string(id)); err != nil {
		return fmt.Errorf("insert component %s: %w", id, err)
	}
	stats.Inserts++
	return nil
}

func ensureSetting(tx *sql.Tx, key string, value float64, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM settings WHERE key = ?)`, key).Scan(&exists); err != nil {
		return fmt.Errorf("check setting %s existence: %w", key, err)
	}
	if exists {
		stats.Kept++
		return nil
	}

	if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, key, strconv.FormatFloat(value, 'f', -1, 64)); err != nil {
		return fmt.Errorf("insert setting %s: %w", key, err)
	}
	stats.Inserts++
	return nil
}
