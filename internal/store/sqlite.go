package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/pricing"
	"github.com/Simplici0/quotecalc/internal/quote"
)

// Setting keys read by Terms.
const (
	SettingCPIRate             = "cpi_rate"
	SettingPromotionalDiscount = "promotional_discount"
)

// ErrQuoteNotFound is returned when a saved quote does not exist.
var ErrQuoteNotFound = errors.New("quote not found")

// SQLite persists instances and saved quotes in the schema created by the
// migrations package.
type SQLite struct {
	db        *sql.DB
	listeners listeners
}

// NewSQLite wraps an open, migrated database.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) ComponentInstance(id component.ID) (component.Instance, error) {
	if !known(id) {
		return component.Instance{}, fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}

	var (
		enabled    bool
		paramsJSON string
		resultJSON sql.NullString
	)
	err := s.db.QueryRow(`
		SELECT enabled, params_json, result_json
		FROM component_instances
		WHERE id = ?
	`, string(id)).Scan(&enabled, &paramsJSON, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return component.Instance{ID: id, Params: component.Params{}}, nil
	}
	if err != nil {
		return component.Instance{}, fmt.Errorf("load component %s: %w", id, err)
	}

	return decodeInstance(id, enabled, paramsJSON, resultJSON)
}

func (s *SQLite) EnabledComponents() ([]component.ID, error) {
	rows, err := s.db.Query(`SELECT id FROM component_instances WHERE enabled = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list enabled components: %w", err)
	}
	defer rows.Close()

	var ids []component.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, component.ID(id))
	}
	return ids, rows.Err()
}

func (s *SQLite) Instances() ([]component.Instance, error) {
	rows, err := s.db.Query(`
		SELECT id, enabled, params_json, result_json
		FROM component_instances
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list component instances: %w", err)
	}
	defer rows.Close()

	instances := make([]component.Instance, 0)
	for rows.Next() {
		var (
			id         string
			enabled    bool
			paramsJSON string
			resultJSON sql.NullString
		)
		if err := rows.Scan(&id, &enabled, &paramsJSON, &resultJSON); err != nil {
			return nil, err
		}
		inst, err := decodeInstance(component.ID(id), enabled, paramsJSON, resultJSON)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func (s *SQLite) SetParams(id component.ID, params component.Params) error {
	if !known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}
	if params == nil {
		params = component.Params{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params for %s: %w", id, err)
	}

	if _, err := s.db.Exec(`
		INSERT INTO component_instances (id, params_json)
		VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET
			params_json = excluded.params_json,
			updated_at = CURRENT_TIMESTAMP
	`, string(id), string(raw)); err != nil {
		return fmt.Errorf("save params for %s: %w", id, err)
	}

	s.listeners.emit(Event{Type: EventParamsChanged, Component: id})
	return nil
}

func (s *SQLite) SetEnabled(id component.ID, enabled bool) error {
	if !known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin enable transaction: %w", err)
	}

	var current bool
	err = tx.QueryRow(`SELECT enabled FROM component_instances WHERE id = ?`, string(id)).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return fmt.Errorf("load component %s: %w", id, err)
	}

	if _, err := tx.Exec(`
		INSERT INTO component_instances (id, enabled)
		VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET
			enabled = excluded.enabled,
			updated_at = CURRENT_TIMESTAMP
	`, string(id), enabled); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("save enabled flag for %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enable transaction: %w", err)
	}

	if current != enabled {
		s.listeners.emit(Event{Type: enabledEvent(enabled), Component: id})
	}
	return nil
}

func (s *SQLite) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM component_instances`); err != nil {
		return fmt.Errorf("clear component instances: %w", err)
	}
	s.listeners.emit(Event{Type: EventCleared})
	return nil
}

func (s *SQLite) PublishResult(id component.ID, res component.Result) error {
	if !known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result for %s: %w", id, err)
	}

	if _, err := s.db.Exec(`
		INSERT INTO component_instances (id, result_json)
		VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET
			result_json = excluded.result_json,
			updated_at = CURRENT_TIMESTAMP
	`, string(id), string(raw)); err != nil {
		return fmt.Errorf("save result for %s: %w", id, err)
	}

	s.listeners.emit(Event{Type: EventResultPublished, Component: id})
	return nil
}

func (s *SQLite) Subscribe(fn Listener) func() {
	return s.listeners.subscribe(fn)
}

// Terms reads the quote terms from settings, falling back to the defaults for
// missing, malformed or out-of-range values.
func (s *SQLite) Terms() (pricing.Terms, error) {
	terms := pricing.DefaultTerms()

	rows, err := s.db.Query(`SELECT key, value FROM settings WHERE key IN (?, ?)`, SettingCPIRate, SettingPromotionalDiscount)
	if err != nil {
		return terms, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return terms, err
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			log.Warn().Str(key, value).Msg("invalid setting, using default")
			continue
		}
		next := terms
		switch key {
		case SettingCPIRate:
			next.CPIRate = v
		case SettingPromotionalDiscount:
			next.PromotionalDiscount = v
		}
		if err := next.Validate(); err != nil {
			log.Warn().Str(key, value).Err(err).Msg("setting out of range, using default")
			continue
		}
		terms = next
	}
	return terms, rows.Err()
}

func decodeInstance(id component.ID, enabled bool, paramsJSON string, resultJSON sql.NullString) (component.Instance, error) {
	inst := component.Instance{ID: id, Enabled: enabled, Params: component.Params{}}
	if paramsJSON != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &inst.Params); err != nil {
			return component.Instance{}, fmt.Errorf("decode params for %s: %w", id, err)
		}
	}
	if resultJSON.Valid && resultJSON.String != "" {
		var res component.Result
		if err := json.Unmarshal([]byte(resultJSON.String), &res); err != nil {
			return component.Instance{}, fmt.Errorf("decode result for %s: %w", id, err)
		}
		inst.LastResult = &res
	}
	return inst, nil
}

// SavedQuote is one row of the saved quotes list.
type SavedQuote struct {
	ID        int64   `json:"id"`
	CreatedAt string  `json:"created_at"`
	Title     string  `json:"title"`
	Notes     string  `json:"notes"`
	ThreeYear float64 `json:"three_year"`
}

// SaveQuote stores a snapshot of q. The snapshot is never recalculated.
func (s *SQLite) SaveQuote(title, notes string, q quote.Quote) (int64, error) {
	totals, err := json.Marshal(map[string]float64{
		"one_time":   q.Summary.OneTime,
		"monthly":    q.Summary.Monthly,
		"annual":     q.Summary.Annual,
		"three_year": q.Summary.ThreeYear,
	})
	if err != nil {
		return 0, fmt.Errorf("encode quote totals: %w", err)
	}
	snapshot, err := json.Marshal(q)
	if err != nil {
		return 0, fmt.Errorf("encode quote snapshot: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO quotes (pass_id, title, notes, totals_json, quote_json)
		VALUES (?, ?, ?, ?, ?)
	`, q.PassID.String(), title, notes, string(totals), string(snapshot))
	if err != nil {
		return 0, fmt.Errorf("insert quote: %w", err)
	}
	return res.LastInsertId()
}

// ListQuotes returns saved quotes newest first, filtered by title or notes
// when query is not empty.
func (s *SQLite) ListQuotes(query string) ([]SavedQuote, error) {
	search := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT
			id,
			created_at,
			COALESCE(title, ''),
			COALESCE(notes, ''),
			totals_json
		FROM quotes
		WHERE (? = '' OR COALESCE(title, '') LIKE ? OR COALESCE(notes, '') LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]SavedQuote, 0)
	for rows.Next() {
		var item SavedQuote
		var totalsJSON string
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.Title, &item.Notes, &totalsJSON); err != nil {
			return nil, err
		}
		item.ThreeYear = totalFromJSON(totalsJSON)
		quotes = append(quotes, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return quotes, nil
}

// SavedQuote returns the snapshot stored under id.
func (s *SQLite) SavedQuote(id int64) (quote.Quote, error) {
	var snapshot string
	err := s.db.QueryRow(`SELECT quote_json FROM quotes WHERE id = ?`, id).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return quote.Quote{}, fmt.Errorf("%w: %d", ErrQuoteNotFound, id)
	}
	if err != nil {
		return quote.Quote{}, fmt.Errorf("load quote %d: %w", id, err)
	}

	var q quote.Quote
	if err := json.Unmarshal([]byte(snapshot), &q); err != nil {
		return quote.Quote{}, fmt.Errorf("decode quote %d: %w", id, err)
	}
	return q, nil
}

func totalFromJSON(totalsJSON string) float64 {
	var values map[string]float64
	if err := json.Unmarshal([]byte(totalsJSON), &values); err != nil {
		return 0
	}

	for _, key := range []string{"three_year", "total"} {
		if total, ok := values[key]; ok {
			return total
		}
	}

	return 0
}
