package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Simplici0/quotecalc/internal/quote"
	"github.com/Simplici0/quotecalc/internal/store"
)

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	quotes, err := s.store.ListQuotes(query)
	if err != nil {
		log.Error().Err(err).Msg("list quotes")
		writeError(w, http.StatusInternalServerError, "failed to load quotes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":  query,
		"quotes": quotes,
	})
}

// handleQuoteSave snapshots the current quote. Saved quotes are never
// recalculated.
func (s *server) handleQuoteSave(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	body.Title = strings.TrimSpace(body.Title)
	if body.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	q := s.orch.GetQuote()
	if q.Summary.ComponentCount == 0 {
		writeError(w, http.StatusConflict, "no calculated components to save")
		return
	}

	id, err := s.store.SaveQuote(body.Title, strings.TrimSpace(body.Notes), q)
	if err != nil {
		log.Error().Err(err).Msg("save quote")
		writeError(w, http.StatusInternalServerError, "failed to save quote")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "pass_id": q.PassID})
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	q, ok := s.savedQuote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quote":   q,
		"rounded": q.Summary.Rounded(),
	})
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	q, ok := s.savedQuote(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(quoteText(q)))
}

func (s *server) savedQuote(w http.ResponseWriter, r *http.Request) (quote.Quote, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return quote.Quote{}, false
	}

	q, err := s.store.SavedQuote(id)
	if errors.Is(err, store.ErrQuoteNotFound) {
		http.NotFound(w, r)
		return quote.Quote{}, false
	}
	if err != nil {
		log.Error().Err(err).Int64("quote_id", id).Msg("load saved quote")
		writeError(w, http.StatusInternalServerError, "failed to load quote")
		return quote.Quote{}, false
	}
	return q, true
}

func quoteText(q quote.Quote) string {
	r := q.Summary.Rounded()

	var b strings.Builder
	fmt.Fprintf(&b, "Pass: %s\n", q.PassID)
	fmt.Fprintf(&b, "Calculated: %s\n", q.CompletedAt.UTC().Format("2006-01-02 15:04"))
	b.WriteString("\nComponents:\n")
	for _, l := range q.Lines {
		marker := ""
		if l.Stale {
			marker = " (stale)"
		}
		fmt.Fprintf(&b, "- %s%s: one-time %.2f, monthly %.2f\n", l.Name, marker, l.Totals.OneTime, l.Totals.Monthly)
	}
	b.WriteString("\nTotals:\n")
	fmt.Fprintf(&b, "One-time: %s\n", r.OneTime.StringFixed(2))
	fmt.Fprintf(&b, "Monthly: %s (discount %s)\n", r.Monthly.StringFixed(2), r.MonthlyDiscount.StringFixed(4))
	fmt.Fprintf(&b, "Annual: %s\n", r.Annual.StringFixed(2))
	fmt.Fprintf(&b, "Three-year total: %s\n", r.ThreeYear.StringFixed(2))
	return b.String()
}
