package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Simplici0/quotecalc/internal/calcerr"
	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/export"
	"github.com/Simplici0/quotecalc/internal/orchestrator"
	"github.com/Simplici0/quotecalc/internal/quote"
)

type componentView struct {
	ID           component.ID           `json:"id"`
	Name         string                 `json:"name"`
	Billing      component.BillingModel `json:"billing"`
	Level        int                    `json:"level"`
	Dependencies []component.ID         `json:"dependencies"`
	Enabled      bool                   `json:"enabled"`
	Params       component.Params       `json:"params"`
	Result       *component.Result      `json:"result,omitempty"`
}

type componentUpdate struct {
	Enabled *bool            `json:"enabled"`
	Params  component.Params `json:"params"`
}

type fieldError struct {
	Component string `json:"component"`
	Field     string `json:"field"`
	Message   string `json:"message"`
}

type quoteView struct {
	Quote   quote.Quote         `json:"quote"`
	Rounded quote.Rounded       `json:"rounded"`
	Stale   bool                `json:"stale"`
	State   string              `json:"state"`
	Report  orchestrator.Report `json:"last_pass"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  s.orch.State().String(),
	})
}

func (s *server) handleComponents(w http.ResponseWriter, r *http.Request) {
	defs := component.Catalog()
	views := make([]componentView, 0, len(defs))
	for _, def := range defs {
		inst, err := s.store.ComponentInstance(def.ID)
		if err != nil {
			log.Error().Err(err).Str("component", string(def.ID)).Msg("load component")
			writeError(w, http.StatusInternalServerError, "failed to load components")
			return
		}
		views = append(views, componentView{
			ID:           def.ID,
			Name:         def.Name,
			Billing:      def.Billing,
			Level:        def.Level,
			Dependencies: append([]component.ID{}, def.Dependencies...),
			Enabled:      inst.Enabled,
			Params:       inst.Params,
			Result:       inst.LastResult,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// handleComponentUpdate stores new parameters and/or the enabled flag. The
// store change event schedules the recalculation.
func (s *server) handleComponentUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := componentParam(w, r)
	if !ok {
		return
	}

	var body componentUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Params == nil && body.Enabled == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if body.Params != nil {
		if err := s.calc.Validate(id, body.Params); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "invalid parameters",
				"fields": fieldErrors(err),
			})
			return
		}
		if err := s.store.SetParams(id, body.Params); err != nil {
			log.Error().Err(err).Str("component", string(id)).Msg("save params")
			writeError(w, http.StatusInternalServerError, "failed to save parameters")
			return
		}
	}
	if body.Enabled != nil {
		if err := s.store.SetEnabled(id, *body.Enabled); err != nil {
			log.Error().Err(err).Str("component", string(id)).Msg("save enabled flag")
			writeError(w, http.StatusInternalServerError, "failed to save component")
			return
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"component": string(id),
		"state":     s.orch.State().String(),
	})
}

func (s *server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	id, ok := componentParam(w, r)
	if !ok {
		return
	}
	if err := s.orch.ScheduleCalculation(id, orchestrator.PriorityHigh, "api"); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"component": string(id)})
}

func (s *server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Components []component.ID `json:"components"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	report, err := s.orch.ValidateDependencies(body.Components)
	if err != nil {
		log.Error().Err(err).Msg("validate dependencies")
		writeError(w, http.StatusInternalServerError, "failed to validate")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.quoteView())
}

// handleFlush runs pending work now instead of waiting for the debounce.
func (s *server) handleFlush(w http.ResponseWriter, r *http.Request) {
	s.orch.Flush()
	writeJSON(w, http.StatusOK, s.quoteView())
}

func (s *server) quoteView() quoteView {
	q := s.orch.GetQuote()
	return quoteView{
		Quote:   q,
		Rounded: q.Summary.Rounded(),
		Stale:   q.Stale(),
		State:   s.orch.State().String(),
		Report:  s.orch.LastReport(),
	}
}

func (s *server) handleQuoteXLSX(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="quote.xlsx"`)
	if err := export.Write(w, s.orch.GetQuote()); err != nil {
		log.Error().Err(err).Msg("export quote")
		writeError(w, http.StatusInternalServerError, "failed to export quote")
	}
}

func (s *server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(); err != nil {
		log.Error().Err(err).Msg("clear session")
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func componentParam(w http.ResponseWriter, r *http.Request) (component.ID, bool) {
	id := component.ID(chi.URLParam(r, "id"))
	if _, ok := component.Lookup(id); !ok {
		writeError(w, http.StatusNotFound, "unknown component")
		return "", false
	}
	return id, true
}

// fieldErrors flattens a joined validation error into one entry per field.
func fieldErrors(err error) []fieldError {
	var out []fieldError
	var walk func(error)
	walk = func(err error) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		var schemaErr *calcerr.SchemaValidationError
		if errors.As(err, &schemaErr) {
			out = append(out, fieldError{Component: schemaErr.Component, Field: schemaErr.Field, Message: schemaErr.Reason})
			return
		}
		out = append(out, fieldError{Message: err.Error()})
	}
	walk(err)
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
