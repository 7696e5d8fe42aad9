package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Simplici0/quotecalc/internal/calcerr"
	"github.com/Simplici0/quotecalc/internal/component"
)

// reader extracts typed parameters and collects schema errors. Missing values
// take their default; present values must have the right type and range.
type reader struct {
	component component.ID
	params    component.Params
	errs      []error
}

func newReader(id component.ID, params component.Params) *reader {
	return &reader{component: id, params: params}
}

func (r *reader) fail(field string, value any, reason string) {
	r.errs = append(r.errs, &calcerr.SchemaValidationError{
		Component: string(r.component),
		Field:     field,
		Value:     value,
		Reason:    reason,
	})
}

func (r *reader) lookup(key string) (any, bool) {
	raw, ok := r.params[key]
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

func (r *reader) float(key string, def, min, max float64) float64 {
	raw, ok := r.lookup(key)
	if !ok {
		return def
	}
	v, ok := toFloat(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		r.fail(key, raw, "must be a finite number")
		return def
	}
	if v < min || v > max {
		r.fail(key, raw, fmt.Sprintf("must be between %g and %g", min, max))
		return def
	}
	return v
}

func (r *reader) integer(key string, def, min, max int) int {
	raw, ok := r.lookup(key)
	if !ok {
		return def
	}
	v, ok := toFloat(raw)
	if !ok || v != math.Trunc(v) || math.IsInf(v, 0) {
		r.fail(key, raw, "must be a whole number")
		return def
	}
	if v < float64(min) || v > float64(max) {
		r.fail(key, raw, fmt.Sprintf("must be between %d and %d", min, max))
		return def
	}
	return int(v)
}

func (r *reader) intChoice(key string, def int, allowed ...int) int {
	v := r.integer(key, def, math.MinInt32, math.MaxInt32)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	parts := make([]string, len(allowed))
	for i, a := range allowed {
		parts[i] = strconv.Itoa(a)
	}
	r.fail(key, r.params[key], "must be one of "+strings.Join(parts, ", "))
	return def
}

func (r *reader) choice(key, def string, allowed ...string) string {
	raw, ok := r.lookup(key)
	if !ok {
		return def
	}
	s, ok := raw.(string)
	if !ok {
		r.fail(key, raw, "must be a string")
		return def
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	r.fail(key, raw, "must be one of "+strings.Join(allowed, ", "))
	return def
}

func (r *reader) flag(key string, def bool) bool {
	raw, ok := r.lookup(key)
	if !ok {
		return def
	}
	b, ok := raw.(bool)
	if !ok {
		r.fail(key, raw, "must be true or false")
		return def
	}
	return b
}

func (r *reader) err() error {
	return errors.Join(r.errs...)
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
