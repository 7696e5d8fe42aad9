// Package calcerr defines the error taxonomy shared by the quote engine.
//
// Schema and dependency errors block the user from proceeding; calculation and
// aggregation errors are reported as per-component warnings.
package calcerr

import (
	"errors"
	"fmt"
	"strings"
)

// Severity indicates how a failure should be surfaced.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityBlocking
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityBlocking:
		return "blocking"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrNoComponents is returned by the aggregator when no component is enabled.
var ErrNoComponents = errors.New("no enabled components")

// SchemaValidationError reports a parameter outside its declared range or type.
type SchemaValidationError struct {
	Component string
	Field     string
	Value     any
	Reason    string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s (got %v)", e.Component, e.Field, e.Reason, e.Value)
}

// DependencyError reports a missing or cyclic dependency.
type DependencyError struct {
	Component  string
	Dependency string
	Chain      []string
	Reason     string
}

func (e *DependencyError) Error() string {
	var b strings.Builder
	b.WriteString("dependency error")
	if e.Component != "" {
		b.WriteString(" for ")
		b.WriteString(e.Component)
	}
	if e.Dependency != "" {
		b.WriteString(" on ")
		b.WriteString(e.Dependency)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Chain) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Chain, " -> "))
		b.WriteString(")")
	}
	return b.String()
}

// CalculationError is a runtime failure inside a component formula.
type CalculationError struct {
	Component string
	Err       error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculate %s: %v", e.Component, e.Err)
}

func (e *CalculationError) Unwrap() error { return e.Err }

// AggregationError is a failure combining component results into a quote.
type AggregationError struct {
	Reason string
	Err    error
}

func (e *AggregationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("aggregate quote: %s: %v", e.Reason, e.Err)
	}
	return "aggregate quote: " + e.Reason
}

func (e *AggregationError) Unwrap() error { return e.Err }

// SeverityOf classifies err. Unknown errors are treated as warnings.
func SeverityOf(err error) Severity {
	var schemaErr *SchemaValidationError
	var depErr *DependencyError
	if errors.As(err, &schemaErr) || errors.As(err, &depErr) {
		return SeverityBlocking
	}
	return SeverityWarning
}

// IsSchema reports whether err contains a SchemaValidationError.
func IsSchema(err error) bool {
	var schemaErr *SchemaValidationError
	return errors.As(err, &schemaErr)
}
