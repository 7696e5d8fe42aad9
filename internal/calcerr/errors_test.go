package calcerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSeverityOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Severity
	}{
		{"schema", &SchemaValidationError{Component: "support", Field: "tier", Value: "gold", Reason: "unknown tier"}, SeverityBlocking},
		{"wrapped dependency", fmt.Errorf("schedule: %w", &DependencyError{Component: "sla", Reason: "unknown"}), SeverityBlocking},
		{"calculation", &CalculationError{Component: "financing", Err: errors.New("non-finite")}, SeverityWarning},
		{"aggregation", &AggregationError{Reason: "empty", Err: ErrNoComponents}, SeverityWarning},
		{"plain", errors.New("boom"), SeverityWarning},
	}

	for _, tc := range cases {
		if got := SeverityOf(tc.err); got != tc.want {
			t.Fatalf("%s: SeverityOf=%s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestDependencyErrorNamesChain(t *testing.T) {
	err := &DependencyError{Reason: "cycle detected", Chain: []string{"a", "b", "a"}}

	msg := err.Error()
	if !strings.Contains(msg, "a -> b -> a") {
		t.Fatalf("expected chain in message, got %q", msg)
	}
}

func TestAggregationErrorUnwrapsSentinel(t *testing.T) {
	err := fmt.Errorf("build quote: %w", &AggregationError{Reason: "nothing to sum", Err: ErrNoComponents})

	if !errors.Is(err, ErrNoComponents) {
		t.Fatalf("expected errors.Is to find ErrNoComponents in %v", err)
	}
}
