package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/pricing"
	"github.com/Simplici0/quotecalc/internal/quote"
)

func TestWriteRoundTrip(t *testing.T) {
	results := []component.Result{
		{Component: component.Support, Totals: component.Totals{Monthly: 400, Annual: 4800, ThreeYear: 14400}},
		{Component: component.Equipment, Totals: component.Totals{OneTime: 900, ThreeYear: 900}},
	}
	q, err := quote.Build(uuid.New(), time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), results, pricing.Terms{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, q); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SummarySheet || sheets[1] != LinesSheet {
		t.Fatalf("sheets=%v, want [%s %s]", sheets, SummarySheet, LinesSheet)
	}

	cells := map[string]string{
		"A1": "Pass",
		"B1": q.PassID.String(),
		"B2": "2026-03-01 09:30:00",
		"B3": "2",
		"A6": "One-time",
		"B6": "900",
		"B7": "400",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(SummarySheet, cell)
		if err != nil {
			t.Fatalf("GetCellValue %s: %v", cell, err)
		}
		if got != want {
			t.Fatalf("summary %s=%q, want %q", cell, got, want)
		}
	}

	rows, err := f.GetRows(LinesSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("lines rows=%d, want header plus 2", len(rows))
	}
	if rows[0][0] != "Component" || rows[1][0] != "equipment" || rows[2][0] != "support" {
		t.Fatalf("unexpected line order: %v", rows)
	}
	if rows[1][2] != "one_time" || rows[1][3] != "900" {
		t.Fatalf("equipment row=%v", rows[1])
	}
}

func TestWorkbookEmptyQuote(t *testing.T) {
	f, err := Workbook(quote.Empty(pricing.DefaultTerms()))
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(LinesSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%v, want only the header", rows)
	}
	got, err := f.GetCellValue(SummarySheet, "B15")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "0" {
		t.Fatalf("three-year total=%q, want 0", got)
	}
}
