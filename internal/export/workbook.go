// Package export writes quotes as xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/quotecalc/internal/quote"
)

// Sheet names.
const (
	SummarySheet = "Summary"
	LinesSheet   = "Lines"
)

// Workbook builds a two-sheet workbook for q: the rounded summary and one row
// per component line.
func Workbook(q quote.Quote) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSummary(f, q); err != nil {
		_ = f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(LinesSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeLines(f, q); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// Write streams the workbook for q to w.
func Write(w io.Writer, q quote.Quote) error {
	f, err := Workbook(q)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, q quote.Quote) error {
	r := q.Summary.Rounded()
	rows := [][]any{
		{"Pass", q.PassID.String()},
		{"Completed", q.CompletedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Components", q.Summary.ComponentCount},
		{"CPI rate", q.Terms.CPIRate},
		{"Promotional discount", q.Terms.PromotionalDiscount},
		{"One-time", r.OneTime.InexactFloat64()},
		{"Monthly subtotal", r.MonthlySubtotal.InexactFloat64()},
		{"Monthly discount", r.MonthlyDiscount.InexactFloat64()},
		{"Monthly", r.Monthly.InexactFloat64()},
		{"Annual discount", r.AnnualDiscount.InexactFloat64()},
		{"Annual", r.Annual.InexactFloat64()},
		{"Three-year base", r.ThreeYearBase.InexactFloat64()},
		{"Term discount", r.TermDiscount.InexactFloat64()},
		{"Three-year recurring", r.ThreeYearRecurring.InexactFloat64()},
		{"Three-year total", r.ThreeYear.InexactFloat64()},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 24)
}

func writeLines(f *excelize.File, q quote.Quote) error {
	header := []any{"Component", "Name", "Billing", "One-time", "Monthly", "Annual", "Three-year", "Stale", "Default context", "Error"}
	if err := f.SetSheetRow(LinesSheet, "A1", &header); err != nil {
		return err
	}
	for i, l := range q.Lines {
		row := []any{
			string(l.Component),
			l.Name,
			string(l.Billing),
			l.Totals.OneTime,
			l.Totals.Monthly,
			l.Totals.Annual,
			l.Totals.ThreeYear,
			l.Stale,
			l.UsingDefaultContext,
			l.Error,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(LinesSheet, cell, &row); err != nil {
			return fmt.Errorf("line %s: %w", l.Component, err)
		}
	}
	return nil
}
