package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Simplici0/quotecalc/internal/export"
	"github.com/Simplici0/quotecalc/internal/quote"
	"github.com/Simplici0/quotecalc/internal/scenario"
)

func quoteCmd() *cobra.Command {
	var (
		path     string
		asJSON   bool
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Calculate the quote described by a scenario file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(path)
			if err != nil {
				return err
			}
			res, err := scenario.Evaluate(s, defaultTerms(), logger)
			if err != nil {
				return err
			}
			for _, f := range res.Report.Failures {
				logger.Warn().Str("component", string(f.Component)).Msg(f.Message)
			}

			if xlsxPath != "" {
				if err := writeWorkbook(xlsxPath, res.Quote); err != nil {
					return err
				}
				logger.Info().Str("path", xlsxPath).Msg("workbook written")
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"title":   s.Title,
					"quote":   res.Quote,
					"rounded": res.Quote.Summary.Rounded(),
				})
			}
			return printQuote(out, s.Title, res.Quote)
		},
	}

	cmd.Flags().StringVarP(&path, "scenario", "s", "", "scenario TOML file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the quote as JSON")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the quote as an xlsx workbook")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func writeWorkbook(path string, q quote.Quote) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Write(f, q); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func printQuote(out io.Writer, title string, q quote.Quote) error {
	if title != "" {
		fmt.Fprintf(out, "%s\n\n", title)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "COMPONENT\tONE-TIME\tMONTHLY\tTHREE-YEAR\t")
	for _, l := range q.Lines {
		name := l.Name
		if l.Stale {
			name += " (stale)"
		} else if l.UsingDefaultContext {
			name += " (defaults)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", name, money(l.Totals.OneTime), money(l.Totals.Monthly), money(l.Totals.ThreeYear))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := q.Summary
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Monthly:          %s (%.2f%% off %s)\n", money(s.Monthly), s.MonthlyDiscount*100, money(s.MonthlySubtotal))
	fmt.Fprintf(out, "Annual:           %s (%.2f%% off)\n", money(s.Annual), s.AnnualDiscount*100)
	fmt.Fprintf(out, "One-time:         %s\n", money(s.OneTime))
	fmt.Fprintf(out, "Three-year total: %s\n", money(s.ThreeYear))
	return nil
}
