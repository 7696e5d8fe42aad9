// Package commands implements the quotectl command line.
package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Simplici0/quotecalc/internal/config"
	"github.com/Simplici0/quotecalc/internal/pricing"
)

var (
	verbose bool
	cpiRate float64

	logger zerolog.Logger
)

func Execute() error {
	return newRootCmd(os.Stderr).Execute()
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Evaluate multi-year service quotes from scenario files",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: logOut, TimeFormat: time.Kitchen}).
				Level(level).
				With().Timestamp().Logger()

			if !cmd.Flags().Changed("cpi") {
				cpiRate = config.Load().CPIRate
				return nil
			}
			if cpiRate < 0 || cpiRate > pricing.MaxCPIRate {
				return fmt.Errorf("--cpi %v: must be between 0 and %v", cpiRate, pricing.MaxCPIRate)
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every calculation pass")
	root.PersistentFlags().Float64Var(&cpiRate, "cpi", pricing.DefaultCPIRate, "CPI escalation rate when the scenario sets no terms (default from CPI_RATE)")

	root.AddCommand(quoteCmd(), validateCmd(), catalogCmd())
	return root
}

func defaultTerms() pricing.Terms {
	return pricing.Terms{CPIRate: cpiRate}
}
