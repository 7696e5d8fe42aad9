package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Simplici0/quotecalc/internal/component"
)

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the components a scenario can configure",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBILLING\tLEVEL\tDEPENDS ON")
			for _, def := range component.Catalog() {
				deps := make([]string, len(def.Dependencies))
				for i, d := range def.Dependencies {
					deps[i] = string(d)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", def.ID, def.Name, def.Billing, def.Level, strings.Join(deps, ", "))
			}
			return tw.Flush()
		},
	}
}
