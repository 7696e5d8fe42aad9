package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/graph"
	"github.com/Simplici0/quotecalc/internal/pricing"
	"github.com/Simplici0/quotecalc/internal/scenario"
	"github.com/Simplici0/quotecalc/internal/store"
)

func validateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scenario's parameters and dependencies without calculating",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(path)
			if err != nil {
				return err
			}

			defs := component.Catalog()
			calc, err := pricing.NewCalculator(defs)
			if err != nil {
				return err
			}
			if err := s.Validate(calc); err != nil {
				return err
			}

			g, err := graph.New(defs)
			if err != nil {
				return err
			}
			mem := store.NewMemory()
			if err := s.Apply(mem); err != nil {
				return err
			}
			ids, err := mem.EnabledComponents()
			if err != nil {
				return err
			}
			enabled := make(map[component.ID]bool, len(ids))
			for _, id := range ids {
				enabled[id] = true
			}

			out := cmd.OutOrStdout()
			report := g.ValidateDependencies(ids, enabled)
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "%s: %s\n", issue.Kind, issue.Message)
			}
			if !report.Valid {
				return fmt.Errorf("scenario %s has blocking dependency issues", path)
			}
			fmt.Fprintf(out, "ok: %d components enabled\n", len(ids))
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "scenario", "s", "", "scenario TOML file")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}
