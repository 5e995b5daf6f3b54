package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"salespulse/internal/kpi"
	"salespulse/internal/visuals"
)

var dealsOpts struct {
	ae     string
	month  string
	sort   string
	dir    string
	format string
}

var dealsCmd = &cobra.Command{
	Use:   "deals",
	Short: "List the active deals with days in stage and risk",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(dealsOpts.format); err != nil {
			return err
		}
		key, dir, err := kpi.ParseSort(dealsOpts.sort, dealsOpts.dir)
		if err != nil {
			return err
		}
		session, _, err := loadSession(cmd.Context(), nil)
		if err != nil {
			return err
		}
		rows, err := session.ActiveDeals(dealsOpts.ae, dealsOpts.month, key, dir)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch dealsOpts.format {
		case formatJSON:
			return writeJSON(out, rows)
		case formatMarkdown:
			fmt.Fprintln(out, visuals.GenerateRiskPie(rows))
			fmt.Fprintln(out, visuals.GenerateAgingChart(rows))
			return nil
		}
		fmt.Fprintln(out, dealsTable(rows).String())
		fmt.Fprintf(out, "%d deals\n", len(rows))
		return nil
	},
}

func init() {
	dealsCmd.Flags().StringVar(&dealsOpts.ae, "ae", "all", "account executive, or all")
	dealsCmd.Flags().StringVar(&dealsOpts.month, "month", "", "month as YYYY-MM (default current month)")
	dealsCmd.Flags().StringVar(&dealsOpts.sort, "sort", "", "sort column: stage, risk or age")
	dealsCmd.Flags().StringVar(&dealsOpts.dir, "dir", "asc", "sort direction: asc or desc")
	dealsCmd.Flags().StringVarP(&dealsOpts.format, "format", "f", formatText, "output format: text, json or markdown")
	rootCmd.AddCommand(dealsCmd)
}
