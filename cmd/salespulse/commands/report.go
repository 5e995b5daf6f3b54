package commands

import (
	"github.com/spf13/cobra"
)

var reportOpts struct {
	ae     string
	month  string
	format string
	deals  bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the KPI cards for an AE and month",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(reportOpts.format); err != nil {
			return err
		}
		session, _, err := loadSession(cmd.Context(), nil)
		if err != nil {
			return err
		}
		r, err := session.Report(reportOpts.ae, reportOpts.month)
		if err != nil {
			return err
		}
		return writeReport(cmd.OutOrStdout(), r, reportOpts.format, reportOpts.deals)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOpts.ae, "ae", "all", "account executive, or all")
	reportCmd.Flags().StringVar(&reportOpts.month, "month", "", "month as YYYY-MM (default current month)")
	reportCmd.Flags().StringVarP(&reportOpts.format, "format", "f", formatText, "output format: text, json or markdown")
	reportCmd.Flags().BoolVar(&reportOpts.deals, "deals", false, "include the active-deals table")
	rootCmd.AddCommand(reportCmd)
}
