package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"salespulse/internal/sheets"
)

var exportOut string

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Inspect the configured Google Sheet",
}

func sheetsClient() (*sheets.Client, error) {
	if !cfg.Sheets.Configured() {
		return nil, fmt.Errorf("set SHEETS_API_KEY and SHEETS_ID: %w", sheets.ErrNotConfigured)
	}
	return sheets.NewClient(cfg.Sheets), nil
}

var sheetsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the sheet is reachable with the configured key",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := sheetsClient()
		if err != nil {
			return err
		}
		info, err := client.TestConnection(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Connected to %q (%d tabs)\n", info.Title, len(info.Sheets))
		return nil
	},
}

var sheetsInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the spreadsheet title and tabs",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := sheetsClient()
		if err != nil {
			return err
		}
		info, err := client.GetSheetInfo(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), info)
	},
}

var sheetsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the deal rows as CSV, without the header rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := sheetsClient()
		if err != nil {
			return err
		}
		rows, err := client.FetchRows(cmd.Context())
		if err != nil {
			return err
		}
		if exportOut == "" || exportOut == "-" {
			return sheets.WriteCSV(cmd.OutOrStdout(), rows)
		}
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		if err := sheets.WriteCSV(f, rows); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", len(rows), exportOut)
		return nil
	},
}

func init() {
	sheetsExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	sheetsCmd.AddCommand(sheetsTestCmd, sheetsInfoCmd, sheetsExportCmd)
	rootCmd.AddCommand(sheetsCmd)
}
