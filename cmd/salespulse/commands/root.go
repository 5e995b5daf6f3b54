package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"salespulse/internal/config"
	"salespulse/internal/logging"
	"salespulse/internal/mcp"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

// quietConsole marks commands that own the terminal; they log to the file only.
const quietConsole = "quiet-console"

var rootCmd = &cobra.Command{
	Use:   "salespulse",
	Short: "Salespulse computes sales pipeline KPIs from a deals spreadsheet",
	Long: `Salespulse reads the sales team's deal sheet (Google Sheets, a CSV export or the bundled
sample), scores deal risk and reports monthly KPIs against targets with a year-over-year
comparison. Run without a subcommand it serves the KPIs as MCP tools on stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, quiet := cmd.Annotations[quietConsole]; quiet {
			if _, err := logging.Setup(logging.Options{Verbose: verbose, NoConsole: true}); err != nil {
				return err
			}
		} else {
			logging.Init(verbose)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("dataPath", cfg.DataPath).
			Bool("sheetsConfigured", cfg.Sheets.Configured()).
			Bool("sample", cfg.UseSampleData).
			Msg("Salespulse starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(cmd)
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	mcp.Version = Version
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.SetErr(os.Stderr)
}
