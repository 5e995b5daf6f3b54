package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"salespulse/internal/dashboard"
	"salespulse/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the KPIs as MCP tools on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(cmd)
	},
}

// runMCP serves MCP on stdio while the refresher keeps the data current. A failed first load
// is not fatal; the refresh_data tool can retry it.
func runMCP(cmd *cobra.Command) error {
	session, client := newSession(cfg, nil)
	refresher := dashboard.NewRefresher(session, cfg.RefreshInterval)

	var sheet mcp.SheetInspector
	if client != nil {
		sheet = client
	}
	server := mcp.NewServer(session, sheet, cfg.EnableMermaidCharts)

	g, ctx := errgroup.WithContext(cmd.Context())
	ctx, cancel := context.WithCancel(ctx)
	g.Go(func() error {
		return refresher.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		err := server.Serve(ctx)
		log.Info().Msg("MCP client disconnected")
		return err
	})
	return g.Wait()
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
