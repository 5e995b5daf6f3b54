package commands

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"salespulse/internal/dashboard"
	"salespulse/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:         "tui",
	Short:       "Open the interactive terminal dashboard",
	Annotations: map[string]string{quietConsole: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _, err := loadSession(cmd.Context(), nil)
		if err != nil {
			return err
		}
		refresher := dashboard.NewRefresher(session, cfg.RefreshInterval)
		refresher.SkipInitial = true

		g, ctx := errgroup.WithContext(cmd.Context())
		ctx, cancel := context.WithCancel(ctx)
		g.Go(func() error {
			return refresher.Run(ctx)
		})
		g.Go(func() error {
			defer cancel()
			return tui.Run(ctx, session)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
