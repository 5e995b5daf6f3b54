package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"salespulse/internal/dashboard"
	"salespulse/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

var serveOpts struct {
	addr string
	open bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and JSON API over HTTP with scheduled refreshes",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.HTTPAddr
		if serveOpts.addr != "" {
			addr = serveOpts.addr
		}

		metrics := httpapi.NewMetrics()
		session, _ := newSession(cfg, metrics)
		refresher := dashboard.NewRefresher(session, cfg.RefreshInterval)

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		srv := &http.Server{
			Handler:           httpapi.NewRouter(session, metrics),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			return refresher.Run(ctx)
		})
		g.Go(func() error {
			log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			log.Info().Msg("Shutting down HTTP server")
			return srv.Shutdown(sctx)
		})

		if serveOpts.open {
			url := "http://" + ln.Addr().String() + "/"
			if err := browser.OpenURL(url); err != nil {
				log.Warn().Err(err).Str("url", url).Msg("Could not open browser")
			}
		}

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "", "listen address (default HTTP_ADDR or 127.0.0.1:8080)")
	serveCmd.Flags().BoolVar(&serveOpts.open, "open", false, "open the dashboard in the default browser")
	rootCmd.AddCommand(serveCmd)
}
