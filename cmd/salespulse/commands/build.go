package commands

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"salespulse/internal/config"
	"salespulse/internal/dashboard"
	"salespulse/internal/sheets"
)

// dataSources resolves the live source from configuration: a CSV export wins over the
// Sheets API. client is nil unless the Sheets API is configured.
func dataSources(c *config.AppConfig) (live sheets.Source, client *sheets.Client, cacheID string) {
	if c.Sheets.Configured() {
		client = sheets.NewClient(c.Sheets)
	}
	switch {
	case c.DealsCSV != "":
		return sheets.NewCSVSource(c.DealsCSV, c.Sheets.HeaderRows), client, sheets.CSVSourceName
	case client != nil:
		return client, client, c.Sheets.SheetID
	default:
		return nil, client, ""
	}
}

func newLoader(c *config.AppConfig) (*sheets.Loader, *sheets.Client) {
	live, client, cacheID := dataSources(c)
	loader := &sheets.Loader{
		Live:      live,
		Fallback:  sheets.NewSampleSource(time.Now),
		UseSample: c.UseSampleData,
	}
	if cacheID != "" {
		loader.Cache = sheets.NewRowCache(c.CacheDir, cacheID)
	}
	return loader, client
}

func newSession(c *config.AppConfig, observer dashboard.RefreshObserver) (*dashboard.Session, *sheets.Client) {
	loader, client := newLoader(c)
	return dashboard.NewSession(loader, dashboard.Options{
		Targets:  c.Targets,
		Roster:   c.Roster,
		Location: c.Location,
		Observer: observer,
	}), client
}

// loadSession builds a session and performs the first refresh.
func loadSession(ctx context.Context, observer dashboard.RefreshObserver) (*dashboard.Session, *sheets.Client, error) {
	session, client := newSession(cfg, observer)
	snap, err := session.Refresh(ctx)
	if err != nil {
		return nil, nil, err
	}
	if snap.Diagnostic != "" {
		log.Warn().Str("source", snap.Source).Msg(snap.Diagnostic)
	}
	return session, client, nil
}
