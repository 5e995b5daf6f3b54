package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Batch is one set of rows plus where they came from.
type Batch struct {
	Rows       [][]string
	Source     string
	FetchedAt  time.Time
	Diagnostic string
}

// Loader resolves rows through the fallback chain: live source, row cache, sample.
type Loader struct {
	Live     Source
	Cache    *RowCache
	Fallback Source
	// UseSample skips the live source and the cache entirely.
	UseSample bool
	Now       func() time.Time
}

func (l *Loader) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

// Load never fails while a fallback is configured; the reason for falling back is carried
// in Batch.Diagnostic.
func (l *Loader) Load(ctx context.Context) (Batch, error) {
	if l.UseSample {
		return l.fallback(ctx, "")
	}

	var diagnostic string
	if l.Live == nil {
		diagnostic = "no live source configured"
	} else {
		rows, err := l.Live.FetchRows(ctx)
		switch {
		case err == nil && len(rows) > 0:
			if l.Cache != nil {
				if cerr := l.Cache.Save(rows); cerr != nil {
					log.Warn().Err(cerr).Msg("Failed to update row cache")
				}
			}
			return Batch{Rows: rows, Source: l.Live.Name(), FetchedAt: l.now()}, nil
		case err == nil:
			diagnostic = fmt.Sprintf("%s returned no rows", l.Live.Name())
		case errors.Is(err, ErrNotConfigured):
			diagnostic = fmt.Sprintf("%s not configured", l.Live.Name())
		default:
			if ctx.Err() != nil {
				return Batch{}, ctx.Err()
			}
			diagnostic = fmt.Sprintf("%s unavailable: %v", l.Live.Name(), err)
		}
		log.Warn().Err(err).Str("source", l.Live.Name()).Msg("Live source failed, falling back")
	}

	if l.Cache != nil {
		cached, err := l.Cache.Load()
		if err != nil {
			log.Warn().Err(err).Msg("Row cache unreadable")
		}
		if cached != nil && len(cached.Rows) > 0 {
			return Batch{
				Rows:       cached.Rows,
				Source:     CacheSourceName,
				FetchedAt:  cached.SavedAt,
				Diagnostic: diagnostic + "; serving cached rows",
			}, nil
		}
	}

	return l.fallback(ctx, diagnostic)
}

func (l *Loader) fallback(ctx context.Context, diagnostic string) (Batch, error) {
	if l.Fallback == nil {
		if diagnostic == "" {
			diagnostic = "no fallback source"
		}
		return Batch{}, fmt.Errorf("no rows available: %s", diagnostic)
	}
	rows, err := l.Fallback.FetchRows(ctx)
	if err != nil {
		return Batch{}, fmt.Errorf("fallback %s failed: %w", l.Fallback.Name(), err)
	}
	if diagnostic != "" {
		diagnostic += "; serving " + l.Fallback.Name() + " data"
	}
	return Batch{Rows: rows, Source: l.Fallback.Name(), FetchedAt: l.now(), Diagnostic: diagnostic}, nil
}
