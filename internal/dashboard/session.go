package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"salespulse/internal/deal"
	"salespulse/internal/kpi"
	"salespulse/internal/sheets"
)

// ErrNoSnapshot is returned by readers before the first successful refresh.
var ErrNoSnapshot = errors.New("no data loaded yet")

// RowLoader produces the raw rows for a refresh.
type RowLoader interface {
	Load(ctx context.Context) (sheets.Batch, error)
}

// RefreshObserver is told about every refresh attempt.
type RefreshObserver interface {
	ObserveRefresh(snap *kpi.Snapshot, elapsed time.Duration, err error)
}

// Options tune a Session.
type Options struct {
	Targets  kpi.Targets
	Roster   []string
	Location *time.Location
	Now      func() time.Time
	Observer RefreshObserver
}

// Session owns the current snapshot. Readers never see a partially loaded one: refresh
// builds a new snapshot and swaps it in whole.
type Session struct {
	loader     RowLoader
	normalizer *deal.Normalizer
	opts       Options

	current   atomic.Pointer[kpi.Snapshot]
	refreshMu sync.Mutex
}

// NewSession wires a loader to a normalizer. No data is loaded until Refresh.
func NewSession(loader RowLoader, opts Options) *Session {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Targets == (kpi.Targets{}) {
		opts.Targets = kpi.DefaultTargets()
	}
	n := deal.NewNormalizer(opts.Location)
	n.Now = opts.Now
	return &Session{loader: loader, normalizer: n, opts: opts}
}

// Now is the session clock in the configured location.
func (s *Session) Now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// Targets returns the configured KPI goals.
func (s *Session) Targets() kpi.Targets {
	return s.opts.Targets
}

// Snapshot returns the current snapshot, nil before the first refresh.
func (s *Session) Snapshot() *kpi.Snapshot {
	return s.current.Load()
}

// Refresh loads, normalizes and publishes a new snapshot. Concurrent calls are serialized.
// On failure the previous snapshot stays in place.
func (s *Session) Refresh(ctx context.Context) (*kpi.Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	snap, err := s.load(ctx)
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveRefresh(snap, time.Since(start), err)
	}
	if err != nil {
		log.Error().Err(err).Msg("Refresh failed, keeping previous snapshot")
		return s.current.Load(), err
	}

	s.current.Store(snap)
	ev := log.Info().
		Str("snapshot", snap.ID).
		Str("source", snap.Source).
		Int("deals", len(snap.Deals)).
		Int("skipped", snap.Skipped).
		Dur("elapsed", time.Since(start))
	if snap.Diagnostic != "" {
		ev = ev.Str("diagnostic", snap.Diagnostic)
	}
	ev.Msg("Snapshot published")
	return snap, nil
}

func (s *Session) load(ctx context.Context) (*kpi.Snapshot, error) {
	batch, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rows: %w", err)
	}

	deals, rejected := s.normalizer.NormalizeAll(batch.Rows)
	for _, r := range rejected {
		if errors.Is(r.Err, deal.ErrSkipRow) {
			log.Debug().Int("row", r.Index).Msg("Skipping empty row")
			continue
		}
		log.Warn().Int("row", r.Index).Err(r.Err).Msg("Skipping malformed row")
	}

	loadedAt := batch.FetchedAt
	if loadedAt.IsZero() {
		loadedAt = s.Now()
	}
	return &kpi.Snapshot{
		ID:         uuid.NewString(),
		Deals:      deals,
		Source:     batch.Source,
		LoadedAt:   loadedAt,
		Skipped:    len(rejected),
		Diagnostic: batch.Diagnostic,
	}, nil
}

// State builds a dashboard selection over the current snapshot. An empty month selects the
// current one.
func (s *Session) State(ae, month string) (kpi.DashboardState, error) {
	snap := s.current.Load()
	if snap == nil {
		return kpi.DashboardState{}, ErrNoSnapshot
	}
	state := kpi.NewDashboardState(snap, s.Now()).WithFilter(ae)
	if month == "" {
		return state, nil
	}
	return state.WithMonth(month)
}

// Report computes the full KPI report for an AE and month.
func (s *Session) Report(ae, month string) (kpi.Report, error) {
	state, err := s.State(ae, month)
	if err != nil {
		return kpi.Report{}, err
	}
	return kpi.Compute(state, s.opts.Targets, s.Now()), nil
}

// ActiveDeals returns the sorted active-deals table.
func (s *Session) ActiveDeals(ae, month string, key kpi.SortKey, dir kpi.SortDirection) ([]kpi.DealRow, error) {
	state, err := s.State(ae, month)
	if err != nil {
		return nil, err
	}
	rows := kpi.ActiveDeals(state.Deals(), state.Filter, state.Range, s.Now())
	return kpi.SortRows(rows, key, dir), nil
}

// AccountExecutives lists the AEs present in the data, restricted to the roster when one
// is configured.
func (s *Session) AccountExecutives() []string {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return kpi.TeamMembers(snap.Deals, s.opts.Roster)
}
