package kpi

import (
	"time"

	"salespulse/internal/deal"
)

// Snapshot is one complete load of the deal collection. It is shared read-only between
// readers and replaced wholesale on refresh.
type Snapshot struct {
	ID         string      `json:"id"`
	Deals      []deal.Deal `json:"-"`
	Source     string      `json:"source"`
	LoadedAt   time.Time   `json:"loadedAt"`
	Skipped    int         `json:"skipped"`
	Diagnostic string      `json:"diagnostic,omitempty"`
}

// DealCount is the number of deals in the snapshot, zero for a nil snapshot.
func (s *Snapshot) DealCount() int {
	if s == nil {
		return 0
	}
	return len(s.Deals)
}

// DashboardState is the selection a report is computed for. It is a value: the With*
// helpers return modified copies and never touch the receiver.
type DashboardState struct {
	Snapshot *Snapshot
	Filter   string
	Range    DateRange
}

// NewDashboardState selects every AE and the month containing now.
func NewDashboardState(snap *Snapshot, now time.Time) DashboardState {
	return DashboardState{Snapshot: snap, Filter: AllAEs, Range: CurrentMonth(now)}
}

// WithFilter selects a single AE, or everyone for "all" or empty.
func (s DashboardState) WithFilter(filter string) DashboardState {
	if filter == "" {
		filter = AllAEs
	}
	s.Filter = filter
	return s
}

// WithMonth selects a YYYY-MM month in the location of the current range.
func (s DashboardState) WithMonth(month string) (DashboardState, error) {
	loc := s.Range.Start.Location()
	rng, err := MonthRange(month, loc)
	if err != nil {
		return s, err
	}
	s.Range = rng
	return s, nil
}

// WithRange selects an arbitrary inclusive range.
func (s DashboardState) WithRange(rng DateRange) DashboardState {
	s.Range = rng
	return s
}

// WithSnapshot points the state at a newer snapshot, keeping the selection.
func (s DashboardState) WithSnapshot(snap *Snapshot) DashboardState {
	s.Snapshot = snap
	return s
}

// Deals returns the snapshot's deals, nil when there is no snapshot yet.
func (s DashboardState) Deals() []deal.Deal {
	if s.Snapshot == nil {
		return nil
	}
	return s.Snapshot.Deals
}

// Input binds the state to a clock reading.
func (s DashboardState) Input(now time.Time) Input {
	return Input{Deals: s.Deals(), Filter: s.Filter, Range: s.Range, Now: now}
}
