package kpi

import (
	"time"

	"github.com/shopspring/decimal"

	"salespulse/internal/deal"
)

// TraceEntry records the counts behind one KPI for the current and the prior-year window.
type TraceEntry struct {
	Key      Key     `json:"key"`
	Current  Measure `json:"current"`
	Previous Measure `json:"previous"`
}

// StageCount is the number of deals sitting in one stage.
type StageCount struct {
	Stage deal.Stage `json:"stage"`
	Count int        `json:"count"`
}

// PipelineSummary totals the filtered pipeline.
type PipelineSummary struct {
	ByStage          []StageCount    `json:"byStage"`
	OpenDeals        int             `json:"openDeals"`
	OpenValue        decimal.Decimal `json:"openValue"`
	ClosedWonValue   decimal.Decimal `json:"closedWonValue"`
	ClosedWonInMonth int             `json:"closedWonInMonth"`
}

// Report is everything the presentation layers render for one selection.
type Report struct {
	SnapshotID  string          `json:"snapshotId,omitempty"`
	Source      string          `json:"source,omitempty"`
	LoadedAt    time.Time       `json:"loadedAt"`
	Diagnostic  string          `json:"diagnostic,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Filter      string          `json:"filter"`
	Month       string          `json:"month"`
	Range       DateRange       `json:"range"`
	Previous    DateRange       `json:"previousRange"`
	Cards       []Card          `json:"cards"`
	Deals       []DealRow       `json:"deals"`
	Pipeline    PipelineSummary `json:"pipeline"`
	Trace       []TraceEntry    `json:"trace"`
}

// Card returns the card for key.
func (r Report) Card(key Key) (Card, bool) {
	for _, c := range r.Cards {
		if c.Key == key {
			return c, true
		}
	}
	return Card{}, false
}

// Compute derives every KPI card, the active-deals table and the pipeline summary for the
// state at now.
func Compute(state DashboardState, targets Targets, now time.Time) Report {
	in := state.Input(now)
	prevRange := PreviousYear(state.Range)

	r := Report{
		GeneratedAt: now,
		Filter:      state.Filter,
		Month:       state.Range.Month(),
		Range:       state.Range,
		Previous:    prevRange,
		Cards:       make([]Card, 0, len(Definitions)),
		Trace:       make([]TraceEntry, 0, len(Definitions)),
	}
	if snap := state.Snapshot; snap != nil {
		r.SnapshotID = snap.ID
		r.Source = snap.Source
		r.LoadedAt = snap.LoadedAt
		r.Diagnostic = snap.Diagnostic
	}

	for _, def := range Definitions {
		cur, prev, delta := compare(def, in)
		r.Cards = append(r.Cards, NewCard(def, cur, targets.For(def.Key, state.Filter), delta))
		r.Trace = append(r.Trace, TraceEntry{Key: def.Key, Current: cur, Previous: prev})
	}

	r.Deals = ActiveDeals(in.Deals, in.Filter, in.Range, now)
	r.Pipeline = Summarize(in)
	return r
}

// Summarize counts the AE-filtered pipeline by stage and totals its value.
func Summarize(in Input) PipelineSummary {
	s := PipelineSummary{OpenValue: decimal.Zero, ClosedWonValue: decimal.Zero}
	counts := make(map[deal.Stage]int)
	var order []deal.Stage

	for _, d := range ByAE(in.Deals, in.Filter) {
		if counts[d.Stage] == 0 {
			order = append(order, d.Stage)
		}
		counts[d.Stage]++

		if d.IsOpen() {
			s.OpenDeals++
			s.OpenValue = s.OpenValue.Add(d.Value)
		}
		if d.Stage == deal.StageClosedWon && in.Range.ContainsPtr(d.CloseDate) {
			s.ClosedWonInMonth++
			s.ClosedWonValue = s.ClosedWonValue.Add(d.Value)
		}
	}

	// Known stages first in pipeline order, then anything else as first seen.
	for _, st := range deal.KnownStages {
		if n := counts[st]; n > 0 {
			s.ByStage = append(s.ByStage, StageCount{Stage: st, Count: n})
		}
	}
	for _, st := range order {
		if !st.Known() {
			s.ByStage = append(s.ByStage, StageCount{Stage: st, Count: counts[st]})
		}
	}
	return s
}
