package kpi

import (
	"testing"

	"salespulse/internal/deal"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		ID:     "snap-1",
		Source: "test",
		Deals: []deal.Deal{
			closedWonOn("W-1", "Tom", day(2024, 6, 3)),
			closedWonOn("W-2", "Eddy", day(2024, 6, 4)),
			mk("O-1", "Tom", deal.StageLimbo, day(2024, 6, 2), func(d *deal.Deal) { d.LimboDate = ptr(day(2024, 6, 12)) }),
			mk("O-2", "Eddy", deal.StageQualified, day(2024, 6, 18), nil),
			mk("O-3", "Tom", deal.StageInboundLead, day(2024, 5, 2), nil),
		},
	}
}

func TestDashboardState_WithHelpersReturnCopies(t *testing.T) {
	base := NewDashboardState(sampleSnapshot(), testNow)

	filtered := base.WithFilter("Tom")
	if base.Filter != AllAEs {
		t.Errorf("WithFilter mutated receiver: %q", base.Filter)
	}
	if filtered.Filter != "Tom" {
		t.Errorf("Filter = %q", filtered.Filter)
	}

	moved, err := base.WithMonth("2024-02")
	if err != nil {
		t.Fatalf("WithMonth: %v", err)
	}
	if base.Range.Month() != "2024-06" || moved.Range.Month() != "2024-02" {
		t.Errorf("ranges = %s / %s", base.Range.Month(), moved.Range.Month())
	}

	if _, err := base.WithMonth("garbage"); err == nil {
		t.Error("expected error for invalid month")
	}

	if base.WithFilter("").Filter != AllAEs {
		t.Error("empty filter should select all AEs")
	}
}

func TestCompute_TargetsFollowFilter(t *testing.T) {
	state := NewDashboardState(sampleSnapshot(), testNow)
	targets := DefaultTargets()

	all := Compute(state, targets, testNow)
	c, ok := all.Card(KeyClosedWon)
	if !ok {
		t.Fatal("closedWon card missing")
	}
	if c.Value != 2 || c.Target != 30 {
		t.Errorf("all: value %d target %d, want 2 / 30", c.Value, c.Target)
	}

	tom := Compute(state.WithFilter("Tom"), targets, testNow)
	c, _ = tom.Card(KeyClosedWon)
	if c.Value != 1 || c.Target != 10 {
		t.Errorf("Tom: value %d target %d, want 1 / 10", c.Value, c.Target)
	}
	if len(all.Cards) != len(Definitions) || len(all.Trace) != len(Definitions) {
		t.Errorf("cards %d trace %d, want %d", len(all.Cards), len(all.Trace), len(Definitions))
	}
	if all.SnapshotID != "snap-1" || all.Month != "2024-06" {
		t.Errorf("report header = %s / %s", all.SnapshotID, all.Month)
	}
}

func TestCompute_DeltasMatchCompare(t *testing.T) {
	snap := sampleSnapshot()
	snap.Deals = append(snap.Deals, closedWonOn("P-1", "Tom", day(2023, 6, 10)))
	state := NewDashboardState(snap, testNow)

	r := Compute(state, DefaultTargets(), testNow)
	in := state.Input(testNow)
	for i, def := range Definitions {
		if want := Compare(def, in); r.Cards[i].Comparison != want {
			t.Errorf("%s: card delta %+v, Compare %+v", def.Key, r.Cards[i].Comparison, want)
		}
	}

	c, _ := r.Card(KeyClosedWon)
	if !c.Comparison.Available || c.Comparison.Previous != 1 || c.Comparison.ChangePercent != 100 || !c.Comparison.Better {
		t.Errorf("closed won delta = %+v, want 1 -> 2 (+100%%, better)", c.Comparison)
	}
}

func TestCompute_ActiveDealsTableUsesCreateWindow(t *testing.T) {
	state := NewDashboardState(sampleSnapshot(), testNow).WithFilter("Tom")
	r := Compute(state, DefaultTargets(), testNow)

	// O-3 was created in May; W-1 was created in January
	if len(r.Deals) != 1 || r.Deals[0].ID != "O-1" {
		t.Fatalf("deals = %+v, want only O-1", r.Deals)
	}
	if r.Deals[0].DaysInStage != 8 {
		t.Errorf("DaysInStage = %d, want 8", r.Deals[0].DaysInStage)
	}
}

func TestCompute_NilSnapshot(t *testing.T) {
	r := Compute(NewDashboardState(nil, testNow), DefaultTargets(), testNow)
	if len(r.Cards) != len(Definitions) {
		t.Fatalf("cards = %d", len(r.Cards))
	}
	for _, c := range r.Cards {
		if c.Value != 0 || c.Comparison.Available {
			t.Errorf("%s: %+v, want zero with no data", c.Key, c)
		}
	}
}

func TestSortRows(t *testing.T) {
	rows := ActiveDeals([]deal.Deal{
		mk("A", "Tom", deal.StageQualified, daysAgo(3), nil),
		mk("B", "Tom", deal.StageClosedWon, daysAgo(2), nil),
		mk("C", "Tom", deal.StageInboundLead, daysAgo(13), nil),
	}, AllAEs, DateRange{Start: day(2024, 6, 1), End: day(2024, 6, 30)}, testNow)

	byRisk := SortRows(rows, SortRisk, SortDesc)
	if ids := []string{byRisk[0].ID, byRisk[1].ID, byRisk[2].ID}; ids[0] != "C" || ids[2] != "B" {
		t.Errorf("risk desc order = %v", ids)
	}
	if byRisk[2].RiskLabel != "Low (0)" {
		t.Errorf("closed deal label = %q", byRisk[2].RiskLabel)
	}

	byStage := SortRows(rows, SortStage, SortAsc)
	if byStage[0].Stage != deal.StageClosedWon || byStage[2].Stage != deal.StageQualified {
		t.Errorf("stage asc order = %v, %v, %v", byStage[0].Stage, byStage[1].Stage, byStage[2].Stage)
	}

	if rows[0].ID != "A" {
		t.Error("SortRows must not reorder its input")
	}
}

func TestSummarize(t *testing.T) {
	in := juneInput(sampleSnapshot().Deals...)
	s := Summarize(in)
	if s.OpenDeals != 3 || s.ClosedWonInMonth != 2 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.ByStage) == 0 || s.ByStage[0].Stage != deal.StageInboundLead {
		t.Errorf("ByStage = %+v, want pipeline order", s.ByStage)
	}
}
