package kpi

import (
	"testing"

	"salespulse/internal/deal"
)

func TestAssessRisk_LimboBandsAreAdditive(t *testing.T) {
	d := mk("L-1", "Tom", deal.StageLimbo, daysAgo(30), func(d *deal.Deal) {
		d.LimboDate = ptr(daysAgo(8))
	})
	// pin the last contact four days back
	d.LastContactDate = daysAgo(4)

	got := AssessRisk(d, testNow)
	if got.Score != 75 {
		t.Fatalf("Score = %d, want 75 (35+20+10+10), breakdown %+v", got.Score, got.Breakdown)
	}
	if got.Level != RiskHigh {
		t.Errorf("Level = %s, want High", got.Level)
	}
	if len(got.Breakdown) != 4 {
		t.Errorf("len(Breakdown) = %d, want 4", len(got.Breakdown))
	}
	if got.Label() != "High (75)" {
		t.Errorf("Label() = %q", got.Label())
	}
}

func TestAssessRisk_ClosedDealsScoreZero(t *testing.T) {
	for _, st := range []deal.Stage{deal.StageClosedWon, deal.StageClosedLost} {
		d := mk("C-1", "Tom", st, daysAgo(120), nil)
		got := AssessRisk(d, testNow)
		if got.Score != 0 || got.Level != RiskLow {
			t.Errorf("%s: got %+v, want Low (0)", st, got)
		}
		if got.Label() != "Low (0)" {
			t.Errorf("%s: Label() = %q", st, got.Label())
		}
	}
}

func TestRiskScore_StageBands(t *testing.T) {
	withActivity := func(d *deal.Deal) { d.NextActivityDate = ptr(testNow) }

	tests := []struct {
		name  string
		stage deal.Stage
		days  int
		want  int
	}{
		// contact age equals stage age for deals without stage-entry dates
		{"inbound fresh", deal.StageInboundLead, 2, 0},
		{"inbound 7 days", deal.StageInboundLead, 7, 10 + 20},
		{"inbound 13 days", deal.StageInboundLead, 13, 35 + 30},
		{"qualified 8 days", deal.StageQualified, 8, 10 + 20},
		{"qualified 11 days", deal.StageQualified, 11, 25 + 30},
		{"qualified 15 days", deal.StageQualified, 15, 35 + 30},
		{"onboarding has no stage band", deal.StageOnboardingBooked, 20, 30},
		{"unrecognized has no stage band", deal.Stage("Nurture"), 6, 20},
	}
	for _, tt := range tests {
		d := mk("R-1", "Tom", tt.stage, daysAgo(tt.days), withActivity)
		if got := RiskScore(d, testNow); got != tt.want {
			t.Errorf("%s: RiskScore = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestRiskScore_MissedMeetingBandsAreAdditive(t *testing.T) {
	d := mk("M-1", "Eddy", deal.StageMissedMeeting, daysAgo(40), func(d *deal.Deal) {
		d.MissedMeetingDate = ptr(daysAgo(6))
	})
	// stage 35, dwell 25, contact (6 days) 20, no next activity 10
	if got := RiskScore(d, testNow); got != 90 {
		t.Errorf("RiskScore = %d, want 90", got)
	}
	if LevelFor(90) != RiskCritical {
		t.Errorf("LevelFor(90) = %s", LevelFor(90))
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow}, {39, RiskLow}, {40, RiskMedium}, {59, RiskMedium},
		{60, RiskHigh}, {79, RiskHigh}, {80, RiskCritical}, {100, RiskCritical},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
