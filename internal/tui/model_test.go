package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"salespulse/internal/dashboard"
	"salespulse/internal/kpi"
	"salespulse/internal/sheets"
)

var fixedNow = time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)

type stubLoader struct {
	mu   sync.Mutex
	rows [][]string
	err  error
}

func (l *stubLoader) Load(context.Context) (sheets.Batch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return sheets.Batch{}, l.err
	}
	return sheets.Batch{Rows: l.rows, Source: "sheets", FetchedAt: fixedNow}, nil
}

func newTestModel(t *testing.T) (Model, *stubLoader) {
	t.Helper()
	loader := &stubLoader{rows: [][]string{
		{"1", "100", "Tom", "Closed Won", "Acme", "2024-06-01", "2024-06-10"},
		{"2", "50", "Eddy", "Qualified", "Beta", "2024-06-05"},
		{"3", "75", "Tom", "Limbo", "Gamma", "2024-06-02", "", "", "", "", "2024-06-03"},
		{"4", "20", "Tom", "Qualified", "Delta", "2024-05-20"},
	}}
	s := dashboard.NewSession(loader, dashboard.Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	})
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	return New(context.Background(), s), loader
}

func press(m Model, k string) Model {
	var msg tea.KeyMsg
	switch k {
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestShiftMonth(t *testing.T) {
	tests := []struct {
		in    string
		delta int
		want  string
	}{
		{"2024-06", -1, "2024-05"},
		{"2024-01", -1, "2023-12"},
		{"2024-12", 1, "2025-01"},
		{"garbage", 1, "garbage"},
	}
	for _, tt := range tests {
		if got := shiftMonth(tt.in, tt.delta); got != tt.want {
			t.Errorf("shiftMonth(%q, %d) = %q, want %q", tt.in, tt.delta, got, tt.want)
		}
	}
}

func TestNextSortKey_Cycles(t *testing.T) {
	k := kpi.SortNone
	var seen []string
	for i := 0; i < 4; i++ {
		k = nextSortKey(k)
		seen = append(seen, string(k))
	}
	if strings.Join(seen, ",") != "stage,risk,age," {
		t.Errorf("cycle = %v", seen)
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(50, 10); got != "█████░░░░░" {
		t.Errorf("50%% bar = %q", got)
	}
	if got := progressBar(150, 4); got != "████" {
		t.Errorf("overflow bar = %q", got)
	}
	if got := progressBar(-5, 4); got != "░░░░" {
		t.Errorf("negative bar = %q", got)
	}
}

func TestModel_SelectionKeys(t *testing.T) {
	m, _ := newTestModel(t)
	if m.Filter() != kpi.AllAEs || m.month != "2024-06" {
		t.Fatalf("initial selection = %s %s", m.Filter(), m.month)
	}
	if got := len(m.table.Rows()); got != 3 {
		t.Errorf("june rows = %d, want 3", got)
	}

	m = press(m, "a")
	if m.Filter() != "Eddy" {
		t.Errorf("first AE = %s", m.Filter())
	}
	m = press(m, "a")
	m = press(m, "a")
	if m.Filter() != kpi.AllAEs {
		t.Errorf("AE cycle should wrap to all, got %s", m.Filter())
	}

	m = press(m, "left")
	if m.month != "2024-05" || len(m.table.Rows()) != 1 {
		t.Errorf("may selection = %s with %d rows", m.month, len(m.table.Rows()))
	}
	m = press(m, "right")

	m = press(m, "s")
	m = press(m, "s")
	m = press(m, "d")
	if m.sortKey != kpi.SortRisk || m.sortDir != kpi.SortDesc {
		t.Errorf("sort = %s %s", m.sortKey, m.sortDir)
	}
	if rows := m.table.Rows(); rows[0][0] != "3" {
		t.Errorf("riskiest deal should lead, got %v", rows[0])
	}

	view := m.View()
	for _, want := range []string{"Sales KPI Dashboard", "Closed Won", "risk desc", "Gamma"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_RefreshFailureShowsError(t *testing.T) {
	m, loader := newTestModel(t)
	loader.mu.Lock()
	loader.err = errors.New("sheet offline")
	loader.mu.Unlock()

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(Model)
	if !m.refreshing || cmd == nil {
		t.Fatal("refresh should start")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.refreshing || m.err == nil {
		t.Errorf("refreshing = %v err = %v", m.refreshing, m.err)
	}
	if len(m.report.Cards) == 0 {
		t.Error("previous report should still be shown")
	}
}
