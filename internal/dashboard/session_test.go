package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"salespulse/internal/kpi"
	"salespulse/internal/sheets"
)

var fixedNow = time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)

type stubLoader struct {
	mu    sync.Mutex
	batch sheets.Batch
	err   error
	calls int
}

func (l *stubLoader) Load(context.Context) (sheets.Batch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.batch, l.err
}

func (l *stubLoader) set(b sheets.Batch, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.batch, l.err = b, err
}

type recordingObserver struct {
	mu   sync.Mutex
	errs []error
}

func (o *recordingObserver) ObserveRefresh(_ *kpi.Snapshot, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs = append(o.errs, err)
}

func newTestSession(l RowLoader, obs RefreshObserver) *Session {
	return NewSession(l, Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
		Roster:   []string{"Tom", "Eddy"},
		Observer: obs,
	})
}

func TestSession_RefreshPublishesSnapshot(t *testing.T) {
	loader := &stubLoader{batch: sheets.Batch{
		Source: "sheets",
		Rows: [][]string{
			{"1", "100", "Tom", "Closed Won", "A", "2024-06-01", "2024-06-10"},
			{"2", "50", "Eddy", "Qualified", "B", "2024-06-05"},
			{"3", "10", "Galina", "Limbo", "C", "2024-06-07"},
			{"", "10", "Tom", "Limbo", "D", "2024-06-07"},
			{"5", "10", "Tom", "Limbo", "E", "not-a-date"},
		},
	}}
	obs := &recordingObserver{}
	s := newTestSession(loader, obs)

	if s.Snapshot() != nil {
		t.Fatal("snapshot before first refresh")
	}
	if _, err := s.Report("all", ""); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Report before refresh err = %v", err)
	}

	snap, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(snap.Deals) != 3 || snap.Skipped != 2 || snap.ID == "" || snap.Source != "sheets" {
		t.Errorf("snapshot = %+v", snap)
	}
	if !snap.LoadedAt.Equal(fixedNow) {
		t.Errorf("LoadedAt = %v", snap.LoadedAt)
	}
	if len(obs.errs) != 1 || obs.errs[0] != nil {
		t.Errorf("observer saw %v", obs.errs)
	}

	if got := s.AccountExecutives(); len(got) != 2 || got[0] != "Eddy" || got[1] != "Tom" {
		t.Errorf("AccountExecutives = %v, want roster-restricted [Eddy Tom]", got)
	}

	r, err := s.Report("all", "2024-06")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	c, _ := r.Card(kpi.KeyClosedWon)
	if c.Value != 1 || c.Target != 30 {
		t.Errorf("closed won card = %+v", c)
	}
	if r.SnapshotID != snap.ID {
		t.Errorf("report snapshot = %s, want %s", r.SnapshotID, snap.ID)
	}
}

func TestSession_FailedRefreshKeepsPrevious(t *testing.T) {
	loader := &stubLoader{batch: sheets.Batch{Source: "sheets", Rows: [][]string{{"1", "1", "Tom", "Qualified", "A", "2024-06-01"}}}}
	obs := &recordingObserver{}
	s := newTestSession(loader, obs)

	first, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	loader.set(sheets.Batch{}, errors.New("boom"))
	got, err := s.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected refresh error")
	}
	if got != first || s.Snapshot() != first {
		t.Error("previous snapshot should remain published")
	}
	if len(obs.errs) != 2 || obs.errs[1] == nil {
		t.Errorf("observer saw %v", obs.errs)
	}
}

func TestSession_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	rowsA := [][]string{{"a1", "1", "Tom", "Qualified", "A", "2024-06-01"}}
	rowsB := [][]string{
		{"b1", "1", "Tom", "Qualified", "A", "2024-06-01"},
		{"b2", "1", "Tom", "Qualified", "B", "2024-06-01"},
	}
	loader := &stubLoader{batch: sheets.Batch{Rows: rowsA}}
	s := newTestSession(loader, nil)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.Snapshot()
				n := len(snap.Deals)
				if n != 1 && n != 2 {
					t.Errorf("torn snapshot with %d deals", n)
					return
				}
				if n == 2 && snap.Deals[0].ID != "b1" {
					t.Errorf("mixed snapshot: %s", snap.Deals[0].ID)
					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			loader.set(sheets.Batch{Rows: rowsB}, nil)
		} else {
			loader.set(sheets.Batch{Rows: rowsA}, nil)
		}
		if _, err := s.Refresh(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	close(stop)
	wg.Wait()
}

func TestSession_ActiveDealsSorted(t *testing.T) {
	loader := &stubLoader{batch: sheets.Batch{Rows: [][]string{
		{"1", "1", "Tom", "Qualified", "A", "2024-06-18"},
		{"2", "1", "Tom", "Inbound Lead", "B", "2024-06-02"},
		{"3", "1", "Eddy", "Qualified", "C", "2024-06-03"},
	}}}
	s := newTestSession(loader, nil)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ActiveDeals("Tom", "2024-06", kpi.SortRisk, kpi.SortDesc)
	if err != nil {
		t.Fatalf("ActiveDeals: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "2" {
		t.Errorf("rows = %+v", rows)
	}

	if _, err := s.ActiveDeals("Tom", "06-2024", kpi.SortNone, kpi.SortAsc); !errors.Is(err, kpi.ErrInvalidMonth) {
		t.Errorf("bad month err = %v", err)
	}
}

func TestRefresher_RunRefreshesImmediately(t *testing.T) {
	loader := &stubLoader{batch: sheets.Batch{Rows: [][]string{{"1", "1", "Tom", "Qualified", "A", "2024-06-01"}}}}
	s := newTestSession(loader, nil)
	r := NewRefresher(s, time.Hour)
	if r.Spec() != "@every 1h0m0s" {
		t.Errorf("Spec = %q", r.Spec())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for s.Snapshot() == nil {
		select {
		case <-deadline:
			cancel()
			t.Fatal("refresher did not publish a snapshot")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("refresher did not stop")
	}
}
