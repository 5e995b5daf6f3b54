package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{APIKey: "test-key", SheetID: "sheet-1", BaseURL: srv.URL, HeaderRows: 3})
	return c, &hits
}

func TestClient_FetchRowsSkipsHeader(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/v4/spreadsheets/sheet-1/values/A:AA") {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Sheet1!A1:AA5","majorDimension":"ROWS","values":[
			["Report"],[""],["Record ID","Amount"],
			["101", 1200, "Tom", "Limbo", "Acme", "2024-06-01"],
			["102", 99.5, "Eddy", "Qualified", "Beta", "2024-06-02"]]}`))
	})

	rows, err := c.FetchRows(context.Background())
	if err != nil {
		t.Fatalf("FetchRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0][0] != "101" || rows[0][1] != "1200" || rows[1][1] != "99.5" {
		t.Errorf("rows = %v", rows)
	}
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusForbidden, "authentication failed"},
		{http.StatusNotFound, "not found"},
		{http.StatusTooManyRequests, "rate limit"},
		{http.StatusInternalServerError, "status 500"},
	}
	for _, tt := range tests {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		_, err := c.ReadValues(context.Background(), "A:AA")
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("status %d: err = %v, want %q", tt.status, err, tt.want)
		}
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(Config{})
	if _, err := c.FetchRows(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
	if _, err := c.TestConnection(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("TestConnection err = %v, want ErrNotConfigured", err)
	}
}

func TestClient_GetSheetInfoIsCached(t *testing.T) {
	c, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","properties":{"title":"KPI Report","timeZone":"Europe/Berlin"},
			"sheets":[{"properties":{"sheetId":0,"title":"Deals","index":0,"gridProperties":{"rowCount":1000,"columnCount":27}}}]}`))
	})

	for i := 0; i < 3; i++ {
		info, err := c.GetSheetInfo(context.Background())
		if err != nil {
			t.Fatalf("GetSheetInfo: %v", err)
		}
		if info.Title != "KPI Report" || len(info.Sheets) != 1 || info.Sheets[0].ColumnCount != 27 {
			t.Errorf("info = %+v", info)
		}
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}

	if _, err := c.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection: %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 2 {
		t.Errorf("TestConnection should bypass the cache, hits = %d", got)
	}
}

func TestClient_WriteDataIsUnsupported(t *testing.T) {
	c := NewClient(Config{APIKey: "k", SheetID: "s"})
	if c.WriteData(context.Background(), "A1", [][]string{{"x"}}) {
		t.Error("WriteData should report false")
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{float64(42), "42"},
		{1.5, "1.5"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := cellString(tt.in); got != tt.want {
			t.Errorf("cellString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
