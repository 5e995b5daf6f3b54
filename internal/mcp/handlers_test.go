package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"salespulse/internal/dashboard"
	"salespulse/internal/kpi"
	"salespulse/internal/sheets"
)

var fixedNow = time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)

type stubLoader struct {
	rows [][]string
	err  error
}

func (l *stubLoader) Load(context.Context) (sheets.Batch, error) {
	if l.err != nil {
		return sheets.Batch{}, l.err
	}
	return sheets.Batch{Rows: l.rows, Source: "sheets", FetchedAt: fixedNow}, nil
}

type stubSheet struct {
	checked bool
}

func (s *stubSheet) TestConnection(context.Context) (*sheets.SpreadsheetInfo, error) {
	s.checked = true
	return &sheets.SpreadsheetInfo{Title: "Pipeline"}, nil
}

func (s *stubSheet) GetSheetInfo(context.Context) (*sheets.SpreadsheetInfo, error) {
	return &sheets.SpreadsheetInfo{Title: "Pipeline (cached)"}, nil
}

func newTestBackend(t *testing.T, loader *stubLoader, refresh bool) *dashboard.Session {
	t.Helper()
	s := dashboard.NewSession(loader, dashboard.Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	})
	if refresh {
		if _, err := s.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}
	return s
}

func sampleLoader() *stubLoader {
	return &stubLoader{rows: [][]string{
		{"1", "100", "Tom", "Closed Won", "Acme", "2024-06-01", "2024-06-10"},
		{"2", "50", "Eddy", "Qualified", "Beta", "2024-06-05"},
		{"3", "75", "Tom", "Missed Meeting", "Gamma", "2024-05-01", "", "", "", "2024-05-02"},
	}}
}

func TestHandleGetKPIReport(t *testing.T) {
	s := NewServer(newTestBackend(t, sampleLoader(), true), nil, true)

	res, err := s.handleGetKPIReport(SelectionArgs{AE: "Tom", Month: "2024-06"})
	if err != nil {
		t.Fatalf("handleGetKPIReport: %v", err)
	}
	m := res.(map[string]any)
	if m["filter"] != "Tom" || m["month"] != "2024-06" {
		t.Errorf("selection = %v %v", m["filter"], m["month"])
	}
	cards := m["cards"].([]kpi.Card)
	if len(cards) != len(kpi.Definitions) {
		t.Errorf("cards = %d", len(cards))
	}
	if _, ok := m["visual_target_progress"]; !ok {
		t.Error("mermaid chart missing with charts enabled")
	}

	if _, err := s.handleGetKPIReport(SelectionArgs{Month: "2024/06"}); !errors.Is(err, kpi.ErrInvalidMonth) {
		t.Errorf("bad month err = %v", err)
	}
}

func TestHandleGetKPIReport_NoCharts(t *testing.T) {
	s := NewServer(newTestBackend(t, sampleLoader(), true), nil, false)
	res, err := s.handleGetKPIReport(SelectionArgs{})
	if err != nil {
		t.Fatal(err)
	}
	for k := range res.(map[string]any) {
		if strings.HasPrefix(k, "visual_") {
			t.Errorf("unexpected chart %s with charts disabled", k)
		}
	}
}

func TestHandleListActiveDeals(t *testing.T) {
	s := NewServer(newTestBackend(t, sampleLoader(), true), nil, false)

	res, err := s.handleListActiveDeals(DealsArgs{Month: "2024-05", Sort: "risk", Dir: "desc"})
	if err != nil {
		t.Fatalf("handleListActiveDeals: %v", err)
	}
	m := res.(map[string]any)
	rows := m["deals"].([]kpi.DealRow)
	if len(rows) != 1 || rows[0].ID != "3" {
		t.Fatalf("rows = %+v", rows)
	}
	if m["at_risk"] != 1 {
		t.Errorf("at_risk = %v, missed meeting for 49 days should be critical", m["at_risk"])
	}

	if _, err := s.handleListActiveDeals(DealsArgs{Sort: "value"}); err == nil {
		t.Error("expected error for unknown sort column")
	}
}

func TestHandleRefreshData(t *testing.T) {
	loader := sampleLoader()
	s := NewServer(newTestBackend(t, loader, false), nil, false)

	if _, err := s.handleListAccountExecutives(); err == nil {
		t.Error("expected error before any data is loaded")
	}

	loader.err = errors.New("offline")
	if _, err := s.handleRefreshData(context.Background()); err == nil {
		t.Error("expected error when the first refresh fails")
	}

	loader.err = nil
	res, err := s.handleRefreshData(context.Background())
	if err != nil {
		t.Fatalf("handleRefreshData: %v", err)
	}
	if m := res.(map[string]any); m["refreshed"] != true || m["deals"] != 3 {
		t.Errorf("res = %v", m)
	}

	loader.err = errors.New("offline")
	res, err = s.handleRefreshData(context.Background())
	if err != nil {
		t.Fatalf("a failed refresh with earlier data should not error: %v", err)
	}
	if m := res.(map[string]any); m["refreshed"] != false || m["_data_quality"] == nil {
		t.Errorf("res = %v", m)
	}

	aes, err := s.handleListAccountExecutives()
	if err != nil {
		t.Fatal(err)
	}
	if got := aes.(map[string]any)["account_executives"].([]string); strings.Join(got, ",") != "Eddy,Tom" {
		t.Errorf("aes = %v", got)
	}
}

func TestHandleGetSheetInfo(t *testing.T) {
	sheet := &stubSheet{}
	s := NewServer(newTestBackend(t, sampleLoader(), false), sheet, false)

	res, err := s.handleGetSheetInfo(context.Background(), SheetInfoArgs{})
	if err != nil || res.(*sheets.SpreadsheetInfo).Title != "Pipeline (cached)" || sheet.checked {
		t.Errorf("cached info = %v, %v", res, err)
	}
	if _, err := s.handleGetSheetInfo(context.Background(), SheetInfoArgs{Check: true}); err != nil || !sheet.checked {
		t.Errorf("check err = %v, checked = %v", err, sheet.checked)
	}

	none := NewServer(newTestBackend(t, sampleLoader(), false), nil, false)
	if _, err := none.handleGetSheetInfo(context.Background(), SheetInfoArgs{}); err == nil {
		t.Error("expected error without a sheet")
	}
}

func TestServer_ToolsOverInMemoryTransport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := NewServer(newTestBackend(t, sampleLoader(), true), nil, false)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.Build().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer cs.Close()

	tools, err := cs.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{"get_kpi_report", "list_active_deals", "list_account_executives", "refresh_data"} {
		if !strings.Contains(strings.Join(names, ","), want) {
			t.Errorf("tool %s not registered (have %v)", want, names)
		}
	}
	if strings.Contains(strings.Join(names, ","), "get_sheet_info") {
		t.Error("get_sheet_info should only be registered with a sheet")
	}

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_kpi_report",
		Arguments: map[string]any{"ae": "Tom", "month": "2024-06"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError || len(res.Content) == 0 {
		t.Fatalf("result = %+v", res)
	}
	text := res.Content[0].(*mcp.TextContent).Text
	var body map[string]any
	if err := json.Unmarshal([]byte(text), &body); err != nil {
		t.Fatalf("tool output is not JSON: %v", err)
	}
	if body["filter"] != "Tom" {
		t.Errorf("filter = %v", body["filter"])
	}

	bad, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_kpi_report",
		Arguments: map[string]any{"month": "June"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !bad.IsError {
		t.Error("invalid month should produce an error result")
	}
}
