package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"salespulse/internal/kpi"
	"salespulse/internal/sheets"
)

// Version is reported to MCP clients during initialization.
var Version = "0.1.0"

// Backend is the dashboard session the tools read from.
type Backend interface {
	Snapshot() *kpi.Snapshot
	Refresh(ctx context.Context) (*kpi.Snapshot, error)
	State(ae, month string) (kpi.DashboardState, error)
	Report(ae, month string) (kpi.Report, error)
	ActiveDeals(ae, month string, key kpi.SortKey, dir kpi.SortDirection) ([]kpi.DealRow, error)
	AccountExecutives() []string
}

// SheetInspector answers spreadsheet metadata questions. It is nil when no sheet is
// configured.
type SheetInspector interface {
	TestConnection(ctx context.Context) (*sheets.SpreadsheetInfo, error)
	GetSheetInfo(ctx context.Context) (*sheets.SpreadsheetInfo, error)
}

// Server exposes the dashboard as MCP tools.
type Server struct {
	backend             Backend
	sheet               SheetInspector
	enableMermaidCharts bool
}

// NewServer creates a new MCP server. sheet may be nil.
func NewServer(backend Backend, sheet SheetInspector, enableMermaidCharts bool) *Server {
	return &Server{backend: backend, sheet: sheet, enableMermaidCharts: enableMermaidCharts}
}

// Build returns the protocol server with every tool registered.
func (s *Server) Build() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "salespulse", Version: Version}, nil)
	s.registerTools(server)
	return server
}

// Serve runs the protocol over stdio until the client disconnects or ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", Version).Msg("Starting MCP server on stdio")
	if err := s.Build().Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// toolResult wraps handler output as indented JSON text, the way every tool answers.
func toolResult(data any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		log.Warn().Err(err).Msg("Tool call failed")
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}, nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatResult(data)}},
	}, nil, nil
}

func formatResult(data any) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("failed to encode result: %v", err)
	}
	return string(out)
}
