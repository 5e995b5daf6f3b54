package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SelectionArgs picks the AE and month a tool reports on.
type SelectionArgs struct {
	AE    string `json:"ae,omitempty" jsonschema:"account executive name, or 'all' (default) for the whole team"`
	Month string `json:"month,omitempty" jsonschema:"calendar month as YYYY-MM; defaults to the current month"`
}

// DealsArgs adds table sorting to a selection.
type DealsArgs struct {
	AE    string `json:"ae,omitempty" jsonschema:"account executive name, or 'all' (default) for the whole team"`
	Month string `json:"month,omitempty" jsonschema:"calendar month as YYYY-MM; defaults to the current month"`
	Sort  string `json:"sort,omitempty" jsonschema:"sort column: stage, risk or age (days in stage); unsorted when empty"`
	Dir   string `json:"dir,omitempty" jsonschema:"sort direction: asc (default) or desc"`
}

// NoArgs is the input of tools without parameters.
type NoArgs struct{}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_kpi_report",
		Description: "Compute the sales KPI report for one month: closed won, meeting to close rate, missed meetings, " +
			"limbo over 14 days, deals without next step, average deal age, task coverage and the outbound placeholders. " +
			"Each card carries its target, status, progress and the year-over-year delta.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in SelectionArgs) (*mcp.CallToolResult, any, error) {
		return toolResult(s.handleGetKPIReport(in))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_active_deals",
		Description: "List the deals created in the selected month with days in stage and risk score, optionally sorted.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in DealsArgs) (*mcp.CallToolResult, any, error) {
		return toolResult(s.handleListActiveDeals(in))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_account_executives",
		Description: "List the account executives present in the loaded data.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in NoArgs) (*mcp.CallToolResult, any, error) {
		return toolResult(s.handleListAccountExecutives())
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refresh_data",
		Description: "Reload deals from the configured source. On failure the previously loaded data stays in use.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in NoArgs) (*mcp.CallToolResult, any, error) {
		return toolResult(s.handleRefreshData(ctx))
	})

	if s.sheet != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "get_sheet_info",
			Description: "Show the connected spreadsheet's title and tabs. Set check=true to bypass the metadata cache.",
		}, func(ctx context.Context, req *mcp.CallToolRequest, in SheetInfoArgs) (*mcp.CallToolResult, any, error) {
			return toolResult(s.handleGetSheetInfo(ctx, in))
		})
	}
}
