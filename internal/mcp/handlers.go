package mcp

import (
	"context"
	"fmt"

	"salespulse/internal/kpi"
	"salespulse/internal/visuals"
)

// SheetInfoArgs controls get_sheet_info.
type SheetInfoArgs struct {
	Check bool `json:"check,omitempty" jsonschema:"when true, query the spreadsheet directly instead of the cached metadata"`
}

func (s *Server) handleGetKPIReport(in SelectionArgs) (any, error) {
	report, err := s.backend.Report(in.AE, in.Month)
	if err != nil {
		return nil, err
	}

	res := map[string]any{
		"filter":         report.Filter,
		"month":          report.Month,
		"range":          report.Range,
		"previous_range": report.Previous,
		"cards":          report.Cards,
		"pipeline":       report.Pipeline,
		"trace":          report.Trace,
		"source":         report.Source,
		"loaded_at":      report.LoadedAt,
		"_guidance": []string{
			"Closed Won is counted by close date; every other date-scoped KPI uses deals created in the month.",
			"Lower-is-better KPIs (missed meetings, limbo, no next step, deal age) are Excellent at or under target and Good up to 25% over.",
			"Comparison is against the same calendar window one year earlier; 'No data' means the prior year value was zero.",
			"Outbound KPIs are placeholders and always report 0 until an outbound data source exists.",
		},
	}
	if report.Diagnostic != "" {
		res["_data_quality"] = []string{report.Diagnostic}
	}

	if s.enableMermaidCharts {
		res["visual_target_progress"] = visuals.GenerateTargetChart(report.Cards)
		if chart := visuals.GenerateComparisonChart(report.Cards); chart != "" {
			res["visual_year_over_year"] = chart
		}
		if chart := visuals.GeneratePipelinePie(report.Pipeline); chart != "" {
			res["visual_pipeline_pie"] = chart
		}
	}
	return res, nil
}

func (s *Server) handleListActiveDeals(in DealsArgs) (any, error) {
	key, dir, err := kpi.ParseSort(in.Sort, in.Dir)
	if err != nil {
		return nil, err
	}
	state, err := s.backend.State(in.AE, in.Month)
	if err != nil {
		return nil, err
	}
	month := state.Range.Month()
	rows, err := s.backend.ActiveDeals(state.Filter, month, key, dir)
	if err != nil {
		return nil, err
	}

	atRisk := 0
	for _, r := range rows {
		if r.Risk.Level == kpi.RiskHigh || r.Risk.Level == kpi.RiskCritical {
			atRisk++
		}
	}

	res := map[string]any{
		"filter":  state.Filter,
		"month":   month,
		"count":   len(rows),
		"at_risk": atRisk,
		"deals":   rows,
		"_guidance": []string{
			"Risk combines stage dwell time, days since last contact and a missing next activity; closed deals are always Low (0).",
			"Limbo and Missed Meeting deals accrue both a stage band and a dwell band, so they score higher than other stages with the same age.",
		},
	}
	if s.enableMermaidCharts && len(rows) > 0 {
		res["visual_risk_pie"] = visuals.GenerateRiskPie(rows)
		res["visual_deal_aging"] = visuals.GenerateAgingChart(rows)
	}
	return res, nil
}

func (s *Server) handleListAccountExecutives() (any, error) {
	snap := s.backend.Snapshot()
	if snap == nil {
		return nil, fmt.Errorf("no data loaded yet; call refresh_data first")
	}
	aes := s.backend.AccountExecutives()
	if aes == nil {
		aes = []string{}
	}
	return map[string]any{
		"account_executives": aes,
		"default_filter":     kpi.AllAEs,
	}, nil
}

func (s *Server) handleRefreshData(ctx context.Context) (any, error) {
	snap, err := s.backend.Refresh(ctx)
	if err != nil && snap == nil {
		return nil, fmt.Errorf("refresh failed and no earlier data is loaded: %w", err)
	}

	res := map[string]any{
		"snapshot_id": snap.ID,
		"source":      snap.Source,
		"deals":       snap.DealCount(),
		"skipped":     snap.Skipped,
		"loaded_at":   snap.LoadedAt,
	}
	var quality []string
	if snap.Diagnostic != "" {
		quality = append(quality, snap.Diagnostic)
	}
	if err != nil {
		quality = append(quality, fmt.Sprintf("refresh failed, still serving snapshot %s: %v", snap.ID, err))
		res["refreshed"] = false
	} else {
		res["refreshed"] = true
	}
	if len(quality) > 0 {
		res["_data_quality"] = quality
	}
	return res, nil
}

func (s *Server) handleGetSheetInfo(ctx context.Context, in SheetInfoArgs) (any, error) {
	if s.sheet == nil {
		return nil, fmt.Errorf("no spreadsheet configured")
	}
	if in.Check {
		return s.sheet.TestConnection(ctx)
	}
	return s.sheet.GetSheetInfo(ctx)
}
