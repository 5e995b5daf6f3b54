package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"salespulse/internal/kpi"
	"salespulse/internal/visuals"
)

const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

func validFormat(f string) error {
	switch f {
	case formatText, formatJSON, formatMarkdown:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want text, json or markdown)", f)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func targetText(c kpi.Card) string {
	if c.IsPercentage {
		return strconv.Itoa(c.Target) + "%"
	}
	return strconv.Itoa(c.Target)
}

func cardsTable(cards []kpi.Card) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KPI", "Value", "Target", "Status", "Progress", "YoY")
	for _, c := range cards {
		t.Row(c.Label, c.DisplayValue(), targetText(c), string(c.Status), c.ProgressText, c.Comparison.Text())
	}
	return t
}

func dealsTable(rows []kpi.DealRow) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name", "Stage", "Owner", "Created", "Days in stage", "Value", "Risk")
	for _, r := range rows {
		t.Row(r.ID, r.Name, string(r.Stage), r.Owner, r.CreateDate.Format("2006-01-02"),
			strconv.Itoa(r.DaysInStage), r.Value.StringFixed(2), r.RiskLabel)
	}
	return t
}

func reportHeader(r kpi.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "KPIs for %s · %s (compared with %s to %s)\n", r.Filter, r.Month,
		r.Previous.Start.Format("2006-01-02"), r.Previous.End.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Source: %s · loaded %s\n", r.Source, r.LoadedAt.Format("2006-01-02 15:04"))
	if r.Diagnostic != "" {
		fmt.Fprintf(&sb, "Warning: %s\n", r.Diagnostic)
	}
	return sb.String()
}

func pipelineText(p kpi.PipelineSummary) string {
	var parts []string
	for _, sc := range p.ByStage {
		if sc.Count > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", sc.Stage, sc.Count))
		}
	}
	return fmt.Sprintf("Pipeline: %d open ($%s) · won $%s · %s",
		p.OpenDeals, p.OpenValue.StringFixed(0), p.ClosedWonValue.StringFixed(0), strings.Join(parts, ", "))
}

func writeReport(w io.Writer, r kpi.Report, format string, withDeals bool) error {
	switch format {
	case formatJSON:
		return writeJSON(w, r)
	case formatMarkdown:
		return writeMarkdownReport(w, r, withDeals)
	}
	fmt.Fprint(w, reportHeader(r))
	fmt.Fprintln(w, cardsTable(r.Cards).String())
	fmt.Fprintln(w, pipelineText(r.Pipeline))
	if withDeals {
		fmt.Fprintln(w, dealsTable(r.Deals).String())
	}
	return nil
}

func writeMarkdownReport(w io.Writer, r kpi.Report, withDeals bool) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Sales KPIs: %s, %s\n\n", r.Filter, r.Month)
	if r.Diagnostic != "" {
		fmt.Fprintf(&sb, "> %s\n\n", r.Diagnostic)
	}
	sb.WriteString("| KPI | Value | Target | Status | Progress | YoY |\n|---|---|---|---|---|---|\n")
	for _, c := range r.Cards {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
			c.Label, c.DisplayValue(), targetText(c), c.Status, c.ProgressText, c.Comparison.Text())
	}
	sb.WriteString("\n")
	for _, chart := range []string{
		visuals.GenerateTargetChart(r.Cards),
		visuals.GenerateComparisonChart(r.Cards),
		visuals.GeneratePipelinePie(r.Pipeline),
	} {
		if chart != "" {
			sb.WriteString(chart + "\n\n")
		}
	}
	if withDeals && len(r.Deals) > 0 {
		sb.WriteString(visuals.GenerateRiskPie(r.Deals) + "\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
