package visuals

import (
	"fmt"
	"math"
	"strings"

	"salespulse/internal/kpi"
)

// maxAgingBars caps the deal aging chart; xychart labels start overlapping past this.
const maxAgingBars = 20

// GenerateTargetChart creates a Mermaid xychart-beta of every card's progress toward target.
func GenerateTargetChart(cards []kpi.Card) string {
	if len(cards) == 0 {
		return ""
	}

	var labels []string
	var values []string
	var goal []string
	for _, c := range cards {
		labels = append(labels, quote(c.Label))
		values = append(values, fmt.Sprintf("%.0f", progress(c)))
		goal = append(goal, "100")
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Progress Toward Target\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"% of Target\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(goal, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// progress reads a lower-is-better card the way the progress bar does: met is 100, and
// overshoot eats into it.
func progress(c kpi.Card) float64 {
	if !c.LowerIsBetter {
		return c.PercentageOfTarget
	}
	if c.Target <= 0 {
		if c.Value <= 0 {
			return 100
		}
		return 0
	}
	if c.Value <= c.Target {
		return 100
	}
	return math.Max(0, 100-float64(c.Value-c.Target)/float64(c.Target)*100)
}

// GenerateComparisonChart creates a Mermaid xychart-beta with this year's and last year's
// value side by side. Cards without prior-year data are left out.
func GenerateComparisonChart(cards []kpi.Card) string {
	var labels []string
	var current []string
	var previous []string
	maxVal := 0
	for _, c := range cards {
		if !c.Comparison.Available {
			continue
		}
		labels = append(labels, quote(c.Label))
		current = append(current, fmt.Sprintf("%d", c.Comparison.Current))
		previous = append(previous, fmt.Sprintf("%d", c.Comparison.Previous))
		maxVal = max(maxVal, c.Comparison.Current, c.Comparison.Previous)
	}
	if len(labels) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Year over Year (bar: current, line: previous)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Value\" 0 --> %d\n", headroom(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(current, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(previous, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GeneratePipelinePie creates a Mermaid pie chart of deals per stage.
func GeneratePipelinePie(summary kpi.PipelineSummary) string {
	var sb strings.Builder
	total := 0
	for _, sc := range summary.ByStage {
		total += sc.Count
	}
	if total == 0 {
		return ""
	}

	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Pipeline by Stage\n")
	for _, sc := range summary.ByStage {
		if sc.Count == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s : %d\n", quote(string(sc.Stage)), sc.Count))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateRiskPie creates a Mermaid pie chart of active deals per risk level.
func GenerateRiskPie(rows []kpi.DealRow) string {
	if len(rows) == 0 {
		return ""
	}
	counts := make(map[kpi.RiskLevel]int)
	for _, r := range rows {
		counts[r.Risk.Level]++
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Deal Risk Distribution\n")
	for _, lvl := range []kpi.RiskLevel{kpi.RiskCritical, kpi.RiskHigh, kpi.RiskMedium, kpi.RiskLow} {
		if counts[lvl] == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s : %d\n", quote(string(lvl)), counts[lvl]))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateAgingChart creates a Mermaid xychart-beta of days in stage for the oldest active
// deals.
func GenerateAgingChart(rows []kpi.DealRow) string {
	if len(rows) == 0 {
		return ""
	}
	sorted := kpi.SortRows(rows, kpi.SortAge, kpi.SortDesc)
	if len(sorted) > maxAgingBars {
		sorted = sorted[:maxAgingBars]
	}

	var labels []string
	var values []string
	maxVal := 0
	for _, r := range sorted {
		labels = append(labels, quote(r.ID))
		values = append(values, fmt.Sprintf("%d", r.DaysInStage))
		maxVal = max(maxVal, r.DaysInStage)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Deal Aging (Top %d Active Deals)\"\n", len(sorted)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Days in Stage\" 0 --> %d\n", headroom(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

func headroom(maxVal int) int {
	return maxVal + int(math.Max(1, float64(maxVal)*0.2))
}

func quote(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "'") + "\""
}
