package visuals

import (
	"fmt"
	"strings"
	"testing"

	"salespulse/internal/kpi"
)

func TestGenerateTargetChart(t *testing.T) {
	cards := []kpi.Card{
		{Label: "Closed Won", Value: 15, Target: 30, PercentageOfTarget: 50},
		{Label: "Average Deal Age", Value: 45, Target: 30, LowerIsBetter: true},
		{Label: "Missed Meeting Rate", Value: 5, Target: 10, LowerIsBetter: true},
	}
	got := GenerateTargetChart(cards)
	for _, want := range []string{
		"```mermaid\nxychart-beta",
		`x-axis ["Closed Won", "Average Deal Age", "Missed Meeting Rate"]`,
		"bar [50, 50, 100]",
		"line [100, 100, 100]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("chart missing %q:\n%s", want, got)
		}
	}
	if GenerateTargetChart(nil) != "" {
		t.Error("empty cards should produce no chart")
	}
}

func TestGenerateComparisonChart_SkipsUnavailable(t *testing.T) {
	cards := []kpi.Card{
		{Label: "Closed Won", Comparison: kpi.Delta{Available: true, Current: 12, Previous: 10}},
		{Label: "Outbound Meetings", Comparison: kpi.Delta{Current: 0}},
	}
	got := GenerateComparisonChart(cards)
	if strings.Contains(got, "Outbound") {
		t.Errorf("unavailable comparison plotted:\n%s", got)
	}
	if !strings.Contains(got, "bar [12]") || !strings.Contains(got, "line [10]") {
		t.Errorf("chart = %s", got)
	}
	if GenerateComparisonChart(cards[1:]) != "" {
		t.Error("no comparable cards should produce no chart")
	}
}

func TestGeneratePipelinePie(t *testing.T) {
	summary := kpi.PipelineSummary{ByStage: []kpi.StageCount{
		{Stage: "Qualified", Count: 3},
		{Stage: "Limbo", Count: 0},
		{Stage: "Closed Won", Count: 2},
	}}
	got := GeneratePipelinePie(summary)
	if !strings.Contains(got, `"Qualified" : 3`) || !strings.Contains(got, `"Closed Won" : 2`) {
		t.Errorf("pie = %s", got)
	}
	if strings.Contains(got, "Limbo") {
		t.Error("empty slices should be omitted")
	}
	if GeneratePipelinePie(kpi.PipelineSummary{}) != "" {
		t.Error("empty pipeline should produce no chart")
	}
}

func TestGenerateRiskPie(t *testing.T) {
	rows := []kpi.DealRow{
		{Risk: kpi.RiskAssessment{Level: kpi.RiskCritical}},
		{Risk: kpi.RiskAssessment{Level: kpi.RiskLow}},
		{Risk: kpi.RiskAssessment{Level: kpi.RiskCritical}},
	}
	got := GenerateRiskPie(rows)
	if !strings.Contains(got, `"Critical" : 2`) || !strings.Contains(got, `"Low" : 1`) {
		t.Errorf("pie = %s", got)
	}
	if strings.Index(got, "Critical") > strings.Index(got, "Low") {
		t.Error("levels should be ordered from most to least severe")
	}
}

func TestGenerateAgingChart_CapsBars(t *testing.T) {
	var rows []kpi.DealRow
	for i := 0; i < 30; i++ {
		rows = append(rows, kpi.DealRow{ID: fmt.Sprintf("d%d", i), DaysInStage: i})
	}
	got := GenerateAgingChart(rows)
	if !strings.Contains(got, "Top 20 Active Deals") {
		t.Errorf("title = %s", got)
	}
	if !strings.Contains(got, `x-axis ["d29", "d28"`) {
		t.Errorf("oldest deals should come first:\n%s", got)
	}
	if strings.Contains(got, `"d9"`) {
		t.Error("chart should be capped at 20 bars")
	}
	if !strings.Contains(got, "0 --> 34") {
		t.Errorf("y-axis headroom wrong:\n%s", got)
	}
}
