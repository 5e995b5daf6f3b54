package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"salespulse/internal/kpi"
)

var (
	accent      = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	subtle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	panel       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(cardWidth)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	statusExcellent = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	statusGood      = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	statusPoor      = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

const (
	cardWidth   = 30
	barWidth    = 20
	cardsPerRow = 3
)

func statusStyle(s kpi.Status) lipgloss.Style {
	switch s {
	case kpi.StatusExcellent:
		return statusExcellent
	case kpi.StatusGood:
		return statusGood
	default:
		return statusPoor
	}
}

func riskStyle(l kpi.RiskLevel) lipgloss.Style {
	switch l {
	case kpi.RiskCritical, kpi.RiskHigh:
		return statusPoor
	case kpi.RiskMedium:
		return statusGood
	default:
		return subtle
	}
}

// progressBar draws pct (0-100) as a fixed-width bar.
func progressBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func renderCard(c kpi.Card) string {
	target := fmt.Sprintf("%d", c.Target)
	if c.IsPercentage {
		target += "%"
	}
	lines := []string{
		headerStyle.Render(c.Label),
		fmt.Sprintf("%s / %s  %s", accent.Render(c.DisplayValue()), target, statusStyle(c.Status).Render(string(c.Status))),
		statusStyle(c.Status).Render(progressBar(c.PercentageOfTarget, barWidth)) + " " + c.ProgressText,
		subtle.Render("YoY " + c.Comparison.Text()),
	}
	return cardStyle.BorderForeground(statusStyle(c.Status).GetForeground()).Render(strings.Join(lines, "\n"))
}

func renderCards(cards []kpi.Card) string {
	var rows []string
	for i := 0; i < len(cards); i += cardsPerRow {
		end := min(i+cardsPerRow, len(cards))
		rendered := make([]string, 0, cardsPerRow)
		for _, c := range cards[i:end] {
			rendered = append(rendered, renderCard(c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
