package kpi

import (
	"fmt"
	"math"
)

// Status grades a KPI against its target.
type Status string

const (
	StatusExcellent Status = "Excellent"
	StatusGood      Status = "Good"
	StatusPoor      Status = "Poor"
)

// goodBandRatio is how far a lower-is-better KPI may exceed its target and still be Good.
const goodBandRatio = 1.25

// Card is the presentation-ready view of one KPI.
type Card struct {
	Key                Key     `json:"key"`
	Label              string  `json:"label"`
	Value              int     `json:"value"`
	Target             int     `json:"target"`
	PercentageOfTarget float64 `json:"percentageOfTarget"`
	Status             Status  `json:"status"`
	ProgressText       string  `json:"progressText"`
	IsPercentage       bool    `json:"isPercentage"`
	LowerIsBetter      bool    `json:"lowerIsBetter"`
	Comparison         Delta   `json:"comparison"`
	Measure            Measure `json:"measure"`
}

// DisplayValue renders the value with its unit.
func (c Card) DisplayValue() string {
	if c.IsPercentage {
		return fmt.Sprintf("%d%%", c.Value)
	}
	return fmt.Sprintf("%d", c.Value)
}

// PercentageOfTarget is value/target as a percentage, capped at 100. A non-positive target
// counts as met.
func PercentageOfTarget(value, target int) float64 {
	if target <= 0 {
		return 100
	}
	return math.Min(float64(value)/float64(target)*100, 100)
}

// Grade returns the status for value against target.
func Grade(value, target int, lowerIsBetter bool) Status {
	if lowerIsBetter {
		switch {
		case value <= target:
			return StatusExcellent
		case float64(value) <= float64(target)*goodBandRatio:
			return StatusGood
		default:
			return StatusPoor
		}
	}
	pct := PercentageOfTarget(value, target)
	switch {
	case pct >= 100:
		return StatusExcellent
	case pct >= 75:
		return StatusGood
	default:
		return StatusPoor
	}
}

// ProgressText is the short caption under the progress bar.
func ProgressText(value, target int, lowerIsBetter bool) string {
	if !lowerIsBetter {
		return fmt.Sprintf("%d%%", RoundHalfUp(PercentageOfTarget(value, target)))
	}
	if value <= target {
		return "Target Met"
	}
	if target <= 0 {
		return "Over target"
	}
	over := RoundHalfUp(float64(value-target) / float64(target) * 100)
	return fmt.Sprintf("%d%% over target", over)
}

// NewCard assembles a card from a measured value, its goal and its comparison.
func NewCard(def Definition, m Measure, target int, cmp Delta) Card {
	return Card{
		Key:                def.Key,
		Label:              def.Label,
		Value:              m.Value,
		Target:             target,
		PercentageOfTarget: PercentageOfTarget(m.Value, target),
		Status:             Grade(m.Value, target, def.LowerIsBetter),
		ProgressText:       ProgressText(m.Value, target, def.LowerIsBetter),
		IsPercentage:       def.IsPercentage,
		LowerIsBetter:      def.LowerIsBetter,
		Comparison:         cmp,
		Measure:            m,
	}
}
