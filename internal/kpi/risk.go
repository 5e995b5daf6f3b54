package kpi

import (
	"strconv"
	"time"

	"salespulse/internal/deal"
)

// RiskLevel buckets a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// LevelFor maps a score onto its level.
func LevelFor(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// band awards Points once the measured days exceed Over. Bands are checked in order and
// only the first match of a table counts.
type band struct {
	Over   int
	Points int
}

type bandTable []band

func (t bandTable) score(days int) int {
	for _, b := range t {
		if days > b.Over {
			return b.Points
		}
	}
	return 0
}

var (
	earlyStageBands   = bandTable{{12, 35}, {9, 25}, {6, 10}}
	meetingStageBands = bandTable{{14, 35}, {10, 25}, {7, 10}}
	limboStageBands   = bandTable{{7, 35}, {5, 25}, {3, 10}}
	missedStageBands  = bandTable{{5, 35}, {3, 25}, {1, 10}}

	// Limbo and Missed Meeting carry a second table on top of the stage table.
	limboDwellBands  = bandTable{{10, 25}, {6, 20}, {3, 10}}
	missedDwellBands = bandTable{{5, 25}, {3, 20}, {1, 10}}

	contactBands = bandTable{{8, 30}, {5, 20}, {3, 10}}
)

const missingNextActivityPoints = 10

// RiskFactor is one additive contribution to a deal's risk score.
type RiskFactor struct {
	Name   string `json:"name"`
	Days   int    `json:"days,omitempty"`
	Points int    `json:"points"`
}

// RiskAssessment is the scored risk of a single deal.
type RiskAssessment struct {
	Score     int          `json:"score"`
	Level     RiskLevel    `json:"level"`
	Breakdown []RiskFactor `json:"breakdown,omitempty"`
}

// Label renders the assessment as "Level (score)".
func (a RiskAssessment) Label() string {
	return string(a.Level) + " (" + strconv.Itoa(a.Score) + ")"
}

// AssessRisk scores d at now. Closed deals carry no risk.
func AssessRisk(d deal.Deal, now time.Time) RiskAssessment {
	if d.IsClosed() {
		return RiskAssessment{Score: 0, Level: RiskLow}
	}

	inStage := DaysBetween(d.StageDate, now)
	sinceContact := DaysBetween(d.LastContactDate, now)

	var factors []RiskFactor
	add := func(name string, days, points int) {
		if points > 0 {
			factors = append(factors, RiskFactor{Name: name, Days: days, Points: points})
		}
	}

	switch d.Stage {
	case deal.StageInboundLead, deal.StageColdAppInstall:
		add("days in stage", inStage, earlyStageBands.score(inStage))
	case deal.StageQualified, deal.StageMeetingBooked:
		add("days in stage", inStage, meetingStageBands.score(inStage))
	case deal.StageLimbo:
		add("days in stage", inStage, limboStageBands.score(inStage))
	case deal.StageMissedMeeting:
		add("days in stage", inStage, missedStageBands.score(inStage))
	}

	add("days since contact", sinceContact, contactBands.score(sinceContact))

	switch d.Stage {
	case deal.StageLimbo:
		add("limbo dwell", inStage, limboDwellBands.score(inStage))
	case deal.StageMissedMeeting:
		add("missed meeting dwell", inStage, missedDwellBands.score(inStage))
	}

	if d.NextActivityDate == nil {
		add("no next activity", 0, missingNextActivityPoints)
	}

	score := 0
	for _, f := range factors {
		score += f.Points
	}
	return RiskAssessment{Score: score, Level: LevelFor(score), Breakdown: factors}
}

// RiskScore is the additive risk score of d at now.
func RiskScore(d deal.Deal, now time.Time) int {
	return AssessRisk(d, now).Score
}
