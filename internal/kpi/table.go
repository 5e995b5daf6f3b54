package kpi

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salespulse/internal/deal"
)

// SortKey selects the active-deals table column to order by.
type SortKey string

const (
	SortNone  SortKey = ""
	SortStage SortKey = "stage"
	SortRisk  SortKey = "risk"
	SortAge   SortKey = "age"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Toggle flips the direction. An unset direction becomes ascending.
func (d SortDirection) Toggle() SortDirection {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// ParseSort validates the sort query parameters.
func ParseSort(key, dir string) (SortKey, SortDirection, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(key)))
	switch k {
	case SortNone, SortStage, SortRisk, SortAge:
	default:
		return "", "", fmt.Errorf("unknown sort column %q", key)
	}
	d := SortDirection(strings.ToLower(strings.TrimSpace(dir)))
	switch d {
	case "":
		d = SortAsc
	case SortAsc, SortDesc:
	default:
		return "", "", fmt.Errorf("unknown sort direction %q", dir)
	}
	return k, d, nil
}

// DealRow is one line of the active-deals table.
type DealRow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Stage       deal.Stage      `json:"stage"`
	Owner       string          `json:"owner"`
	CreateDate  time.Time       `json:"createDate"`
	DaysInStage int             `json:"daysInStage"`
	Value       decimal.Decimal `json:"value"`
	Risk        RiskAssessment  `json:"risk"`
	RiskLabel   string          `json:"riskLabel"`
}

// ActiveDeals builds the table for the deals owned by filter and created inside rng.
func ActiveDeals(deals []deal.Deal, filter string, rng DateRange, now time.Time) []DealRow {
	selected := CreatedWithin(ByAE(deals, filter), rng)
	rows := make([]DealRow, 0, len(selected))
	for _, d := range selected {
		risk := AssessRisk(d, now)
		rows = append(rows, DealRow{
			ID:          d.ID,
			Name:        d.Name,
			Stage:       d.Stage,
			Owner:       d.TeamMember,
			CreateDate:  d.CreateDate,
			DaysInStage: DaysBetween(d.StageDate, now),
			Value:       d.Value,
			Risk:        risk,
			RiskLabel:   risk.Label(),
		})
	}
	return rows
}

// SortRows returns a sorted copy of rows. Ties keep their input order.
func SortRows(rows []DealRow, key SortKey, dir SortDirection) []DealRow {
	out := slices.Clone(rows)
	if key == SortNone {
		return out
	}
	compare := func(a, b DealRow) int {
		switch key {
		case SortStage:
			return cmp.Compare(a.Stage, b.Stage)
		case SortRisk:
			return cmp.Compare(a.Risk.Score, b.Risk.Score)
		case SortAge:
			return cmp.Compare(a.DaysInStage, b.DaysInStage)
		}
		return 0
	}
	slices.SortStableFunc(out, func(a, b DealRow) int {
		if dir == SortDesc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}
