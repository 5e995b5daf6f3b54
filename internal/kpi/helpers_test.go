package kpi

import (
	"time"

	"salespulse/internal/deal"
)

var testNow = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func daysAgo(n int) time.Time {
	return time.Date(testNow.Year(), testNow.Month(), testNow.Day()-n, 0, 0, 0, 0, time.UTC)
}

// mk builds a resolved deal; mutate customises the raw fields first.
func mk(id, owner string, stage deal.Stage, created time.Time, mutate func(*deal.Deal)) deal.Deal {
	d := deal.Deal{
		ID:         id,
		Name:       "Deal " + id,
		TeamMember: owner,
		Stage:      stage,
		CreateDate: created,
		TaskStatus: deal.TaskCompleted,
	}
	if mutate != nil {
		mutate(&d)
	}
	return d.Resolve()
}

func juneInput(deals ...deal.Deal) Input {
	return Input{Deals: deals, Filter: AllAEs, Range: DateRange{Start: day(2024, 6, 1), End: day(2024, 6, 30)}, Now: testNow}
}
