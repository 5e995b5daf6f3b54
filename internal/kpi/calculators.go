package kpi

import (
	"math"
	"time"

	"salespulse/internal/deal"
)

// meetingCloseWindowDays and limboStuckDays are the KPI thresholds, both in whole days.
const (
	meetingCloseWindowDays = 14
	limboStuckDays         = 14
)

// Input is everything a calculator may look at.
type Input struct {
	Deals  []deal.Deal
	Filter string
	Range  DateRange
	Now    time.Time
}

// WithRange returns a copy of the input pointed at rng.
func (in Input) WithRange(rng DateRange) Input {
	in.Range = rng
	return in
}

// Measure is a KPI value with the counts it was derived from. Counts are zero for KPIs that
// are not ratios.
type Measure struct {
	Value       int `json:"value"`
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// Calculator derives one KPI. Implementations are pure and never panic.
type Calculator func(in Input) Measure

// RoundHalfUp rounds x to the nearest integer, halves going up.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func ratio(num, den int) Measure {
	if den == 0 {
		return Measure{Numerator: num}
	}
	return Measure{
		Value:       RoundHalfUp(float64(num) / float64(den) * 100),
		Numerator:   num,
		Denominator: den,
	}
}

// ClosedWonPerMonth counts Closed Won deals whose close date falls in the range.
func ClosedWonPerMonth(in Input) Measure {
	n := 0
	for _, d := range ByAE(in.Deals, in.Filter) {
		if d.Stage == deal.StageClosedWon && in.Range.ContainsPtr(d.CloseDate) {
			n++
		}
	}
	return Measure{Value: n, Numerator: n}
}

// MeetingClosedRate is the share of deals leaving Meeting Booked in the range that closed
// won within 14 days of leaving.
func MeetingClosedRate(in Input) Measure {
	var exited, closed int
	for _, d := range ByAE(in.Deals, in.Filter) {
		if !in.Range.ContainsPtr(d.MeetingBookedExitDate) {
			continue
		}
		exited++
		if d.Stage != deal.StageClosedWon || d.CloseDate == nil {
			continue
		}
		if DaysBetween(*d.MeetingBookedExitDate, *d.CloseDate) <= meetingCloseWindowDays {
			closed++
		}
	}
	return ratio(closed, exited)
}

// MissedMeetingRate is the share of deals booked in the range that also missed their
// meeting in the range.
func MissedMeetingRate(in Input) Measure {
	var booked, missed int
	for _, d := range ByAE(in.Deals, in.Filter) {
		if !in.Range.ContainsPtr(d.MeetingBookedDate) {
			continue
		}
		booked++
		if in.Range.ContainsPtr(d.MissedMeetingDate) {
			missed++
		}
	}
	return ratio(missed, booked)
}

// LimboOver14DaysRate is the share of deals that ever entered Limbo and stayed longer than
// 14 days, measured to the exit date or to now when still there.
func LimboOver14DaysRate(in Input) Measure {
	var entered, stuck int
	for _, d := range ByAE(in.Deals, in.Filter) {
		if d.LimboDate == nil {
			continue
		}
		entered++
		end := in.Now
		if d.LimboExitDate != nil {
			end = *d.LimboExitDate
		}
		if DaysBetween(*d.LimboDate, end) > limboStuckDays {
			stuck++
		}
	}
	return ratio(stuck, entered)
}

// DealsWithoutNextStepRate is the share of open deals with no next step date.
func DealsWithoutNextStepRate(in Input) Measure {
	var open, missing int
	for _, d := range ByAE(in.Deals, in.Filter) {
		if d.IsClosed() {
			continue
		}
		open++
		if d.NextStepDate == nil {
			missing++
		}
	}
	return ratio(missing, open)
}

// AverageDealAge is the mean age in days of open deals.
func AverageDealAge(in Input) Measure {
	var open, total int
	for _, d := range ByAE(in.Deals, in.Filter) {
		if d.IsClosed() {
			continue
		}
		created := d.CreateDate
		if created.IsZero() {
			created = d.StageDate
		}
		open++
		total += DaysBetween(created, in.Now)
	}
	if open == 0 {
		return Measure{}
	}
	return Measure{
		Value:       RoundHalfUp(float64(total) / float64(open)),
		Numerator:   total,
		Denominator: open,
	}
}

// TaskCoverageRate is the share of open, not yet subscribed deals carrying a recognized
// task status.
func TaskCoverageRate(in Input) Measure {
	var active, covered int
	for _, d := range ByAE(in.Deals, in.Filter) {
		if d.IsClosed() || d.Stage == deal.StageSubscribed {
			continue
		}
		active++
		if d.TaskStatus.Recognized() {
			covered++
		}
	}
	return ratio(covered, active)
}

// OutboundMeetings is reserved until the source carries outbound data.
func OutboundMeetings(Input) Measure {
	return Measure{}
}

// OutboundDealsClosed is reserved until the source carries outbound data.
func OutboundDealsClosed(Input) Measure {
	return Measure{}
}
