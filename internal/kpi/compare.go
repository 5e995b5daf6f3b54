package kpi

import "strconv"

// Delta is the year-over-year comparison of one KPI.
type Delta struct {
	// Available is false when the prior-year value is zero; only Current is set then.
	Available     bool `json:"available"`
	Current       int  `json:"current"`
	Previous      int  `json:"previous"`
	ChangePercent int  `json:"changePercent"`
	Better        bool `json:"better"`
}

// Text renders the delta the way the dashboard shows it: "No data" or the absolute change.
func (d Delta) Text() string {
	if !d.Available {
		return "No data"
	}
	arrow := "▼"
	if d.Better {
		arrow = "▲"
	}
	return arrow + " " + strconv.Itoa(absInt(d.ChangePercent)) + "%"
}

// Compare re-runs def against the same window one year earlier.
func Compare(def Definition, in Input) Delta {
	_, _, d := compare(def, in)
	return d
}

// compare also returns both measures so the report can trace them.
func compare(def Definition, in Input) (cur, prev Measure, d Delta) {
	cur = def.Calculate(in)
	prev = def.Calculate(in.WithRange(PreviousYear(in.Range)))
	return cur, prev, CompareValues(cur.Value, prev.Value, def.LowerIsBetter)
}

// CompareValues derives a Delta from two KPI values.
func CompareValues(current, previous int, lowerIsBetter bool) Delta {
	if previous == 0 {
		return Delta{Current: current}
	}
	change := current - previous
	better := change > 0
	if lowerIsBetter {
		better = change < 0
	}
	return Delta{
		Available:     true,
		Current:       current,
		Previous:      previous,
		ChangePercent: RoundHalfUp(float64(change) / float64(previous) * 100),
		Better:        better,
	}
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
