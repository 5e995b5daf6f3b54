package kpi

import (
	"slices"

	"salespulse/internal/deal"
)

// AllAEs is the filter value that keeps every team member.
const AllAEs = "all"

// ByAE keeps the deals owned by filter, or every deal when filter is "all" or empty.
func ByAE(deals []deal.Deal, filter string) []deal.Deal {
	if filter == "" || filter == AllAEs {
		return deals
	}
	out := make([]deal.Deal, 0, len(deals))
	for _, d := range deals {
		if d.TeamMember == filter {
			out = append(out, d)
		}
	}
	return out
}

// CreatedWithin keeps deals created inside rng. Deals without a create date fall back to
// their stage date.
func CreatedWithin(deals []deal.Deal, rng DateRange) []deal.Deal {
	out := make([]deal.Deal, 0, len(deals))
	for _, d := range deals {
		anchor := d.CreateDate
		if anchor.IsZero() {
			anchor = d.StageDate
		}
		if rng.Contains(anchor) {
			out = append(out, d)
		}
	}
	return out
}

// OpenOnly drops Closed Won and Closed Lost deals.
func OpenOnly(deals []deal.Deal) []deal.Deal {
	out := make([]deal.Deal, 0, len(deals))
	for _, d := range deals {
		if d.IsOpen() {
			out = append(out, d)
		}
	}
	return out
}

// TeamMembers lists the distinct non-empty owners, sorted. When allowed is
// non-empty only those names are kept.
func TeamMembers(deals []deal.Deal, allowed []string) []string {
	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allow[a] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, d := range deals {
		m := d.TeamMember
		if m == "" || seen[m] {
			continue
		}
		if len(allow) > 0 && !allow[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}
