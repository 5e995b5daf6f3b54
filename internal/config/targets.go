package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"salespulse/internal/kpi"
)

// TargetsFile is the YAML document holding KPI goals and the AE roster.
//
//	targets:
//	  closed_won_all: 30
//	  closed_won_per_ae: 10
//	roster: [Eddy, Tom, Galina]
type TargetsFile struct {
	Targets kpi.Targets `yaml:"targets"`
	Roster  []string    `yaml:"roster"`
}

// LoadTargetsFile reads and validates a targets file. Goals left out keep their defaults
// once merged.
func LoadTargetsFile(path string) (*TargetsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}
	return ParseTargets(data)
}

// ParseTargets decodes a targets document.
func ParseTargets(data []byte) (*TargetsFile, error) {
	var tf TargetsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse targets file: %w", err)
	}
	if err := validateTargets(tf.Targets); err != nil {
		return nil, err
	}

	roster := tf.Roster[:0]
	seen := make(map[string]bool)
	for _, name := range tf.Roster {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		roster = append(roster, name)
	}
	tf.Roster = roster
	return &tf, nil
}

func validateTargets(t kpi.Targets) error {
	fields := map[string]int{
		"closed_won_all":          t.ClosedWonAll,
		"closed_won_per_ae":       t.ClosedWonPerAE,
		"meeting_closed_rate":     t.MeetingClosedRate,
		"missed_meeting_rate":     t.MissedMeetingRate,
		"outbound_meetings":       t.OutboundMeetings,
		"outbound_deals_closed":   t.OutboundDealsClosed,
		"limbo_over_14_days":      t.LimboOver14Days,
		"deals_without_next_step": t.DealsWithoutNextStep,
		"average_deal_age":        t.AverageDealAge,
		"task_coverage":           t.TaskCoverage,
	}
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("target %s must not be negative, got %d", name, v)
		}
	}
	return nil
}
