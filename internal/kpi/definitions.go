package kpi

// Key identifies a KPI across the report, the API and the targets file.
type Key string

const (
	KeyClosedWon            Key = "closedWon"
	KeyMeetingClosedRate    Key = "meetingClosedRate"
	KeyMissedMeetingRate    Key = "missedMeetingRate"
	KeyOutboundMeetings     Key = "outboundMeetings"
	KeyOutboundDealsClosed  Key = "outboundDealsClosed"
	KeyLimboOver14Days      Key = "limboOver14Days"
	KeyDealsWithoutNextStep Key = "dealsWithoutNextStep"
	KeyAverageDealAge       Key = "averageDealAge"
	KeyTaskCoverage         Key = "taskCoverage"
)

// Definition binds a KPI key to its calculator and presentation traits.
type Definition struct {
	Key           Key
	Label         string
	Calculate     Calculator
	IsPercentage  bool
	LowerIsBetter bool
	// DateScoped KPIs read the selected month; the rest look at the whole pipeline.
	DateScoped bool
}

// Definitions lists every KPI in dashboard order.
var Definitions = []Definition{
	{Key: KeyClosedWon, Label: "Closed Won", Calculate: ClosedWonPerMonth, DateScoped: true},
	{Key: KeyMeetingClosedRate, Label: "Meeting Closed Rate", Calculate: MeetingClosedRate, IsPercentage: true, DateScoped: true},
	{Key: KeyMissedMeetingRate, Label: "Missed Meeting Rate", Calculate: MissedMeetingRate, IsPercentage: true, LowerIsBetter: true, DateScoped: true},
	{Key: KeyOutboundMeetings, Label: "Outbound Meetings", Calculate: OutboundMeetings, DateScoped: true},
	{Key: KeyOutboundDealsClosed, Label: "Outbound Deals Closed", Calculate: OutboundDealsClosed, DateScoped: true},
	{Key: KeyLimboOver14Days, Label: "Limbo > 14 Days", Calculate: LimboOver14DaysRate, IsPercentage: true, LowerIsBetter: true},
	{Key: KeyDealsWithoutNextStep, Label: "Deals Without Next Step", Calculate: DealsWithoutNextStepRate, IsPercentage: true, LowerIsBetter: true},
	{Key: KeyAverageDealAge, Label: "Average Deal Age (days)", Calculate: AverageDealAge, LowerIsBetter: true},
	{Key: KeyTaskCoverage, Label: "Task Coverage", Calculate: TaskCoverageRate, IsPercentage: true},
}

// Lookup returns the definition for key.
func Lookup(key Key) (Definition, bool) {
	for _, d := range Definitions {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Targets holds the goal for every KPI. Closed Won carries two goals: one for the whole
// team and one for a single AE.
type Targets struct {
	ClosedWonAll         int `yaml:"closed_won_all" json:"closedWonAll"`
	ClosedWonPerAE       int `yaml:"closed_won_per_ae" json:"closedWonPerAE"`
	MeetingClosedRate    int `yaml:"meeting_closed_rate" json:"meetingClosedRate"`
	MissedMeetingRate    int `yaml:"missed_meeting_rate" json:"missedMeetingRate"`
	OutboundMeetings     int `yaml:"outbound_meetings" json:"outboundMeetings"`
	OutboundDealsClosed  int `yaml:"outbound_deals_closed" json:"outboundDealsClosed"`
	LimboOver14Days      int `yaml:"limbo_over_14_days" json:"limboOver14Days"`
	DealsWithoutNextStep int `yaml:"deals_without_next_step" json:"dealsWithoutNextStep"`
	AverageDealAge       int `yaml:"average_deal_age" json:"averageDealAge"`
	TaskCoverage         int `yaml:"task_coverage" json:"taskCoverage"`
}

// DefaultTargets are the goals used when no targets file overrides them.
func DefaultTargets() Targets {
	return Targets{
		ClosedWonAll:         30,
		ClosedWonPerAE:       10,
		MeetingClosedRate:    35,
		MissedMeetingRate:    10,
		OutboundMeetings:     5,
		OutboundDealsClosed:  3,
		LimboOver14Days:      20,
		DealsWithoutNextStep: 15,
		AverageDealAge:       30,
		TaskCoverage:         90,
	}
}

// For returns the goal for key under the given AE filter.
func (t Targets) For(key Key, filter string) int {
	switch key {
	case KeyClosedWon:
		if filter == "" || filter == AllAEs {
			return t.ClosedWonAll
		}
		return t.ClosedWonPerAE
	case KeyMeetingClosedRate:
		return t.MeetingClosedRate
	case KeyMissedMeetingRate:
		return t.MissedMeetingRate
	case KeyOutboundMeetings:
		return t.OutboundMeetings
	case KeyOutboundDealsClosed:
		return t.OutboundDealsClosed
	case KeyLimboOver14Days:
		return t.LimboOver14Days
	case KeyDealsWithoutNextStep:
		return t.DealsWithoutNextStep
	case KeyAverageDealAge:
		return t.AverageDealAge
	case KeyTaskCoverage:
		return t.TaskCoverage
	}
	return 0
}

// Merge overlays the non-zero goals of o onto t.
func (t Targets) Merge(o Targets) Targets {
	pick := func(base, override int) int {
		if override != 0 {
			return override
		}
		return base
	}
	return Targets{
		ClosedWonAll:         pick(t.ClosedWonAll, o.ClosedWonAll),
		ClosedWonPerAE:       pick(t.ClosedWonPerAE, o.ClosedWonPerAE),
		MeetingClosedRate:    pick(t.MeetingClosedRate, o.MeetingClosedRate),
		MissedMeetingRate:    pick(t.MissedMeetingRate, o.MissedMeetingRate),
		OutboundMeetings:     pick(t.OutboundMeetings, o.OutboundMeetings),
		OutboundDealsClosed:  pick(t.OutboundDealsClosed, o.OutboundDealsClosed),
		LimboOver14Days:      pick(t.LimboOver14Days, o.LimboOver14Days),
		DealsWithoutNextStep: pick(t.DealsWithoutNextStep, o.DealsWithoutNextStep),
		AverageDealAge:       pick(t.AverageDealAge, o.AverageDealAge),
		TaskCoverage:         pick(t.TaskCoverage, o.TaskCoverage),
	}
}
