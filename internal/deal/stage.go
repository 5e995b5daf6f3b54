package deal

// Stage is a pipeline position. Labels outside the known set are kept verbatim; Known
// reports false for them and they resolve their stage date from the create date.
type Stage string

const (
	StageInboundLead      Stage = "Inbound Lead"
	StageColdAppInstall   Stage = "Cold App Install"
	StageQualified        Stage = "Qualified"
	StageMeetingBooked    Stage = "Meeting Booked"
	StageMissedMeeting    Stage = "Missed Meeting"
	StageLimbo            Stage = "Limbo"
	StageOnboardingBooked Stage = "Onboarding Booked"
	StageSubscribed       Stage = "SUBSCRIBED"
	StageActivate         Stage = "Activate"
	StageClosedWon        Stage = "Closed Won"
	StageClosedLost       Stage = "Closed Lost"
)

// KnownStages lists the stages with explicit handling, in pipeline order.
var KnownStages = []Stage{
	StageInboundLead,
	StageColdAppInstall,
	StageQualified,
	StageMeetingBooked,
	StageMissedMeeting,
	StageLimbo,
	StageOnboardingBooked,
	StageSubscribed,
	StageActivate,
	StageClosedWon,
	StageClosedLost,
}

// Known reports whether s is one of KnownStages.
func (s Stage) Known() bool {
	for _, k := range KnownStages {
		if s == k {
			return true
		}
	}
	return false
}

// IsClosed is true for the two terminal stages.
func (s Stage) IsClosed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

func (s Stage) String() string {
	return string(s)
}
