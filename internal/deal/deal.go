package deal

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaskStatus is the informational task state attached to a deal.
type TaskStatus string

const (
	TaskCompleted TaskStatus = "Completed"
	TaskPending   TaskStatus = "Pending"
	TaskOpen      TaskStatus = "Open"
)

// Recognized reports whether the status is one of the three task states.
func (s TaskStatus) Recognized() bool {
	switch s {
	case TaskCompleted, TaskPending, TaskOpen:
		return true
	}
	return false
}

// Deal is the canonical, normalized pipeline record. It is treated as a value and never
// mutated once Normalize has returned it.
type Deal struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Stage      Stage           `json:"stage"`
	TeamMember string          `json:"teamMember"`
	Value      decimal.Decimal `json:"value"`
	TaskStatus TaskStatus      `json:"taskStatus"`

	CreateDate      time.Time  `json:"createDate"`
	StageDate       time.Time  `json:"stageDate"`
	LastContactDate time.Time  `json:"lastContactDate"`
	CloseDate       *time.Time `json:"closeDate,omitempty"`

	// Stage-entry timestamps
	ColdAppInstallDate   *time.Time `json:"coldAppInstallDate,omitempty"`
	MeetingBookedDate    *time.Time `json:"meetingBookedDate,omitempty"`
	MissedMeetingDate    *time.Time `json:"missedMeetingDate,omitempty"`
	LimboDate            *time.Time `json:"limboDate,omitempty"`
	OnboardingBookedDate *time.Time `json:"onboardingBookedDate,omitempty"`
	SubscribedDate       *time.Time `json:"subscribedDate,omitempty"`
	ActivateDate         *time.Time `json:"activateDate,omitempty"`
	ClosedWonDate        *time.Time `json:"closedWonDate,omitempty"`
	ClosedLostDate       *time.Time `json:"closedLostDate,omitempty"`

	// Exit and auxiliary timestamps
	MeetingBookedExitDate *time.Time `json:"meetingBookedExitDate,omitempty"`
	LimboExitDate         *time.Time `json:"limboExitDate,omitempty"`
	NextStepDate          *time.Time `json:"nextStepDate,omitempty"`
	NextActivityDate      *time.Time `json:"nextActivityDate,omitempty"`
}

// IsClosed is true for Closed Won and Closed Lost.
func (d Deal) IsClosed() bool {
	return d.Stage.IsClosed()
}

// IsOpen is the complement of IsClosed.
func (d Deal) IsOpen() bool {
	return !d.Stage.IsClosed()
}

// StageEntryDate returns the stage-entry timestamp recorded for s, or nil when the deal has
// none or s has no dedicated column.
func (d Deal) StageEntryDate(s Stage) *time.Time {
	switch s {
	case StageColdAppInstall:
		return d.ColdAppInstallDate
	case StageMeetingBooked:
		return d.MeetingBookedDate
	case StageMissedMeeting:
		return d.MissedMeetingDate
	case StageLimbo:
		return d.LimboDate
	case StageOnboardingBooked:
		return d.OnboardingBookedDate
	case StageSubscribed:
		return d.SubscribedDate
	case StageActivate:
		return d.ActivateDate
	case StageClosedWon:
		return d.ClosedWonDate
	case StageClosedLost:
		return d.ClosedLostDate
	}
	return nil
}

// stageEntryDates lists every stage-entry timestamp in column order.
func (d Deal) stageEntryDates() []*time.Time {
	return []*time.Time{
		d.ColdAppInstallDate,
		d.MeetingBookedDate,
		d.MissedMeetingDate,
		d.LimboDate,
		d.OnboardingBookedDate,
		d.SubscribedDate,
		d.ActivateDate,
		d.ClosedWonDate,
		d.ClosedLostDate,
	}
}

// Resolve fills StageDate and LastContactDate from the raw timestamps. Normalize calls it;
// fixture builders call it too so every Deal carries the same derived fields.
func (d Deal) Resolve() Deal {
	d.StageDate = d.CreateDate
	if entry := d.StageEntryDate(d.Stage); entry != nil {
		d.StageDate = *entry
	}

	d.LastContactDate = d.CreateDate
	for _, t := range d.stageEntryDates() {
		if t != nil && t.After(d.LastContactDate) {
			d.LastContactDate = *t
		}
	}
	return d
}
