package deal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrSkipRow marks a row that carries no deal (too short or no id).
	ErrSkipRow = errors.New("row skipped")
	// ErrMalformedRow marks a row whose required fields cannot be parsed.
	ErrMalformedRow = errors.New("malformed row")
)

// Sheet column positions.
const (
	ColID                = 0
	ColValue             = 1
	ColOwner             = 2
	ColStage             = 3
	ColName              = 4
	ColCreateDate        = 5
	ColCloseDate         = 6
	ColColdAppInstall    = 7
	ColMeetingBooked     = 8
	ColMissedMeeting     = 9
	ColLimbo             = 10
	ColOnboardingBooked  = 11
	ColSubscribed        = 12
	ColActivate          = 13
	ColClosedWon         = 14
	ColClosedLost        = 15
	ColMeetingBookedExit = 24
	ColNextStep          = 25
	ColLimboExit         = 26

	// MinColumns is the shortest row that can describe a deal.
	MinColumns  = 6
	// ColumnCount is the full width of a row including the limbo exit column.
	ColumnCount = ColLimboExit + 1
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/2006 15:04:05",
	"2006/01/02",
	"Jan 2, 2006",
}

// RowError records why a raw row did not produce a Deal.
type RowError struct {
	Index int
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Normalizer turns raw sheet rows into Deals.
type Normalizer struct {
	// Location is used for date cells without an explicit offset. Defaults to time.Local.
	Location *time.Location
	// Now supplies the create date for rows that omit it. Defaults to time.Now.
	Now      func() time.Time
}

// NewNormalizer returns a Normalizer bound to loc.
func NewNormalizer(loc *time.Location) *Normalizer {
	return &Normalizer{Location: loc}
}

func (n *Normalizer) location() *time.Location {
	if n == nil || n.Location == nil {
		return time.Local
	}
	return n.Location
}

func (n *Normalizer) now() time.Time {
	if n == nil || n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

// Normalize maps one raw row onto a Deal.
func (n *Normalizer) Normalize(row []string) (Deal, error) {
	if len(row) < MinColumns || strings.TrimSpace(row[ColID]) == "" {
		return Deal{}, ErrSkipRow
	}

	loc := n.location()
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	opt := func(i int) *time.Time {
		t, ok := ParseDate(cell(i), loc)
		if !ok {
			return nil
		}
		return &t
	}

	d := Deal{
		ID:         cell(ColID),
		Value:      ParseValue(cell(ColValue)),
		TeamMember: cell(ColOwner),
		Stage:      Stage(cell(ColStage)),
		Name:       cell(ColName),
		TaskStatus: TaskCompleted,
	}

	raw := cell(ColCreateDate)
	if raw == "" {
		d.CreateDate = truncateDay(n.now().In(loc))
	} else {
		t, ok := ParseDate(raw, loc)
		if !ok {
			return Deal{}, fmt.Errorf("%w: unparseable create date %q", ErrMalformedRow, raw)
		}
		d.CreateDate = t
	}

	d.CloseDate = opt(ColCloseDate)
	d.ColdAppInstallDate = opt(ColColdAppInstall)
	d.MeetingBookedDate = opt(ColMeetingBooked)
	d.MissedMeetingDate = opt(ColMissedMeeting)
	d.LimboDate = opt(ColLimbo)
	d.OnboardingBookedDate = opt(ColOnboardingBooked)
	d.SubscribedDate = opt(ColSubscribed)
	d.ActivateDate = opt(ColActivate)
	d.ClosedWonDate = opt(ColClosedWon)
	d.ClosedLostDate = opt(ColClosedLost)
	d.MeetingBookedExitDate = opt(ColMeetingBookedExit)
	d.NextStepDate = opt(ColNextStep)
	d.LimboExitDate = opt(ColLimboExit)

	return d.Resolve(), nil
}

// NormalizeAll normalizes every row, collecting the rows it had to drop.
func (n *Normalizer) NormalizeAll(rows [][]string) ([]Deal, []RowError) {
	deals := make([]Deal, 0, len(rows))
	var rejected []RowError
	for i, row := range rows {
		d, err := n.Normalize(row)
		if err != nil {
			rejected = append(rejected, RowError{Index: i, Err: err})
			continue
		}
		deals = append(deals, d)
	}
	return deals, rejected
}

// ParseDate reads a date cell in any of the accepted layouts and truncates it to the day in
// loc. Empty or unparseable cells report false.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return truncateDay(t.In(loc)), true
		}
	}
	return time.Time{}, false
}

// ParseValue reads a money cell. Currency symbols and thousands separators are ignored;
// anything unparseable or negative yields zero.
func ParseValue(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil || v.IsNegative() {
		return decimal.Zero
	}
	return v
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
