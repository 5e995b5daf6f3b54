package sheets

import (
	"strconv"
	"time"

	"salespulse/internal/deal"
)

// SampleSourceName labels rows that came from the bundled sample.
const SampleSourceName = "sample"

type sampleDeal struct {
	id      string
	value   int
	owner   string
	stage   deal.Stage
	name    string
	created int
	// column -> days before now
	dates map[int]int
}

var sampleDeals = []sampleDeal{
	// Tom
	{"45335194478", 1, "Tom", deal.StageMeetingBooked, "Inbound Lead Paul Mardeys", 3,
		map[int]int{deal.ColMeetingBooked: 3, deal.ColNextStep: -2}},
	{"45315568809", 20, "Tom", deal.StageActivate, "Inbound Lead Artion", 7,
		map[int]int{deal.ColMeetingBooked: 6, deal.ColMeetingBookedExit: 5, deal.ColActivate: 5}},
	{"44968061999", 600, "Tom", deal.StageClosedWon, "DGP New Deal", 10,
		map[int]int{deal.ColCloseDate: 2, deal.ColMeetingBooked: 9, deal.ColMeetingBookedExit: 8, deal.ColClosedWon: 2}},
	{"44901887310", 150, "Tom", deal.StageLimbo, "Inbound Lead Harbor Bistro", 26,
		map[int]int{deal.ColMeetingBooked: 24, deal.ColMissedMeeting: 22, deal.ColLimbo: 18}},
	{"44877120415", 90, "Tom", deal.StageClosedLost, "Cold Install Riverside", 40,
		map[int]int{deal.ColCloseDate: 12, deal.ColColdAppInstall: 40, deal.ColLimbo: 35, deal.ColLimboExit: 12, deal.ColClosedLost: 12}},

	// Eddy
	{"45367198992", 1, "Eddy", deal.StageQualified, "Inbound Lead John", 3,
		map[int]int{deal.ColNextStep: -1}},
	{"45137411084", 1, "Eddy", deal.StageClosedWon, "Win Back Melissa Marks", 7,
		map[int]int{deal.ColCloseDate: 1, deal.ColMeetingBooked: 6, deal.ColMeetingBookedExit: 4, deal.ColClosedWon: 1}},
	{"45102254120", 45, "Eddy", deal.StageMissedMeeting, "Inbound Lead Coastal Yoga", 9,
		map[int]int{deal.ColMeetingBooked: 8, deal.ColMissedMeeting: 6}},
	{"44950023871", 300, "Eddy", deal.StageOnboardingBooked, "Inbound Lead Nordic Fitness", 21,
		map[int]int{deal.ColMeetingBooked: 18, deal.ColMeetingBookedExit: 15, deal.ColOnboardingBooked: 15, deal.ColNextStep: -3}},
	{"44823317764", 75, "Eddy", deal.StageInboundLead, "Inbound Lead Bright Dental", 14, nil},

	// Galina
	{"45250980113", 120, "Galina", deal.StageSubscribed, "Inbound Lead Urban Barbers", 12,
		map[int]int{deal.ColMeetingBooked: 11, deal.ColMeetingBookedExit: 9, deal.ColSubscribed: 8}},
	{"45190032288", 500, "Galina", deal.StageClosedWon, "Referral Alpine Spa", 16,
		map[int]int{deal.ColCloseDate: 4, deal.ColMeetingBooked: 13, deal.ColMeetingBookedExit: 10, deal.ColClosedWon: 4}},
	{"45011174532", 60, "Galina", deal.StageColdAppInstall, "Cold Install Maple Pets", 11,
		map[int]int{deal.ColColdAppInstall: 11}},
	{"44789921056", 220, "Galina", deal.StageLimbo, "Inbound Lead Seaside Clinic", 33,
		map[int]int{deal.ColMeetingBooked: 30, deal.ColMeetingBookedExit: 28, deal.ColLimbo: 28, deal.ColNextStep: -7}},

	// a year back, so comparisons have something to compare with
	{"38868189586", 400, "Tom", deal.StageClosedWon, "Prior Year Lakeside Gym", 380,
		map[int]int{deal.ColCloseDate: 362, deal.ColMeetingBooked: 370, deal.ColMeetingBookedExit: 366, deal.ColClosedWon: 362}},
	{"38801446190", 250, "Eddy", deal.StageClosedWon, "Prior Year Elm Street Cafe", 375,
		map[int]int{deal.ColCloseDate: 364, deal.ColMeetingBooked: 372, deal.ColMeetingBookedExit: 369, deal.ColClosedWon: 364}},
	{"38755320917", 80, "Galina", deal.StageClosedLost, "Prior Year Cedar Salon", 372,
		map[int]int{deal.ColCloseDate: 360, deal.ColMeetingBooked: 368, deal.ColMissedMeeting: 366, deal.ColClosedLost: 360}},
}

// SampleRows renders the bundled sample as sheet rows dated relative to now, so the current
// month always has activity.
func SampleRows(now time.Time) [][]string {
	day := func(n int) string {
		return time.Date(now.Year(), now.Month(), now.Day()-n, 0, 0, 0, 0, now.Location()).Format("2006-01-02")
	}
	rows := make([][]string, 0, len(sampleDeals))
	for _, s := range sampleDeals {
		row := make([]string, deal.ColumnCount)
		row[deal.ColID] = s.id
		row[deal.ColValue] = strconv.Itoa(s.value)
		row[deal.ColOwner] = s.owner
		row[deal.ColStage] = string(s.stage)
		row[deal.ColName] = s.name
		row[deal.ColCreateDate] = day(s.created)
		for col, n := range s.dates {
			row[col] = day(n)
		}
		rows = append(rows, row)
	}
	return rows
}

// NewSampleSource serves SampleRows at the time now returns.
func NewSampleSource(now func() time.Time) *StaticSource {
	if now == nil {
		now = time.Now
	}
	return &StaticSource{
		Label: SampleSourceName,
		Rows:  func() [][]string { return SampleRows(now()) },
	}
}
