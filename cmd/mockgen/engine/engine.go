package engine

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"salespulse/internal/deal"
	"salespulse/internal/sheets"
)

type GeneratorConfig struct {
	Scenario     string // "mild", "chaos" or "drift"
	Distribution string // "uniform" or "weibull"
	Count        int
	Owners       []string
	Seed         int64
	Now          time.Time
}

// scenario holds the funnel probabilities for one run.
type scenario struct {
	coldInstall float64 // share of deals that start as cold app installs
	meeting     float64 // lead books a meeting
	missed      float64 // booked meeting is missed
	limbo       float64 // deal stalls in limbo instead of moving on
	recover     float64 // limbo or missed deal comes back to onboarding
	subscribe   float64 // onboarding converts to a subscription
	nextStep    float64 // open deal has a next step scheduled
}

var scenarios = map[string]scenario{
	"mild":  {coldInstall: 0.3, meeting: 0.8, missed: 0.1, limbo: 0.1, recover: 0.5, subscribe: 0.8, nextStep: 0.8},
	"chaos": {coldInstall: 0.3, meeting: 0.6, missed: 0.35, limbo: 0.35, recover: 0.2, subscribe: 0.5, nextStep: 0.3},
}

// drift interpolates from mild to chaos across the generated deals.
func scenarioAt(name string, ratio float64) scenario {
	if name != "drift" {
		if s, ok := scenarios[name]; ok {
			return s
		}
		return scenarios["mild"]
	}
	a, b := scenarios["mild"], scenarios["chaos"]
	lerp := func(x, y float64) float64 { return x + (y-x)*ratio }
	return scenario{
		coldInstall: lerp(a.coldInstall, b.coldInstall),
		meeting:     lerp(a.meeting, b.meeting),
		missed:      lerp(a.missed, b.missed),
		limbo:       lerp(a.limbo, b.limbo),
		recover:     lerp(a.recover, b.recover),
		subscribe:   lerp(a.subscribe, b.subscribe),
		nextStep:    lerp(a.nextStep, b.nextStep),
	}
}

type generator struct {
	cfg GeneratorConfig
	rnd *rand.Rand
}

// Generate returns Count sheet rows created over roughly the last 400 days, so both the
// current month and its prior-year window have deals.
func Generate(cfg GeneratorConfig) [][]string {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if len(cfg.Owners) == 0 {
		cfg.Owners = []string{"Tom", "Eddy", "Galina"}
	}
	if cfg.Seed == 0 {
		cfg.Seed = cfg.Now.UnixNano()
	}
	g := &generator{cfg: cfg, rnd: rand.New(rand.NewSource(cfg.Seed))}

	rows := make([][]string, 0, cfg.Count)
	span := 400.0
	for i := 0; i < cfg.Count; i++ {
		ratio := float64(i) / math.Max(1, float64(cfg.Count))
		created := cfg.Now.Add(-time.Duration((span*(1-ratio))*24) * time.Hour)
		rows = append(rows, g.deal(i, created, scenarioAt(cfg.Scenario, ratio)))
	}
	return rows
}

// dwell samples how many days a deal sits in a stage.
func (g *generator) dwell() float64 {
	if g.cfg.Distribution == "weibull" {
		k, lambda := 1.5, 6.0
		if g.cfg.Scenario == "chaos" {
			k = 0.8
		}
		return weibullSample(g.rnd, k, lambda)
	}
	// Uniform baseline: 1-8 days
	return 1.0 + g.rnd.Float64()*7.0
}

func (g *generator) chance(p float64) bool {
	return g.rnd.Float64() < p
}

func (g *generator) deal(i int, created time.Time, sc scenario) []string {
	row := make([]string, deal.ColumnCount)
	row[deal.ColID] = fmt.Sprintf("%d", 40000000000+i*7919)
	row[deal.ColOwner] = g.cfg.Owners[g.rnd.Intn(len(g.cfg.Owners))]
	row[deal.ColName] = fmt.Sprintf("Mock Deal %d", i+1)
	row[deal.ColValue] = g.value()
	row[deal.ColCreateDate] = g.date(created)

	now := g.cfg.Now
	t := created
	stage := deal.StageInboundLead
	if g.chance(sc.coldInstall) {
		stage = deal.StageColdAppInstall
		row[deal.ColColdAppInstall] = g.date(t)
	}

	// advance moves the deal into next after a dwell; false once that lies in the future.
	advance := func(next deal.Stage, col int) bool {
		at := t.Add(time.Duration(g.dwell()*24) * time.Hour)
		if at.After(now) {
			return false
		}
		t = at
		stage = next
		if col >= 0 {
			row[col] = g.date(t)
		}
		return true
	}
	lose := func() {
		if advance(deal.StageClosedLost, deal.ColClosedLost) {
			row[deal.ColCloseDate] = row[deal.ColClosedLost]
		}
	}

	func() {
		if !g.chance(sc.meeting) {
			if advance(deal.StageQualified, -1) && g.chance(0.5) {
				lose()
			}
			return
		}
		if !advance(deal.StageMeetingBooked, deal.ColMeetingBooked) {
			return
		}

		stalled := false
		switch {
		case g.chance(sc.missed):
			if !advance(deal.StageMissedMeeting, deal.ColMissedMeeting) {
				return
			}
			stalled = true
		case g.chance(sc.limbo):
			if !advance(deal.StageLimbo, deal.ColLimbo) {
				return
			}
			row[deal.ColMeetingBookedExit] = row[deal.ColLimbo]
			stalled = true
		}
		if stalled {
			if !g.chance(sc.recover) {
				if stage == deal.StageMissedMeeting && g.chance(0.5) {
					if !advance(deal.StageLimbo, deal.ColLimbo) {
						return
					}
				}
				if g.chance(0.6) {
					from := stage
					lose()
					if from == deal.StageLimbo && stage == deal.StageClosedLost {
						row[deal.ColLimboExit] = row[deal.ColClosedLost]
					}
				}
				return
			}
		}

		from := stage
		if !advance(deal.StageOnboardingBooked, deal.ColOnboardingBooked) {
			return
		}
		switch from {
		case deal.StageMeetingBooked:
			row[deal.ColMeetingBookedExit] = row[deal.ColOnboardingBooked]
		case deal.StageLimbo:
			row[deal.ColLimboExit] = row[deal.ColOnboardingBooked]
		}

		if !g.chance(sc.subscribe) {
			lose()
			return
		}
		if !advance(deal.StageSubscribed, deal.ColSubscribed) {
			return
		}
		if !advance(deal.StageActivate, deal.ColActivate) {
			return
		}
		if advance(deal.StageClosedWon, deal.ColClosedWon) {
			row[deal.ColCloseDate] = row[deal.ColClosedWon]
		}
	}()

	row[deal.ColStage] = string(stage)
	if !stage.IsClosed() && g.chance(sc.nextStep) {
		row[deal.ColNextStep] = g.date(now.AddDate(0, 0, 1+g.rnd.Intn(10)))
	}
	return row
}

// value renders a deal value the way people type them into the sheet.
func (g *generator) value() string {
	v := 50 + g.rnd.Intn(2000)
	if g.chance(0.5) {
		return fmt.Sprintf("%d", v)
	}
	s := fmt.Sprintf("%d", v)
	if len(s) > 3 {
		s = s[:len(s)-3] + "," + s[len(s)-3:]
	}
	return "$" + s
}

func (g *generator) date(t time.Time) string {
	if g.chance(0.2) {
		return t.Format("1/2/2006")
	}
	return t.Format("2006-01-02")
}

func weibullSample(rnd *rand.Rand, k, lambda float64) float64 {
	u := rnd.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Header mirrors the three header rows of the real sheet.
func Header() [][]string {
	names := make([]string, deal.ColumnCount)
	for col, name := range map[int]string{
		deal.ColID:                "Deal ID",
		deal.ColValue:             "Amount",
		deal.ColOwner:             "Deal Owner",
		deal.ColStage:             "Deal Stage",
		deal.ColName:              "Deal Name",
		deal.ColCreateDate:        "Create Date",
		deal.ColCloseDate:         "Close Date",
		deal.ColColdAppInstall:    "Date entered Cold App Install",
		deal.ColMeetingBooked:     "Date entered Meeting Booked",
		deal.ColMissedMeeting:     "Date entered Missed Meeting",
		deal.ColLimbo:             "Date entered Limbo",
		deal.ColOnboardingBooked:  "Date entered Onboarding Booked",
		deal.ColSubscribed:        "Date entered SUBSCRIBED",
		deal.ColActivate:          "Date entered Activate",
		deal.ColClosedWon:         "Date entered Closed Won",
		deal.ColClosedLost:        "Date entered Closed Lost",
		deal.ColMeetingBookedExit: "Date exited Meeting Booked",
		deal.ColNextStep:          "Next Step Date",
		deal.ColLimboExit:         "Date exited Limbo",
	} {
		names[col] = name
	}
	return [][]string{
		{"Sales pipeline export"},
		{fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02"))},
		names,
	}
}

// Save writes the header and rows as <outDir>/<name>.csv and returns the path.
func Save(outDir, name string, rows [][]string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, strings.TrimSuffix(name, ".csv")+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := sheets.WriteCSV(f, append(Header(), rows...)); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
