package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultRefreshInterval is how often the data source is re-read.
const DefaultRefreshInterval = 5 * time.Minute

// Refresher reloads the session on a cron schedule.
type Refresher struct {
	Cron *cron.Cron
	// SkipInitial leaves the first refresh to the schedule, for callers that already loaded.
	SkipInitial bool

	session  *Session
	interval time.Duration
	timeout  time.Duration
}

// NewRefresher schedules session refreshes every interval.
func NewRefresher(session *Session, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		Cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		session:  session,
		interval: interval,
		timeout:  interval,
	}
}

// Spec is the cron schedule the refresher registers.
func (r *Refresher) Spec() string {
	return fmt.Sprintf("@every %s", r.interval)
}

// Run refreshes once, unless SkipInitial is set, then on schedule until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	if _, err := r.Cron.AddFunc(r.Spec(), func() { r.tick(ctx) }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}

	if !r.SkipInitial {
		r.tick(ctx)
	}
	r.Cron.Start()
	log.Info().Str("schedule", r.Spec()).Msg("Refresher started")

	<-ctx.Done()
	stopped := r.Cron.Stop()
	<-stopped.Done()
	log.Info().Msg("Refresher stopped")
	return nil
}

func (r *Refresher) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.session.Refresh(tctx); err != nil {
		log.Warn().Err(err).Msg("Scheduled refresh failed")
	}
}
