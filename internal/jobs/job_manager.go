package jobs

import (
	"fmt"
	"log/slog"

	"partner/internal/core/ports"
)

// Schedules are cron specs with a seconds field. Empty specs take the defaults.
type Schedules struct {
	OfferPoll     string
	PresencePoll  string
	MarkerHealth  string
	WalletRefresh string
}

func DefaultSchedules() Schedules {
	return Schedules{
		OfferPoll:     "*/20 * * * * *",
		PresencePoll:  "* * * * * *",
		MarkerHealth:  "*/2 * * * * *",
		WalletRefresh: "0 * * * * *",
	}
}

func (s Schedules) withDefaults() Schedules {
	d := DefaultSchedules()
	if s.OfferPoll == "" {
		s.OfferPoll = d.OfferPoll
	}
	if s.PresencePoll == "" {
		s.PresencePoll = d.PresencePoll
	}
	if s.MarkerHealth == "" {
		s.MarkerHealth = d.MarkerHealth
	}
	if s.WalletRefresh == "" {
		s.WalletRefresh = d.WalletRefresh
	}
	return s
}

// Deps are what the jobs act on. A nil OfferGenerator disables offer polling.
type Deps struct {
	Offers   OfferGenerator
	Location LocationReader
	Presence PresenceResyncer
	Marker   MarkerKeeper
	Earnings EarningsReader
	Events   ports.EventPublisher
}

type job interface {
	Start() error
	Stop()
}

type namedJob struct {
	name string
	job  job
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	jobs    []namedJob
	started []namedJob
}

func NewJobManager(schedules Schedules, deps Deps, logger *slog.Logger) *JobManager {
	s := schedules.withDefaults()
	jm := &JobManager{}
	if deps.Offers != nil {
		jm.jobs = append(jm.jobs, namedJob{"offer poll", NewOfferPollJob(s.OfferPoll, deps.Offers, deps.Location, logger)})
	}
	jm.jobs = append(jm.jobs,
		namedJob{"presence poll", NewPresencePollJob(s.PresencePoll, deps.Presence, logger)},
		namedJob{"marker health", NewMarkerHealthJob(s.MarkerHealth, deps.Marker, logger)},
		namedJob{"wallet refresh", NewWalletRefreshJob(s.WalletRefresh, deps.Earnings, deps.Events, logger)},
	)
	return jm
}

// StartAll starts every job. If one fails to start, the ones already running are
// stopped.
func (jm *JobManager) StartAll() error {
	for _, j := range jm.jobs {
		if err := j.job.Start(); err != nil {
			jm.StopAll()
			return fmt.Errorf("failed to start %s job: %w", j.name, err)
		}
		jm.started = append(jm.started, j)
	}
	return nil
}

// StopAll stops the started jobs in reverse order.
func (jm *JobManager) StopAll() {
	for i := len(jm.started) - 1; i >= 0; i-- {
		jm.started[i].job.Stop()
	}
	jm.started = nil
}
