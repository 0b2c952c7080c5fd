package jobs

import (
	"context"
	"log/slog"
)

type PresenceResyncer interface {
	Resync(ctx context.Context) (bool, error)
}

// PresencePollJob is the safety net behind store change notifications: it rereads
// the persisted presence flag so a missed notification heals within a second.
type PresencePollJob struct {
	cronJob
	presence PresenceResyncer
}

func NewPresencePollJob(spec string, presence PresenceResyncer, logger *slog.Logger) *PresencePollJob {
	return &PresencePollJob{
		cronJob:  newCronJob("presence_poll_job", spec, logger),
		presence: presence,
	}
}

func (j *PresencePollJob) Start() error {
	return j.start(j.Tick)
}

func (j *PresencePollJob) Tick(ctx context.Context) {
	if _, err := j.presence.Resync(ctx); err != nil {
		j.logger.WarnContext(ctx, "Presence poll failed", "error", err)
	}
}
