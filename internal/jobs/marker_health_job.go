package jobs

import (
	"context"
	"log/slog"
)

type MarkerKeeper interface {
	EnsureMarker() (bool, error)
}

// MarkerHealthJob re-attaches the partner's marker after a surface dropped it.
type MarkerHealthJob struct {
	cronJob
	marker MarkerKeeper
}

func NewMarkerHealthJob(spec string, marker MarkerKeeper, logger *slog.Logger) *MarkerHealthJob {
	return &MarkerHealthJob{
		cronJob: newCronJob("marker_health_job", spec, logger),
		marker:  marker,
	}
}

func (j *MarkerHealthJob) Start() error {
	return j.start(j.Tick)
}

func (j *MarkerHealthJob) Tick(ctx context.Context) {
	if _, err := j.marker.EnsureMarker(); err != nil {
		j.logger.WarnContext(ctx, "Marker re-attach failed", "error", err)
	}
}
