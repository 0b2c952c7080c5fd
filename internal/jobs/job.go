package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultTickTimeout bounds one run of any job.
const DefaultTickTimeout = 10 * time.Second

// cronLogger routes the scheduler's own messages, recovered panics included, to slog.
type cronLogger struct {
	logger *slog.Logger
}

func NewCronLogger(logger *slog.Logger) cron.Logger {
	return cronLogger{logger: logger.With("component", "cron")}
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}

// cronJob is the scheduling shell every job embeds.
type cronJob struct {
	name   string
	spec   string
	cron   *cron.Cron
	logger *slog.Logger
}

func newCronJob(name, spec string, logger *slog.Logger) cronJob {
	return cronJob{
		name: name,
		spec: spec,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(NewCronLogger(logger)), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger.With("component", name),
	}
}

func (j *cronJob) start(tick func(ctx context.Context)) error {
	_, err := j.cron.AddFunc(j.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultTickTimeout)
		defer cancel()
		tick(ctx)
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "job started", "schedule", j.spec)
	return nil
}

// Stop waits for a running tick to finish.
func (j *cronJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "job stopped")
}
