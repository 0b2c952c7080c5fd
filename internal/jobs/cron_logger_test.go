package jobs_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"partner/internal/jobs"
	"partner/internal/pkg/logging"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCronLogger_RecoveredPanicIsStructured(t *testing.T) {
	out := &lockedBuffer{}
	logger := logging.NewLoggerTo(out, "info")

	wrapped := cron.Recover(jobs.NewCronLogger(logger))(cron.FuncJob(func() { panic("boom") }))
	require.NotPanics(t, wrapped.Run)

	line := out.String()
	assert.Contains(t, line, `"level":"ERROR"`)
	assert.Contains(t, line, `"component":"cron"`)
	assert.Contains(t, line, "boom")
}

func TestPresencePollJob_PanicGoesToJobLogger(t *testing.T) {
	out := &lockedBuffer{}
	p := &MockPresence{}
	p.On("Resync", mock.Anything).Run(func(mock.Arguments) { panic("store exploded") }).Return(false, nil)

	j := jobs.NewPresencePollJob("* * * * * *", p, logging.NewLoggerTo(out, "info"))
	require.NoError(t, j.Start())
	defer j.Stop()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "store exploded")
	}, 3*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), `"level":"ERROR"`)
}
