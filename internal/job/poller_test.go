package job

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/errors"
	"github.com/felixgeelhaar/vibecoder/internal/log"
)

// progressScript serves a fixed sequence of progress responses, repeating
// the last one once exhausted. A negative status code fails that fetch.
type progressScript struct {
	mu        sync.Mutex
	responses []progressFrame
	served    int
}

type progressFrame struct {
	progress api.JobProgress
	status   int
}

func (s *progressScript) next() progressFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.served
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.served++
	return s.responses[idx]
}

func (s *progressScript) handler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		frame := s.next()
		if frame.status != 0 {
			w.WriteHeader(frame.status)
			return
		}
		json.NewEncoder(w).Encode(frame.progress)
	})
}

func fastPoller(t *testing.T, handler http.Handler, maxAttempts int) *Poller {
	t.Helper()
	server := newTestServer(t, handler)
	return NewPoller(api.NewClient(server.URL),
		WithInterval(time.Millisecond),
		WithMaxAttempts(maxAttempts))
}

func TestPollStopsAtTerminalStatus(t *testing.T) {
	script := &progressScript{responses: []progressFrame{
		{progress: api.JobProgress{Status: api.JobStatusStarting, ProgressPercentage: 0}},
		{progress: api.JobProgress{Status: api.JobStatusExecuting, ProgressPercentage: 40, CurrentStep: "Add handler"}},
		{progress: api.JobProgress{Status: api.JobStatusCompleted, ProgressPercentage: 100}},
	}}

	var updates []Update
	poller := fastPoller(t, script.handler(t), 10)
	final, err := poller.Poll(context.Background(), "job-1", func(u Update) {
		updates = append(updates, u)
	})
	require.NoError(t, err)

	assert.Equal(t, api.JobStatusCompleted, final.Status)
	require.Len(t, updates, 3)
	assert.Equal(t, 1, updates[0].Attempt)
	assert.Equal(t, 3, updates[2].Attempt)
	assert.Equal(t, "Add handler", updates[1].Progress.CurrentStep)
}

func TestPollTimesOutAtAttemptCeiling(t *testing.T) {
	script := &progressScript{responses: []progressFrame{
		{progress: api.JobProgress{Status: api.JobStatusExecuting, ProgressPercentage: 50}},
	}}

	var ticks int
	poller := fastPoller(t, script.handler(t), 5)
	_, err := poller.Poll(context.Background(), "job-1", func(Update) { ticks++ })
	require.Error(t, err)

	assert.True(t, errors.IsTimeout(err))
	assert.Equal(t, 5, ticks, "every attempt reports progress before the ceiling")
}

func TestPollToleratesFetchFailures(t *testing.T) {
	script := &progressScript{responses: []progressFrame{
		{progress: api.JobProgress{Status: api.JobStatusExecuting, ProgressPercentage: 30}},
		{status: http.StatusBadGateway},
		{status: http.StatusBadGateway},
		{progress: api.JobProgress{Status: api.JobStatusCompleted, ProgressPercentage: 100}},
	}}

	var updates []Update
	poller := fastPoller(t, script.handler(t), 10)
	final, err := poller.Poll(context.Background(), "job-1", func(u Update) {
		updates = append(updates, u)
	})
	require.NoError(t, err)

	assert.Equal(t, api.JobStatusCompleted, final.Status)
	require.Len(t, updates, 4)
	assert.Error(t, updates[1].Err)
	assert.Equal(t, 30, updates[1].Progress.ProgressPercentage,
		"failed fetch reports the last known snapshot")
	assert.Equal(t, 2, updates[1].Attempt, "attempt counter advances on failed fetches")
	assert.NoError(t, updates[3].Err)
}

func TestPollFailedJobStatusIsTerminal(t *testing.T) {
	script := &progressScript{responses: []progressFrame{
		{progress: api.JobProgress{Status: api.JobStatusFailed, Message: "compile error"}},
	}}

	poller := fastPoller(t, script.handler(t), 10)
	final, err := poller.Poll(context.Background(), "job-1", nil)
	require.NoError(t, err)
	assert.Equal(t, api.JobStatusFailed, final.Status)
}

func TestPollHonorsContextCancellation(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(api.JobProgress{Status: api.JobStatusExecuting})
	})
	server := newTestServer(t, handler)
	poller := NewPoller(api.NewClient(server.URL),
		WithInterval(50*time.Millisecond), WithMaxAttempts(100))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(120 * time.Millisecond)
		cancel()
	}()

	_, err := poller.Poll(ctx, "job-1", nil)
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.Less(t, calls.Load(), int32(100))
}

func TestNewPollerUsesProcessLogger(t *testing.T) {
	configured := log.New(log.Config{Level: log.LevelError, Format: log.FormatText, Output: log.OutputStderr()})
	log.SetDefaultLogger(configured)
	t.Cleanup(func() { log.SetDefaultLogger(nil) })

	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.JobProgress{Status: api.JobStatusCompleted})
	}))
	poller := NewPoller(api.NewClient(server.URL))
	assert.Same(t, configured, poller.logger)
}
