package logging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/civix-app/civix-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	mu   sync.Mutex
	logs []models.SystemLog
}

func (c *captured) write(batch []models.SystemLog) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, batch...)
	return nil
}

func TestPGHandlerMapsKnownAttributes(t *testing.T) {
	sink := &captured{}
	h := newPGHandler(sink.write, time.Hour)
	logger := slog.New(h).With("request_id", "req-1")

	logger.Info("ignored")
	logger.Error("upvote failed",
		"action", "upvote",
		"user_id", "u-1",
		"report_id", "r-1",
		"error", "boom",
		"latency_ms", 12.6,
		"attempt", 2,
	)
	h.Stop()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.logs) == 1
	}, time.Second, 10*time.Millisecond)

	got := sink.logs[0]
	assert.Equal(t, "ERROR", got.Level)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, "upvote", got.Action)
	assert.Equal(t, "u-1", *got.UserID)
	assert.Equal(t, "r-1", *got.ReportID)
	assert.Equal(t, "boom", got.Error)
	assert.Equal(t, 13, got.LatencyMs)
	assert.JSONEq(t, `{"attempt":2}`, string(got.Extra))
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("down") }

func TestMultiHandlerContinuesPastFailure(t *testing.T) {
	sink := &captured{}
	pg := newPGHandler(sink.write, time.Hour)
	m := NewMultiHandler(failingHandler{pg}, pg)

	err := slog.New(m).Handler().Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "x", 0))
	assert.Error(t, err)
	pg.Stop()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.logs) == 1
	}, time.Second, 10*time.Millisecond)
}
