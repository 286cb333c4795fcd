package tags

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"Pothole on #MainSt is bad #MAINST", []string{"mainst"}},
		{"Pothole needs fix #roadwork", []string{"roadwork"}},
		{"no tags here", []string{}},
		{"#a_b #A_B #c1 # #-x", []string{"a_b", "c1"}},
		{"glued#Tag and #tag2,#Tag", []string{"tag", "tag2"}},
		{"", []string{}},
	}
	for _, c := range cases {
		got := Extract(c.text)
		require.NotNil(t, got, "Extract(%q)", c.text)
		assert.Equal(t, c.want, got, "Extract(%q)", c.text)
	}
}

func TestTopOrdersByCountThenTag(t *testing.T) {
	counts := Count(
		[]string{"roadwork", "Pothole"},
		[]string{"pothole", "light"},
		[]string{"bridge", "light"},
		[]string{"pothole"},
	)
	top := Top(counts, 3)
	assert.Equal(t, []TagCount{
		{Tag: "pothole", Count: 3},
		{Tag: "light", Count: 2},
		{Tag: "bridge", Count: 1},
	}, top)
}

func TestTopLimitsToN(t *testing.T) {
	counts := map[string]int{}
	for i := 0; i < 15; i++ {
		counts[string(rune('a'+i))] = i + 1
	}
	top := Top(counts, TrendingLimit)
	require.Len(t, top, TrendingLimit)
	assert.Equal(t, "o", top[0].Tag)
	assert.Equal(t, 15, top[0].Count)
}

func TestTrendingCacheServesStaleWhileRefreshing(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	source := func(ctx context.Context) (map[string]int, error) {
		n := calls.Add(1)
		if n > 1 {
			<-release
			return map[string]int{"fresh": 1}, nil
		}
		return map[string]int{"stale": 1}, nil
	}

	now := time.Unix(0, 0)
	cache := NewTrendingCache(source, time.Minute)
	cache.now = func() time.Time { return now }

	top, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stale", top[0].Tag)

	now = now.Add(2 * time.Minute)
	top, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stale", top[0].Tag, "stale entry is served during refresh")

	close(release)
	require.Eventually(t, func() bool {
		top, _ := cache.Get(context.Background())
		return top[0].Tag == "fresh"
	}, time.Second, 5*time.Millisecond)
}

func TestTrendingCacheWithoutTTLAlwaysLoads(t *testing.T) {
	var calls atomic.Int32
	cache := NewTrendingCache(func(ctx context.Context) (map[string]int, error) {
		calls.Add(1)
		return map[string]int{"x": 1}, nil
	}, 0)

	for i := 0; i < 3; i++ {
		_, err := cache.Get(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestTrendingCachePropagatesInitialLoadError(t *testing.T) {
	boom := errors.New("boom")
	cache := NewTrendingCache(func(ctx context.Context) (map[string]int, error) {
		return nil, boom
	}, time.Minute)

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

type recordingHandler struct {
	mu       sync.Mutex
	messages []string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, r.Message)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) seen(msg string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.messages {
		if m == msg {
			return true
		}
	}
	return false
}

func TestTrendingCacheLogsFailedBackgroundRefresh(t *testing.T) {
	rec := &recordingHandler{}
	prev := slog.Default()
	slog.SetDefault(slog.New(rec))
	t.Cleanup(func() { slog.SetDefault(prev) })

	var calls atomic.Int32
	source := func(ctx context.Context) (map[string]int, error) {
		if calls.Add(1) > 1 {
			return nil, errors.New("db down")
		}
		return map[string]int{"stale": 1}, nil
	}
	now := time.Unix(0, 0)
	cache := NewTrendingCache(source, time.Minute)
	cache.now = func() time.Time { return now }

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	top, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stale", top[0].Tag)

	require.Eventually(t, func() bool {
		return rec.seen("trending tags refresh failed")
	}, time.Second, 5*time.Millisecond)
}
