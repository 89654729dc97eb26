package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler_Captures(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Info("Loaded calibration table", slog.Int("rows", 7))
	logger.Warn("No calibration range covers reading", slog.String("unit", "Hz"))

	require.Equal(t, 2, handler.Count())
	assert.True(t, handler.ContainsMessage("calibration table"))
	assert.True(t, handler.ContainsAttr("rows", int64(7)))
	assert.False(t, handler.ContainsAttr("rows", 7), "ints are stored as int64")

	rec, ok := handler.Find("No calibration range")
	require.True(t, ok)
	assert.Equal(t, slog.LevelWarn, rec.Level)
	unit, ok := rec.Attr("unit")
	assert.True(t, ok)
	assert.Equal(t, "Hz", unit)

	_, ok = handler.Find("missing")
	assert.False(t, ok)
}

func TestBufferedSlogHandler_Levels(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Debug("group skipped")
	logger.Info("file processed")
	logger.Warn("range unresolved")
	logger.Error("export failed")

	assert.Len(t, handler.GetRecordsByLevel(slog.LevelDebug), 1)
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)

	handler.Clear()
	assert.Zero(t, handler.Count())
	AssertNoErrors(t, handler)
}

func TestBufferedSlogHandler_DerivedLoggers(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.With(slog.String("component", "aggregator")).Warn("range not found", slog.String("unit", "Hz"))
	logger.WithGroup("req").Info("done", slog.Int("status", 200))
	logger.WithGroup("req").With(slog.String("method", "POST")).Info("started")

	AssertLogAttr(t, handler, "component", "aggregator")
	AssertLogAttr(t, handler, "unit", "Hz")
	AssertLogAttr(t, handler, "req.status", int64(200))
	AssertLogAttr(t, handler, "req.method", "POST")
	AssertLogContains(t, handler, slog.LevelInfo, "started")
	assert.Equal(t, 3, handler.Count())
}

func TestBufferedSlogHandler_Concurrent(t *testing.T) {
	logger, handler := NewTestLogger(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(group int) {
			defer wg.Done()
			logger.Info("group processed", slog.Int("group", group))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, handler.Count())
}
