package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureHandler(t *testing.T) {
	t.Run("captures records with logger attrs", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger = logger.With(slog.String("component", "loader"))

		logger.Info("workbook loaded", slog.Int("records", 3))
		logger.Error("load failed")

		rec, ok := handler.Find(slog.LevelInfo, "workbook loaded")
		require.True(t, ok)
		assert.Equal(t, "loader", rec.Attrs["component"])
		assert.EqualValues(t, 3, rec.Attrs["records"])
		assert.Len(t, handler.Records(), 2)
	})

	t.Run("counts by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Warn("warn msg")
		logger.Warn("another warning")

		assert.Equal(t, 2, handler.Count(slog.LevelWarn))
		assert.Equal(t, 0, handler.Count(slog.LevelError))
		_, found := handler.Find(slog.LevelError, "warn msg")
		assert.False(t, found)
	})
}
