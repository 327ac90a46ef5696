package services

import (
	"context"
	"log/slog"
)

// logFailure logs a failed dashboard operation. The trace id is added by the
// logger's handler from ctx.
func (s *DashboardService) logFailure(ctx context.Context, action, message string, err error, attrs ...slog.Attr) {
	allAttrs := []slog.Attr{
		slog.String("action", action),
		slog.String("error", err.Error()),
	}

	allAttrs = append(allAttrs, attrs...)

	s.logger.LogAttrs(ctx, slog.LevelError, message, allAttrs...)
}
