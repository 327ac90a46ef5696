package http

import (
	"context"
	"io"
	"net/url"

	"growthdash/internal/services"
)

// DashboardServiceInterface defines the dashboard operations used by the handlers
type DashboardServiceInterface interface {
	Upload(ctx context.Context, fileName string, r io.Reader) (*services.DatasetSummary, error)
	Summary(ctx context.Context, id string) (*services.DatasetSummary, error)
	View(ctx context.Context, id string, q url.Values) (*services.Dashboard, error)
	Chart(ctx context.Context, id, view, metricID string, q url.Values) ([]byte, error)
	Remove(ctx context.Context, id string) bool
}
