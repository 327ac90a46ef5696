package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"growthdash/internal/cache"
	"growthdash/internal/charts"
	"growthdash/internal/dataprocessing"
	apierrors "growthdash/internal/errors"
	"growthdash/internal/infrastructure"
	"growthdash/internal/validation"
	"growthdash/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of dashboard spans
const TracerName = "growthdash.dashboard"

// Pipeline stage names used in spans and metrics
const (
	StageLoad      = "load"
	StageGrowth    = "growth"
	StageAggregate = "aggregate"
	StageFilter    = "filter"
	StageChart     = "chart"
)

// DatasetStore holds loaded datasets by content address
type DatasetStore interface {
	GetOrLoad(ctx context.Context, data []byte, load cache.LoadFunc) (*domain.Dataset, bool, error)
	Get(id string) (*domain.Dataset, bool)
	Remove(id string) bool
}

// WorkbookLoader parses an uploaded workbook
type WorkbookLoader interface {
	Load(r io.Reader) (*domain.Dataset, error)
}

// ChartRenderer draws a chart of a dashboard view
type ChartRenderer interface {
	Render(view charts.View, dv domain.DashboardView, m domain.Metric) ([]byte, error)
}

// DatasetSummary describes a loaded dataset without its rows
type DatasetSummary struct {
	ID         string                `json:"id"`
	FileName   string                `json:"file_name"`
	LoadedAt   time.Time             `json:"loaded_at"`
	SizeBytes  int64                 `json:"size_bytes"`
	Companies  int                   `json:"companies"`
	Unassigned int                   `json:"unassigned_companies"`
	Sectors    []domain.SectorOption `json:"sectors"`
	Warnings   []domain.LoadWarning  `json:"warnings"`
	Cached     bool                  `json:"cached"`
}

// Dashboard is everything rendered for one dashboard request
type Dashboard struct {
	Summary DatasetSummary       `json:"summary"`
	View    domain.DashboardView `json:"view"`
}

// DashboardService runs the load, growth, aggregation and filter pipeline
// for uploaded workbooks
type DashboardService struct {
	store      DatasetStore
	loader     WorkbookLoader
	files      *validation.FileValidator
	selections *validation.Validator
	charts     ChartRenderer
	tracer     trace.Tracer
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// NewDashboardService creates a dashboard service. A nil metrics value
// disables metric recording.
func NewDashboardService(
	store DatasetStore,
	loader WorkbookLoader,
	files *validation.FileValidator,
	selections *validation.Validator,
	renderer ChartRenderer,
	metrics *infrastructure.BusinessMetrics,
	logger *slog.Logger,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if selections == nil {
		selections = validation.New(logger)
	}
	if files == nil {
		files = validation.NewFileValidator(selections, 0, logger)
	}

	return &DashboardService{
		store:      store,
		loader:     loader,
		files:      files,
		selections: selections,
		charts:     renderer,
		tracer:     otel.Tracer(TracerName),
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "dashboard_service")),
	}
}

// Upload validates and loads a workbook. Identical content is loaded once and
// shares one dataset ID; the first upload's file name is kept.
func (s *DashboardService) Upload(ctx context.Context, fileName string, r io.Reader) (*DatasetSummary, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.upload",
		trace.WithAttributes(attribute.String("file.name", fileName)))
	defer span.End()

	data, err := io.ReadAll(r)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidUpload, apierrors.InvalidRequestWithError(err))
	}
	span.SetAttributes(attribute.Int("file.size", len(data)))

	if err := s.files.ValidateUpload(fileName, data); err != nil {
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("file", fileName),
			slog.String("reason", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}

	ds, hit, err := s.store.GetOrLoad(ctx, data, func(ctx context.Context, data []byte) (*domain.Dataset, error) {
		return s.load(ctx, fileName, data)
	})
	infrastructure.RecordCacheLookup(ctx, s.metrics, hit)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "workbook load failed",
			slog.String("file", fileName),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrWorkbookInvalid, err)
	}

	span.SetAttributes(
		attribute.String("dataset.id", ds.ID),
		attribute.Bool("cache.hit", hit),
	)
	s.logger.InfoContext(ctx, "workbook uploaded",
		slog.String("dataset_id", ds.ID),
		slog.String("file", fileName),
		slog.Int("records", len(ds.Records)),
		slog.Int("warnings", len(ds.Warnings)),
		slog.Bool("cache_hit", hit))

	summary := Summarize(ds)
	summary.Cached = hit
	return &summary, nil
}

// load parses workbook bytes under a span and records load metrics
func (s *DashboardService) load(ctx context.Context, fileName string, data []byte) (*domain.Dataset, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.stage."+StageLoad)
	defer span.End()

	start := time.Now()
	ds, err := s.loader.Load(bytes.NewReader(data))
	elapsed := time.Since(start)

	records := 0
	if ds != nil {
		records = len(ds.Records)
	}
	infrastructure.RecordWorkbookLoad(ctx, s.metrics, int64(len(data)), records, elapsed, err)
	infrastructure.RecordStageMetrics(ctx, s.metrics, StageLoad, elapsed, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	ds.FileName = fileName
	span.SetAttributes(attribute.Int("dataset.records", records))
	return ds, nil
}

// Dataset returns a cached dataset
func (s *DashboardService) Dataset(ctx context.Context, id string) (*domain.Dataset, error) {
	ds, ok := s.store.Get(id)
	infrastructure.RecordCacheLookup(ctx, s.metrics, ok)
	if !ok {
		s.logger.DebugContext(ctx, "dataset not in cache", slog.String("dataset_id", id))
		return nil, fmt.Errorf("%w: %w", ErrDatasetNotFound, apierrors.ErrDatasetNotFound)
	}
	return ds, nil
}

// Summary returns the summary of a cached dataset
func (s *DashboardService) Summary(ctx context.Context, id string) (*DatasetSummary, error) {
	ds, err := s.Dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := Summarize(ds)
	summary.Cached = true
	return &summary, nil
}

// View runs the growth, aggregation and filter stages for a dataset and the
// metric and sector filter in q
func (s *DashboardService) View(ctx context.Context, id string, q url.Values) (*Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.view",
		trace.WithAttributes(attribute.String("dataset.id", id)))
	defer span.End()

	sel, err := s.selections.ParseSelection(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSelection, err)
	}

	ds, err := s.Dataset(ctx, id)
	if err != nil {
		return nil, err
	}

	view := s.run(ctx, ds, sel)
	span.SetAttributes(
		attribute.Int("view.companies", len(view.Companies)),
		attribute.Int("view.sectors", len(view.Sectors)),
	)

	summary := Summarize(ds)
	summary.Cached = true
	return &Dashboard{Summary: summary, View: view}, nil
}

// Chart renders one metric of a dataset as an SVG bar chart. Sector filters
// are read from q; the metric comes from metricID.
func (s *DashboardService) Chart(ctx context.Context, id, viewName, metricID string, q url.Values) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.chart",
		trace.WithAttributes(
			attribute.String("dataset.id", id),
			attribute.String("chart.view", viewName),
			attribute.String("chart.metric", metricID),
		))
	defer span.End()

	view, err := charts.ParseView(viewName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSelection, apierrors.ErrValidation("view", err.Error()))
	}

	chartQuery := url.Values{
		validation.ParamMetric:       {metricID},
		validation.ParamSector:       q[validation.ParamSector],
		validation.ParamSectorFilter: q[validation.ParamSectorFilter],
	}
	sel, err := s.selections.ParseSelection(chartQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSelection, err)
	}

	ds, err := s.Dataset(ctx, id)
	if err != nil {
		return nil, err
	}

	dv := s.run(ctx, ds, sel)
	metric := dv.Selection.Metrics[0]

	var svg []byte
	err = s.stage(ctx, StageChart, func() error {
		var renderErr error
		svg, renderErr = s.charts.Render(view, dv, metric)
		return renderErr
	})
	if err != nil {
		s.logFailure(ctx, "chart", "chart rendering failed", err,
			slog.String("dataset_id", id),
			slog.String("view", string(view)),
			slog.String("metric", metric.ID()))
		return nil, fmt.Errorf("render %s chart: %w", view, err)
	}

	infrastructure.RecordChartRendered(ctx, s.metrics, string(view), metric.ID())
	return svg, nil
}

// Remove evicts a dataset. It reports whether the dataset was cached.
func (s *DashboardService) Remove(ctx context.Context, id string) bool {
	removed := s.store.Remove(id)
	s.logger.InfoContext(ctx, "dataset removed",
		slog.String("dataset_id", id),
		slog.Bool("was_cached", removed))
	return removed
}

// run computes growth and sector medians for every company and projects them
// onto the selection
func (s *DashboardService) run(ctx context.Context, ds *domain.Dataset, sel domain.Selection) domain.DashboardView {
	var (
		growth  []domain.GrowthRecord
		sectors []domain.SectorGrowthRecord
		view    domain.DashboardView
	)
	s.stage(ctx, StageGrowth, func() error {
		growth = dataprocessing.CalculateGrowth(ds.Records)
		return nil
	})
	s.stage(ctx, StageAggregate, func() error {
		sectors = dataprocessing.AggregateSectors(growth)
		return nil
	})
	s.stage(ctx, StageFilter, func() error {
		view = dataprocessing.ApplyFilter(growth, sectors, sel)
		return nil
	})
	return view
}

// stage runs fn under a child span and records its duration
func (s *DashboardService) stage(ctx context.Context, name string, fn func() error) error {
	ctx, span := s.tracer.Start(ctx, "dashboard.stage."+name)
	defer span.End()

	start := time.Now()
	err := fn()
	infrastructure.RecordStageMetrics(ctx, s.metrics, name, time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	return err
}

// Summarize describes a dataset without its rows
func Summarize(ds *domain.Dataset) DatasetSummary {
	summary := DatasetSummary{
		ID:        ds.ID,
		FileName:  ds.FileName,
		LoadedAt:  ds.LoadedAt,
		SizeBytes: ds.SizeBytes,
		Companies: len(ds.Records),
		Sectors:   []domain.SectorOption{},
		Warnings:  ds.Warnings,
	}
	if summary.Warnings == nil {
		summary.Warnings = []domain.LoadWarning{}
	}

	for _, rec := range ds.Records {
		if !rec.Sector.Known {
			summary.Unassigned++
		}
	}
	for _, sec := range ds.Sectors() {
		summary.Sectors = append(summary.Sectors, domain.SectorOption{
			Key:   sec.Key(),
			Label: sec.Label(),
		})
	}
	return summary
}
