package http

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "growthdash/internal/errors"
	"growthdash/internal/services"
	"growthdash/internal/validation"
	"growthdash/pkg/contracts/domain"
)

// PageTitle is the heading of every dashboard page
const PageTitle = "Companies Growth Dashboard"

// NoticeDatasetGone is shown when a dashboard URL refers to a dataset that
// is no longer cached
const NoticeDatasetGone = "This workbook is no longer loaded. Upload it again to continue."

//go:embed templates/dashboard.html
var dashboardTemplate string

// metricOption is a metric checkbox of the filter form
type metricOption struct {
	ID       string
	Name     string
	Selected bool
}

// dashboardPage is the template data of the dashboard page
type dashboardPage struct {
	Title     string
	Notice    string
	Error     string
	Dashboard *services.Dashboard
	Metrics   []metricOption
}

// DashboardHandler serves the HTML dashboard
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	tmpl         *template.Template
}

// NewDashboardHandler creates the HTML handler and parses its template
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*DashboardHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.New("dashboard").Funcs(template.FuncMap{
		"pct":        formatPercent,
		"slots":      slotSummary,
		"chartURL":   chartURL,
		"allMetrics": domain.AllMetrics,
		"columns":    func(base int, metrics []domain.Metric) int { return base + len(metrics) },
	}).Parse(dashboardTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}

	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		tmpl:         tmpl,
	}, nil
}

// RegisterRoutes mounts the dashboard pages on r. uploadMiddlewares wrap only
// the upload endpoint.
func (h *DashboardHandler) RegisterRoutes(r chi.Router, uploadMiddlewares ...func(http.Handler) http.Handler) {
	r.Get("/", h.Index)
	r.With(uploadMiddlewares...).Post("/upload", h.Upload)
	r.Route("/datasets/{id}", func(r chi.Router) {
		r.Get("/", h.Show)
		r.Post("/remove", h.Remove)
		r.Get("/charts/{view}/{metric}.svg", h.Chart)
	})
}

// Index handles GET / with the upload prompt
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, dashboardPage{})
}

// Upload handles POST /upload and redirects to the loaded dataset
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := readUpload(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	defer file.Close()

	summary, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/datasets/"+url.PathEscape(summary.ID), http.StatusSeeOther)
}

// Show handles GET /datasets/{id}?metric=&sector=
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dash, err := h.service.View(r.Context(), id, r.URL.Query())
	switch {
	case err == nil:
		h.render(w, r, http.StatusOK, h.page(dash))

	case errors.Is(err, services.ErrDatasetNotFound):
		h.render(w, r, http.StatusNotFound, dashboardPage{Notice: NoticeDatasetGone})

	case errors.Is(err, services.ErrInvalidSelection):
		// Fall back to the default selection and explain what was ignored
		fallback, fbErr := h.service.View(r.Context(), id, url.Values{})
		if fbErr != nil {
			h.renderError(w, r, fbErr)
			return
		}
		page := h.page(fallback)
		page.Error = h.message(err, r)
		h.render(w, r, http.StatusBadRequest, page)

	default:
		h.renderError(w, r, err)
	}
}

// Remove handles POST /datasets/{id}/remove
func (h *DashboardHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.service.Remove(r.Context(), chi.URLParam(r, "id"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Chart handles GET /datasets/{id}/charts/{view}/{metric}.svg?sector=
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	svg, err := h.service.Chart(r.Context(),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "view"),
		chi.URLParam(r, "metric"),
		r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(svg); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write chart", slog.String("error", err.Error()))
	}
}

func (h *DashboardHandler) page(dash *services.Dashboard) dashboardPage {
	selected := make(map[domain.Metric]bool, len(dash.View.Selection.Metrics))
	for _, m := range dash.View.Selection.Metrics {
		selected[m] = true
	}

	metrics := make([]metricOption, 0, len(domain.AllMetrics()))
	for _, m := range domain.AllMetrics() {
		metrics = append(metrics, metricOption{ID: m.ID(), Name: m.Name(), Selected: selected[m]})
	}
	return dashboardPage{Dashboard: dash, Metrics: metrics}
}

// renderError shows the upload prompt with the error's user-facing message
func (h *DashboardHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	problem := h.errorHandler.ErrorToProblem(err, r)
	if problem.Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "dashboard request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	h.render(w, r, problem.Status, dashboardPage{Error: problemMessage(problem)})
}

func (h *DashboardHandler) message(err error, r *http.Request) string {
	return problemMessage(h.errorHandler.ErrorToProblem(err, r))
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, status int, page dashboardPage) {
	page.Title = PageTitle

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, page); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render dashboard",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write dashboard", slog.String("error", err.Error()))
	}
}

// problemMessage flattens a problem's detail and field errors into one line
func problemMessage(p *apierrors.ProblemDetails) string {
	msg := p.Detail
	switch d := p.Extensions["details"].(type) {
	case apierrors.ValidationErrors:
		parts := make([]string, 0, len(d.Errors))
		for _, fe := range d.Errors {
			parts = append(parts, fe.Message)
		}
		if len(parts) > 0 {
			msg += ": " + strings.Join(parts, "; ")
		}
	case apierrors.ValidationError:
		msg += ": " + d.Message
	case string:
		msg += ": " + d
	}
	return msg
}

func formatPercent(v domain.Value) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Float)
}

// slotSummary describes the four period-over-period changes of a metric
func slotSummary(g domain.GrowthRecord, m domain.Metric) string {
	cols := m.Columns()
	mg := g.Metrics[m]
	parts := make([]string, 0, len(mg.Slots))
	for i, s := range mg.Slots {
		value := s.Status.String()
		if s.Defined() {
			value = fmt.Sprintf("%.2f%%", s.Value)
		}
		parts = append(parts, fmt.Sprintf("%s to %s: %s", offsetLabel(cols[i]), offsetLabel(cols[i+1]), value))
	}
	return strings.Join(parts, ", ")
}

// offsetLabel extracts "LTM - 4" from "Total Revenue [LTM - 4]"
func offsetLabel(column string) string {
	start := strings.LastIndex(column, "[")
	end := strings.LastIndex(column, "]")
	if start < 0 || end <= start {
		return column
	}
	return column[start+1 : end]
}

// chartURL links the chart of one metric under the page's sector filter
func chartURL(id, view string, m domain.Metric, sel domain.Selection) string {
	q := validation.SelectionValues(domain.Selection{Sectors: sel.Sectors, SectorFilter: sel.SectorFilter})
	return fmt.Sprintf("/datasets/%s/charts/%s/%s.svg?%s",
		url.PathEscape(id), view, url.PathEscape(m.ID()), q.Encode())
}
