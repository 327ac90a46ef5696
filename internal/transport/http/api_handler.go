package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "growthdash/internal/errors"
)

// APIHandler serves the JSON view of uploaded datasets with RFC 7807 errors
type APIHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "api_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes. Upload size limits are applied by the caller.
func (h *APIHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Upload)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetSummary)
		r.Delete("/", h.Remove)
		r.Get("/companies", h.GetCompanies)
		r.Get("/sectors", h.GetSectors)
	})
	return r
}

// Upload handles POST /api/datasets
func (h *APIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := readUpload(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer file.Close()

	summary, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	status := http.StatusCreated
	if summary.Cached {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/api/datasets/"+summary.ID)
	render.Status(r, status)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetSummary handles GET /api/datasets/{id}
func (h *APIHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetCompanies handles GET /api/datasets/{id}/companies?metric=&sector=
func (h *APIHandler) GetCompanies(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.View(r.Context(), chi.URLParam(r, "id"), r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":    "success",
		"selection": dash.View.Selection,
		"data":      dash.View.Companies,
		"count":     len(dash.View.Companies),
	})
}

// GetSectors handles GET /api/datasets/{id}/sectors?metric=&sector=
func (h *APIHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.View(r.Context(), chi.URLParam(r, "id"), r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":    "success",
		"selection": dash.View.Selection,
		"data":      dash.View.Sectors,
		"options":   dash.View.Options,
		"count":     len(dash.View.Sectors),
	})
}

// Remove handles DELETE /api/datasets/{id}
func (h *APIHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.service.Remove(r.Context(), id) {
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotFound)
		return
	}

	h.logger.DebugContext(r.Context(), "dataset removed via api",
		slog.String("dataset_id", id))
	w.WriteHeader(http.StatusNoContent)
}
