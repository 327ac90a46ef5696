package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthdash/internal/cache"
	"growthdash/internal/charts"
	"growthdash/internal/config"
	"growthdash/internal/dataprocessing"
	apierrors "growthdash/internal/errors"
	"growthdash/internal/services"
	"growthdash/internal/shared/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	store := cache.New(cache.Options{MaxEntries: 4})
	t.Cleanup(store.Stop)

	svc := services.NewDashboardService(store, dataprocessing.NewLoader(logger), nil, nil,
		charts.NewRenderer(config.ChartsConfig{Width: 6, Height: 3}, logger), nil, logger)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	dash, err := NewDashboardHandler(svc, logger, errorHandler)
	require.NoError(t, err)

	r := chi.NewRouter()
	dash.RegisterRoutes(r)
	r.Mount("/api/datasets", NewAPIHandler(svc, logger, errorHandler).Routes())
	return r
}

func multipartUpload(t *testing.T, target, fileName string, content io.Reader) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := mw.CreateFormFile(UploadField, fileName)
		require.NoError(t, err)
		_, err = io.Copy(part, content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file attached"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// uploadSample posts the sample workbook through the HTML form and returns
// the dashboard URL it redirects to
func uploadSample(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := serve(h, multipartUpload(t, "/upload", "financials.xlsx", testutil.SampleWorkbook(t)))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/datasets/"))
	return location
}

func TestDashboardHandler_Index(t *testing.T) {
	h := newTestRouter(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Companies Growth Dashboard</title>")
	assert.Contains(t, body, `enctype="multipart/form-data"`)
	assert.NotContains(t, body, "Detailed Insights")
}

func TestDashboardHandler_UploadAndShow(t *testing.T) {
	h := newTestRouter(t)
	location := uploadSample(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodGet, location, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, want := range []string{
		"Company Growth",
		"Sector Comparison",
		"Detailed Insights",
		"financials.xlsx",
		"NSE:AAA",
		"NSE:XYZ",
		"Unassigned",
		"15.00",
		"/charts/company/Total_Revenue.svg",
		"/charts/sector/Total_Revenue.svg",
	} {
		assert.Contains(t, body, want)
	}
}

func TestDashboardHandler_FilterBySector(t *testing.T) {
	h := newTestRouter(t)
	location := uploadSample(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodGet, location+"?metric=Net_Income&sector=Finance", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<td>NSE:BBB</td>")
	assert.NotContains(t, body, "<td>NSE:AAA</td>")
	assert.Contains(t, body, "/charts/company/Net_Income.svg?sector=Finance")
}

func TestDashboardHandler_UnknownSectorKeepsChartsInStep(t *testing.T) {
	h := newTestRouter(t)
	location := uploadSample(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodGet, location+"?sector=Bogus", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "No companies match the selected sectors.")
	assert.NotContains(t, body, "<td>NSE:AAA</td>")
	assert.Contains(t, body, `/charts/company/Total_Revenue.svg?sector_filter=1"`)
	assert.Contains(t, body, `/charts/sector/Total_Revenue.svg?sector_filter=1"`)

	for _, view := range []string{"company", "sector"} {
		t.Run(view, func(t *testing.T) {
			chart := location + "/charts/" + view + "/Total_Revenue.svg"

			rec := serve(h, httptest.NewRequest(http.MethodGet, chart+"?sector=Bogus", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.NotContains(t, rec.Body.String(), "NSE:AAA")
			assert.NotContains(t, rec.Body.String(), "Finance")

			rec = serve(h, httptest.NewRequest(http.MethodGet, chart+"?sector_filter=1", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.NotContains(t, rec.Body.String(), "Finance")

			rec = serve(h, httptest.NewRequest(http.MethodGet, chart, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "Finance")
		})
	}
}

func TestDashboardHandler_NoSectorTicked(t *testing.T) {
	h := newTestRouter(t)
	location := uploadSample(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodGet, location+"?metric=EBITDA&sector_filter=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "No companies match the selected sectors.")
	assert.Contains(t, body, "No sectors selected.")
	assert.NotContains(t, body, "checked> Tech")

	rec = serve(h, httptest.NewRequest(http.MethodGet, location+"?metric=EBITDA", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>NSE:AAA</td>")
	assert.Contains(t, rec.Body.String(), `name="sector_filter"`)
}

func TestDashboardHandler_SectorTableShowsEveryMetric(t *testing.T) {
	h := newTestRouter(t)
	location := uploadSample(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodGet, location+"?metric=EBITDA", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<th>Median Total Revenue Growth (%)</th>")
	assert.Contains(t, body, "<th>Median Net Income Growth (%)</th>")
	assert.Contains(t, body, "<th>Median EBITDA Growth (%)</th>")
	assert.NotContains(t, body, "<th>Net Income Growth (%)</th>")
}

func TestDashboardHandler_InvalidMetricFallsBack(t *testing.T) {
	h := newTestRouter(t)
	location := uploadSample(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodGet, location+"?metric=Gross_Margin", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `class="error"`)
	assert.Contains(t, body, "Total_Revenue")
	assert.Contains(t, body, "Detailed Insights")
}

func TestDashboardHandler_UploadErrors(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		content    io.Reader
		wantStatus int
	}{
		{
			name:       "missing file field",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "csv upload",
			fileName:   "financials.csv",
			content:    strings.NewReader("Exchange:Ticker,Company Name\n"),
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:       "single sheet workbook",
			fileName:   "one-sheet.xlsx",
			content:    testutil.BuildWorkbook(t, [][]interface{}{testutil.FinancialHeader()}, nil),
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t)

			rec := serve(h, multipartUpload(t, "/upload", tt.fileName, tt.content))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, `class="error"`)
			assert.Contains(t, body, `enctype="multipart/form-data"`)
		})
	}
}

func TestDashboardHandler_UnknownDatasetShowsNotice(t *testing.T) {
	h := newTestRouter(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/datasets/0123abcd", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "no longer loaded")
	assert.Contains(t, body, `enctype="multipart/form-data"`)
}

func TestDashboardHandler_Remove(t *testing.T) {
	h := newTestRouter(t)
	location := uploadSample(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodPost, location+"/remove", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, location, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardHandler_Chart(t *testing.T) {
	h := newTestRouter(t)
	location := uploadSample(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodGet, location+"/charts/sector/EBITDA.svg?sector=Tech", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = serve(h, httptest.NewRequest(http.MethodGet, location+"/charts/pie/EBITDA.svg", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIHandler_Datasets(t *testing.T) {
	h := newTestRouter(t)

	rec := serve(h, multipartUpload(t, "/api/datasets", "financials.xlsx", testutil.SampleWorkbook(t)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Status string                  `json:"status"`
		Data   services.DatasetSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "success", created.Status)
	assert.Equal(t, 5, created.Data.Companies)
	id := created.Data.ID
	assert.Equal(t, "/api/datasets/"+id, rec.Header().Get("Location"))

	t.Run("same content is not parsed twice", func(t *testing.T) {
		rec := serve(h, multipartUpload(t, "/api/datasets", "copy.xlsx", testutil.SampleWorkbook(t)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("summary", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/datasets/"+id, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"unassigned_companies":2`)
	})

	t.Run("companies filtered by sector", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/datasets/"+id+"/companies?sector=Tech", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Count int `json:"count"`
			Data  []struct {
				Ticker  string `json:"ticker"`
				Metrics map[string]struct {
					Average *float64 `json:"average"`
				} `json:"metrics"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		require.NotNil(t, resp.Data[0].Metrics["Total_Revenue"].Average)
		assert.InDelta(t, 10.0, *resp.Data[0].Metrics["Total_Revenue"].Average, 1e-9)
	})

	t.Run("sectors", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/datasets/"+id+"/sectors?metric=EBITDA", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"EBITDA"`)
	})

	t.Run("invalid metric", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/datasets/"+id+"/companies?metric=Gross_Margin", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
	})

	t.Run("delete", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodDelete, "/api/datasets/"+id, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/datasets/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "DATASET_NOT_FOUND")
	})
}

func TestAPIHandler_UploadRejectsNonWorkbook(t *testing.T) {
	h := newTestRouter(t)

	rec := serve(h, multipartUpload(t, "/api/datasets", "notes.xlsx", strings.NewReader("not a zip")))

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNSUPPORTED_FILE")
}

func TestProblemMessage(t *testing.T) {
	p := apierrors.NewProblemDetails(http.StatusBadRequest, apierrors.TypeValidation, "Bad Request", "Request validation failed", "/")
	p.WithExtension("details", apierrors.ValidationErrors{Errors: []apierrors.ValidationError{
		{Field: "metric[0]", Message: "metric[0] must be one of: Total_Revenue, Net_Income, EBITDA"},
	}})

	assert.Equal(t, "Request validation failed: metric[0] must be one of: Total_Revenue, Net_Income, EBITDA", problemMessage(p))
}

func TestSlotSummary(t *testing.T) {
	h := newTestRouter(t)
	location := uploadSample(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodGet, location, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	// AAA's second and third revenue slots touch the missing LTM - 8 snapshot
	assert.Contains(t, rec.Body.String(), "LTM - 16 to LTM - 12: 10.00%, LTM - 12 to LTM - 8: missing_input")
}
