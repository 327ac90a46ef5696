package app

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthdash/internal/config"
	apierrors "growthdash/internal/errors"
	"growthdash/internal/infrastructure"
	"growthdash/internal/shared/testutil"
	"growthdash/pkg/contracts"
)

// newTestApp builds an application from the default configuration with the
// rate limiter off
func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()

	cfg := config.Default()
	cfg.Security.RateLimit.Enabled = false
	cfg.Cache.CleanupInterval = 0
	if mutate != nil {
		mutate(cfg)
	}

	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		a.Cache.Stop()
		_ = a.OTelProviders.Shutdown(context.Background())
	})
	return a
}

func uploadRequest(t *testing.T, target string, content io.Reader) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "financials.xlsx")
	require.NoError(t, err)
	_, err = io.Copy(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(a *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewApplication(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		t.Setenv(config.EnvPrefix+"_CONFIG_FILE", "")
		t.Setenv(config.EnvPrefix+"_SERVER_PORT", "-1")

		_, err := NewApplication()

		require.Error(t, err)
		assert.True(t, apierrors.IsType(err, apierrors.ErrTypeConfig))
		assert.Contains(t, err.Error(), "config validation failed")
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv(config.EnvPrefix+"_LOGGING_LEVEL", "error")
		t.Cleanup(infrastructure.ResetLoggerForTesting)

		a, err := NewApplication()
		require.NoError(t, err)
		t.Cleanup(a.Cache.Stop)

		assert.Equal(t, ":8080", a.Server.Addr)
		assert.NotNil(t, a.Services.Dashboard)
		assert.NotNil(t, a.Services.Health)
		assert.NotNil(t, a.OTelProviders.PrometheusHTTP)
	})
}

func TestApplication_createServer(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Server.Port = 9191
	})

	assert.Equal(t, ":9191", a.Server.Addr)
	assert.Equal(t, a.Config.Server.ReadTimeout, a.Server.ReadTimeout)
	assert.Equal(t, a.Config.Server.WriteTimeout, a.Server.WriteTimeout)
	assert.Equal(t, a.Config.Server.MaxHeaderBytes, a.Server.MaxHeaderBytes)
	assert.Equal(t, a.Router, a.Server.Handler)
}

func TestApplication_Routes(t *testing.T) {
	a := newTestApp(t, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		contains   string
	}{
		{"dashboard index", http.MethodGet, "/", http.StatusOK, "Companies Growth Dashboard"},
		{"health", http.MethodGet, "/api/health", http.StatusOK, `"status":"ok"`},
		{"readiness", http.MethodGet, "/api/health/ready", http.StatusOK, "dataset_cache"},
		{"liveness", http.MethodGet, "/api/health/live", http.StatusOK, "alive"},
		{"version", http.MethodGet, "/api/version", http.StatusOK, `"version":"` + contracts.Version + `"`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "go_goroutines"},
		{"unknown dataset page", http.MethodGet, "/datasets/abc", http.StatusNotFound, "no longer loaded"},
		{"unknown dataset api", http.MethodGet, "/api/datasets/abc", http.StatusNotFound, "DATASET_NOT_FOUND"},
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(a, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}

func TestApplication_Middleware(t *testing.T) {
	a := newTestApp(t, nil)

	rec := do(a, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestApplication_UploadFlow(t *testing.T) {
	a := newTestApp(t, nil)

	rec := do(a, uploadRequest(t, "/upload", testutil.SampleWorkbook(t)))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	location := rec.Header().Get("Location")

	rec = do(a, httptest.NewRequest(http.MethodGet, location+"?metric=Total_Revenue&metric=EBITDA", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Median EBITDA Growth (%)")

	rec = do(a, httptest.NewRequest(http.MethodGet, location+"/charts/company/EBITDA.svg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))

	rec = do(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := rec.Body.String()
	assert.Contains(t, metrics, "workbook_loads_total")
	assert.Contains(t, metrics, "charts_rendered_total")
}

func TestApplication_UploadLimits(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Server.MaxUploadBytes = 512
	})

	t.Run("api body too large", func(t *testing.T) {
		rec := do(a, uploadRequest(t, "/api/datasets", testutil.SampleWorkbook(t)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("html body too large", func(t *testing.T) {
		rec := do(a, uploadRequest(t, "/upload", testutil.SampleWorkbook(t)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("api requires multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/datasets", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")

		rec := do(a, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNSUPPORTED_MEDIA_TYPE")
	})
}

func TestApplication_CacheEvictionIsMeasured(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Cache.MaxEntries = 1
	})

	first := do(a, uploadRequest(t, "/upload", testutil.SampleWorkbook(t)))
	require.Equal(t, http.StatusSeeOther, first.Code)

	other := testutil.BuildWorkbook(t,
		[][]interface{}{
			testutil.FinancialHeader(),
			testutil.CompanyRow("NSE:EEE", "Epsilon", []interface{}{1, 2, 3, 4, 5}, nil, nil),
		},
		[][]interface{}{{"NSE:EEE", "Energy"}},
	)
	second := do(a, uploadRequest(t, "/upload", other))
	require.Equal(t, http.StatusSeeOther, second.Code)
	assert.NotEqual(t, first.Header().Get("Location"), second.Header().Get("Location"))

	rec := do(a, httptest.NewRequest(http.MethodGet, first.Header().Get("Location"), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "dataset_cache_evictions_total")
}

func TestApplication_Stop(t *testing.T) {
	a := newTestApp(t, nil)

	require.NoError(t, a.Stop(context.Background()))
}
