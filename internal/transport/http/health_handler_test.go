package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/AleksandrZin/google-election/internal/services"
	"github.com/AleksandrZin/google-election/internal/shared/testutil"
)

type fakeTablesState struct {
	snap *services.Snapshot
}

func (f fakeTablesState) Snapshot() (*services.Snapshot, error) {
	if f.snap == nil {
		return nil, services.ErrTablesNotLoaded
	}
	return f.snap, nil
}

func TestHealthHandler_Routes(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name           string
		state          fakeTablesState
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{"health", fakeTablesState{}, "/api/health", http.StatusOK, `"status":"ok"`},
		{"live", fakeTablesState{}, "/api/health/live", http.StatusOK, `"status":"alive"`},
		{"not ready", fakeTablesState{}, "/api/health/ready", http.StatusServiceUnavailable, `"status":"not_ready"`},
		{"ready", fakeTablesState{snap: &services.Snapshot{Tables: testTables()}}, "/api/health/ready", http.StatusOK, `"status":"ready"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(services.NewHealthService("1.0.0", "", tt.state, logger), logger)
			r := chi.NewRouter()
			r.Mount("/api/health", h.Routes())

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService("9.9.9", "", nil, logger), logger)

	rec := httptest.NewRecorder()
	h.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"9.9.9"`)
	assert.Contains(t, rec.Body.String(), `"api_version":"v1"`)
}

func TestMetricsHandler(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewMetricsHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delegates", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("pipeline_runs_total 1\n"))
		})
		rec := httptest.NewRecorder()
		NewMetricsHandler(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "pipeline_runs_total")
	})
}
