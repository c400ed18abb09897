package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/internal/infrastructure"
	"github.com/AleksandrZin/google-election/internal/shared/testutil"
	api "github.com/AleksandrZin/google-election/pkg/contracts/api/v1"
)

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func TestRequestID(t *testing.T) {
	var seen, traceID string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		traceID = infrastructure.GetTraceID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tables", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
		assert.Equal(t, seen, traceID)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	})
}

func TestStructuredLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		level slog.Level
	}{
		{"ok", http.StatusOK, slog.LevelInfo},
		{"not modified", http.StatusNotModified, slog.LevelDebug},
		{"bad column", http.StatusBadRequest, slog.LevelWarn},
		{"tables not loaded", http.StatusServiceUnavailable, slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			r := chi.NewRouter()
			r.Use(RequestID)
			r.Use(StructuredLogger(logger))
			r.Get("/api/map/{column}", status(tt.code))

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/map/interest_1", nil))

			records := handler.GetRecords()
			require.Len(t, records, 1)
			assert.Equal(t, "request completed", records[0].Message)
			assert.Equal(t, tt.level, records[0].Level)
			assert.Equal(t, "/api/map/{column}", records[0].Attrs["route"])
			assert.Equal(t, "/api/map/interest_1", records[0].Attrs["path"])
			assert.Equal(t, int64(tt.code), records[0].Attrs["status"])
			assert.NotEmpty(t, records[0].Attrs["request_id"])
		})
	}
}

func TestRecoverer(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := RequestID(Recoverer(apierrors.NewErrorHandler(logger, false))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("nil snapshot")
		})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/compare/interest_1", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apierrors.TypeInternal, body["type"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), body["trace_id"])
	testutil.AssertLogContains(t, handler, slog.LevelError, "panic recovered")
}

func TestRateLimiter(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewRateLimiter(0.001, 2, logger).Handler(status(http.StatusOK))

	var last *httptest.ResponseRecorder
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		h.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/api/map/interest_1", nil))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "1000", last.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.Equal(t, apierrors.TypeRateLimit, body["type"])
	assert.Equal(t, float64(http.StatusTooManyRequests), body["status"])
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "rate limit exceeded")
}

func TestTimeout(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	t.Run("handler gives up without writing", func(t *testing.T) {
		h := Timeout(20*time.Millisecond, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tables", nil))

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, apierrors.TypeTimeout, body["type"])
	})

	t.Run("handler answers in time", func(t *testing.T) {
		h := Timeout(time.Second, logger)(status(http.StatusNoContent))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tables", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{
		AllowedOrigins: []string{"http://localhost:8080"},
		AllowedHeaders: []string{"If-None-Match"},
		ExposedHeaders: []string{"ETag"},
	})(status(http.StatusOK))

	tests := []struct {
		name        string
		method      string
		origin      string
		preflight   bool
		code        int
		allowOrigin string
		methods     string
	}{
		{"allowed request", http.MethodGet, "http://localhost:8080", false, http.StatusOK, "http://localhost:8080", ""},
		{"foreign request", http.MethodGet, "http://evil.example", false, http.StatusOK, "", ""},
		{"allowed preflight", http.MethodOptions, "http://localhost:8080", true, http.StatusNoContent, "http://localhost:8080", "GET, POST, OPTIONS"},
		{"foreign preflight", http.MethodOptions, "http://evil.example", true, http.StatusNoContent, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/tables", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.allowOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.methods, rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Origin", rec.Header().Get("Vary"))
			if tt.allowOrigin != "" {
				assert.Equal(t, "ETag", rec.Header().Get("Access-Control-Expose-Headers"))
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(status(http.StatusOK)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tables", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestOTelMiddleware_NamesSpanAfterRoute(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    "election-test",
		ServiceVersion: "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
	}, logger)
	require.NoError(t, err)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	providers.Tracer = tp.Tracer("middleware-test")

	m, err := NewOTelMiddleware(providers, nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/compare/{term}", status(http.StatusUnprocessableEntity))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/compare/interest_2", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/compare/{term}", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "interest_2", attrs["dashboard.term"])
	assert.Equal(t, "/api/compare/{term}", attrs["http.route"])
	assert.Equal(t, "422", attrs["http.response.status_code"])

	metrics := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metrics.Body.String(), "http_requests_total")
	assert.Contains(t, metrics.Body.String(), `route="/api/compare/{term}"`)
}

func TestRequestValidator_ValidateStruct(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewRequestValidator(logger)

	tests := []struct {
		name    string
		req     interface{}
		fields  []string
		message string
	}{
		{"valid scatter", api.ScatterRequest{Party: "Democrat", Term: "interest_1"}, nil, ""},
		{"missing party", api.ScatterRequest{Term: "interest_1"}, []string{"party"}, "party is required"},
		{"party is case-sensitive", api.ScatterRequest{Party: "democrat", Term: "interest_1"}, []string{"party"}, "party must be one of: Democrat, Republican"},
		{"unknown term", api.ScatterRequest{Party: "Republican", Term: "interest_3"}, []string{"term"}, "term must be one of: interest_1, interest_2"},
		{"both missing", api.ScatterRequest{}, []string{"party", "term"}, "party is required"},
		{"valid map column", api.MapRequest{Column: "party_b_share"}, nil, ""},
		{"unknown map column", api.MapRequest{Column: "turnout"}, []string{"column"}, "column must be one of: party_a_share, party_b_share, interest_1, interest_2"},
		{"compare term alias rejected", api.CompareRequest{Term: "term_1"}, []string{"term"}, "term must be one of: interest_1, interest_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.req)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.([]apierrors.ValidationError)
			require.True(t, ok)
			require.Len(t, details, len(tt.fields))
			for i, f := range tt.fields {
				assert.Equal(t, f, details[i].Field)
			}
			assert.Equal(t, tt.message, details[0].Message)
		})
	}
}
