package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/internal/middleware"
	"github.com/AleksandrZin/google-election/internal/services"
	"github.com/AleksandrZin/google-election/internal/shared/testutil"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// MockDataService is a mock implementation of DataServiceInterface
type MockDataService struct {
	mock.Mock
}

func (m *MockDataService) LoadTables(ctx context.Context) (domain.FusedTables, string, error) {
	args := m.Called()
	return args.Get(0).(domain.FusedTables), args.String(1), args.Error(2)
}

func (m *MockDataService) MapData(ctx context.Context, column string) (domain.MapData, error) {
	args := m.Called(column)
	return args.Get(0).(domain.MapData), args.Error(1)
}

func (m *MockDataService) ScatterData(ctx context.Context, party, term string) (domain.ScatterData, error) {
	args := m.Called(party, term)
	return args.Get(0).(domain.ScatterData), args.Error(1)
}

func (m *MockDataService) Compare(ctx context.Context, term string) (domain.Comparison, error) {
	args := m.Called(term)
	return args.Get(0).(domain.Comparison), args.Error(1)
}

func (m *MockDataService) Reload(ctx context.Context) (*services.Snapshot, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Snapshot), args.Error(1)
}

func testTables() domain.FusedTables {
	return domain.FusedTables{
		Geo: []domain.RegionRecord{
			{Abbreviation: "CA", Name: "California", PartyAShare: 60, PartyBShare: 38, Interest1: domain.Float(45), Winner: domain.PartyA},
		},
		Timeline: []domain.TimePoint{
			{Date: "2024-11-04", Term: domain.Term1, Interest: domain.Float(12)},
			{Date: "2024-11-04", Term: domain.Term2},
		},
	}
}

func newTestRouter(t *testing.T, svc *MockDataService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	h := NewDataHandler(svc, middleware.NewRequestValidator(logger), logger, errorHandler)

	r := chi.NewRouter()
	r.Mount("/api", h.Routes())
	return r
}

func serve(t *testing.T, router http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestDataHandler_Tables(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		header         map[string]string
		setupMock      func(*MockDataService)
		expectedStatus int
		check          func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:   "both tables",
			target: "/api/tables",
			setupMock: func(m *MockDataService) {
				m.On("LoadTables").Return(testTables(), `"abc"`, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, `"abc"`, rec.Header().Get("ETag"))
				body := decode(t, rec)
				assert.Equal(t, "2024-11-05", body["election_date"])
				assert.Equal(t, domain.Term1.Label(), body["terms"].(map[string]interface{})["interest_1"])
				geo := body["geo"].([]interface{})
				require.Len(t, geo, 1)
				assert.Nil(t, geo[0].(map[string]interface{})["interest_2"])
			},
		},
		{
			name:   "geo table",
			target: "/api/tables/geo",
			setupMock: func(m *MockDataService) {
				m.On("LoadTables").Return(testTables(), `"abc"`, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				body := decode(t, rec)
				assert.Equal(t, float64(1), body["count"])
			},
		},
		{
			name:   "timeline keeps null rows",
			target: "/api/tables/timeline",
			setupMock: func(m *MockDataService) {
				m.On("LoadTables").Return(testTables(), `"abc"`, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				body := decode(t, rec)
				assert.Equal(t, float64(2), body["count"])
				rows := body["data"].([]interface{})
				assert.Nil(t, rows[1].(map[string]interface{})["interest"])
			},
		},
		{
			name:   "not modified",
			target: "/api/tables",
			header: map[string]string{"If-None-Match": `"abc"`},
			setupMock: func(m *MockDataService) {
				m.On("LoadTables").Return(testTables(), `"abc"`, nil)
			},
			expectedStatus: http.StatusNotModified,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Empty(t, rec.Body.String())
			},
		},
		{
			name:   "not loaded",
			target: "/api/tables/geo",
			setupMock: func(m *MockDataService) {
				m.On("LoadTables").Return(domain.FusedTables{}, "", services.ErrTablesNotLoaded)
			},
			expectedStatus: http.StatusServiceUnavailable,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "TABLES_UNAVAILABLE", decode(t, rec)["error_code"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDataService)
			tt.setupMock(svc)

			rec := serve(t, newTestRouter(t, svc), http.MethodGet, tt.target, tt.header)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			tt.check(t, rec)
			svc.AssertExpectations(t)
		})
	}
}

func TestDataHandler_Map(t *testing.T) {
	svc := new(MockDataService)
	svc.On("MapData", "party_b_share").Return(domain.MapData{
		Column:     domain.ColumnPartyBShare,
		Label:      "Republican vote share (%)",
		ColorScale: domain.ColorScaleReds,
		Range:      [2]float64{0, 100},
		Points:     []domain.MapPoint{{Abbreviation: "CA", Name: "California", Value: domain.Float(38)}},
	}, nil)
	router := newTestRouter(t, svc)

	rec := serve(t, router, http.MethodGet, "/api/map/party_b_share", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "reds", body["color_scale"])
	assert.Equal(t, []interface{}{float64(0), float64(100)}, body["range"])

	rec = serve(t, router, http.MethodGet, "/api/map/winner", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "MapData", "winner")
}

func TestDataHandler_Scatter(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockDataService)
		expectedStatus int
	}{
		{
			name:  "valid",
			query: "?party=Democrat&term=interest_2",
			setupMock: func(m *MockDataService) {
				m.On("ScatterData", "Democrat", "interest_2").Return(domain.ScatterData{
					Party: domain.PartyA, Term: domain.Term2,
					BoxGroups: []domain.BoxGroup{{Winner: domain.PartyA, Values: []float64{}}, {Winner: domain.PartyB, Values: []float64{30}}},
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing party",
			query:          "?term=interest_1",
			setupMock:      func(m *MockDataService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown term",
			query:          "?party=Republican&term=votes",
			setupMock:      func(m *MockDataService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "tables not loaded",
			query: "?party=Republican&term=interest_1",
			setupMock: func(m *MockDataService) {
				m.On("ScatterData", "Republican", "interest_1").Return(domain.ScatterData{}, services.ErrTablesNotLoaded)
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDataService)
			tt.setupMock(svc)

			rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/scatter"+tt.query, nil)

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestDataHandler_Compare(t *testing.T) {
	insufficient := &apierrors.InsufficientDataError{
		Term: domain.Term2, Group: domain.PartyA, Count: 1, Reason: "zero variance",
	}

	tests := []struct {
		name           string
		term           string
		result         domain.Comparison
		err            error
		expectedStatus int
		expectedType   string
	}{
		{
			name: "computed",
			term: "interest_1",
			result: domain.Comparison{
				Term: domain.Term1, PValue: 0.2, MeanGroupA: 50, MeanGroupB: 65,
				Conclusion: "There is no statistically significant difference",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "insufficient data",
			term:           "interest_2",
			err:            fmt.Errorf("compare: %w", insufficient),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedType:   apierrors.TypeInsufficientData,
		},
		{
			name:           "unexpected failure",
			term:           "interest_1",
			err:            errors.New("disk on fire"),
			expectedStatus: http.StatusInternalServerError,
			expectedType:   apierrors.TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDataService)
			svc.On("Compare", tt.term).Return(tt.result, tt.err)

			rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/compare/"+tt.term, nil)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			body := decode(t, rec)
			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, body["type"])
			} else {
				assert.Equal(t, float64(50), body["mean_group_a"])
			}
		})
	}
}

func TestDataHandler_CompareRejectsUnknownTerm(t *testing.T) {
	svc := new(MockDataService)
	rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/compare/interest_7", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeValidation, decode(t, rec)["type"])
	svc.AssertNotCalled(t, "Compare", mock.Anything)
}

func TestDataHandler_Reload(t *testing.T) {
	loadedAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		svc := new(MockDataService)
		svc.On("Reload").Return(&services.Snapshot{Tables: testTables(), ETag: `"abc"`, LoadedAt: loadedAt}, nil)

		rec := serve(t, newTestRouter(t, svc), http.MethodPost, "/api/reload", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, float64(1), body["regions"])
		assert.Equal(t, float64(2), body["timeline_points"])
		assert.Equal(t, "2026-10-01T12:00:00Z", body["loaded_at"])
	})

	t.Run("persistence failure", func(t *testing.T) {
		svc := new(MockDataService)
		svc.On("Reload").Return(nil, apierrors.NewPersistenceError("load", "/out/geo.csv", errors.New("bad header")))

		rec := serve(t, newTestRouter(t, svc), http.MethodPost, "/api/reload", nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, apierrors.TypeDataUnavailable, decode(t, rec)["type"])
	})

	t.Run("method not allowed", func(t *testing.T) {
		svc := new(MockDataService)
		rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/reload", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
