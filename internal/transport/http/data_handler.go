package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/internal/services"
	api "github.com/AleksandrZin/google-election/pkg/contracts/api/v1"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// DataHandler serves the dashboard read API with RFC 7807 errors
type DataHandler struct {
	service      DataServiceInterface
	validator    StructValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler
func NewDataHandler(service DataServiceInterface, validator StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes on their own router
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes adds the data routes to an existing router
func (h *DataHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", h.GetTables)
		r.Get("/geo", h.GetGeo)
		r.Get("/timeline", h.GetTimeline)
	})
	r.Get("/map/{column}", h.GetMap)
	r.Get("/scatter", h.GetScatter)
	r.Get("/compare/{term}", h.GetCompare)
	r.Post("/reload", h.Reload)
}

// GetTables handles GET /api/tables
func (h *DataHandler) GetTables(w http.ResponseWriter, r *http.Request) {
	tables, ok := h.tables(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, api.NewTablesResponse(tables))
}

// GetGeo handles GET /api/tables/geo
func (h *DataHandler) GetGeo(w http.ResponseWriter, r *http.Request) {
	tables, ok := h.tables(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"count": len(tables.Geo),
		"data":  tables.Geo,
	})
}

// GetTimeline handles GET /api/tables/timeline
func (h *DataHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	tables, ok := h.tables(w, r)
	if !ok {
		return
	}
	resp := api.NewTablesResponse(tables)
	render.JSON(w, r, map[string]interface{}{
		"election_date": resp.ElectionDate,
		"terms":         resp.Terms,
		"count":         len(tables.Timeline),
		"data":          tables.Timeline,
	})
}

// tables loads the snapshot and answers conditional requests. It reports false
// when the response has already been written.
func (h *DataHandler) tables(w http.ResponseWriter, r *http.Request) (domain.FusedTables, bool) {
	tables, etag, err := h.service.LoadTables(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "load tables", err)
		return domain.FusedTables{}, false
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return domain.FusedTables{}, false
	}
	return tables, true
}

// GetMap handles GET /api/map/{column}
func (h *DataHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	req := api.MapRequest{Column: chi.URLParam(r, "column")}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data, err := h.service.MapData(r.Context(), req.Column)
	if err != nil {
		h.handleServiceError(w, r, "map data", err)
		return
	}
	render.JSON(w, r, data)
}

// GetScatter handles GET /api/scatter?party=&term=
func (h *DataHandler) GetScatter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := api.ScatterRequest{Party: q.Get("party"), Term: q.Get("term")}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data, err := h.service.ScatterData(r.Context(), req.Party, req.Term)
	if err != nil {
		h.handleServiceError(w, r, "scatter data", err)
		return
	}
	render.JSON(w, r, data)
}

// GetCompare handles GET /api/compare/{term}
func (h *DataHandler) GetCompare(w http.ResponseWriter, r *http.Request) {
	req := api.CompareRequest{Term: chi.URLParam(r, "term")}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	c, err := h.service.Compare(r.Context(), req.Term)
	if err != nil {
		h.handleServiceError(w, r, "compare", err)
		return
	}
	render.JSON(w, r, c)
}

// Reload handles POST /api/reload
func (h *DataHandler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Reload(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "reload", err)
		return
	}

	h.logger.InfoContext(r.Context(), "tables reloaded",
		slog.Int("regions", len(snap.Tables.Geo)),
		slog.String("etag", snap.ETag))

	render.JSON(w, r, api.ReloadResponse{
		Regions:        len(snap.Tables.Geo),
		TimelinePoints: len(snap.Tables.Timeline),
		ETag:           snap.ETag,
		LoadedAt:       snap.LoadedAt,
	})
}

// handleServiceError maps service errors to API errors
func (h *DataHandler) handleServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var insufficient *apierrors.InsufficientDataError

	switch {
	case errors.Is(err, services.ErrTablesNotLoaded):
		h.errorHandler.HandleError(w, r, apierrors.ErrTablesUnavailable)
	case errors.Is(err, services.ErrUnknownColumn):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("column", err.Error()))
	case errors.Is(err, services.ErrUnknownTerm):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("term", err.Error()))
	case errors.Is(err, services.ErrUnknownParty):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("party", err.Error()))
	case errors.As(err, &insufficient):
		h.errorHandler.HandleError(w, r, apierrors.InsufficientDataWithError(err))
	default:
		h.logger.ErrorContext(r.Context(), "data request failed",
			slog.String("action", action),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
	}
}
