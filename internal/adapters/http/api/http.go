// Package api exposes the ranking, catalog and event registration endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/imobrank/internal/domain/actionlog"
	"github.com/okian/imobrank/internal/domain/model"
	"github.com/okian/imobrank/internal/domain/ranking"
	"github.com/okian/imobrank/internal/domain/types"
	"github.com/okian/imobrank/pkg/logger"
)

// Rankings computes leaderboards and their filter options.
type Rankings interface {
	Compute(ctx context.Context, scope ranking.Scope, f ranking.Filter) (types.RankingResult, error)
	FilterOptions(ctx context.Context, scope ranking.Scope) (types.FilterOptions, error)
}

// ActionTypes reads and maintains the action catalog.
type ActionTypes interface {
	Lookup(ctx context.Context, id int64) (model.ActionType, error)
	List(ctx context.Context) ([]model.ActionType, error)
	Create(ctx context.Context, name string, points int, active bool) (model.ActionType, error)
	Update(ctx context.Context, id int64, name string, points int, active bool) (model.ActionType, error)
}

// EventRecorder registers action events.
type EventRecorder interface {
	RecordIdempotent(ctx context.Context, key string, in actionlog.NewEvent) (model.ActionEvent, bool, error)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies bundles what the handlers need.
type Dependencies struct {
	Rankings Rankings
	Catalog  ActionTypes
	Recorder EventRecorder
	Store    Pinger
	Stats    StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	rankingHandler *RankingHandler
	catalogHandler *CatalogHandler
	eventsHandler  *EventsHandler
	log            logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:  NewHealthHandler(deps.Store, log),
		statsHandler:   NewStatsHandler(deps.Stats, log),
		rankingHandler: NewRankingHandler(deps.Rankings, log),
		catalogHandler: NewCatalogHandler(deps.Catalog, log),
		eventsHandler:  NewEventsHandler(deps.Recorder, log),
		log:            log,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/dashboard/consultoria", MetricsMiddleware(s.rankingHandler.HandleGlobal, "ranking_global"))
	mux.HandleFunc("GET /api/dashboard/consultoria/filtros", MetricsMiddleware(s.rankingHandler.HandleGlobalFilters, "filters_global"))
	mux.HandleFunc("GET /api/dashboard-incorporadora", MetricsMiddleware(s.rankingHandler.HandleDeveloper, "ranking_developer"))
	mux.HandleFunc("GET /api/dashboard-incorporadora/filtros", MetricsMiddleware(s.rankingHandler.HandleDeveloperFilters, "filters_developer"))

	mux.HandleFunc("GET /api/acoes", MetricsMiddleware(s.catalogHandler.HandleList, "action_types"))
	mux.HandleFunc("POST /api/acoes", MetricsMiddleware(s.catalogHandler.HandleCreate, "create_action_type"))
	mux.HandleFunc("GET /api/acoes/{id}", MetricsMiddleware(s.catalogHandler.HandleGet, "action_type"))
	mux.HandleFunc("PUT /api/acoes/{id}", MetricsMiddleware(s.catalogHandler.HandleUpdate, "update_action_type"))
	mux.HandleFunc("POST /api/registro-acoes", MetricsMiddleware(s.eventsHandler.HandlePost, "register_event"))
}

// Handler returns mux wrapped in the request-scoped middleware.
func (s *Server) Handler(mux *http.ServeMux) http.Handler {
	return RequestIDMiddleware(s.log, mux)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeFieldError(w, status, code, "", err)
}

func writeFieldError(w http.ResponseWriter, status int, code, field string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Field: field})
}

// fail maps err to a response. Server-side failures are logged; their
// detail is not echoed to the client.
func fail(ctx context.Context, log logger.Logger, w http.ResponseWriter, err error) {
	status, code, field := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
		writeFieldError(w, status, code, field, nil)
		return
	}
	writeFieldError(w, status, code, field, err)
}
