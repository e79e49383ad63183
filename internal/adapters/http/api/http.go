// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	service "github.com/okian/aqframes/internal/app"
	"github.com/okian/aqframes/internal/adapters/http/swagger"
	"github.com/okian/aqframes/internal/adapters/repository"
	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/internal/domain/playback"
	"github.com/okian/aqframes/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	Charts() []service.ChartInfo
	Chart(id string) (service.ChartInfo, error)

	Play(id string) error
	Pause(id string) error
	Toggle(id string) (playback.State, error)
	Step(ctx context.Context, id string) error
	Jump(ctx context.Context, id, key string) error
	Select(ctx context.Context, id string, keys []model.Key) error

	Frame(ctx context.Context, id string) (model.Frame, error)
	History(ctx context.Context, id string, limit int) ([]model.Frame, error)

	Subscribe(chartID string) (service.Subscription, error)
	Unsubscribe(id string) error
}

// Server wires HTTP routes for the chart API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	chartsHandler *ChartsHandler
	streamHandler *StreamHandler
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger    logger.Logger
	keepAlive time.Duration
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithKeepAlive sets the interval of stream keep-alive comments.
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.keepAlive = d
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := options{logger: logger.Nop(), keepAlive: defaultKeepAlive}
	for _, opt := range opts {
		opt(&o)
	}
	l := o.logger.Named("http")
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		chartsHandler: NewChartsHandler(deps, l),
		streamHandler: NewStreamHandler(deps, l, o.keepAlive),
	}
}

// Register attaches all HTTP routes to router.
func (s *Server) Register(router *mux.Router) {
	get := func(path, name string, h http.HandlerFunc) {
		router.HandleFunc(path, MetricsMiddleware(h, name)).Methods(http.MethodGet)
	}
	post := func(path, name string, h http.HandlerFunc) {
		router.HandleFunc(path, MetricsMiddleware(h, name)).Methods(http.MethodPost)
	}

	get("/healthz", "healthz", s.healthHandler.HandleHealth)
	get("/metrics", "metrics", s.healthHandler.HandleHealth)
	get("/stats", "stats", s.statsHandler.HandleStats)
	get("/stream", "stream", s.streamHandler.HandleStream)

	get("/charts", "charts", s.chartsHandler.HandleList)
	get("/charts/{id}", "chart", s.chartsHandler.HandleGet)
	get("/charts/{id}/frame", "frame", s.chartsHandler.HandleFrame)
	get("/charts/{id}/frames", "frames", s.chartsHandler.HandleFrames)
	get("/charts/{id}/stream", "stream", s.streamHandler.HandleStream)

	post("/charts/{id}/play", "play", s.chartsHandler.HandlePlay)
	post("/charts/{id}/pause", "pause", s.chartsHandler.HandlePause)
	post("/charts/{id}/toggle", "toggle", s.chartsHandler.HandleToggle)
	post("/charts/{id}/step", "step", s.chartsHandler.HandleStep)
	post("/charts/{id}/jump", "jump", s.chartsHandler.HandleJump)
	post("/charts/{id}/select", "select", s.chartsHandler.HandleSelect)
}

// Handler returns a router with every route registered, docs included.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.Register(router)
	swagger.Register(router)
	return router
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service errors to statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrChartNotFound),
		errors.Is(err, service.ErrUnknownSubscriber),
		errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrInvalidPeriod),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, playback.ErrEmptySequence):
		writeError(w, http.StatusConflict, "empty_sequence", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
