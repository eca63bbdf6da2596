package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"condao-wx/internal/briefing"
	"condao-wx/internal/config"
	"condao-wx/internal/observability"
	"condao-wx/internal/station"
	"condao-wx/internal/storage/sqlite"
	"condao-wx/internal/websocket"
	"condao-wx/pkg/logger"
)

// Router wraps the chi router and the API handlers
type Router struct {
	handler *Handler
	config  *config.Config
	logger  *logger.Logger
	metrics *observability.Metrics
}

// NewRouter creates a new API router
func NewRouter(
	stationService *station.Service,
	briefingService *briefing.Service,
	reports *sqlite.ReportStorage,
	forecasts *sqlite.ForecastStorage,
	rainEvents *sqlite.RainEventStorage,
	cfg *config.Config,
	log *logger.Logger,
	wsServer *websocket.Server,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		handler: NewHandler(stationService, briefingService, reports, forecasts, rainEvents, cfg, log, wsServer, metrics),
		config:  cfg,
		logger:  log.Named("api-router"),
		metrics: metrics,
	}
}

// Routes builds the HTTP route tree
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(rt.corsMiddleware)
	r.Use(rt.metricsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", rt.handler.GetHealth)
		r.Get("/station", rt.handler.GetStation)

		r.Route("/reports", func(r chi.Router) {
			r.Post("/", rt.handler.CreateReport)
			r.Post("/decode", rt.handler.DecodeReport)
			r.Get("/", rt.handler.GetReports)
			r.Get("/latest", rt.handler.GetLatestReport)
		})

		r.Route("/forecasts", func(r chi.Router) {
			r.Post("/", rt.handler.CreateForecast)
			r.Get("/", rt.handler.GetForecasts)
		})

		r.Route("/rain-events", func(r chi.Router) {
			r.Post("/", rt.handler.CreateRainEvent)
			r.Get("/", rt.handler.GetRainEvents)
			r.Get("/stats", rt.handler.GetRainEventStats)
		})

		r.Get("/briefing", rt.handler.GetBriefing)
		r.Get("/ws", rt.handler.HandleWebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	if rt.config.Server.StaticFilesDir != "" {
		staticHandler := NewStaticFileHandler(rt.config.Server.StaticFilesDir, rt.logger)
		r.NotFound(staticHandler.ServeHTTP)
	}

	return r
}

// corsMiddleware applies the configured CORS policy
func (rt *Router) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && rt.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rt *Router) originAllowed(origin string) bool {
	for _, allowed := range rt.config.Server.CORSAllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// metricsMiddleware counts requests per route pattern and status code
func (rt *Router) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			// Nothing written explicitly (e.g. hijacked WebSocket connections)
			status = http.StatusOK
		}
		rt.metrics.APIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	})
}
