package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"condao-wx/internal/briefing"
	"condao-wx/internal/config"
	"condao-wx/internal/metar"
	"condao-wx/internal/observability"
	"condao-wx/internal/station"
	"condao-wx/internal/storage/sqlite"
	"condao-wx/internal/websocket"
	"condao-wx/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	stationService  *station.Service
	briefingService *briefing.Service
	reports         *sqlite.ReportStorage
	forecasts       *sqlite.ForecastStorage
	rainEvents      *sqlite.RainEventStorage
	config          *config.Config
	logger          *logger.Logger
	wsServer        *websocket.Server
	metrics         *observability.Metrics
}

// NewHandler creates a new API handler. briefingService may be nil when the
// feature is disabled.
func NewHandler(
	stationService *station.Service,
	briefingService *briefing.Service,
	reports *sqlite.ReportStorage,
	forecasts *sqlite.ForecastStorage,
	rainEvents *sqlite.RainEventStorage,
	config *config.Config,
	logger *logger.Logger,
	wsServer *websocket.Server,
	metrics *observability.Metrics,
) *Handler {
	return &Handler{
		stationService:  stationService,
		briefingService: briefingService,
		reports:         reports,
		forecasts:       forecasts,
		rainEvents:      rainEvents,
		config:          config,
		logger:          logger.Named("api-handler"),
		wsServer:        wsServer,
		metrics:         metrics,
	}
}

// CreateReport accepts a manually entered raw METAR/SPECI, decodes it,
// stores the record and broadcasts it
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Raw string `json:"raw"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Raw) == "" {
		http.Error(w, "Missing raw report text", http.StatusBadRequest)
		return
	}

	record, err := h.stationService.DecodeAndRecord(req.Raw)
	if err != nil {
		h.logger.Error("Failed to record report", logger.Error(err))
		http.Error(w, "Failed to store report", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusCreated, record)
}

// DecodeReport decodes a raw report without persisting it. Useful for
// previewing manual entries and for decoding reports from other stations.
func (h *Handler) DecodeReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Raw string `json:"raw"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	WriteJSON(w, http.StatusOK, metar.Decode(req.Raw))
}

// GetReports returns recent decoded reports, newest first. With start/end
// date bounds it returns the reports decoded in that window, oldest first.
func (h *Handler) GetReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	startDate, endDate, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	var records []*sqlite.ReportRecord
	var err error
	if startDate != "" && endDate != "" {
		start, _ := time.Parse("2006-01-02", startDate)
		end, _ := time.Parse("2006-01-02", endDate)
		records, err = h.reports.GetReportsByRange(start, end.AddDate(0, 0, 1))
	} else {
		records, err = h.reports.GetRecentReports(limit)
	}
	if err != nil {
		h.logger.Error("Failed to get reports", logger.Error(err))
		http.Error(w, "Failed to get reports", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"reports": records,
	})
}

// GetLatestReport returns the most recent decoded report
func (h *Handler) GetLatestReport(w http.ResponseWriter, r *http.Request) {
	record, stale := h.stationService.Latest()
	if record == nil {
		http.Error(w, "No reports recorded yet", http.StatusNotFound)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"report": record,
		"stale":  stale,
	})
}

// CreateForecast stores an operator-entered daily forecast
func (h *Handler) CreateForecast(w http.ResponseWriter, r *http.Request) {
	var record sqlite.ForecastRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if _, err := time.Parse("2006-01-02", record.Date); err != nil {
		http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	id, err := h.forecasts.StoreForecast(&record)
	if err != nil {
		h.logger.Error("Failed to store forecast", logger.Error(err))
		http.Error(w, "Failed to store forecast", http.StatusInternalServerError)
		return
	}
	record.ID = id
	h.metrics.ForecastsRecorded.Inc()

	WriteJSON(w, http.StatusCreated, &record)
}

// GetForecasts returns forecasts, optionally bounded by start/end dates
func (h *Handler) GetForecasts(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	records, err := h.forecasts.GetForecasts(startDate, endDate)
	if err != nil {
		h.logger.Error("Failed to get forecasts", logger.Error(err))
		http.Error(w, "Failed to get forecasts", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count":     len(records),
		"forecasts": records,
	})
}

// CreateRainEvent logs a manually observed rain event
func (h *Handler) CreateRainEvent(w http.ResponseWriter, r *http.Request) {
	var record sqlite.RainEventRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if record.StartTime.IsZero() {
		record.StartTime = time.Now().UTC()
	}

	id, err := h.rainEvents.StoreRainEvent(&record)
	if err != nil {
		h.logger.Error("Failed to store rain event", logger.Error(err))
		http.Error(w, "Failed to store rain event", http.StatusInternalServerError)
		return
	}
	record.ID = id
	h.metrics.RainEventsRecorded.Inc()

	WriteJSON(w, http.StatusCreated, &record)
}

// GetRainEvents returns rain events, optionally bounded by start/end dates
func (h *Handler) GetRainEvents(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	records, err := h.rainEvents.GetRainEvents(startDate, endDate)
	if err != nil {
		h.logger.Error("Failed to get rain events", logger.Error(err))
		http.Error(w, "Failed to get rain events", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count":  len(records),
		"events": records,
	})
}

// GetRainEventStats returns per-day rain event counts for the date range
func (h *Handler) GetRainEventStats(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	counts, err := h.rainEvents.CountByDay(startDate, endDate)
	if err != nil {
		h.logger.Error("Failed to get rain event stats", logger.Error(err))
		http.Error(w, "Failed to get rain event stats", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"days": counts,
	})
}

// GetBriefing generates an AI weather briefing from the latest report and
// recent rain history
func (h *Handler) GetBriefing(w http.ResponseWriter, r *http.Request) {
	if h.briefingService == nil {
		http.Error(w, "Briefing service not available", http.StatusServiceUnavailable)
		return
	}

	text, err := h.briefingService.Generate(r.Context())
	if err != nil {
		h.logger.Error("Failed to generate briefing", logger.Error(err))
		http.Error(w, "Failed to generate briefing", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"briefing":     text,
		"generated_at": time.Now().UTC(),
	})
}

// GetStation returns the configured aerodrome settings
func (h *Handler) GetStation(w http.ResponseWriter, r *http.Request) {
	stationCfg := h.stationService.Station()
	WriteJSON(w, http.StatusOK, map[string]any{
		"airport_code":   stationCfg.AirportCode,
		"latitude":       stationCfg.Latitude,
		"longitude":      stationCfg.Longitude,
		"elevation_feet": stationCfg.ElevationFeet,
	})
}

// GetHealth returns a health check response
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"ws_clients": h.wsServer.ClientCount(),
	})
}

// HandleWebSocket upgrades the connection and hands it to the hub
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// parseDateRange reads optional start/end query parameters (YYYY-MM-DD).
// Writes a 400 and returns ok=false when a bound is malformed.
func parseDateRange(w http.ResponseWriter, r *http.Request) (startDate, endDate string, ok bool) {
	startDate = r.URL.Query().Get("start")
	endDate = r.URL.Query().Get("end")

	for _, d := range []string{startDate, endDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			http.Error(w, "Invalid date bound, expected YYYY-MM-DD", http.StatusBadRequest)
			return "", "", false
		}
	}

	return startDate, endDate, true
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
