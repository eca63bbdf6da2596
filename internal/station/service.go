// Package station runs the per-aerodrome weather pipeline: it fetches raw
// METAR text on an interval (or accepts manually entered reports), decodes
// it, enriches the result with derived values for the station, persists the
// record, and pushes it to WebSocket subscribers.
package station

import (
	"context"
	"fmt"
	"sync"
	"time"

	"condao-wx/internal/config"
	"condao-wx/internal/derive"
	"condao-wx/internal/metar"
	"condao-wx/internal/observability"
	"condao-wx/internal/storage/sqlite"
	"condao-wx/internal/websocket"
	"condao-wx/pkg/logger"
)

// Service coordinates METAR fetching, decoding, persistence and streaming
// for a single aerodrome.
type Service struct {
	stationCfg config.StationConfig
	weatherCfg config.WeatherConfig
	client     *Client
	cache      *Cache
	reports    *sqlite.ReportStorage
	metrics    *observability.Metrics
	wsServer   *websocket.Server
	logger     *logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewService creates a new station weather service
func NewService(
	stationCfg config.StationConfig,
	weatherCfg config.WeatherConfig,
	reports *sqlite.ReportStorage,
	metrics *observability.Metrics,
	wsServer *websocket.Server,
	log *logger.Logger,
) *Service {
	return &Service{
		stationCfg: stationCfg,
		weatherCfg: weatherCfg,
		client:     NewClient(weatherCfg, log),
		cache:      NewCache(time.Duration(weatherCfg.CacheExpiryMinutes)*time.Minute, log),
		reports:    reports,
		metrics:    metrics,
		wsServer:   wsServer,
		logger:     log.Named("station"),
	}
}

// Station returns the configured aerodrome settings
func (s *Service) Station() config.StationConfig {
	return s.stationCfg
}

// Latest returns the most recently recorded report and whether it is stale.
// Falls back to storage when nothing was recorded since startup.
func (s *Service) Latest() (*sqlite.ReportRecord, bool) {
	if record := s.cache.Get(); record != nil {
		return record, s.cache.IsExpired()
	}

	records, err := s.reports.GetRecentReports(1)
	if err != nil || len(records) == 0 {
		return nil, false
	}
	return records[0], true
}

// DecodeAndRecord decodes a raw report, enriches it with derived values for
// the configured station, stores it and broadcasts it to WebSocket clients.
// Used by both the fetch loop and the manual entry endpoint.
func (s *Service) DecodeAndRecord(raw string) (*sqlite.ReportRecord, error) {
	start := time.Now()
	decoded := metar.Decode(raw)
	s.metrics.DecodeDuration.Observe(time.Since(start).Seconds())
	s.metrics.ReportsDecoded.Inc()
	if decoded.IsPrecipitating {
		s.metrics.PrecipReports.Inc()
	}

	var relHumidity *float64
	if decoded.TemperatureC != nil && decoded.DewpointC != nil {
		rh := derive.RelativeHumidity(float64(*decoded.TemperatureC), float64(*decoded.DewpointC))
		relHumidity = &rh
	}

	var windDirMagnetic *float64
	if decoded.WindDirectionDeg != nil {
		mag := derive.MagneticWindDirection(
			float64(*decoded.WindDirectionDeg),
			s.stationCfg.Latitude,
			s.stationCfg.Longitude,
			float64(s.stationCfg.ElevationFeet),
			decoded.DecodedAt,
		)
		windDirMagnetic = &mag
	}

	record := sqlite.RecordFromDecoded(decoded, relHumidity, windDirMagnetic)

	id, err := s.reports.StoreReport(record)
	if err != nil {
		return nil, fmt.Errorf("failed to store decoded report: %w", err)
	}
	record.ID = id

	s.cache.Set(record)

	s.logger.Info("Report decoded and recorded",
		logger.Int64("id", id),
		logger.String("station", record.Station),
		logger.String("obs_time", record.ObsTime),
		logger.Bool("precipitating", record.IsPrecipitating))

	if s.wsServer != nil {
		s.wsServer.Broadcast(&websocket.Message{
			Type: websocket.MessageTypeReportDecoded,
			Data: map[string]any{"report": record},
		})
	}

	return record, nil
}

// Start begins the background fetch loop. A no-op when automatic fetching
// is disabled; manual entry via DecodeAndRecord keeps working either way.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("station service already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	if !s.weatherCfg.FetchEnabled {
		s.logger.Info("Automatic METAR fetching disabled, manual entry only")
		return nil
	}

	s.logger.Info("Starting METAR fetch loop",
		logger.String("airport", s.stationCfg.AirportCode),
		logger.Int("refresh_interval_minutes", s.weatherCfg.RefreshIntervalMinutes))

	s.wg.Add(1)
	go s.fetchLoop()

	return nil
}

// Stop terminates the fetch loop and waits for it to exit
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.cancel()
	s.wg.Wait()
	s.started = false

	s.logger.Info("Station service stopped")
	return nil
}

func (s *Service) fetchLoop() {
	defer s.wg.Done()

	// Fetch immediately on startup, then on the refresh interval
	s.fetchOnce()

	ticker := time.NewTicker(time.Duration(s.weatherCfg.RefreshIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.fetchOnce()
		}
	}
}

func (s *Service) fetchOnce() {
	raw, err := s.client.FetchRawMETAR(s.stationCfg.AirportCode)
	if err != nil {
		s.metrics.FetchErrorsTotal.Inc()
		s.logger.Warn("METAR fetch failed, keeping last known report",
			logger.String("airport", s.stationCfg.AirportCode),
			logger.Error(err))
		return
	}
	s.metrics.FetchSuccessTotal.Inc()

	if cached := s.cache.Get(); cached != nil && cached.Raw == raw {
		s.logger.Debug("Fetched report unchanged, skipping",
			logger.String("airport", s.stationCfg.AirportCode))
		return
	}

	if _, err := s.DecodeAndRecord(raw); err != nil {
		s.logger.Error("Failed to record fetched report",
			logger.String("airport", s.stationCfg.AirportCode),
			logger.Error(err))
	}
}
