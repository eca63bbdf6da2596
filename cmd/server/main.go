package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"condao-wx/internal/api"
	"condao-wx/internal/briefing"
	"condao-wx/internal/config"
	"condao-wx/internal/observability"
	"condao-wx/internal/station"
	"condao-wx/internal/storage/sqlite"
	"condao-wx/internal/websocket"
	"condao-wx/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Con Dao weather server",
		logger.String("version", Version),
		logger.String("airport", cfg.Station.AirportCode),
	)

	// Daily database file keeps individual files small and easy to archive
	today := time.Now().Format("2006-01-02")
	dbFilename := fmt.Sprintf("condao-wx-%s.db", today)
	dbPath := filepath.Join(cfg.Storage.SQLiteBasePath, dbFilename)

	if err := os.MkdirAll(cfg.Storage.SQLiteBasePath, 0755); err != nil {
		log.Error("Failed to create database directory", logger.Error(err), logger.String("path", cfg.Storage.SQLiteBasePath))
		os.Exit(1)
	}

	log.Info("Using daily database", logger.String("path", dbPath))

	reportStorage, err := sqlite.NewReportStorage(dbPath, cfg.Storage.MaxReportsInAPI, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	defer reportStorage.Close()

	forecastStorage := sqlite.NewForecastStorage(reportStorage.GetDB(), log)
	rainEventStorage := sqlite.NewRainEventStorage(reportStorage.GetDB(), log)

	// Prometheus metrics on the default registry, served at /metrics
	metrics := observability.New("condao_wx", prometheus.DefaultRegisterer)

	// Create WebSocket server
	wsServer := websocket.NewServer(log)
	wsServer.SetClientCountCallback(func(n int) {
		metrics.WebSocketClients.Set(float64(n))
	})
	go wsServer.Run()

	// Create the station weather service
	stationService := station.NewService(cfg.Station, cfg.Weather, reportStorage, metrics, wsServer, log)
	wsServer.SetMessageHandler(station.NewWebSocketHandler(stationService, log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := stationService.Start(ctx); err != nil {
		log.Error("Failed to start station service", logger.Error(err))
		os.Exit(1)
	}

	// Create briefing service if enabled
	var briefingService *briefing.Service
	if cfg.Briefing.Enabled && cfg.Briefing.GeminiAPIKey != "" {
		briefingService, err = briefing.NewService(ctx, cfg.Briefing, reportStorage, rainEventStorage, log)
		if err != nil {
			log.Error("Failed to create briefing service", logger.Error(err))
			os.Exit(1)
		}
		log.Info("Briefing service enabled", logger.String("model", cfg.Briefing.Model))
	} else {
		log.Info("Briefing service disabled in configuration")
	}

	// Create API router
	router := api.NewRouter(stationService, briefingService, reportStorage, forecastStorage, rainEventStorage, cfg, log, wsServer, metrics)

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	if len(cfg.Server.AdditionalPorts) > 0 {
		allPorts = append(allPorts, cfg.Server.AdditionalPorts...)
	}

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      router.Routes(), // All servers use the same main router
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// Stop background services first
	log.Info("Stopping station service...")
	if err := stationService.Stop(); err != nil {
		log.Error("Error stopping station service", logger.Error(err))
	}
	log.Info("Station service stopped.")

	// Cancel the main context
	cancel()

	// Shutdown all HTTP servers
	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}
