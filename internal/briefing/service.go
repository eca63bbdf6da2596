// Package briefing generates a short natural-language weather briefing for
// the aerodrome from the latest decoded report and recent rain history,
// using the Gemini API. The feature is optional and degrades to a 503 on
// the API surface when disabled.
package briefing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"condao-wx/internal/config"
	"condao-wx/internal/storage/sqlite"
	"condao-wx/pkg/logger"
)

// Service produces weather briefings via the Gemini API
type Service struct {
	config     config.BriefingConfig
	client     *genai.Client
	reports    *sqlite.ReportStorage
	rainEvents *sqlite.RainEventStorage
	logger     *logger.Logger
}

// NewService creates the briefing service and its Gemini client
func NewService(
	ctx context.Context,
	cfg config.BriefingConfig,
	reports *sqlite.ReportStorage,
	rainEvents *sqlite.RainEventStorage,
	log *logger.Logger,
) (*Service, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Service{
		config:     cfg,
		client:     client,
		reports:    reports,
		rainEvents: rainEvents,
		logger:     log.Named("briefing"),
	}, nil
}

// Generate builds a briefing from the latest stored report and the last
// seven days of rain events
func (s *Service) Generate(ctx context.Context) (string, error) {
	prompt, err := s.buildPrompt()
	if err != nil {
		return "", err
	}

	s.logger.Debug("Requesting briefing", logger.String("model", s.config.Model))

	resp, err := s.client.Models.GenerateContent(ctx, s.config.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("briefing generation failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("briefing generation returned no text")
	}

	return text, nil
}

func (s *Service) buildPrompt() (string, error) {
	records, err := s.reports.GetRecentReports(1)
	if err != nil {
		return "", fmt.Errorf("failed to load latest report: %w", err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no decoded reports available for briefing")
	}
	latest := records[0]

	now := time.Now().UTC()
	weekAgo := now.AddDate(0, 0, -7)
	counts, err := s.rainEvents.CountByDay(weekAgo.Format("2006-01-02"), now.Format("2006-01-02"))
	if err != nil {
		return "", fmt.Errorf("failed to load rain history: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a weather briefer at a small coastal aerodrome. ")
	b.WriteString("Write a concise briefing (3-4 sentences, plain language, no markdown) ")
	b.WriteString("from the observation and rain history below.\n\n")

	fmt.Fprintf(&b, "Latest observation (%s): %s\n", latest.ObsTime, latest.Raw)
	if latest.RelHumidity != nil {
		fmt.Fprintf(&b, "Derived relative humidity: %.0f%%\n", *latest.RelHumidity)
	}
	if latest.WindDirMagnetic != nil {
		fmt.Fprintf(&b, "Magnetic wind direction: %.0f degrees\n", *latest.WindDirMagnetic)
	}

	if len(counts) == 0 {
		b.WriteString("\nNo rain events logged in the last 7 days.\n")
	} else {
		b.WriteString("\nRain events logged per day over the last 7 days:\n")
		for _, c := range counts {
			fmt.Fprintf(&b, "- %s: %d\n", c.Date, c.Count)
		}
	}

	return b.String(), nil
}
