package station

import (
	"fmt"

	"condao-wx/internal/websocket"
	"condao-wx/pkg/logger"
)

// WebSocketHandler answers client-initiated messages on the report stream
type WebSocketHandler struct {
	service *Service
	logger  *logger.Logger
}

// NewWebSocketHandler creates a handler for incoming WebSocket messages
func NewWebSocketHandler(service *Service, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
		logger:  log.Named("ws-handler"),
	}
}

// HandleMessage dispatches an incoming client message by type
func (h *WebSocketHandler) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	switch messageType {
	case websocket.MessageTypeReportBulkRequest:
		return h.handleBulkRequest(client, data)
	default:
		return fmt.Errorf("unknown message type: %s", messageType)
	}
}

// handleBulkRequest sends the most recent decoded reports to the requesting
// client. Used by dashboards to backfill their chart on connect.
func (h *WebSocketHandler) handleBulkRequest(client *websocket.Client, data map[string]any) error {
	limit := 0
	if v, ok := data["limit"].(float64); ok {
		limit = int(v)
	}

	records, err := h.service.reports.GetRecentReports(limit)
	if err != nil {
		return fmt.Errorf("failed to load recent reports: %w", err)
	}

	h.logger.Debug("Sending bulk report response", logger.Int("count", len(records)))

	client.SendMessage(&websocket.Message{
		Type: websocket.MessageTypeReportBulk,
		Data: map[string]any{"reports": records},
	})
	return nil
}
