package clients

import (
	"context"

	"invoice-dashboard/internal/domain"
	ws "invoice-dashboard/internal/transport/websocket"
)

const (
	TopicDashboard = ws.DefaultTopic
	TopicExports   = "exports"
)

type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

// NotifyPaymentRecorded tells dashboard subscribers that their figures are stale.
func (c *WebSocketClient) NotifyPaymentRecorded(ctx context.Context, payment domain.Payment) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "payment_recorded",
		Channel: "dashboard_refresh",
		Data: map[string]interface{}{
			"payment_id":   payment.PaymentID,
			"invoice_id":   payment.InvoiceID,
			"amount":       payment.Amount,
			"payment_date": payment.PaymentDate,
		},
	}

	c.hub.Broadcast(TopicDashboard, message)
	return nil
}

func (c *WebSocketClient) NotifyExportProgress(
	ctx context.Context,
	exportID string,
	progress float64,
	stage string,
) error {
	if c.hub == nil {
		return nil
	}

	data := map[string]interface{}{
		"id":       exportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	message := &ws.Message{
		Type:    "export_progress",
		Channel: "export_progress#" + exportID,
		Data:    data,
	}

	c.hub.Broadcast(TopicExports, message)
	return nil
}

func (c *WebSocketClient) NotifyExportComplete(
	ctx context.Context,
	exportID string,
	url string,
	filename string,
) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "export_complete",
		Channel: "export_complete#" + exportID,
		Data: map[string]interface{}{
			"id":       exportID,
			"url":      url,
			"filename": filename,
		},
	}

	c.hub.Broadcast(TopicExports, message)
	return nil
}

// NotifyExportFailed reports a failed export with the provided error message.
func (c *WebSocketClient) NotifyExportFailed(ctx context.Context, exportID string, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "export_failed",
		Channel: "export_failed#" + exportID,
		Data: map[string]interface{}{
			"id":      exportID,
			"message": errMsg,
		},
	}

	c.hub.Broadcast(TopicExports, message)
	return nil
}
