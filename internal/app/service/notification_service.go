package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"github.com/ikkim/bizmarket-backend/pkg/metrics"
	"github.com/ikkim/bizmarket-backend/pkg/sms"
)

const (
	EventQuoteCreated  = "quote_created"
	EventQuoteUpdated  = "quote_updated"
	EventQuoteReminder = "quote_reminder"

	smsTimeout = 10 * time.Second
)

// Event is the envelope pushed to live websocket sessions.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// QuoteEventPayload summarises a quote for live notifications.
type QuoteEventPayload struct {
	QuoteID      uint              `json:"quote_id"`
	BusinessID   uint              `json:"business_id"`
	BusinessName string            `json:"business_name,omitempty"`
	FullName     string            `json:"full_name"`
	Status       model.QuoteStatus `json:"status"`
	QuotedAmount *float64          `json:"quoted_amount,omitempty"`
	ItemCount    int               `json:"item_count"`
	CreatedAt    time.Time         `json:"created_at"`
}

// EventPublisher delivers an event to every live session of a user.
type EventPublisher interface {
	SendToUser(userID uint, event interface{}) error
}

// QuoteNotifier fans quote lifecycle events out to owners and customers.
// Implementations must never fail the calling request.
type QuoteNotifier interface {
	QuoteCreated(quote *model.QuoteRequest, business *model.Business)
	QuoteUpdated(quote *model.QuoteRequest)
	QuoteReminder(quote *model.QuoteRequest)
}

type NotificationService struct {
	publisher EventPublisher
	sms       sms.Sender
	metrics   *metrics.Metrics
	wg        sync.WaitGroup
}

// NewNotificationService accepts nil for publisher or sender to disable that
// channel.
func NewNotificationService(publisher EventPublisher, sender sms.Sender, m *metrics.Metrics) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		sms:       sender,
		metrics:   m,
	}
}

func quotePayload(quote *model.QuoteRequest, business *model.Business) QuoteEventPayload {
	payload := QuoteEventPayload{
		QuoteID:      quote.ID,
		BusinessID:   quote.BusinessID,
		FullName:     quote.FullName,
		Status:       quote.Status,
		QuotedAmount: quote.QuotedAmount,
		ItemCount:    len(quote.Items),
		CreatedAt:    quote.CreatedAt,
	}
	if business != nil {
		payload.BusinessName = business.Name
	}
	return payload
}

func (n *NotificationService) publish(userID uint, eventType string, payload QuoteEventPayload) {
	if n.publisher == nil || userID == 0 {
		return
	}
	if err := n.publisher.SendToUser(userID, Event{Type: eventType, Payload: payload}); err != nil {
		n.metrics.Notification("ws", "failed")
		logger.Warn("Failed to publish quote event", map[string]interface{}{
			"user_id":  userID,
			"event":    eventType,
			"quote_id": payload.QuoteID,
			"error":    err.Error(),
		})
		return
	}
	n.metrics.Notification("ws", "sent")
}

func (n *NotificationService) QuoteCreated(quote *model.QuoteRequest, business *model.Business) {
	n.publish(business.OwnerID, EventQuoteCreated, quotePayload(quote, business))

	if n.sms == nil || business.ContactPhone == "" {
		return
	}

	body := fmt.Sprintf("New quote request #%d for %s from %s (%d service(s)).",
		quote.ID, business.Name, quote.FullName, len(quote.Items))
	to := business.ContactPhone

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), smsTimeout)
		defer cancel()

		if err := n.sms.Send(ctx, to, body); err != nil {
			n.metrics.Notification("sms", "failed")
			logger.Warn("Failed to send quote SMS", map[string]interface{}{
				"quote_id":    quote.ID,
				"business_id": business.ID,
				"error":       err.Error(),
			})
			return
		}
		n.metrics.Notification("sms", "sent")
	}()
}

func (n *NotificationService) QuoteUpdated(quote *model.QuoteRequest) {
	if quote.CustomerID == nil {
		return
	}
	n.publish(*quote.CustomerID, EventQuoteUpdated, quotePayload(quote, &quote.Business))
}

func (n *NotificationService) QuoteReminder(quote *model.QuoteRequest) {
	n.publish(quote.Business.OwnerID, EventQuoteReminder, quotePayload(quote, &quote.Business))
}

// Wait blocks until in-flight SMS deliveries finish.
func (n *NotificationService) Wait() {
	n.wg.Wait()
}
