// Package events publishes routing decisions to Kafka for downstream
// consumers (reconciliation, analytics). Publishing is fire-and-forget:
// a broker outage must never fail a payment route.
package events

import (
	"context"
	"encoding/json"
	"time"

	"paybridge/internal/engine"
	"paybridge/internal/logger"

	"github.com/segmentio/kafka-go"
)

type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher builds a Kafka publisher. Brokers must be non-empty; the
// caller gates construction on its config.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// routeDecisionEvent is the wire shape; amounts travel as strings to keep
// decimal precision.
type routeDecisionEvent struct {
	ID           string                 `json:"id"`
	Amount       string                 `json:"amount"`
	Currency     string                 `json:"currency"`
	Provider     string                 `json:"provider"`
	Confidence   float64                `json:"confidence"`
	Alternatives []engine.RejectedRoute `json:"alternatives,omitempty"`
	DecidedAt    time.Time              `json:"decided_at"`
}

// PublishRouteDecision emits a decision, logging failures instead of
// returning them. The write runs on its own goroutine with a detached
// context, so a slow or down broker never holds up the caller.
func (p *Publisher) PublishRouteDecision(ctx context.Context, d engine.RouteDecision) {
	payload, err := json.Marshal(routeDecisionEvent{
		ID:           d.ID,
		Amount:       d.Amount.String(),
		Currency:     d.Currency,
		Provider:     d.Provider,
		Confidence:   d.Confidence,
		Alternatives: d.Alternatives,
		DecidedAt:    d.DecidedAt,
	})
	if err != nil {
		logger.Errorf("[events] encoding route decision %s: %v", d.ID, err)
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := p.writer.WriteMessages(writeCtx, kafka.Message{
			Key:   []byte(d.Currency),
			Value: payload,
		})
		if err != nil {
			logger.Warnf("[events] publishing route decision %s: %v", d.ID, err)
			return
		}
		logger.Debugf("[events] published route decision %s via %s", d.ID, d.Provider)
	}()
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
