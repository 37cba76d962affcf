package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/shelftalk/apiserver/internal/mq"
)

// ActivityChannel is the broker channel catalog activity events are
// published on.
const ActivityChannel = "catalog.events"

// Activity event types.
const (
	EventBookCreated   = "book.created"
	EventBookDeleted   = "book.deleted"
	EventReviewCreated = "review.created"
)

// ActivityEvent is the payload published for catalog writes. Consumers
// (notification or analytics workers) live outside this server.
type ActivityEvent struct {
	Type     string    `json:"type"`
	BookID   int       `json:"book_id"`
	ReviewID int       `json:"review_id,omitempty"`
	ActorID  int       `json:"actor_id"`
	At       time.Time `json:"at"`
}

// ActivityPublisher publishes activity events best-effort: a publish
// failure is logged and never fails the request that produced it. A nil
// publisher or a publisher without a broker is a no-op.
type ActivityPublisher struct {
	broker *mq.MQ
}

func NewActivityPublisher(broker *mq.MQ) *ActivityPublisher {
	return &ActivityPublisher{broker: broker}
}

func (p *ActivityPublisher) Publish(ctx context.Context, event ActivityEvent) {
	if p == nil || p.broker == nil {
		return
	}
	event.At = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("activity event marshal failed: %v", err)
		return
	}
	attrs := map[string]string{"type": event.Type}
	if _, err := p.broker.Publish(ctx, ActivityChannel, data, attrs); err != nil {
		log.Printf("activity event publish failed: %v", err)
	}
}
