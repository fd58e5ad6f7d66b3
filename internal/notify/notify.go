// Package notify hands lifecycle notifications to the outbound delivery
// pipeline. Delivery (email/SMS) happens outside this service.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Kind string

const (
	KindSession Kind = "session"
	KindProgram Kind = "program"
)

// Message is a plain structured notification.
type Message struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Kind      Kind      `json:"kind"`
	Event     string    `json:"event"`
	RelatedID string    `json:"related_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier accepts messages for delivery.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// StreamNotifier appends messages to a Redis stream consumed by the
// delivery workers.
type StreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStreamNotifier(client *redis.Client, stream string, maxLen int64) *StreamNotifier {
	return &StreamNotifier{client: client, stream: stream, maxLen: maxLen}
}

func (n *StreamNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.Recipient == "" {
		return ErrNoRecipient
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: true,
		Values: map[string]any{
			"recipient":  msg.Recipient,
			"subject":    msg.Subject,
			"body":       msg.Body,
			"kind":       string(msg.Kind),
			"event":      msg.Event,
			"related_id": msg.RelatedID,
			"created_at": msg.CreatedAt.Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", n.stream, err)
	}
	return nil
}

var ErrNoRecipient = errors.New("notification has no recipient")

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	if msg.Recipient == "" {
		return ErrNoRecipient
	}
	n.logger.Info().
		Str("recipient", msg.Recipient).
		Str("subject", msg.Subject).
		Str("kind", string(msg.Kind)).
		Str("event", msg.Event).
		Str("related_id", msg.RelatedID).
		Msg("notification")
	return nil
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
