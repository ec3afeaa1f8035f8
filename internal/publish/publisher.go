package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/amendment-radar/internal/models"
)

// EventIntroduced is the event type for a newly seen amendment.
const EventIntroduced = "amendment.introduced"

// AmendmentEvent is the message body written to Kafka.
type AmendmentEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Congress  int                    `json:"congress"`
	EmittedAt time.Time              `json:"emittedAt"`
	Amendment models.AmendmentRecord `json:"amendment"`
}

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher writes amendment events with bounded exponential backoff.
type Publisher struct {
	w           MessageWriter
	log         *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
	now         func() time.Time
}

// NewWriter builds the Kafka writer for the amendments topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
	}
}

// New creates a Publisher. Attempts default to 5 with a 1s base delay.
func New(w MessageWriter, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{
		w:           w,
		log:         log,
		maxAttempts: 5,
		baseDelay:   time.Second,
		now:         time.Now,
	}
}

// WithBackoff overrides retry attempts and the base delay.
func (p *Publisher) WithBackoff(attempts int, base time.Duration) *Publisher {
	if attempts > 0 {
		p.maxAttempts = attempts
	}
	if base > 0 {
		p.baseDelay = base
	}
	return p
}

// NewEvent wraps a record in an event envelope.
func (p *Publisher) NewEvent(congress int, rec models.AmendmentRecord) AmendmentEvent {
	return AmendmentEvent{
		ID:        uuid.NewString(),
		Type:      EventIntroduced,
		Congress:  congress,
		EmittedAt: p.now().UTC(),
		Amendment: rec,
	}
}

// Publish writes one message per record, keyed by bill number so updates
// for the same bill land on the same partition.
func (p *Publisher) Publish(ctx context.Context, congress int, records []models.AmendmentRecord) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		evt := p.NewEvent(congress, rec)
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", rec.Number, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(rec.Number),
			Value: payload,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(evt.ID)},
				{Key: "event_type", Value: []byte(evt.Type)},
			},
		})
	}

	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if lastErr = p.w.WriteMessages(ctx, msgs...); lastErr == nil {
			p.log.Info("published amendments",
				slog.Int("count", len(msgs)),
				slog.Int("attempt", attempt+1),
			)
			return nil
		}

		if attempt == p.maxAttempts-1 {
			break
		}
		backoff := p.baseDelay * time.Duration(1<<uint(attempt))
		p.log.Warn("kafka write failed, retrying",
			slog.Any("err", lastErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("publish canceled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("publish %d amendments after %d attempts: %w", len(msgs), p.maxAttempts, lastErr)
}
