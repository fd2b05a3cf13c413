// Package events publishes stored website leads to a Kafka topic so other
// systems (CRM sync, reporting) can consume them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"bmasia/internal/config"
	"bmasia/internal/domain"
)

// Event types
const (
	TypeInquirySubmitted   = "inquiry.submitted"
	TypeQuotationSubmitted = "quotation.submitted"
)

const writeTimeout = 5 * time.Second

// Envelope is the JSON value of every published message
type Envelope struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends one message per stored submission, keyed by record id
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaPublisher creates a synchronous publisher for the leads topic
func NewKafkaPublisher(cfg *config.EventsConfig) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.LeadsTopic,
		Balancer: &kafka.Hash{},

		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: writeTimeout,

		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	log.Printf("[EVENTS] Publishing to topic %s on %v", cfg.LeadsTopic, cfg.KafkaBrokers)
	return &KafkaPublisher{writer: w, now: time.Now}
}

// Channel implements services.Notifier
func (p *KafkaPublisher) Channel() string {
	return "events"
}

// NotifyInquiry publishes inquiry.submitted
func (p *KafkaPublisher) NotifyInquiry(ctx context.Context, inquiry *domain.Inquiry) error {
	return p.publish(ctx, TypeInquirySubmitted, inquiry.ID, inquiry)
}

// NotifyQuotation publishes quotation.submitted
func (p *KafkaPublisher) NotifyQuotation(ctx context.Context, quotation *domain.Quotation) error {
	return p.publish(ctx, TypeQuotationSubmitted, quotation.ID, quotation)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType, key string, data any) error {
	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: p.now().UTC(),
		Data:       data,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
