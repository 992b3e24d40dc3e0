// Package ingest consumes access attempts from Kafka and hands each one to the
// verification pipeline.
package ingest

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"door-access-control-plane/backend/internal/verification/domain"
)

// Verifier is the verification entrypoint the consumer feeds.
type Verifier interface {
	Verify(ctx context.Context, attempt *domain.AccessAttempt) *domain.Decision
}

// Consumer reads attempt messages from a Kafka topic and verifies each one.
// Messages that fail to decode are logged and skipped, never retried: a
// malformed attempt will not become well-formed on redelivery.
type Consumer struct {
	reader  *kafka.Reader
	verify  Verifier
	timeout time.Duration
}

// NewConsumer returns a consumer over the given brokers, topic and group.
// timeout bounds the verification of a single attempt.
func NewConsumer(brokers []string, topic, groupID string, verify Verifier, timeout time.Duration) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	return &Consumer{reader: reader, verify: verify, timeout: timeout}
}

// Run consumes until ctx is cancelled, handling each message in its own
// goroutine so a slow verification does not stall the read loop. Read errors
// are logged and retried.
func (c *Consumer) Run(ctx context.Context) {
	log.Printf("ingest: consuming attempts from %s", c.reader.Config().Topic)
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("ingest: stopped")
				return
			}
			log.Printf("ingest: kafka read error: %v", err)
			continue
		}
		go c.Handle(ctx, msg.Value)
	}
}

// Handle decodes and verifies one attempt payload.
func (c *Consumer) Handle(ctx context.Context, payload []byte) {
	var attempt domain.AccessAttempt
	if err := json.Unmarshal(payload, &attempt); err != nil {
		log.Printf("ingest: dropping undecodable attempt: %v", err)
		return
	}

	verifyCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	decision := c.verify.Verify(verifyCtx, &attempt)
	if decision.Rejected() {
		log.Printf("ingest: rejected user %s at device %s: %s", attempt.UserID, attempt.DeviceID, decision.ReasonCode)
	}
}

// Close closes the Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
