// Package kafkapub streams the partner's location samples to a Kafka topic.
package kafkapub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/pkg/errs"

	"github.com/mmcloughlin/geohash"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultWriteTimeout = 2 * time.Second

	// KeyPrecision is the geohash length used as the message key. Samples from the
	// same ~150 m cell land on the same partition.
	KeyPrecision = 7
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is the JSON value of every record.
type Message struct {
	PartnerID string    `json:"partnerId"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Heading   float64   `json:"heading"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Cell      string    `json:"cell"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher implements ports.LocationPublisher.
type Publisher struct {
	writer       MessageWriter
	partnerID    string
	writeTimeout time.Duration
}

func NewPublisher(brokers []string, topic, partnerID string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errs.NewValueIsRequiredError("brokers")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errs.NewValueIsRequiredError("topic")
	}
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return NewPublisherWithWriter(w, partnerID)
}

func NewPublisherWithWriter(w MessageWriter, partnerID string) (*Publisher, error) {
	if w == nil {
		return nil, errs.NewValueIsRequiredError("writer")
	}
	if strings.TrimSpace(partnerID) == "" {
		return nil, errs.NewValueIsRequiredError("partnerID")
	}
	return &Publisher{writer: w, partnerID: partnerID, writeTimeout: DefaultWriteTimeout}, nil
}

func (p *Publisher) Publish(ctx context.Context, sample kernel.LocationSample) error {
	if err := sample.Point.Validate(); err != nil {
		return err
	}

	cell := geohash.EncodeWithPrecision(sample.Point.Lat(), sample.Point.Lng(), KeyPrecision)
	b, err := json.Marshal(Message{
		PartnerID: p.partnerID,
		Lat:       sample.Point.Lat(),
		Lng:       sample.Point.Lng(),
		Heading:   sample.Heading,
		Accuracy:  sample.Accuracy,
		Cell:      cell,
		Timestamp: sample.Timestamp.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()
	if err = p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(cell), Value: b}); err != nil {
		return fmt.Errorf("write location: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
