package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ETicketHandler delivers one decoded e-ticket event. A returned error
// is a delivery verdict only: the booking behind the event is already
// committed, so failures are logged and the stream moves on.
type ETicketHandler func(ctx context.Context, event ETicketEvent) error

type Consumer struct {
	reader *kafka.Reader
	log    *zap.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log: log,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// ConsumeETickets reads the notifications topic until the context ends
// or the reader fails. Messages that do not decode are skipped; handler
// failures are logged and never retried.
func (c *Consumer) ConsumeETickets(ctx context.Context, handler ETicketHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		c.handleMessage(ctx, msg, handler)
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message, handler ETicketHandler) {
	var event ETicketEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.Warn("decode e-ticket event failed",
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return
	}
	if err := handler(ctx, event); err != nil {
		c.log.Warn("e-ticket delivery failed",
			zap.String("booking_reference", event.BookingReference),
			zap.Error(err))
	}
}
