package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ETicketEvent is published after a booking transaction commits and
// consumed by the notification worker. It carries everything needed to
// render one receipt per passenger without re-reading the store.
type ETicketEvent struct {
	BookingReference string            `json:"booking_reference"`
	UserID           string            `json:"user_id"`
	TotalAmountCents int64             `json:"total_amount_cents"`
	Passengers       []TicketPassenger `json:"passengers"`
	Legs             []TicketLeg       `json:"legs"`
}

type TicketPassenger struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	// SeatNumbers is parallel to ETicketEvent.Legs.
	SeatNumbers []string `json:"seat_numbers"`
}

type TicketLeg struct {
	Airline       string `json:"airline"`
	FlightNumber  string `json:"flight_number"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	DepartureTime string `json:"departure_time"`
	ArrivalDate   string `json:"arrival_date"`
	ArrivalTime   string `json:"arrival_time"`
	SeatClass     string `json:"seat_class"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) PublishWithRetry(ctx context.Context, topic, key string, payload interface{}, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := p.Publish(ctx, topic, key, payload)
		if err == nil {
			return nil
		}
		lastErr = err

		if i < maxRetries-1 {
			select {
			case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
