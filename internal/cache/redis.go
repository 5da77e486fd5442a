package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
	}
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

// InvalidateFlights drops the cached list; called after seat counters
// move so readers do not see stale availability for the whole TTL.
func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey()).Err()
}

// statusMessage is the wire form of a booking-status push.
type statusMessage struct {
	BookingID int64  `json:"booking_id"`
	Status    string `json:"status"`
}

// PublishStatus pushes a status change to every live subscriber of the
// booking's channel. Delivery is at-least-once for connected
// subscribers and carries no ordering guarantee.
func (c *RedisCache) PublishStatus(ctx context.Context, bookingID int64, status domain.BookingStatus) error {
	payload, err := json.Marshal(statusMessage{BookingID: bookingID, Status: string(status)})
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, statusKey(bookingID), payload).Err()
}

// SubscribeStatus opens the booking's status channel. The returned
// stop function closes the subscription and the channel.
func (c *RedisCache) SubscribeStatus(ctx context.Context, bookingID int64) (<-chan domain.BookingStatus, func(), error) {
	sub := c.client.Subscribe(ctx, statusKey(bookingID))
	// Receive forces the SUBSCRIBE round trip so a broken connection
	// surfaces here instead of as a silent dead channel.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan domain.BookingStatus)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var m statusMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				continue
			}
			select {
			case out <- domain.BookingStatus(m.Status):
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() { _ = sub.Close() }
	return out, stop, nil
}

func flightsKey() string {
	return "cache:flights"
}

func statusKey(bookingID int64) string {
	return fmt.Sprintf("booking:status:%d", bookingID)
}
