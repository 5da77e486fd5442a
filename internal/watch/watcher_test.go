package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
)

type memBus struct {
	mu     sync.Mutex
	ch     chan domain.BookingStatus
	err    error
	closed bool
}

func newMemBus() *memBus {
	return &memBus{ch: make(chan domain.BookingStatus, 16)}
}

func (b *memBus) SubscribeStatus(context.Context, int64) (<-chan domain.BookingStatus, func(), error) {
	if b.err != nil {
		return nil, nil, b.err
	}
	return b.ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.closed {
			b.closed = true
			close(b.ch)
		}
	}, nil
}

func (b *memBus) push(status domain.BookingStatus) {
	b.ch <- status
}

func waitForStatus(t *testing.T, w *Watcher, bookingID int64, want domain.BookingStatus) {
	t.Helper()
	assert.Eventually(t, func() bool {
		got, ok := w.Status(bookingID)
		return ok && got == want
	}, time.Second, time.Millisecond)
}

func TestWatch_AppliesPushedStatus(t *testing.T) {
	bus := newMemBus()
	w := NewWatcher(bus)

	stop, err := w.Watch(context.Background(), 5, domain.BookingStatusConfirmed)
	assert.NoError(t, err)
	defer stop()

	got, ok := w.Status(5)
	assert.True(t, ok)
	assert.Equal(t, domain.BookingStatusConfirmed, got)

	bus.push(domain.BookingStatusCancelled)
	waitForStatus(t, w, 5, domain.BookingStatusCancelled)
}

func TestWatch_DuplicateDeliveriesApplyOnce(t *testing.T) {
	bus := newMemBus()
	w := NewWatcher(bus)

	stop, err := w.Watch(context.Background(), 5, domain.BookingStatusConfirmed)
	assert.NoError(t, err)

	// The bus may redeliver; repeats of the current value are dropped.
	bus.push(domain.BookingStatusCancelled)
	bus.push(domain.BookingStatusCancelled)
	bus.push(domain.BookingStatusCancelled)
	waitForStatus(t, w, 5, domain.BookingStatusCancelled)

	stop()
	got, ok := w.Status(5)
	assert.True(t, ok)
	assert.Equal(t, domain.BookingStatusCancelled, got)
}

// A stale pre-cancel push redelivered after the cancellation must not
// resurrect the booking.
func TestWatch_StaleDeliveryCannotUndoCancellation(t *testing.T) {
	bus := newMemBus()
	w := NewWatcher(bus)

	stop, err := w.Watch(context.Background(), 5, domain.BookingStatusConfirmed)
	assert.NoError(t, err)

	bus.push(domain.BookingStatusCancelled)
	waitForStatus(t, w, 5, domain.BookingStatusCancelled)

	bus.push(domain.BookingStatusConfirmed)
	stop()

	got, ok := w.Status(5)
	assert.True(t, ok)
	assert.Equal(t, domain.BookingStatusCancelled, got)
}

func TestWatch_SubscribeFailureStillServesSeed(t *testing.T) {
	bus := newMemBus()
	bus.err = errors.New("bus unavailable")
	w := NewWatcher(bus)

	stop, err := w.Watch(context.Background(), 7, domain.BookingStatusConfirmed)
	assert.Error(t, err)
	stop()

	assert.ErrorIs(t, w.Err(7), bus.err)
	got, ok := w.Status(7)
	assert.True(t, ok)
	assert.Equal(t, domain.BookingStatusConfirmed, got)
}

func TestWatch_StopIsIdempotent(t *testing.T) {
	bus := newMemBus()
	w := NewWatcher(bus)

	stop, err := w.Watch(context.Background(), 5, domain.BookingStatusConfirmed)
	assert.NoError(t, err)

	stop()
	stop()

	_, ok := w.Status(5)
	assert.True(t, ok)
}

func TestStatus_UnknownBooking(t *testing.T) {
	w := NewWatcher(newMemBus())
	_, ok := w.Status(99)
	assert.False(t, ok)
	assert.NoError(t, w.Err(99))
}
