package watch

import (
	"context"
	"sync"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// StatusBus is the push channel the watcher rides on. The redis cache
// implements it; tests supply an in-memory one.
type StatusBus interface {
	SubscribeStatus(ctx context.Context, bookingID int64) (<-chan domain.BookingStatus, func(), error)
}

// Watcher tracks the freshest known status of watched bookings.
// Pushes may arrive more than once and out of order relative to the
// original write; repeats of the current status are dropped so each
// change is applied once, and CANCELLED is terminal.
type Watcher struct {
	bus StatusBus

	mu       sync.RWMutex
	statuses map[int64]domain.BookingStatus
	errs     map[int64]error
}

func NewWatcher(bus StatusBus) *Watcher {
	return &Watcher{
		bus:      bus,
		statuses: make(map[int64]domain.BookingStatus),
		errs:     make(map[int64]error),
	}
}

// Watch subscribes to the booking's status channel, seeding the local
// value with initial. The returned stop function ends the watch. A
// failed subscribe is recorded and returned; Status still serves the
// seed value.
func (w *Watcher) Watch(ctx context.Context, bookingID int64, initial domain.BookingStatus) (func(), error) {
	w.mu.Lock()
	w.statuses[bookingID] = initial
	delete(w.errs, bookingID)
	w.mu.Unlock()

	updates, stop, err := w.bus.SubscribeStatus(ctx, bookingID)
	if err != nil {
		w.mu.Lock()
		w.errs[bookingID] = err
		w.mu.Unlock()
		return func() {}, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for status := range updates {
			w.apply(bookingID, status)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			<-done
		})
	}, nil
}

func (w *Watcher) apply(bookingID int64, status domain.BookingStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	current := w.statuses[bookingID]
	if current == status {
		// Duplicate delivery; the change was already applied.
		return
	}
	if current == domain.BookingStatusCancelled {
		// CANCELLED is terminal: a stale pre-cancel push delivered out
		// of order must not resurrect the booking.
		return
	}
	w.statuses[bookingID] = status
}

// Status returns the freshest known status of a watched booking.
func (w *Watcher) Status(bookingID int64) (domain.BookingStatus, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.statuses[bookingID]
	return s, ok
}

// Err reports whether the subscription for a booking failed to open.
func (w *Watcher) Err(bookingID int64) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.errs[bookingID]
}
