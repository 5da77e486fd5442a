package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// fakeInventory is a FlightRepository whose seat counters behave like
// the conditional UPDATE in the real store: check and decrement under
// one lock, never below zero.
type fakeInventory struct {
	mu    sync.Mutex
	seats map[int64]int
}

func newFakeInventory(seats map[int64]int) *fakeInventory {
	return &fakeInventory{seats: seats}
}

func (f *fakeInventory) ReserveSeats(_ context.Context, flightID int64, _ domain.SeatClass, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seats[flightID] < count {
		return domain.ErrInsufficientSeats
	}
	f.seats[flightID] -= count
	return nil
}

func (f *fakeInventory) ReleaseSeats(_ context.Context, flightID int64, _ domain.SeatClass, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seats[flightID] += count
	return nil
}

func (f *fakeInventory) remaining(flightID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seats[flightID]
}

func (f *fakeInventory) List(context.Context) ([]domain.Flight, error) { return nil, nil }

func (f *fakeInventory) GetByID(context.Context, int64) (*domain.Flight, error) {
	return &domain.Flight{}, nil
}

func (f *fakeInventory) Search(context.Context, repository.FlightSearchParams) ([]domain.Flight, error) {
	return nil, nil
}

var _ repository.FlightRepository = (*fakeInventory)(nil)

func raceTestService(inventory *fakeInventory, paymentsCreated *atomic.Int64) *BookingService {
	bookings := &MockBookingRepository{}
	passengers := &MockPassengerRepository{}
	payments := &MockPaymentRepository{}

	var mu sync.Mutex
	nextID := int64(100)
	bookings.On("CreateLeg", mock.Anything, mock.AnythingOfType("*domain.Booking")).Run(func(args mock.Arguments) {
		mu.Lock()
		defer mu.Unlock()
		args.Get(1).(*domain.Booking).ID = nextID
		nextID++
	}).Return(nil)
	bookings.On("AttachPassenger", mock.Anything, mock.Anything).Return(nil)

	payments.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Run(func(args mock.Arguments) {
		p := args.Get(1).(*domain.Payment)
		p.ID = paymentsCreated.Add(1)
		p.Status = domain.PaymentStatusPending
	}).Return(nil)
	payments.On("Complete", mock.Anything, mock.Anything).Return(nil)

	passengers.On("FindByContact", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Passenger{ID: 9}, nil)

	return NewBookingService(bookings, inventory, passengers, payments, zap.NewNop())
}

// Two requests race for the last seats: each wants 3 of the 5 left.
// Exactly one wins, and the loser's failure never corrupts the counter.
func TestCreateBooking_ConcurrentReservationsNeverOversell(t *testing.T) {
	inventory := newFakeInventory(map[int64]int{1: 5})
	var paymentsCreated atomic.Int64
	svc := raceTestService(inventory, &paymentsCreated)

	input := CreateBookingInput{
		UserID:   "user-1",
		Outbound: LegInput{FlightID: 1, SeatClass: domain.SeatClassEconomy},
		Passengers: []PassengerInput{
			{FirstName: "A", LastName: "B", Email: "a@example.com"},
			{FirstName: "C", LastName: "D", Email: "c@example.com"},
			{FirstName: "E", LastName: "F", Email: "e@example.com"},
		},
		TotalAmountCents: 30000,
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(context.Background(), input)
		}()
	}
	wg.Wait()

	var ok, capacity int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrInsufficientSeats):
			capacity++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, capacity)
	assert.Equal(t, 2, inventory.remaining(1))
	assert.Equal(t, int64(1), paymentsCreated.Load(), "only the winning request opens a payment")
}

// Reservations and credit backs always balance: after a failed commit
// the released seats restore exactly what was taken.
func TestReserveAndReleaseConserveInventory(t *testing.T) {
	inventory := newFakeInventory(map[int64]int{1: 10, 2: 10})
	ctx := context.Background()

	assert.NoError(t, inventory.ReserveSeats(ctx, 1, domain.SeatClassEconomy, 4))
	assert.NoError(t, inventory.ReserveSeats(ctx, 2, domain.SeatClassEconomy, 4))
	assert.Equal(t, 6, inventory.remaining(1))
	assert.Equal(t, 6, inventory.remaining(2))

	assert.NoError(t, inventory.ReleaseSeats(ctx, 1, domain.SeatClassEconomy, 4))
	assert.NoError(t, inventory.ReleaseSeats(ctx, 2, domain.SeatClassEconomy, 4))
	assert.Equal(t, 10, inventory.remaining(1))
	assert.Equal(t, 10, inventory.remaining(2))

	assert.ErrorIs(t, inventory.ReserveSeats(ctx, 1, domain.SeatClassEconomy, 11), domain.ErrInsufficientSeats)
	assert.Equal(t, 10, inventory.remaining(1))
}
