package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error)
	CancelBooking(ctx context.Context, bookingID int64, userID string) error
	GetBooking(ctx context.Context, bookingID int64, userID string) (*domain.BookingDetail, error)
	ListBookings(ctx context.Context, userID string) ([]domain.BookingDetail, error)
}

type Cache interface {
	PublishStatus(ctx context.Context, bookingID int64, status domain.BookingStatus) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type LegInput struct {
	FlightID      int64            `json:"flight_id"`
	SeatClass     domain.SeatClass `json:"seat_class"`
	DepartureDate string           `json:"departure_date"`
	DepartureTime string           `json:"departure_time"`
	ArrivalDate   string           `json:"arrival_date"`
	ArrivalTime   string           `json:"arrival_time"`
}

type PassengerInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	Age       int    `json:"age"`
}

type CreateBookingInput struct {
	UserID           string
	Outbound         LegInput
	Return           *LegInput
	Passengers       []PassengerInput
	PaymentMethod    string
	TransactionID    string
	TotalAmountCents int64
}

type CreateBookingResult struct {
	BookingReference string
	Bookings         []domain.Booking
	Payment          domain.Payment
}

type BookingService struct {
	bookings   repository.BookingRepository
	flights    repository.FlightRepository
	passengers repository.PassengerRepository
	payments   repository.PaymentRepository

	cache    Cache
	producer Producer

	notificationsTopic string
	matchPolicy        domain.MatchPolicy
	storeTimeout       time.Duration
	log                *zap.Logger
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) { s.notificationsTopic = topic }
}

func WithMatchPolicy(policy domain.MatchPolicy) BookingServiceOption {
	return func(s *BookingService) { s.matchPolicy = policy }
}

func WithStoreTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) { s.storeTimeout = d }
}

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) { s.cache = cache }
}

func WithProducer(producer Producer) BookingServiceOption {
	return func(s *BookingService) { s.producer = producer }
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	passengers repository.PassengerRepository,
	payments repository.PaymentRepository,
	log *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		flights:      flights,
		passengers:   passengers,
		payments:     payments,
		matchPolicy:  domain.MatchByEmail,
		storeTimeout: 5 * time.Second,
		log:          log,
	}
	if service.log == nil {
		service.log = zap.NewNop()
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking runs the whole commit sequence: reserve seats for every
// leg, open the payment, write the legs under one shared reference,
// resolve passengers, attach them to each leg, then complete the
// payment. Any failure before the legs and links all exist triggers
// compensating deletes of everything written so far plus a seat credit
// back, and the original error is returned.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	legs := []LegInput{input.Outbound}
	if input.Return != nil {
		legs = append(legs, *input.Return)
	}
	passengerCount := len(input.Passengers)

	// Reserve every leg concurrently. Each goroutine records its own
	// slot, and the group is not tied to a cancelable context: a
	// failing sibling must not stop an in-flight reservation from
	// landing, or the credit-back below would miss it.
	reserved := make([]bool, len(legs))
	var g errgroup.Group
	for i, leg := range legs {
		g.Go(func() error {
			err := s.withTimeout(ctx, func(c context.Context) error {
				return s.flights.ReserveSeats(c, leg.FlightID, leg.SeatClass, passengerCount)
			})
			if err != nil {
				return fmt.Errorf("reserve flight %d: %w", leg.FlightID, err)
			}
			reserved[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.releaseReserved(ctx, legs, reserved, passengerCount)
		return nil, err
	}

	txnID := input.TransactionID
	if txnID == "" {
		txnID = uuid.NewString()
	}
	payment := domain.Payment{
		UserID:           input.UserID,
		Method:           input.PaymentMethod,
		TotalAmountCents: input.TotalAmountCents,
		TransactionID:    txnID,
	}
	err := s.withTimeout(ctx, func(c context.Context) error {
		return s.payments.Create(c, &payment)
	})
	if err != nil {
		s.releaseReserved(ctx, legs, reserved, passengerCount)
		return nil, fmt.Errorf("open payment: %w", err)
	}

	reference, err := newBookingReference()
	if err != nil {
		s.rollback(ctx, legs, reserved, passengerCount, nil, payment.ID)
		return nil, fmt.Errorf("generate booking reference: %w", err)
	}

	// One leg gets the remainder so the per-leg amounts always sum
	// back to the submitted total.
	perLeg := input.TotalAmountCents / int64(len(legs))
	bookings := make([]domain.Booking, 0, len(legs))
	for i, leg := range legs {
		amount := perLeg
		if i == 0 {
			amount = input.TotalAmountCents - perLeg*int64(len(legs)-1)
		}
		b := domain.Booking{
			FlightID:         leg.FlightID,
			UserID:           input.UserID,
			BookingReference: reference,
			PaymentID:        payment.ID,
			TotalAmountCents: amount,
			DepartureDate:    leg.DepartureDate,
			DepartureTime:    leg.DepartureTime,
			ArrivalDate:      leg.ArrivalDate,
			ArrivalTime:      leg.ArrivalTime,
		}
		err := s.withTimeout(ctx, func(c context.Context) error {
			return s.bookings.CreateLeg(c, &b)
		})
		if err != nil {
			s.rollback(ctx, legs, reserved, passengerCount, bookingIDs(bookings), payment.ID)
			return nil, fmt.Errorf("write booking leg for flight %d: %w", leg.FlightID, err)
		}
		bookings = append(bookings, b)
	}

	passengerIDs, err := s.resolvePassengers(ctx, input.Passengers)
	if err != nil {
		s.rollback(ctx, legs, reserved, passengerCount, bookingIDs(bookings), payment.ID)
		return nil, fmt.Errorf("resolve passengers: %w", err)
	}

	// seats[passenger email] collects the per-leg seat assignments for
	// the e-ticket event.
	seats := make(map[string][]string, passengerCount)
	for i, b := range bookings {
		for _, p := range input.Passengers {
			link := domain.LegPassenger{
				BookingID:   b.ID,
				PassengerID: passengerIDs[p.Email],
				SeatClass:   legs[i].SeatClass,
				SeatNumber:  randomSeatNumber(legs[i].SeatClass),
			}
			err := s.withTimeout(ctx, func(c context.Context) error {
				return s.bookings.AttachPassenger(c, &link)
			})
			if err != nil {
				s.rollback(ctx, legs, reserved, passengerCount, bookingIDs(bookings), payment.ID)
				return nil, fmt.Errorf("attach passenger %s to booking %d: %w", p.Email, b.ID, err)
			}
			seats[p.Email] = append(seats[p.Email], link.SeatNumber)
		}
	}

	// Past this point the booking is committed. A failed mark-complete
	// leaves the payment PENDING for reconciliation; it is not a
	// caller-visible failure and never unwinds the legs.
	err = s.withTimeout(ctx, func(c context.Context) error {
		return s.payments.Complete(c, payment.ID)
	})
	if err != nil {
		s.log.Error("payment left PENDING after booking commit, needs reconciliation",
			zap.Int64("payment_id", payment.ID),
			zap.String("booking_reference", reference),
			zap.Error(err))
	} else {
		payment.Status = domain.PaymentStatusCompleted
	}

	s.afterCommit(ctx, input, legs, bookings, reference, seats)

	return &CreateBookingResult{
		BookingReference: reference,
		Bookings:         bookings,
		Payment:          payment,
	}, nil
}

// CancelBooking is idempotent by status: a second cancel reports
// domain.ErrAlreadyCancelled and mutates nothing. Seat inventory is
// not credited back on cancellation.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64, userID string) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.UserID != userID {
		return domain.ErrNotOwner
	}
	if b.Status == domain.BookingStatusCancelled {
		return domain.ErrAlreadyCancelled
	}

	if err := s.bookings.Cancel(ctx, bookingID); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.PublishStatus(ctx, bookingID, domain.BookingStatusCancelled); err != nil {
			s.log.Warn("publish booking status failed",
				zap.Int64("booking_id", bookingID), zap.Error(err))
		}
	}
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID int64, userID string) (*domain.BookingDetail, error) {
	detail, err := s.bookings.GetDetail(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if detail.Booking.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	return detail, nil
}

func (s *BookingService) ListBookings(ctx context.Context, userID string) ([]domain.BookingDetail, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// resolvePassengers maps every input passenger email to a stored
// passenger id, creating rows only where no match exists. A lost
// insert race is recovered by adopting the row the winner created.
func (s *BookingService) resolvePassengers(ctx context.Context, inputs []PassengerInput) (map[string]int64, error) {
	results := make([]int64, len(inputs))
	var g errgroup.Group
	for i, p := range inputs {
		g.Go(func() error {
			id, err := s.resolvePassenger(ctx, p)
			if err != nil {
				return err
			}
			results[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(inputs))
	for i, p := range inputs {
		ids[p.Email] = results[i]
	}
	for _, p := range inputs {
		if ids[p.Email] == 0 {
			return nil, fmt.Errorf("no identity resolved for passenger %s", p.Email)
		}
	}
	return ids, nil
}

func (s *BookingService) resolvePassenger(ctx context.Context, input PassengerInput) (int64, error) {
	var id int64
	err := s.withTimeout(ctx, func(c context.Context) error {
		existing, err := s.passengers.FindByContact(c, s.matchPolicy, input.Email, input.Phone)
		if err != nil {
			return err
		}
		if existing != nil {
			id = existing.ID
			return nil
		}

		p := domain.Passenger{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Phone:     input.Phone,
			Gender:    input.Gender,
			Age:       input.Age,
		}
		err = s.passengers.Insert(c, &p)
		if err == nil {
			id = p.ID
			return nil
		}
		if !errors.Is(err, domain.ErrPassengerExists) {
			return err
		}

		// Lost the insert race: someone created this contact between
		// the lookup and the insert. Adopt their row.
		existing, err = s.passengers.FindByContact(c, s.matchPolicy, input.Email, input.Phone)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("passenger %s vanished after duplicate insert", input.Email)
		}
		id = existing.ID
		return nil
	})
	return id, err
}

// rollback issues best-effort compensating deletes: links and legs
// first, then the payment, then the seat credit back. Failures are
// logged and never mask the error that triggered the rollback.
func (s *BookingService) rollback(ctx context.Context, legs []LegInput, reserved []bool, count int, legIDs []int64, paymentID int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	for _, id := range legIDs {
		if err := s.bookings.DeleteLeg(ctx, id); err != nil {
			s.log.Error("rollback: delete booking leg failed", zap.Int64("booking_id", id), zap.Error(err))
		}
	}
	if paymentID != 0 {
		if err := s.payments.Delete(ctx, paymentID); err != nil {
			s.log.Error("rollback: delete payment failed", zap.Int64("payment_id", paymentID), zap.Error(err))
		}
	}
	s.releaseReserved(ctx, legs, reserved, count)
}

func (s *BookingService) releaseReserved(ctx context.Context, legs []LegInput, reserved []bool, count int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	for i, leg := range legs {
		if !reserved[i] {
			continue
		}
		if err := s.flights.ReleaseSeats(ctx, leg.FlightID, leg.SeatClass, count); err != nil {
			s.log.Error("rollback: seat credit back failed",
				zap.Int64("flight_id", leg.FlightID),
				zap.String("seat_class", string(leg.SeatClass)),
				zap.Error(err))
		}
	}
}

// afterCommit handles the best-effort tail of a committed booking:
// cache invalidation and the e-ticket event. Neither can change the
// result already owed to the caller.
func (s *BookingService) afterCommit(ctx context.Context, input CreateBookingInput, legs []LegInput, bookings []domain.Booking, reference string, seats map[string][]string) {
	bg := context.WithoutCancel(ctx)

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(bg); err != nil {
			s.log.Warn("flights cache invalidation failed", zap.Error(err))
		}
	}

	if s.producer == nil || s.notificationsTopic == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(bg, 30*time.Second)
		defer cancel()

		event, err := s.buildTicketEvent(ctx, input, legs, bookings, reference, seats)
		if err != nil {
			s.log.Warn("e-ticket event build failed",
				zap.String("booking_reference", reference), zap.Error(err))
			return
		}
		if err := s.producer.Publish(ctx, s.notificationsTopic, reference, event); err != nil {
			s.log.Warn("e-ticket event publish failed",
				zap.String("booking_reference", reference), zap.Error(err))
		}
	}()
}

func (s *BookingService) buildTicketEvent(ctx context.Context, input CreateBookingInput, legs []LegInput, bookings []domain.Booking, reference string, seats map[string][]string) (kafka.ETicketEvent, error) {
	event := kafka.ETicketEvent{
		BookingReference: reference,
		UserID:           input.UserID,
		TotalAmountCents: input.TotalAmountCents,
	}
	for i, leg := range legs {
		flight, err := s.flights.GetByID(ctx, leg.FlightID)
		if err != nil {
			return kafka.ETicketEvent{}, err
		}
		event.Legs = append(event.Legs, kafka.TicketLeg{
			Airline:       flight.Airline,
			FlightNumber:  flight.FlightNumber,
			Origin:        flight.DepartureAirport,
			Destination:   flight.ArrivalAirport,
			DepartureDate: bookings[i].DepartureDate,
			DepartureTime: bookings[i].DepartureTime,
			ArrivalDate:   bookings[i].ArrivalDate,
			ArrivalTime:   bookings[i].ArrivalTime,
			SeatClass:     string(leg.SeatClass),
		})
	}
	for _, p := range input.Passengers {
		event.Passengers = append(event.Passengers, kafka.TicketPassenger{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Email:       p.Email,
			SeatNumbers: seats[p.Email],
		})
	}
	return event, nil
}

func (s *BookingService) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	if s.storeTimeout <= 0 {
		return fn(ctx)
	}
	c, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return fn(c)
}

func validateInput(input CreateBookingInput) error {
	if input.UserID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if len(input.Passengers) == 0 {
		return fmt.Errorf("%w: at least one passenger is required", domain.ErrInvalidInput)
	}
	if input.TotalAmountCents <= 0 {
		return fmt.Errorf("%w: total amount must be positive", domain.ErrInvalidInput)
	}
	legs := []LegInput{input.Outbound}
	if input.Return != nil {
		legs = append(legs, *input.Return)
	}
	for _, leg := range legs {
		if leg.FlightID == 0 {
			return fmt.Errorf("%w: flight id is required", domain.ErrInvalidInput)
		}
		if !leg.SeatClass.Valid() {
			return fmt.Errorf("%w: invalid seat class %q", domain.ErrInvalidInput, leg.SeatClass)
		}
	}
	for _, p := range input.Passengers {
		if p.Email == "" {
			return fmt.Errorf("%w: passenger email is required", domain.ErrInvalidInput)
		}
	}
	return nil
}

func bookingIDs(bookings []domain.Booking) []int64 {
	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	return ids
}

// newBookingReference returns the short code shared by every leg of
// one purchase: 4 random bytes, hex, upper case.
func newBookingReference() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// randomSeatNumber assigns a class-prefixed random slot. Slots are not
// unique across passengers; collisions are a known limitation.
func randomSeatNumber(class domain.SeatClass) string {
	n, err := rand.Int(rand.Reader, big.NewInt(30))
	if err != nil {
		n = big.NewInt(0)
	}
	return fmt.Sprintf("%s%d", string(class[0]), n.Int64()+1)
}

var _ BookingUseCase = (*BookingService)(nil)
