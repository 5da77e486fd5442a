package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// CreateLeg writes one CONFIRMED booking row and fills in its ID.
	CreateLeg(ctx context.Context, b *domain.Booking) error
	// DeleteLeg removes a leg and its passenger links; used only for
	// rollback.
	DeleteLeg(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// Cancel transitions CONFIRMED to CANCELLED. The guard lives in the
	// statement itself: a second cancel affects no rows and is reported
	// as domain.ErrAlreadyCancelled.
	Cancel(ctx context.Context, id int64) error
	AttachPassenger(ctx context.Context, link *domain.LegPassenger) error
	GetDetail(ctx context.Context, id int64) (*domain.BookingDetail, error)
	ListByUser(ctx context.Context, userID string) ([]domain.BookingDetail, error)
}

const bookingColumns = `id, flight_id, user_id, booking_reference, booking_status, payment_id,
	total_amount_cents, departure_date, departure_time, arrival_date, arrival_time, created_at, updated_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) CreateLeg(ctx context.Context, b *domain.Booking) error {
	b.Status = domain.BookingStatusConfirmed
	return r.db.QueryRow(ctx,
		`INSERT INTO bookings (flight_id, user_id, booking_reference, booking_status, payment_id,
			total_amount_cents, departure_date, departure_time, arrival_date, arrival_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		b.FlightID, b.UserID, b.BookingReference, b.Status, b.PaymentID,
		b.TotalAmountCents, b.DepartureDate, b.DepartureTime, b.ArrivalDate, b.ArrivalTime,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *PGBookingRepository) DeleteLeg(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Links first so no orphaned link ever survives the leg.
	if _, err := tx.Exec(ctx, `DELETE FROM booking_passengers WHERE booking_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) Cancel(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx,
		`UPDATE bookings SET booking_status=$1, updated_at=now() WHERE id=$2 AND booking_status=$3`,
		domain.BookingStatusCancelled, id, domain.BookingStatusConfirmed)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrAlreadyCancelled
	}
	return nil
}

func (r *PGBookingRepository) AttachPassenger(ctx context.Context, link *domain.LegPassenger) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO booking_passengers (booking_id, passenger_id, seat_class, seat_number)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		link.BookingID, link.PassengerID, link.SeatClass, link.SeatNumber,
	).Scan(&link.ID)
}

func (r *PGBookingRepository) GetDetail(ctx context.Context, id int64) (*domain.BookingDetail, error) {
	details, err := r.queryDetails(ctx, `WHERE b.id=$1`, id)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, domain.ErrBookingNotFound
	}
	return &details[0], nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.BookingDetail, error) {
	return r.queryDetails(ctx, `WHERE b.user_id=$1`, userID)
}

func (r *PGBookingRepository) queryDetails(ctx context.Context, where string, arg interface{}) ([]domain.BookingDetail, error) {
	rows, err := r.db.Query(ctx, `
		SELECT b.id, b.flight_id, b.user_id, b.booking_reference, b.booking_status, b.payment_id,
			b.total_amount_cents, b.departure_date, b.departure_time, b.arrival_date, b.arrival_time,
			b.created_at, b.updated_at,
			f.id, f.airline, f.flight_number, f.departure_airport, f.arrival_airport,
			f.departure_time, f.arrival_time, f.operating_days, f.status,
			f.economy_seats, f.premium_economy_seats, f.business_seats, f.first_class_seats,
			f.economy_price_cents, f.premium_economy_price_cents, f.business_price_cents, f.first_class_price_cents,
			f.created_at, f.updated_at,
			p.id, p.first_name, p.last_name, p.email, p.phone, p.gender, p.age, p.created_at,
			bp.seat_class, bp.seat_number
		FROM bookings b
		JOIN flights f ON f.id = b.flight_id
		JOIN booking_passengers bp ON bp.booking_id = b.id
		JOIN passengers p ON p.id = bp.passenger_id
		`+where+`
		ORDER BY b.created_at DESC, b.id, p.id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domain.BookingDetail
	index := make(map[int64]int)
	for rows.Next() {
		var (
			b  domain.Booking
			f  domain.Flight
			sp domain.SeatedPassenger
		)
		if err := rows.Scan(
			&b.ID, &b.FlightID, &b.UserID, &b.BookingReference, &b.Status, &b.PaymentID,
			&b.TotalAmountCents, &b.DepartureDate, &b.DepartureTime, &b.ArrivalDate, &b.ArrivalTime,
			&b.CreatedAt, &b.UpdatedAt,
			&f.ID, &f.Airline, &f.FlightNumber, &f.DepartureAirport, &f.ArrivalAirport,
			&f.DepartureTime, &f.ArrivalTime, &f.OperatingDays, &f.Status,
			&f.EconomySeats, &f.PremiumEconomySeats, &f.BusinessSeats, &f.FirstClassSeats,
			&f.EconomyPriceCents, &f.PremiumEconomyPriceCents, &f.BusinessPriceCents, &f.FirstClassPriceCents,
			&f.CreatedAt, &f.UpdatedAt,
			&sp.Passenger.ID, &sp.Passenger.FirstName, &sp.Passenger.LastName, &sp.Passenger.Email,
			&sp.Passenger.Phone, &sp.Passenger.Gender, &sp.Passenger.Age, &sp.Passenger.CreatedAt,
			&sp.SeatClass, &sp.SeatNumber,
		); err != nil {
			return nil, err
		}

		i, ok := index[b.ID]
		if !ok {
			details = append(details, domain.BookingDetail{Booking: b, Flight: f})
			i = len(details) - 1
			index[b.ID] = i
		}
		details[i].Passengers = append(details[i].Passengers, sp)
	}
	return details, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(
		&b.ID, &b.FlightID, &b.UserID, &b.BookingReference, &b.Status, &b.PaymentID,
		&b.TotalAmountCents, &b.DepartureDate, &b.DepartureTime, &b.ArrivalDate, &b.ArrivalTime,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
