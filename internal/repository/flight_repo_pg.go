package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightSearchParams struct {
	DepartureAirport string
	ArrivalAirport   string
	Weekday          string // e.g. "Monday", matched against operating_days
	SeatClass        domain.SeatClass
}

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Search(ctx context.Context, params FlightSearchParams) ([]domain.Flight, error)
	// ReserveSeats decrements the cabin counter by count in a single
	// conditional UPDATE. Returns domain.ErrInsufficientSeats when the
	// counter is smaller than count.
	ReserveSeats(ctx context.Context, flightID int64, class domain.SeatClass, count int) error
	// ReleaseSeats credits back a prior reservation of the same size.
	ReleaseSeats(ctx context.Context, flightID int64, class domain.SeatClass, count int) error
}

// seatColumns maps a cabin to its counter column. Identifiers are
// interpolated from this map only, never from caller input.
var seatColumns = map[domain.SeatClass]string{
	domain.SeatClassEconomy:        "economy_seats",
	domain.SeatClassPremiumEconomy: "premium_economy_seats",
	domain.SeatClassBusiness:       "business_seats",
	domain.SeatClassFirst:          "first_class_seats",
}

const flightColumns = `id, airline, flight_number, departure_airport, arrival_airport,
	departure_time, arrival_time, operating_days, status,
	economy_seats, premium_economy_seats, business_seats, first_class_seats,
	economy_price_cents, premium_economy_price_cents, business_price_cents, first_class_price_cents,
	created_at, updated_at`

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlights(rows)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	f, err := scanFlight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *PGFlightRepository) Search(ctx context.Context, params FlightSearchParams) ([]domain.Flight, error) {
	col, ok := seatColumns[params.SeatClass]
	if !ok {
		return nil, fmt.Errorf("invalid seat class %q", params.SeatClass)
	}

	query := `SELECT ` + flightColumns + ` FROM flights
		WHERE departure_airport=$1 AND arrival_airport=$2
		AND $3 = ANY(operating_days)
		AND ` + col + ` > 0
		AND status=$4
		ORDER BY departure_time`

	rows, err := r.db.Query(ctx, query, params.DepartureAirport, params.ArrivalAirport, params.Weekday, domain.FlightStatusRunning)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlights(rows)
}

func (r *PGFlightRepository) ReserveSeats(ctx context.Context, flightID int64, class domain.SeatClass, count int) error {
	col, ok := seatColumns[class]
	if !ok {
		return fmt.Errorf("invalid seat class %q", class)
	}
	if count <= 0 {
		return fmt.Errorf("seat count must be positive, got %d", count)
	}

	// Single statement: the floor check and the decrement happen on the
	// server, so two racing reservations can never both pass the check.
	res, err := r.db.Exec(ctx,
		`UPDATE flights SET `+col+` = `+col+` - $2, updated_at = now() WHERE id=$1 AND `+col+` >= $2`,
		flightID, count)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrInsufficientSeats
	}
	return nil
}

func (r *PGFlightRepository) ReleaseSeats(ctx context.Context, flightID int64, class domain.SeatClass, count int) error {
	col, ok := seatColumns[class]
	if !ok {
		return fmt.Errorf("invalid seat class %q", class)
	}
	if count <= 0 {
		return fmt.Errorf("seat count must be positive, got %d", count)
	}

	res, err := r.db.Exec(ctx,
		`UPDATE flights SET `+col+` = `+col+` + $2, updated_at = now() WHERE id=$1`,
		flightID, count)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(
		&f.ID, &f.Airline, &f.FlightNumber, &f.DepartureAirport, &f.ArrivalAirport,
		&f.DepartureTime, &f.ArrivalTime, &f.OperatingDays, &f.Status,
		&f.EconomySeats, &f.PremiumEconomySeats, &f.BusinessSeats, &f.FirstClassSeats,
		&f.EconomyPriceCents, &f.PremiumEconomyPriceCents, &f.BusinessPriceCents, &f.FirstClassPriceCents,
		&f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanFlights(rows pgx.Rows) ([]domain.Flight, error) {
	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
