package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PassengerRepository interface {
	// FindByContact looks a passenger up by the configured match
	// policy. Returns (nil, nil) when no row matches.
	FindByContact(ctx context.Context, policy domain.MatchPolicy, email, phone string) (*domain.Passenger, error)
	// Insert creates the passenger and fills in its ID. A uniqueness
	// conflict surfaces as domain.ErrPassengerExists so the caller can
	// re-query instead of failing.
	Insert(ctx context.Context, p *domain.Passenger) error
}

const passengerColumns = `id, first_name, last_name, email, phone, gender, age, created_at`

type PGPassengerRepository struct {
	db *pgxpool.Pool
}

func NewPassengerRepository(db *pgxpool.Pool) PassengerRepository {
	return &PGPassengerRepository{db: db}
}

func (r *PGPassengerRepository) FindByContact(ctx context.Context, policy domain.MatchPolicy, email, phone string) (*domain.Passenger, error) {
	var row pgx.Row
	switch policy {
	case domain.MatchByEmailOrPhone:
		row = r.db.QueryRow(ctx,
			`SELECT `+passengerColumns+` FROM passengers WHERE email=$1 OR phone=$2 ORDER BY created_at LIMIT 1`,
			email, phone)
	default:
		row = r.db.QueryRow(ctx, `SELECT `+passengerColumns+` FROM passengers WHERE email=$1`, email)
	}

	var p domain.Passenger
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Gender, &p.Age, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGPassengerRepository) Insert(ctx context.Context, p *domain.Passenger) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO passengers (first_name, last_name, email, phone, gender, age)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		p.FirstName, p.LastName, p.Email, p.Phone, p.Gender, p.Age,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrPassengerExists
		}
		return err
	}
	return nil
}

var _ PassengerRepository = (*PGPassengerRepository)(nil)
