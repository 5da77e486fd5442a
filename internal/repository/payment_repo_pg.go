package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	// Create opens the payment in PENDING state and fills in its ID.
	Create(ctx context.Context, p *domain.Payment) error
	// Complete flips PENDING to COMPLETED.
	Complete(ctx context.Context, id int64) error
	// Delete removes the row entirely; used only for rollback.
	Delete(ctx context.Context, id int64) error
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	p.Status = domain.PaymentStatusPending
	return r.db.QueryRow(ctx,
		`INSERT INTO payments (user_id, payment_method, payment_status, total_amount_cents, transaction_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		p.UserID, p.Method, p.Status, p.TotalAmountCents, p.TransactionID,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *PGPaymentRepository) Complete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx,
		`UPDATE payments SET payment_status=$1 WHERE id=$2 AND payment_status=$3`,
		domain.PaymentStatusCompleted, id, domain.PaymentStatusPending)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errors.New("payment not pending")
	}
	return nil
}

func (r *PGPaymentRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM payments WHERE id=$1`, id)
	return err
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
