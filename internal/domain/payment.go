package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
)

// Payment is opened PENDING before any booking leg is written and
// flipped to COMPLETED only after every leg and link exists. A failed
// transaction deletes the row instead of completing it.
type Payment struct {
	ID               int64
	UserID           string
	Method           string
	Status           PaymentStatus
	TotalAmountCents int64
	TransactionID    string
	CreatedAt        time.Time
}
