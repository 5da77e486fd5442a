package domain

import "time"

// MatchPolicy decides when two passenger records are the same person.
// The store only enforces email uniqueness; phone matching is a wider
// net for callers that want it.
type MatchPolicy string

const (
	MatchByEmail        MatchPolicy = "email"
	MatchByEmailOrPhone MatchPolicy = "email_or_phone"
)

type Passenger struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Gender    string
	Age       int
	CreatedAt time.Time
}
