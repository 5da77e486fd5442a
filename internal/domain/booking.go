package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is one leg of a purchase. Outbound and return legs share a
// BookingReference and a payment row.
type Booking struct {
	ID               int64
	FlightID         int64
	UserID           string
	BookingReference string
	Status           BookingStatus
	PaymentID        int64
	TotalAmountCents int64
	DepartureDate    string
	DepartureTime    string
	ArrivalDate      string
	ArrivalTime      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LegPassenger joins a passenger to one booking leg with the seat
// assigned at commit time. Rows are written once and never mutated.
type LegPassenger struct {
	ID          int64
	BookingID   int64
	PassengerID int64
	SeatClass   SeatClass
	SeatNumber  string
}

// BookingDetail is the read projection joining a leg with its flight
// and passengers.
type BookingDetail struct {
	Booking    Booking
	Flight     Flight
	Passengers []SeatedPassenger
}

type SeatedPassenger struct {
	Passenger  Passenger
	SeatClass  SeatClass
	SeatNumber string
}
