package domain

import "time"

type FlightStatus string

const (
	FlightStatusRunning   FlightStatus = "RUNNING"
	FlightStatusSuspended FlightStatus = "SUSPENDED"
)

// SeatClass is a fare cabin with its own inventory and price.
type SeatClass string

const (
	SeatClassEconomy        SeatClass = "ECONOMY"
	SeatClassPremiumEconomy SeatClass = "PREMIUM_ECONOMY"
	SeatClassBusiness       SeatClass = "BUSINESS"
	SeatClassFirst          SeatClass = "FIRST"
)

func (c SeatClass) Valid() bool {
	switch c {
	case SeatClassEconomy, SeatClassPremiumEconomy, SeatClassBusiness, SeatClassFirst:
		return true
	}
	return false
}

type Flight struct {
	ID               int64
	Airline          string
	FlightNumber     string
	DepartureAirport string
	ArrivalAirport   string
	DepartureTime    time.Time
	ArrivalTime      time.Time
	OperatingDays    []string
	Status           FlightStatus

	EconomySeats        int
	PremiumEconomySeats int
	BusinessSeats       int
	FirstClassSeats     int

	EconomyPriceCents        int64
	PremiumEconomyPriceCents int64
	BusinessPriceCents       int64
	FirstClassPriceCents     int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SeatsFor returns the available counter of the given cabin.
func (f *Flight) SeatsFor(class SeatClass) int {
	switch class {
	case SeatClassEconomy:
		return f.EconomySeats
	case SeatClassPremiumEconomy:
		return f.PremiumEconomySeats
	case SeatClassBusiness:
		return f.BusinessSeats
	case SeatClassFirst:
		return f.FirstClassSeats
	}
	return 0
}

func (f *Flight) PriceCentsFor(class SeatClass) int64 {
	switch class {
	case SeatClassEconomy:
		return f.EconomyPriceCents
	case SeatClassPremiumEconomy:
		return f.PremiumEconomyPriceCents
	case SeatClassBusiness:
		return f.BusinessPriceCents
	case SeatClassFirst:
		return f.FirstClassPriceCents
	}
	return 0
}
