package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeatClassValid(t *testing.T) {
	assert.True(t, SeatClassEconomy.Valid())
	assert.True(t, SeatClassPremiumEconomy.Valid())
	assert.True(t, SeatClassBusiness.Valid())
	assert.True(t, SeatClassFirst.Valid())

	assert.False(t, SeatClass("").Valid())
	assert.False(t, SeatClass("LUXURY").Valid())
	assert.False(t, SeatClass("economy").Valid())
}

func TestFlightCabinAccessors(t *testing.T) {
	f := &Flight{
		EconomySeats:        120,
		PremiumEconomySeats: 24,
		BusinessSeats:       12,
		FirstClassSeats:     4,

		EconomyPriceCents:        15000,
		PremiumEconomyPriceCents: 27000,
		BusinessPriceCents:       60000,
		FirstClassPriceCents:     120000,
	}

	assert.Equal(t, 120, f.SeatsFor(SeatClassEconomy))
	assert.Equal(t, 24, f.SeatsFor(SeatClassPremiumEconomy))
	assert.Equal(t, 12, f.SeatsFor(SeatClassBusiness))
	assert.Equal(t, 4, f.SeatsFor(SeatClassFirst))
	assert.Equal(t, 0, f.SeatsFor(SeatClass("LUXURY")))

	assert.Equal(t, int64(15000), f.PriceCentsFor(SeatClassEconomy))
	assert.Equal(t, int64(120000), f.PriceCentsFor(SeatClassFirst))
	assert.Equal(t, int64(0), f.PriceCentsFor(SeatClass("LUXURY")))
}
