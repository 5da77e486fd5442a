package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/stretchr/testify/assert"
)

func sampleEvent() kafka.ETicketEvent {
	return kafka.ETicketEvent{
		BookingReference: "A1B2C3D4",
		UserID:           "user-1",
		TotalAmountCents: 36000,
		Passengers: []kafka.TicketPassenger{
			{FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", SeatNumbers: []string{"E12", "E7"}},
			{FirstName: "Vikram", LastName: "Rao", Email: "vikram@example.com", SeatNumbers: []string{"E13", "E8"}},
		},
		Legs: []kafka.TicketLeg{
			{Airline: "AirExample", FlightNumber: "AX100", Origin: "DEL", Destination: "BOM", DepartureDate: "2026-03-01", DepartureTime: "08:00", ArrivalDate: "2026-03-01", ArrivalTime: "11:00", SeatClass: "ECONOMY"},
			{Airline: "AirExample", FlightNumber: "AX101", Origin: "BOM", Destination: "DEL", DepartureDate: "2026-03-10", DepartureTime: "18:00", ArrivalDate: "2026-03-10", ArrivalTime: "21:00", SeatClass: "ECONOMY"},
		},
	}
}

func TestRenderTicket(t *testing.T) {
	event := sampleEvent()
	html, err := RenderTicket(event, event.Passengers[0])

	assert.NoError(t, err)
	assert.Contains(t, html, "A1B2C3D4")
	assert.Contains(t, html, "Asha Rao (asha@example.com)")
	assert.Contains(t, html, "AX100")
	assert.Contains(t, html, "AX101")
	assert.Contains(t, html, "Seat: E12 (ECONOMY)")
	assert.Contains(t, html, "Seat: E7 (ECONOMY)")
	// Each of the two passengers is shown their even share of 360.00.
	assert.Contains(t, html, "Amount Paid: 180.00")
}

func TestRenderTicket_SinglePassengerGetsFullAmount(t *testing.T) {
	event := sampleEvent()
	event.TotalAmountCents = 30050
	event.Passengers = event.Passengers[:1]

	html, err := RenderTicket(event, event.Passengers[0])

	assert.NoError(t, err)
	assert.Contains(t, html, "Amount Paid: 300.50")
}

func TestRenderTicket_MissingSeatsRenderEmpty(t *testing.T) {
	event := sampleEvent()
	passenger := event.Passengers[0]
	passenger.SeatNumbers = []string{"E12"}

	html, err := RenderTicket(event, passenger)

	assert.NoError(t, err)
	assert.Contains(t, html, "Seat: E12 (ECONOMY)")
	assert.Contains(t, html, "Seat:  (ECONOMY)")
}

func TestSend_DeliversOneMailPerPassenger(t *testing.T) {
	var requests []sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req sendRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := NewSender(config.EmailConfig{
		APIKey:    "test-key",
		FromEmail: "tickets@example.com",
		BaseURL:   server.URL,
	})

	err := sender.Send(context.Background(), sampleEvent())

	assert.NoError(t, err)
	assert.Len(t, requests, 2)
	assert.Equal(t, "asha@example.com", requests[0].Personalizations[0].To[0].Email)
	assert.Equal(t, "vikram@example.com", requests[1].Personalizations[0].To[0].Email)
	assert.Equal(t, "tickets@example.com", requests[0].From.Email)
	assert.Equal(t, "Your E-Ticket - Booking A1B2C3D4", requests[0].Subject)
	assert.Contains(t, requests[0].Content[0].Value, "Amount Paid: 180.00")
}

func TestSend_ReportsAPIFailureAfterTryingEveryone(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"errors":[{"message":"bad request"}]}`, http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewSender(config.EmailConfig{APIKey: "k", FromEmail: "f@example.com", BaseURL: server.URL})

	err := sender.Send(context.Background(), sampleEvent())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, 2, calls, "every passenger is still attempted")
}
