package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Domenick1991/flightbooking/internal/kafka"
)

// ticketTemplate renders one passenger's e-ticket. Amounts are shown
// in whole currency units with two decimals.
var ticketTemplate = template.Must(template.New("eticket").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>E-Ticket - Booking Reference: {{.BookingReference}}</title></head>
<body>
  <h1>Flight E-Ticket</h1>
  <p>Booking Reference: <strong>{{.BookingReference}}</strong></p>
  <h2>Passenger</h2>
  <p>{{.Passenger.FirstName}} {{.Passenger.LastName}} ({{.Passenger.Email}})</p>
  <h2>Flights</h2>
  {{range $i, $leg := .Legs}}
  <div>
    <h3>{{$leg.Origin}} &#9992; {{$leg.Destination}}</h3>
    <p>Airline: {{$leg.Airline}} | Flight: {{$leg.FlightNumber}}</p>
    <p>Departs {{$leg.DepartureDate}} {{$leg.DepartureTime}} &mdash; Arrives {{$leg.ArrivalDate}} {{$leg.ArrivalTime}}</p>
    <p>Seat: {{index $.Seats $i}} ({{$leg.SeatClass}})</p>
  </div>
  {{end}}
  <p><strong>Amount Paid: {{.Amount}}</strong></p>
  <p>Thank you for choosing our service. Have a great flight!</p>
</body>
</html>`))

type ticketData struct {
	BookingReference string
	Passenger        kafka.TicketPassenger
	Legs             []kafka.TicketLeg
	Seats            []string
	Amount           string
}

// RenderTicket produces the e-ticket HTML for one passenger of a
// committed booking. The passenger's share is the total divided evenly
// across all passengers on the reference.
func RenderTicket(event kafka.ETicketEvent, passenger kafka.TicketPassenger) (string, error) {
	shareCents := event.TotalAmountCents
	if n := int64(len(event.Passengers)); n > 0 {
		shareCents = event.TotalAmountCents / n
	}

	seats := make([]string, len(event.Legs))
	for i := range seats {
		if i < len(passenger.SeatNumbers) {
			seats[i] = passenger.SeatNumbers[i]
		}
	}

	var buf bytes.Buffer
	err := ticketTemplate.Execute(&buf, ticketData{
		BookingReference: event.BookingReference,
		Passenger:        passenger,
		Legs:             event.Legs,
		Seats:            seats,
		Amount:           fmt.Sprintf("%d.%02d", shareCents/100, shareCents%100),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
