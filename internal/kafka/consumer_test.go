package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHandleMessage_DispatchesDecodedEvent(t *testing.T) {
	c := &Consumer{log: zap.NewNop()}

	payload, err := json.Marshal(ETicketEvent{
		BookingReference: "A1B2C3D4",
		TotalAmountCents: 36000,
		Passengers:       []TicketPassenger{{Email: "asha@example.com"}},
	})
	assert.NoError(t, err)

	var got []ETicketEvent
	c.handleMessage(context.Background(), kafka.Message{Value: payload}, func(_ context.Context, event ETicketEvent) error {
		got = append(got, event)
		return nil
	})

	assert.Len(t, got, 1)
	assert.Equal(t, "A1B2C3D4", got[0].BookingReference)
	assert.Equal(t, "asha@example.com", got[0].Passengers[0].Email)
}

func TestHandleMessage_SkipsUndecodableMessages(t *testing.T) {
	c := &Consumer{log: zap.NewNop()}

	var calls int
	c.handleMessage(context.Background(), kafka.Message{Value: []byte("not json")}, func(context.Context, ETicketEvent) error {
		calls++
		return nil
	})

	assert.Zero(t, calls)
}

// A delivery failure is logged, never propagated: the booking behind
// the event is already committed.
func TestHandleMessage_SwallowsHandlerErrors(t *testing.T) {
	c := &Consumer{log: zap.NewNop()}

	payload, err := json.Marshal(ETicketEvent{BookingReference: "A1B2C3D4"})
	assert.NoError(t, err)

	assert.NotPanics(t, func() {
		c.handleMessage(context.Background(), kafka.Message{Value: payload}, func(context.Context, ETicketEvent) error {
			return errors.New("mail api down")
		})
	})
}
