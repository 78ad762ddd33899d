package payments

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventBusEmitInRegistrationOrder(t *testing.T) {
	bus := NewEventBus()

	var order []int
	bus.On("pay", func(Event) { order = append(order, 1) })
	bus.On("pay", func(Event) { order = append(order, 2) })
	bus.On("pay", func(Event) { order = append(order, 3) })

	bus.Emit("pay", Event{Operation: "pay"})
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestEventBusOff(t *testing.T) {
	bus := NewEventBus()

	var calls []string
	keep := bus.On("pay", func(Event) { calls = append(calls, "keep") })
	drop := bus.On("pay", func(Event) { calls = append(calls, "drop") })

	bus.Off(drop)
	bus.Emit("pay", Event{})
	require.Equal(t, []string{"keep"}, calls)

	// removing twice, or removing nil, is harmless
	bus.Off(drop)
	bus.Off(nil)
	bus.Emit("pay", Event{})
	require.Equal(t, []string{"keep", "keep"}, calls)

	bus.Off(keep)
	bus.Emit("pay", Event{})
	require.Equal(t, []string{"keep", "keep"}, calls)
}

func TestEventBusEmitWithoutListeners(t *testing.T) {
	bus := NewEventBus()
	// must not panic
	bus.Emit("verify", Event{Operation: "verify"})
}

func TestEventBusSeparateEventNames(t *testing.T) {
	bus := NewEventBus()

	payCount, refundCount := 0, 0
	bus.On("pay", func(Event) { payCount++ })
	bus.On("refund", func(Event) { refundCount++ })

	bus.Emit("pay", Event{})
	bus.Emit("pay", Event{})
	bus.Emit("refund", Event{})

	require.Equal(t, 2, payCount)
	require.Equal(t, 1, refundCount)
}

func TestEventBusPayloadDelivered(t *testing.T) {
	bus := NewEventBus()

	var got Event
	bus.On("wallet", func(evt Event) { got = evt })

	sent := Event{Operation: "wallet", Gateway: "stripe", Params: "params", Result: "result"}
	bus.Emit("wallet", sent)
	require.Equal(t, sent, got)
}
