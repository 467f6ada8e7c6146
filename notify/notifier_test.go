package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testEvent() Event {
	return Event{
		UserID:   42,
		Exchange: "liqui",
		OrderID:  "abc123",
		Pair:     "ETH-BTC",
		State:    "EXECUTED",
		Text:     "*Exchange:* liqui",
		CycleID:  "cycle-1",
		At:       time.Now().UTC(),
	}
}

func TestNotifierFansOutToAllChannels(t *testing.T) {
	a := NewMockChannel("a")
	b := NewMockChannel("b")
	n := NewNotifier(nil, a, b)

	n.Deliver(context.Background(), testEvent())

	assert.Equal(t, 1, a.Count())
	assert.Equal(t, 1, b.Count())
	assert.Equal(t, "abc123", a.Events()[0].OrderID)
}

func TestNotifierFailingChannelDoesNotBlockOthers(t *testing.T) {
	broken := NewMockChannel("broken")
	broken.SetShouldError(true)
	healthy := NewMockChannel("healthy")
	n := NewNotifier(nil, broken, healthy)

	n.Deliver(context.Background(), testEvent())

	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, healthy.Count())
}

func TestNotifierAddChannel(t *testing.T) {
	n := NewNotifier(nil)
	n.Deliver(context.Background(), testEvent()) // no channels, no panic

	late := NewMockChannel("late")
	n.AddChannel(late)
	n.Deliver(context.Background(), testEvent())

	assert.Equal(t, 1, late.Count())
}
