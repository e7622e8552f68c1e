package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vectorpad/vectorpad/internal/canvas"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	b := canvas.NewBus()
	var order []string

	b.Subscribe(canvas.EventPointerDown, func(*canvas.Event) { order = append(order, "first") })
	b.Subscribe(canvas.EventPointerDown, func(*canvas.Event) { order = append(order, "second") })
	b.Subscribe(canvas.EventPointerDown, func(*canvas.Event) { order = append(order, "third") })

	b.Emit(canvas.EventPointerDown, &canvas.Event{Type: canvas.EventPointerDown})
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBus_TypeIsolation(t *testing.T) {
	b := canvas.NewBus()
	downs, moves := 0, 0

	b.Subscribe(canvas.EventPointerDown, func(*canvas.Event) { downs++ })
	b.Subscribe(canvas.EventPointerMove, func(*canvas.Event) { moves++ })

	b.Emit(canvas.EventPointerDown, &canvas.Event{Type: canvas.EventPointerDown})
	b.Emit(canvas.EventPointerDown, &canvas.Event{Type: canvas.EventPointerDown})
	b.Emit(canvas.EventPointerMove, &canvas.Event{Type: canvas.EventPointerMove})

	assert.Equal(t, 2, downs)
	assert.Equal(t, 1, moves)
}

func TestBus_Unsubscribe(t *testing.T) {
	b := canvas.NewBus()
	calls := 0

	unsub := b.Subscribe(canvas.EventKeyDown, func(*canvas.Event) { calls++ })
	b.Emit(canvas.EventKeyDown, &canvas.Event{Type: canvas.EventKeyDown})
	unsub()
	b.Emit(canvas.EventKeyDown, &canvas.Event{Type: canvas.EventKeyDown})

	assert.Equal(t, 1, calls)
}

func TestBus_UnsubscribeDuringDispatchKeepsOrder(t *testing.T) {
	b := canvas.NewBus()
	var order []string

	var unsubFirst func()
	unsubFirst = b.Subscribe(canvas.EventPointerUp, func(*canvas.Event) {
		order = append(order, "first")
		unsubFirst()
	})
	b.Subscribe(canvas.EventPointerUp, func(*canvas.Event) { order = append(order, "second") })

	// The handler removing itself must not skip the next subscriber.
	b.Emit(canvas.EventPointerUp, &canvas.Event{Type: canvas.EventPointerUp})
	assert.Equal(t, []string{"first", "second"}, order)

	b.Emit(canvas.EventPointerUp, &canvas.Event{Type: canvas.EventPointerUp})
	assert.Equal(t, []string{"first", "second", "second"}, order)
}
