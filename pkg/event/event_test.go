package event

import "testing"

func TestFireReachesListenersInOrder(t *testing.T) {
	bus := NewBus()

	var order []int
	bus.Listen("thing.happened", func(interface{}) { order = append(order, 1) })
	bus.Listen("thing.happened", func(interface{}) { order = append(order, 2) })

	bus.Fire("thing.happened", nil)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("handlers ran as %v, want [1 2]", order)
	}
}

func TestFireCarriesPayload(t *testing.T) {
	bus := NewBus()

	var got interface{}
	bus.Listen("thing.happened", func(p interface{}) { got = p })

	bus.Fire("thing.happened", "payload")
	if got != "payload" {
		t.Errorf("payload = %v", got)
	}
}

func TestFireUnknownEventIsNoOp(t *testing.T) {
	bus := NewBus()
	bus.Fire("nobody.listens", nil) // must not panic
}

func TestFlushDropsListeners(t *testing.T) {
	bus := NewBus()

	fired := false
	bus.Listen("thing.happened", func(interface{}) { fired = true })
	bus.Flush()
	bus.Fire("thing.happened", nil)

	if fired {
		t.Error("listener survived Flush")
	}
}
