package rules

import (
	"testing"
)

func TestEventBusSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	groundHits := 0
	phaseChanges := 0

	handle1 := bus.SubscribeTyped(EventGroundHit, func(e Event) {
		groundHits++
	})
	bus.SubscribeTyped(EventPhaseChanged, func(e Event) {
		phaseChanges++
	})

	bus.Publish(Event{Type: EventGroundHit})
	if groundHits != 1 {
		t.Fatalf("expected ground hit count 1, got %d", groundHits)
	}
	if phaseChanges != 0 {
		t.Fatalf("expected phase change count 0, got %d", phaseChanges)
	}

	bus.Publish(Event{Type: EventPhaseChanged, Phase: PhaseTossed})
	if phaseChanges != 1 {
		t.Fatalf("expected phase change count 1, got %d", phaseChanges)
	}

	bus.Unsubscribe(handle1)
	bus.Publish(Event{Type: EventGroundHit})
	if groundHits != 1 {
		t.Fatalf("expected ground hit count still 1 after unsubscribe, got %d", groundHits)
	}
}

func TestEventBusDeliversInRegistrationOrder(t *testing.T) {
	bus := NewEventBus()

	var order []string
	bus.SubscribeTyped(EventSpiked, func(Event) { order = append(order, "typed-a") })
	bus.Subscribe(func(Event) { order = append(order, "all") })
	bus.SubscribeTyped(EventSpiked, func(Event) { order = append(order, "typed-b") })

	bus.Publish(Event{Type: EventSpiked})

	want := []string{"typed-a", "all", "typed-b"}
	if len(order) != len(want) {
		t.Fatalf("expected %d deliveries, got %v", len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("delivery %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestEventBusNestedPublish(t *testing.T) {
	bus := NewEventBus()

	var seen []EventType
	bus.Subscribe(func(e Event) {
		seen = append(seen, e.Type)
		if e.Type == EventGroundHit {
			bus.Publish(Event{Type: EventPhaseChanged, Phase: PhasePointOver})
		}
	})

	bus.Publish(Event{Type: EventGroundHit})

	if len(seen) != 2 || seen[0] != EventGroundHit || seen[1] != EventPhaseChanged {
		t.Fatalf("expected nested delivery, got %v", seen)
	}
}

func TestEventBusRejectsNilListener(t *testing.T) {
	bus := NewEventBus()
	if h := bus.Subscribe(nil); h != -1 {
		t.Fatalf("expected -1 handle for nil listener, got %d", h)
	}
	if h := bus.SubscribeTyped(EventSpiked, nil); h != -1 {
		t.Fatalf("expected -1 handle for nil typed listener, got %d", h)
	}
	if bus.Len() != 0 {
		t.Fatalf("expected no listeners, got %d", bus.Len())
	}
}

func TestEventBusStampsTimestamp(t *testing.T) {
	bus := NewEventBus()
	var got Event
	bus.Subscribe(func(e Event) { got = e })
	bus.Publish(Event{Type: EventJumped})
	if got.Timestamp.IsZero() {
		t.Fatal("expected publish to stamp a timestamp")
	}
}
