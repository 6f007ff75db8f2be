package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a rally event.
type EventType string

const (
	// Rally events
	EventPhaseChanged EventType = "PHASE_CHANGED"
	EventRallyReset   EventType = "RALLY_RESET"
	EventPointScored  EventType = "POINT_SCORED"

	// Ball events
	EventBallLaunched EventType = "BALL_LAUNCHED"
	EventGroundHit    EventType = "GROUND_HIT"
	EventOutOfBounds  EventType = "OUT_OF_BOUNDS"
	EventNetTouched   EventType = "NET_TOUCHED"

	// Player events
	EventChargeStarted EventType = "CHARGE_STARTED"
	EventTossReleased  EventType = "TOSS_RELEASED"
	EventSpiked        EventType = "SPIKED"
	EventBumped        EventType = "BUMPED"
	EventSet           EventType = "SET"
	EventJumped        EventType = "JUMPED"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type      EventType
	RallyID   string
	Phase     Phase
	Team      Team
	Amount    float64 // speed, accuracy or charge fraction depending on Type
	Timestamp time.Time
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type subscription struct {
	handle    int
	eventType EventType // empty for all events
	callback  Listener
}

// EventBus is a synchronous publish/subscribe bus. Listeners run on the
// publishing goroutine in registration order.
type EventBus struct {
	mu         sync.RWMutex
	subs       []subscription
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	return bus.add("", listener)
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	if eventType == "" {
		return -1
	}
	return bus.add(eventType, listener)
}

func (bus *EventBus) add(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, subscription{handle: handle, eventType: eventType, callback: listener})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i := range bus.subs {
		if bus.subs[i].handle == handle {
			bus.subs = append(bus.subs[:i:i], bus.subs[i+1:]...)
			return
		}
	}
}

// Len reports the number of registered listeners.
func (bus *EventBus) Len() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}

// Publish delivers the event to matching listeners synchronously.
// The listener list is copied first so listeners may publish or
// (un)subscribe without deadlocking.
func (bus *EventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	bus.mu.RLock()
	subs := make([]subscription, len(bus.subs))
	copy(subs, bus.subs)
	bus.mu.RUnlock()

	for _, s := range subs {
		if s.eventType == "" || s.eventType == event.Type {
			s.callback(event)
		}
	}
}
