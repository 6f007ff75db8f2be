package rules

import (
	"sync"
)

// WatcherScope defines how long a watcher's tracking lasts.
type WatcherScope int

const (
	// WatcherScopeMatch tracks events for the whole match.
	WatcherScopeMatch WatcherScope = iota
	// WatcherScopeRally tracks events for the current rally and is reset
	// when the rally is reset.
	WatcherScopeRally
	// WatcherScopeTeam tracks events caused by one team.
	WatcherScopeTeam
)

// String returns the string representation of the watcher scope.
func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeMatch:
		return "MATCH"
	case WatcherScopeRally:
		return "RALLY"
	case WatcherScopeTeam:
		return "TEAM"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes rally events and tracks a condition.
type Watcher interface {
	// Watch is called for every event published on the bus.
	Watch(event Event)

	// Reset clears the watcher's condition and state.
	Reset()

	// ConditionMet returns true if the tracked condition has been met.
	ConditionMet() bool

	// Scope returns the scope of this watcher.
	Scope() WatcherScope

	// Key returns a unique key for this watcher instance.
	Key() string
}

// BaseWatcher provides the bookkeeping shared by watchers.
type BaseWatcher struct {
	scope     WatcherScope
	team      Team
	condition bool
	key       string
}

// NewBaseWatcher creates a base watcher with the given scope and key.
func NewBaseWatcher(scope WatcherScope, key string) *BaseWatcher {
	return &BaseWatcher{scope: scope, key: key}
}

// Scope returns the watcher's scope.
func (bw *BaseWatcher) Scope() WatcherScope { return bw.scope }

// Key returns the unique key for this watcher.
func (bw *BaseWatcher) Key() string { return bw.key }

// Team returns the watched team for TEAM scope watchers.
func (bw *BaseWatcher) Team() Team { return bw.team }

// SetTeam sets the watched team.
func (bw *BaseWatcher) SetTeam(t Team) { bw.team = t }

// ConditionMet returns whether the condition has been met.
func (bw *BaseWatcher) ConditionMet() bool { return bw.condition }

// SetCondition sets the condition flag.
func (bw *BaseWatcher) SetCondition(condition bool) { bw.condition = condition }

// Reset clears the condition.
func (bw *BaseWatcher) Reset() { bw.condition = false }

// WatcherRegistry feeds bus events to its watchers in registration order.
// Rally scoped watchers are reset after they see RALLY_RESET.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers []Watcher
	bus      *EventBus
	handle   int
}

// NewWatcherRegistry creates a registry listening on bus. A nil bus gives a
// registry that is only fed through Notify.
func NewWatcherRegistry(bus *EventBus) *WatcherRegistry {
	wr := &WatcherRegistry{bus: bus, handle: -1}
	if bus != nil {
		wr.handle = bus.Subscribe(wr.Notify)
	}
	return wr
}

// Close detaches the registry from its bus.
func (wr *WatcherRegistry) Close() {
	if wr.bus != nil && wr.handle >= 0 {
		wr.bus.Unsubscribe(wr.handle)
		wr.handle = -1
	}
}

// Add registers a watcher, replacing any watcher with the same key.
func (wr *WatcherRegistry) Add(w Watcher) {
	if w == nil {
		return
	}
	wr.mu.Lock()
	defer wr.mu.Unlock()
	for i, existing := range wr.watchers {
		if existing.Key() == w.Key() {
			wr.watchers[i] = w
			return
		}
	}
	wr.watchers = append(wr.watchers, w)
}

// Remove drops the watcher with key.
func (wr *WatcherRegistry) Remove(key string) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	for i, w := range wr.watchers {
		if w.Key() == key {
			wr.watchers = append(wr.watchers[:i:i], wr.watchers[i+1:]...)
			return
		}
	}
}

// Get returns the watcher with key, or nil.
func (wr *WatcherRegistry) Get(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, w := range wr.watchers {
		if w.Key() == key {
			return w
		}
	}
	return nil
}

// ByScope returns the watchers of scope.
func (wr *WatcherRegistry) ByScope(scope WatcherScope) []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	var result []Watcher
	for _, w := range wr.watchers {
		if w.Scope() == scope {
			result = append(result, w)
		}
	}
	return result
}

// Reset resets every watcher.
func (wr *WatcherRegistry) Reset() {
	for _, w := range wr.snapshot() {
		w.Reset()
	}
}

// Notify delivers event to every watcher.
func (wr *WatcherRegistry) Notify(event Event) {
	watchers := wr.snapshot()
	for _, w := range watchers {
		w.Watch(event)
	}
	if event.Type == EventRallyReset {
		for _, w := range watchers {
			if w.Scope() == WatcherScopeRally {
				w.Reset()
			}
		}
	}
}

func (wr *WatcherRegistry) snapshot() []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	out := make([]Watcher, len(wr.watchers))
	copy(out, wr.watchers)
	return out
}

// RallyStats summarizes the current rally.
type RallyStats struct {
	Launches     int     `json:"launches" msgpack:"launches"`
	Spikes       int     `json:"spikes" msgpack:"spikes"`
	NetTouches   int     `json:"net_touches" msgpack:"net_touches"`
	Jumps        int     `json:"jumps" msgpack:"jumps"`
	BestAccuracy float64 `json:"best_accuracy" msgpack:"best_accuracy"`
	MaxSpeed     float64 `json:"max_speed" msgpack:"max_speed"`
}

// RallyStatsKey is the key of RallyStatsWatcher.
const RallyStatsKey = "RallyStats"

// RallyStatsWatcher counts what happened during the current rally. Its
// condition is met once a point has been scored.
type RallyStatsWatcher struct {
	*BaseWatcher
	stats RallyStats
}

// NewRallyStatsWatcher creates a rally scoped stats watcher.
func NewRallyStatsWatcher() *RallyStatsWatcher {
	return &RallyStatsWatcher{BaseWatcher: NewBaseWatcher(WatcherScopeRally, RallyStatsKey)}
}

// Watch implements Watcher.
func (w *RallyStatsWatcher) Watch(e Event) {
	switch e.Type {
	case EventBallLaunched:
		w.stats.Launches++
		if e.Amount > w.stats.MaxSpeed {
			w.stats.MaxSpeed = e.Amount
		}
	case EventSpiked:
		w.stats.Spikes++
		if e.Amount > w.stats.BestAccuracy {
			w.stats.BestAccuracy = e.Amount
		}
	case EventNetTouched:
		w.stats.NetTouches++
	case EventJumped:
		w.stats.Jumps++
	case EventPointScored:
		w.SetCondition(true)
	}
}

// Reset implements Watcher.
func (w *RallyStatsWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.stats = RallyStats{}
}

// Stats returns a copy of the counters.
func (w *RallyStatsWatcher) Stats() RallyStats {
	return w.stats
}
