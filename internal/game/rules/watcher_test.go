package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type netWatcher struct {
	*BaseWatcher
}

func (w *netWatcher) Watch(e Event) {
	if e.Type == EventNetTouched && e.Team == w.Team() {
		w.SetCondition(true)
	}
}

func newNetWatcher(team Team) *netWatcher {
	w := &netWatcher{BaseWatcher: NewBaseWatcher(WatcherScopeTeam, team.String()+"_Net")}
	w.SetTeam(team)
	return w
}

func TestWatcherRegistry(t *testing.T) {
	registry := NewWatcherRegistry(nil)
	w1 := newNetWatcher(Team1)
	registry.Add(w1)
	registry.Add(nil)

	require.Same(t, w1, registry.Get("TEAM1_Net"))
	assert.Len(t, registry.ByScope(WatcherScopeTeam), 1)
	assert.Empty(t, registry.ByScope(WatcherScopeRally))

	registry.Notify(Event{Type: EventNetTouched, Team: Team2})
	assert.False(t, w1.ConditionMet())
	registry.Notify(Event{Type: EventNetTouched, Team: Team1})
	assert.True(t, w1.ConditionMet())

	registry.Reset()
	assert.False(t, w1.ConditionMet())

	// same key replaces
	w2 := newNetWatcher(Team1)
	registry.Add(w2)
	assert.Same(t, w2, registry.Get("TEAM1_Net"))
	assert.Len(t, registry.ByScope(WatcherScopeTeam), 1)

	registry.Remove("TEAM1_Net")
	assert.Nil(t, registry.Get("TEAM1_Net"))
}

func TestRallyStatsResetWithRally(t *testing.T) {
	bus := NewEventBus()
	rally := NewRally(PhasePreServe, Team1, bus, zaptest.NewLogger(t))
	registry := NewWatcherRegistry(bus)
	stats := NewRallyStatsWatcher()
	registry.Add(stats)
	team := newNetWatcher(Team1)
	registry.Add(team)

	bus.Publish(Event{Type: EventBallLaunched, Amount: 7})
	bus.Publish(Event{Type: EventBallLaunched, Amount: 12})
	bus.Publish(Event{Type: EventSpiked, Amount: 0.5})
	bus.Publish(Event{Type: EventNetTouched, Team: Team1})
	bus.Publish(Event{Type: EventJumped})
	bus.Publish(Event{Type: EventPointScored, Team: Team2})

	assert.Equal(t, RallyStats{Launches: 2, Spikes: 1, NetTouches: 1, Jumps: 1, BestAccuracy: 0.5, MaxSpeed: 12}, stats.Stats())
	assert.True(t, stats.ConditionMet())

	rally.ResetRally(Team2)
	assert.Equal(t, RallyStats{}, stats.Stats())
	assert.False(t, stats.ConditionMet())
	assert.True(t, team.ConditionMet(), "team scoped watchers survive a rally reset")

	registry.Close()
	bus.Publish(Event{Type: EventJumped})
	assert.Equal(t, 0, stats.Stats().Jumps)
}

func TestWatcherScopeString(t *testing.T) {
	assert.Equal(t, "MATCH", WatcherScopeMatch.String())
	assert.Equal(t, "RALLY", WatcherScopeRally.String())
	assert.Equal(t, "TEAM", WatcherScopeTeam.String())
	assert.Equal(t, "UNKNOWN", WatcherScope(7).String())
}
