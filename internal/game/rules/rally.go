package rules

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rally is the single authority over rally progression. It is owned by a
// match and passed by pointer to every controller that needs it; several
// rallies may coexist.
//
// Transition methods are guarded: a call whose precondition does not hold
// is a no-op and returns false. Duplicate input events rely on this.
type Rally struct {
	id          string
	phase       Phase
	servingTeam Team
	blockers    [2]bool
	bus         *EventBus
	logger      *zap.Logger
}

// NewRally creates a rally in the given initial phase. An invalid serving
// team falls back to Team1. A nil bus gets a private one.
func NewRally(initial Phase, serving Team, bus *EventBus, logger *zap.Logger) *Rally {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = NewEventBus()
	}
	if !serving.Valid() {
		logger.Warn("invalid serving team, defaulting to team 1", zap.Int("team", int(serving)))
		serving = Team1
	}
	r := &Rally{
		id:          uuid.NewString(),
		phase:       initial,
		servingTeam: serving,
		bus:         bus,
		logger:      logger,
	}
	r.updateBlockers()
	logger.Debug("rally initialized",
		zap.String("rally_id", r.id),
		zap.Stringer("phase", r.phase),
		zap.Stringer("serving_team", r.servingTeam),
	)
	return r
}

// ID returns the identifier of the current rally. It changes on every reset.
func (r *Rally) ID() string {
	return r.id
}

// Phase returns the active phase.
func (r *Rally) Phase() Phase {
	return r.phase
}

// ServingTeam returns the team currently serving.
func (r *Rally) ServingTeam() Team {
	return r.servingTeam
}

// Bus returns the event bus phase changes are published on.
func (r *Rally) Bus() *EventBus {
	return r.bus
}

// BlockerActive reports whether the serve-zone blocker of team is enabled.
// Only the serving team's blocker is active, and only during PreServe.
func (r *Rally) BlockerActive(team Team) bool {
	if !team.Valid() {
		return false
	}
	return r.blockers[team-1]
}

// OnPhaseChanged subscribes fn to phase changes and returns the bus handle.
func (r *Rally) OnPhaseChanged(fn func(Phase)) int {
	if fn == nil {
		return -1
	}
	return r.bus.SubscribeTyped(EventPhaseChanged, func(e Event) {
		fn(e.Phase)
	})
}

// BeginTossCharge moves PreServe to TossCharging.
func (r *Rally) BeginTossCharge() bool {
	return r.guarded("BeginTossCharge", PhaseTossCharging, PhasePreServe)
}

// ReleaseToss moves TossCharging to Tossed.
func (r *Rally) ReleaseToss() bool {
	return r.guarded("ReleaseToss", PhaseTossed, PhaseTossCharging)
}

// SpikeInFlight moves Tossed to InRally.
func (r *Rally) SpikeInFlight() bool {
	return r.guarded("SpikeInFlight", PhaseInRally, PhaseTossed)
}

// BallFirstContact ends the point from Tossed or InRally.
func (r *Rally) BallFirstContact() bool {
	return r.guarded("BallFirstContact", PhasePointOver, PhaseTossed, PhaseInRally)
}

// ResetRally returns to PreServe from any phase and hands the serve to
// next. An invalid team keeps the current server.
func (r *Rally) ResetRally(next Team) bool {
	if next.Valid() {
		r.servingTeam = next
	} else {
		r.logger.Warn("ignoring invalid next serving team",
			zap.Int("team", int(next)),
			zap.Stringer("serving_team", r.servingTeam),
		)
	}
	r.id = uuid.NewString()
	r.setPhase(PhasePreServe)
	r.bus.Publish(Event{
		Type:    EventRallyReset,
		RallyID: r.id,
		Phase:   r.phase,
		Team:    r.servingTeam,
	})
	return true
}

func (r *Rally) guarded(op string, to Phase, from ...Phase) bool {
	for _, p := range from {
		if r.phase == p {
			r.setPhase(to)
			return true
		}
	}
	r.logger.Debug("ignored rally transition",
		zap.String("op", op),
		zap.Stringer("phase", r.phase),
	)
	return false
}

func (r *Rally) setPhase(p Phase) {
	prev := r.phase
	r.phase = p
	r.updateBlockers()
	r.logger.Info("rally phase changed",
		zap.String("rally_id", r.id),
		zap.Stringer("from", prev),
		zap.Stringer("to", p),
		zap.Stringer("serving_team", r.servingTeam),
	)
	r.bus.Publish(Event{
		Type:    EventPhaseChanged,
		RallyID: r.id,
		Phase:   p,
		Team:    r.servingTeam,
	})
}

func (r *Rally) updateBlockers() {
	pre := r.phase == PhasePreServe
	r.blockers[0] = pre && r.servingTeam == Team1
	r.blockers[1] = pre && r.servingTeam == Team2
}
