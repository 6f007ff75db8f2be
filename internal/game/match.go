package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/superspike/spike-server-go/internal/config"
	"github.com/superspike/spike-server-go/internal/game/ball"
	"github.com/superspike/spike-server-go/internal/game/physics"
	"github.com/superspike/spike-server-go/internal/game/player"
	"github.com/superspike/spike-server-go/internal/game/rules"
)

// ErrMatchClosed is returned for inputs sent after Close.
var ErrMatchClosed = errors.New("match closed")

// Match runs one court: the physics world, the rally, the ball and both
// players, advanced by fixed ticks. All methods are safe for concurrent use.
type Match struct {
	mu     sync.Mutex
	id     string
	cfg    *config.Config
	logger *zap.Logger

	world    *physics.World
	bus      *rules.EventBus
	rally    *rules.Rally
	ballBody *physics.RigidBody
	ball     *ball.Controller
	players  [2]*player.Controller
	watchers *rules.WatcherRegistry
	stats    *rules.RallyStatsWatcher

	tick    uint64
	simTime time.Duration
	pending []InputEvent
	closed  bool

	score         Score
	pointWinner   rules.Team
	awaitingReset bool
	pointOverAt   time.Duration

	recorder *ReplayRecorder
}

// NewMatch builds a match from cfg.
func NewMatch(cfg *config.Config, logger *zap.Logger) (*Match, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	initial, err := rules.ParsePhase(cfg.Rally.InitialPhase)
	if err != nil {
		return nil, fmt.Errorf("rally.initial_phase: %w", err)
	}

	m := &Match{
		id:     uuid.NewString(),
		cfg:    cfg,
		bus:    rules.NewEventBus(),
		logger: logger,
	}
	m.logger = logger.With(zap.String("match_id", m.id))

	m.world = physics.NewWorld(cfg.Ball.Gravity.Vec(), m.logger.Named("physics"))
	for _, box := range physics.Court(courtLayout(cfg.Court)) {
		m.world.AddBox(box)
	}

	// scoring listeners go first so they see ground hits before the rally does
	m.bus.SubscribeTyped(rules.EventGroundHit, m.onGroundHit)
	m.bus.SubscribeTyped(rules.EventOutOfBounds, m.onOutOfBounds)
	m.bus.SubscribeTyped(rules.EventPhaseChanged, m.onPhaseChanged)
	m.bus.Subscribe(m.logEvent)
	m.watchers = rules.NewWatcherRegistry(m.bus)
	m.stats = rules.NewRallyStatsWatcher()
	m.watchers.Add(m.stats)

	m.rally = rules.NewRally(initial, rules.Team(cfg.Rally.ServingTeam), m.bus, m.logger.Named("rally"))

	m.ballBody = physics.NewSphere(cfg.Ball.Radius, mgl64.Vec3{0, cfg.Court.NetHeight + 1, 0})
	m.ball = ball.NewController(m.ballBody, m.rally, ballSettings(cfg.Ball), m.logger.Named("ball"))
	m.ballBody.SetContactHandler(m.ball)
	m.world.AddBody(m.ballBody)

	clock := player.ClockFunc(func() time.Duration { return m.simTime })
	for i, team := range []rules.Team{rules.Team1, rules.Team2} {
		zone := serveZone(cfg.Zones.Team1)
		if team == rules.Team2 {
			zone = serveZone(cfg.Zones.Team2)
		}
		body := physics.NewSphere(cfg.Player.Radius, zone.Clamp(mgl64.Vec3{
			(zone.MinX + zone.MaxX) / 2,
			cfg.Player.Radius,
			(zone.MinZ + zone.MaxZ) / 2,
		}))
		m.world.AddBody(body)
		m.players[i] = player.NewController(team, body, m.ball, m.rally, zone,
			playerSettings(cfg.Player), clock, m.logger.Named("player"))
	}

	if cfg.Replay.Enabled {
		m.recorder = NewReplayRecorder(m.logger.Named("replay"), cfg.Replay.Directory)
		m.recorder.SetMaxStates(cfg.Replay.MaxStates)
		m.recorder.StartRecording(m.id)
	}

	m.logger.Info("match created",
		zap.Stringer("phase", m.rally.Phase()),
		zap.Stringer("serving_team", m.rally.ServingTeam()),
	)
	return m, nil
}

// ID returns the match identifier.
func (m *Match) ID() string {
	return m.id
}

// Bus returns the event bus shared by the rally, the ball and the players.
func (m *Match) Bus() *rules.EventBus {
	return m.bus
}

// Rally returns the rally state machine.
func (m *Match) Rally() *rules.Rally {
	return m.rally
}

// Ball returns the ball controller.
func (m *Match) Ball() *ball.Controller {
	return m.ball
}

// Player returns the controller of team, or nil for an invalid team.
func (m *Match) Player(team rules.Team) *player.Controller {
	if !team.Valid() {
		return nil
	}
	return m.players[team-1]
}

// Score returns the current tally.
func (m *Match) Score() Score {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

// Watchers returns the registry fed by the match bus.
func (m *Match) Watchers() *rules.WatcherRegistry {
	return m.watchers
}

// Recorder returns the replay recorder, or nil when recording is disabled.
func (m *Match) Recorder() *ReplayRecorder {
	return m.recorder
}

// ApplyInput queues ev for the next tick.
func (m *Match) ApplyInput(ev InputEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	ev.Action, _ = ParseAction(string(ev.Action))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMatchClosed
	}
	m.pending = append(m.pending, ev)
	return nil
}

// Tick advances the simulation by dt. Within a tick: queued inputs, player
// movement, ball gravity, engine integration and contacts, serve zone
// clamping, held ball snapping, then the point-over timer.
func (m *Match) Tick(dt time.Duration) {
	if dt <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	inputs := m.pending
	m.pending = nil
	for _, ev := range inputs {
		m.apply(ev)
	}

	secs := dt.Seconds()
	for _, p := range m.players {
		p.ApplyMovement()
	}
	m.ball.StepGravity(secs)
	m.world.Step(secs)
	for _, p := range m.players {
		p.ClampToZone()
		p.UpdateHeldBall()
	}

	m.tick++
	m.simTime += dt
	m.checkPointOver()

	if m.recorder != nil {
		m.recorder.RecordState(m.snapshotLocked())
	}
}

// Snapshot returns a copy of the observable match state.
func (m *Match) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Close detaches the players and saves the replay when recording.
func (m *Match) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, p := range m.players {
		p.Close()
	}
	m.watchers.Close()
	if m.recorder != nil && m.recorder.IsRecording() {
		if err := m.recorder.Save(); err != nil {
			return fmt.Errorf("save replay: %w", err)
		}
	}
	m.logger.Info("match closed",
		zap.Int("team1", m.score.Team1),
		zap.Int("team2", m.score.Team2),
		zap.Uint64("ticks", m.tick),
	)
	return nil
}

func (m *Match) apply(ev InputEvent) {
	p := m.Player(ev.Team)
	if p == nil {
		return
	}
	switch ev.Action {
	case ActionMove:
		p.SetMove(ev.X, ev.Y)
	case ActionJump:
		if ev.Pressed {
			p.Jump()
		}
	case ActionSpike:
		if ev.Pressed {
			p.PressSpike()
		} else {
			p.ReleaseSpike()
		}
	case ActionBump:
		if ev.Pressed {
			p.Bump()
		}
	case ActionSet:
		if ev.Pressed {
			p.Set()
		}
	}
}

func (m *Match) checkPointOver() {
	if m.rally.Phase() != rules.PhasePointOver {
		return
	}
	if !m.awaitingReset {
		// the match may be configured to start in PointOver
		m.awaitingReset = true
		m.pointOverAt = m.simTime
	}
	if m.simTime-m.pointOverAt < m.cfg.Server.PointOverDelay {
		return
	}

	next := m.pointWinner
	if !next.Valid() {
		next = m.rally.ServingTeam()
	}
	m.awaitingReset = false
	m.pointWinner = 0
	m.rally.ResetRally(next)
}

func (m *Match) onGroundHit(rules.Event) {
	if !m.pointLive() {
		return
	}
	if m.ball.Position().Z() < 0 {
		m.pointWinner = rules.Team2
	} else {
		m.pointWinner = rules.Team1
	}
}

func (m *Match) onOutOfBounds(rules.Event) {
	if !m.pointLive() {
		return
	}
	last := m.ball.LastTeam()
	if !last.Valid() {
		last = m.rally.ServingTeam()
	}
	m.pointWinner = last.Opponent()
}

func (m *Match) pointLive() bool {
	p := m.rally.Phase()
	return p == rules.PhaseTossed || p == rules.PhaseInRally
}

func (m *Match) onPhaseChanged(e rules.Event) {
	if e.Phase != rules.PhasePointOver {
		return
	}
	m.awaitingReset = true
	m.pointOverAt = m.simTime
	if !m.pointWinner.Valid() {
		return
	}
	switch m.pointWinner {
	case rules.Team1:
		m.score.Team1++
	case rules.Team2:
		m.score.Team2++
	}
	m.logger.Info("point scored",
		zap.Stringer("winner", m.pointWinner),
		zap.Int("team1", m.score.Team1),
		zap.Int("team2", m.score.Team2),
	)
	m.bus.Publish(rules.Event{
		Type:    rules.EventPointScored,
		RallyID: e.RallyID,
		Phase:   e.Phase,
		Team:    m.pointWinner,
	})
}

func (m *Match) logEvent(e rules.Event) {
	m.logger.Debug("rally event",
		zap.String("type", string(e.Type)),
		zap.String("rally_id", e.RallyID),
		zap.Stringer("phase", e.Phase),
		zap.Stringer("team", e.Team),
		zap.Float64("amount", e.Amount),
	)
}

func (m *Match) snapshotLocked() *Snapshot {
	s := &Snapshot{
		MatchID:     m.id,
		RallyID:     m.rally.ID(),
		Tick:        m.tick,
		SimTimeMS:   m.simTime.Milliseconds(),
		Phase:       m.rally.Phase().String(),
		ServingTeam: int(m.rally.ServingTeam()),
		Blockers:    [2]bool{m.rally.BlockerActive(rules.Team1), m.rally.BlockerActive(rules.Team2)},
		Ball: BallView{
			Position:     m.ball.Position(),
			Velocity:     m.ball.Velocity(),
			GravityMode:  m.ball.GravityMode().String(),
			Held:         m.ball.Held(),
			FirstContact: m.ball.HasFirstContact(),
			LastTeam:     int(m.ball.LastTeam()),
		},
		Players: make([]PlayerView, 0, len(m.players)),
		Score:   m.score,
		Stats:   m.stats.Stats(),
	}
	for _, p := range m.players {
		body := p.Body()
		s.Players = append(s.Players, PlayerView{
			Team:           int(p.Team()),
			Position:       body.Position(),
			Velocity:       body.Velocity(),
			Speed:          p.Speed(),
			BallInHand:     p.BallInHand(),
			Charging:       p.Charging(),
			ChargeFraction: p.ChargeFraction(),
			MovementLocked: p.MovementLocked(),
			Accuracy:       p.Accuracy(),
		})
	}
	return s
}

func courtLayout(c config.CourtConfig) physics.CourtLayout {
	return physics.CourtLayout{
		HalfLength: c.HalfLength,
		HalfWidth:  c.HalfWidth,
		NetHeight:  c.NetHeight,
		WallHeight: c.WallHeight,
		Apron:      c.Apron,
	}
}

func serveZone(z config.ZoneConfig) player.ServeZone {
	return player.ServeZone{MinX: z.MinX, MaxX: z.MaxX, MinZ: z.MinZ, MaxZ: z.MaxZ}
}

func ballSettings(b config.BallConfig) ball.Settings {
	return ball.Settings{
		InitialSpeed:            b.InitialSpeed,
		InitialDirection:        b.InitialDirection.Vec(),
		Gravity:                 b.Gravity.Vec(),
		TossGravityScale:        b.TossGravityScale,
		BounceDampening:         b.BounceDampening,
		HorizontalDampening:     b.HorizontalDampening,
		MinBounceVelocity:       b.MinBounceVelocity,
		RestoreGravityOnContact: b.RestoreGravityOnContact,
	}
}

func playerSettings(p config.PlayerConfig) player.Settings {
	return player.Settings{
		MoveSpeed:      p.MoveSpeed,
		JumpForce:      p.JumpForce,
		MinTossSpeed:   p.MinTossSpeed,
		MaxTossSpeed:   p.MaxTossSpeed,
		MaxChargeTime:  p.MaxChargeTime,
		TossDirAxis:    p.TossDirAxis.Vec(),
		SpikeBaseSpeed: p.SpikeBaseSpeed,
		SpikeUpward:    p.SpikeUpward,
		IdealHitOffset: p.IdealHitOffset.Vec(),
		HitRadius:      p.HitRadius,
		HoldOffset:     p.HoldOffset.Vec(),
	}
}
