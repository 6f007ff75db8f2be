package player

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/superspike/spike-server-go/internal/game/ball"
	"github.com/superspike/spike-server-go/internal/game/physics"
	"github.com/superspike/spike-server-go/internal/game/rules"
)

// groundedSpeed is the vertical speed under which a player may jump.
const groundedSpeed = 0.05

// Clock reports simulation time.
type Clock interface {
	Now() time.Duration
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Duration

// Now implements Clock.
func (f ClockFunc) Now() time.Duration { return f() }

// Settings tune one player.
type Settings struct {
	MoveSpeed      float64
	JumpForce      float64
	MinTossSpeed   float64
	MaxTossSpeed   float64
	MaxChargeTime  time.Duration
	TossDirAxis    mgl64.Vec3 // local: right, up, forward
	SpikeBaseSpeed float64
	SpikeUpward    float64
	IdealHitOffset mgl64.Vec3 // local
	HitRadius      float64
	HoldOffset     mgl64.Vec3 // local
}

// Controller turns one player's input into toss and spike launches and
// keeps the server inside their serve zone before the toss.
type Controller struct {
	team     rules.Team
	settings Settings
	frame    Frame
	body     physics.Body
	ball     *ball.Controller
	rally    *rules.Rally
	zone     ServeZone
	clock    Clock
	logger   *zap.Logger

	moveInput      mgl64.Vec2
	jumpPressed    bool
	ballInHand     bool
	movementLocked bool
	charge         *ChargeSession
	accuracy       float64
	lastTossSpeed  float64
	handle         int
}

// NewController creates the controller for team. ballCtl may be nil, in
// which case toss and spike are no-ops for this player.
func NewController(
	team rules.Team,
	body physics.Body,
	ballCtl *ball.Controller,
	rally *rules.Rally,
	zone ServeZone,
	settings Settings,
	clock Clock,
	logger *zap.Logger,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		start := time.Now()
		clock = ClockFunc(func() time.Duration { return time.Since(start) })
	}
	c := &Controller{
		team:     team,
		settings: settings,
		frame:    FrameFor(team),
		body:     body,
		ball:     ballCtl,
		rally:    rally,
		zone:     zone,
		clock:    clock,
		logger:   logger.With(zap.Stringer("team", team)),
		handle:   -1,
	}
	if rally != nil {
		c.handle = rally.OnPhaseChanged(c.onPhaseChanged)
		if rally.Phase() == rules.PhasePreServe {
			c.takeServe()
		}
	}
	return c
}

// Close detaches the controller from the rally.
func (c *Controller) Close() {
	if c.rally != nil && c.handle >= 0 {
		c.rally.Bus().Unsubscribe(c.handle)
		c.handle = -1
	}
}

// Team returns the player's team.
func (c *Controller) Team() rules.Team { return c.team }

// Body returns the player's rigid body.
func (c *Controller) Body() physics.Body { return c.body }

// Zone returns the player's serve zone.
func (c *Controller) Zone() ServeZone { return c.zone }

// BallInHand reports whether the player is holding the ball.
func (c *Controller) BallInHand() bool { return c.ballInHand }

// MovementLocked reports whether horizontal movement is frozen.
func (c *Controller) MovementLocked() bool { return c.movementLocked }

// Charging reports whether a toss charge is in progress.
func (c *Controller) Charging() bool { return c.charge != nil }

// Accuracy returns the accuracy of the last spike, for cosmetic feedback.
func (c *Controller) Accuracy() float64 { return c.accuracy }

// LastTossSpeed returns the speed of the last toss.
func (c *Controller) LastTossSpeed() float64 { return c.lastTossSpeed }

// Speed is the locomotion blend value for animation: the move input magnitude.
func (c *Controller) Speed() float64 { return c.moveInput.Len() }

// ChargeFraction returns the current charge fraction in [0,1], or 0 when
// not charging.
func (c *Controller) ChargeFraction() float64 {
	if c.charge == nil {
		return 0
	}
	_, frac := TossSpeed(c.charge.Held(c.clock.Now()), c.settings.MaxChargeTime, 0, 1)
	return frac
}

// SetMove records the 2-axis move input; x maps to world X, y to world Z.
// Inputs longer than 1 are normalized.
func (c *Controller) SetMove(x, y float64) {
	in := mgl64.Vec2{x, y}
	if math.IsNaN(x) || math.IsNaN(y) {
		in = mgl64.Vec2{}
	}
	if l := in.Len(); l > 1 {
		in = in.Mul(1 / l)
	}
	c.moveInput = in
}

// Jump requests a jump on the next physics tick.
func (c *Controller) Jump() {
	c.jumpPressed = true
}

// PressSpike handles the spike button press: it starts the toss charge in
// PreServe and spikes in Tossed.
func (c *Controller) PressSpike() {
	if c.rally == nil {
		return
	}
	switch c.rally.Phase() {
	case rules.PhasePreServe:
		c.BeginCharge()
	case rules.PhaseTossed:
		c.Spike()
	default:
		c.logger.Debug("spike press ignored", zap.Stringer("phase", c.rally.Phase()))
	}
}

// ReleaseSpike handles the spike button release: it releases a charging toss.
func (c *Controller) ReleaseSpike() {
	if c.charge != nil {
		c.ReleaseToss()
	}
}

// Bump publishes a cosmetic bump action.
func (c *Controller) Bump() {
	c.publish(rules.EventBumped, 0)
}

// Set publishes a cosmetic set action.
func (c *Controller) Set() {
	c.publish(rules.EventSet, 0)
}

// BeginCharge starts a toss charge. It requires the ball in hand, the
// serve, and PreServe.
func (c *Controller) BeginCharge() bool {
	if c.ball == nil || c.rally == nil {
		return false
	}
	if !c.ballInHand || c.rally.ServingTeam() != c.team {
		c.logger.Debug("charge ignored: not holding the serve")
		return false
	}
	if !c.rally.BeginTossCharge() {
		return false
	}
	c.charge = &ChargeSession{Start: c.clock.Now()}
	c.movementLocked = true
	c.logger.Debug("toss charge started", zap.Duration("at", c.charge.Start))
	c.publish(rules.EventChargeStarted, 0)
	return true
}

// ReleaseToss launches the ball upward with a speed derived from the charge
// time and moves the rally to Tossed. It returns the toss speed.
func (c *Controller) ReleaseToss() (float64, bool) {
	if c.charge == nil || c.ball == nil || c.rally == nil {
		return 0, false
	}
	if c.rally.Phase() != rules.PhaseTossCharging {
		c.charge = nil
		return 0, false
	}

	held := c.charge.Held(c.clock.Now())
	speed, frac := TossSpeed(held, c.settings.MaxChargeTime, c.settings.MinTossSpeed, c.settings.MaxTossSpeed)
	dir := c.frame.ToWorld(c.settings.TossDirAxis.Add(mgl64.Vec3{0, frac, 0}))

	c.charge = nil
	c.ballInHand = false
	c.ball.Release(c.holdPosition())
	c.ball.SetLastTeam(c.team)
	c.ball.Launch(dir, speed, true)
	c.rally.ReleaseToss()
	c.lastTossSpeed = speed

	c.logger.Info("toss released",
		zap.Duration("held", held),
		zap.Float64("charge", frac),
		zap.Float64("toss_speed", speed),
	)
	c.publish(rules.EventTossReleased, speed)
	return speed, true
}

// Spike hits the tossed ball toward the opponent. Speed scales with how
// close the ball is to the ideal hit point. It returns the accuracy.
func (c *Controller) Spike() (float64, bool) {
	if c.ball == nil || c.rally == nil || c.body == nil {
		return 0, false
	}
	if c.rally.Phase() != rules.PhaseTossed || c.rally.ServingTeam() != c.team || c.ball.Held() {
		c.logger.Debug("spike ignored", zap.Stringer("phase", c.rally.Phase()))
		return 0, false
	}

	ideal := c.IdealHitPoint()
	distance := ideal.Sub(c.ball.Position()).Len()
	acc := Accuracy(distance, c.settings.HitRadius)
	dir := c.frame.Forward.Add(mgl64.Vec3{0, c.settings.SpikeUpward, 0})
	speed := SpikeSpeed(c.settings.SpikeBaseSpeed, acc)

	c.ball.SetLastTeam(c.team)
	c.ball.Launch(dir, speed, false)
	c.rally.SpikeInFlight()
	c.accuracy = acc
	c.movementLocked = false

	c.logger.Info("spike",
		zap.Float64("distance", distance),
		zap.Float64("accuracy", acc),
		zap.Float64("spike_speed", speed),
	)
	c.publish(rules.EventSpiked, acc)
	return acc, true
}

// IdealHitPoint is where the ball should be for a perfect spike.
func (c *Controller) IdealHitPoint() mgl64.Vec3 {
	if c.body == nil {
		return mgl64.Vec3{}
	}
	return c.body.Position().Add(c.frame.ToWorld(c.settings.IdealHitOffset))
}

// UpdateHeldBall snaps a held ball to the hand.
func (c *Controller) UpdateHeldBall() {
	if c.ballInHand && c.ball != nil && c.body != nil {
		c.ball.Hold(c.holdPosition())
	}
}

// ApplyMovement sets horizontal velocity from the move input and applies a
// pending jump. Runs before engine integration.
func (c *Controller) ApplyMovement() {
	if c.body == nil {
		c.jumpPressed = false
		return
	}
	v := c.body.Velocity()
	if c.movementLocked {
		v[0], v[2] = 0, 0
	} else {
		v[0] = c.moveInput[0] * c.settings.MoveSpeed
		v[2] = c.moveInput[1] * c.settings.MoveSpeed
	}
	if c.jumpPressed && math.Abs(v[1]) < groundedSpeed {
		v[1] += c.settings.JumpForce
		c.publish(rules.EventJumped, c.settings.JumpForce)
	}
	c.jumpPressed = false
	c.body.SetVelocity(v)
}

// ClampToZone keeps the server inside their serve zone during PreServe.
// Runs after engine integration.
func (c *Controller) ClampToZone() {
	if c.body == nil || c.rally == nil {
		return
	}
	if c.rally.Phase() != rules.PhasePreServe || !c.rally.BlockerActive(c.team) {
		return
	}
	p := c.body.Position()
	if !c.zone.Contains(p) {
		c.body.SetPosition(c.zone.Clamp(p))
	}
}

func (c *Controller) onPhaseChanged(p rules.Phase) {
	switch p {
	case rules.PhasePreServe:
		if c.charge != nil {
			c.logger.Debug("charge cancelled by rally reset")
		}
		c.charge = nil
		c.movementLocked = false
		c.takeServe()
	case rules.PhasePointOver:
		c.movementLocked = false
	case rules.PhaseTossCharging, rules.PhaseTossed, rules.PhaseInRally:
	}
}

func (c *Controller) takeServe() {
	c.ballInHand = false
	if c.ball == nil || c.body == nil || c.rally.ServingTeam() != c.team {
		return
	}
	c.ballInHand = true
	c.ball.Hold(c.holdPosition())
}

func (c *Controller) holdPosition() mgl64.Vec3 {
	return c.body.Position().Add(c.frame.ToWorld(c.settings.HoldOffset))
}

func (c *Controller) publish(t rules.EventType, amount float64) {
	if c.rally == nil {
		return
	}
	ev := rules.Event{
		Type:    t,
		RallyID: c.rally.ID(),
		Phase:   c.rally.Phase(),
		Team:    c.team,
		Amount:  amount,
	}
	c.rally.Bus().Publish(ev)
}
