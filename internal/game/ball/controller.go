package ball

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/superspike/spike-server-go/internal/game/physics"
	"github.com/superspike/spike-server-go/internal/game/rules"
)

// GravityMode selects how gravity acts on the ball.
type GravityMode int

const (
	// GravityNormal leaves gravity to the physics engine.
	GravityNormal GravityMode = iota
	// GravityTossScaled replaces engine gravity with a scaled version for a floaty toss arc.
	GravityTossScaled
)

func (m GravityMode) String() string {
	switch m {
	case GravityNormal:
		return "NORMAL"
	case GravityTossScaled:
		return "TOSS_SCALED"
	default:
		return "UNKNOWN"
	}
}

// Settings tune the ball.
type Settings struct {
	InitialSpeed     float64
	InitialDirection mgl64.Vec3
	Gravity          mgl64.Vec3
	// TossGravityScale is in [0, 2].
	TossGravityScale        float64
	BounceDampening         float64
	HorizontalDampening     float64
	MinBounceVelocity       float64
	RestoreGravityOnContact bool
}

func (s Settings) bounceParams() BounceParams {
	return BounceParams{
		InitialSpeed:        s.InitialSpeed,
		BounceDampening:     s.BounceDampening,
		HorizontalDampening: s.HorizontalDampening,
		MinBounceVelocity:   s.MinBounceVelocity,
	}
}

// Controller owns the ball's flight state: gravity mode, bounce response
// and the once-per-launch first contact.
type Controller struct {
	settings Settings
	body     physics.Body
	rally    *rules.Rally
	bus      *rules.EventBus
	logger   *zap.Logger

	mode         GravityMode
	firstContact bool
	lastTeam     rules.Team
}

// NewController wires a ball body to the rally. The rally may be nil, in
// which case first contacts are only published on the bus.
func NewController(body physics.Body, rally *rules.Rally, settings Settings, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := rules.NewEventBus()
	if rally != nil {
		bus = rally.Bus()
	}
	return &Controller{
		settings: settings,
		body:     body,
		rally:    rally,
		bus:      bus,
		logger:   logger,
	}
}

// Settings returns the tuning in use.
func (c *Controller) Settings() Settings {
	return c.settings
}

// Position returns the ball position.
func (c *Controller) Position() mgl64.Vec3 {
	return c.body.Position()
}

// Velocity returns the ball velocity.
func (c *Controller) Velocity() mgl64.Vec3 {
	return c.body.Velocity()
}

// Speed returns the magnitude of the ball velocity.
func (c *Controller) Speed() float64 {
	return c.body.Velocity().Len()
}

// GravityMode returns the active gravity mode.
func (c *Controller) GravityMode() GravityMode {
	return c.mode
}

// HasFirstContact reports whether the ground or out-of-bounds was touched
// since the last launch.
func (c *Controller) HasFirstContact() bool {
	return c.firstContact
}

// LastTeam returns the team that last launched the ball.
func (c *Controller) LastTeam() rules.Team {
	return c.lastTeam
}

// SetLastTeam records which team put the ball in motion.
func (c *Controller) SetLastTeam(t rules.Team) {
	c.lastTeam = t
}

// Launch sets the velocity to normalize(direction)*speed. A non-positive
// speed or a zero/non-finite direction is a no-op and returns false.
func (c *Controller) Launch(direction mgl64.Vec3, speed float64, isToss bool) bool {
	l := direction.Len()
	if speed <= 0 || l == 0 || !finite(direction) || math.IsNaN(speed) || math.IsInf(speed, 0) {
		c.logger.Debug("ignored degenerate launch",
			zap.Float64("speed", speed),
			zap.Float64("direction_len", l),
		)
		return false
	}

	v := direction.Normalize().Mul(speed)
	c.body.SetVelocity(v)
	c.firstContact = false
	if isToss {
		c.mode = GravityTossScaled
	} else {
		c.mode = GravityNormal
		c.body.SetUseGravity(true)
	}

	c.logger.Debug("ball launched",
		zap.Float64("speed", speed),
		zap.Bool("toss", isToss),
		zap.Float64s("velocity", v[:]),
	)
	c.bus.Publish(rules.Event{
		Type:    rules.EventBallLaunched,
		RallyID: c.rallyID(),
		Team:    c.lastTeam,
		Amount:  speed,
	})
	return true
}

// LaunchDefault launches with the configured initial direction and speed.
func (c *Controller) LaunchDefault() bool {
	return c.Launch(c.settings.InitialDirection, c.settings.InitialSpeed, false)
}

// StepGravity runs once per physics tick before engine integration. In toss
// mode the engine's gravity is switched off and Gravity*TossGravityScale is
// applied here instead.
func (c *Controller) StepGravity(dt float64) {
	if c.body.Kinematic() {
		return
	}
	switch c.mode {
	case GravityTossScaled:
		c.body.SetUseGravity(false)
		a := c.settings.Gravity.Mul(c.settings.TossGravityScale)
		c.body.SetVelocity(c.body.Velocity().Add(a.Mul(dt)))
	case GravityNormal:
		c.body.SetUseGravity(true)
	}
}

// OnContact implements physics.ContactHandler.
func (c *Controller) OnContact(contact physics.Contact) {
	switch contact.Surface {
	case physics.SurfaceNet:
		c.logger.Info("ball hit the net", zap.Float64s("point", contact.Point[:]))
		c.bus.Publish(rules.Event{Type: rules.EventNetTouched, RallyID: c.rallyID(), Team: c.lastTeam})
	case physics.SurfacePlayer:
		c.logger.Debug("ball contacted player")
	case physics.SurfaceGround:
		c.firstGroundContact(rules.EventGroundHit)
		c.bounce(contact.Normal)
	case physics.SurfaceOutOfBounds:
		c.firstGroundContact(rules.EventOutOfBounds)
		c.bounce(contact.Normal)
	case physics.SurfaceWall, physics.SurfaceOther:
		c.bounce(contact.Normal)
	}
}

// OnGroundHit subscribes fn to the first in-bounds ground contact of each flight.
func (c *Controller) OnGroundHit(fn func()) int {
	return c.subscribe(rules.EventGroundHit, fn)
}

// OnOutOfBounds subscribes fn to the first out-of-bounds contact of each flight.
func (c *Controller) OnOutOfBounds(fn func()) int {
	return c.subscribe(rules.EventOutOfBounds, fn)
}

func (c *Controller) subscribe(t rules.EventType, fn func()) int {
	if fn == nil {
		return -1
	}
	return c.bus.SubscribeTyped(t, func(rules.Event) { fn() })
}

// Hold freezes the ball at pos: kinematic, collider off, no velocity.
func (c *Controller) Hold(pos mgl64.Vec3) {
	c.body.SetKinematic(true)
	c.body.SetColliderEnabled(false)
	c.body.SetVelocity(mgl64.Vec3{})
	c.body.SetPosition(pos)
}

// Release hands the ball back to the physics engine at pos.
func (c *Controller) Release(pos mgl64.Vec3) {
	c.body.SetPosition(pos)
	c.body.SetKinematic(false)
	c.body.SetColliderEnabled(true)
}

// Held reports whether the ball is frozen in a hand.
func (c *Controller) Held() bool {
	return c.body.Kinematic()
}

func (c *Controller) firstGroundContact(t rules.EventType) {
	if c.firstContact {
		return
	}
	c.firstContact = true

	c.logger.Info("ball first contact",
		zap.String("event", string(t)),
		zap.Stringer("last_team", c.lastTeam),
	)
	c.bus.Publish(rules.Event{
		Type:    t,
		RallyID: c.rallyID(),
		Team:    c.lastTeam,
		Amount:  c.Speed(),
	})
	if c.rally != nil {
		c.rally.BallFirstContact()
	}
	if c.settings.RestoreGravityOnContact {
		c.mode = GravityNormal
		c.body.SetUseGravity(true)
	}
}

func (c *Controller) bounce(n mgl64.Vec3) {
	c.body.SetVelocity(Bounce(c.body.Velocity(), n, c.settings.bounceParams()))
}

func (c *Controller) rallyID() string {
	if c.rally == nil {
		return ""
	}
	return c.rally.ID()
}

func finite(v mgl64.Vec3) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
