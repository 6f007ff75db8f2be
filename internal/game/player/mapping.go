package player

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/superspike/spike-server-go/internal/game/rules"
)

// ChargeSession is the in-progress toss charge. It only exists while the
// rally is in TossCharging.
type ChargeSession struct {
	Start time.Duration
}

// Held returns how long the charge has been held at now.
func (s ChargeSession) Held(now time.Duration) time.Duration {
	if now < s.Start {
		return 0
	}
	return now - s.Start
}

// TossSpeed maps a held charge onto [minSpeed, maxSpeed]. It also returns
// the clamped charge fraction. A non-positive maxCharge counts as fully
// charged.
func TossSpeed(held, maxCharge time.Duration, minSpeed, maxSpeed float64) (speed, frac float64) {
	frac = 1
	if maxCharge > 0 {
		frac = clamp01(float64(held) / float64(maxCharge))
	}
	return lerp(minSpeed, maxSpeed, frac), frac
}

// Accuracy maps the distance between the ideal hit point and the ball onto
// [0,1]: 1 at the ideal point, 0 at or beyond hitRadius.
func Accuracy(distance, hitRadius float64) float64 {
	if hitRadius <= 0 {
		if distance == 0 {
			return 1
		}
		return 0
	}
	return 1 - clamp01(distance/hitRadius)
}

// SpikeSpeed scales the base spike speed from half (accuracy 0) to one and a
// half times (accuracy 1).
func SpikeSpeed(base, accuracy float64) float64 {
	return base * lerp(0.5, 1.5, clamp01(accuracy))
}

// Frame is a team's local axes in world space. Team 1 faces +Z, team 2 -Z.
type Frame struct {
	Right   mgl64.Vec3
	Up      mgl64.Vec3
	Forward mgl64.Vec3
}

// FrameFor returns the facing of team.
func FrameFor(team rules.Team) Frame {
	if team == rules.Team2 {
		return Frame{Right: mgl64.Vec3{-1, 0, 0}, Up: mgl64.Vec3{0, 1, 0}, Forward: mgl64.Vec3{0, 0, -1}}
	}
	return Frame{Right: mgl64.Vec3{1, 0, 0}, Up: mgl64.Vec3{0, 1, 0}, Forward: mgl64.Vec3{0, 0, 1}}
}

// ToWorld converts a local (right, up, forward) vector to world space.
func (f Frame) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return f.Right.Mul(local[0]).Add(f.Up.Mul(local[1])).Add(f.Forward.Mul(local[2]))
}

// ServeZone is an axis-aligned rectangle on the floor.
type ServeZone struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
}

// Contains reports whether p lies inside the zone horizontally.
func (z ServeZone) Contains(p mgl64.Vec3) bool {
	return p[0] >= z.MinX && p[0] <= z.MaxX && p[2] >= z.MinZ && p[2] <= z.MaxZ
}

// Clamp moves p horizontally into the zone, keeping its height.
func (z ServeZone) Clamp(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(p[0], z.MinX, z.MaxX),
		p[1],
		mgl64.Clamp(p[2], z.MinZ, z.MaxZ),
	}
}

func clamp01(x float64) float64 {
	return mgl64.Clamp(x, 0, 1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
