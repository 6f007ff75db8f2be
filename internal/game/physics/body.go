package physics

import "github.com/go-gl/mathgl/mgl64"

// Body is the view of a rigid body the simulation core needs from the
// physics engine.
type Body interface {
	Position() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	// SetUseGravity toggles the engine's built-in gravity for this body.
	SetUseGravity(on bool)
	UseGravity() bool
	// SetKinematic freezes the body: the engine stops integrating it.
	SetKinematic(on bool)
	Kinematic() bool
	SetColliderEnabled(on bool)
	ColliderEnabled() bool
}
