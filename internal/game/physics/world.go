package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Box is a static axis-aligned collider.
type Box struct {
	Name    string
	Min     mgl64.Vec3
	Max     mgl64.Vec3
	Surface Surface
}

// RigidBody is a sphere integrated by World. It implements Body.
type RigidBody struct {
	pos        mgl64.Vec3
	vel        mgl64.Vec3
	radius     float64
	useGravity bool
	kinematic  bool
	colliderOn bool
	handler    ContactHandler
	touching   map[int]bool
}

// NewSphere creates a dynamic sphere with gravity and collider enabled.
func NewSphere(radius float64, pos mgl64.Vec3) *RigidBody {
	return &RigidBody{
		pos:        pos,
		radius:     radius,
		useGravity: true,
		colliderOn: true,
		touching:   make(map[int]bool),
	}
}

func (b *RigidBody) Position() mgl64.Vec3     { return b.pos }
func (b *RigidBody) SetPosition(p mgl64.Vec3) { b.pos = p }
func (b *RigidBody) Velocity() mgl64.Vec3     { return b.vel }
func (b *RigidBody) SetVelocity(v mgl64.Vec3) { b.vel = v }
func (b *RigidBody) SetUseGravity(on bool)    { b.useGravity = on }
func (b *RigidBody) UseGravity() bool         { return b.useGravity }
func (b *RigidBody) SetKinematic(on bool)     { b.kinematic = on }
func (b *RigidBody) Kinematic() bool          { return b.kinematic }
func (b *RigidBody) Radius() float64          { return b.radius }
func (b *RigidBody) ColliderEnabled() bool    { return b.colliderOn }

func (b *RigidBody) SetColliderEnabled(on bool) {
	b.colliderOn = on
	if !on {
		clear(b.touching)
	}
}

// SetContactHandler routes contact-enter events for this body to h.
func (b *RigidBody) SetContactHandler(h ContactHandler) {
	b.handler = h
}

// World is a small fixed-step engine: spheres against static boxes, no
// body-body collisions. Contacts are reported once on enter; after the
// handler runs any remaining velocity into the surface is removed.
type World struct {
	Gravity mgl64.Vec3

	boxes  []Box
	bodies []*RigidBody
	logger *zap.Logger
}

// NewWorld creates an empty world.
func NewWorld(gravity mgl64.Vec3, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &World{Gravity: gravity, logger: logger}
}

// AddBox registers a static collider and returns its index.
func (w *World) AddBox(b Box) int {
	w.boxes = append(w.boxes, b)
	return len(w.boxes) - 1
}

// AddBody registers a body for integration.
func (w *World) AddBody(b *RigidBody) {
	w.bodies = append(w.bodies, b)
}

// Boxes returns the registered colliders.
func (w *World) Boxes() []Box {
	return w.boxes
}

// Step integrates every dynamic body by dt and resolves contacts.
func (w *World) Step(dt float64) {
	for _, b := range w.bodies {
		if b.kinematic {
			continue
		}
		if b.useGravity {
			b.vel = b.vel.Add(w.Gravity.Mul(dt))
		}
		b.pos = b.pos.Add(b.vel.Mul(dt))
	}

	for _, b := range w.bodies {
		if b.kinematic || !b.colliderOn {
			continue
		}
		for i := range w.boxes {
			w.resolve(b, i)
		}
	}
}

func (w *World) resolve(b *RigidBody, idx int) {
	box := w.boxes[idx]
	normal, depth, point, hit := sphereBox(b.pos, b.radius, box)
	if !hit {
		delete(b.touching, idx)
		return
	}

	b.pos = b.pos.Add(normal.Mul(depth))

	if !b.touching[idx] {
		b.touching[idx] = true
		w.logger.Debug("contact",
			zap.String("collider", box.Name),
			zap.Stringer("surface", box.Surface),
		)
		if b.handler != nil {
			b.handler.OnContact(Contact{Surface: box.Surface, Normal: normal, Point: point})
		}
	}

	if vn := b.vel.Dot(normal); vn < 0 {
		b.vel = b.vel.Sub(normal.Mul(vn))
	}
}

// sphereBox returns the push-out normal and depth for a sphere overlapping box.
func sphereBox(center mgl64.Vec3, radius float64, box Box) (mgl64.Vec3, float64, mgl64.Vec3, bool) {
	closest := mgl64.Vec3{
		mgl64.Clamp(center[0], box.Min[0], box.Max[0]),
		mgl64.Clamp(center[1], box.Min[1], box.Max[1]),
		mgl64.Clamp(center[2], box.Min[2], box.Max[2]),
	}
	d := center.Sub(closest)
	dist := d.Len()
	if dist >= radius {
		return mgl64.Vec3{}, 0, closest, false
	}
	if dist > 0 {
		return d.Mul(1 / dist), radius - dist, closest, true
	}

	// Center inside the box: leave through the nearest face.
	best := math.Inf(1)
	var normal mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		if pen := center[axis] - box.Min[axis]; pen < best {
			best = pen
			normal = mgl64.Vec3{}
			normal[axis] = -1
		}
		if pen := box.Max[axis] - center[axis]; pen < best {
			best = pen
			normal = mgl64.Vec3{}
			normal[axis] = 1
		}
	}
	return normal, best + radius, closest, true
}
