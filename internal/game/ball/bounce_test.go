package ball

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

var defaultBounce = BounceParams{
	InitialSpeed:        8,
	BounceDampening:     0.8,
	HorizontalDampening: 0.8,
	MinBounceVelocity:   2,
}

func TestBounceDecomposition(t *testing.T) {
	v := mgl64.Vec3{3, -10, 4}
	got := Bounce(v, mgl64.Vec3{0, 1, 0}, defaultBounce)

	// tangential (3,0,4) damped to (2.4,0,3.2); normal |−10|·0.8 = 8
	assert.InDelta(t, 2.4, got.X(), 1e-12)
	assert.InDelta(t, 8.0, got.Y(), 1e-12)
	assert.InDelta(t, 3.2, got.Z(), 1e-12)
}

func TestBounceNormalizesContactNormal(t *testing.T) {
	v := mgl64.Vec3{0, -10, 0}
	a := Bounce(v, mgl64.Vec3{0, 1, 0}, defaultBounce)
	b := Bounce(v, mgl64.Vec3{0, 5, 0}, defaultBounce)
	assert.True(t, a.ApproxEqual(b))
}

func TestBounceIsDeterministic(t *testing.T) {
	v := mgl64.Vec3{1.25, -3.5, 0.75}
	n := mgl64.Vec3{0.1, 1, -0.2}
	first := Bounce(v, n, defaultBounce)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Bounce(v, n, defaultBounce))
	}
}

func TestBounceFloorUsesInitialSpeed(t *testing.T) {
	floor := defaultBounce.InitialSpeed * defaultBounce.BounceDampening
	n := mgl64.Vec3{0, 1, 0}

	// every |vn|·0.8 below 2 gets boosted to 8·0.8, including a zero normal component
	for _, vy := range []float64{0, -0.1, -1, -2.49, 0.5} {
		got := Bounce(mgl64.Vec3{1, vy, 0}, n, defaultBounce)
		assert.InDelta(t, floor, got.Y(), 1e-12, "vy=%v", vy)
		assert.InDelta(t, 0.8, got.X(), 1e-12, "vy=%v", vy)
	}

	// at and above the threshold the reflected speed is kept
	got := Bounce(mgl64.Vec3{0, -2.5, 0}, n, defaultBounce)
	assert.InDelta(t, 2.0, got.Y(), 1e-12)
}

func TestBounceOnTiltedNormal(t *testing.T) {
	n := mgl64.Vec3{1, 1, 0}.Normalize()
	v := mgl64.Vec3{-10, -10, 0}
	got := Bounce(v, n, defaultBounce)

	// v is fully normal: vt = 0, rebound along n at |vn|·0.8
	want := n.Mul(v.Len() * 0.8)
	assert.True(t, got.ApproxEqualThreshold(want, 1e-9), "got %v want %v", got, want)
}

func TestBounceZeroNormalIsIgnored(t *testing.T) {
	v := mgl64.Vec3{1, -2, 3}
	assert.Equal(t, v, Bounce(v, mgl64.Vec3{}, defaultBounce))
}

func TestBounceFullDampening(t *testing.T) {
	p := defaultBounce
	p.HorizontalDampening = 0
	got := Bounce(mgl64.Vec3{5, -10, -5}, mgl64.Vec3{0, 1, 0}, p)
	assert.Equal(t, 0.0, got.X())
	assert.Equal(t, 0.0, got.Z())
}
