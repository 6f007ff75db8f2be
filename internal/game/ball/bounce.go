package ball

import "github.com/go-gl/mathgl/mgl64"

// BounceParams are the tunables of the manual bounce response.
type BounceParams struct {
	// InitialSpeed is the nominal launch speed used as the rebound floor.
	InitialSpeed        float64
	BounceDampening     float64
	HorizontalDampening float64
	MinBounceVelocity   float64
}

// Bounce returns the post-contact velocity for v hitting a surface with
// normal n. The tangential part is damped by HorizontalDampening; the
// normal part is reflected with BounceDampening, and a rebound weaker than
// MinBounceVelocity is replaced by InitialSpeed*BounceDampening so the ball
// never dies out on the floor. A zero normal leaves v unchanged.
func Bounce(v, n mgl64.Vec3, p BounceParams) mgl64.Vec3 {
	l := n.Len()
	if l == 0 || !finite(n) {
		return v
	}
	n = n.Mul(1 / l)

	vn := v.Dot(n)
	vt := v.Sub(n.Mul(vn)).Mul(p.HorizontalDampening)

	bvy := abs(vn) * p.BounceDampening
	if bvy < p.MinBounceVelocity {
		bvy = p.InitialSpeed * p.BounceDampening
	}
	return vt.Add(n.Mul(bvy))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
