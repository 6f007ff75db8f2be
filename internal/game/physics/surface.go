package physics

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Surface classifies what a body touched.
type Surface int

const (
	SurfaceOther Surface = iota
	SurfaceGround
	SurfaceNet
	SurfaceWall
	SurfaceOutOfBounds
	SurfacePlayer
)

var surfaceNames = map[Surface]string{
	SurfaceOther:       "Other",
	SurfaceGround:      "Ground",
	SurfaceNet:         "Net",
	SurfaceWall:        "Wall",
	SurfaceOutOfBounds: "OutOfBounds",
	SurfacePlayer:      "Player",
}

func (s Surface) String() string {
	if name, ok := surfaceNames[s]; ok {
		return name
	}
	return "Other"
}

// ParseSurface maps an engine collider tag onto a Surface. Matching is
// case-insensitive; unknown tags are SurfaceOther.
func ParseSurface(tag string) Surface {
	tag = strings.TrimSpace(tag)
	for s, name := range surfaceNames {
		if strings.EqualFold(name, tag) {
			return s
		}
	}
	return SurfaceOther
}

// Contact is a single collision reported by the engine. Normal points away
// from the touched collider.
type Contact struct {
	Surface Surface
	Normal  mgl64.Vec3
	Point   mgl64.Vec3
}

// ContactHandler receives contacts for one body.
type ContactHandler interface {
	OnContact(c Contact)
}
