package physics

import "github.com/go-gl/mathgl/mgl64"

// CourtLayout sizes the reference arena. The net sits on z = 0, team 1
// plays on negative Z and the floor top is y = 0.
type CourtLayout struct {
	HalfLength float64
	HalfWidth  float64
	NetHeight  float64
	WallHeight float64
	Apron      float64
}

const (
	floorThickness = 1.0
	wallThickness  = 1.0
	netHalfDepth   = 0.05
)

// Court builds the static colliders of the arena: in-bounds floor, the
// out-of-bounds apron around it, four walls and the net.
func Court(l CourtLayout) []Box {
	ox := l.HalfWidth + l.Apron
	oz := l.HalfLength + l.Apron
	floorY := mgl64.Vec2{-floorThickness, 0}

	boxes := []Box{
		{
			Name:    "floor",
			Min:     mgl64.Vec3{-l.HalfWidth, floorY[0], -l.HalfLength},
			Max:     mgl64.Vec3{l.HalfWidth, floorY[1], l.HalfLength},
			Surface: SurfaceGround,
		},
		// apron strips: two full-length sides, two end caps between them
		{Name: "apron_left", Min: mgl64.Vec3{-ox, floorY[0], -oz}, Max: mgl64.Vec3{-l.HalfWidth, floorY[1], oz}, Surface: SurfaceOutOfBounds},
		{Name: "apron_right", Min: mgl64.Vec3{l.HalfWidth, floorY[0], -oz}, Max: mgl64.Vec3{ox, floorY[1], oz}, Surface: SurfaceOutOfBounds},
		{Name: "apron_back1", Min: mgl64.Vec3{-l.HalfWidth, floorY[0], -oz}, Max: mgl64.Vec3{l.HalfWidth, floorY[1], -l.HalfLength}, Surface: SurfaceOutOfBounds},
		{Name: "apron_back2", Min: mgl64.Vec3{-l.HalfWidth, floorY[0], l.HalfLength}, Max: mgl64.Vec3{l.HalfWidth, floorY[1], oz}, Surface: SurfaceOutOfBounds},

		{Name: "wall_left", Min: mgl64.Vec3{-ox - wallThickness, 0, -oz}, Max: mgl64.Vec3{-ox, l.WallHeight, oz}, Surface: SurfaceWall},
		{Name: "wall_right", Min: mgl64.Vec3{ox, 0, -oz}, Max: mgl64.Vec3{ox + wallThickness, l.WallHeight, oz}, Surface: SurfaceWall},
		{Name: "wall_back1", Min: mgl64.Vec3{-ox, 0, -oz - wallThickness}, Max: mgl64.Vec3{ox, l.WallHeight, -oz}, Surface: SurfaceWall},
		{Name: "wall_back2", Min: mgl64.Vec3{-ox, 0, oz}, Max: mgl64.Vec3{ox, l.WallHeight, oz + wallThickness}, Surface: SurfaceWall},

		{
			Name:    "net",
			Min:     mgl64.Vec3{-l.HalfWidth - 0.5, 0, -netHalfDepth},
			Max:     mgl64.Vec3{l.HalfWidth + 0.5, l.NetHeight, netHalfDepth},
			Surface: SurfaceNet,
		},
	}
	return boxes
}
