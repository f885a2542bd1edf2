package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/uptrixio/platformer/internal/profiling"
)

// Hit is the nearest intersection of a ray with rendered geometry.
type Hit struct {
	Point    mgl32.Vec3
	Normal   mgl32.Vec3 // outward normal of the face that was hit
	Distance float32
	Type     BlockType
}

// Cell is the block that was hit.
func (h Hit) Cell() [3]int {
	return floorCell(h.Point.Sub(h.Normal.Mul(0.5)))
}

// Adjacent is the cell in front of the hit face.
func (h Hit) Adjacent() [3]int {
	return floorCell(h.Point.Add(h.Normal.Mul(0.5)))
}

func floorCell(p mgl32.Vec3) [3]int {
	return [3]int{
		int(math.Floor(float64(p.X()))),
		int(math.Floor(float64(p.Y()))),
		int(math.Floor(float64(p.Z()))),
	}
}

// Pick casts a ray against the boxes of pickable surfaces in the 3x3 chunk
// neighbourhood of eye and returns the nearest hit within maxDist.
func (w *World) Pick(eye, dir mgl32.Vec3, maxDist float32) (Hit, bool) {
	defer profiling.Track("world.Pick")()
	if dir.Len() == 0 || maxDist <= 0 {
		return Hit{}, false
	}
	dir = dir.Normalize()
	center := ChunkCoordForPos(eye.X(), eye.Z())

	best := Hit{Distance: maxDist}
	found := false
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			c, ok := w.chunks[ChunkCoord{X: center.X + dx, Z: center.Z + dz}]
			if !ok || c.Mesh() == nil {
				continue
			}
			ox, oy, oz := c.Coord.Origin()
			origin := mgl32.Vec3{float32(ox), float32(oy), float32(oz)}
			for _, s := range c.Mesh().Surfaces {
				if !BlockType(s.Type).IsPickable() {
					continue
				}
				for _, b := range s.Boxes {
					lo := origin.Add(mgl32.Vec3{float32(b.Min[0]), float32(b.Min[1]), float32(b.Min[2])})
					hi := lo.Add(mgl32.Vec3{float32(b.Size[0]), float32(b.Size[1]), float32(b.Size[2])})
					t, n, ok := rayBox(eye, dir, lo, hi)
					if !ok || t > best.Distance {
						continue
					}
					best = Hit{Point: eye.Add(dir.Mul(t)), Normal: n, Distance: t, Type: BlockType(s.Type)}
					found = true
				}
			}
		}
	}
	return best, found
}

// rayBox intersects a ray with an axis-aligned box using the slab method.
// Rays starting inside the box do not hit it.
func rayBox(o, d, lo, hi mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	tmin := float32(math.Inf(-1))
	tmax := float32(math.Inf(1))
	axis := -1
	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			axis = i
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, mgl32.Vec3{}, false
		}
	}
	if axis < 0 || tmin < 0 {
		return 0, mgl32.Vec3{}, false
	}
	var n mgl32.Vec3
	if d[axis] > 0 {
		n[axis] = -1
	} else {
		n[axis] = 1
	}
	return tmin, n, true
}

// Break clears the block under the ray. It returns the cleared cell.
func (w *World) Break(eye, dir mgl32.Vec3) ([3]int, bool) {
	hit, ok := w.Pick(eye, dir, w.reach)
	if !ok {
		return [3]int{}, false
	}
	cell := hit.Cell()
	if !w.SetBlock(cell[0], cell[1], cell[2], BlockTypeAir) {
		return cell, false
	}
	return cell, true
}

// Place puts t in front of the face under the ray. Nothing happens unless
// that cell is air.
func (w *World) Place(eye, dir mgl32.Vec3, t BlockType) ([3]int, bool) {
	if !t.Valid() || t == BlockTypeAir {
		return [3]int{}, false
	}
	hit, ok := w.Pick(eye, dir, w.reach)
	if !ok {
		return [3]int{}, false
	}
	cell := hit.Adjacent()
	if w.GetBlock(cell[0], cell[1], cell[2]) != BlockTypeAir {
		return cell, false
	}
	return cell, w.SetBlock(cell[0], cell[1], cell[2], t)
}

// Action is the kind of pointer activation.
type Action uint8

const (
	ActionNone Action = iota
	ActionPrimary
	ActionSecondary
)

// Event is a pointer activation from the driver. Camera is the camera's
// world transform; the camera looks down its local -Z axis.
type Event struct {
	Action Action
	Camera mgl32.Mat4
	Block  BlockType
}

// CameraTransform builds the world transform of a camera at eye looking
// along dir.
func CameraTransform(eye, dir mgl32.Vec3) mgl32.Mat4 {
	up := mgl32.Vec3{0, 1, 0}
	if d := dir.Normalize(); math.Abs(float64(d.Dot(up))) > 0.999 {
		up = mgl32.Vec3{0, 0, -1}
	}
	return mgl32.LookAtV(eye, eye.Add(dir), up).Inv()
}

// Ray returns the eye position and view direction of the event's camera.
func (e Event) Ray() (mgl32.Vec3, mgl32.Vec3) {
	eye := e.Camera.Col(3).Vec3()
	dir := e.Camera.Col(2).Vec3().Mul(-1)
	return eye, dir
}

// InteractResult reports the outcome of an Event.
type InteractResult struct {
	Changed bool
	Cell    [3]int
	Block   BlockType
}

// Interact breaks on primary activation and places e.Block on secondary.
func (w *World) Interact(e Event) InteractResult {
	eye, dir := e.Ray()
	switch e.Action {
	case ActionPrimary:
		cell, ok := w.Break(eye, dir)
		return InteractResult{Changed: ok, Cell: cell, Block: BlockTypeAir}
	case ActionSecondary:
		cell, ok := w.Place(eye, dir, e.Block)
		return InteractResult{Changed: ok, Cell: cell, Block: e.Block}
	}
	return InteractResult{}
}
