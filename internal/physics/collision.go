package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/uptrixio/platformer/internal/profiling"
)

// BlockWorld answers whether a cell stops movement. Cell (x,y,z) spans
// [x,x+1) on every axis.
type BlockWorld interface {
	IsCollidable(x, y, z int) bool
}

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min, Max mgl32.Vec3
}

// BoxAt returns a box of the given footprint standing with its feet at pos.
func BoxAt(pos mgl32.Vec3, width, height float32) AABB {
	hw := width / 2
	return AABB{
		Min: mgl32.Vec3{pos.X() - hw, pos.Y(), pos.Z() - hw},
		Max: mgl32.Vec3{pos.X() + hw, pos.Y() + height, pos.Z() + hw},
	}
}

// Feet returns the bottom centre of the box.
func (b AABB) Feet() mgl32.Vec3 {
	return mgl32.Vec3{(b.Min.X() + b.Max.X()) / 2, b.Min.Y(), (b.Min.Z() + b.Max.Z()) / 2}
}

// Translate moves the box by d.
func (b AABB) Translate(d mgl32.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// cells returns the inclusive cell range the box overlaps.
func (b AABB) cells() (lo, hi [3]int) {
	for i := 0; i < 3; i++ {
		lo[i] = int(math.Floor(float64(b.Min[i])))
		hi[i] = int(math.Ceil(float64(b.Max[i]))) - 1
	}
	return lo, hi
}

func overlapsCell(b AABB, x, y, z int) bool {
	fx, fy, fz := float32(x), float32(y), float32(z)
	return b.Min.X() < fx+1 && b.Max.X() > fx &&
		b.Min.Y() < fy+1 && b.Max.Y() > fy &&
		b.Min.Z() < fz+1 && b.Max.Z() > fz
}

// Collides reports whether the box overlaps any collidable cell.
func Collides(b AABB, w BlockWorld) bool {
	_, ok := firstCollision(b, w)
	return ok
}

func firstCollision(b AABB, w BlockWorld) ([3]int, bool) {
	lo, hi := b.cells()
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				if w.IsCollidable(x, y, z) && overlapsCell(b, x, y, z) {
					return [3]int{x, y, z}, true
				}
			}
		}
	}
	return [3]int{}, false
}

// SweepAxis moves the box by d along one axis and stops it flush against
// the first collidable cells in the way. It reports whether it was stopped.
func SweepAxis(b AABB, axis int, d float32, w BlockWorld) (AABB, bool) {
	var delta mgl32.Vec3
	delta[axis] = d
	moved := b.Translate(delta)
	lo, hi := moved.cells()
	hit := false
	limit := float32(0)
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				if !w.IsCollidable(x, y, z) || !overlapsCell(moved, x, y, z) {
					continue
				}
				c := float32([3]int{x, y, z}[axis])
				if d > 0 {
					if !hit || c < limit {
						limit = c
					}
				} else if !hit || c+1 > limit {
					limit = c + 1
				}
				hit = true
			}
		}
	}
	if !hit {
		return moved, false
	}
	var fix mgl32.Vec3
	if d > 0 {
		fix[axis] = limit - moved.Max[axis]
	} else {
		fix[axis] = limit - moved.Min[axis]
	}
	return moved.Translate(fix), true
}

// Resolve pushes the box out of every collidable cell it overlaps, each time
// along the axis of minimum overlap. It reports whether the box was pushed
// up, which means it rests on the ground.
func Resolve(b AABB, w BlockWorld) (AABB, bool) {
	defer profiling.Track("physics.Resolve")()
	grounded := false
	for iter := 0; iter < 16; iter++ {
		cell, ok := firstCollision(b, w)
		if !ok {
			break
		}
		var (
			best     float32 = math.MaxFloat32
			bestAxis         = -1
			bestSign float32
		)
		for i := 0; i < 3; i++ {
			c := float32(cell[i])
			if d := b.Max[i] - c; d < best {
				best, bestAxis, bestSign = d, i, -1
			}
			if d := c + 1 - b.Min[i]; d < best {
				best, bestAxis, bestSign = d, i, 1
			}
		}
		var push mgl32.Vec3
		push[bestAxis] = best * bestSign
		b = b.Translate(push)
		if bestAxis == 1 && bestSign > 0 {
			grounded = true
		}
	}
	return b, grounded
}

// GroundLevel returns the top of the highest collidable cell below the
// box's footprint, scanning at most depth cells down from its feet.
func GroundLevel(b AABB, w BlockWorld, depth int) (float32, bool) {
	lo, hi := b.cells()
	top := int(math.Floor(float64(b.Min.Y())))
	found := false
	ground := float32(0)
	for x := lo[0]; x <= hi[0]; x++ {
		for z := lo[2]; z <= hi[2]; z++ {
			for y := top; y >= top-depth; y-- {
				if w.IsCollidable(x, y, z) {
					if g := float32(y + 1); !found || g > ground {
						ground = g
						found = true
					}
					break
				}
			}
		}
	}
	return ground, found
}
