package meshing

import (
	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is number of float32 per vertex (pos.xyz + normal.xyz)
const VertexStride = 6

// Box is an axis-aligned run of cells of a single block type, in grid-local
// cell coordinates. Cell (x,y,z) spans [x,x+1) on every axis.
type Box struct {
	Type uint8
	Min  [3]int
	Size [3]int // width (x), height (y), depth (z)
}

// Max returns the exclusive upper corner.
func (b Box) Max() [3]int {
	return [3]int{b.Min[0] + b.Size[0], b.Min[1] + b.Size[1], b.Min[2] + b.Size[2]}
}

// Center returns the box centre in grid-local space.
func (b Box) Center() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(b.Min[0]) + float32(b.Size[0])/2,
		float32(b.Min[1]) + float32(b.Size[1])/2,
		float32(b.Min[2]) + float32(b.Size[2])/2,
	}
}

// Volume is the number of cells the box covers.
func (b Box) Volume() int {
	return b.Size[0] * b.Size[1] * b.Size[2]
}

// Contains reports whether cell (x,y,z) lies inside the box.
func (b Box) Contains(x, y, z int) bool {
	return x >= b.Min[0] && x < b.Min[0]+b.Size[0] &&
		y >= b.Min[1] && y < b.Min[1]+b.Size[1] &&
		z >= b.Min[2] && z < b.Min[2]+b.Size[2]
}

// Surface is the mergeable geometry of one block type.
type Surface struct {
	Type  uint8
	Boxes []Box
}

// Mesh is the render representation of a grid: one surface per block type
// present, ordered by type id.
type Mesh struct {
	Surfaces []Surface
}

// BoxCount returns the number of boxes across all surfaces.
func (m *Mesh) BoxCount() int {
	if m == nil {
		return 0
	}
	n := 0
	for i := range m.Surfaces {
		n += len(m.Surfaces[i].Boxes)
	}
	return n
}

// Surface returns the surface for a block type, or nil.
func (m *Mesh) Surface(t uint8) *Surface {
	if m == nil {
		return nil
	}
	for i := range m.Surfaces {
		if m.Surfaces[i].Type == t {
			return &m.Surfaces[i]
		}
	}
	return nil
}

// Vertices builds an interleaved triangle list (pos+normal) for every box
// face of the surface, translated by origin. Faces are wound CCW when seen
// from outside.
func (s *Surface) Vertices(origin mgl32.Vec3) []float32 {
	vertices := make([]float32, 0, len(s.Boxes)*6*6*VertexStride)

	emitQuad := func(p0, p1, p2, p3, n mgl32.Vec3) {
		for _, p := range [6]mgl32.Vec3{p0, p1, p2, p2, p3, p0} {
			q := p.Add(origin)
			vertices = append(vertices, q[0], q[1], q[2], n[0], n[1], n[2])
		}
	}

	for _, b := range s.Boxes {
		x0, y0, z0 := float32(b.Min[0]), float32(b.Min[1]), float32(b.Min[2])
		x1, y1, z1 := x0+float32(b.Size[0]), y0+float32(b.Size[1]), z0+float32(b.Size[2])

		// +X
		emitQuad(mgl32.Vec3{x1, y0, z0}, mgl32.Vec3{x1, y1, z0}, mgl32.Vec3{x1, y1, z1}, mgl32.Vec3{x1, y0, z1}, mgl32.Vec3{1, 0, 0})
		// -X
		emitQuad(mgl32.Vec3{x0, y0, z0}, mgl32.Vec3{x0, y0, z1}, mgl32.Vec3{x0, y1, z1}, mgl32.Vec3{x0, y1, z0}, mgl32.Vec3{-1, 0, 0})
		// +Y
		emitQuad(mgl32.Vec3{x0, y1, z0}, mgl32.Vec3{x0, y1, z1}, mgl32.Vec3{x1, y1, z1}, mgl32.Vec3{x1, y1, z0}, mgl32.Vec3{0, 1, 0})
		// -Y
		emitQuad(mgl32.Vec3{x0, y0, z0}, mgl32.Vec3{x1, y0, z0}, mgl32.Vec3{x1, y0, z1}, mgl32.Vec3{x0, y0, z1}, mgl32.Vec3{0, -1, 0})
		// +Z
		emitQuad(mgl32.Vec3{x0, y0, z1}, mgl32.Vec3{x1, y0, z1}, mgl32.Vec3{x1, y1, z1}, mgl32.Vec3{x0, y1, z1}, mgl32.Vec3{0, 0, 1})
		// -Z
		emitQuad(mgl32.Vec3{x0, y0, z0}, mgl32.Vec3{x0, y1, z0}, mgl32.Vec3{x1, y1, z0}, mgl32.Vec3{x1, y0, z0}, mgl32.Vec3{0, 0, -1})
	}
	return vertices
}
