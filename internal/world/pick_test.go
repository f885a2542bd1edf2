package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// prepareColumn clears two cells above the surface of column (x, z) and
// returns the surface height.
func prepareColumn(t *testing.T, w *World, x, z int) int {
	t.Helper()
	h, ok := w.SurfaceHeight(x, z)
	if !ok {
		t.Fatalf("column %d,%d not loaded", x, z)
	}
	w.SetBlock(x, h+1, z, BlockTypeAir)
	w.SetBlock(x, h+2, z, BlockTypeAir)
	return h
}

func down() mgl32.Vec3 { return mgl32.Vec3{0, -1, 0} }

func TestPickTopFace(t *testing.T) {
	w := newTestWorld(nil, nil)
	loadAround(w, mgl32.Vec3{})
	h := prepareColumn(t, w, 4, 9)

	eye := mgl32.Vec3{4.5, float32(h) + 1.5, 9.5}
	hit, ok := w.Pick(eye, down(), 5)
	if !ok {
		t.Fatal("no hit")
	}
	if hit.Normal != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("normal %v, want +Y", hit.Normal)
	}
	if mgl32.Abs(hit.Distance-0.5) > 1e-4 {
		t.Errorf("distance %v, want 0.5", hit.Distance)
	}
	if hit.Cell() != [3]int{4, h, 9} {
		t.Errorf("cell %v, want [4 %d 9]", hit.Cell(), h)
	}
	if hit.Adjacent() != [3]int{4, h + 1, 9} {
		t.Errorf("adjacent %v", hit.Adjacent())
	}

	if _, ok := w.Pick(eye, down(), 0.25); ok {
		t.Error("hit beyond max distance")
	}
	if _, ok := w.Pick(eye, mgl32.Vec3{}, 5); ok {
		t.Error("zero direction hit something")
	}
}

func TestPlaceOnAirSetsOneCell(t *testing.T) {
	w := newTestWorld(nil, nil)
	loadAround(w, mgl32.Vec3{})
	h := prepareColumn(t, w, 6, 6)
	c, _ := w.Chunk(ChunkCoord{})
	before := c.Blocks()

	cell, ok := w.Place(mgl32.Vec3{6.5, float32(h) + 1.5, 6.5}, down(), BlockTypeStone)
	if !ok || cell != [3]int{6, h + 1, 6} {
		t.Fatalf("Place = %v, %v", cell, ok)
	}
	after := c.Blocks()
	changed := 0
	for i := range before {
		if before[i] != after[i] {
			changed++
		}
	}
	if changed != 1 {
		t.Errorf("%d cells changed, want 1", changed)
	}
	if got := w.GetBlock(6, h+1, 6); got != BlockTypeStone {
		t.Errorf("placed cell is %v", got)
	}
}

func TestPlaceOnOccupiedCellIsNoop(t *testing.T) {
	w := newTestWorld(nil, nil)
	loadAround(w, mgl32.Vec3{})
	h := prepareColumn(t, w, 6, 6)
	w.SetBlock(6, h+1, 6, BlockTypeWood)
	c, _ := w.Chunk(ChunkCoord{})
	before := c.Blocks()

	// The eye sits inside the wood block, so the ray hits the face below it
	// and the target cell is the occupied one.
	if _, ok := w.Place(mgl32.Vec3{6.5, float32(h) + 1.5, 6.5}, down(), BlockTypeStone); ok {
		t.Fatal("Place succeeded on an occupied cell")
	}
	after := c.Blocks()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("Place changed the chunk")
		}
	}
}

func TestBreakClearsHitCell(t *testing.T) {
	w := newTestWorld(nil, nil)
	loadAround(w, mgl32.Vec3{})
	h := prepareColumn(t, w, -3, -3)

	cell, ok := w.Break(mgl32.Vec3{-2.5, float32(h) + 1.5, -2.5}, down())
	if !ok || cell != [3]int{-3, h, -3} {
		t.Fatalf("Break = %v, %v", cell, ok)
	}
	if got := w.GetBlock(-3, h, -3); got != BlockTypeAir {
		t.Errorf("broken cell is %v", got)
	}
}

func TestInteractUsesCameraTransform(t *testing.T) {
	w := newTestWorld(nil, nil)
	loadAround(w, mgl32.Vec3{})
	h := prepareColumn(t, w, 10, 2)
	cam := CameraTransform(mgl32.Vec3{10.5, float32(h) + 2.5, 2.5}, down())

	res := w.Interact(Event{Action: ActionSecondary, Camera: cam, Block: BlockTypeSand})
	if !res.Changed || res.Cell != [3]int{10, h + 1, 2} {
		t.Fatalf("place result %+v", res)
	}
	res = w.Interact(Event{Action: ActionPrimary, Camera: cam})
	if !res.Changed || res.Cell != [3]int{10, h + 1, 2} {
		t.Fatalf("break result %+v", res)
	}
	if got := w.GetBlock(10, h+1, 2); got != BlockTypeAir {
		t.Errorf("cell is %v after break", got)
	}
	if res := w.Interact(Event{Camera: cam}); res.Changed {
		t.Error("ActionNone changed the world")
	}
}

func TestRayBoxInsideMisses(t *testing.T) {
	lo, hi := mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}
	if _, _, ok := rayBox(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, lo, hi); ok {
		t.Error("ray starting inside box reported a hit")
	}
	tt, n, ok := rayBox(mgl32.Vec3{-2, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, lo, hi)
	if !ok || tt != 2 || n != (mgl32.Vec3{-1, 0, 0}) {
		t.Errorf("got t=%v n=%v ok=%v", tt, n, ok)
	}
}
