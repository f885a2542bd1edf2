package world

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/meshing"
	"github.com/uptrixio/platformer/internal/noise"
	"github.com/uptrixio/platformer/internal/storage"
)

type recordingConsumer struct {
	attached map[ChunkCoord]*meshing.Mesh
	attaches int
	detaches int
}

func newRecordingConsumer() *recordingConsumer {
	return &recordingConsumer{attached: make(map[ChunkCoord]*meshing.Mesh)}
}

func (r *recordingConsumer) Attach(coord ChunkCoord, m *meshing.Mesh) {
	r.attached[coord] = m
	r.attaches++
}

func (r *recordingConsumer) Detach(coord ChunkCoord) {
	delete(r.attached, coord)
	r.detaches++
}

func newTestWorld(store storage.ChunkStore, consumer MeshConsumer) *World {
	s := config.Default()
	s.RenderDistance = 2
	s.MaxChunksPerTick = 4
	return New(Options{
		Name:     "test",
		Seed:     noise.ParseSeed("world-test"),
		Settings: s,
		Store:    store,
		Consumer: consumer,
	})
}

func loadAround(w *World, pos mgl32.Vec3) {
	w.Update(pos)
	for w.Queued() > 0 {
		w.Update(pos)
	}
}

func TestUpdateLoadsSquare(t *testing.T) {
	rc := newRecordingConsumer()
	w := newTestWorld(nil, rc)
	w.Update(mgl32.Vec3{8, 0, 8})
	if w.Loaded() != 25 {
		t.Fatalf("loaded %d chunks, want 25", w.Loaded())
	}
	if w.Queued() != 25-4 {
		t.Errorf("queued %d after first tick, want 21", w.Queued())
	}
	if _, ok := rc.attached[ChunkCoord{}]; !ok {
		t.Error("center chunk not generated first")
	}
	loadAround(w, mgl32.Vec3{8, 0, 8})
	if len(rc.attached) != 25 {
		t.Errorf("attached %d meshes, want 25", len(rc.attached))
	}
}

func TestProgressAndReady(t *testing.T) {
	w := newTestWorld(nil, nil)
	w.SetMaxChunksPerTick(2)
	var fractions []float64
	readyCalls := 0
	w.OnProgress(func(f float64) { fractions = append(fractions, f) })
	w.OnReady(func() { readyCalls++ })

	for i := 0; i < 20; i++ {
		w.Update(mgl32.Vec3{})
	}
	if len(fractions) != 25 {
		t.Fatalf("got %d progress callbacks, want 25", len(fractions))
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Fatalf("progress went backwards: %v", fractions)
		}
	}
	if fractions[len(fractions)-1] != 1 {
		t.Errorf("final progress %v, want 1", fractions[len(fractions)-1])
	}
	if readyCalls != 1 || !w.Ready() || w.Progress() != 1 {
		t.Errorf("ready calls %d, Ready %v, Progress %v", readyCalls, w.Ready(), w.Progress())
	}
}

func TestReadyWaitsForWholeInitialSquare(t *testing.T) {
	w := newTestWorld(nil, nil)
	w.SetRenderDistance(4)
	w.SetMaxChunksPerTick(2)
	if w.Progress() != 0 {
		t.Fatalf("progress before any tick = %v", w.Progress())
	}
	progressCalls := 0
	queuedAtReady, generatedAtReady := -1, 0
	w.OnProgress(func(float64) { progressCalls++ })
	w.OnReady(func() {
		queuedAtReady = w.Queued()
		for coord, c := range w.chunks {
			if chebyshev(coord, ChunkCoord{}) <= 4 && c.Generated() {
				generatedAtReady++
			}
		}
	})

	for i := 0; i < 100 && !w.Ready(); i++ {
		w.Update(mgl32.Vec3{})
	}
	if !w.Ready() {
		t.Fatal("never became ready")
	}
	if queuedAtReady != 0 || generatedAtReady != 81 {
		t.Errorf("at ready: queued %d, generated %d of 81", queuedAtReady, generatedAtReady)
	}
	if progressCalls != 81 {
		t.Errorf("got %d progress callbacks, want 81", progressCalls)
	}
}

func TestReadyIgnoresChunksOutsideInitialSquare(t *testing.T) {
	w := newTestWorld(nil, nil)
	w.SetMaxChunksPerTick(3)
	start := ChunkCoord{}
	early := false
	w.OnReady(func() {
		for coord, c := range w.chunks {
			if chebyshev(coord, start) <= 2 && !c.Generated() {
				early = true
			}
		}
	})

	w.Update(mgl32.Vec3{})
	// One chunk east: column X=-2 leaves, column X=3 joins the queue.
	next := mgl32.Vec3{16 + 8, 0, 8}
	for i := 0; i < 50 && !w.Ready(); i++ {
		w.Update(next)
	}
	if !w.Ready() {
		t.Fatal("never became ready")
	}
	if early {
		t.Error("ready fired while initial chunks were still queued")
	}
	if w.Progress() != 1 {
		t.Errorf("progress %v after ready", w.Progress())
	}
}

func TestShrinkingRenderDistanceUnloads(t *testing.T) {
	rc := newRecordingConsumer()
	w := newTestWorld(nil, rc)
	loadAround(w, mgl32.Vec3{})
	w.SetRenderDistance(1)
	w.Update(mgl32.Vec3{})
	if w.Loaded() != 9 || len(rc.attached) != 9 {
		t.Errorf("loaded %d, attached %d, want 9", w.Loaded(), len(rc.attached))
	}
	if !w.Ready() {
		t.Error("shrinking the radius reset readiness")
	}
}

func TestFirstTickGeneratesNearestChunks(t *testing.T) {
	rc := newRecordingConsumer()
	w := newTestWorld(nil, rc)
	w.SetMaxChunksPerTick(2)
	w.Update(mgl32.Vec3{8, 0, 8})
	for _, coord := range []ChunkCoord{{0, 0}, {0, -1}} {
		if _, ok := rc.attached[coord]; !ok {
			t.Errorf("chunk %v not generated on the first tick", coord)
		}
	}
	if len(rc.attached) != 2 || w.Queued() != 23 {
		t.Errorf("attached %d, queued %d, want 2 and 23", len(rc.attached), w.Queued())
	}
	if !w.queue.Has(ChunkCoord{X: 1}) {
		t.Error("tied neighbour {1 0} should still be queued")
	}
}

func TestProcessQueueGeneratesNearestWithinCap(t *testing.T) {
	rc := newRecordingConsumer()
	w := newTestWorld(nil, rc)
	w.SetMaxChunksPerTick(2)
	for _, coord := range []ChunkCoord{{X: 1}, {X: 5}, {Z: -2}} {
		w.chunks[coord] = NewChunk(coord)
		w.queue.Push(coord)
	}
	w.processQueue()

	for _, coord := range []ChunkCoord{{X: 1}, {Z: -2}} {
		c := w.chunks[coord]
		if _, ok := rc.attached[coord]; !ok || !c.Generated() {
			t.Errorf("chunk %v not generated", coord)
		}
	}
	far := ChunkCoord{X: 5}
	if _, ok := rc.attached[far]; ok || w.chunks[far].Generated() {
		t.Error("distance 5 chunk generated past the cap")
	}
	if w.Queued() != 1 || !w.queue.Has(far) {
		t.Errorf("queued %d, want only %v", w.Queued(), far)
	}
}

func TestMovingUnloadsFarChunks(t *testing.T) {
	rc := newRecordingConsumer()
	w := newTestWorld(nil, rc)
	loadAround(w, mgl32.Vec3{})

	w.Update(mgl32.Vec3{16 * 3, 0, 0})
	for coord := range rc.attached {
		if chebyshev(coord, ChunkCoord{X: 3}) > 2 {
			t.Errorf("chunk %v still attached after moving away", coord)
		}
	}
	if _, ok := w.Chunk(ChunkCoord{-2, 0}); ok {
		t.Error("far chunk still loaded")
	}
	if w.Loaded() != 25 {
		t.Errorf("loaded %d, want 25", w.Loaded())
	}
}

func TestMovingDropsStaleQueueEntries(t *testing.T) {
	w := newTestWorld(nil, nil)
	w.SetMaxChunksPerTick(1)
	w.Update(mgl32.Vec3{})
	w.Update(mgl32.Vec3{16 * 100, 0, 0})
	if w.Queued() != 25-1 {
		t.Errorf("queued %d, want 24", w.Queued())
	}
	if _, ok := w.Chunk(ChunkCoord{1, 1}); ok {
		t.Error("stale queued chunk kept")
	}
}

func TestGetBlockUnknownWhenNotLoaded(t *testing.T) {
	w := newTestWorld(nil, nil)
	if got := w.GetBlock(100000, 0, -100000); got != BlockTypeUnknown {
		t.Errorf("far lookup = %v, want unknown", got)
	}
	if w.IsSolid(100000, 0, -100000) {
		t.Error("unknown block reported solid")
	}
	w.Update(mgl32.Vec3{})
	// queued but not generated
	if got := w.GetBlock(2*16, 0, 2*16); got != BlockTypeUnknown {
		t.Errorf("queued chunk lookup = %v, want unknown", got)
	}
	if w.SetBlock(100000, 0, 0, BlockTypeStone) {
		t.Error("SetBlock succeeded on unloaded chunk")
	}
}

func TestSetBlockUpdatesMesh(t *testing.T) {
	rc := newRecordingConsumer()
	w := newTestWorld(nil, rc)
	loadAround(w, mgl32.Vec3{})

	x, z := -5, 7
	h, ok := w.SurfaceHeight(x, z)
	if !ok {
		t.Fatal("no surface")
	}
	before := rc.attaches
	if !w.SetBlock(x, h+1, z, BlockTypeStone) {
		t.Fatal("SetBlock failed")
	}
	if got := w.GetBlock(x, h+1, z); got != BlockTypeStone {
		t.Fatalf("GetBlock = %v, want stone", got)
	}
	if rc.attaches != before+1 {
		t.Errorf("mesh not re-attached")
	}
	coord, lx, lz := splitXZ(x, z)
	m := rc.attached[coord]
	covered := false
	for _, b := range m.Surface(uint8(BlockTypeStone)).Boxes {
		if b.Contains(lx, h+1-config.MinY, lz) {
			covered = true
		}
	}
	if !covered {
		t.Error("attached mesh does not contain the new block")
	}

	if w.SetBlock(x, config.MaxY, z, BlockTypeStone) {
		t.Error("SetBlock above the world succeeded")
	}
	if w.SetBlock(x, h, z, BlockTypeUnknown) {
		t.Error("SetBlock stored the unknown sentinel")
	}
}

func TestModifiedChunkSurvivesUnload(t *testing.T) {
	store := storage.NewMemory()
	w := newTestWorld(store, nil)
	loadAround(w, mgl32.Vec3{})

	h, _ := w.SurfaceHeight(3, 3)
	if !w.SetBlock(3, h+1, 3, BlockTypeWood) {
		t.Fatal("SetBlock failed")
	}
	w.Update(mgl32.Vec3{16 * 50, 0, 16 * 50})
	if store.ChunkCount("test") != 1 {
		t.Fatalf("stored %d chunks, want only the modified one", store.ChunkCount("test"))
	}
	if got := w.GetBlock(3, h+1, 3); got != BlockTypeUnknown {
		t.Fatalf("unloaded block = %v", got)
	}

	loadAround(w, mgl32.Vec3{})
	if got := w.GetBlock(3, h+1, 3); got != BlockTypeWood {
		t.Errorf("after reload got %v, want wood", got)
	}
}

func TestUnmodifiedChunkRegeneratesIdentically(t *testing.T) {
	store := storage.NewMemory()
	w := newTestWorld(store, nil)
	loadAround(w, mgl32.Vec3{})
	coord := ChunkCoord{X: 1, Z: -1}
	c, ok := w.Chunk(coord)
	if !ok {
		t.Fatal("chunk not loaded")
	}
	before := bytes.Clone(c.Blocks())

	w.Update(mgl32.Vec3{16 * 50, 0, 16 * 50})
	if _, ok := w.Chunk(coord); ok {
		t.Fatal("chunk still loaded after moving away")
	}
	if n := store.ChunkCount("test"); n != 0 {
		t.Fatalf("stored %d unmodified chunks", n)
	}

	loadAround(w, mgl32.Vec3{})
	c, ok = w.Chunk(coord)
	if !ok {
		t.Fatal("chunk not reloaded")
	}
	if !bytes.Equal(before, c.Blocks()) {
		t.Error("regenerated chunk differs from the first generation")
	}
}

func TestCloseSavesModifiedChunks(t *testing.T) {
	store := storage.NewMemory()
	rc := newRecordingConsumer()
	w := newTestWorld(store, rc)
	loadAround(w, mgl32.Vec3{})
	h, _ := w.SurfaceHeight(20, 20)
	w.SetBlock(20, h+1, 20, BlockTypeSand)

	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if store.ChunkCount("test") != 1 {
		t.Errorf("stored %d chunks, want 1", store.ChunkCount("test"))
	}
	if len(rc.attached) != 0 || w.Loaded() != 0 {
		t.Errorf("Close left %d attached, %d loaded", len(rc.attached), w.Loaded())
	}

	w2 := newTestWorld(store, nil)
	loadAround(w2, mgl32.Vec3{})
	if got := w2.GetBlock(20, h+1, 20); got != BlockTypeSand {
		t.Errorf("reopened world has %v, want sand", got)
	}
}

func TestMalformedRecordFallsBackToGeneration(t *testing.T) {
	store := storage.NewMemory()
	_ = store.SaveChunk(context.Background(), "test", 0, 0, []byte("garbage"))
	w := newTestWorld(store, nil)
	loadAround(w, mgl32.Vec3{})
	c, ok := w.Chunk(ChunkCoord{})
	if !ok || !c.Generated() {
		t.Fatal("chunk not generated")
	}
	if got := c.Get(0, config.MinY, 0); got != BlockTypeBedrock {
		t.Errorf("bottom = %v, want bedrock", got)
	}
}

func TestFindSpawnAboveSeaLevel(t *testing.T) {
	w := newTestWorld(nil, nil)
	p := w.FindSpawn()
	x, z := int(p.X()-0.5), int(p.Z()-0.5)
	h := w.Generation().SurfaceY(x, z)
	if h <= w.Generation().SeaLevel() {
		t.Errorf("spawn surface %d not above sea level", h)
	}
	if int(p.Y()) != h+2 {
		t.Errorf("spawn y %v, want %d", p.Y(), h+2)
	}
}
