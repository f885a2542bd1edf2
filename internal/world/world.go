package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/meshing"
	"github.com/uptrixio/platformer/internal/noise"
	"github.com/uptrixio/platformer/internal/profiling"
	"github.com/uptrixio/platformer/internal/storage"
)

// slowTick is the Update duration above which the profiler summary is logged.
const slowTick = 50 * time.Millisecond

// MeshConsumer receives chunk meshes for display. Attach may be called
// again for a coordinate that is already attached; the new mesh replaces
// the old one.
type MeshConsumer interface {
	Attach(coord ChunkCoord, mesh *meshing.Mesh)
	Detach(coord ChunkCoord)
}

// Options configures a World.
type Options struct {
	Name     string
	Seed     noise.Seed
	Settings config.Settings

	// Store persists modified chunks. Nil keeps the world in memory only.
	Store storage.ChunkStore
	// Consumer receives meshes. Nil discards them.
	Consumer MeshConsumer
	Logger   *slog.Logger
}

// World owns the loaded chunks around a viewer. It is not safe for
// concurrent use; drive it from a single loop.
type World struct {
	name     string
	gen      *GenerationContext
	store    storage.ChunkStore
	consumer MeshConsumer
	log      *slog.Logger

	chunks map[ChunkCoord]*Chunk
	queue  *genQueue

	renderDistance int
	maxPerTick     int
	reach          float32

	center ChunkCoord

	// Initial load: the square around the first Update position. initial
	// holds its chunks that are still wanted and not yet generated.
	started    bool
	initial    map[ChunkCoord]struct{}
	expected   int
	generated  int
	ready      bool
	onProgress func(float64)
	onReady    func()
}

// New creates a world with no chunks loaded.
func New(opts Options) *World {
	s := opts.Settings
	s.Normalize()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w := &World{
		name:           opts.Name,
		gen:            NewGenerationContext(opts.Seed, s.Terrain),
		store:          opts.Store,
		consumer:       opts.Consumer,
		log:            logger.With("world", opts.Name),
		chunks:         make(map[ChunkCoord]*Chunk),
		queue:          newGenQueue(),
		renderDistance: s.RenderDistance,
		maxPerTick:     s.MaxChunksPerTick,
		reach:          s.ReachDistance,
	}
	w.expected = initialChunkCount(w.renderDistance)
	return w
}

func initialChunkCount(r int) int {
	side := 2*r + 1
	return side * side
}

func (w *World) Name() string { return w.name }

// Generation returns the terrain functions of this world's seed.
func (w *World) Generation() *GenerationContext { return w.gen }

func (w *World) RenderDistance() int { return w.renderDistance }

// ReachDistance is the maximum pick distance for Interact.
func (w *World) ReachDistance() float32 { return w.reach }

// SetRenderDistance changes the load radius. It applies on the next Update.
// Before the first Update it also sets the size of the initial load.
func (w *World) SetRenderDistance(r int) {
	w.renderDistance = config.ClampRenderDistance(r)
	if !w.started {
		w.expected = initialChunkCount(w.renderDistance)
	}
}

// SetMaxChunksPerTick caps how many queued chunks one Update generates.
func (w *World) SetMaxChunksPerTick(n int) {
	if n > 0 {
		w.maxPerTick = n
	}
}

// OnProgress registers a callback receiving the initial load fraction after
// every generated chunk until the world is ready.
func (w *World) OnProgress(f func(float64)) { w.onProgress = f }

// OnReady registers a callback fired once when the initial area is loaded.
func (w *World) OnReady(f func()) { w.onReady = f }

// Progress returns the initial load fraction in [0,1].
func (w *World) Progress() float64 {
	if w.ready || w.expected == 0 {
		return 1
	}
	return min(float64(w.generated)/float64(w.expected), 1)
}

// Ready reports whether the initial area has finished loading.
func (w *World) Ready() bool { return w.ready }

// Update is the per-frame entry point: it reconciles the loaded set with
// the viewer position and generates up to the per-tick cap of queued chunks.
func (w *World) Update(pos mgl32.Vec3) {
	start := time.Now()
	func() {
		defer profiling.Track("world.Update")()
		w.center = ChunkCoordForPos(pos.X(), pos.Z())
		if !w.started {
			w.startInitialLoad()
		}
		w.syncChunks()
		w.processQueue()
	}()
	if d := time.Since(start); d > slowTick {
		w.log.Warn("slow world tick", "took", d, "top", profiling.LogValue(3))
	}
}

// startInitialLoad fixes the initial square at the current center and
// radius.
func (w *World) startInitialLoad() {
	w.started = true
	r := w.renderDistance
	w.initial = make(map[ChunkCoord]struct{}, initialChunkCount(r))
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			w.initial[ChunkCoord{X: w.center.X + dx, Z: w.center.Z + dz}] = struct{}{}
		}
	}
	w.expected = len(w.initial)
}

// syncChunks enqueues missing chunks of the required square and unloads
// loaded chunks outside it.
func (w *World) syncChunks() {
	defer profiling.Track("world.syncChunks")()
	r := w.renderDistance
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			coord := ChunkCoord{X: w.center.X + dx, Z: w.center.Z + dz}
			if _, ok := w.chunks[coord]; ok {
				continue
			}
			w.chunks[coord] = NewChunk(coord)
			w.queue.Push(coord)
		}
	}

	for coord := range w.chunks {
		if chebyshev(coord, w.center) > r {
			w.unload(coord)
		}
	}
}

func (w *World) unload(coord ChunkCoord) {
	c, ok := w.chunks[coord]
	if !ok {
		return
	}
	if w.queue.Remove(coord) {
		delete(w.chunks, coord)
		w.initialDropped(coord)
		return
	}
	w.persist(context.Background(), c)
	c.Dispose()
	if w.consumer != nil {
		w.consumer.Detach(coord)
	}
	delete(w.chunks, coord)
	w.log.Debug("chunk unloaded", "cx", coord.X, "cz", coord.Z)
}

// processQueue generates the nearest queued chunks.
func (w *World) processQueue() {
	defer profiling.Track("world.processQueue")()
	for _, coord := range w.queue.PopNearest(w.center, w.maxPerTick) {
		c, ok := w.chunks[coord]
		if !ok {
			continue
		}
		w.populate(c)
		c.BuildMesh()
		if w.consumer != nil {
			w.consumer.Attach(coord, c.Mesh())
		}
		w.log.Debug("chunk loaded", "cx", coord.X, "cz", coord.Z)
		w.chunkGenerated(coord)
	}
}

// populate restores a persisted record when one exists and is valid, and
// generates the chunk otherwise. Storage failures never stop the loop.
func (w *World) populate(c *Chunk) {
	if w.store != nil {
		data, err := w.store.LoadChunk(context.Background(), w.name, c.Coord.X, c.Coord.Z)
		switch {
		case err == nil:
			lerr := c.LoadBlocks(data)
			if lerr == nil {
				return
			}
			w.log.Warn("discarding persisted chunk", "cx", c.Coord.X, "cz", c.Coord.Z, "err", lerr)
		case errors.Is(err, storage.ErrNotFound):
		default:
			w.log.Warn("chunk load failed", "cx", c.Coord.X, "cz", c.Coord.Z, "err", err)
		}
	}
	c.Generate(w.gen)
}

// chunkGenerated counts coord toward the initial load when it belongs to
// the initial square.
func (w *World) chunkGenerated(coord ChunkCoord) {
	if w.ready {
		return
	}
	if _, ok := w.initial[coord]; !ok {
		return
	}
	delete(w.initial, coord)
	w.generated++
	if w.onProgress != nil {
		w.onProgress(w.Progress())
	}
	w.checkReady()
}

// initialDropped forgets an initial chunk that was unloaded before it was
// generated; the viewer moved away and it is no longer part of the load.
func (w *World) initialDropped(coord ChunkCoord) {
	if w.ready {
		return
	}
	if _, ok := w.initial[coord]; !ok {
		return
	}
	delete(w.initial, coord)
	w.expected--
	w.checkReady()
}

func (w *World) checkReady() {
	if w.ready || !w.started || len(w.initial) > 0 {
		return
	}
	w.ready = true
	w.initial = nil
	if w.onReady != nil {
		w.onReady()
	}
}

func (w *World) persist(ctx context.Context, c *Chunk) {
	if w.store == nil || !c.Generated() || !c.Modified() {
		return
	}
	if err := w.store.SaveChunk(ctx, w.name, c.Coord.X, c.Coord.Z, c.Blocks()); err != nil {
		w.log.Error("chunk save failed", "cx", c.Coord.X, "cz", c.Coord.Z, "err", err)
		return
	}
	c.MarkSaved()
}

// Save persists every modified loaded chunk.
func (w *World) Save(ctx context.Context) error {
	if w.store == nil {
		return nil
	}
	var errs []error
	for _, c := range w.chunks {
		if !c.Generated() || !c.Modified() {
			continue
		}
		if err := w.store.SaveChunk(ctx, w.name, c.Coord.X, c.Coord.Z, c.Blocks()); err != nil {
			errs = append(errs, fmt.Errorf("chunk %d,%d: %w", c.Coord.X, c.Coord.Z, err))
			continue
		}
		c.MarkSaved()
	}
	return errors.Join(errs...)
}

// Close persists modified chunks and releases every mesh.
func (w *World) Close(ctx context.Context) error {
	err := w.Save(ctx)
	for coord, c := range w.chunks {
		c.Dispose()
		if w.consumer != nil && c.Generated() {
			w.consumer.Detach(coord)
		}
	}
	w.chunks = make(map[ChunkCoord]*Chunk)
	w.queue = newGenQueue()
	return err
}

// GetBlock returns the block at a global position, or BlockTypeUnknown
// when its chunk is not loaded yet.
func (w *World) GetBlock(x, y, z int) BlockType {
	coord, lx, lz := splitXZ(x, z)
	c, ok := w.chunks[coord]
	if !ok || !c.Generated() {
		return BlockTypeUnknown
	}
	return c.Get(lx, y, lz)
}

// IsSolid reports whether the block at a global position is solid. Unloaded
// positions are not solid.
func (w *World) IsSolid(x, y, z int) bool {
	return w.GetBlock(x, y, z).IsSolid()
}

// IsCollidable reports whether the block at a global position blocks
// movement.
func (w *World) IsCollidable(x, y, z int) bool {
	return w.GetBlock(x, y, z).Props().Collidable
}

// SetBlock writes a block into its loaded chunk and rebuilds that chunk's
// mesh. It returns false when the chunk is not loaded, y is outside the
// world or t cannot be stored.
func (w *World) SetBlock(x, y, z int, t BlockType) bool {
	defer profiling.Track("world.SetBlock")()
	if !t.Valid() || y < config.MinY || y >= config.MaxY {
		return false
	}
	coord, lx, lz := splitXZ(x, z)
	c, ok := w.chunks[coord]
	if !ok || !c.Generated() {
		return false
	}
	c.Set(lx, y, lz, t)
	c.Regenerate()
	if w.consumer != nil {
		w.consumer.Attach(coord, c.Mesh())
	}
	return true
}

// Chunk returns a loaded chunk.
func (w *World) Chunk(coord ChunkCoord) (*Chunk, bool) {
	c, ok := w.chunks[coord]
	return c, ok
}

// Loaded returns the number of chunks in the loaded set, queued or not.
func (w *World) Loaded() int { return len(w.chunks) }

// Queued returns the number of chunks waiting for generation.
func (w *World) Queued() int { return w.queue.Len() }

// SurfaceHeight returns the highest solid y at column (x, z) of a loaded
// chunk.
func (w *World) SurfaceHeight(x, z int) (int, bool) {
	coord, lx, lz := splitXZ(x, z)
	c, ok := w.chunks[coord]
	if !ok || !c.Generated() {
		return 0, false
	}
	return c.TopSolid(lx, lz)
}

// FindSpawn searches outward from the origin in a square spiral for a
// column whose terrain surface is above sea level, and returns a position
// standing on it. Only the noise is consulted, so no chunk needs to be
// loaded.
func (w *World) FindSpawn() mgl32.Vec3 {
	sea := w.gen.SeaLevel()
	const maxRing = 64
	for ring := 0; ring <= maxRing; ring++ {
		for dz := -ring; dz <= ring; dz++ {
			for dx := -ring; dx <= ring; dx++ {
				if max(abs(dx), abs(dz)) != ring {
					continue
				}
				x, z := dx*4, dz*4
				h := w.gen.SurfaceY(x, z)
				if h > sea && !w.gen.IsCave(x, h, z) {
					return mgl32.Vec3{float32(x) + 0.5, float32(h + 2), float32(z) + 0.5}
				}
			}
		}
	}
	return mgl32.Vec3{0.5, float32(max(w.gen.SurfaceY(0, 0), sea) + 2), 0.5}
}

func chebyshev(a, b ChunkCoord) int {
	return max(abs(a.X-b.X), abs(a.Z-b.Z))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
