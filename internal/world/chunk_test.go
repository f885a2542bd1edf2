package world

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/noise"
)

func testContext(seed string) *GenerationContext {
	return NewGenerationContext(noise.ParseSeed(seed), config.DefaultTerrain())
}

func hashChunkBlocks(c *Chunk) [32]byte {
	return sha256.Sum256(c.Blocks())
}

func TestChunkGetSetBounds(t *testing.T) {
	c := NewChunk(ChunkCoord{})
	c.Set(3, 10, 4, BlockTypeStone)
	if got := c.Get(3, 10, 4); got != BlockTypeStone {
		t.Fatalf("got %v, want stone", got)
	}
	if c.Modified() {
		t.Error("ungenerated chunk marked modified")
	}

	c.Set(-1, 10, 0, BlockTypeStone)
	c.Set(16, 10, 0, BlockTypeStone)
	c.Set(0, config.MaxY, 0, BlockTypeStone)
	c.Set(0, config.MinY-1, 0, BlockTypeStone)
	c.Set(0, 0, 0, BlockTypeUnknown)
	for _, p := range [][3]int{{-1, 10, 0}, {16, 10, 0}, {0, config.MaxY, 0}, {0, config.MinY - 1, 0}, {0, 0, 0}} {
		if got := c.Get(p[0], p[1], p[2]); got != BlockTypeAir {
			t.Errorf("Get%v = %v, want air", p, got)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	for _, coord := range []ChunkCoord{{0, 0}, {-3, 7}} {
		a := NewChunk(coord)
		a.Generate(testContext("alpha"))
		b := NewChunk(coord)
		b.Generate(testContext("alpha"))
		if hashChunkBlocks(a) != hashChunkBlocks(b) {
			t.Errorf("chunk %v differs between identical seeds", coord)
		}
	}

	a := NewChunk(ChunkCoord{})
	a.Generate(testContext("alpha"))
	b := NewChunk(ChunkCoord{})
	b.Generate(testContext("beta"))
	if hashChunkBlocks(a) == hashChunkBlocks(b) {
		t.Error("different seeds produced identical chunks")
	}
}

func TestNumericSeedMatchesString(t *testing.T) {
	a := NewChunk(ChunkCoord{1, 1})
	a.Generate(NewGenerationContext(noise.SeedFromInt(12345), config.DefaultTerrain()))
	b := NewChunk(ChunkCoord{1, 1})
	b.Generate(testContext("12345"))
	if hashChunkBlocks(a) != hashChunkBlocks(b) {
		t.Error("numeric seed and its string form generate different chunks")
	}
}

func TestGenerateLayers(t *testing.T) {
	g := testContext("layers")
	c := NewChunk(ChunkCoord{2, -1})
	c.Generate(g)
	if !c.Generated() || c.Modified() {
		t.Fatalf("flags after generate: generated=%v modified=%v", c.Generated(), c.Modified())
	}
	sea := g.SeaLevel()
	ox, _, oz := c.Coord.Origin()
	for lz := 0; lz < config.ChunkSize; lz++ {
		for lx := 0; lx < config.ChunkSize; lx++ {
			if got := c.Get(lx, config.MinY, lz); got != BlockTypeBedrock {
				t.Fatalf("(%d,%d): bottom is %v, want bedrock", lx, lz, got)
			}
			h := g.SurfaceY(ox+lx, oz+lz)
			for y := h + 1; y <= sea; y++ {
				if got := c.Get(lx, y, lz); got != BlockTypeWater {
					t.Fatalf("(%d,%d,%d): got %v, want water below sea level", lx, y, lz, got)
				}
			}
			if h < sea {
				if got := c.Get(lx, h, lz); got != BlockTypeSand && got != BlockTypeAir {
					t.Errorf("(%d,%d,%d): submerged surface is %v", lx, h, lz, got)
				}
			}
			if y := max(h, sea) + 8; y < config.MaxY {
				if got := c.Get(lx, y, lz); got != BlockTypeAir && got != BlockTypeWood && got != BlockTypeLeaves {
					t.Errorf("(%d,%d,%d): got %v above terrain", lx, y, lz, got)
				}
			}
		}
	}
}

func TestGenerateSeamless(t *testing.T) {
	g := testContext("seam")
	for z := -40; z < 40; z++ {
		a := g.SurfaceY(15, z)
		b := g.SurfaceY(16, z)
		if d := a - b; d > 4 || d < -4 {
			t.Errorf("z=%d: surface jumps %d -> %d across chunk edge", z, a, b)
		}
	}

	// Both sides of the edge are generated from the same global functions.
	left := NewChunk(ChunkCoord{0, 0})
	left.Generate(g)
	right := NewChunk(ChunkCoord{1, 0})
	right.Generate(testContext("seam"))
	for lz := 0; lz < config.ChunkSize; lz++ {
		for _, col := range []struct {
			c  *Chunk
			lx int
			x  int
		}{{left, 15, 15}, {right, 0, 16}} {
			h := g.SurfaceY(col.x, lz)
			if col.c.Get(col.lx, h, lz) == BlockTypeAir && !g.IsCave(col.x, h, lz) {
				t.Errorf("column (%d,%d) missing its surface", col.x, lz)
			}
			switch col.c.Get(col.lx, h+1, lz) {
			case BlockTypeAir, BlockTypeWater, BlockTypeWood, BlockTypeLeaves:
			default:
				t.Errorf("column (%d,%d) has terrain above its surface", col.x, lz)
			}
		}
	}
}

func TestLoadBlocksRoundTrip(t *testing.T) {
	src := NewChunk(ChunkCoord{4, 4})
	src.Generate(testContext("roundtrip"))
	src.Set(1, 20, 1, BlockTypeWood)

	dst := NewChunk(ChunkCoord{4, 4})
	if err := dst.LoadBlocks(src.Blocks()); err != nil {
		t.Fatalf("LoadBlocks: %v", err)
	}
	if hashChunkBlocks(src) != hashChunkBlocks(dst) {
		t.Fatal("restored chunk differs")
	}
	if !dst.Generated() || dst.Modified() {
		t.Errorf("flags after load: generated=%v modified=%v", dst.Generated(), dst.Modified())
	}
}

func TestLoadBlocksMalformed(t *testing.T) {
	c := NewChunk(ChunkCoord{})
	if err := c.LoadBlocks([]byte{1, 2, 3}); !errors.Is(err, ErrMalformedChunk) {
		t.Errorf("short record: got %v", err)
	}
	bad := make([]byte, config.ChunkVolume)
	bad[100] = 200
	if err := c.LoadBlocks(bad); !errors.Is(err, ErrMalformedChunk) {
		t.Errorf("invalid id: got %v", err)
	}
	if c.Generated() {
		t.Error("malformed record left chunk generated")
	}
}

func TestChunkMeshCoversEveryBlock(t *testing.T) {
	c := NewChunk(ChunkCoord{-1, 2})
	c.Generate(testContext("mesh"))
	m := c.BuildMesh()

	cover := make([]int, config.ChunkVolume)
	for _, s := range m.Surfaces {
		for _, b := range s.Boxes {
			mx := b.Max()
			for ly := b.Min[1]; ly < mx[1]; ly++ {
				for lz := b.Min[2]; lz < mx[2]; lz++ {
					for lx := b.Min[0]; lx < mx[0]; lx++ {
						y := ly + config.MinY
						if got := c.Get(lx, y, lz); got != BlockType(b.Type) {
							t.Fatalf("box of %v covers %v at (%d,%d,%d)", BlockType(b.Type), got, lx, y, lz)
						}
						cover[index(lx, y, lz)]++
					}
				}
			}
		}
	}
	for i, n := range cover {
		want := 0
		if c.blocks[i] != BlockTypeAir {
			want = 1
		}
		if n != want {
			t.Fatalf("cell %d covered %d times, want %d", i, n, want)
		}
	}
	if m.Surface(uint8(BlockTypeAir)) != nil {
		t.Error("air has a surface")
	}
}

func TestRegenerateReplacesMesh(t *testing.T) {
	c := NewChunk(ChunkCoord{})
	c.Generate(testContext("regen"))
	old := c.BuildMesh()
	h, ok := c.TopSolid(5, 5)
	if !ok {
		t.Fatal("no solid block in column")
	}
	c.Set(5, h+1, 5, BlockTypeWood)
	if !c.Modified() {
		t.Error("edit did not mark chunk modified")
	}
	m := c.Regenerate()
	if m == old {
		t.Fatal("Regenerate returned the stale mesh")
	}
	found := false
	for _, b := range m.Surface(uint8(BlockTypeWood)).Boxes {
		if b.Contains(5, h+1-config.MinY, 5) {
			found = true
		}
	}
	if !found {
		t.Error("new block missing from rebuilt mesh")
	}
	c.Dispose()
	if c.Mesh() != nil {
		t.Error("Dispose kept the mesh")
	}
	if c.Get(5, h+1, 5) != BlockTypeWood {
		t.Error("Dispose dropped block data")
	}
}

func TestGenerateTrees(t *testing.T) {
	terrain := config.DefaultTerrain()
	terrain.TreeChance = 1
	terrain.CaveThreshold = 0
	terrain.BeachThreshold = 0
	terrain.SeaLevel = config.MinY + 1
	g := NewGenerationContext(noise.ParseSeed("forest"), terrain)
	c := NewChunk(ChunkCoord{})
	c.Generate(g)

	wood := 0
	for _, b := range c.Blocks() {
		if BlockType(b) == BlockTypeWood {
			wood++
		}
	}
	if wood == 0 {
		t.Fatal("no trees planted with tree_chance 1")
	}
}

func TestParseBlockType(t *testing.T) {
	for _, bt := range BlockTypes() {
		got, err := ParseBlockType(bt.String())
		if err != nil || got != bt {
			t.Errorf("ParseBlockType(%q) = %v, %v", bt.String(), got, err)
		}
	}
	if _, err := ParseBlockType("obsidian"); err == nil {
		t.Error("unknown name accepted")
	}
	if BlockTypeUnknown.IsSolid() || BlockTypeUnknown.Valid() || BlockTypeWater.IsPickable() {
		t.Error("unexpected block properties")
	}
}
