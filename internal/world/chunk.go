package world

import (
	"errors"
	"fmt"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/meshing"
	"github.com/uptrixio/platformer/internal/profiling"
)

// ErrMalformedChunk is returned by LoadBlocks for a record that cannot be
// restored.
var ErrMalformedChunk = errors.New("malformed chunk record")

const layerSize = config.ChunkSize * config.ChunkSize

// Chunk is a 16-wide column covering the whole vertical range of the world.
// Local x/z are in [0,ChunkSize); y is the global block y.
type Chunk struct {
	Coord ChunkCoord

	blocks    [config.ChunkVolume]BlockType
	generated bool
	modified  bool
	mesh      *meshing.Mesh
}

// NewChunk creates an empty, ungenerated chunk.
func NewChunk(coord ChunkCoord) *Chunk {
	return &Chunk{Coord: coord}
}

func index(lx, y, lz int) int {
	return lx + lz*config.ChunkSize + (y-config.MinY)*layerSize
}

func inBounds(lx, y, lz int) bool {
	return lx >= 0 && lx < config.ChunkSize &&
		lz >= 0 && lz < config.ChunkSize &&
		y >= config.MinY && y < config.MaxY
}

// Get returns the block at local (lx, lz) and global y. Out of range reads
// return air.
func (c *Chunk) Get(lx, y, lz int) BlockType {
	if !inBounds(lx, y, lz) {
		return BlockTypeAir
	}
	return c.blocks[index(lx, y, lz)]
}

// Set writes a block. Out of range writes and non-storable types are
// ignored. Writing into a generated chunk marks it modified.
func (c *Chunk) Set(lx, y, lz int, t BlockType) {
	if !inBounds(lx, y, lz) || !t.Valid() {
		return
	}
	c.blocks[index(lx, y, lz)] = t
	if c.generated {
		c.modified = true
	}
}

func (c *Chunk) Generated() bool { return c.generated }
func (c *Chunk) Modified() bool { return c.modified }

// MarkSaved clears the modified flag after a successful persist.
func (c *Chunk) MarkSaved() { c.modified = false }

// Generate fills the chunk procedurally.
func (c *Chunk) Generate(g *GenerationContext) {
	defer profiling.Track("world.Chunk.Generate")()

	t := g.terrain
	ox, _, oz := c.Coord.Origin()

	var surface [config.ChunkSize][config.ChunkSize]int

	for lz := 0; lz < config.ChunkSize; lz++ {
		for lx := 0; lx < config.ChunkSize; lx++ {
			x, z := ox+lx, oz+lz
			h := g.SurfaceY(x, z)
			surface[lx][lz] = h
			beach := g.BiomeAt(x, z) == BiomeBeach

			for y := config.MinY; y < config.MaxY; y++ {
				var b BlockType
				switch {
				case y < config.MinY+t.BedrockLayers:
					b = BlockTypeBedrock
				case y > h:
					if y <= t.SeaLevel {
						b = BlockTypeWater
					} else {
						continue
					}
				case y == h:
					if beach || h < t.SeaLevel {
						b = BlockTypeSand
					} else {
						b = BlockTypeGrass
					}
				case y >= h-t.SoilDepth:
					if beach {
						b = BlockTypeSand
					} else {
						b = BlockTypeDirt
					}
				default:
					b = BlockTypeStone
				}

				if b != BlockTypeBedrock && b != BlockTypeWater && g.IsCave(x, y, z) {
					continue
				}
				c.blocks[index(lx, y, lz)] = b
			}
		}
	}

	for lz := 0; lz < config.ChunkSize; lz++ {
		for lx := 0; lx < config.ChunkSize; lx++ {
			h := surface[lx][lz]
			if c.blocks[index(lx, h, lz)] != BlockTypeGrass {
				continue
			}
			ok, height := g.TreeRoll(ox+lx, oz+lz)
			if !ok {
				continue
			}
			c.plantTree(lx, h+1, lz, height)
		}
	}

	c.generated = true
	c.modified = false
}

// plantTree grows a trunk from base and a leaf canopy around its top. Only
// air cells inside this chunk are written.
func (c *Chunk) plantTree(lx, base, lz, height int) {
	if base+height+2 >= config.MaxY {
		return
	}
	for y := base; y < base+height; y++ {
		if c.blocks[index(lx, y, lz)] != BlockTypeAir {
			return
		}
	}
	for y := base; y < base+height; y++ {
		c.blocks[index(lx, y, lz)] = BlockTypeWood
	}

	top := base + height - 1
	const r = 2
	for dy := -r; dy <= r; dy++ {
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				if dx*dx+dy*dy+dz*dz > r*r+1 {
					continue
				}
				x, y, z := lx+dx, top+1+dy, lz+dz
				if !inBounds(x, y, z) {
					continue
				}
				i := index(x, y, z)
				if c.blocks[i] == BlockTypeAir {
					c.blocks[i] = BlockTypeLeaves
				}
			}
		}
	}
}

// LoadBlocks restores a record produced by Blocks. The chunk is left
// untouched when the record is malformed.
func (c *Chunk) LoadBlocks(data []byte) error {
	if len(data) != config.ChunkVolume {
		return fmt.Errorf("%w: %d bytes, want %d", ErrMalformedChunk, len(data), config.ChunkVolume)
	}
	for i, b := range data {
		if !BlockType(b).Valid() {
			return fmt.Errorf("%w: invalid block id %d at %d", ErrMalformedChunk, b, i)
		}
	}
	for i, b := range data {
		c.blocks[i] = BlockType(b)
	}
	c.generated = true
	c.modified = false
	return nil
}

// Blocks serialises the chunk, one byte per cell in storage order.
func (c *Chunk) Blocks() []byte {
	out := make([]byte, config.ChunkVolume)
	for i, b := range c.blocks {
		out[i] = byte(b)
	}
	return out
}

// TopSolid returns the highest solid y of a local column.
func (c *Chunk) TopSolid(lx, lz int) (int, bool) {
	if lx < 0 || lx >= config.ChunkSize || lz < 0 || lz >= config.ChunkSize {
		return 0, false
	}
	for y := config.MaxY - 1; y >= config.MinY; y-- {
		if c.blocks[index(lx, y, lz)].IsSolid() {
			return y, true
		}
	}
	return 0, false
}

// BuildMesh merges the chunk's blocks into boxes. Box coordinates are
// chunk-local with y relative to MinY; translate by Coord.Origin().
func (c *Chunk) BuildMesh() *meshing.Mesh {
	defer profiling.Track("world.Chunk.BuildMesh")()
	c.mesh = meshing.Greedy(c.blocks[:], config.ChunkSize, config.ChunkHeight, config.ChunkSize)
	return c.mesh
}

// Regenerate drops the current mesh and builds a fresh one.
func (c *Chunk) Regenerate() *meshing.Mesh {
	c.Dispose()
	return c.BuildMesh()
}

// Dispose releases the mesh. Block data is kept.
func (c *Chunk) Dispose() { c.mesh = nil }

// Mesh returns the current mesh, or nil.
func (c *Chunk) Mesh() *meshing.Mesh { return c.mesh }
