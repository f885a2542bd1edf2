package world

import (
	"math"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/noise"
)

// Biome classifies a column for surface block selection.
type Biome uint8

const (
	BiomePlains Biome = iota
	BiomeBeach
)

func (b Biome) String() string {
	if b == BiomeBeach {
		return "beach"
	}
	return "plains"
}

// GenerationContext holds the noise fields of one world seed. All terrain
// functions are pure in (seed, coordinates), so neighbouring chunks agree on
// their shared edges.
type GenerationContext struct {
	seed    noise.Seed
	terrain config.Terrain

	height *noise.Field2D
	biome  *noise.Field2D
	cave   *noise.Field3D
	detail int64
}

// NewGenerationContext seeds every field from seed.
func NewGenerationContext(seed noise.Seed, terrain config.Terrain) *GenerationContext {
	return &GenerationContext{
		seed:    seed,
		terrain: terrain,
		height:  noise.NewField2D(seed.Salt("height")),
		biome:   noise.NewField2D(seed.Salt("biome")),
		cave:    noise.NewField3D(seed.Salt("cave")),
		detail:  seed.Salt("detail"),
	}
}

func (g *GenerationContext) Seed() noise.Seed { return g.seed }
func (g *GenerationContext) Terrain() config.Terrain { return g.terrain }
func (g *GenerationContext) SeaLevel() int { return g.terrain.SeaLevel }

// HeightAt returns the continuous terrain height of column (x, z).
func (g *GenerationContext) HeightAt(x, z int) float64 {
	t := g.terrain
	h := noise.Octave2D(g.height, float64(x), float64(z), t.HeightOctaves, t.HeightFrequency, 0.5, 2)
	if t.HeightShape == 2 {
		h = math.Copysign(h*h, h)
	}
	return h*t.HeightMultiplier + t.BaseHeight
}

// SurfaceY is the integer y of the topmost terrain cell of a column, kept
// inside the vertical range.
func (g *GenerationContext) SurfaceY(x, z int) int {
	y := int(math.Floor(g.HeightAt(x, z)))
	lo := config.MinY + g.terrain.BedrockLayers
	hi := config.MaxY - 1
	if y < lo {
		return lo
	}
	if y > hi {
		return hi
	}
	return y
}

// BiomeAt classifies column (x, z).
func (g *GenerationContext) BiomeAt(x, z int) Biome {
	f := g.terrain.BiomeFrequency
	v := (g.biome.At(float64(x)*f, float64(z)*f) + 1) / 2
	if v > g.terrain.BeachThreshold {
		return BiomePlains
	}
	return BiomeBeach
}

// CaveDensityAt returns the cave density in [0,1]; cells below the cave
// threshold are carved.
func (g *GenerationContext) CaveDensityAt(x, y, z int) float64 {
	f := g.terrain.CaveFrequency
	return g.cave.At01(float64(x)*f, float64(y)*f, float64(z)*f)
}

// IsCave reports whether cell (x, y, z) is carved out.
func (g *GenerationContext) IsCave(x, y, z int) bool {
	return g.CaveDensityAt(x, y, z) < g.terrain.CaveThreshold
}

// TreeRoll decides whether column (x, z) grows a tree and its trunk height.
func (g *GenerationContext) TreeRoll(x, z int) (bool, int) {
	h := noise.Hash2(g.detail, x, z)
	if noise.Unit(h) >= g.terrain.TreeChance {
		return false, 0
	}
	return true, 4 + int(h&0xff)%3
}
