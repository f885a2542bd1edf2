// Package noise provides the seeded coherent noise fields used by terrain
// generation. Every field is a pure function of its seed and coordinates.
package noise

import (
	"strconv"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/cespare/xxhash/v2"
	"github.com/ojrac/opensimplex-go"
)

// Seed identifies a world. Numeric and textual seeds are both accepted;
// a numeric seed and its decimal string are the same seed.
type Seed struct {
	text string
}

// ParseSeed builds a seed from user input.
func ParseSeed(s string) Seed {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return SeedFromInt(n)
	}
	return Seed{text: s}
}

// SeedFromInt builds a seed from a number.
func SeedFromInt(n int64) Seed {
	return Seed{text: strconv.FormatInt(n, 10)}
}

func (s Seed) String() string { return s.text }

// Salt derives the seed of one purpose-specific field ("height", "biome",
// "cave", "detail"). Different purposes give uncorrelated fields.
func (s Seed) Salt(purpose string) int64 {
	return int64(xxhash.Sum64String(s.text + "_" + purpose))
}

// Field2D is 2D simplex noise with output in [-1,1].
type Field2D struct {
	n opensimplex.Noise
}

// NewField2D seeds a 2D field.
func NewField2D(seed int64) *Field2D {
	return &Field2D{n: opensimplex.New(seed)}
}

// At samples the field.
func (f *Field2D) At(x, z float64) float64 {
	return f.n.Eval2(x, z)
}

// Field3D is 3D Perlin noise. Raw output is roughly [-1,1]; use At01 for a
// clamped [0,1] density.
type Field3D struct {
	p *perlin.Perlin
}

const (
	perlinAlpha  = 2
	perlinBeta   = 2
	perlinOctave = 3
)

// NewField3D seeds a 3D field.
func NewField3D(seed int64) *Field3D {
	return &Field3D{p: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctave, seed)}
}

// At samples the raw field.
func (f *Field3D) At(x, y, z float64) float64 {
	return f.p.Noise3D(x, y, z)
}

// At01 samples the field mapped to [0,1].
func (f *Field3D) At01(x, y, z float64) float64 {
	v := (f.At(x, y, z) + 1) / 2
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Octave2D sums octaves of a 2D field and normalises by the total
// amplitude, so the result stays in [-1,1].
func Octave2D(f *Field2D, x, z float64, octaves int, frequency, persistence, lacunarity float64) float64 {
	amplitude := 1.0
	sum := 0.0
	norm := 0.0
	for i := 0; i < octaves; i++ {
		sum += f.At(x*frequency, z*frequency) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// Hash2 is a SplitMix64 style lattice hash, stable across runs.
func Hash2(seed int64, x, z int) uint64 {
	v := uint64(int64(x))*0x9E3779B97F4A7C15 + uint64(int64(z))*0x517CC1B727220A95 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

// Unit maps a hash to [0,1).
func Unit(h uint64) float64 {
	return float64(h>>11) / float64(1<<53)
}
