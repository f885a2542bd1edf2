// Package preview renders top-down map thumbnails of a world straight from
// its generator, without loading the world.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"runtime"

	"github.com/alitto/pond/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/profiling"
	"github.com/uptrixio/platformer/internal/world"
)

// Options selects the area and output of a preview.
type Options struct {
	Center world.ChunkCoord
	Radius int // in chunks; the map covers (2*Radius+1)^2 chunks
	Size   int // output edge in pixels; 0 keeps one pixel per block
	Label  string

	Workers int
}

// Render generates every chunk of the area in parallel and paints the top
// visible block of each column.
func Render(ctx context.Context, gen *world.GenerationContext, opts Options) (*image.RGBA, error) {
	defer profiling.Track("preview.Render")()
	if opts.Radius < 0 {
		return nil, fmt.Errorf("negative radius %d", opts.Radius)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	side := 2*opts.Radius + 1
	edge := side * config.ChunkSize
	native := image.NewRGBA(image.Rect(0, 0, edge, edge))

	pool := pond.NewPool(workers, pond.WithContext(ctx))
	defer pool.StopAndWait()
	group := pool.NewGroup()

	for dz := -opts.Radius; dz <= opts.Radius; dz++ {
		for dx := -opts.Radius; dx <= opts.Radius; dx++ {
			coord := world.ChunkCoord{X: opts.Center.X + dx, Z: opts.Center.Z + dz}
			px := (dx + opts.Radius) * config.ChunkSize
			pz := (dz + opts.Radius) * config.ChunkSize
			// Each task owns its chunk and a disjoint tile of the image.
			group.Submit(func() {
				c := world.NewChunk(coord)
				c.Generate(gen)
				paintChunk(native, c, px, pz, gen.SeaLevel())
			})
		}
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := native
	if opts.Size > 0 && opts.Size != edge {
		out = image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size))
		draw.NearestNeighbor.Scale(out, out.Bounds(), native, native.Bounds(), draw.Src, nil)
	}
	if opts.Label != "" {
		drawLabel(out, opts.Label)
	}
	return out, nil
}

func paintChunk(img *image.RGBA, c *world.Chunk, px, pz, sea int) {
	for lz := 0; lz < config.ChunkSize; lz++ {
		for lx := 0; lx < config.ChunkSize; lx++ {
			img.SetRGBA(px+lx, pz+lz, columnColor(c, lx, lz, sea))
		}
	}
}

// columnColor shades the top block of a column by height; water is blended
// over the ground below it.
func columnColor(c *world.Chunk, lx, lz, sea int) color.RGBA {
	var water bool
	for y := config.MaxY - 1; y >= config.MinY; y-- {
		t := c.Get(lx, y, lz)
		if t == world.BlockTypeAir {
			continue
		}
		if t == world.BlockTypeWater {
			water = true
			continue
		}
		col := shade(t.Props().Color, float64(y-sea)/float64(config.ChunkHeight))
		if water {
			col = blend(col, world.BlockTypeWater.Props().Color)
		}
		return col
	}
	return color.RGBA{A: 0xff}
}

func shade(c color.RGBA, k float64) color.RGBA {
	f := 1 + k
	if f < 0.4 {
		f = 0.4
	}
	scale := func(v uint8) uint8 {
		x := float64(v) * f
		if x > 255 {
			return 255
		}
		return uint8(x)
	}
	return color.RGBA{scale(c.R), scale(c.G), scale(c.B), 0xff}
}

func blend(under, over color.RGBA) color.RGBA {
	a := float64(over.A) / 255
	mix := func(u, o uint8) uint8 { return uint8(float64(o)*a + float64(u)*(1-a)) }
	return color.RGBA{mix(under.R, over.R), mix(under.G, over.G), mix(under.B, over.B), 0xff}
}

func drawLabel(img *image.RGBA, label string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0xff, 0xff, 0xff, 0xff}),
		Face: face,
	}
	w := d.MeasureString(label)
	bar := image.Rect(0, 0, w.Ceil()+8, face.Height+6)
	draw.Draw(img, bar.Intersect(img.Bounds()), image.NewUniform(color.RGBA{0, 0, 0, 0xa0}), image.Point{}, draw.Over)
	d.Dot = fixed.Point26_6{X: fixed.I(4), Y: fixed.I(face.Ascent + 3)}
	d.DrawString(label)
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
