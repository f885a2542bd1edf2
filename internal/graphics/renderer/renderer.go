package renderer

import (
	"github.com/uptrixio/platformer/internal/graphics"
	"github.com/uptrixio/platformer/internal/profiling"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// SkyColor is the clear colour; chunk fog fades towards it.
var SkyColor = [3]float32{0.53, 0.81, 0.92}

// Renderer orchestrates rendering via renderable features
type Renderer struct {
	renderables []Renderable
	camera      *graphics.Camera
}

// NewRenderer configures GL state and initialises every renderable. A GL
// context must be current.
func NewRenderer(camera *graphics.Camera, rs ...Renderable) (*Renderer, error) {
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	r := &Renderer{
		renderables: rs,
		camera:      camera,
	}

	for i, rb := range rs {
		if err := rb.Init(); err != nil {
			// dispose what was initialised so far
			for j := i - 1; j >= 0; j-- {
				rs[j].Dispose()
			}
			return nil, err
		}
	}

	return r, nil
}

// Render draws one frame.
func (r *Renderer) Render(dt float64, highlight [3]int, hasHighlight bool) {
	defer profiling.Track("renderer.Render")()

	gl.ClearColor(SkyColor[0], SkyColor[1], SkyColor[2], 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	ctx := RenderContext{
		Camera:       r.camera,
		DT:           dt,
		View:         r.camera.ViewMatrix(),
		Proj:         r.camera.ProjectionMatrix(),
		Highlight:    highlight,
		HasHighlight: hasHighlight,
	}

	for _, renderable := range r.renderables {
		renderable.Render(ctx)
	}
}

// Dispose cleans up all renderables in reverse order
func (r *Renderer) Dispose() {
	for i := len(r.renderables) - 1; i >= 0; i-- {
		r.renderables[i].Dispose()
	}
}

// Camera returns the camera instance
func (r *Renderer) Camera() *graphics.Camera {
	return r.camera
}

// UpdateViewport resizes the GL viewport and tells every renderable.
func (r *Renderer) UpdateViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	r.camera.SetViewport(width, height)
	for _, rb := range r.renderables {
		rb.SetViewport(width, height)
	}
}
