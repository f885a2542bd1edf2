package wireframe

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/uptrixio/platformer/internal/graphics"
	renderer "github.com/uptrixio/platformer/internal/graphics/renderer"
	"github.com/uptrixio/platformer/internal/profiling"
)

// Wireframe outlines the block the viewer is pointing at.
type Wireframe struct {
	shader *graphics.Shader
	vao    uint32
	vbo    uint32
}

func New() *Wireframe {
	return &Wireframe{}
}

func (w *Wireframe) Init() error {
	var err error
	w.shader, err = graphics.NewShader("wireframe")
	if err != nil {
		return err
	}

	// Unit cube edges centred on the origin.
	vertices := []float32{
		-0.5, -0.5, 0.5, 0.5, -0.5, 0.5,
		0.5, -0.5, 0.5, 0.5, 0.5, 0.5,
		0.5, 0.5, 0.5, -0.5, 0.5, 0.5,
		-0.5, 0.5, 0.5, -0.5, -0.5, 0.5,

		-0.5, -0.5, -0.5, 0.5, -0.5, -0.5,
		0.5, -0.5, -0.5, 0.5, 0.5, -0.5,
		0.5, 0.5, -0.5, -0.5, 0.5, -0.5,
		-0.5, 0.5, -0.5, -0.5, -0.5, -0.5,

		-0.5, -0.5, 0.5, -0.5, -0.5, -0.5,
		0.5, -0.5, 0.5, 0.5, -0.5, -0.5,
		0.5, 0.5, 0.5, 0.5, 0.5, -0.5,
		-0.5, 0.5, 0.5, -0.5, 0.5, -0.5,
	}

	gl.GenVertexArrays(1, &w.vao)
	gl.BindVertexArray(w.vao)
	gl.GenBuffers(1, &w.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, w.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	return nil
}

func (w *Wireframe) Render(ctx renderer.RenderContext) {
	if !ctx.HasHighlight {
		return
	}
	defer profiling.Track("renderer.renderHighlightedBlock")()

	w.shader.Use()
	w.shader.SetMatrix4("proj", &ctx.Proj[0])
	w.shader.SetMatrix4("view", &ctx.View[0])

	// Cells span [c, c+1), the cube is centred on the origin.
	cell := ctx.Highlight
	model := mgl32.Translate3D(
		float32(cell[0])+0.5,
		float32(cell[1])+0.5,
		float32(cell[2])+0.5,
	).Mul4(mgl32.Scale3D(1.01, 1.01, 1.01))
	w.shader.SetMatrix4("model", &model[0])
	w.shader.SetVector3("color", 0, 0, 0)

	gl.BindVertexArray(w.vao)
	gl.DrawArrays(gl.LINES, 0, 24)
}

func (w *Wireframe) Dispose() {
	if w.vao != 0 {
		gl.DeleteVertexArrays(1, &w.vao)
	}
	if w.vbo != 0 {
		gl.DeleteBuffers(1, &w.vbo)
	}
	w.shader.Delete()
}

func (w *Wireframe) SetViewport(width, height int) {}
