package crosshair

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/uptrixio/platformer/internal/graphics"
	renderer "github.com/uptrixio/platformer/internal/graphics/renderer"
)

var vertices = []float32{
	-0.02, 0.0,
	0.02, 0.0,
	0.0, -0.02,
	0.0, 0.02,
}

// Crosshair draws a fixed cross at the screen centre.
type Crosshair struct {
	shader *graphics.Shader
	vao    uint32
	vbo    uint32
}

func New() *Crosshair {
	return &Crosshair{}
}

func (c *Crosshair) Init() error {
	var err error
	c.shader, err = graphics.NewShader("crosshair")
	if err != nil {
		return err
	}

	gl.GenVertexArrays(1, &c.vao)
	gl.BindVertexArray(c.vao)
	gl.GenBuffers(1, &c.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)
	return nil
}

func (c *Crosshair) Render(ctx renderer.RenderContext) {
	gl.Disable(gl.DEPTH_TEST)
	defer gl.Enable(gl.DEPTH_TEST)

	c.shader.Use()
	c.shader.SetFloat("aspectRatio", ctx.Camera.AspectRatio)
	gl.BindVertexArray(c.vao)
	gl.DrawArrays(gl.LINES, 0, 4)
}

func (c *Crosshair) Dispose() {
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
	}
	if c.vbo != 0 {
		gl.DeleteBuffers(1, &c.vbo)
	}
	c.shader.Delete()
}

func (c *Crosshair) SetViewport(width, height int) {}
