// Package chunks uploads chunk meshes to the GPU and draws them. Chunks is a
// world.MeshConsumer: the world hands it a mesh on attach and it keeps one
// vertex buffer per surface until detach.
package chunks

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/graphics"
	renderer "github.com/uptrixio/platformer/internal/graphics/renderer"
	"github.com/uptrixio/platformer/internal/meshing"
	"github.com/uptrixio/platformer/internal/profiling"
	"github.com/uptrixio/platformer/internal/world"
)

// surfaceBuffer is one uploaded surface.
type surfaceBuffer struct {
	block       world.BlockType
	vao, vbo    uint32
	vertexCount int32
}

type chunkMesh struct {
	min, max mgl32.Vec3
	opaque   []surfaceBuffer
	blended  []surfaceBuffer
}

// Chunks renders every attached chunk mesh, culled against the view
// frustum. Attach and Detach must run on the GL thread.
type Chunks struct {
	shader  *graphics.Shader
	meshes  map[world.ChunkCoord]*chunkMesh
	fogEnd  float32
	visible []*chunkMesh
}

var _ world.MeshConsumer = (*Chunks)(nil)

func New(renderDistance int) *Chunks {
	c := &Chunks{meshes: make(map[world.ChunkCoord]*chunkMesh)}
	c.SetRenderDistance(renderDistance)
	return c
}

// SetRenderDistance moves the fog so that it hides the load edge.
func (c *Chunks) SetRenderDistance(r int) {
	c.fogEnd = float32(r * config.ChunkSize)
}

// Count returns the number of attached chunks.
func (c *Chunks) Count() int { return len(c.meshes) }

func (c *Chunks) Init() error {
	var err error
	c.shader, err = graphics.NewShader("chunk")
	return err
}

// Attach uploads m for coord, replacing any previous mesh.
func (c *Chunks) Attach(coord world.ChunkCoord, m *meshing.Mesh) {
	defer profiling.Track("renderer.chunks.Attach")()
	c.Detach(coord)

	x, y, z := coord.Origin()
	origin := mgl32.Vec3{float32(x), float32(y), float32(z)}
	cm := &chunkMesh{
		min: origin,
		max: origin.Add(mgl32.Vec3{config.ChunkSize, config.ChunkHeight, config.ChunkSize}),
	}
	if m != nil {
		for i := range m.Surfaces {
			s := &m.Surfaces[i]
			buf, ok := upload(world.BlockType(s.Type), s.Vertices(origin))
			if !ok {
				continue
			}
			if buf.block.Props().Transparent {
				cm.blended = append(cm.blended, buf)
			} else {
				cm.opaque = append(cm.opaque, buf)
			}
		}
	}
	c.meshes[coord] = cm
}

// Detach frees the buffers of coord.
func (c *Chunks) Detach(coord world.ChunkCoord) {
	cm, ok := c.meshes[coord]
	if !ok {
		return
	}
	for _, b := range cm.opaque {
		release(b)
	}
	for _, b := range cm.blended {
		release(b)
	}
	delete(c.meshes, coord)
}

func upload(block world.BlockType, vertices []float32) (surfaceBuffer, bool) {
	if len(vertices) == 0 {
		return surfaceBuffer{}, false
	}
	buf := surfaceBuffer{
		block:       block,
		vertexCount: int32(len(vertices) / meshing.VertexStride),
	}
	stride := int32(meshing.VertexStride * 4)

	gl.GenVertexArrays(1, &buf.vao)
	gl.BindVertexArray(buf.vao)
	gl.GenBuffers(1, &buf.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.BindVertexArray(0)
	return buf, true
}

func release(b surfaceBuffer) {
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteBuffers(1, &b.vbo)
}

func (c *Chunks) Render(ctx renderer.RenderContext) {
	defer profiling.Track("renderer.renderChunks")()

	c.shader.Use()
	c.shader.SetMatrix4("proj", &ctx.Proj[0])
	c.shader.SetMatrix4("view", &ctx.View[0])
	light := mgl32.Vec3{0.3, 1.0, 0.3}.Normalize()
	c.shader.SetVector3("lightDir", light[0], light[1], light[2])
	sky := renderer.SkyColor
	c.shader.SetVector3("fogColor", sky[0], sky[1], sky[2])
	c.shader.SetFloat("fogStart", c.fogEnd*0.6)
	c.shader.SetFloat("fogEnd", c.fogEnd)

	frustum := graphics.NewFrustum(ctx.Proj.Mul4(ctx.View))
	c.visible = c.visible[:0]
	for _, cm := range c.meshes {
		if frustum.IntersectsAABB(cm.min, cm.max) {
			c.visible = append(c.visible, cm)
		}
	}

	for _, cm := range c.visible {
		for _, b := range cm.opaque {
			c.draw(b)
		}
	}

	// Transparent surfaces last, without depth writes or culling so water
	// is visible from below.
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)
	gl.Disable(gl.CULL_FACE)
	for _, cm := range c.visible {
		for _, b := range cm.blended {
			c.draw(b)
		}
	}
	gl.Enable(gl.CULL_FACE)
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
}

func (c *Chunks) draw(b surfaceBuffer) {
	col := b.block.Props().Color
	c.shader.SetVector4("color",
		float32(col.R)/255, float32(col.G)/255, float32(col.B)/255, float32(col.A)/255)
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, b.vertexCount)
}

func (c *Chunks) Dispose() {
	for coord := range c.meshes {
		c.Detach(coord)
	}
	c.shader.Delete()
}

func (c *Chunks) SetViewport(width, height int) {}
