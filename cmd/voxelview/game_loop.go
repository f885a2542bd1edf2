package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/uptrixio/platformer/internal/graphics"
	"github.com/uptrixio/platformer/internal/graphics/renderables/chunks"
	renderer "github.com/uptrixio/platformer/internal/graphics/renderer"
	"github.com/uptrixio/platformer/internal/input"
	"github.com/uptrixio/platformer/internal/physics"
	"github.com/uptrixio/platformer/internal/profiling"
	"github.com/uptrixio/platformer/internal/world"
)

const (
	eyeHeight        = 1.62
	walkSpeed        = 4.3
	sprintSpeed      = 5.6
	flySpeed         = 11.0
	mouseSensitivity = 0.1
	maxFrameDelta    = 0.1
)

// Blocks selectable with the number keys, in slot order.
var palette = [...]world.BlockType{
	world.BlockTypeGrass,
	world.BlockTypeDirt,
	world.BlockTypeStone,
	world.BlockTypeSand,
	world.BlockTypeWood,
	world.BlockTypeLeaves,
	world.BlockTypeWater,
	world.BlockTypeBedrock,
}

// GameLoop manages the main loop state
type GameLoop struct {
	window       *glfw.Window
	renderer     *renderer.Renderer
	camera       *graphics.Camera
	world        *world.World
	chunks       *chunks.Chunks
	inputManager *input.InputManager
	log          *slog.Logger

	body      physics.Body
	canFly    bool
	flying    bool
	captured  bool
	wireframe bool
	selected  world.BlockType

	hover    world.Hit
	hasHover bool

	fpsLimiter *FPSLimiter

	// Timing
	frames           int
	lastFPSCheckTime time.Time
	lastTime         time.Time
}

func NewGameLoop(window *glfw.Window, r *renderer.Renderer, w *world.World, im *input.InputManager, log *slog.Logger) *GameLoop {
	return &GameLoop{
		window:           window,
		renderer:         r,
		camera:           r.Camera(),
		world:            w,
		inputManager:     im,
		log:              log,
		captured:         true,
		selected:         palette[0],
		fpsLimiter:       NewFPSLimiter(0),
		lastFPSCheckTime: time.Now(),
		lastTime:         time.Now(),
	}
}

func (g *GameLoop) installCallbacks() {
	g.inputManager.Attach(g.window)
	g.window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if g.captured {
			g.camera.HandleMouseMovement(xpos, ypos, mouseSensitivity)
		}
	})
	g.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		g.renderer.UpdateViewport(width, height)
	})
}

// Run drives frames until the window is closed.
func (g *GameLoop) Run() {
	for !g.window.ShouldClose() {
		g.tick()
	}
}

func (g *GameLoop) tick() {
	profiling.ResetFrame()
	now := time.Now()
	dt := now.Sub(g.lastTime).Seconds()
	g.lastTime = now
	if dt > maxFrameDelta {
		dt = maxFrameDelta
	}

	func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()

	g.handleInputActions()
	func() { defer profiling.Track("player.Move")(); g.move(float32(dt)) }()
	g.world.Update(g.body.Position)

	eye := g.eye()
	g.camera.Position = eye
	g.hover, g.hasHover = g.world.Pick(eye, g.camera.Front(), g.world.ReachDistance())
	if g.captured {
		g.interact(eye)
	}

	if g.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
	g.renderer.Render(dt, g.hover.Cell(), g.hasHover)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)

	func() { defer profiling.Track("glfw.SwapBuffers")(); g.window.SwapBuffers() }()
	g.inputManager.PostUpdate()
	g.frameStats()
	g.fpsLimiter.Wait(!g.captured)
}

func (g *GameLoop) eye() mgl32.Vec3 {
	return g.body.Position.Add(mgl32.Vec3{0, eyeHeight, 0})
}

func (g *GameLoop) handleInputActions() {
	im := g.inputManager

	for i, a := range input.BlockSlots {
		if im.JustPressed(a) {
			g.selected = palette[i]
		}
	}

	if im.JustPressed(input.ActionToggleFly) && g.canFly {
		g.flying = !g.flying
		g.body.Velocity = mgl32.Vec3{}
	}
	if im.JustPressed(input.ActionRenderFarther) {
		g.setRenderDistance(g.world.RenderDistance() + 1)
	}
	if im.JustPressed(input.ActionRenderNearer) {
		g.setRenderDistance(g.world.RenderDistance() - 1)
	}
	if im.JustPressed(input.ActionToggleWireframe) {
		g.wireframe = !g.wireframe
	}

	if im.JustPressed(input.ActionReleaseCursor) && g.captured {
		g.captured = false
		g.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	} else if !g.captured && (im.JustPressed(input.ActionMouseLeft) || im.JustPressed(input.ActionMouseRight)) {
		// The click that recaptures the cursor is not an interaction.
		g.captured = true
		g.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		g.camera.ResetMouse()
	}
}

// setRenderDistance changes the load radius and keeps the fog at its edge.
func (g *GameLoop) setRenderDistance(r int) {
	g.world.SetRenderDistance(r)
	if g.chunks != nil {
		g.chunks.SetRenderDistance(g.world.RenderDistance())
	}
	g.log.Info("render distance", "chunks", g.world.RenderDistance())
}

func (g *GameLoop) move(dt float32) {
	forward, right := float32(0), float32(0)
	if g.captured {
		forward, right = g.inputManager.MoveAxes()
	}
	dir := g.camera.Forward().Mul(forward).Add(g.camera.Right().Mul(right))
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}

	if g.flying {
		vertical := float32(0)
		if g.inputManager.IsActive(input.ActionJump) {
			vertical++
		}
		if g.inputManager.IsActive(input.ActionDescend) {
			vertical--
		}
		step := dir.Add(mgl32.Vec3{0, vertical, 0}).Mul(flySpeed * dt)
		g.body.Position = g.body.Position.Add(step)
		return
	}

	// Terrain around the viewer may not exist yet; hold still until the
	// initial area is loaded.
	if !g.world.Ready() {
		return
	}
	speed := float32(walkSpeed)
	if g.inputManager.IsActive(input.ActionSprint) {
		speed = sprintSpeed
	}
	g.body.Velocity[0] = dir[0] * speed
	g.body.Velocity[2] = dir[2] * speed
	if g.captured && g.inputManager.IsActive(input.ActionJump) {
		g.body.Jump()
	}
	g.body.Step(dt, g.world)
}

func (g *GameLoop) interact(eye mgl32.Vec3) {
	action := world.ActionNone
	switch {
	case g.inputManager.JustPressed(input.ActionMouseLeft):
		action = world.ActionPrimary
	case g.inputManager.JustPressed(input.ActionMouseRight):
		action = world.ActionSecondary
	default:
		return
	}

	res := g.world.Interact(world.Event{
		Action: action,
		Camera: world.CameraTransform(eye, g.camera.Front()),
		Block:  g.selected,
	})
	if !res.Changed {
		return
	}
	// A placed block must not trap the viewer.
	if action == world.ActionSecondary && !g.flying && physics.Collides(g.body.Box(), g.world) {
		g.world.SetBlock(res.Cell[0], res.Cell[1], res.Cell[2], world.BlockTypeAir)
		return
	}
	g.log.Debug("block changed", "pos", res.Cell, "block", res.Block)
}

func (g *GameLoop) frameStats() {
	g.frames++
	if time.Since(g.lastFPSCheckTime) < time.Second {
		return
	}
	status := fmt.Sprintf("%d fps | %d chunks | %s", g.frames, g.world.Loaded(), g.selected)
	if !g.world.Ready() {
		status = fmt.Sprintf("loading %.0f%% | %s", g.world.Progress()*100, status)
	}
	if g.flying {
		status += " | fly"
	}
	g.window.SetTitle("voxelview - " + g.world.Name() + " | " + status)
	g.log.Debug("frame", "fps", g.frames, "queued", g.world.Queued(), "top", profiling.LogValue(5))
	g.frames = 0
	g.lastFPSCheckTime = time.Now()
}
