package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultFOV = 70.0
	MaxPitch   = 89.0
)

// Camera is a first-person camera. Yaw and Pitch are in degrees; yaw 0 looks
// down -Z, positive pitch looks up.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32

	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32

	lastX, lastY float64
	firstMouse   bool
}

func NewCamera(width, height int) *Camera {
	c := &Camera{
		FOV:        DefaultFOV,
		NearPlane:  0.1,
		FarPlane:   1000.0,
		firstMouse: true,
	}
	c.SetViewport(width, height)
	return c
}

// SetViewport updates the aspect ratio. Zero sizes (minimised windows) are
// ignored.
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.AspectRatio = float32(width) / float32(height)
}

// Front is the unit view direction.
func (c *Camera) Front() mgl32.Vec3 {
	y := float64(mgl32.DegToRad(c.Yaw))
	p := float64(mgl32.DegToRad(c.Pitch))
	return mgl32.Vec3{
		float32(math.Sin(y) * math.Cos(p)),
		float32(math.Sin(p)),
		float32(-math.Cos(y) * math.Cos(p)),
	}.Normalize()
}

// Right is the horizontal unit vector to the right of the view direction.
func (c *Camera) Right() mgl32.Vec3 {
	y := float64(mgl32.DegToRad(c.Yaw))
	return mgl32.Vec3{float32(math.Cos(y)), 0, float32(math.Sin(y))}
}

// Forward is Front flattened onto the ground plane.
func (c *Camera) Forward() mgl32.Vec3 {
	y := float64(mgl32.DegToRad(c.Yaw))
	return mgl32.Vec3{float32(math.Sin(y)), 0, float32(-math.Cos(y))}
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

// Rotate turns the camera by yaw/pitch deltas in degrees.
func (c *Camera) Rotate(dyaw, dpitch float32) {
	c.Yaw = float32(math.Mod(float64(c.Yaw+dyaw), 360))
	c.Pitch += dpitch
	if c.Pitch > MaxPitch {
		c.Pitch = MaxPitch
	}
	if c.Pitch < -MaxPitch {
		c.Pitch = -MaxPitch
	}
}

// HandleMouseMovement turns the camera by the cursor delta since the last
// call. The first call only records the position.
func (c *Camera) HandleMouseMovement(xpos, ypos float64, sensitivity float32) {
	if c.firstMouse {
		c.lastX, c.lastY = xpos, ypos
		c.firstMouse = false
		return
	}
	dx := float32(xpos - c.lastX)
	dy := float32(c.lastY - ypos)
	c.lastX, c.lastY = xpos, ypos
	c.Rotate(dx*sensitivity, dy*sensitivity)
}

// ResetMouse makes the next cursor event a reference point, e.g. after the
// cursor was released and recaptured.
func (c *Camera) ResetMouse() { c.firstMouse = true }
