package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	Gravity          = 32.0
	TerminalVelocity = -78.4
	JumpVelocity     = 9.4

	BodyWidth  = 0.6
	BodyHeight = 1.8
)

// Body is a walking viewer affected by gravity.
type Body struct {
	Position mgl32.Vec3 // feet
	Velocity mgl32.Vec3
	OnGround bool
}

// Box returns the body's collision box.
func (b *Body) Box() AABB {
	return BoxAt(b.Position, BodyWidth, BodyHeight)
}

// Jump starts a jump when the body stands on the ground.
func (b *Body) Jump() {
	if b.OnGround {
		b.Velocity[1] = JumpVelocity
		b.OnGround = false
	}
}

// Step integrates one tick. Horizontal velocity is taken as given; vertical
// velocity accumulates gravity. Each axis is swept on its own so the body
// slides along walls. A body that starts inside blocks is pushed out first.
func (b *Body) Step(dt float32, w BlockWorld) {
	b.Velocity[1] -= Gravity * dt
	if b.Velocity[1] < TerminalVelocity {
		b.Velocity[1] = TerminalVelocity
	}

	box := b.Box()
	if Collides(box, w) {
		box, _ = Resolve(box, w)
	}
	b.OnGround = false
	for axis := 0; axis < 3; axis++ {
		d := b.Velocity[axis] * dt
		if d == 0 {
			continue
		}
		var stopped bool
		box, stopped = SweepAxis(box, axis, d, w)
		if !stopped {
			continue
		}
		if axis == 1 && d < 0 {
			b.OnGround = true
		}
		b.Velocity[axis] = 0
	}
	b.Position = box.Feet()
}
