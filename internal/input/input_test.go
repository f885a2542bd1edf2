package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func TestKeyEdgesLastOneFrame(t *testing.T) {
	im := NewInputManager()

	im.HandleKeyEvent(glfw.KeyF, glfw.Press)
	if !im.JustPressed(ActionToggleFly) || !im.IsActive(ActionToggleFly) {
		t.Fatal("press not registered")
	}
	im.PostUpdate()
	if im.JustPressed(ActionToggleFly) {
		t.Fatal("just-pressed survived PostUpdate")
	}
	if !im.IsActive(ActionToggleFly) {
		t.Fatal("held key reported released")
	}

	// Key repeat keeps the action held without a new edge.
	im.HandleKeyEvent(glfw.KeyF, glfw.Repeat)
	if im.JustPressed(ActionToggleFly) {
		t.Fatal("repeat produced a new press edge")
	}

	im.HandleKeyEvent(glfw.KeyF, glfw.Release)
	if !im.JustReleased(ActionToggleFly) || im.IsActive(ActionToggleFly) {
		t.Fatal("release not registered")
	}
}

func TestAlternativeBindings(t *testing.T) {
	im := NewInputManager()
	im.HandleKeyEvent(glfw.KeyUp, glfw.Press)
	if !im.IsActive(ActionMoveForward) {
		t.Fatal("arrow key not bound to forward")
	}
}

func TestMouseButtons(t *testing.T) {
	im := NewInputManager()
	im.HandleMouseButtonEvent(glfw.MouseButtonRight, glfw.Press)
	if !im.JustPressed(ActionMouseRight) {
		t.Fatal("right click not registered")
	}
	if im.IsActive(ActionMouseLeft) {
		t.Fatal("left button active")
	}
}

func TestMoveAxes(t *testing.T) {
	im := NewInputManager()
	im.HandleKeyEvent(glfw.KeyW, glfw.Press)
	im.HandleKeyEvent(glfw.KeyA, glfw.Press)
	f, r := im.MoveAxes()
	if f != 1 || r != -1 {
		t.Fatalf("axes = %v,%v, want 1,-1", f, r)
	}
	im.HandleKeyEvent(glfw.KeyS, glfw.Press)
	if f, _ := im.MoveAxes(); f != 0 {
		t.Fatalf("opposing keys give forward %v", f)
	}
}

func TestBlockSlotsBound(t *testing.T) {
	im := NewInputManager()
	im.HandleKeyEvent(glfw.Key3, glfw.Press)
	if !im.JustPressed(BlockSlots[2]) {
		t.Fatal("key 3 does not select slot 3")
	}
}

func TestUnbindKey(t *testing.T) {
	im := NewInputManager()
	im.UnbindKey(glfw.KeyW)
	im.HandleKeyEvent(glfw.KeyW, glfw.Press)
	if im.IsActive(ActionMoveForward) {
		t.Fatal("unbound key still drives its action")
	}
}
