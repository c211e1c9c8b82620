package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

func TestKeyEdges(t *testing.T) {
	im := NewInputManager()

	im.HandleKeyEvent(glfw.KeyW, glfw.Press)
	assert.True(t, im.IsActive(ActionMoveForward))
	assert.True(t, im.JustPressed(ActionMoveForward))

	im.PostUpdate()
	assert.True(t, im.IsActive(ActionMoveForward), "held key stays active")
	assert.False(t, im.JustPressed(ActionMoveForward))

	im.HandleKeyEvent(glfw.KeyW, glfw.Repeat)
	assert.False(t, im.JustPressed(ActionMoveForward), "repeat is not a new press")

	im.HandleKeyEvent(glfw.KeyW, glfw.Release)
	assert.False(t, im.IsActive(ActionMoveForward))
	assert.True(t, im.JustReleased(ActionMoveForward))
	im.PostUpdate()
	assert.False(t, im.JustReleased(ActionMoveForward))
}

func TestModeKeys(t *testing.T) {
	im := NewInputManager()
	keys := []glfw.Key{glfw.Key1, glfw.Key2, glfw.Key3, glfw.Key4}
	for i, k := range keys {
		im.HandleKeyEvent(k, glfw.Press)
		assert.True(t, im.JustPressed(ModeActions[i]), "key %d", i+1)
	}
}

func TestUnboundAndRebound(t *testing.T) {
	im := NewInputManager()
	im.HandleKeyEvent(glfw.KeyZ, glfw.Press)
	for a := Action(0); a < ActionCount; a++ {
		assert.False(t, im.IsActive(a))
	}

	im.UnbindKey(glfw.KeyF)
	im.BindKey(glfw.KeyP, ActionScreenshot)
	im.HandleKeyEvent(glfw.KeyF, glfw.Press)
	assert.False(t, im.JustPressed(ActionScreenshot))
	im.HandleKeyEvent(glfw.KeyP, glfw.Press)
	assert.True(t, im.JustPressed(ActionScreenshot))

	assert.False(t, im.IsActive(ActionCount))
	assert.False(t, im.JustPressed(-1))
}

func TestScrollResetsEachFrame(t *testing.T) {
	im := NewInputManager()
	im.HandleScroll(1)
	im.HandleScroll(0.5)
	assert.Equal(t, 1.5, im.Scroll())
	im.PostUpdate()
	assert.Equal(t, 0.0, im.Scroll())
}
