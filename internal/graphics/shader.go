package graphics

import (
	"errors"
	"fmt"

	"shadow-demo/internal/assets"
	"shadow-demo/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Program is a linked shader program with a uniform location cache
type Program struct {
	Name   string
	ID     gpu.Handle
	dev    gpu.Device
	vertID string
	fragID string
	locs   map[string]int32
}

// NewProgram compiles the embedded sources vertID and fragID and links them.
// A failure names the source identifier that did not compile.
func NewProgram(dev gpu.Device, name, vertID, fragID string) (*Program, error) {
	vertSrc, err := assets.Source(vertID)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", name, err)
	}
	fragSrc, err := assets.Source(fragID)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", name, err)
	}
	return NewProgramFromSource(dev, name, vertID, vertSrc, fragID, fragSrc)
}

// NewProgramFromSource is NewProgram with the sources already in hand.
func NewProgramFromSource(dev gpu.Device, name, vertID, vertSrc, fragID, fragSrc string) (*Program, error) {
	id, err := dev.NewProgram(vertSrc, fragSrc)
	if err != nil {
		var ce *gpu.CompileError
		if errors.As(err, &ce) {
			switch ce.Stage {
			case "vertex shader":
				return nil, fmt.Errorf("program %s: %s: %w", name, vertID, err)
			case "fragment shader":
				return nil, fmt.Errorf("program %s: %s: %w", name, fragID, err)
			}
			return nil, fmt.Errorf("program %s: %s+%s: %w", name, vertID, fragID, err)
		}
		return nil, fmt.Errorf("program %s: %w", name, err)
	}
	return &Program{
		Name:   name,
		ID:     id,
		dev:    dev,
		vertID: vertID,
		fragID: fragID,
		locs:   make(map[string]int32),
	}, nil
}

// Use activates the program
func (p *Program) Use() {
	p.dev.UseProgram(p.ID)
}

func (p *Program) location(name string) int32 {
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	loc := p.dev.UniformLocation(p.ID, name)
	p.locs[name] = loc
	return loc
}

// SetBool sets a boolean uniform
func (p *Program) SetBool(name string, value bool) {
	var v int32
	if value {
		v = 1
	}
	p.dev.SetUniformInt(p.location(name), v)
}

// SetInt sets an integer uniform
func (p *Program) SetInt(name string, value int32) {
	p.dev.SetUniformInt(p.location(name), value)
}

// SetFloat sets a float uniform
func (p *Program) SetFloat(name string, value float32) {
	p.dev.SetUniformFloat(p.location(name), value)
}

// SetVec3 sets a vec3 uniform
func (p *Program) SetVec3(name string, value mgl32.Vec3) {
	p.dev.SetUniformVec3(p.location(name), value)
}

// SetMat4 sets a mat4 uniform
func (p *Program) SetMat4(name string, value mgl32.Mat4) {
	p.dev.SetUniformMat4(p.location(name), value)
}

// Sources returns the vertex and fragment source identifiers
func (p *Program) Sources() (vert, frag string) { return p.vertID, p.fragID }

// Delete releases the program. Safe to call twice.
func (p *Program) Delete() {
	if p.ID == 0 {
		return
	}
	p.dev.DeleteProgram(p.ID)
	p.ID = 0
	clear(p.locs)
}
