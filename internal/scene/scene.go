package scene

import (
	"errors"
	"fmt"

	"shadow-demo/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrMissingLight = errors.New("scene: missing directional light")

// Scene is a graph, its draw roots, the light and the ambient intensity.
type Scene struct {
	Graph   *Graph
	Roots   []EntityID
	Light   *DirLight
	Ambient mgl32.Vec3

	version uint64
}

// New validates roots against the graph. Each root must exist, be
// parentless and appear once.
func New(g *Graph, roots []EntityID, light *DirLight, ambient mgl32.Vec3) (*Scene, error) {
	if light == nil {
		return nil, ErrMissingLight
	}
	if g == nil {
		g = NewGraph()
	}
	seen := make(map[EntityID]bool, len(roots))
	for _, r := range roots {
		e, err := g.Get(r)
		if err != nil {
			return nil, err
		}
		if e.parent != NoEntity {
			return nil, fmt.Errorf("%w: root %q", ErrHasParent, e.Name)
		}
		if seen[r] {
			return nil, fmt.Errorf("%w: root %q listed twice", ErrCycle, e.Name)
		}
		seen[r] = true
	}
	return &Scene{
		Graph:   g,
		Roots:   append([]EntityID(nil), roots...),
		Light:   light,
		Ambient: ambient,
		version: 1,
	}, nil
}

// Version changes whenever light or ambient uniforms need re-uploading.
func (s *Scene) Version() uint64 { return s.version }

// Touch marks the light or ambient as changed.
func (s *Scene) Touch() { s.version++ }

// Walk visits every entity reachable from the roots, pre-order.
func (s *Scene) Walk(fn func(id EntityID, e *Entity)) {
	s.Graph.Walk(s.Roots, func(id EntityID, e *Entity) bool {
		fn(id, e)
		return true
	})
}

// Release deletes every entity mesh. Meshes shared between entities are
// released once.
func (s *Scene) Release(dev gpu.Device) {
	s.Graph.ReleaseMeshes(dev)
}
