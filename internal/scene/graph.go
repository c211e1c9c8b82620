// Package scene holds what the passes draw: an entity hierarchy, the
// materials hung off it and the single directional light.
package scene

import (
	"errors"
	"fmt"

	"shadow-demo/internal/gpu"
	"shadow-demo/internal/mesh"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrUnknownEntity = errors.New("scene: unknown entity")
	ErrHasParent     = errors.New("scene: entity already has a parent")
	ErrCycle         = errors.New("scene: link would create a cycle")
)

// EntityID addresses an entity in its Graph. IDs are stable for the life of
// the graph.
type EntityID int32

// NoEntity is the parent of root entities.
const NoEntity EntityID = -1

// Node describes an entity to add. A zero Local means identity and a zero
// Scale means (1, 1, 1).
type Node struct {
	Name     string
	Mesh     *mesh.Mesh
	Material *Material
	Local    mgl32.Mat4
	Scale    mgl32.Vec3
}

// Entity is one arena slot.
type Entity struct {
	Name     string
	Mesh     *mesh.Mesh
	Material *Material
	// Scale applies to this entity's draw only; children do not inherit it.
	Scale mgl32.Vec3

	local    mgl32.Mat4
	parent   EntityID
	children []EntityID

	gen      uint64 // bumped when this entity's world transform may change
	worldGen uint64 // gen the cached world was computed at
	world    mgl32.Mat4
}

func (e *Entity) Parent() EntityID      { return e.parent }
func (e *Entity) Local() mgl32.Mat4     { return e.local }
func (e *Entity) Children() []EntityID  { return append([]EntityID(nil), e.children...) }
func (e *Entity) Drawable() bool        { return e.Mesh != nil && !e.Mesh.Released() }

// Graph is an arena of entities linked by id.
type Graph struct {
	entities   []Entity
	recomputes int
}

func NewGraph() *Graph {
	return &Graph{}
}

// Add appends a parentless entity and returns its id.
func (g *Graph) Add(n Node) EntityID {
	local := n.Local
	if local == (mgl32.Mat4{}) {
		local = mgl32.Ident4()
	}
	scale := n.Scale
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	g.entities = append(g.entities, Entity{
		Name:     n.Name,
		Mesh:     n.Mesh,
		Material: n.Material,
		Scale:    scale,
		local:    local,
		parent:   NoEntity,
		gen:      1,
	})
	return EntityID(len(g.entities) - 1)
}

// ReleaseMeshes releases the mesh of every entity, reachable or not.
func (g *Graph) ReleaseMeshes(dev gpu.Device) {
	for i := range g.entities {
		if m := g.entities[i].Mesh; m != nil {
			m.Release(dev)
		}
	}
}

// Len returns the number of entities.
func (g *Graph) Len() int { return len(g.entities) }

func (g *Graph) valid(id EntityID) bool {
	return id >= 0 && int(id) < len(g.entities)
}

// Get returns the entity for id. The pointer is only valid until the next
// Add, which may move the backing storage.
func (g *Graph) Get(id EntityID) (*Entity, error) {
	if !g.valid(id) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	return &g.entities[id], nil
}

// AddChild appends child to parent's children.
func (g *Graph) AddChild(parent, child EntityID) error {
	if !g.valid(parent) || !g.valid(child) {
		return fmt.Errorf("%w: %d -> %d", ErrUnknownEntity, parent, child)
	}
	if parent == child {
		return fmt.Errorf("%w: %q under itself", ErrCycle, g.entities[child].Name)
	}
	if g.entities[child].parent != NoEntity {
		return fmt.Errorf("%w: %q", ErrHasParent, g.entities[child].Name)
	}
	for a := parent; a != NoEntity; a = g.entities[a].parent {
		if a == child {
			return fmt.Errorf("%w: %q is an ancestor of %q", ErrCycle, g.entities[child].Name, g.entities[parent].Name)
		}
	}
	g.entities[parent].children = append(g.entities[parent].children, child)
	g.entities[child].parent = parent
	g.invalidate(child)
	return nil
}

// SetLocal replaces the local transform of id and invalidates the cached
// world transforms of id and all its descendants.
func (g *Graph) SetLocal(id EntityID, m mgl32.Mat4) error {
	if !g.valid(id) {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	g.entities[id].local = m
	g.invalidate(id)
	return nil
}

func (g *Graph) invalidate(id EntityID) {
	g.entities[id].gen++
	for _, c := range g.entities[id].children {
		g.invalidate(c)
	}
}

// World returns world(parent) x local, or local for roots.
func (g *Graph) World(id EntityID) mgl32.Mat4 {
	e := &g.entities[id]
	if e.worldGen == e.gen {
		return e.world
	}
	w := e.local
	if e.parent != NoEntity {
		w = g.World(e.parent).Mul4(e.local)
	}
	e.world = w
	e.worldGen = e.gen
	g.recomputes++
	return w
}

// Model is the matrix a pass uploads for id: World x Scale.
func (g *Graph) Model(id EntityID) mgl32.Mat4 {
	s := g.entities[id].Scale
	return g.World(id).Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// Recomputes counts world transform evaluations that missed the cache.
func (g *Graph) Recomputes() int { return g.recomputes }

// Walk visits roots and their descendants pre-order, parent before child and
// children in insertion order. Walking stops early if fn returns false.
func (g *Graph) Walk(roots []EntityID, fn func(id EntityID, e *Entity) bool) {
	var visit func(id EntityID) bool
	visit = func(id EntityID) bool {
		if !fn(id, &g.entities[id]) {
			return false
		}
		for _, c := range g.entities[id].children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	for _, r := range roots {
		if !g.valid(r) {
			continue
		}
		if !visit(r) {
			return
		}
	}
}

// Roots lists parentless entities in insertion order.
func (g *Graph) Roots() []EntityID {
	var out []EntityID
	for i := range g.entities {
		if g.entities[i].parent == NoEntity {
			out = append(out, EntityID(i))
		}
	}
	return out
}
