package mesh

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"shadow-demo/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var (
	ErrUnsupportedModel = errors.New("mesh: unsupported model format")
	ErrNoGeometry       = errors.New("mesh: model has no triangle geometry")
)

// ReadGLTF flattens every triangle primitive reachable from the default
// scene into one indexed mesh, baking node transforms into positions and
// normals.
func ReadGLTF(path string) (gpu.MeshData, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
	default:
		return gpu.MeshData{}, fmt.Errorf("%w: %s", ErrUnsupportedModel, path)
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return gpu.MeshData{}, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return flatten(doc)
}

func flatten(doc *gltf.Document) (gpu.MeshData, error) {
	data := gpu.MeshData{Layout: Layout}

	var visit func(idx int, parent mgl32.Mat4) error
	visit = func(idx int, parent mgl32.Mat4) error {
		if idx < 0 || idx >= len(doc.Nodes) {
			return nil
		}
		n := doc.Nodes[idx]
		world := parent.Mul4(nodeMatrix(n))
		if n.Mesh != nil && *n.Mesh < len(doc.Meshes) {
			for pi, prim := range doc.Meshes[*n.Mesh].Primitives {
				if err := appendPrimitive(&data, doc, prim, world); err != nil {
					return fmt.Errorf("mesh %d prim %d: %w", *n.Mesh, pi, err)
				}
			}
		}
		for _, c := range n.Children {
			if err := visit(c, world); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range rootNodes(doc) {
		if err := visit(root, mgl32.Ident4()); err != nil {
			return gpu.MeshData{}, err
		}
	}
	if len(data.Vertices) == 0 {
		return gpu.MeshData{}, ErrNoGeometry
	}
	return data, nil
}

func rootNodes(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	m := n.MatrixOrDefault()
	if m != gltf.DefaultMatrix {
		var out mgl32.Mat4
		for i := range m {
			out[i] = float32(m[i])
		}
		return out
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

func appendPrimitive(data *gpu.MeshData, doc *gltf.Document, prim *gltf.Primitive, world mgl32.Mat4) error {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil
	}
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	var normals [][3]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("uvs: %w", err)
		}
	}

	normalMat := world.Mat3().Inv().Transpose()
	base := uint32(data.VertexCount())
	for i, p := range positions {
		wp := world.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
		n := mgl32.Vec3{0, 1, 0}
		if i < len(normals) {
			n = normalMat.Mul3x1(mgl32.Vec3(normals[i])).Normalize()
		}
		var uv [2]float32
		if i < len(uvs) {
			uv = uvs[i]
		}
		data.Vertices = append(data.Vertices, wp[0], wp[1], wp[2], n[0], n[1], n[2], uv[0], uv[1])
	}

	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return fmt.Errorf("indices: %w", err)
		}
		for _, i := range indices {
			data.Indices = append(data.Indices, base+i)
		}
	} else {
		for i := range positions {
			data.Indices = append(data.Indices, base+uint32(i))
		}
	}
	return nil
}

// Loader loads model files once per path.
type Loader struct {
	dev   gpu.Device
	mu    sync.Mutex
	cache map[string]*Mesh
	order []string
}

func NewLoader(dev gpu.Device) *Loader {
	return &Loader{dev: dev, cache: make(map[string]*Mesh)}
}

// Load returns the cached mesh for path, reading and uploading it on first use.
func (l *Loader) Load(path string) (*Mesh, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.cache[path]; ok {
		return m, nil
	}
	data, err := ReadGLTF(path)
	if err != nil {
		return nil, err
	}
	m, err := Upload(l.dev, filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	l.cache[path] = m
	l.order = append(l.order, path)
	return m, nil
}

// Release deletes every loaded mesh, newest first.
func (l *Loader) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.order) - 1; i >= 0; i-- {
		l.cache[l.order[i]].Release(l.dev)
	}
	clear(l.cache)
	l.order = nil
}
