package mesh

import (
	"path/filepath"
	"testing"

	"shadow-demo/internal/gpu"
	"shadow-demo/internal/gpu/gputest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vertexAt(d gpu.MeshData, i int) (pos, normal mgl32.Vec3) {
	s := int(d.Stride())
	v := d.Vertices[i*s : (i+1)*s]
	return mgl32.Vec3{v[0], v[1], v[2]}, mgl32.Vec3{v[3], v[4], v[5]}
}

func assertOutwardCCW(t *testing.T, d gpu.MeshData) {
	t.Helper()
	for tri := 0; tri < int(d.VertexCount())/3; tri++ {
		a, n := vertexAt(d, tri*3)
		b, _ := vertexAt(d, tri*3+1)
		c, _ := vertexAt(d, tri*3+2)
		face := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, face.Dot(n), float32(0), "triangle %d is clockwise", tri)
	}
}

func TestCubeData(t *testing.T) {
	d := CubeData()
	require.NoError(t, d.Validate())
	assert.Equal(t, int32(8), d.Stride())
	assert.Equal(t, int32(36), d.VertexCount())
	assertOutwardCCW(t, d)

	for i := 0; i < 36; i++ {
		p, n := vertexAt(d, i)
		for k := 0; k < 3; k++ {
			assert.InDelta(t, 0.5, abs(p[k]), 1e-6)
		}
		assert.InDelta(t, 0.5, p.Dot(n), 1e-6, "vertex lies on its face plane")
	}
}

func TestSquareAndQuad(t *testing.T) {
	sq := SquareData()
	assert.Equal(t, int32(6), sq.VertexCount())
	assertOutwardCCW(t, sq)
	for i := 0; i < 6; i++ {
		p, n := vertexAt(sq, i)
		assert.Equal(t, float32(0), p.Y())
		assert.Equal(t, mgl32.Vec3{0, 1, 0}, n)
	}

	q := ScreenQuadData()
	assert.Equal(t, int32(4), q.Stride())
	assert.Equal(t, int32(6), q.VertexCount())
	for i := 0; i < 6; i++ {
		v := q.Vertices[i*4 : i*4+4]
		assert.Equal(t, (v[0]+1)/2, v[2])
		assert.Equal(t, (v[1]+1)/2, v[3])
	}
}

func TestUploadDrawRelease(t *testing.T) {
	dev := gputest.New(gpu.Viewport{W: 8, H: 8})
	m, err := Cube(dev)
	require.NoError(t, err)
	assert.Equal(t, int32(36), m.Count())

	m.Draw(dev)
	require.Len(t, dev.Draws, 1)
	assert.Equal(t, m.Buffers().VAO, dev.Draws[0].Mesh.VAO)

	m.Release(dev)
	m.Release(dev)
	assert.True(t, m.Released())
	m.Draw(dev)
	assert.Len(t, dev.Draws, 1)
	assert.Zero(t, dev.LiveCount())
	assert.Empty(t, dev.BadDeletes())

	_, err = Upload(dev, "empty", gpu.MeshData{Layout: Layout})
	assert.ErrorIs(t, err, gpu.ErrEmptyMesh)
	_, err = Upload(dev, "ragged", gpu.MeshData{Vertices: make([]float32, 7), Layout: Layout})
	assert.ErrorIs(t, err, gpu.ErrBadLayout)
}

// writeTriangleModel saves a one-triangle model whose node is translated by
// (0, 2, 0) as a binary glTF file.
func writeTriangleModel(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	nrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{"POSITION": pos, "NORMAL": nrm},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "root", Mesh: gltf.Index(0), Translation: [3]float64{0, 2, 0}}}
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)

	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestReadGLTFBakesNodeTransform(t *testing.T) {
	d, err := ReadGLTF(writeTriangleModel(t))
	require.NoError(t, err)
	assert.Equal(t, int32(3), d.VertexCount())
	assert.Equal(t, []uint32{0, 1, 2}, d.Indices)

	p, n := vertexAt(d, 2)
	assert.InDelta(t, 3, p.Y(), 1e-6)
	assert.InDelta(t, 1, n.Z(), 1e-6)
}

func TestReadGLTFRejectsOtherFormats(t *testing.T) {
	_, err := ReadGLTF("dragon.obj")
	assert.ErrorIs(t, err, ErrUnsupportedModel)
	_, err = ReadGLTF(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
}

func TestLoaderCachesAndReleases(t *testing.T) {
	dev := gputest.New(gpu.Viewport{W: 8, H: 8})
	path := writeTriangleModel(t)

	l := NewLoader(dev)
	a, err := l.Load(path)
	require.NoError(t, err)
	b, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.True(t, a.Buffers().Indexed)
	assert.Equal(t, "tri.glb", a.Name)

	l.Release()
	assert.True(t, a.Released())
	assert.Zero(t, dev.LiveCount())
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
