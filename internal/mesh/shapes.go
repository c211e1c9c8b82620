package mesh

import (
	"shadow-demo/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

type face struct {
	n, u, v mgl32.Vec3 // u x v == n
}

var cubeFaces = [6]face{
	{n: mgl32.Vec3{0, 0, 1}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
	{n: mgl32.Vec3{0, 0, -1}, u: mgl32.Vec3{-1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
	{n: mgl32.Vec3{1, 0, 0}, u: mgl32.Vec3{0, 0, -1}, v: mgl32.Vec3{0, 1, 0}},
	{n: mgl32.Vec3{-1, 0, 0}, u: mgl32.Vec3{0, 0, 1}, v: mgl32.Vec3{0, 1, 0}},
	{n: mgl32.Vec3{0, 1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, -1}},
	{n: mgl32.Vec3{0, -1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, 1}},
}

// two counter-clockwise triangles in (u, v) face space
var quadCorners = [6][2]float32{
	{-1, -1}, {1, -1}, {1, 1},
	{-1, -1}, {1, 1}, {-1, 1},
}

func appendFace(dst []float32, f face, center mgl32.Vec3) []float32 {
	for _, c := range quadCorners {
		p := center.Add(f.u.Mul(c[0] * 0.5)).Add(f.v.Mul(c[1] * 0.5))
		dst = append(dst,
			p[0], p[1], p[2],
			f.n[0], f.n[1], f.n[2],
			(c[0]+1)/2, (c[1]+1)/2,
		)
	}
	return dst
}

// CubeData is a unit cube centred on the origin, 36 vertices, each face
// wound counter-clockwise seen from outside.
func CubeData() gpu.MeshData {
	verts := make([]float32, 0, 36*8)
	for _, f := range cubeFaces {
		verts = appendFace(verts, f, f.n.Mul(0.5))
	}
	return gpu.MeshData{Vertices: verts, Layout: Layout}
}

// SquareData is a unit square on the XZ plane facing +Y.
func SquareData() gpu.MeshData {
	verts := appendFace(make([]float32, 0, 6*8), cubeFaces[4], mgl32.Vec3{})
	return gpu.MeshData{Vertices: verts, Layout: Layout}
}

// ScreenQuadData covers clip space with UVs 0..1.
func ScreenQuadData() gpu.MeshData {
	verts := make([]float32, 0, 6*4)
	for _, c := range quadCorners {
		verts = append(verts, c[0], c[1], (c[0]+1)/2, (c[1]+1)/2)
	}
	return gpu.MeshData{Vertices: verts, Layout: QuadLayout}
}

func Cube(dev gpu.Device) (*Mesh, error)       { return Upload(dev, "cube", CubeData()) }
func Square(dev gpu.Device) (*Mesh, error)     { return Upload(dev, "square", SquareData()) }
func ScreenQuad(dev gpu.Device) (*Mesh, error) { return Upload(dev, "screen-quad", ScreenQuadData()) }
