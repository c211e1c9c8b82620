package demo

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"shadow-demo/internal/config"
	"shadow-demo/internal/gpu"
	"shadow-demo/internal/gpu/gputest"
	"shadow-demo/internal/logging"
	"shadow-demo/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Scene.TexturesDir = t.TempDir()
	return &cfg
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xcc
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func writeModel(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	doc.Meshes = []*gltf.Mesh{{
		Name:       "dragon",
		Primitives: []*gltf.Primitive{{Attributes: map[string]int{"POSITION": pos}}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "dragon", Mesh: gltf.Index(0)}}
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)
	path := filepath.Join(t.TempDir(), "dragon.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func byName(t *testing.T, s *scene.Scene, name string) (scene.EntityID, *scene.Entity) {
	t.Helper()
	for id := 0; id < s.Graph.Len(); id++ {
		e, err := s.Graph.Get(scene.EntityID(id))
		require.NoError(t, err)
		if e.Name == name {
			return scene.EntityID(id), e
		}
	}
	t.Fatalf("no entity %q", name)
	return scene.NoEntity, nil
}

func TestBuildFallsBackToProceduralTextures(t *testing.T) {
	dev := gputest.New(gpu.Viewport{W: 1, H: 1})
	var logs bytes.Buffer
	log, err := logging.New("info", &logs)
	require.NoError(t, err)

	d, err := Build(dev, testConfig(t), log)
	require.NoError(t, err)
	defer d.Release(dev)

	assert.Equal(t, 4, d.Scene.Graph.Len())
	assert.Len(t, d.Scene.Roots, 2)
	assert.Equal(t, scene.NoEntity, d.Model)
	// two checkers and one shared flat specular
	assert.Equal(t, 3, d.Textures.Len())
	assert.Contains(t, logs.String(), "texture missing")

	_, cube1 := byName(t, d.Scene, "cube1")
	require.Len(t, cube1.Material.Textures(), 2)
	assert.Equal(t, float32(0.5), cube1.Material.Ks())
	assert.Len(t, cube1.Children(), 2)

	_, floor := byName(t, d.Scene, "floor")
	assert.Equal(t, float32(0), floor.Material.Ks())
	assert.Empty(t, floor.Material.Textures())
}

func TestBuildTransforms(t *testing.T) {
	dev := gputest.New(gpu.Viewport{W: 1, H: 1})
	d, err := Build(dev, testConfig(t), logging.Discard())
	require.NoError(t, err)
	defer d.Release(dev)

	g := d.Scene.Graph
	id1, _ := byName(t, d.Scene, "cube1")
	id2, cube2 := byName(t, d.Scene, "cube2")
	assert.Equal(t, id1, cube2.Parent())

	want := mgl32.Translate3D(-2, 0, -2).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(45)))
	assert.True(t, g.World(id1).ApproxEqualThreshold(want, 1e-6))
	assert.True(t, g.World(id2).ApproxEqualThreshold(g.World(id1).Mul4(cube2.Local()), 1e-6))
	assert.True(t, g.Model(id1).ApproxEqualThreshold(want.Mul4(mgl32.Scale3D(2, 2, 2)), 1e-6))

	origin := g.Model(id2).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0.75, origin.Y(), 1e-6, "child scale is not inherited from the parent")

	assert.True(t, LightDirection.Normalize().ApproxEqualThreshold(d.Scene.Light.Direction, 1e-6))
	assert.Equal(t, Ambient, d.Scene.Ambient)
}

func TestBuildLoadsTextureFiles(t *testing.T) {
	dev := gputest.New(gpu.Viewport{W: 1, H: 1})
	cfg := testConfig(t)
	writePNG(t, filepath.Join(cfg.Scene.TexturesDir, ContainerDiffuse))
	writePNG(t, filepath.Join(cfg.Scene.TexturesDir, ContainerSpecular))

	d, err := Build(dev, cfg, logging.Discard())
	require.NoError(t, err)
	defer d.Release(dev)

	_, cube1 := byName(t, d.Scene, "cube1")
	texs := cube1.Material.Textures()
	require.Len(t, texs, 2)
	assert.Equal(t, filepath.Join(cfg.Scene.TexturesDir, ContainerDiffuse), texs[0].Path)
	assert.Equal(t, 4, texs[0].Width)
	assert.Equal(t, filepath.Join(cfg.Scene.TexturesDir, ContainerSpecular), texs[1].Path)
}

func TestBuildWithModel(t *testing.T) {
	dev := gputest.New(gpu.Viewport{W: 1, H: 1})
	cfg := testConfig(t)
	cfg.Scene.ModelPath = writeModel(t)

	d, err := Build(dev, cfg, logging.Discard())
	require.NoError(t, err)
	defer d.Release(dev)

	require.NotEqual(t, scene.NoEntity, d.Model)
	assert.Len(t, d.Scene.Roots, 3)
	e, err := d.Scene.Graph.Get(d.Model)
	require.NoError(t, err)
	assert.Equal(t, "dragon.glb", e.Name)
	assert.Equal(t, mgl32.Vec3{0.25, 0.25, 0.25}, e.Scale)
	assert.Equal(t, mgl32.Vec3{1, 30.0 / 255, 30.0 / 255}, e.Material.DiffuseColor)
}

func TestBuildSkipsBrokenModel(t *testing.T) {
	dev := gputest.New(gpu.Viewport{W: 1, H: 1})
	cfg := testConfig(t)
	cfg.Scene.ModelPath = filepath.Join(t.TempDir(), "missing.glb")
	var logs bytes.Buffer
	log, err := logging.New("warn", &logs)
	require.NoError(t, err)

	d, err := Build(dev, cfg, log)
	require.NoError(t, err)
	defer d.Release(dev)
	assert.Equal(t, scene.NoEntity, d.Model)
	assert.Contains(t, logs.String(), "model skipped")
}

func TestReleaseFreesEverything(t *testing.T) {
	dev := gputest.New(gpu.Viewport{W: 1, H: 1})
	cfg := testConfig(t)
	cfg.Scene.ModelPath = writeModel(t)
	d, err := Build(dev, cfg, logging.Discard())
	require.NoError(t, err)
	require.NotZero(t, dev.LiveCount())

	d.Release(dev)
	assert.Zero(t, dev.LiveCount(), "live: %v", dev.LiveKinds())
	assert.Empty(t, dev.BadDeletes())
}

func TestSolid(t *testing.T) {
	img := solid(color.RGBA{R: 1, G: 2, B: 3, A: 255})
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, img.RGBAAt(0, 0))
}
