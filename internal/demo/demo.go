// Package demo assembles the scene the binary shows: a textured cube with
// two children, a floor and an optional glTF model under a single
// directional light.
package demo

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"

	"shadow-demo/internal/config"
	"shadow-demo/internal/gpu"
	"shadow-demo/internal/graphics"
	"shadow-demo/internal/mesh"
	"shadow-demo/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	LightColor     = mgl32.Vec3{1, 1, 1}
	LightIntensity = float32(2)
	LightDirection = mgl32.Vec3{-0.2, -1, -0.3}
	Ambient        = mgl32.Vec3{0.7, 0.7, 1}
)

// Texture files looked up under config.Scene.TexturesDir.
const (
	ContainerDiffuse  = "container2.png"
	ContainerSpecular = "container2_specular.png"
	CircuitryDiffuse  = "circuitry-albedo.png"
	CircuitrySpecular = "circuitry-metallic.png"
)

const shininess = 32

// Demo is the built scene and the loaders that own its textures and models.
type Demo struct {
	Scene    *scene.Scene
	Textures *graphics.TextureLoader
	Models   *mesh.Loader

	// Model is the glTF entity, NoEntity when none was loaded.
	Model scene.EntityID
}

// Build creates the demo scene. Missing texture files fall back to
// procedural ones and a model that fails to load is skipped, both with a
// warning.
func Build(dev gpu.Device, cfg *config.Config, log *slog.Logger) (*Demo, error) {
	d := &Demo{
		Textures: graphics.NewTextureLoader(dev),
		Models:   mesh.NewLoader(dev),
		Model:    scene.NoEntity,
	}
	g := scene.NewGraph()
	s, err := d.build(dev, g, cfg, log)
	if err != nil {
		g.ReleaseMeshes(dev)
		d.Textures.Release()
		d.Models.Release()
		return nil, err
	}
	d.Scene = s
	log.Info("scene ready", "entities", g.Len(), "textures", d.Textures.Len(), "model", d.Model != scene.NoEntity)
	return d, nil
}

func (d *Demo) build(dev gpu.Device, g *scene.Graph, cfg *config.Config, log *slog.Logger) (*scene.Scene, error) {
	dir := cfg.Scene.TexturesDir

	container, err := d.material(dir, ContainerDiffuse, ContainerSpecular, color.RGBA{R: 150, G: 100, B: 50, A: 255}, log)
	if err != nil {
		return nil, err
	}
	container.SetKs(0.5)
	circuitry, err := d.material(dir, CircuitryDiffuse, CircuitrySpecular, color.RGBA{R: 40, G: 140, B: 60, A: 255}, log)
	if err != nil {
		return nil, err
	}
	floorMat, err := scene.NewMaterial(mgl32.Vec3{30.0 / 255, 5.0 / 255, 5.0 / 255}, mgl32.Vec3{1, 1, 1}, shininess)
	if err != nil {
		return nil, err
	}
	floorMat.SetKs(0)

	cube, err := mesh.Cube(dev)
	if err != nil {
		return nil, fmt.Errorf("cube mesh: %w", err)
	}
	square, err := mesh.Square(dev)
	if err != nil {
		cube.Release(dev)
		return nil, fmt.Errorf("floor mesh: %w", err)
	}

	cube1 := g.Add(scene.Node{
		Name:     "cube1",
		Mesh:     cube,
		Material: container,
		Local:    mgl32.Translate3D(-2, 0, -2).Mul4(rotY(45)),
		Scale:    uniform(2),
	})
	cube2 := g.Add(scene.Node{
		Name:     "cube2",
		Mesh:     cube,
		Material: container,
		Local:    mgl32.Translate3D(0, 0.75, 0).Mul4(rotY(30)),
		Scale:    uniform(0.5),
	})
	cube3 := g.Add(scene.Node{
		Name:     "cube3",
		Mesh:     cube,
		Material: circuitry,
		Local:    mgl32.Translate3D(2, -0.2, 0).Mul4(rotY(60)),
		Scale:    uniform(0.6),
	})
	floor := g.Add(scene.Node{
		Name:     "floor",
		Mesh:     square,
		Material: floorMat,
		Local:    mgl32.Translate3D(0, -1, 0),
		Scale:    uniform(25),
	})
	if err := g.AddChild(cube1, cube2); err != nil {
		return nil, err
	}
	if err := g.AddChild(cube1, cube3); err != nil {
		return nil, err
	}
	roots := []scene.EntityID{cube1, floor}

	if path := cfg.Scene.ModelPath; path != "" {
		if id, ok := d.model(g, path, log); ok {
			d.Model = id
			roots = append(roots, id)
		}
	}

	light := scene.NewDirLight(LightColor, LightIntensity, LightDirection, cfg.Render.LightDistance)
	return scene.New(g, roots, light, Ambient)
}

func (d *Demo) model(g *scene.Graph, path string, log *slog.Logger) (scene.EntityID, bool) {
	m, err := d.Models.Load(path)
	if err != nil {
		log.Warn("model skipped", "path", path, "err", err)
		return scene.NoEntity, false
	}
	mat, err := scene.NewMaterial(
		mgl32.Vec3{255.0 / 255, 30.0 / 255, 30.0 / 255},
		mgl32.Vec3{212.0 / 255, 175.0 / 255, 55.0 / 255},
		shininess)
	if err != nil {
		return scene.NoEntity, false
	}
	return g.Add(scene.Node{
		Name:     filepath.Base(path),
		Mesh:     m,
		Material: mat,
		Local:    mgl32.Translate3D(2, -1, 2).Mul4(rotY(-135)),
		Scale:    uniform(0.25),
	}), true
}

// material loads a diffuse/specular pair. A diffuse map that fails becomes
// a checkerboard in base; a specular map that fails becomes flat grey.
func (d *Demo) material(dir, diffuse, specular string, base color.RGBA, log *slog.Logger) (*scene.Material, error) {
	diff, err := d.Textures.Load(filepath.Join(dir, diffuse), graphics.TextureDiffuse)
	if err != nil {
		log.Warn("texture missing, using checker", "file", diffuse, "err", err)
		dark := color.RGBA{R: base.R / 3, G: base.G / 3, B: base.B / 3, A: 255}
		diff, err = d.Textures.Procedural("checker:"+diffuse, graphics.Checker(64, 8, base, dark), graphics.TextureDiffuse)
		if err != nil {
			return nil, err
		}
	}
	spec, err := d.Textures.Load(filepath.Join(dir, specular), graphics.TextureSpecular)
	if err != nil {
		log.Warn("texture missing, using flat specular", "file", specular, "err", err)
		spec, err = d.Textures.Procedural("solid:grey", solid(color.RGBA{R: 128, G: 128, B: 128, A: 255}), graphics.TextureSpecular)
		if err != nil {
			return nil, err
		}
	}
	return scene.NewMaterial(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}, shininess, diff, spec)
}

// Release frees the scene's meshes, then the loaders.
func (d *Demo) Release(dev gpu.Device) {
	if d.Scene != nil {
		d.Scene.Release(dev)
	}
	d.Models.Release()
	d.Textures.Release()
}

func rotY(deg float32) mgl32.Mat4 { return mgl32.HomogRotate3DY(mgl32.DegToRad(deg)) }

func uniform(s float32) mgl32.Vec3 { return mgl32.Vec3{s, s, s} }

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c)
	return img
}
