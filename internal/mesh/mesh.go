// Package mesh uploads vertex data and draws it.
//
// Every 3D mesh shares one interleaved layout: position (location 0),
// normal (location 1) and texture coordinate (location 2). The screen quad
// uses a 2D position at location 0 and a texture coordinate at location 1.
package mesh

import (
	"fmt"

	"shadow-demo/internal/gpu"
)

// Layout is the interleaved layout of every 3D mesh.
var Layout = []gpu.Attribute{
	{Location: 0, Size: 3},
	{Location: 1, Size: 3},
	{Location: 2, Size: 2},
}

// QuadLayout is the layout of the screen quad.
var QuadLayout = []gpu.Attribute{
	{Location: 0, Size: 2},
	{Location: 1, Size: 2},
}

// Mesh is uploaded geometry ready to draw.
type Mesh struct {
	Name string
	buf  gpu.MeshBuffers
}

// Upload validates data and copies it to the device.
func Upload(dev gpu.Device, name string, data gpu.MeshData) (*Mesh, error) {
	buf, err := dev.NewMesh(data)
	if err != nil {
		return nil, fmt.Errorf("mesh %s: %w", name, err)
	}
	return &Mesh{Name: name, buf: buf}, nil
}

// Draw issues one draw call. Released meshes draw nothing.
func (m *Mesh) Draw(dev gpu.Device) {
	if m.Released() {
		return
	}
	dev.DrawMesh(m.buf)
}

// Count is the number of indices, or vertices for non-indexed meshes.
func (m *Mesh) Count() int32 { return m.buf.Count }

// Buffers exposes the device objects, mainly for tests.
func (m *Mesh) Buffers() gpu.MeshBuffers { return m.buf }

func (m *Mesh) Released() bool { return m.buf.VAO == 0 }

// Release deletes the device objects. Safe to call twice.
func (m *Mesh) Release(dev gpu.Device) {
	if m.Released() {
		return
	}
	dev.DeleteMesh(&m.buf)
}
