package codec

import (
	"fmt"

	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
	"github.com/spaghettifunk/anima-packer/engine/core"
)

// FloatsPerVertex is the static vertex layout: position 3, uv 2, normal 3.
const FloatsPerVertex = 8

// Mesh is a decoded static mesh.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

func interleave(mesh *loaders.SceneMesh, dst []float32) []float32 {
	for i, p := range mesh.Positions {
		dst = append(dst, p.X, p.Y, p.Z)
		if i < len(mesh.TexCoords) {
			dst = append(dst, mesh.TexCoords[i].X, mesh.TexCoords[i].Y)
		} else {
			dst = append(dst, 0, 0)
		}
		if i < len(mesh.Normals) {
			dst = append(dst, mesh.Normals[i].X, mesh.Normals[i].Y, mesh.Normals[i].Z)
		} else {
			dst = append(dst, 0, 0, 0)
		}
	}
	return dst
}

func EncodeModel(scene *loaders.Scene) ([]byte, error) {
	if len(scene.Meshes) == 0 {
		return nil, fmt.Errorf("%w: model has no meshes", core.ErrDecodeFailure)
	}
	w := NewWriter(1024)
	w.U32(uint32(len(scene.Meshes)))
	var vertices []float32
	for _, mesh := range scene.Meshes {
		vertices = interleave(mesh, vertices[:0])
		w.U32(uint32(len(vertices)))
		w.F32s(vertices)
		w.U32(uint32(len(mesh.Indices)))
		w.U32s(mesh.Indices)
	}
	return w.Bytes(), nil
}

func DecodeModel(payload []byte) ([]Mesh, error) {
	r := NewReader(payload)
	n := r.Count(8)
	meshes := make([]Mesh, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		var mesh Mesh
		mesh.Vertices = r.F32s(r.Count(4))
		mesh.Indices = r.U32s(r.Count(4))
		meshes = append(meshes, mesh)
	}
	return meshes, r.Done()
}
