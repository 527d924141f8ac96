package codec

import (
	"fmt"

	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/math"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// SkinnedVertexSize is the byte size of one skinned vertex: 8 floats, 4 bone ids, 4 weights.
const SkinnedVertexSize = 64

// SkinnedVertex is a decoded skeletal vertex.
type SkinnedVertex struct {
	Attributes [FloatsPerVertex]float32
	BoneIDs    [4]int32
	Weights    [4]float32
}

type SkinnedMesh struct {
	Vertices    []SkinnedVertex
	Indices     []uint32
	Bones       []resources.Bone
	InverseRoot math.Mat4
}

type SkeletalModel struct {
	Meshes  []SkinnedMesh
	Sockets []resources.Socket
}

// EncodeSkeletalModel writes the meshes of scene bound to skel. Vertex bone
// references are remapped from scene bone indices to skeleton ids by bone
// name. A scene bone the skeleton does not know is a missing dependency.
func EncodeSkeletalModel(scene *loaders.Scene, skel *resources.Skeleton, sockets []resources.Socket) ([]byte, error) {
	if len(scene.Meshes) == 0 {
		return nil, fmt.Errorf("%w: model has no meshes", core.ErrDecodeFailure)
	}

	remap := make([]int32, len(scene.Bones))
	for i, b := range scene.Bones {
		bone, ok := skel.Bone(b.Name)
		if !ok {
			return nil, fmt.Errorf("%w: bone %q is not part of skeleton %q", core.ErrMissingDependency, b.Name, skel.Name)
		}
		remap[i] = bone.ID
	}

	bones := skel.Bones()
	w := NewWriter(4096)
	w.U32(uint32(len(scene.Meshes)))
	var attrs []float32
	for _, mesh := range scene.Meshes {
		attrs = interleave(mesh, attrs[:0])
		w.U32(uint32(mesh.VertexCount()))
		for v := 0; v < mesh.VertexCount(); v++ {
			w.F32s(attrs[v*FloatsPerVertex : (v+1)*FloatsPerVertex])
			ids, weights := [4]int32{-1, -1, -1, -1}, [4]float32{}
			if mesh.HasBones() {
				for k := 0; k < 4; k++ {
					idx := mesh.BoneIDs[v][k]
					if idx < 0 || int(idx) >= len(remap) {
						continue
					}
					ids[k] = remap[idx]
					weights[k] = mesh.Weights[v][k]
				}
			}
			for _, id := range ids {
				w.I32(id)
			}
			w.F32s(weights[:])
		}
		w.U32(uint32(len(mesh.Indices)))
		w.U32s(mesh.Indices)

		w.U32(uint32(len(bones)))
		for _, b := range bones {
			w.Str(b.Name)
			w.I32(b.ID)
			w.I32(b.Parent)
			w.Mat4(b.Offset)
		}
		w.Mat4(skel.InverseRoot)
	}

	w.U32(uint32(len(sockets)))
	for _, s := range sockets {
		w.Str(s.Name)
		w.Str(s.Bone)
		w.Mat4(s.Transform)
	}
	return w.Bytes(), nil
}

func DecodeSkeletalModel(payload []byte) (*SkeletalModel, error) {
	r := NewReader(payload)
	model := &SkeletalModel{}
	n := r.Count(4)
	for i := 0; i < n && r.Err() == nil; i++ {
		var mesh SkinnedMesh
		vc := r.Count(SkinnedVertexSize)
		mesh.Vertices = make([]SkinnedVertex, vc)
		for v := range mesh.Vertices {
			copy(mesh.Vertices[v].Attributes[:], r.F32s(FloatsPerVertex))
			for k := 0; k < 4; k++ {
				mesh.Vertices[v].BoneIDs[k] = r.I32()
			}
			copy(mesh.Vertices[v].Weights[:], r.F32s(4))
		}
		mesh.Indices = r.U32s(r.Count(4))
		bc := r.Count(4 + 4 + 4 + 64)
		for b := 0; b < bc && r.Err() == nil; b++ {
			mesh.Bones = append(mesh.Bones, resources.Bone{
				Name:   r.Str(),
				ID:     r.I32(),
				Parent: r.I32(),
				Offset: r.Mat4(),
			})
		}
		mesh.InverseRoot = r.Mat4()
		model.Meshes = append(model.Meshes, mesh)
	}
	sc := r.Count(4 + 4 + 64)
	for s := 0; s < sc && r.Err() == nil; s++ {
		model.Sockets = append(model.Sockets, resources.Socket{
			Name:      r.Str(),
			Bone:      r.Str(),
			Transform: r.Mat4(),
		})
	}
	return model, r.Done()
}
