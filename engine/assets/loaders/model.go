package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/math"
)

// Scene is the decoded content of a model file.
type Scene struct {
	Meshes     []*SceneMesh
	Bones      []SceneBone
	Animations []*SceneAnimation
	// InverseRoot is the inverse of the root node transform.
	InverseRoot math.Mat4
}

// SceneBone is one joint. Parent indexes Scene.Bones, -1 for roots.
type SceneBone struct {
	Name   string
	Parent int
	Offset math.Mat4
}

// SceneMesh holds per-vertex streams of equal length. BoneIDs index
// Scene.Bones, -1 marks an unused influence. BoneIDs is nil when the mesh is
// not skinned.
type SceneMesh struct {
	Name      string
	Positions []math.Vec3
	TexCoords []math.Vec2
	Normals   []math.Vec3
	Indices   []uint32
	BoneIDs   [][4]int32
	Weights   [][4]float32
}

func (m *SceneMesh) VertexCount() int {
	return len(m.Positions)
}

func (m *SceneMesh) HasBones() bool {
	return len(m.BoneIDs) > 0
}

type VectorKey struct {
	Time  float32
	Value math.Vec3
}

type QuatKey struct {
	Time  float32
	Value math.Quaternion
}

// AnimationChannel holds the keys targeting one node, times in ticks.
type AnimationChannel struct {
	Node      string
	Positions []VectorKey
	Rotations []QuatKey
	Scales    []VectorKey
}

type SceneAnimation struct {
	Name           string
	Duration       float32
	TicksPerSecond float32
	Channels       []AnimationChannel
}

// AllMeshesSkinned reports whether the scene has meshes and every one of them has bones.
func (s *Scene) AllMeshesSkinned() bool {
	if len(s.Meshes) == 0 {
		return false
	}
	for _, m := range s.Meshes {
		if !m.HasBones() {
			return false
		}
	}
	return true
}

// BoneIndex returns the index of the named bone or -1.
func (s *Scene) BoneIndex(name string) int {
	for i, b := range s.Bones {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// SceneLoader dispatches on the file extension.
type SceneLoader struct{}

func (sl *SceneLoader) DecodeScene(path string) (*Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return decodeOBJ(path)
	case ".gltf", ".glb":
		return decodeGLTF(path)
	default:
		return nil, fmt.Errorf("%w: no scene decoder for %q", core.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func (m *SceneMesh) validate() error {
	n := len(m.Positions)
	if len(m.TexCoords) != 0 && len(m.TexCoords) != n {
		return fmt.Errorf("mesh %q: %d texcoords for %d vertices", m.Name, len(m.TexCoords), n)
	}
	if len(m.Normals) != 0 && len(m.Normals) != n {
		return fmt.Errorf("mesh %q: %d normals for %d vertices", m.Name, len(m.Normals), n)
	}
	if m.HasBones() && (len(m.BoneIDs) != n || len(m.Weights) != n) {
		return fmt.Errorf("mesh %q: bone streams do not match %d vertices", m.Name, n)
	}
	for _, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("mesh %q: index %d out of range (%d vertices)", m.Name, idx, n)
		}
	}
	return nil
}

// generateNormals fills smooth per-vertex normals from triangle faces.
func (m *SceneMesh) generateNormals() {
	normals := make([]math.Vec3, len(m.Positions))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		p0, p1, p2 := m.Positions[a], m.Positions[b], m.Positions[c]
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	m.Normals = normals
}
