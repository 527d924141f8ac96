package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-packer/engine/math"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

const quadOBJ = `# quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestDecodeOBJQuad(t *testing.T) {
	path := writeFile(t, t.TempDir(), "quad.obj", quadOBJ)

	scene, err := (&SceneLoader{}).DecodeScene(path)
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 1)

	m := scene.Meshes[0]
	require.Equal(t, "quad", m.Name)
	require.Equal(t, 4, m.VertexCount())
	require.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Indices)
	// texture coordinates are flipped to a top-left origin
	require.Equal(t, math.NewVec2(0, 1), m.TexCoords[0])
	require.Equal(t, math.NewVec2(1, 0), m.TexCoords[2])
	require.Equal(t, math.NewVec3(0, 0, 1), m.Normals[3])
	require.False(t, m.HasBones())
	require.False(t, scene.AllMeshesSkinned())
}

func TestDecodeOBJGeneratesNormalsAndNegativeIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	path := writeFile(t, t.TempDir(), "tri.obj", src)

	scene, err := (&SceneLoader{}).DecodeScene(path)
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 1)
	for _, n := range scene.Meshes[0].Normals {
		require.True(t, n.Compare(math.NewVec3(0, 0, 1), 1e-6))
	}
}

func TestDecodeOBJMultipleObjects(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
o a
f 1 2 3
o b
f 3 2 1
`
	path := writeFile(t, t.TempDir(), "two.obj", src)

	scene, err := (&SceneLoader{}).DecodeScene(path)
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 2)
	require.Equal(t, "a", scene.Meshes[0].Name)
	require.Equal(t, "b", scene.Meshes[1].Name)
}

func TestDecodeOBJErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := (&SceneLoader{}).DecodeScene(writeFile(t, dir, "bad.obj", "v 0 0 0\nf 1 2 3\n"))
	require.ErrorContains(t, err, "out of range")

	_, err = (&SceneLoader{}).DecodeScene(writeFile(t, dir, "empty.obj", "v 0 0 0\n"))
	require.ErrorContains(t, err, "no faces")

	_, err = (&SceneLoader{}).DecodeScene(writeFile(t, dir, "x.fbx", "binary"))
	require.Error(t, err)
}
