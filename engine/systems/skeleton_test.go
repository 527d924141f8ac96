package systems

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-packer/engine/assets"
	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
)

func TestDefinesSkeleton(t *testing.T) {
	require.True(t, DefinesSkeleton(riggedScene()))
	require.False(t, DefinesSkeleton(walkScene()))
	require.False(t, DefinesSkeleton(&loaders.Scene{}))

	mixed := riggedScene()
	mixed.Meshes = append(mixed.Meshes, &loaders.SceneMesh{Indices: []uint32{0}})
	require.False(t, DefinesSkeleton(mixed))
}

func TestSkeletonFromScene(t *testing.T) {
	skel := SkeletonFromScene("rig", riggedScene())
	require.Equal(t, 2, skel.Len())

	arm, ok := skel.Bone("arm")
	require.True(t, ok)
	require.EqualValues(t, 1, arm.ID)
	require.EqualValues(t, 0, arm.Parent)

	_, ok = skel.Bone("tail")
	require.False(t, ok)
}

func TestSkeletonResolver(t *testing.T) {
	js, err := NewJobSystem(3, 4)
	require.NoError(t, err)
	defer js.Shutdown()

	files := []assets.SourceFile{
		{Path: "/content/rig.obj", Rel: "rig.obj", Name: "rig"},
		{Path: "/content/walk.obj", Rel: "walk.obj", Name: "walk"},
		{Path: "/content/broken.obj", Rel: "broken.obj", Name: "broken"},
	}
	in := NewSkeletonResolver(js, fakeScenes{"rig": riggedScene(), "walk": walkScene()}).Resolve(files)

	require.Len(t, in.Scenes, 2)
	require.Contains(t, in.Scenes, "/content/walk.obj")

	_, ok := in.Skeletons.Lookup("rig")
	require.True(t, ok)
	_, ok = in.Skeletons.Lookup("walk")
	require.False(t, ok)
}

// slowScenes decodes by full path and holds back the paths in slow, so
// decoding finishes in a different order than files were found.
type slowScenes struct {
	scenes map[string]*loaders.Scene
	slow   map[string]bool
}

func (s slowScenes) DecodeScene(path string) (*loaders.Scene, error) {
	if s.slow[path] {
		time.Sleep(20 * time.Millisecond)
	}
	scene, ok := s.scenes[path]
	if !ok {
		return nil, errors.New("unreadable scene")
	}
	return scene, nil
}

func TestSkeletonResolverKeepsFirstDiscovered(t *testing.T) {
	js, err := NewJobSystem(2, 4)
	require.NoError(t, err)
	defer js.Shutdown()

	single := riggedScene()
	single.Bones = single.Bones[:1]
	for _, m := range single.Meshes {
		m.BoneIDs = [][4]int32{{0, -1, -1, -1}, {0, -1, -1, -1}, {0, -1, -1, -1}}
	}

	files := []assets.SourceFile{
		{Path: "/content/alt/hero.obj", Rel: "alt/hero.obj", Name: "hero"},
		{Path: "/content/rigs/hero.obj", Rel: "rigs/hero.obj", Name: "hero"},
	}
	decoder := slowScenes{
		scenes: map[string]*loaders.Scene{
			"/content/alt/hero.obj":  riggedScene(),
			"/content/rigs/hero.obj": single,
		},
		slow: map[string]bool{"/content/alt/hero.obj": true},
	}

	for i := 0; i < 3; i++ {
		in := NewSkeletonResolver(js, decoder).Resolve(files)
		skel, ok := in.Skeletons.Lookup("hero")
		require.True(t, ok)
		require.Equal(t, 2, skel.Len())
		require.Len(t, in.Scenes, 2)
	}
}
