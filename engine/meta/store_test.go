package meta

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/math"
)

func newTestStore() *Store {
	return NewStore(".meta", 3, time.Millisecond)
}

func TestStorePath(t *testing.T) {
	s := NewStore("meta", 0, 0)
	require.Equal(t, ".meta", s.Extension())
	require.Equal(t, filepath.Join("a", "rock.meta"), s.Path(filepath.Join("a", "rock.png")))
	require.True(t, s.IsSidecar("x/rock.META"))
	require.False(t, s.IsSidecar("x/rock.png"))
}

func TestLoadMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore()
	src := filepath.Join(dir, "a.png")

	rec, err := s.Load(src)
	require.NoError(t, err)
	require.Equal(t, &Record{}, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.meta"), []byte("  \n"), 0o644))
	rec, err = s.Load(src)
	require.NoError(t, err)
	require.False(t, rec.HasID())
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.meta"), []byte("{not json"), 0o644))

	_, err := s.Load(filepath.Join(dir, "a.png"))
	require.ErrorIs(t, err, core.ErrCorruptInput)
}

func TestSaveKeepsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore()
	src := filepath.Join(dir, "hero.gltf")
	sidecar := `{"author": "kim", "skeleton": "rig", "override_skeletal": false, "tags": [1, 2]}`
	require.NoError(t, os.WriteFile(s.Path(src), []byte(sidecar), 0o644))

	rec, err := s.Load(src)
	require.NoError(t, err)
	require.Equal(t, "rig", rec.Skeleton)
	require.NotNil(t, rec.OverrideSkeletal)
	require.False(t, *rec.OverrideSkeletal)

	rec.Hash = "abc"
	rec.AssetID = 18446744073709551557
	require.NoError(t, s.Save(src, rec))

	data, err := os.ReadFile(s.Path(src))
	require.NoError(t, err)
	require.Contains(t, string(data), "\n    \"asset_id\": 18446744073709551557")

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	require.Equal(t, "kim", generic["author"])
	require.Equal(t, []interface{}{float64(1), float64(2)}, generic["tags"])
	require.Equal(t, "abc", generic["hash"])
	require.NotContains(t, generic, "sockets")

	again, err := s.Load(src)
	require.NoError(t, err)
	require.Equal(t, rec.AssetID, again.AssetID)
	require.Len(t, again.Extra, 2)
	require.Contains(t, again.Extra, "author")

	leftovers, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestSocketList(t *testing.T) {
	rec := &Record{Sockets: []SocketSpec{{
		Name:      "hand",
		Bone:      "wrist",
		Transform: []float32{1, 0, 0, 5, 0, 1, 0, 6, 0, 0, 1, 7, 0, 0, 0, 1},
	}}}
	sockets, err := rec.SocketList()
	require.NoError(t, err)
	require.Len(t, sockets, 1)
	require.Equal(t, math.NewMat4Translation(math.NewVec3(5, 6, 7)), sockets[0].Transform)

	rec.Sockets[0].Transform = []float32{1}
	_, err = rec.SocketList()
	require.ErrorIs(t, err, core.ErrCorruptInput)
}
