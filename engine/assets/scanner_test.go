package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/meta"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

func testTable(t *testing.T) *resources.ExtensionTable {
	t.Helper()
	table, err := resources.NewExtensionTable(map[resources.SourceClass][]string{
		resources.ClassTexture:  {".png"},
		resources.ClassModel:    {".obj"},
		resources.ClassMaterial: {".material"},
	})
	require.NoError(t, err)
	return table
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestScanOrderAndClasses(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.material"))
	touch(t, filepath.Join(root, "a.png"))
	touch(t, filepath.Join(root, "a.meta"))
	touch(t, filepath.Join(root, "sub", "rock.obj"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "out.pack"))

	s := NewScanner(testTable(t), meta.NewStore(".meta", 1, 0), filepath.Join(root, "out.pack"))
	res, err := s.Scan(root)
	require.NoError(t, err)

	var rels []string
	for _, f := range res.Files {
		rels = append(rels, f.Rel)
	}
	require.Equal(t, []string{"a.png", "b.material", "sub/rock.obj"}, rels)
	require.Equal(t, 2, res.Ignored)
	require.Empty(t, res.Rejected)

	require.Equal(t, "rock", res.Files[2].Name)
	require.Equal(t, resources.StageModels, res.Files[2].Stage())
	require.Len(t, res.ByStage(resources.StageTextures), 1)
	require.Len(t, res.ByStage(resources.StageOthers), 1)
}

func TestScanRejectsSharedSidecar(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.obj"))
	touch(t, filepath.Join(root, "a.png"))

	res, err := NewScanner(testTable(t), meta.NewStore(".meta", 1, 0)).Scan(root)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	require.Equal(t, "a.obj", res.Files[0].Rel)
	require.Len(t, res.Rejected, 1)
	require.Equal(t, filepath.Join(root, "a.png"), res.Rejected[0].Path)
	require.ErrorIs(t, res.Rejected[0], core.ErrSharedSidecar)
}

func TestAssetNameIsNFC(t *testing.T) {
	require.Equal(t, "caf\u00e9", AssetName(filepath.Join("x", "cafe\u0301.png")))
	require.Equal(t, "archive.tar", AssetName("archive.tar.png"))
}

func TestWatcherBatchesChanges(t *testing.T) {
	root := t.TempDir()
	store := meta.NewStore(".meta", 1, 0)
	w, err := NewWatcher(root, 50*time.Millisecond, store.IsSidecar)
	require.NoError(t, err)
	defer w.Close()

	touch(t, filepath.Join(root, "a.png"))
	touch(t, filepath.Join(root, "a.meta"))
	touch(t, filepath.Join(root, "b.png"))

	select {
	case batch := <-w.Changes():
		require.Equal(t, []string{filepath.Join(root, "a.png"), filepath.Join(root, "b.png")}, batch)
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch received")
	}

	require.NoError(t, w.Close())
	_, open := <-w.Changes()
	require.False(t, open)
}
