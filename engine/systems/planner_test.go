package systems

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-packer/engine/assets"
	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
	"github.com/spaghettifunk/anima-packer/engine/codec"
	"github.com/spaghettifunk/anima-packer/engine/config"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/math"
	"github.com/spaghettifunk/anima-packer/engine/meta"
	"github.com/spaghettifunk/anima-packer/engine/pack"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func writeText(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

const materialA = `{"textures": [{"type": "albedo", "name": "a"}]}`

type testEnv struct {
	root   string
	output string
	store  *meta.Store
	config PlannerConfig
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	output := filepath.Join(t.TempDir(), "game.pack")
	cfg := config.Default()
	table, err := cfg.ExtensionTable()
	require.NoError(t, err)
	store := meta.NewStore(cfg.Meta.Extension, 1, 0)
	return &testEnv{
		root:   root,
		output: output,
		store:  store,
		config: PlannerConfig{
			Options: Options{
				Root:              root,
				Output:            output,
				RebuildDependents: true,
				HDRGamma:          2.2,
				RotationOrder:     "xyzw",
				Workers:           4,
				QueueSize:         8,
			},
			Scanner: assets.NewScanner(table, store, output),
			Store:   store,
			IDs:     core.NewSeededIDGenerator(42),
		},
	}
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.root, name)
}

func (e *testEnv) build(t *testing.T, index pack.Index) (*Report, []codec.Record) {
	t.Helper()
	p, err := NewPlanner(e.config)
	require.NoError(t, err)
	report, err := p.Build(index)
	require.NoError(t, err)
	_, records, err := pack.ReadAll(report.Pack.Bytes())
	require.NoError(t, err)
	return report, records
}

func indexOf(t *testing.T, report *Report) pack.Index {
	t.Helper()
	idx, err := pack.ReadIndex(report.Pack.Bytes())
	require.NoError(t, err)
	return idx
}

func statusOf(report *Report, rel string) core.BuildStatus {
	for _, r := range report.Results {
		if r.File.Rel == rel {
			return r.Status
		}
	}
	return core.BuildStatus(255)
}

func TestTextureAndMaterial(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.path("a.png"), color.NRGBA{R: 255, A: 255})
	writeText(t, env.path("b.material"), materialA)

	report, records := env.build(t, nil)
	require.Empty(t, report.Failures)
	require.Len(t, records, 2)

	require.Equal(t, "a", records[0].Name)
	require.Equal(t, resources.AssetKindTexture, records[0].Kind)
	tex, err := codec.DecodeTexture(records[0].Payload)
	require.NoError(t, err)
	require.Equal(t, uint32(2), tex.Width)
	require.Equal(t, uint32(3), tex.Channels)
	require.Equal(t, resources.TextureTarget2D, tex.Target)
	original, err := os.ReadFile(env.path("a.png"))
	require.NoError(t, err)
	require.Equal(t, original, tex.Data)

	require.Equal(t, "b", records[1].Name)
	require.Equal(t, resources.AssetKindMaterial, records[1].Kind)
	textures, err := codec.DecodeMaterial(records[1].Payload)
	require.NoError(t, err)
	require.Equal(t, []codec.MaterialTexture{{Type: 4, TextureID: records[0].ID}}, textures)

	rec, err := env.store.Load(env.path("a.png"))
	require.NoError(t, err)
	require.Equal(t, records[0].ID, rec.AssetID)
	require.Len(t, rec.Hash, 64)

	require.Equal(t, 2, report.Metrics.Count(core.StatusAdded))
	require.NotEmpty(t, report.BuildID)
}

func TestBuildIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.path("a.png"), color.NRGBA{G: 255, A: 255})
	writeText(t, env.path("b.material"), materialA)

	first, _ := env.build(t, nil)
	second, _ := env.build(t, indexOf(t, first))
	third, _ := env.build(t, indexOf(t, second))

	require.Equal(t, first.Pack.Bytes(), second.Pack.Bytes())
	require.Equal(t, second.Pack.Bytes(), third.Pack.Bytes())
	require.Equal(t, core.StatusSkipped, statusOf(second, "a.png"))
	require.Equal(t, core.StatusUpdated, statusOf(second, "b.material"))
}

func TestRebuildIsHashGated(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.path("a.png"), color.NRGBA{B: 255, A: 255})
	writePNG(t, env.path("c.png"), color.NRGBA{R: 9, A: 255})

	first, firstRecords := env.build(t, nil)

	writePNG(t, env.path("a.png"), color.NRGBA{B: 128, A: 255})
	second, secondRecords := env.build(t, indexOf(t, first))

	require.Equal(t, core.StatusUpdated, statusOf(second, "a.png"))
	require.Equal(t, core.StatusSkipped, statusOf(second, "c.png"))
	require.Equal(t, firstRecords[0].ID, secondRecords[0].ID)
	require.NotEqual(t, firstRecords[0].Payload, secondRecords[0].Payload)
	require.Equal(t, firstRecords[1].Raw, secondRecords[1].Raw)

	env.config.Options.Force = true
	third, _ := env.build(t, indexOf(t, second))
	require.Equal(t, core.StatusUpdated, statusOf(third, "c.png"))
	require.Equal(t, second.Pack.Bytes(), third.Pack.Bytes())
}

func TestIDsSurviveALostPack(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.path("a.png"), color.NRGBA{A: 255})
	writeText(t, env.path("b.material"), materialA)

	first, _ := env.build(t, nil)

	env.config.IDs = core.NewSeededIDGenerator(7)
	second, _ := env.build(t, nil)

	require.Equal(t, first.Pack.Bytes(), second.Pack.Bytes())
	require.Equal(t, core.StatusAdded, statusOf(second, "a.png"))
}

func TestIDSurvivesALostHash(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.path("a.png"), color.NRGBA{R: 3, A: 255})

	first, firstRecords := env.build(t, nil)

	rec, err := env.store.Load(env.path("a.png"))
	require.NoError(t, err)
	rec.Hash = ""
	require.NoError(t, env.store.Save(env.path("a.png"), rec))

	env.config.IDs = core.NewSeededIDGenerator(7)
	second, secondRecords := env.build(t, indexOf(t, first))

	require.Equal(t, core.StatusUpdated, statusOf(second, "a.png"))
	require.Equal(t, firstRecords[0].ID, secondRecords[0].ID)
	require.Equal(t, first.Pack.Bytes(), second.Pack.Bytes())

	rec, err = env.store.Load(env.path("a.png"))
	require.NoError(t, err)
	require.Len(t, rec.Hash, 64)
}

func TestFailedBuildDoesNotRecordHash(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.path("a.png"), color.NRGBA{G: 7, A: 255})

	p, err := NewPlanner(env.config)
	require.NoError(t, err)
	_, err = p.Run()
	require.NoError(t, err)
	packed, err := os.ReadFile(env.output)
	require.NoError(t, err)
	before, err := env.store.Load(env.path("a.png"))
	require.NoError(t, err)

	writeText(t, env.path("a.png"), "not an image")

	// The failed run writes no pack, so the previous one stays on disk.
	for i := 0; i < 2; i++ {
		report, err := p.Run()
		require.ErrorIs(t, err, core.ErrNothingBuilt)
		require.Len(t, report.Failures, 1)
		require.ErrorIs(t, report.Failures[0], core.ErrDecodeFailure)
		require.Equal(t, core.StatusFailed, statusOf(report, "a.png"))

		data, err := os.ReadFile(env.output)
		require.NoError(t, err)
		require.Equal(t, packed, data)

		rec, err := env.store.Load(env.path("a.png"))
		require.NoError(t, err)
		require.Equal(t, before.Hash, rec.Hash)
		require.Equal(t, before.AssetID, rec.AssetID)
	}
}

func TestMissingTextureFailsOnlyTheMaterial(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.path("a.png"), color.NRGBA{A: 255})
	writeText(t, env.path("b.material"), `{"textures": [{"type": "normal", "name": "nope"}]}`)

	report, records := env.build(t, nil)
	require.Len(t, records, 1)
	require.Equal(t, "a", records[0].Name)
	require.Len(t, report.Failures, 1)
	require.Equal(t, env.path("b.material"), report.Failures[0].Path)
	require.ErrorIs(t, report.Failures[0], core.ErrMissingDependency)
	require.Equal(t, 1, report.Metrics.Count(core.StatusFailed))
}

type fakeScenes map[string]*loaders.Scene

func (f fakeScenes) DecodeScene(path string) (*loaders.Scene, error) {
	s, ok := f[assets.AssetName(path)]
	if !ok {
		return nil, errors.New("unreadable scene")
	}
	return s, nil
}

func riggedScene() *loaders.Scene {
	return &loaders.Scene{
		Bones: []loaders.SceneBone{
			{Name: "root", Parent: -1, Offset: math.NewMat4Identity()},
			{Name: "arm", Parent: 0, Offset: math.NewMat4Translation(math.NewVec3(0, -1, 0))},
		},
		Meshes: []*loaders.SceneMesh{{
			Positions: []math.Vec3{{X: 1}, {Y: 1}, {Z: 1}},
			Indices:   []uint32{0, 1, 2},
			BoneIDs:   [][4]int32{{0, -1, -1, -1}, {1, -1, -1, -1}, {1, 0, -1, -1}},
			Weights:   [][4]float32{{1}, {1}, {0.5, 0.5}},
		}},
		InverseRoot: math.NewMat4Identity(),
	}
}

func walkScene() *loaders.Scene {
	return &loaders.Scene{
		Animations: []*loaders.SceneAnimation{{
			Name:     "walk",
			Duration: 10,
			Channels: []loaders.AnimationChannel{
				{Node: "arm", Positions: []loaders.VectorKey{{Time: 0, Value: math.NewVec3(1, 0, 0)}, {Time: 5, Value: math.NewVec3(2, 0, 0)}}},
				{Node: "tail", Positions: []loaders.VectorKey{{Time: 5, Value: math.NewVec3(3, 0, 0)}}},
			},
		}},
	}
}

func staticScene() *loaders.Scene {
	return &loaders.Scene{Meshes: []*loaders.SceneMesh{{
		Positions: []math.Vec3{{}, {X: 1}, {Y: 1}},
		Normals:   []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}},
		Indices:   []uint32{0, 1, 2},
	}}}
}

func TestStageOrderAndSkeletons(t *testing.T) {
	env := newTestEnv(t)
	env.config.Decoders.Scene = fakeScenes{
		"0crate": staticScene(),
		"rig":    riggedScene(),
		"walk":   walkScene(),
		"hero":   riggedScene(),
		"limp":   walkScene(),
	}
	writeText(t, env.path("0crate.obj"), "crate")
	writeText(t, env.path("rig.obj"), "rig")
	writeText(t, env.path("walk.obj"), "walk")
	writeText(t, env.path("walk.meta"), `{"skeleton": "rig"}`)
	writeText(t, env.path("hero.obj"), "hero")
	writeText(t, env.path("hero.meta"), `{"skeleton": "rig", "sockets": [{"name": "hand", "bone": "arm", "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]}]}`)
	writeText(t, env.path("limp.obj"), "limp")
	writeText(t, env.path("b.material"), materialA)
	writeText(t, env.path("vs.glsl"), "void main() {}")
	writeText(t, env.path("s.shader"), `{"vs": "vs.glsl", "fs": "vs.glsl"}`)
	writePNG(t, env.path("z.png"), color.NRGBA{A: 255})
	writePNG(t, env.path("a.png"), color.NRGBA{A: 255})

	report, records := env.build(t, nil)

	var order []string
	for _, r := range records {
		order = append(order, r.Name+":"+r.Kind.String())
	}
	require.Equal(t, []string{
		"a:texture", "z:texture",
		"b:material", "s:shader",
		"0crate:model", "hero:skeletal_model", "rig:skeletal_model", "walk:animation",
	}, order)

	require.Len(t, report.Failures, 1)
	require.Equal(t, env.path("limp.obj"), report.Failures[0].Path)
	require.ErrorIs(t, report.Failures[0], core.ErrMissingDependency)

	hero, err := codec.DecodeSkeletalModel(records[5].Payload)
	require.NoError(t, err)
	require.Len(t, hero.Sockets, 1)
	require.Equal(t, "arm", hero.Sockets[0].Bone)
	require.Equal(t, [4]int32{1, 0, -1, -1}, hero.Meshes[0].Vertices[2].BoneIDs)

	anim, err := codec.DecodeAnimation(records[7].Payload)
	require.NoError(t, err)
	require.Equal(t, float32(codec.DefaultTicksPerSecond), anim.TicksPerSecond)
	require.Equal(t, []float32{0, 0.2}, anim.Timestamps)
	require.Equal(t, [4]float32{2, 0, 0, 0}, anim.Texel(1, codec.SlotPosition, 1))
	require.Len(t, report.Warnings(), 1)
	require.Contains(t, report.Warnings()[0], "tail")
}

func TestOverrideSkeletalForcesStaticModel(t *testing.T) {
	env := newTestEnv(t)
	env.config.Decoders.Scene = fakeScenes{"rig": riggedScene()}
	writeText(t, env.path("rig.obj"), "rig")
	writeText(t, env.path("rig.meta"), `{"override_skeletal": false}`)

	_, records := env.build(t, nil)
	require.Len(t, records, 1)
	require.Equal(t, resources.AssetKindModel, records[0].Kind)
}

type panickyImages struct {
	loaders.ImageLoader
}

func (p *panickyImages) DecodeImage(path string) (*loaders.ImageData, error) {
	if assets.AssetName(path) == "boom" {
		panic("decoder exploded")
	}
	return p.ImageLoader.DecodeImage(path)
}

func TestPanickingDecoderFailsOneFile(t *testing.T) {
	env := newTestEnv(t)
	env.config.Decoders.Image = &panickyImages{}
	writePNG(t, env.path("a.png"), color.NRGBA{A: 255})
	writePNG(t, env.path("boom.png"), color.NRGBA{A: 255})

	report, records := env.build(t, nil)
	require.Len(t, records, 1)
	require.Len(t, report.Failures, 1)
	require.ErrorIs(t, report.Failures[0], ErrJobPanic)
}

func TestNothingBuilt(t *testing.T) {
	env := newTestEnv(t)
	writeText(t, env.path("broken.png"), "not a png")

	p, err := NewPlanner(env.config)
	require.NoError(t, err)
	report, err := p.Build(nil)
	require.ErrorIs(t, err, core.ErrNothingBuilt)
	require.Len(t, report.Failures, 1)
	require.ErrorIs(t, report.Failures[0], core.ErrDecodeFailure)

	empty := newTestEnv(t)
	p, err = NewPlanner(empty.config)
	require.NoError(t, err)
	report, err = p.Build(nil)
	require.NoError(t, err)
	require.Equal(t, 0, report.Pack.Count())
}

func TestDuplicateIDFailsLaterFile(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.path("a.png"), color.NRGBA{A: 255})
	writePNG(t, env.path("b.png"), color.NRGBA{A: 255})
	writeText(t, env.path("a.meta"), `{"asset_id": 99}`)
	writeText(t, env.path("b.meta"), `{"asset_id": 99}`)

	report, records := env.build(t, nil)
	require.Len(t, records, 1)
	require.Equal(t, "a", records[0].Name)
	require.Len(t, report.Failures, 1)
	require.ErrorIs(t, report.Failures[0], core.ErrDuplicateID)
	require.Equal(t, 1, report.Metrics.Count(core.StatusAdded))
	require.Equal(t, 1, report.Metrics.Count(core.StatusFailed))

	rec, err := env.store.Load(env.path("b.png"))
	require.NoError(t, err)
	require.False(t, rec.HasID())

	_, records = env.build(t, indexOf(t, report))
	require.Len(t, records, 2)
}

func TestSharedSidecarIsRejected(t *testing.T) {
	env := newTestEnv(t)
	env.config.Decoders.Scene = fakeScenes{"a": staticScene()}
	writePNG(t, env.path("a.png"), color.NRGBA{A: 255})
	writeText(t, env.path("a.obj"), "a")

	report, records := env.build(t, nil)
	require.Len(t, records, 1)
	require.Equal(t, resources.AssetKindModel, records[0].Kind)
	require.Len(t, report.Failures, 1)
	require.ErrorIs(t, report.Failures[0], core.ErrSharedSidecar)
}

func TestCorruptSidecarAsksOperator(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.path("a.png"), color.NRGBA{A: 255})
	writeText(t, env.path("a.meta"), `{"hash": `)

	env.config.Prompter = core.StaticPrompter(false)
	p, err := NewPlanner(env.config)
	require.NoError(t, err)
	_, err = p.Build(nil)
	require.ErrorIs(t, err, core.ErrAborted)

	env.config.Prompter = core.StaticPrompter(true)
	_, records := env.build(t, nil)
	require.Len(t, records, 1)
	rec, err := env.store.Load(env.path("a.png"))
	require.NoError(t, err)
	require.Equal(t, records[0].ID, rec.AssetID)
}

func TestRunWritesPackUnderLock(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.path("a.png"), color.NRGBA{A: 255})

	p, err := NewPlanner(env.config)
	require.NoError(t, err)
	report, err := p.Run()
	require.NoError(t, err)

	data, err := os.ReadFile(env.output)
	require.NoError(t, err)
	require.Equal(t, report.Pack.Bytes(), data)

	lock, err := pack.AcquireLock(env.output)
	require.NoError(t, err)
	_, err = p.Run()
	require.ErrorIs(t, err, pack.ErrLocked)
	require.NoError(t, lock.Release())

	require.NoError(t, os.WriteFile(env.output, []byte("garbage"), 0o644))
	_, err = p.Run()
	require.ErrorIs(t, err, core.ErrAborted)

	env.config.Prompter = core.StaticPrompter(true)
	p, err = NewPlanner(env.config)
	require.NoError(t, err)
	_, err = p.Run()
	require.NoError(t, err)
}
