package codec

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/math"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

type textureMap map[string]uint64

func (t textureMap) TextureID(name string) (uint64, bool) {
	id, ok := t[name]
	return id, ok
}

func TestEncodeRecordLayout(t *testing.T) {
	rec := EncodeRecord(0x0102030405060708, resources.AssetKindMaterial, "b", []byte{9, 9})

	require.Equal(t, uint64(0x0102030405060708), binary.LittleEndian.Uint64(rec[0:8]))
	require.Equal(t, uint16(5), binary.LittleEndian.Uint16(rec[8:10]))
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(rec[10:14]))
	require.Equal(t, byte('b'), rec[14])
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(rec[15:19]))
	require.Equal(t, []byte{9, 9}, rec[19:])

	got, err := ReadRecord(NewReader(rec))
	require.NoError(t, err)
	require.Equal(t, "b", got.Name)
	require.Equal(t, resources.AssetKindMaterial, got.Kind)
	require.Equal(t, rec, got.Raw)
}

func TestReadRecordTruncated(t *testing.T) {
	rec := EncodeRecord(1, resources.AssetKindTexture, "tex", []byte{1, 2, 3})
	_, err := ReadRecord(NewReader(rec[:len(rec)-1]))
	require.ErrorIs(t, err, ErrTruncated)
	require.ErrorIs(t, err, core.ErrCorruptInput)
}

func TestEncodeMaterial(t *testing.T) {
	refs := []loaders.MaterialTextureRef{{Type: resources.MaterialTextureAlbedo, Name: "a"}}

	payload, err := EncodeMaterial(refs, textureMap{"a": 77})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 4, 77, 0, 0, 0, 0, 0, 0, 0}, payload)

	decoded, err := DecodeMaterial(payload)
	require.NoError(t, err)
	require.Equal(t, []MaterialTexture{{Type: resources.MaterialTextureAlbedo, TextureID: 77}}, decoded)

	_, err = EncodeMaterial(refs, textureMap{})
	require.ErrorIs(t, err, core.ErrMissingDependency)
}

func TestEncodeShader(t *testing.T) {
	payload := EncodeShader(&loaders.ShaderSources{Vertex: "vs", Fragment: "fs"})
	require.Equal(t, []byte{
		3, 0, 0, 0, 'v', 's', 0,
		3, 0, 0, 0, 'f', 's', 0,
		0, 0, 0, 0,
	}, payload)

	src, err := DecodeShader(EncodeShader(&loaders.ShaderSources{Vertex: "v", Fragment: "f", Geometry: "g", HasGeometry: true}))
	require.NoError(t, err)
	require.Equal(t, &loaders.ShaderSources{Vertex: "v", Fragment: "f", Geometry: "g", HasGeometry: true}, src)

	cs, err := DecodeComputeShader(EncodeComputeShader("main"))
	require.NoError(t, err)
	require.Equal(t, "main", cs)
}

func TestEncodeTexture(t *testing.T) {
	payload := EncodeTexture(&loaders.ImageData{Width: 2, Height: 3, Channels: 4, Data: []byte{1, 2, 3}})

	tex, err := DecodeTexture(payload)
	require.NoError(t, err)
	require.Equal(t, &Texture{Width: 2, Height: 3, Channels: 4, Target: resources.TextureTarget2D, Data: []byte{1, 2, 3}}, tex)
}

func TestEncodeHDRTextureFlipsAndAppliesGamma(t *testing.T) {
	img := &loaders.HDRImage{Width: 1, Height: 2, Pixels: []float32{4, 4, 4, 0, 1, 0}}

	tex, err := DecodeTexture(EncodeHDRTexture(img, 2))
	require.NoError(t, err)
	require.Equal(t, resources.TextureTargetCubeMap, tex.Target)
	require.Equal(t, uint32(3), tex.Channels)

	r := NewReader(tex.Data)
	floats := r.F32s(6)
	require.NoError(t, r.Done())
	// the bottom row comes first, each value raised to 1/2
	require.Equal(t, []float32{0, 1, 0, 2, 2, 2}, floats)
}

func TestEncodeModel(t *testing.T) {
	scene := &loaders.Scene{Meshes: []*loaders.SceneMesh{{
		Positions: []math.Vec3{{X: 1, Y: 2, Z: 3}},
		Normals:   []math.Vec3{{Z: 1}},
		Indices:   []uint32{0, 0, 0},
	}}}

	payload, err := EncodeModel(scene)
	require.NoError(t, err)
	meshes, err := DecodeModel(payload)
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	require.Equal(t, []float32{1, 2, 3, 0, 0, 0, 0, 1}, meshes[0].Vertices)
	require.Equal(t, []uint32{0, 0, 0}, meshes[0].Indices)

	_, err = EncodeModel(&loaders.Scene{})
	require.ErrorIs(t, err, core.ErrDecodeFailure)
}

func testSkeleton() *resources.Skeleton {
	return resources.NewSkeleton("rig", []resources.Bone{
		{Name: "hips", ID: 0, Parent: -1, Offset: math.NewMat4Translation(math.NewVec3(0, -1, 0))},
		{Name: "spine", ID: 1, Parent: 0, Offset: math.NewMat4Scale(math.NewVec3(2, 2, 2))},
	}, math.NewMat4Translation(math.NewVec3(0, 0, 5)))
}

func TestSkeletalModelRoundTrip(t *testing.T) {
	scene := &loaders.Scene{
		Bones: []loaders.SceneBone{{Name: "spine"}, {Name: "hips"}},
		Meshes: []*loaders.SceneMesh{{
			Positions: []math.Vec3{{X: 1}, {Y: 1}, {Z: 1}},
			TexCoords: []math.Vec2{{X: 0.5, Y: 0.25}, {}, {}},
			Normals:   []math.Vec3{{Y: 1}, {Y: 1}, {Y: 1}},
			Indices:   []uint32{0, 1, 2},
			// scene bone 0 is "spine", which has skeleton id 1
			BoneIDs: [][4]int32{{0, -1, -1, -1}, {1, 0, -1, -1}, {-1, -1, -1, -1}},
			Weights: [][4]float32{{1}, {0.75, 0.25}, {}},
		}},
	}
	socket := resources.Socket{Name: "hand", Bone: "spine", Transform: math.NewMat4Translation(math.NewVec3(1, 2, 3))}

	payload, err := EncodeSkeletalModel(scene, testSkeleton(), []resources.Socket{socket})
	require.NoError(t, err)

	model, err := DecodeSkeletalModel(payload)
	require.NoError(t, err)
	require.Len(t, model.Meshes, 1)

	mesh := model.Meshes[0]
	require.Len(t, mesh.Vertices, 3)
	require.Equal(t, [FloatsPerVertex]float32{1, 0, 0, 0.5, 0.25, 0, 1, 0}, mesh.Vertices[0].Attributes)
	require.Equal(t, [4]int32{1, -1, -1, -1}, mesh.Vertices[0].BoneIDs)
	require.Equal(t, [4]int32{0, 1, -1, -1}, mesh.Vertices[1].BoneIDs)
	require.Equal(t, [4]float32{0.75, 0.25, 0, 0}, mesh.Vertices[1].Weights)
	require.Equal(t, [4]int32{-1, -1, -1, -1}, mesh.Vertices[2].BoneIDs)
	require.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	require.Equal(t, testSkeleton().Bones(), mesh.Bones)
	require.Equal(t, math.NewMat4Translation(math.NewVec3(0, 0, 5)), mesh.InverseRoot)
	require.Equal(t, []resources.Socket{socket}, model.Sockets)
}

func TestSkeletalModelWritesTransposedMatrices(t *testing.T) {
	scene := &loaders.Scene{Meshes: []*loaders.SceneMesh{{Positions: []math.Vec3{{}}, Indices: []uint32{0}}}}
	skel := resources.NewSkeleton("rig", nil, math.NewMat4Translation(math.NewVec3(7, 8, 9)))

	payload, err := EncodeSkeletalModel(scene, skel, nil)
	require.NoError(t, err)

	// mesh count, vertex count, one vertex, index count, one index, bone count
	off := 4 + 4 + SkinnedVertexSize + 4 + 4 + 4
	r := NewReader(payload[off : off+64])
	floats := r.F32s(16)
	require.Equal(t, []float32{7, 8, 9, 1}, floats[12:16])
	// empty socket table
	require.Equal(t, []byte{0, 0, 0, 0}, payload[off+64:])
}

func TestSkeletalModelUnknownBone(t *testing.T) {
	scene := &loaders.Scene{
		Bones:  []loaders.SceneBone{{Name: "tail"}},
		Meshes: []*loaders.SceneMesh{{Positions: []math.Vec3{{}}, Indices: []uint32{0}}},
	}
	_, err := EncodeSkeletalModel(scene, testSkeleton(), nil)
	require.ErrorIs(t, err, core.ErrMissingDependency)
}

func TestEncodeAnimationTextureLayout(t *testing.T) {
	anim := &loaders.SceneAnimation{
		Duration:       20,
		TicksPerSecond: 10,
		Channels: []loaders.AnimationChannel{
			{
				Node:      "spine",
				Positions: []loaders.VectorKey{{Time: 0, Value: math.NewVec3(1, 2, 3)}, {Time: 20, Value: math.NewVec3(4, 5, 6)}},
				Rotations: []loaders.QuatKey{{Time: 10, Value: math.Quaternion{X: 0.1, Y: 0.2, Z: 0.3, W: 0.4}}},
			},
			{
				Node:   "hips",
				Scales: []loaders.VectorKey{{Time: 10, Value: math.NewVec3(2, 2, 2)}},
			},
			{
				Node:      "tail",
				Positions: []loaders.VectorKey{{Time: 5, Value: math.NewVec3(9, 9, 9)}},
			},
		},
	}

	payload, warnings, err := EncodeAnimation(anim, testSkeleton(), "wxyz")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "tail")

	a, err := DecodeAnimation(payload)
	require.NoError(t, err)
	require.Equal(t, float32(20), a.Duration)
	require.Equal(t, float32(10), a.TicksPerSecond)
	require.Equal(t, uint32(2), a.BoneCount)
	// the missing bone's key time still joins the timeline
	require.Equal(t, []float32{0, 0.5, 1, 2}, a.Timestamps)
	require.Len(t, a.Texels, 2*3*4*4)

	require.Equal(t, [4]float32{1, 2, 3, 0}, a.Texel(1, SlotPosition, 0))
	require.Equal(t, [4]float32{}, a.Texel(1, SlotPosition, 2))
	require.Equal(t, [4]float32{4, 5, 6, 0}, a.Texel(1, SlotPosition, 3))
	require.Equal(t, [4]float32{0.4, 0.1, 0.2, 0.3}, a.Texel(1, SlotRotation, 2))
	require.Equal(t, [4]float32{2, 2, 2, 0}, a.Texel(0, SlotScale, 2))
	require.Equal(t, [4]float32{}, a.Texel(0, SlotPosition, 0))

	// flattened index ((bone*3+slot)*T + frame)*4 + c
	require.Equal(t, float32(4), a.Texels[((1*3+0)*4+3)*4+0])
}

func TestEncodeAnimationRejectsBadRotationOrder(t *testing.T) {
	_, _, err := EncodeAnimation(&loaders.SceneAnimation{}, testSkeleton(), "xxyz")
	require.Error(t, err)
	require.True(t, ValidRotationOrder("zyxw"))
	require.False(t, ValidRotationOrder("xyz"))
}

func TestBitmapFontRoundTrip(t *testing.T) {
	font := &loaders.BitmapFont{
		Face:     "Arial",
		Size:     32,
		Pages:    []loaders.BitmapFontPage{{ID: 0, Texture: "arial_0"}},
		Glyphs:   []loaders.FontGlyph{{Codepoint: 65, Width: 10, XOffset: -1, PageID: 0}},
		Kernings: []loaders.FontKerning{{Codepoint0: 65, Codepoint1: 66, Amount: -2}},
	}

	payload, err := EncodeBitmapFont(font, textureMap{"arial_0": 12})
	require.NoError(t, err)
	decoded, err := DecodeFont(payload)
	require.NoError(t, err)
	require.Equal(t, resources.FontTypeBitmap, decoded.Type)
	require.Equal(t, []FontPage{{ID: 0, TextureID: 12}}, decoded.Pages)
	require.Equal(t, font.Glyphs, decoded.Glyphs)
	require.Equal(t, font.Kernings, decoded.Kernings)

	_, err = EncodeBitmapFont(font, textureMap{})
	require.ErrorIs(t, err, core.ErrMissingDependency)

	sys, err := DecodeFont(EncodeSystemFont(&loaders.SystemFont{Faces: []string{"Go Regular"}, Data: []byte{1, 2}}))
	require.NoError(t, err)
	require.Equal(t, []string{"Go Regular"}, sys.Faces)
	require.Equal(t, []byte{1, 2}, sys.Data)
}
