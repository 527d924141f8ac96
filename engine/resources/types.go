package resources

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AssetKind is the u16 tag stored in every pack record.
type AssetKind uint16

/** @brief Pre-defined asset kinds. Values are part of the pack format. */
const (
	/** @brief No kind, never written. */
	AssetKindNone AssetKind = iota
	/** @brief 2D texture or HDR environment map. */
	AssetKindTexture
	/** @brief Vertex/fragment/geometry shader triple. */
	AssetKindShader
	/** @brief Static mesh collection. */
	AssetKindModel
	/** @brief Skinned mesh collection with bone table and sockets. */
	AssetKindSkeletalModel
	/** @brief Material, a list of typed texture references. */
	AssetKindMaterial
	/** @brief Skeletal animation baked into a texture. */
	AssetKindAnimation
	/** @brief Reserved. */
	AssetKindSound
	/** @brief Bitmap or system font. */
	AssetKindFont
	/** @brief Reserved. */
	AssetKindPrefab
	/** @brief Reserved. */
	AssetKindScene
	/** @brief Compute shader. */
	AssetKindComputeShader
)

var kindNames = map[AssetKind]string{
	AssetKindNone:          "none",
	AssetKindTexture:       "texture",
	AssetKindShader:        "shader",
	AssetKindModel:         "model",
	AssetKindSkeletalModel: "skeletal_model",
	AssetKindMaterial:      "material",
	AssetKindAnimation:     "animation",
	AssetKindSound:         "sound",
	AssetKindFont:          "font",
	AssetKindPrefab:        "prefab",
	AssetKindScene:         "scene",
	AssetKindComputeShader: "compute_shader",
}

func (k AssetKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}

/** @brief The magic bytes every pack starts with. */
const PackMagic = "SLPCK\x00"

/** @brief The only pack format version this packer reads and writes. */
const PackVersion uint32 = 1

/** @brief OpenGL texture targets stored in texture payloads. */
const (
	TextureTarget2D      uint32 = 0x0DE1
	TextureTargetCubeMap uint32 = 0x8513
)

// MaterialTextureType is the u8 slot tag of a material texture reference.
type MaterialTextureType uint8

const (
	MaterialTextureAlbedo    MaterialTextureType = 4
	MaterialTextureNormal    MaterialTextureType = 5
	MaterialTextureMetallic  MaterialTextureType = 6
	MaterialTextureRoughness MaterialTextureType = 7
	MaterialTextureAmbient   MaterialTextureType = 8
)

var materialTextureTypes = map[string]MaterialTextureType{
	"albedo":    MaterialTextureAlbedo,
	"normal":    MaterialTextureNormal,
	"metallic":  MaterialTextureMetallic,
	"roughness": MaterialTextureRoughness,
	"ambient":   MaterialTextureAmbient,
}

// ParseMaterialTextureType maps a descriptor slot name to its tag.
func ParseMaterialTextureType(name string) (MaterialTextureType, bool) {
	t, ok := materialTextureTypes[strings.ToLower(name)]
	return t, ok
}

func (t MaterialTextureType) String() string {
	for name, v := range materialTextureTypes {
		if v == t {
			return name
		}
	}
	return fmt.Sprintf("slot(%d)", uint8(t))
}

// FontType distinguishes the two font payload layouts.
type FontType uint8

const (
	FontTypeBitmap FontType = iota
	FontTypeSystem
)

// SourceClass says what a source file is before it is decoded. It drives
// stage placement and codec selection.
type SourceClass uint8

const (
	ClassUnknown SourceClass = iota
	ClassTexture
	ClassHDR
	ClassModel
	ClassShader
	ClassMaterial
	ClassComputeShader
	ClassFont
)

var classNames = map[SourceClass]string{
	ClassUnknown:       "unknown",
	ClassTexture:       "texture",
	ClassHDR:           "hdr",
	ClassModel:         "model",
	ClassShader:        "shader",
	ClassMaterial:      "material",
	ClassComputeShader: "compute_shader",
	ClassFont:          "font",
}

func (c SourceClass) String() string {
	return classNames[c]
}

// Stage is the pipeline stage a class is built in.
type Stage uint8

const (
	StageNone Stage = iota
	StageTextures
	StageOthers
	StageModels
)

func (s Stage) String() string {
	switch s {
	case StageTextures:
		return "textures"
	case StageOthers:
		return "others"
	case StageModels:
		return "models"
	}
	return "none"
}

func (c SourceClass) Stage() Stage {
	switch c {
	case ClassTexture, ClassHDR:
		return StageTextures
	case ClassShader, ClassMaterial, ClassComputeShader, ClassFont:
		return StageOthers
	case ClassModel:
		return StageModels
	}
	return StageNone
}

// Kind is the asset kind a class produces. Models resolve to static,
// skeletal or animation only after decoding, so ClassModel maps to AssetKindModel.
func (c SourceClass) Kind() AssetKind {
	switch c {
	case ClassTexture, ClassHDR:
		return AssetKindTexture
	case ClassShader:
		return AssetKindShader
	case ClassMaterial:
		return AssetKindMaterial
	case ClassComputeShader:
		return AssetKindComputeShader
	case ClassFont:
		return AssetKindFont
	case ClassModel:
		return AssetKindModel
	}
	return AssetKindNone
}

// Produces reports whether an asset of kind k can come out of a source of class c.
func (c SourceClass) Produces(k AssetKind) bool {
	if c == ClassModel {
		return k == AssetKindModel || k == AssetKindSkeletalModel || k == AssetKindAnimation
	}
	return c.Kind() == k
}

// ExtensionTable maps lower-case file extensions to source classes. It is
// built once from configuration and never mutated afterwards.
type ExtensionTable struct {
	classes map[string]SourceClass
}

// NewExtensionTable builds a table. An extension listed under two classes is an error.
func NewExtensionTable(byClass map[SourceClass][]string) (*ExtensionTable, error) {
	t := &ExtensionTable{classes: make(map[string]SourceClass)}
	for class, exts := range byClass {
		for _, ext := range exts {
			ext = normalizeExt(ext)
			if ext == "" {
				continue
			}
			if prev, ok := t.classes[ext]; ok && prev != class {
				return nil, fmt.Errorf("extension %q is mapped to both %s and %s", ext, prev, class)
			}
			t.classes[ext] = class
		}
	}
	return t, nil
}

// Classify returns the class of path by its extension, ClassUnknown if unmapped.
func (t *ExtensionTable) Classify(path string) SourceClass {
	return t.classes[normalizeExt(filepath.Ext(path))]
}

func (t *ExtensionTable) Len() int {
	return len(t.classes)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
