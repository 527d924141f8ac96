package codec

import (
	"fmt"

	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// TextureLookup resolves a texture asset name to its id.
type TextureLookup interface {
	TextureID(name string) (uint64, bool)
}

// MaterialTexture is one decoded material slot.
type MaterialTexture struct {
	Type      resources.MaterialTextureType
	TextureID uint64
}

// EncodeMaterial fails with core.ErrMissingDependency when a referenced
// texture is not in textures.
func EncodeMaterial(refs []loaders.MaterialTextureRef, textures TextureLookup) ([]byte, error) {
	w := NewWriter(4 + len(refs)*9)
	w.U32(uint32(len(refs)))
	for _, ref := range refs {
		id, ok := textures.TextureID(ref.Name)
		if !ok {
			return nil, fmt.Errorf("%w: texture %q not found", core.ErrMissingDependency, ref.Name)
		}
		w.U8(uint8(ref.Type))
		w.U64(id)
	}
	return w.Bytes(), nil
}

func DecodeMaterial(payload []byte) ([]MaterialTexture, error) {
	r := NewReader(payload)
	n := r.Count(9)
	out := make([]MaterialTexture, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, MaterialTexture{
			Type:      resources.MaterialTextureType(r.U8()),
			TextureID: r.U64(),
		})
	}
	return out, r.Done()
}
