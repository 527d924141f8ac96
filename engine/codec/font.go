package codec

import (
	"fmt"

	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// FontPage is a decoded atlas page reference.
type FontPage struct {
	ID        uint8
	TextureID uint64
}

// Font is a decoded font payload. Bitmap fields are empty for system fonts
// and Faces/Data are empty for bitmap fonts.
type Font struct {
	Type       resources.FontType
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Pages      []FontPage
	Glyphs     []loaders.FontGlyph
	Kernings   []loaders.FontKerning
	Faces      []string
	Data       []byte
}

// EncodeBitmapFont resolves every atlas page to a texture id and fails with
// core.ErrMissingDependency when a page texture is unknown.
func EncodeBitmapFont(font *loaders.BitmapFont, textures TextureLookup) ([]byte, error) {
	w := NewWriter(256 + len(font.Glyphs)*17 + len(font.Kernings)*10)
	w.U8(uint8(resources.FontTypeBitmap))
	w.Str(font.Face)
	w.U32(font.Size)
	w.I32(font.LineHeight)
	w.I32(font.Baseline)
	w.I32(font.AtlasSizeX)
	w.I32(font.AtlasSizeY)

	w.U32(uint32(len(font.Pages)))
	for _, p := range font.Pages {
		id, ok := textures.TextureID(p.Texture)
		if !ok {
			return nil, fmt.Errorf("%w: font page texture %q not found", core.ErrMissingDependency, p.Texture)
		}
		w.U8(p.ID)
		w.U64(id)
	}

	w.U32(uint32(len(font.Glyphs)))
	for _, g := range font.Glyphs {
		w.I32(g.Codepoint)
		w.U16(g.X)
		w.U16(g.Y)
		w.U16(g.Width)
		w.U16(g.Height)
		w.I16(g.XOffset)
		w.I16(g.YOffset)
		w.I16(g.XAdvance)
		w.U8(g.PageID)
	}

	w.U32(uint32(len(font.Kernings)))
	for _, k := range font.Kernings {
		w.I32(k.Codepoint0)
		w.I32(k.Codepoint1)
		w.I16(k.Amount)
	}
	return w.Bytes(), nil
}

func EncodeSystemFont(font *loaders.SystemFont) []byte {
	w := NewWriter(len(font.Data) + 64)
	w.U8(uint8(resources.FontTypeSystem))
	w.U32(uint32(len(font.Faces)))
	for _, f := range font.Faces {
		w.Str(f)
	}
	w.U32(uint32(len(font.Data)))
	w.Raw(font.Data)
	return w.Bytes()
}

func DecodeFont(payload []byte) (*Font, error) {
	r := NewReader(payload)
	f := &Font{Type: resources.FontType(r.U8())}
	switch f.Type {
	case resources.FontTypeBitmap:
		f.Face = r.Str()
		f.Size = r.U32()
		f.LineHeight = r.I32()
		f.Baseline = r.I32()
		f.AtlasSizeX = r.I32()
		f.AtlasSizeY = r.I32()
		pages := r.Count(9)
		for i := 0; i < pages; i++ {
			f.Pages = append(f.Pages, FontPage{ID: r.U8(), TextureID: r.U64()})
		}
		glyphs := r.Count(19)
		for i := 0; i < glyphs; i++ {
			f.Glyphs = append(f.Glyphs, loaders.FontGlyph{
				Codepoint: r.I32(),
				X:         r.U16(),
				Y:         r.U16(),
				Width:     r.U16(),
				Height:    r.U16(),
				XOffset:   r.I16(),
				YOffset:   r.I16(),
				XAdvance:  r.I16(),
				PageID:    r.U8(),
			})
		}
		kernings := r.Count(10)
		for i := 0; i < kernings; i++ {
			f.Kernings = append(f.Kernings, loaders.FontKerning{
				Codepoint0: r.I32(),
				Codepoint1: r.I32(),
				Amount:     r.I16(),
			})
		}
	case resources.FontTypeSystem:
		faces := r.Count(4)
		for i := 0; i < faces; i++ {
			f.Faces = append(f.Faces, r.Str())
		}
		f.Data = r.Raw(r.Count(1))
	default:
		return nil, fmt.Errorf("%w: unknown font type %d", core.ErrCorruptInput, f.Type)
	}
	return f, r.Done()
}
