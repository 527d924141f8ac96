package loaders

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/fzipp/bmfont"
)

type FontGlyph struct {
	Codepoint int32
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 int32
	Codepoint1 int32
	Amount     int16
}

// BitmapFontPage is an atlas page. Texture is the asset name of the page image.
type BitmapFontPage struct {
	ID      uint8
	Texture string
}

type BitmapFont struct {
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Pages      []BitmapFontPage
	Glyphs     []FontGlyph
	Kernings   []FontKerning
}

// BitmapFontLoader reads AngelCode BMFont descriptors.
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(path string) (*BitmapFont, error) {
	font, err := bmfont.Load(path)
	if err != nil {
		return nil, err
	}
	d := font.Descriptor

	out := &BitmapFont{
		Face:       d.Info.Face,
		Size:       uint32(d.Info.Size),
		LineHeight: int32(d.Common.LineHeight),
		Baseline:   int32(d.Common.Base),
		AtlasSizeX: int32(d.Common.ScaleW),
		AtlasSizeY: int32(d.Common.ScaleH),
	}

	for _, p := range d.Pages {
		name := filepath.Base(p.File)
		out.Pages = append(out.Pages, BitmapFontPage{
			ID:      uint8(p.ID),
			Texture: strings.TrimSuffix(name, filepath.Ext(name)),
		})
	}
	sort.Slice(out.Pages, func(i, j int) bool { return out.Pages[i].ID < out.Pages[j].ID })

	for _, g := range d.Chars {
		out.Glyphs = append(out.Glyphs, FontGlyph{
			Codepoint: int32(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}
	sort.Slice(out.Glyphs, func(i, j int) bool { return out.Glyphs[i].Codepoint < out.Glyphs[j].Codepoint })

	for p, k := range d.Kerning {
		out.Kernings = append(out.Kernings, FontKerning{
			Codepoint0: int32(p.First),
			Codepoint1: int32(p.Second),
			Amount:     int16(k.Amount),
		})
	}
	sort.Slice(out.Kernings, func(i, j int) bool {
		a, b := out.Kernings[i], out.Kernings[j]
		if a.Codepoint0 != b.Codepoint0 {
			return a.Codepoint0 < b.Codepoint0
		}
		return a.Codepoint1 < b.Codepoint1
	})

	return out, nil
}
