package codec

import (
	m "math"

	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// Texture is a decoded texture payload.
type Texture struct {
	Width    uint32
	Height   uint32
	Channels uint32
	Target   uint32
	Data     []byte
}

func writeTexture(t Texture) []byte {
	w := NewWriter(20 + len(t.Data))
	w.U32(t.Width)
	w.U32(t.Height)
	w.U32(t.Channels)
	w.U32(t.Target)
	w.U32(uint32(len(t.Data)))
	w.Raw(t.Data)
	return w.Bytes()
}

// EncodeTexture stores a standard image with its original encoded bytes.
func EncodeTexture(img *loaders.ImageData) []byte {
	return writeTexture(Texture{
		Width:    img.Width,
		Height:   img.Height,
		Channels: img.Channels,
		Target:   resources.TextureTarget2D,
		Data:     img.Data,
	})
}

// EncodeHDRTexture stores float32 RGB with a 1/gamma curve applied and the rows
// flipped bottom to top. A gamma of 0 or 1 leaves values linear.
func EncodeHDRTexture(img *loaders.HDRImage, gamma float64) []byte {
	w, h := int(img.Width), int(img.Height)
	pixels := NewWriter(w * h * 3 * 4)
	exp := 1.0
	if gamma > 0 {
		exp = 1.0 / gamma
	}
	for y := h - 1; y >= 0; y-- {
		row := img.Pixels[y*w*3 : (y+1)*w*3]
		for _, v := range row {
			if exp != 1.0 && v > 0 {
				v = float32(m.Pow(float64(v), exp))
			}
			pixels.F32(v)
		}
	}
	return writeTexture(Texture{
		Width:    img.Width,
		Height:   img.Height,
		Channels: 3,
		Target:   resources.TextureTargetCubeMap,
		Data:     pixels.Bytes(),
	})
}

func DecodeTexture(payload []byte) (*Texture, error) {
	r := NewReader(payload)
	t := &Texture{
		Width:    r.U32(),
		Height:   r.U32(),
		Channels: r.U32(),
		Target:   r.U32(),
	}
	t.Data = r.Raw(r.Count(1))
	return t, r.Done()
}
