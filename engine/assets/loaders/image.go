package loaders

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima-packer/engine/core"
)

// ImageData describes an encoded 8-bit image. Data keeps the file bytes
// untouched; the engine decodes them at load time.
type ImageData struct {
	Width    uint32
	Height   uint32
	Channels uint32
	Format   string
	Data     []byte
}

type ImageLoader struct{}

func (il *ImageLoader) DecodeImage(path string) (*ImageData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".tga") {
		return decodeTGAHeader(data)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	channels, err := channelsOf(cfg.ColorModel)
	if format == "png" && err == nil {
		channels, err = pngChannels(data, channels)
	}
	if err != nil {
		return nil, fmt.Errorf("%s image: %w", format, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%s image has empty dimensions %dx%d", format, cfg.Width, cfg.Height)
	}

	return &ImageData{
		Width:    uint32(cfg.Width),
		Height:   uint32(cfg.Height),
		Channels: channels,
		Format:   format,
		Data:     data,
	}, nil
}

func channelsOf(model color.Model) (uint32, error) {
	if palette, ok := model.(color.Palette); ok {
		for _, c := range palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4, nil
			}
		}
		return 3, nil
	}
	switch model {
	case color.GrayModel:
		return 1, nil
	case color.YCbCrModel:
		return 3, nil
	case color.NYCbCrAModel, color.RGBAModel, color.NRGBAModel, color.CMYKModel:
		return 4, nil
	case color.Gray16Model, color.RGBA64Model, color.NRGBA64Model:
		return 0, fmt.Errorf("%w: only 8-bit images are supported", core.ErrUnsupportedFormat)
	}
	return 4, nil
}

// pngChannels reads the IHDR color type, since the decoder reports RGB
// images with the RGBA model.
func pngChannels(data []byte, fallback uint32) (uint32, error) {
	// signature (8) + chunk length (4) + "IHDR" (4) + width (4) + height (4)
	if len(data) < 26 || string(data[12:16]) != "IHDR" {
		return fallback, nil
	}
	if depth := data[24]; depth > 8 {
		return 0, fmt.Errorf("%w: only 8-bit images are supported", core.ErrUnsupportedFormat)
	}
	switch data[25] {
	case 0:
		return 1, nil
	case 2:
		return 3, nil
	case 4:
		return 2, nil
	case 6:
		return 4, nil
	}
	return fallback, nil
}

const tgaHeaderSize = 18

// decodeTGAHeader reads the geometry of a Truevision TGA file. The pixel data is not decoded.
func decodeTGAHeader(data []byte) (*ImageData, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("tga: file too short (%d bytes)", len(data))
	}
	switch data[2] {
	case 1, 2, 3, 9, 10, 11:
	default:
		return nil, fmt.Errorf("%w: tga image type %d", core.ErrUnsupportedFormat, data[2])
	}

	width := binary.LittleEndian.Uint16(data[12:14])
	height := binary.LittleEndian.Uint16(data[14:16])
	depth := data[16]
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("tga: empty dimensions %dx%d", width, height)
	}

	var channels uint32
	switch {
	case data[2] == 1 || data[2] == 9:
		// color mapped, expands to the palette entry size
		entryBits := data[7]
		channels = uint32(entryBits) / 8
		if channels < 3 {
			channels = 3
		}
	case depth == 8:
		channels = 1
	case depth == 16, depth == 24:
		channels = 3
	case depth == 32:
		channels = 4
	default:
		return nil, fmt.Errorf("%w: tga pixel depth %d", core.ErrUnsupportedFormat, depth)
	}

	return &ImageData{
		Width:    uint32(width),
		Height:   uint32(height),
		Channels: channels,
		Format:   "tga",
		Data:     data,
	}, nil
}
