package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	m "math"
	"os"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-packer/engine/core"
)

// HDRImage holds linear RGB floats, top row first.
type HDRImage struct {
	Width  uint32
	Height uint32
	Pixels []float32
}

// HDRLoader decodes Radiance RGBE (.hdr) files.
type HDRLoader struct{}

func (hl *HDRLoader) DecodeHDR(path string) (*HDRImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeRGBE(bufio.NewReader(f))
}

var errRGBEHeader = errors.New("rgbe: malformed header")

// Upper bounds on the header resolution, checked before any pixel
// storage is allocated.
const (
	maxRGBESide   = 1 << 15
	maxRGBEPixels = 1 << 26
)

func decodeRGBE(r *bufio.Reader) (*HDRImage, error) {
	magic, err := r.ReadString('\n')
	if err != nil {
		return nil, errRGBEHeader
	}
	if !strings.HasPrefix(magic, "#?RADIANCE") && !strings.HasPrefix(magic, "#?RGBE") {
		return nil, fmt.Errorf("%w: missing #?RADIANCE signature", errRGBEHeader)
	}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, errRGBEHeader
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "FORMAT="); ok && v != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("%w: hdr pixel format %q", core.ErrUnsupportedFormat, v)
		}
	}

	resolution, err := r.ReadString('\n')
	if err != nil {
		return nil, errRGBEHeader
	}
	fields := strings.Fields(resolution)
	if len(fields) != 4 || fields[0] != "-Y" || fields[2] != "+X" {
		return nil, fmt.Errorf("%w: hdr orientation %q", core.ErrUnsupportedFormat, strings.TrimSpace(resolution))
	}
	height, errH := strconv.Atoi(fields[1])
	width, errW := strconv.Atoi(fields[3])
	if errH != nil || errW != nil || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: resolution %q", errRGBEHeader, strings.TrimSpace(resolution))
	}
	if width > maxRGBESide || height > maxRGBESide || width*height > maxRGBEPixels {
		return nil, fmt.Errorf("%w: hdr resolution %dx%d is too large", core.ErrDecodeFailure, width, height)
	}

	img := &HDRImage{
		Width:  uint32(width),
		Height: uint32(height),
		Pixels: make([]float32, 0, width*height*3),
	}
	scanline := make([]byte, width*4)
	for y := 0; y < height; y++ {
		if err := readScanline(r, scanline, width); err != nil {
			return nil, fmt.Errorf("rgbe: scanline %d: %w", y, err)
		}
		for x := 0; x < width; x++ {
			rgbe := scanline[x*4 : x*4+4]
			img.Pixels = append(img.Pixels, rgbeToFloat(rgbe)...)
		}
	}
	return img, nil
}

func rgbeToFloat(rgbe []byte) []float32 {
	if rgbe[3] == 0 {
		return []float32{0, 0, 0}
	}
	f := float32(m.Ldexp(1, int(rgbe[3])-(128+8)))
	return []float32{float32(rgbe[0]) * f, float32(rgbe[1]) * f, float32(rgbe[2]) * f}
}

// readScanline fills dst with width RGBE pixels, handling both flat and
// run-length encoded scanlines.
func readScanline(r *bufio.Reader, dst []byte, width int) error {
	head := make([]byte, 4)
	if _, err := io.ReadFull(r, head); err != nil {
		return err
	}
	if width < 8 || width > 0x7fff || head[0] != 2 || head[1] != 2 || head[2]&0x80 != 0 {
		copy(dst, head)
		_, err := io.ReadFull(r, dst[4:])
		return err
	}
	if int(head[2])<<8|int(head[3]) != width {
		return errors.New("scanline width mismatch")
	}

	channel := make([]byte, width)
	for c := 0; c < 4; c++ {
		for x := 0; x < width; {
			count, err := r.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				run := int(count) - 128
				if x+run > width {
					return errors.New("run overflows scanline")
				}
				v, err := r.ReadByte()
				if err != nil {
					return err
				}
				for i := 0; i < run; i++ {
					channel[x+i] = v
				}
				x += run
			} else {
				run := int(count)
				if run == 0 || x+run > width {
					return errors.New("bad literal run")
				}
				if _, err := io.ReadFull(r, channel[x:x+run]); err != nil {
					return err
				}
				x += run
			}
		}
		for x := 0; x < width; x++ {
			dst[x*4+c] = channel[x]
		}
	}
	return nil
}
