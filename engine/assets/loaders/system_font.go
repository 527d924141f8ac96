package loaders

import (
	"fmt"
	"os"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// SystemFont is a TrueType/OpenType file or collection packed as is.
type SystemFont struct {
	Faces []string
	Data  []byte
}

type SystemFontLoader struct{}

func (fl *SystemFontLoader) Load(path string) (*SystemFont, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := opentype.ParseCollection(fontBytes)
	if err != nil {
		return nil, err
	}

	rd := &SystemFont{Data: fontBytes}
	var buf sfnt.Buffer
	for i := 0; i < c.NumFonts(); i++ {
		f, err := c.Font(i)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		name, err := f.Name(&buf, sfnt.NameIDFull)
		if err != nil {
			name = fmt.Sprintf("face_%d", i)
		}
		rd.Faces = append(rd.Faces, name)
	}
	if len(rd.Faces) == 0 {
		return nil, fmt.Errorf("font collection has no faces")
	}
	return rd, nil
}
