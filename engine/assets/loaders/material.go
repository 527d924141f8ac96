package loaders

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// MaterialTextureRef is one texture slot of a material, by texture asset name.
type MaterialTextureRef struct {
	Type resources.MaterialTextureType
	Name string
}

type materialDescriptor struct {
	Textures []struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"textures"`
}

type MaterialLoader struct{}

func (ml *MaterialLoader) Load(path string) ([]MaterialTextureRef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var desc materialDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("material descriptor: %w", err)
	}

	refs := make([]MaterialTextureRef, 0, len(desc.Textures))
	for i, t := range desc.Textures {
		typ, ok := resources.ParseMaterialTextureType(t.Type)
		if !ok {
			return nil, fmt.Errorf("%w: texture %d has unknown type %q", core.ErrUnsupportedFormat, i, t.Type)
		}
		if t.Name == "" {
			return nil, fmt.Errorf("texture %d has no name", i)
		}
		refs = append(refs, MaterialTextureRef{Type: typ, Name: t.Name})
	}
	return refs, nil
}
