package loaders

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ShaderSources holds the stage sources referenced by a .shader descriptor.
type ShaderSources struct {
	Vertex      string
	Fragment    string
	Geometry    string
	HasGeometry bool
}

type shaderDescriptor struct {
	VS string `json:"vs"`
	FS string `json:"fs"`
	GS string `json:"gs,omitempty"`
}

type ShaderLoader struct{}

// Load reads the descriptor at path and the stage files it references,
// resolved relative to the descriptor.
func (sl *ShaderLoader) Load(path string) (*ShaderSources, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var desc shaderDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("shader descriptor: %w", err)
	}
	if desc.VS == "" || desc.FS == "" {
		return nil, fmt.Errorf("shader descriptor needs both \"vs\" and \"fs\"")
	}

	base := filepath.Dir(path)
	out := &ShaderSources{}
	if out.Vertex, err = readText(base, desc.VS); err != nil {
		return nil, err
	}
	if out.Fragment, err = readText(base, desc.FS); err != nil {
		return nil, err
	}
	if desc.GS != "" {
		if out.Geometry, err = readText(base, desc.GS); err != nil {
			return nil, err
		}
		out.HasGeometry = true
	}
	return out, nil
}

type computeDescriptor struct {
	CS string `json:"cs"`
}

type ComputeShaderLoader struct{}

// Load returns the compute source. The file is either a JSON descriptor
// {"cs": path} or the source itself.
func (cl *ComputeShaderLoader) Load(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		var desc computeDescriptor
		if err := json.Unmarshal(raw, &desc); err == nil && desc.CS != "" {
			return readText(filepath.Dir(path), desc.CS)
		}
	}
	return string(raw), nil
}

func readText(base, rel string) (string, error) {
	p := rel
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, rel)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
