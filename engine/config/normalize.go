package config

import (
	"strings"
)

func (c *Config) normalize() {
	c.Meta.Extension = strings.ToLower(strings.TrimSpace(c.Meta.Extension))
	if c.Meta.Extension != "" && !strings.HasPrefix(c.Meta.Extension, ".") {
		c.Meta.Extension = "." + c.Meta.Extension
	}
	c.Animation.RotationOrder = strings.ToLower(strings.TrimSpace(c.Animation.RotationOrder))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	ext := &c.Extensions
	for _, list := range []*[]string{&ext.Texture, &ext.HDR, &ext.Model, &ext.Shader, &ext.Material, &ext.Compute, &ext.Font} {
		*list = normalizeExtensions(*list)
	}
}

func normalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
