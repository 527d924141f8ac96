package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-packer/engine/resources"
)

//go:embed sample_config.toml
var sampleConfig string

// DefaultFileName is looked up in the working directory when no config path is given.
const DefaultFileName = "packer.toml"

// Build controls the pipeline.
type Build struct {
	Workers           int  `toml:"workers"`
	QueueSize         int  `toml:"queue_size"`
	Force             bool `toml:"force"`
	RebuildDependents bool `toml:"rebuild_dependents"`
	WatchDebounceMS   int  `toml:"watch_debounce_ms"`
}

// Meta controls sidecar handling.
type Meta struct {
	Extension    string `toml:"extension"`
	ReadAttempts int    `toml:"read_attempts"`
	RetryDelayMS int    `toml:"retry_delay_ms"`
}

// Extensions lists the source extensions of every class.
type Extensions struct {
	Texture  []string `toml:"texture"`
	HDR      []string `toml:"hdr"`
	Model    []string `toml:"model"`
	Shader   []string `toml:"shader"`
	Material []string `toml:"material"`
	Compute  []string `toml:"compute"`
	Font     []string `toml:"font"`
}

type Texture struct {
	HDRGamma float64 `toml:"hdr_gamma"`
}

type Animation struct {
	RotationOrder string `toml:"rotation_order"`
}

type Logging struct {
	Level string `toml:"level"`
}

// Config is the packer configuration.
type Config struct {
	Build      Build      `toml:"build"`
	Meta       Meta       `toml:"meta"`
	Extensions Extensions `toml:"extensions"`
	Texture    Texture    `toml:"texture"`
	Animation  Animation  `toml:"animation"`
	Logging    Logging    `toml:"logging"`
}

// Load locates, parses, and validates a configuration file. With an empty
// path ./packer.toml is used when present, defaults otherwise. The resolved
// path and whether it existed are returned alongside the config.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		_, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config %s: %w", path, err)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return path, true, nil
	}

	projectPath, err := filepath.Abs(DefaultFileName)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return "", false, nil
}

// WorkerCount is the effective worker pool size.
func (c *Config) WorkerCount() int {
	if c.Build.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Build.Workers
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Meta.RetryDelayMS) * time.Millisecond
}

func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Build.WatchDebounceMS) * time.Millisecond
}

// ExtensionTable builds the classifier for the configured extensions.
func (c *Config) ExtensionTable() (*resources.ExtensionTable, error) {
	return resources.NewExtensionTable(map[resources.SourceClass][]string{
		resources.ClassTexture:       c.Extensions.Texture,
		resources.ClassHDR:           c.Extensions.HDR,
		resources.ClassModel:         c.Extensions.Model,
		resources.ClassShader:        c.Extensions.Shader,
		resources.ClassMaterial:      c.Extensions.Material,
		resources.ClassComputeShader: c.Extensions.Compute,
		resources.ClassFont:          c.Extensions.Font,
	})
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Sample returns the commented sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
