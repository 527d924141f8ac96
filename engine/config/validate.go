package config

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/anima-packer/engine/codec"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "fatal": true}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBuild(); err != nil {
		return err
	}
	if err := c.validateMeta(); err != nil {
		return err
	}
	if err := c.validateExtensions(); err != nil {
		return err
	}
	if c.Texture.HDRGamma <= 0 {
		return errors.New("texture.hdr_gamma must be positive")
	}
	if !codec.ValidRotationOrder(c.Animation.RotationOrder) {
		return fmt.Errorf("animation.rotation_order %q must be a permutation of xyzw", c.Animation.RotationOrder)
	}
	if !logLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error, fatal", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateBuild() error {
	if c.Build.Workers < 0 {
		return errors.New("build.workers must be 0 (one per CPU) or positive")
	}
	if c.Build.QueueSize < 0 {
		return errors.New("build.queue_size must not be negative")
	}
	if c.Build.WatchDebounceMS < 0 {
		return errors.New("build.watch_debounce_ms must not be negative")
	}
	return nil
}

func (c *Config) validateMeta() error {
	if c.Meta.Extension == "" || c.Meta.Extension == "." {
		return errors.New("meta.extension must be set")
	}
	if c.Meta.ReadAttempts < 1 {
		return errors.New("meta.read_attempts must be at least 1")
	}
	if c.Meta.RetryDelayMS < 0 {
		return errors.New("meta.retry_delay_ms must not be negative")
	}
	return nil
}

func (c *Config) validateExtensions() error {
	table, err := c.ExtensionTable()
	if err != nil {
		return fmt.Errorf("extensions: %w", err)
	}
	if table.Len() == 0 {
		return errors.New("extensions: no source extensions configured")
	}
	if table.Classify("x"+c.Meta.Extension) != resources.ClassUnknown {
		return fmt.Errorf("extensions: %s is the sidecar extension", c.Meta.Extension)
	}
	return nil
}
