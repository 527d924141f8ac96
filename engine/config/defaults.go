package config

const (
	defaultWorkers           = 0
	defaultQueueSize         = 256
	defaultRebuildDependents = true
	defaultWatchDebounceMS   = 300
	defaultMetaExtension     = ".meta"
	defaultReadAttempts      = 3
	defaultRetryDelayMS      = 50
	defaultHDRGamma          = 2.2
	defaultRotationOrder     = "xyzw"
	defaultLogLevel          = "info"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Build: Build{
			Workers:           defaultWorkers,
			QueueSize:         defaultQueueSize,
			RebuildDependents: defaultRebuildDependents,
			WatchDebounceMS:   defaultWatchDebounceMS,
		},
		Meta: Meta{
			Extension:    defaultMetaExtension,
			ReadAttempts: defaultReadAttempts,
			RetryDelayMS: defaultRetryDelayMS,
		},
		Extensions: Extensions{
			Texture:  []string{".png", ".jpg", ".jpeg", ".tga", ".bmp"},
			HDR:      []string{".hdr"},
			Model:    []string{".obj", ".gltf", ".glb"},
			Shader:   []string{".shader"},
			Material: []string{".material"},
			Compute:  []string{".comp"},
			Font:     []string{".fnt", ".ttf", ".otf", ".ttc"},
		},
		Texture: Texture{
			HDRGamma: defaultHDRGamma,
		},
		Animation: Animation{
			RotationOrder: defaultRotationOrder,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
