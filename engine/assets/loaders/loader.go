package loaders

// ImageDecoder reads a standard 8-bit image and reports its geometry.
type ImageDecoder interface {
	DecodeImage(path string) (*ImageData, error)
}

// HDRDecoder reads a floating point RGB image.
type HDRDecoder interface {
	DecodeHDR(path string) (*HDRImage, error)
}

// SceneDecoder reads a model file into meshes, bones and animations.
type SceneDecoder interface {
	DecodeScene(path string) (*Scene, error)
}

// Decoders bundles the media decoders a build uses.
type Decoders struct {
	Image ImageDecoder
	HDR   HDRDecoder
	Scene SceneDecoder
}

// DefaultDecoders returns the decoders backed by this package.
func DefaultDecoders() Decoders {
	return Decoders{
		Image: &ImageLoader{},
		HDR:   &HDRLoader{},
		Scene: &SceneLoader{},
	}
}
