package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"pagediff/logging"
)

// buildLoaders holds registration hooks contributed by optional, build-tagged
// loaders.
var buildLoaders []func(*ImageLoaderRegistry)

// ImageLoaderRegistry maps identified formats to loaders.
type ImageLoaderRegistry struct {
	loaders        map[FormatType]ImageLoader
	defaultLoader  ImageLoader
	fallbackLoader ImageLoader
	mutex          sync.RWMutex
}

// NewImageLoaderRegistry creates a registry with the standard loader and any
// loaders enabled at build time.
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[FormatType]ImageLoader),
	}

	standardLoader := NewStandardImageLoader()
	for _, format := range standardLoader.SupportedFormats {
		registry.RegisterLoader(format, standardLoader)
	}
	registry.defaultLoader = standardLoader

	for _, register := range buildLoaders {
		register(registry)
	}

	return registry
}

// RegisterLoader registers a loader for a specific format
func (r *ImageLoaderRegistry) RegisterLoader(format FormatType, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.loaders[format] = loader
}

// SetFallbackLoader sets the loader tried when content sniffing fails.
func (r *ImageLoaderRegistry) SetFallbackLoader(loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.fallbackLoader = loader
}

// GetLoader returns the loader for an identified format
func (r *ImageLoaderRegistry) GetLoader(format FormatType) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if loader, ok := r.loaders[format]; ok {
		return loader
	}
	return r.defaultLoader
}

// Decode identifies the format of data and decodes it. Identification
// failures wrap ErrUnknownFormat unless a fallback loader decodes the bytes.
func (r *ImageLoaderRegistry) Decode(data []byte) (image.Image, error) {
	format, err := IdentifyFormat(data)
	if err != nil {
		r.mutex.RLock()
		fallback := r.fallbackLoader
		r.mutex.RUnlock()

		if fallback != nil && errors.Is(err, ErrUnknownFormat) {
			img, fbErr := fallback.Decode(data)
			if fbErr == nil {
				logging.DebugLog("Decoded unidentified content with fallback loader %T", fallback)
				return img, nil
			}
			return nil, fmt.Errorf("%w (fallback: %v)", err, fbErr)
		}
		return nil, err
	}

	loader := r.GetLoader(format)
	if loader == nil || !loader.CanLoad(format) {
		return nil, fmt.Errorf("no loader for %s images", format)
	}
	return loader.Decode(data)
}
