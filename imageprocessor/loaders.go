package imageprocessor

import "image"

// ImageLoader decodes raw bytes of one or more formats into a raster image.
type ImageLoader interface {
	// CanLoad reports whether the loader handles the identified format
	CanLoad(format FormatType) bool

	// Decode decodes the image
	Decode(data []byte) (image.Image, error)
}

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
}

// CanLoad checks if this loader supports the format
func (l *BaseImageLoader) CanLoad(format FormatType) bool {
	for _, supported := range l.SupportedFormats {
		if format == supported {
			return true
		}
	}
	return false
}
