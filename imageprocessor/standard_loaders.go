package imageprocessor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// StandardImageLoader decodes every format registered with the image package.
// EXIF orientation is applied so rotated scans hash like upright ones.
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a new loader for standard image formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatGIF,
				FormatBMP,
				FormatTIFF,
				FormatWEBP,
			},
		},
	}
}

// Decode decodes a standard image format
func (l *StandardImageLoader) Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
