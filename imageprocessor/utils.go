package imageprocessor

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/spf13/afero"
)

// LoadImage reads and decodes a single image file with a fresh registry.
func LoadImage(fs afero.Fs, path string) (image.Image, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read image %s: %w", path, err)
	}

	filename := filepath.Base(path)
	img, err := NewImageLoaderRegistry().Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return img, nil
}
