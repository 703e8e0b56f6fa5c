//go:build gocv

package imageprocessor

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GocvImageLoader decodes through OpenCV. It is registered as the fallback
// for content the Go decoders cannot identify, such as JPEG 2000 scans.
type GocvImageLoader struct{}

// NewGocvImageLoader creates an OpenCV-backed loader
func NewGocvImageLoader() *GocvImageLoader {
	return &GocvImageLoader{}
}

// CanLoad accepts any format; OpenCV sniffs the content itself.
func (l *GocvImageLoader) CanLoad(format FormatType) bool {
	return true
}

// Decode decodes data with OpenCV and converts the result to an image.Image
func (l *GocvImageLoader) Decode(data []byte) (image.Image, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("gocv decode: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("gocv decode: empty image")
	}
	return mat.ToImage()
}

func init() {
	buildLoaders = append(buildLoaders, func(r *ImageLoaderRegistry) {
		r.SetFallbackLoader(NewGocvImageLoader())
	})
}
