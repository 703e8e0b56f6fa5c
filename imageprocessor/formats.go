package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Decoders registered with the image package so content sniffing can
	// recognise every format a scanner commonly produces.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatGIF     FormatType = "gif"
	FormatTIFF    FormatType = "tiff"
	FormatBMP     FormatType = "bmp"
	FormatWEBP    FormatType = "webp"
)

// ErrUnknownFormat is returned when the content matches no registered format.
var ErrUnknownFormat = errors.New("unrecognized image format")

// IdentifyFormat sniffs the image format from the leading bytes of data.
func IdentifyFormat(data []byte) (FormatType, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return FormatUnknown, ErrUnknownFormat
		}
		return FormatUnknown, fmt.Errorf("read image header: %w", err)
	}
	return FormatType(name), nil
}
