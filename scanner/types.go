package scanner

import (
	"io"
	"log/slog"

	"pagediff/imageprocessor"
	"pagediff/scanner/processor"

	"github.com/spf13/afero"
)

// Options configures a hashing pass.
type Options struct {
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// Registry defaults to NewImageLoaderRegistry().
	Registry *imageprocessor.ImageLoaderRegistry
	// Hasher must be shared by both directories of a run. Defaults to
	// DefaultHasherConfig.
	Hasher *imageprocessor.Hasher
	// Workers <= 0 means signalhandler.GetOptimalProcs().
	Workers int
	// Progress draws a progress bar on ProgressWriter (stderr by default).
	Progress       bool
	ProgressWriter io.Writer
	Logger         *slog.Logger
}

// PageError is the error type returned for any page or directory failure.
type PageError = processor.PageError

// ErrMissingFilename is wrapped by a PageError with Op "filename".
var ErrMissingFilename = processor.ErrMissingFilename
