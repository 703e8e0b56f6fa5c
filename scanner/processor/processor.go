package processor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime/debug"

	"pagediff/imageprocessor"
	"pagediff/logging"
	"pagediff/types"

	"github.com/spf13/afero"
)

// Operations reported in PageError.Op.
const (
	OpList     = "list"
	OpFilename = "filename"
	OpOpen     = "open"
	OpRead     = "read"
	OpIdentify = "identify"
	OpDecode   = "decode"
)

// ErrMissingFilename is reported for a listed entry whose path has no final
// component.
var ErrMissingFilename = errors.New("missing filename")

// PageError tags a failure with the operation and the page (or directory)
// path it happened on.
type PageError struct {
	Op   string
	Path string
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// PageProcessor reads, decodes and fingerprints single pages.
type PageProcessor struct {
	fs       afero.Fs
	registry *imageprocessor.ImageLoaderRegistry
	hasher   *imageprocessor.Hasher
}

// NewPageProcessor creates a processor. It holds no per-page state and may be
// shared by all workers.
func NewPageProcessor(fs afero.Fs, registry *imageprocessor.ImageLoaderRegistry, hasher *imageprocessor.Hasher) *PageProcessor {
	return &PageProcessor{
		fs:       fs,
		registry: registry,
		hasher:   hasher,
	}
}

// ProcessPage hashes the page found at position index of its directory.
func (p *PageProcessor) ProcessPage(page types.Page, index int) (img *types.HashedImage, err error) {
	filename := pageFilename(page.Path)
	if filename == "" {
		return nil, &PageError{Op: OpFilename, Path: page.Path, Err: ErrMissingFilename}
	}

	data, err := p.readPage(page)
	if err != nil {
		return nil, err
	}

	// Decoders for malformed input have been known to panic.
	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Recovered decoder panic on %s: %v", page.Path, r)
			logging.DebugLog("Decoder panic stack for %s:\n%s", page.Path, debug.Stack())
			img = nil
			err = &PageError{Op: OpDecode, Path: page.Path, Err: fmt.Errorf("panic during decode: %v", r)}
		}
	}()

	decoded, err := p.registry.Decode(data)
	if err != nil {
		op := OpDecode
		if errors.Is(err, imageprocessor.ErrUnknownFormat) {
			op = OpIdentify
		}
		return nil, &PageError{Op: op, Path: page.Path, Err: err}
	}

	return &types.HashedImage{
		Filename: filename,
		Index:    index,
		Hash:     p.hasher.HashImage(decoded),
	}, nil
}

func (p *PageProcessor) readPage(page types.Page) ([]byte, error) {
	file, err := p.fs.Open(page.Path)
	if err != nil {
		return nil, &PageError{Op: OpOpen, Path: page.Path, Err: err}
	}
	defer file.Close()

	var buf bytes.Buffer
	if page.Size > 0 {
		buf.Grow(int(page.Size))
	}
	if _, err := io.Copy(&buf, file); err != nil {
		return nil, &PageError{Op: OpRead, Path: page.Path, Err: err}
	}
	return buf.Bytes(), nil
}

func pageFilename(path string) string {
	if path == "" {
		return ""
	}
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
