package imageprocessor

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// HashAlg selects how a sampled grid is reduced to bits.
type HashAlg int

const (
	// Mean sets a bit when the sample is at or above the grid mean.
	Mean HashAlg = iota
	// Gradient compares horizontally adjacent samples.
	Gradient
	// VertGradient compares vertically adjacent samples.
	VertGradient
	// DoubleGradient compares both horizontally and vertically adjacent
	// samples of a half-resolution grid.
	DoubleGradient
	// Blockhash compares block means to the median of their band.
	Blockhash
)

var hashAlgNames = map[HashAlg]string{
	Mean:           "mean",
	Gradient:       "gradient",
	VertGradient:   "vert_gradient",
	DoubleGradient: "double_gradient",
	Blockhash:      "blockhash",
}

var hashAlgDisplayNames = map[HashAlg]string{
	Mean:           "Mean",
	Gradient:       "Gradient",
	VertGradient:   "VertGradient",
	DoubleGradient: "DoubleGradient",
	Blockhash:      "Blockhash",
}

// AllHashAlgs lists every algorithm in a stable order.
func AllHashAlgs() []HashAlg {
	return []HashAlg{Mean, Gradient, VertGradient, DoubleGradient, Blockhash}
}

func (a HashAlg) String() string {
	if name, ok := hashAlgNames[a]; ok {
		return name
	}
	return fmt.Sprintf("HashAlg(%d)", int(a))
}

// DisplayName returns the CamelCase name used in diagnostic output.
func (a HashAlg) DisplayName() string {
	if name, ok := hashAlgDisplayNames[a]; ok {
		return name
	}
	return a.String()
}

// ParseHashAlg parses a config name such as "double_gradient".
func ParseHashAlg(name string) (HashAlg, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for alg, n := range hashAlgNames {
		if n == normalized {
			return alg, nil
		}
	}
	return 0, fmt.Errorf("unknown hash algorithm %q", name)
}

// Preproc selects the frequency-domain or blur preprocessing step.
type Preproc int

const (
	PreprocNone Preproc = iota
	PreprocDCT
	PreprocDiffGauss
)

var preprocNames = map[Preproc]string{
	PreprocNone:      "none",
	PreprocDCT:       "dct",
	PreprocDiffGauss: "diff_gauss",
}

func (p Preproc) String() string {
	if name, ok := preprocNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Preproc(%d)", int(p))
}

// ParsePreproc parses a config name such as "dct".
func ParsePreproc(name string) (Preproc, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if normalized == "" {
		return PreprocNone, nil
	}
	for p, n := range preprocNames {
		if n == normalized {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown preprocessing %q", name)
}

const (
	maxHashSide      = 64
	blockSampling    = 4
	blockhashBands   = 4
	diffGaussSigmaLo = 0.5
	diffGaussSigmaHi = 1.8
)

// HasherConfig fixes the fingerprint algorithm for a run.
type HasherConfig struct {
	Width   int
	Height  int
	Alg     HashAlg
	Preproc Preproc
}

// DefaultHasherConfig is the configuration used to match pages: an 8x8
// double gradient hash over DCT coefficients.
func DefaultHasherConfig() HasherConfig {
	return HasherConfig{
		Width:   8,
		Height:  8,
		Alg:     DoubleGradient,
		Preproc: PreprocDCT,
	}
}

// Validate checks the grid size and algorithm.
func (c HasherConfig) Validate() error {
	if c.Width < 2 || c.Width > maxHashSide {
		return fmt.Errorf("hash width %d out of range [2, %d]", c.Width, maxHashSide)
	}
	if c.Height < 2 || c.Height > maxHashSide {
		return fmt.Errorf("hash height %d out of range [2, %d]", c.Height, maxHashSide)
	}
	if _, ok := hashAlgNames[c.Alg]; !ok {
		return fmt.Errorf("unknown hash algorithm %d", int(c.Alg))
	}
	if _, ok := preprocNames[c.Preproc]; !ok {
		return fmt.Errorf("unknown preprocessing %d", int(c.Preproc))
	}
	return nil
}

// Hasher validates the configuration and returns a reusable hasher.
func (c HasherConfig) Hasher() (*Hasher, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Hasher{config: c}, nil
}

// Hasher turns decoded images into fingerprints. It holds no mutable state
// and is safe for concurrent use.
type Hasher struct {
	config HasherConfig
}

// Config returns the configuration the hasher was built from.
func (h *Hasher) Config() HasherConfig {
	return h.config
}

// Bits returns the fingerprint width produced by this hasher.
func (h *Hasher) Bits() int {
	w, hh := h.gridDims()
	switch h.config.Alg {
	case Gradient:
		return (w - 1) * hh
	case VertGradient:
		return w * (hh - 1)
	case DoubleGradient:
		return (w-1)*hh + w*(hh-1)
	case Blockhash:
		return h.config.Width * h.config.Height
	default:
		return w * hh
	}
}

// gridDims is the size of the sample grid the bits are read from.
func (h *Hasher) gridDims() (int, int) {
	w, hh := h.config.Width, h.config.Height
	switch h.config.Alg {
	case Gradient:
		return w + 1, hh
	case VertGradient:
		return w, hh + 1
	case DoubleGradient:
		return w/2 + 1, hh/2 + 1
	case Blockhash:
		return w * blockSampling, hh * blockSampling
	default:
		return w, hh
	}
}

// HashImage computes the fingerprint of img.
func (h *Hasher) HashImage(img image.Image) Fingerprint {
	if img == nil || img.Bounds().Empty() {
		return newFingerprint(h.Bits())
	}

	gray := imaging.Grayscale(img)
	gw, gh := h.gridDims()

	var g grid
	switch h.config.Preproc {
	case PreprocDCT:
		g = applyDCT(sampleGrid(gray, gw*2, gh*2)).crop(gw, gh)
	case PreprocDiffGauss:
		lo := sampleGrid(imaging.Blur(gray, diffGaussSigmaLo), gw, gh)
		hi := sampleGrid(imaging.Blur(gray, diffGaussSigmaHi), gw, gh)
		g = newGrid(gw, gh)
		for i := range g.v {
			g.v[i] = lo.v[i] - hi.v[i]
		}
	default:
		g = sampleGrid(gray, gw, gh)
	}

	switch h.config.Alg {
	case Gradient:
		return rowGradientBits(g)
	case VertGradient:
		return columnGradientBits(g)
	case DoubleGradient:
		return doubleGradientBits(g)
	case Blockhash:
		return blockhashBits(g, h.config.Width, h.config.Height)
	default:
		return meanBits(g)
	}
}

// sampleGrid resizes a grayscale image to w x h with a Lanczos filter and
// reads its luminance.
func sampleGrid(gray image.Image, w, h int) grid {
	resized := imaging.Resize(gray, w, h, imaging.Lanczos)
	g := newGrid(w, h)
	for y := 0; y < h; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < w; x++ {
			g.set(x, y, float64(row[x*4]))
		}
	}
	return g
}

func meanBits(g grid) Fingerprint {
	mean := calculateMean(g.v)
	fp := newFingerprint(len(g.v))
	for i, v := range g.v {
		if v >= mean {
			fp.set(i)
		}
	}
	return fp
}

func rowGradientBits(g grid) Fingerprint {
	fp := newFingerprint((g.w - 1) * g.h)
	bit := 0
	for y := 0; y < g.h; y++ {
		for x := 1; x < g.w; x++ {
			if g.at(x-1, y) < g.at(x, y) {
				fp.set(bit)
			}
			bit++
		}
	}
	return fp
}

func columnGradientBits(g grid) Fingerprint {
	fp := newFingerprint(g.w * (g.h - 1))
	bit := 0
	for x := 0; x < g.w; x++ {
		for y := 1; y < g.h; y++ {
			if g.at(x, y-1) < g.at(x, y) {
				fp.set(bit)
			}
			bit++
		}
	}
	return fp
}

func doubleGradientBits(g grid) Fingerprint {
	rows := rowGradientBits(g)
	cols := columnGradientBits(g)
	fp := newFingerprint(rows.width + cols.width)
	for i := 0; i < rows.width; i++ {
		if rows.Bit(i) {
			fp.set(i)
		}
	}
	for i := 0; i < cols.width; i++ {
		if cols.Bit(i) {
			fp.set(rows.width + i)
		}
	}
	return fp
}

// blockhashBits averages blockSampling x blockSampling cells into a w x h
// block grid, then sets a bit for every block above its band median.
func blockhashBits(g grid, w, h int) Fingerprint {
	blocks := make([]float64, w*h)
	for by := 0; by < h; by++ {
		for bx := 0; bx < w; bx++ {
			sum := 0.0
			for y := by * blockSampling; y < (by+1)*blockSampling; y++ {
				for x := bx * blockSampling; x < (bx+1)*blockSampling; x++ {
					sum += g.at(x, y)
				}
			}
			blocks[by*w+bx] = sum / float64(blockSampling*blockSampling)
		}
	}

	bands := blockhashBands
	if h < bands {
		bands = 1
	}
	rowsPerBand := h / bands

	fp := newFingerprint(w * h)
	for band := 0; band < bands; band++ {
		start := band * rowsPerBand * w
		end := start + rowsPerBand*w
		if band == bands-1 {
			end = len(blocks)
		}
		median := calculateMedian(blocks[start:end])
		for i := start; i < end; i++ {
			if blocks[i] > median {
				fp.set(i)
			}
		}
	}
	return fp
}
