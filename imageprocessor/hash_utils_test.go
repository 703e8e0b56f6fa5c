package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPage renders a smooth, non-symmetric luminance pattern.
func testPage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 128 +
				80*math.Sin(float64(x)/7)*math.Cos(float64(y)/11) +
				30*math.Sin(float64(x+2*y)/5)
			img.SetGray(x, y, color.Gray{Y: uint8(math.Max(0, math.Min(255, v)))})
		}
	}
	return img
}

func invert(src *image.Gray) *image.Gray {
	out := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}

func upscale2x(src *image.Gray) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx()*2, b.Dy()*2))
	for y := 0; y < b.Dy()*2; y++ {
		for x := 0; x < b.Dx()*2; x++ {
			out.SetGray(x, y, src.GrayAt(x/2, y/2))
		}
	}
	return out
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFingerprintDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     uint64
		width    int
		expected int
	}{
		{"Identical", 0xdeadbeef, 0xdeadbeef, 64, 0},
		{"OneBit", 0b1000, 0b0000, 8, 1},
		{"AllBits", 0, math.MaxUint64, 64, 64},
		{"MaskedHighBits", 0xff00, 0x0000, 8, 0},
		{"FortyBits", 0, (1 << 40) - 1, 40, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := FingerprintFromUint64(tt.a, tt.width)
			b := FingerprintFromUint64(tt.b, tt.width)
			assert.Equal(t, tt.expected, a.Distance(b))
			assert.Equal(t, tt.expected, b.Distance(a))
		})
	}
}

func TestFingerprintDistanceWidthMismatchPanics(t *testing.T) {
	a := FingerprintFromUint64(1, 8)
	b := FingerprintFromUint64(1, 16)
	assert.Panics(t, func() { a.Distance(b) })
}

func TestFingerprintHex(t *testing.T) {
	assert.Equal(t, "80", FingerprintFromUint64(0b1, 8).Hex())
	assert.Equal(t, "ff", FingerprintFromUint64(0xff, 8).Hex())
	assert.Equal(t, "8010", FingerprintFromUint64(1|1<<11, 12).Hex())
	assert.Equal(t, "", FingerprintFromUint64(0, 0).Hex())
}

func TestDefaultHasherBits(t *testing.T) {
	h, err := DefaultHasherConfig().Hasher()
	require.NoError(t, err)
	assert.Equal(t, 40, h.Bits())

	fp := h.HashImage(testPage(64, 80))
	assert.Equal(t, 40, fp.Bits())
}

func TestHashWidthsForEveryAlgorithm(t *testing.T) {
	img := testPage(50, 70)
	for _, alg := range AllHashAlgs() {
		for _, preproc := range []Preproc{PreprocNone, PreprocDCT, PreprocDiffGauss} {
			t.Run(alg.String()+"/"+preproc.String(), func(t *testing.T) {
				h, err := HasherConfig{Width: 8, Height: 8, Alg: alg, Preproc: preproc}.Hasher()
				require.NoError(t, err)

				fp := h.HashImage(img)
				assert.Equal(t, h.Bits(), fp.Bits())
				assert.Equal(t, 0, fp.Distance(h.HashImage(img)), "hashing must be deterministic")
			})
		}
	}
}

func TestHashImageSamePixelsDifferentTypes(t *testing.T) {
	gray := testPage(40, 40)
	nrgba := image.NewNRGBA(gray.Bounds())
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			v := gray.GrayAt(x, y).Y
			nrgba.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	h, err := DefaultHasherConfig().Hasher()
	require.NoError(t, err)
	assert.Equal(t, 0, h.HashImage(gray).Distance(h.HashImage(nrgba)))
}

func TestHashImageRescaledCloserThanInverted(t *testing.T) {
	page := testPage(64, 64)

	h, err := DefaultHasherConfig().Hasher()
	require.NoError(t, err)

	base := h.HashImage(page)
	scaled := base.Distance(h.HashImage(upscale2x(page)))
	inverted := base.Distance(h.HashImage(invert(page)))

	assert.Less(t, scaled, inverted)
}

func TestHashImageEmpty(t *testing.T) {
	h, err := DefaultHasherConfig().Hasher()
	require.NoError(t, err)

	fp := h.HashImage(image.NewGray(image.Rect(0, 0, 0, 0)))
	assert.Equal(t, h.Bits(), fp.Bits())
}

func TestApplyDCTConstantGrid(t *testing.T) {
	g := newGrid(4, 4)
	for i := range g.v {
		g.v[i] = 10
	}

	out := applyDCT(g)
	assert.InDelta(t, 40.0, out.at(0, 0), 1e-9)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x == 0 && y == 0 {
				continue
			}
			assert.InDelta(t, 0.0, out.at(x, y), 1e-9)
		}
	}
}

func TestGridCrop(t *testing.T) {
	g := newGrid(3, 3)
	for i := range g.v {
		g.v[i] = float64(i)
	}
	c := g.crop(2, 2)
	assert.Equal(t, []float64{0, 1, 3, 4}, c.v)
}

func TestCalculateMedian(t *testing.T) {
	assert.Equal(t, 0.0, calculateMedian(nil))
	assert.Equal(t, 2.0, calculateMedian([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, calculateMedian([]float64{4, 1, 3, 2}))

	values := []float64{3, 1, 2}
	calculateMedian(values)
	assert.Equal(t, []float64{3, 1, 2}, values, "input must not be reordered")
}

func TestParseHashAlg(t *testing.T) {
	alg, err := ParseHashAlg("double-gradient")
	require.NoError(t, err)
	assert.Equal(t, DoubleGradient, alg)

	alg, err = ParseHashAlg(" Blockhash ")
	require.NoError(t, err)
	assert.Equal(t, Blockhash, alg)

	_, err = ParseHashAlg("wavelet")
	assert.Error(t, err)
}

func TestParsePreproc(t *testing.T) {
	p, err := ParsePreproc("")
	require.NoError(t, err)
	assert.Equal(t, PreprocNone, p)

	p, err = ParsePreproc("DCT")
	require.NoError(t, err)
	assert.Equal(t, PreprocDCT, p)

	_, err = ParsePreproc("sharpen")
	assert.Error(t, err)
}

func TestHasherConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  HasherConfig
		wantErr bool
	}{
		{"Default", DefaultHasherConfig(), false},
		{"TooNarrow", HasherConfig{Width: 1, Height: 8, Alg: Mean}, true},
		{"TooTall", HasherConfig{Width: 8, Height: 65, Alg: Mean}, true},
		{"UnknownAlg", HasherConfig{Width: 8, Height: 8, Alg: HashAlg(42)}, true},
		{"UnknownPreproc", HasherConfig{Width: 8, Height: 8, Alg: Mean, Preproc: Preproc(9)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.config.Hasher()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIdentifyFormat(t *testing.T) {
	format, err := IdentifyFormat(encodePNG(t, testPage(8, 8)))
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, format)

	_, err = IdentifyFormat([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRegistryDecode(t *testing.T) {
	registry := NewImageLoaderRegistry()

	img, err := registry.Decode(encodePNG(t, testPage(12, 9)))
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 9, img.Bounds().Dy())

	_, err = registry.Decode([]byte{0x00, 0x01, 0x02})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRegistryDecodeCorruptPNG(t *testing.T) {
	data := encodePNG(t, testPage(16, 16))
	truncated := data[:len(data)/2]

	_, err := NewImageLoaderRegistry().Decode(truncated)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownFormat)
}

func TestLoadImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/pages/p1.png", encodePNG(t, testPage(10, 10)), 0o644))

	img, err := LoadImage(fs, "/pages/p1.png")
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())

	_, err = LoadImage(fs, "/pages/missing.png")
	assert.Error(t, err)
}
