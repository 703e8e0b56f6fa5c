package imageprocessor

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/bits"
	"sort"
)

// Fingerprint is a fixed-width perceptual bit vector. It is immutable once
// built by a Hasher.
type Fingerprint struct {
	words []uint64
	width int
}

func newFingerprint(width int) Fingerprint {
	return Fingerprint{
		words: make([]uint64, (width+63)/64),
		width: width,
	}
}

// FingerprintFromUint64 builds a fingerprint of the given width (at most 64)
// from the low bits of v. Bit i of the fingerprint is bit i of v.
func FingerprintFromUint64(v uint64, width int) Fingerprint {
	if width < 0 || width > 64 {
		panic(fmt.Sprintf("imageprocessor: fingerprint width %d out of range", width))
	}
	if width < 64 {
		v &= (uint64(1) << uint(width)) - 1
	}
	return Fingerprint{words: []uint64{v}, width: width}
}

func (f *Fingerprint) set(i int) {
	f.words[i/64] |= uint64(1) << uint(i%64)
}

// Bits returns the number of bits in the fingerprint.
func (f Fingerprint) Bits() int {
	return f.width
}

// Bit reports whether bit i is set.
func (f Fingerprint) Bit(i int) bool {
	return f.words[i/64]&(uint64(1)<<uint(i%64)) != 0
}

// Distance returns the Hamming distance between two fingerprints. Comparing
// fingerprints of different widths is a programming error and panics.
func (f Fingerprint) Distance(other Fingerprint) int {
	if f.width != other.width {
		panic(fmt.Sprintf("imageprocessor: fingerprint widths differ (%d vs %d)", f.width, other.width))
	}
	dist := 0
	for i, w := range f.words {
		dist += bits.OnesCount64(w ^ other.words[i])
	}
	return dist
}

// Equal reports whether both fingerprints carry the same bits.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.width == other.width && f.Distance(other) == 0
}

// Hex renders the bits as hexadecimal, first bit as the most significant bit
// of the first byte. Trailing bits are zero padded.
func (f Fingerprint) Hex() string {
	hashBytes := make([]byte, 0, (f.width+7)/8)
	var currentByte byte
	var bitCount uint

	for i := 0; i < f.width; i++ {
		currentByte <<= 1
		if f.Bit(i) {
			currentByte |= 1
		}
		bitCount++
		if bitCount == 8 {
			hashBytes = append(hashBytes, currentByte)
			currentByte = 0
			bitCount = 0
		}
	}
	if bitCount > 0 {
		currentByte <<= 8 - bitCount
		hashBytes = append(hashBytes, currentByte)
	}

	return hex.EncodeToString(hashBytes)
}

// String implements fmt.Stringer.
func (f Fingerprint) String() string {
	return f.Hex()
}

// grid is a row-major matrix of luminance (or transformed) samples.
type grid struct {
	w, h int
	v    []float64
}

func newGrid(w, h int) grid {
	return grid{w: w, h: h, v: make([]float64, w*h)}
}

func (g grid) at(x, y int) float64 {
	return g.v[y*g.w+x]
}

func (g grid) set(x, y int, val float64) {
	g.v[y*g.w+x] = val
}

// crop keeps the top-left w x h samples.
func (g grid) crop(w, h int) grid {
	out := newGrid(w, h)
	for y := 0; y < h; y++ {
		copy(out.v[y*w:(y+1)*w], g.v[y*g.w:y*g.w+w])
	}
	return out
}

// applyDCT computes an orthonormal 2-D DCT-II of the grid, one dimension at
// a time.
func applyDCT(g grid) grid {
	rows := dctRows(g)
	return transpose(dctRows(transpose(rows)))
}

func dctRows(g grid) grid {
	out := newGrid(g.w, g.h)
	n := g.w
	table := dctTable(n)
	for y := 0; y < g.h; y++ {
		row := g.v[y*n : (y+1)*n]
		for u := 0; u < n; u++ {
			sum := 0.0
			for i, px := range row {
				sum += px * table[u*n+i]
			}
			scale := math.Sqrt(2.0 / float64(n))
			if u == 0 {
				scale = math.Sqrt(1.0 / float64(n))
			}
			out.set(u, y, sum*scale)
		}
	}
	return out
}

func dctTable(n int) []float64 {
	table := make([]float64, n*n)
	for u := 0; u < n; u++ {
		for i := 0; i < n; i++ {
			table[u*n+i] = math.Cos(math.Pi * float64(u) * (2*float64(i) + 1) / (2 * float64(n)))
		}
	}
	return table
}

func transpose(g grid) grid {
	out := newGrid(g.h, g.w)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			out.set(y, x, g.at(x, y))
		}
	}
	return out
}

// calculateMedian calculates the median value of a float64 slice
func calculateMedian(values []float64) float64 {
	// Make a copy to avoid modifying the original slice
	valuesCopy := make([]float64, len(values))
	copy(valuesCopy, values)
	sort.Float64s(valuesCopy)

	length := len(valuesCopy)
	if length == 0 {
		return 0
	} else if length%2 == 0 {
		return (valuesCopy[length/2-1] + valuesCopy[length/2]) / 2
	}
	return valuesCopy[length/2]
}

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
