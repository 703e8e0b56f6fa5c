package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripes(w, h, period int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(40)
			if (x/period+y/(period+3))%2 == 0 {
				v = 220
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestCompareAllIdenticalImages(t *testing.T) {
	img := stripes(60, 80, 7)

	results, err := compareAll(img, img, 8)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, r := range results {
		assert.Zero(t, r.with, r.alg.String())
		assert.Zero(t, r.without, r.alg.String())
	}
}

func TestCompareAllRejectsBadSize(t *testing.T) {
	_, err := compareAll(stripes(8, 8, 2), stripes(8, 8, 2), 1)
	assert.Error(t, err)
}

func TestHashcmpCommand(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}
	for i, path := range paths {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, stripes(64, 90, 5+i*4)))
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	}

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs(append(paths, "--size", "16"))
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 5)
	for i, name := range []string{"Mean", "Gradient", "VertGradient", "DoubleGradient", "Blockhash"} {
		assert.True(t, strings.HasPrefix(lines[i], "Algo: "+name+", dist: "), lines[i])
		assert.Contains(t, lines[i], "(w/o DCT: ")
	}
}

func TestHashcmpCommandMissingFile(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.png"), "other.png"})
	assert.Error(t, cmd.Execute())
}
