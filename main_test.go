package main

import (
	"bytes"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagediff/database"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func texture(fx, fy, fd float64, inverted bool) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 96, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 96; x++ {
			v := 128 +
				80*math.Sin(float64(x)/fx)*math.Cos(float64(y)/fy) +
				30*math.Sin(float64(x+2*y)/fd)
			v = math.Max(0, math.Min(255, v))
			if inverted {
				v = 255 - v
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// setupDirs writes three old pages and a new version that drops the middle
// one; the kept pages are byte-identical copies.
func setupDirs(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	oldDir := filepath.Join(base, "old")
	newDir := filepath.Join(base, "new")
	require.NoError(t, os.MkdirAll(oldDir, 0o755))
	require.NoError(t, os.MkdirAll(newDir, 0o755))

	first := texture(7, 11, 5, false)
	third := texture(3, 13, 9, false)
	writePNG(t, filepath.Join(oldDir, "p01.png"), first)
	writePNG(t, filepath.Join(oldDir, "p02.png"), texture(3, 13, 9, true))
	writePNG(t, filepath.Join(oldDir, "p03.png"), third)

	writePNG(t, filepath.Join(newDir, "p01.png"), first)
	writePNG(t, filepath.Join(newDir, "p02.png"), third)
	return oldDir, newDir
}

func TestRunTextReport(t *testing.T) {
	oldDir, newDir := setupDirs(t)

	stdout, stderr, err := runCLI(t, "--old", oldDir, "--new", newDir, "--distance", "0", "--workers", "2")
	require.NoError(t, err, stderr)

	want := "PAGE MAPPING:\n" +
		"\t" + filepath.Join(newDir, "p01.png") + " MATCH " + filepath.Join(oldDir, "p01.png") + " (DISTANCE: 0)\n" +
		"\t" + filepath.Join(newDir, "p02.png") + " MATCH " + filepath.Join(oldDir, "p03.png") + " (DISTANCE: 0)\n" +
		"\n" +
		"MISSING PAGES\n" +
		"\t" + filepath.Join(oldDir, "p02.png") + "\n"
	assert.Equal(t, want, stdout)
	assert.Contains(t, stderr, "hashing pages")
	assert.Contains(t, stderr, "pages matched")
}

func TestRunTableReportAndExport(t *testing.T) {
	oldDir, newDir := setupDirs(t)
	dbPath := filepath.Join(t.TempDir(), "run.db")

	stdout, stderr, err := runCLI(t,
		"--old", oldDir, "--new", newDir, "--distance", "0",
		"--format", "table", "--export", dbPath, "--log-format", "json",
	)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "2 matched, 0 new, 1 missing")
	assert.Contains(t, stderr, `"msg":"run exported"`)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var runID string
	require.NoError(t, db.QueryRow(`SELECT id FROM runs`).Scan(&runID))
	stats, err := database.GetRunStats(db, runID)
	require.NoError(t, err)
	assert.Equal(t, database.RunStats{OldPages: 3, NewPages: 2, Matched: 2, Added: 0, Missing: 1}, *stats)
}

func TestRunDistanceFromConfig(t *testing.T) {
	oldDir, newDir := setupDirs(t)
	cfgPath := filepath.Join(t.TempDir(), "pagediff.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[match]\ndistance = 0\n"), 0o644))

	stdout, stderr, err := runCLI(t, "--old", oldDir, "--new", newDir, "--config", cfgPath)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "MISSING PAGES")
}

func TestRunRequiresDistance(t *testing.T) {
	oldDir, newDir := setupDirs(t)

	_, _, err := runCLI(t, "--old", oldDir, "--new", newDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "distance")
}

func TestRunRequiresDirectories(t *testing.T) {
	_, _, err := runCLI(t, "--distance", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "old")
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	oldDir, newDir := setupDirs(t)

	_, _, err := runCLI(t, "--old", oldDir, "--new", newDir, "--distance", "1", "--format", "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.format")
}

func TestRunFailsOnUnreadablePage(t *testing.T) {
	oldDir, newDir := setupDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(newDir, "p03.png"), []byte("not an image"), 0o644))

	stdout, _, err := runCLI(t, "--old", oldDir, "--new", newDir, "--distance", "4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hashing "+newDir)
	assert.Contains(t, err.Error(), "p03.png")
	assert.Empty(t, stdout)
}

func TestRunWarnsForEachEmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	stdout, stderr, err := runCLI(t, "--old", dir, "--new", dir, "--distance", "2")
	require.NoError(t, err, stderr)
	assert.Equal(t, "PAGE MAPPING:\n", stdout)
	assert.Equal(t, 2, strings.Count(stderr, "No pages found in "+dir))
}
