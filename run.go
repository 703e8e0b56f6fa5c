package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"pagediff/bktree"
	"pagediff/config"
	"pagediff/database"
	"pagediff/imageprocessor"
	"pagediff/logging"
	"pagediff/matcher"
	"pagediff/report"
	"pagediff/scanner"
	"pagediff/types"
)

type runOptions struct {
	oldDir   string
	newDir   string
	distance int
	progress bool
	cfg      *config.Config
	stdout   io.Writer
	stderr   io.Writer
	logger   *slog.Logger
}

func run(ctx context.Context, opts runOptions) error {
	hc, err := opts.cfg.HasherConfig()
	if err != nil {
		return err
	}
	// One hasher for both sides keeps the fingerprints comparable.
	hasher, err := hc.Hasher()
	if err != nil {
		return err
	}

	scanOpts := scanner.Options{
		Fs:             afero.NewOsFs(),
		Registry:       imageprocessor.NewImageLoaderRegistry(),
		Hasher:         hasher,
		Workers:        opts.cfg.Hashing.Workers,
		Progress:       opts.progress,
		ProgressWriter: opts.stderr,
		Logger:         opts.logger,
	}

	oldImages, err := scanner.HashDirectory(ctx, opts.oldDir, scanOpts)
	if err != nil {
		return err
	}
	newImages, err := scanner.HashDirectory(ctx, opts.newDir, scanOpts)
	if err != nil {
		return err
	}
	if len(oldImages) == 0 {
		logging.LogWarning("No pages found in %s", opts.oldDir)
	}
	if len(newImages) == 0 {
		logging.LogWarning("No pages found in %s", opts.newDir)
	}

	index := bktree.New(types.ImageDistance)
	index.InsertAll(oldImages)

	result := matcher.Match(newImages, index, matcher.Options{
		Threshold:       opts.distance,
		PositionDivisor: opts.cfg.Match.PositionDivisor,
	})
	summary := result.Summary()
	opts.logger.Info("pages matched",
		"matched", summary.Matched,
		"new", summary.NewPages,
		"missing", summary.Missing,
		"distance", opts.distance,
	)

	dirs := report.Dirs{Old: opts.oldDir, New: opts.newDir}
	switch strings.ToLower(opts.cfg.Report.Format) {
	case config.FormatTable:
		err = report.WriteTable(opts.stdout, dirs, result)
	default:
		err = report.WriteText(opts.stdout, dirs, result)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if path := opts.cfg.Report.ExportDB; path != "" {
		if err := exportRun(path, hc, opts, oldImages, newImages, result); err != nil {
			return err
		}
	}
	return nil
}

func exportRun(path string, hc imageprocessor.HasherConfig, opts runOptions, oldImages, newImages []*types.HashedImage, result matcher.Result) error {
	db, err := database.InitDatabase(path)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	defer db.Close()

	id, err := database.StoreRun(db, database.Run{
		OldDir:          opts.oldDir,
		NewDir:          opts.newDir,
		Threshold:       opts.distance,
		PositionDivisor: opts.cfg.Match.PositionDivisor,
		Hasher:          fmt.Sprintf("%s/%s %dx%d", hc.Alg, hc.Preproc, hc.Width, hc.Height),
		Old:             oldImages,
		New:             newImages,
		Result:          result,
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	opts.logger.Info("run exported", "path", path, "run_id", id)
	return nil
}
