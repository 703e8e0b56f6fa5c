// Package scanner lists a page directory and fingerprints every page on a
// pool of workers.
//
// Each page keeps the position it had in the sorted listing as its sequence
// index, whatever order the workers finish in. Workers build private partial
// results which are concatenated once all of them are done; nothing else is
// shared between them. The first failing page cancels the pass.
package scanner

import (
	"context"
	"fmt"

	"pagediff/imageprocessor"
	"pagediff/logging"
	"pagediff/scanner/processor"
	"pagediff/signalhandler"
	"pagediff/types"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

type job struct {
	index int
	page  types.Page
}

func (o Options) withDefaults() (Options, error) {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Registry == nil {
		o.Registry = imageprocessor.NewImageLoaderRegistry()
	}
	if o.Hasher == nil {
		hasher, err := imageprocessor.DefaultHasherConfig().Hasher()
		if err != nil {
			return o, err
		}
		o.Hasher = hasher
	}
	if o.Workers <= 0 {
		o.Workers = signalhandler.GetOptimalProcs()
	}
	o.Logger = logging.Or(o.Logger)
	return o, nil
}

// HashDirectory lists dir and hashes every page in it.
func HashDirectory(ctx context.Context, dir string, opts Options) ([]*types.HashedImage, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", dir, err)
	}

	pages, err := ListPages(opts.Fs, dir)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", dir, err)
	}

	var total int64
	for _, page := range pages {
		total += page.Size
	}
	opts.Logger.Info("hashing pages",
		"dir", dir,
		"pages", len(pages),
		"size", humanize.Bytes(uint64(total)),
		"workers", opts.Workers,
	)

	images, err := hashPages(ctx, dir, pages, opts)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", dir, err)
	}
	return images, nil
}

// HashPages hashes pages, which must already be in directory order: the
// sequence index of each result is its page's position in the slice. The
// result holds one image per page, in no particular order.
func HashPages(ctx context.Context, pages []types.Page, opts Options) ([]*types.HashedImage, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	return hashPages(ctx, "pages", pages, opts)
}

func hashPages(ctx context.Context, label string, pages []types.Page, opts Options) ([]*types.HashedImage, error) {
	if len(pages) == 0 {
		return []*types.HashedImage{}, nil
	}

	workers := opts.Workers
	if workers > len(pages) {
		workers = len(pages)
	}

	proc := processor.NewPageProcessor(opts.Fs, opts.Registry, opts.Hasher)
	tracker := NewProgressTracker(len(pages), label, opts.Progress, opts.ProgressWriter, opts.Logger)
	defer tracker.Stop()

	group, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job)

	group.Go(func() error {
		defer close(jobs)
		for i, page := range pages {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case jobs <- job{index: i, page: page}:
			}
		}
		return nil
	})

	partials := make([][]*types.HashedImage, workers)
	for w := 0; w < workers; w++ {
		group.Go(func() error {
			for j := range jobs {
				if gctx.Err() != nil {
					return nil
				}
				img, err := proc.ProcessPage(j.page, j.index)
				tracker.Record(j.page, err)
				if err != nil {
					return err
				}
				partials[w] = append(partials[w], img)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := make([]*types.HashedImage, 0, len(pages))
	for _, partial := range partials {
		merged = append(merged, partial...)
	}
	return merged, nil
}
