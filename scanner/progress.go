package scanner

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"pagediff/logging"
	"pagediff/types"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressTracker counts hashed pages and, when enabled, drives a progress
// bar. Record is safe to call from every worker.
type ProgressTracker struct {
	bar       *progressbar.ProgressBar
	logger    *slog.Logger
	total     int
	processed atomic.Int64
	errors    atomic.Int64
	start     time.Time
}

// NewProgressTracker creates a tracker for total pages. The bar is drawn on
// w only when show is true.
func NewProgressTracker(total int, description string, show bool, w io.Writer, logger *slog.Logger) *ProgressTracker {
	tracker := &ProgressTracker{
		logger: logging.Or(logger),
		total:  total,
		start:  time.Now(),
	}

	if show && total > 0 {
		if w == nil {
			w = os.Stderr
		}
		tracker.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	return tracker
}

// Record notes one finished page.
func (p *ProgressTracker) Record(page types.Page, err error) {
	p.processed.Add(1)
	if err != nil {
		p.errors.Add(1)
	}
	logging.LogImageProcessed(p.logger, page.Path, err, "size", humanize.Bytes(uint64(page.Size)))

	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

// Processed returns the number of pages recorded so far.
func (p *ProgressTracker) Processed() int {
	return int(p.processed.Load())
}

// Errors returns the number of failed pages recorded so far.
func (p *ProgressTracker) Errors() int {
	return int(p.errors.Load())
}

// Stop finishes the bar and logs the totals.
func (p *ProgressTracker) Stop() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
	p.logger.Debug("hashing finished",
		"processed", p.Processed(),
		"total", p.total,
		"errors", p.Errors(),
		"elapsed", time.Since(p.start).Round(time.Millisecond),
	)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
