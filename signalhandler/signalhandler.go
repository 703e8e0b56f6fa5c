package signalhandler

import (
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

// SetupHandler exits the process on SIGINT or SIGTERM. Hashing has no
// partial results worth keeping, so there is nothing to flush.
func SetupHandler(logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		if logger != nil {
			logger.Warn("interrupted", "signal", sig.String())
		}
		os.Exit(exitCode(sig))
	}()
}

func exitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}

// GetOptimalProcs returns the default number of hashing workers.
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	// Leave headroom for the decoder's own goroutines and, with the gocv
	// loader, OpenCV's thread pool.
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
