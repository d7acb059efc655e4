package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/discog/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.app().Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrPartialFailure):
			logger.Error("sync finished with errors", "err", err)
		case errors.Is(err, context.Canceled):
			logger.Warn("cancelled")
		default:
			logger.Errorf("application error: %v", err)
		}
		os.Exit(1)
	}
}
