package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"

	"github.com/macropower/gumshoe/internal/cli"
	"github.com/macropower/gumshoe/pkg/engine"
	"github.com/macropower/gumshoe/pkg/telemetry"
	"github.com/macropower/gumshoe/pkg/version"
)

const (
	exitError   = 1
	exitNoMatch = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		slog.Warn("tracing disabled", slog.Any("err", err))
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err := shutdown(sctx)
			if err != nil {
				slog.Warn("flush traces", slog.Any("err", err))
			}
		}()
	}

	err = fang.Execute(ctx, cli.NewRootCmd(),
		fang.WithVersion(version.String()),
		fang.WithErrorHandler(cli.ErrorHandler),
	)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, engine.ErrNoMatch):
		return exitNoMatch
	}

	return exitError
}
