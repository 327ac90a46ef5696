package main

import (
	"log/slog"
	"os"

	"growthdash/internal/app"
	apierrors "growthdash/internal/errors"
)

// exitConfig is the exit status for an invalid configuration
const exitConfig = 2

func main() {
	application, err := app.NewApplication()
	if err != nil {
		if apierrors.IsType(err, apierrors.ErrTypeConfig) {
			slog.Error("Invalid configuration", slog.String("error", err.Error()))
			os.Exit(exitConfig)
		}
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
