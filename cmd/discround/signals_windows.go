//go:build windows

package main

import (
	"context"

	"github.com/abrezinsky/discround/internal/logger"
)

// listenForControlSignals is a no-op on Windows, which has no SIGUSR1/SIGUSR2
func listenForControlSignals(ctx context.Context, appLog *logger.SlogLogger) {
	<-ctx.Done()
}
