//go:build !windows

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/abrezinsky/discround/internal/logger"
)

// listenForControlSignals adjusts logging at runtime until ctx is done
func listenForControlSignals(ctx context.Context, appLog *logger.SlogLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			switch sig {
			case syscall.SIGUSR1:
				cycleLogLevel(appLog)
			case syscall.SIGUSR2:
				toggleHTTPLogging(appLog)
			}
		}
	}
}
