package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"icalq/internal/cli"
	appLog "icalq/internal/log"
)

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		appLog.Error("icalq failed", err)
		stop()
		os.Exit(1)
	}
}
