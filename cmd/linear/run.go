package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/eugener/linear/internal/cli"
)

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return cli.Run(ctx, cli.Options{
		Args:    args,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Version: version,
	})
}
