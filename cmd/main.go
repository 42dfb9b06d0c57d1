package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"vibedoc.ai/mcpcall/internal/interfaces/cli"
	"vibedoc.ai/mcpcall/internal/interfaces/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx, di.Bootstrap)
}
