// Command surfpool simulates GPU surface pools driven by frame scenarios.
//
// Usage:
//
//	surfpool simulate [--config surfpool.yaml] [--backend noop|vulkan] [--displays N]
//	surfpool version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gogpu/surfacepool/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Execute(ctx, version, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
