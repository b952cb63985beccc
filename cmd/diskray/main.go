package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diskray/diskray/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Ctrl-C cancels the scan cooperatively; a partial report is still
	// printed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewCommand(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
