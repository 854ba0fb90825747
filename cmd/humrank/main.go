// Command humrank ranks machine translation systems from human evaluation
// campaigns and writes the ranking reports.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
