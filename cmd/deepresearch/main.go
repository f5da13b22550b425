// Command deepresearch runs the research pipeline from the terminal or as an
// HTTP service.
//
//	deepresearch run "solar panel efficiency 2024"
//	deepresearch serve --addr :8080
//	deepresearch reports list
//	deepresearch graph
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
