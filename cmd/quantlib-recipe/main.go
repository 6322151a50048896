// Command quantlib-recipe filters the QuantLib build matrix and drives the
// fetch, patch, build and package steps for every kept configuration.
//
// Usage:
//
//	quantlib-recipe matrix --policy current --excluded
//	quantlib-recipe target --compiler msvc --compiler-version 15 --arch x86_64
//	quantlib-recipe source --work-dir .quantlib
//	quantlib-recipe build --policy legacy --matrix matrix.toml --keep-going
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
