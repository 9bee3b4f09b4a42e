// Package main provides hostctl, a command-line front end for the
// intercepted host API. It lists host operations, checks override profiles
// against the host and calls operations with the active profile applied.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp()
	err := newRootCommand(a).ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails
	err = errors.Join(err, a.close())
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
