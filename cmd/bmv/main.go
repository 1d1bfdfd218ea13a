// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:   "bmv",
		Short: "Verifies relay messages of a BTP link",
	}
	cmd.AddCommand(
		bootstrapCommand(),
		relayCommand(),
		statusCommand(),
		serveCommand(),
		versionCommand(),
	)
	cmd.SilenceUsage = true

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "command failed %v\n", err)
		cancel()
		os.Exit(1)
	}
}
