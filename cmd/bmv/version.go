// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/luxfi/version"
	"github.com/spf13/cobra"
)

var Version = &version.Semantic{
	Major: 1,
	Minor: 0,
	Patch: 0,
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of the verifier",
		RunE: func(*cobra.Command, []string) error {
			fmt.Println(Version)
			return nil
		},
	}
}
