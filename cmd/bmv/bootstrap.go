// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/luxfi/log"
	"github.com/spf13/cobra"

	"github.com/luxfi/bmv/vms/bmv/metrics"
)

func bootstrapCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "bootstrap",
		Short: "Initializes a link from the genesis block header of the source network",
		RunE:  bootstrapFunc,
	}
	flags := c.Flags()
	AddLinkFlags(flags)
	AddBootstrapFlags(flags)
	return c
}

func bootstrapFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	linkConfig, err := ParseLinkFlags(flags)
	if err != nil {
		return err
	}
	genesis, err := ParseBootstrapFlags(flags)
	if err != nil {
		return err
	}

	link, err := openLink(log.Root(), linkConfig, metrics.Noop{})
	if err != nil {
		return err
	}
	defer link.Close()

	return link.verifier.Bootstrap(c.Context(), *genesis)
}
