// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/luxfi/log"
	"github.com/spf13/cobra"

	"github.com/luxfi/bmv/api/bmv"
	"github.com/luxfi/bmv/utils/json"
	"github.com/luxfi/bmv/utils/rpc"
	"github.com/luxfi/bmv/vms/bmv/metrics"
)

func statusCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "status",
		Short: "Prints the status of a link",
		RunE:  statusFunc,
	}
	flags := c.Flags()
	AddLinkFlags(flags)
	flags.String(URIKey, "", "JSON-RPC endpoint of a running verifier; the local database is used if empty")
	return c
}

func statusFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	uri, err := flags.GetString(URIKey)
	if err != nil {
		return err
	}

	reply := &bmv.GetStatusReply{}
	if uri != "" {
		err := rpc.SendJSONRequest(
			c.Context(),
			uri,
			bmv.ServiceName+".getStatus",
			struct{}{},
			reply,
		)
		if err != nil {
			return err
		}
	} else {
		linkConfig, err := ParseLinkFlags(flags)
		if err != nil {
			return err
		}
		link, err := openLink(log.Root(), linkConfig, metrics.Noop{})
		if err != nil {
			return err
		}
		defer link.Close()

		status, err := link.verifier.GetStatus(c.Context())
		if err != nil {
			return err
		}
		reply.Height = json.Uint64(status.Height)
		reply.SequenceOffset = json.Uint64(status.SequenceOffset)
		reply.FirstMessageSN = json.Uint64(status.FirstMessageSN)
		reply.MessageCount = json.Uint64(status.MessageCount)
	}

	fmt.Printf("height:          %d\n", reply.Height)
	fmt.Printf("sequence offset: %d\n", reply.SequenceOffset)
	fmt.Printf("first message:   %d\n", reply.FirstMessageSN)
	fmt.Printf("message count:   %d\n", reply.MessageCount)
	return nil
}
