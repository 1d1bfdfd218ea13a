// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"
	"github.com/spf13/cobra"

	"github.com/luxfi/bmv/api/bmv"
	"github.com/luxfi/bmv/utils/json"
	"github.com/luxfi/bmv/utils/rpc"
	"github.com/luxfi/bmv/vms/bmv/metrics"
)

func relayCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "relay",
		Short: "Verifies a relay message and prints the messages it delivers",
		RunE:  relayFunc,
	}
	flags := c.Flags()
	AddLinkFlags(flags)
	AddRelayFlags(flags)
	return c
}

func relayFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	config, err := ParseRelayFlags(flags)
	if err != nil {
		return err
	}

	var messages []hexutil.Bytes
	if config.URI != "" {
		reply := &bmv.HandleRelayMessageReply{}
		err := rpc.SendJSONRequest(
			c.Context(),
			config.URI,
			bmv.ServiceName+".handleRelayMessage",
			&bmv.HandleRelayMessageArgs{
				Caller:     config.Caller,
				CurrentBMC: config.Current,
				PrevBMC:    config.Prev,
				Seq:        json.Uint64(config.Seq),
				Message:    config.Message,
			},
			reply,
		)
		if err != nil {
			return err
		}
		messages = reply.Messages
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

		delivered, err := link.verifier.HandleRelayMessage(
			c.Context(),
			config.Caller,
			config.Current,
			config.Prev,
			config.Seq,
			config.Message,
		)
		if err != nil {
			return err
		}
		for _, msg := range delivered {
			messages = append(messages, msg)
		}
	}

	for _, msg := range messages {
		fmt.Println(msg)
	}
	return nil
}
