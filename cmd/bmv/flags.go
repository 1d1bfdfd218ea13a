// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/luxfi/geth/common/hexutil"
	"github.com/spf13/pflag"

	"github.com/luxfi/bmv/vms/bmv"
)

const (
	DBDirKey     = "db-dir"
	LinkKey      = "link"
	HashKey      = "hash"
	RecoveryKey  = "recovery"
	AddressKey   = "address"
	ThresholdKey = "threshold"
	URIKey       = "uri"

	SrcNetworkIDKey   = "src-network-id"
	NetworkTypeIDKey  = "network-type-id"
	BMCKey            = "bmc"
	HeaderKey         = "header"
	SequenceOffsetKey = "sequence-offset"

	CallerKey  = "caller"
	CurrentKey = "current"
	PrevKey    = "prev"
	SeqKey     = "seq"
	MessageKey = "message"

	HTTPAddrKey       = "http-addr"
	AllowedOriginsKey = "allowed-origins"

	defaultDBDir    = "bmv-db"
	defaultHTTPAddr = "127.0.0.1:9650"
)

// AddLinkFlags registers the flags that select and configure a link.
func AddLinkFlags(flags *pflag.FlagSet) {
	flags.String(DBDirKey, defaultDBDir, "Directory of the link database")
	flags.String(LinkKey, "", "Namespace of the link inside the database")
	flags.String(HashKey, bmv.DefaultConfig.Hash, "Hash function of the source network")
	flags.String(RecoveryKey, bmv.DefaultConfig.Recovery, "Public key recovery scheme of validator signatures")
	flags.String(AddressKey, bmv.DefaultConfig.Address, "Validator address derivation scheme")
	flags.String(ThresholdKey, bmv.DefaultConfig.Threshold, "Quorum threshold variant")
}

type LinkConfig struct {
	DBDir  string
	Link   string
	Config bmv.Config
}

func ParseLinkFlags(flags *pflag.FlagSet) (*LinkConfig, error) {
	dbDir, err := flags.GetString(DBDirKey)
	if err != nil {
		return nil, err
	}
	link, err := flags.GetString(LinkKey)
	if err != nil {
		return nil, err
	}
	hash, err := flags.GetString(HashKey)
	if err != nil {
		return nil, err
	}
	recovery, err := flags.GetString(RecoveryKey)
	if err != nil {
		return nil, err
	}
	address, err := flags.GetString(AddressKey)
	if err != nil {
		return nil, err
	}
	threshold, err := flags.GetString(ThresholdKey)
	if err != nil {
		return nil, err
	}

	config := bmv.DefaultConfig
	config.Hash = hash
	config.Recovery = recovery
	config.Address = address
	config.Threshold = threshold
	return &LinkConfig{
		DBDir:  dbDir,
		Link:   link,
		Config: config,
	}, nil
}

func AddBootstrapFlags(flags *pflag.FlagSet) {
	flags.String(SrcNetworkIDKey, "", "Network address of the source network (required)")
	flags.Uint64(NetworkTypeIDKey, 0, "Network type of the source network")
	flags.String(BMCKey, "", "Address of the BMC allowed to call the verifier (required)")
	flags.String(HeaderKey, "", "Hex encoded genesis block header (required)")
	flags.Uint64(SequenceOffsetKey, 0, "Sequence number of the first message of the link")
}

func ParseBootstrapFlags(flags *pflag.FlagSet) (*bmv.GenesisArgs, error) {
	srcNetworkID, err := flags.GetString(SrcNetworkIDKey)
	if err != nil {
		return nil, err
	}
	networkTypeID, err := flags.GetUint64(NetworkTypeIDKey)
	if err != nil {
		return nil, err
	}
	bmc, err := flags.GetString(BMCKey)
	if err != nil {
		return nil, err
	}
	headerStr, err := flags.GetString(HeaderKey)
	if err != nil {
		return nil, err
	}
	header, err := hexutil.Decode(headerStr)
	if err != nil {
		return nil, err
	}
	sequenceOffset, err := flags.GetUint64(SequenceOffsetKey)
	if err != nil {
		return nil, err
	}
	return &bmv.GenesisArgs{
		SrcNetworkID:   srcNetworkID,
		NetworkTypeID:  networkTypeID,
		BMC:            bmc,
		Header:         header,
		SequenceOffset: sequenceOffset,
	}, nil
}

func AddRelayFlags(flags *pflag.FlagSet) {
	flags.String(URIKey, "", "JSON-RPC endpoint of a running verifier; the local database is used if empty")
	flags.String(CallerKey, "", "Address of the caller")
	flags.String(CurrentKey, "", "BTP address of the BMC of this chain")
	flags.String(PrevKey, "", "BTP address of the BMC of the source network")
	flags.Uint64(SeqKey, 0, "Sequence number of the relay message")
	flags.String(MessageKey, "", "Hex encoded relay message")
}

type RelayConfig struct {
	URI     string
	Caller  string
	Current string
	Prev    string
	Seq     uint64
	Message []byte
}

func ParseRelayFlags(flags *pflag.FlagSet) (*RelayConfig, error) {
	uri, err := flags.GetString(URIKey)
	if err != nil {
		return nil, err
	}
	caller, err := flags.GetString(CallerKey)
	if err != nil {
		return nil, err
	}
	current, err := flags.GetString(CurrentKey)
	if err != nil {
		return nil, err
	}
	prev, err := flags.GetString(PrevKey)
	if err != nil {
		return nil, err
	}
	seq, err := flags.GetUint64(SeqKey)
	if err != nil {
		return nil, err
	}
	messageStr, err := flags.GetString(MessageKey)
	if err != nil {
		return nil, err
	}
	message, err := hexutil.Decode(messageStr)
	if err != nil {
		return nil, err
	}
	return &RelayConfig{
		URI:     uri,
		Caller:  caller,
		Current: current,
		Prev:    prev,
		Seq:     seq,
		Message: message,
	}, nil
}
