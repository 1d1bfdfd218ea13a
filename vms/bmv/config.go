// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bmv

import (
	"errors"
	"fmt"

	"github.com/luxfi/bmv/components/hashing"
	"github.com/luxfi/bmv/components/quorum"
)

const defaultProofContextCacheSize = 16

var (
	errInvalidCacheSize = errors.New("proof context cache size must be positive")

	DefaultConfig = Config{
		Hash:                  hashing.SHA3256Name,
		Recovery:              quorum.SECP256K1Name,
		Address:               quorum.ICONAddressName,
		Threshold:             quorum.InclusiveName,
		ProofContextCacheSize: defaultProofContextCacheSize,
	}
)

// Config selects the cryptographic parameters of a link. All values are
// names so the config can be stored and passed as JSON.
type Config struct {
	// Hash is the hash function of sections, decisions, message leaves and
	// accumulator nodes.
	Hash string `json:"hash"`
	// Recovery is the public key recovery scheme of decision signatures.
	Recovery string `json:"recovery"`
	// Address is the validator address derivation scheme.
	Address string `json:"address"`
	// Threshold is the quorum boundary variant.
	Threshold string `json:"threshold"`

	ProofContextCacheSize int `json:"proofContextCacheSize"`
}

type parsedConfig struct {
	hash   hashing.Func
	quorum *quorum.Verifier
}

func (c Config) parse() (*parsedConfig, error) {
	if c.ProofContextCacheSize <= 0 {
		return nil, fmt.Errorf("%w: %d", errInvalidCacheSize, c.ProofContextCacheSize)
	}
	hash, err := hashing.FromName(c.Hash)
	if err != nil {
		return nil, err
	}
	recoverer, err := quorum.RecovererFromName(c.Recovery)
	if err != nil {
		return nil, err
	}
	address, err := quorum.AddressSchemeFromName(c.Address)
	if err != nil {
		return nil, err
	}
	threshold, err := quorum.ThresholdFromName(c.Threshold)
	if err != nil {
		return nil, err
	}
	return &parsedConfig{
		hash: hash,
		quorum: &quorum.Verifier{
			Recoverer: recoverer,
			Address:   address,
			Threshold: threshold,
		},
	}, nil
}
