// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hashing provides the collision-resistant hash functions used to
// commit to sections, decisions, validator sets and messages.
package hashing

import (
	"errors"
	"fmt"

	"github.com/luxfi/crypto"
	"golang.org/x/crypto/sha3"
)

const (
	SHA3256Name   = "sha3-256"
	Keccak256Name = "keccak256"

	// HashLen is the output length of every supported hash function.
	HashLen = 32
)

var ErrUnknownHash = errors.New("unknown hash function")

// Func hashes the concatenation of the provided byte slices.
type Func func(data ...[]byte) []byte

// SHA3256 is the FIPS-202 SHA3-256 hash used by ICON based networks.
func SHA3256(data ...[]byte) []byte {
	h := sha3.New256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256 is the legacy Keccak-256 hash used by EVM based networks.
func Keccak256(data ...[]byte) []byte {
	return crypto.Keccak256(data...)
}

// FromName returns the hash function registered under [name].
func FromName(name string) (Func, error) {
	switch name {
	case SHA3256Name, "":
		return SHA3256, nil
	case Keccak256Name:
		return Keccak256, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHash, name)
	}
}
