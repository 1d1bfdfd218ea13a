// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package quorumtest provides validator keys for tests.
package quorumtest

import (
	"crypto/ecdsa"
	"testing"

	"github.com/luxfi/crypto"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/bmv/components/quorum"
)

type Signer struct {
	t   testing.TB
	key *ecdsa.PrivateKey
}

func NewSigner(t testing.TB) *Signer {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &Signer{t: t, key: key}
}

func NewSigners(t testing.TB, n int) []*Signer {
	signers := make([]*Signer, n)
	for i := range signers {
		signers[i] = NewSigner(t)
	}
	return signers
}

func (s *Signer) PublicKey() []byte {
	return crypto.FromECDSAPub(&s.key.PublicKey)
}

func (s *Signer) Address(scheme quorum.AddressScheme) []byte {
	addr, err := scheme.Address(s.PublicKey())
	require.NoError(s.t, err)
	return addr
}

// Sign returns an `r || s || v` signature of [hash].
func (s *Signer) Sign(hash []byte) []byte {
	sig, err := crypto.Sign(hash, s.key)
	require.NoError(s.t, err)
	return sig
}

// SignCompact returns a `header || r || s` signature of [hash] for an
// uncompressed key.
func (s *Signer) SignCompact(hash []byte) []byte {
	sig := s.Sign(hash)
	compact := make([]byte, quorum.SignatureLen)
	compact[0] = 27 + sig[64]
	copy(compact[1:], sig[:64])
	return compact
}

// Addresses returns the addresses of [signers] in order.
func Addresses(scheme quorum.AddressScheme, signers []*Signer) [][]byte {
	addrs := make([][]byte, len(signers))
	for i, s := range signers {
		addrs[i] = s.Address(scheme)
	}
	return addrs
}

// ProofContext builds a validator set from [signers].
func ProofContext(t testing.TB, scheme quorum.AddressScheme, signers []*Signer) *quorum.ProofContext {
	pc, err := quorum.NewProofContext(Addresses(scheme, signers))
	require.NoError(t, err)
	return pc
}

// ProofContextBytes returns the encoded validator set of [signers].
func ProofContextBytes(t testing.TB, scheme quorum.AddressScheme, signers []*Signer) []byte {
	b, err := ProofContext(t, scheme, signers).Bytes()
	require.NoError(t, err)
	return b
}

// Signatures signs [hash] with [signers], leaving the positions in [skip]
// empty.
func Signatures(hash []byte, signers []*Signer, skip ...int) [][]byte {
	skipped := make(map[int]bool, len(skip))
	for _, i := range skip {
		skipped[i] = true
	}
	sigs := make([][]byte, len(signers))
	for i, s := range signers {
		if !skipped[i] {
			sigs[i] = s.Sign(hash)
		}
	}
	return sigs
}
