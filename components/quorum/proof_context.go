// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quorum

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/rlp"
	"github.com/luxfi/math/set"
)

var (
	ErrParseProofContext    = errors.New("failed to parse proof context")
	ErrNoValidators         = errors.New("no validators")
	ErrDuplicateInValidator = errors.New("duplicate validator in proof context")
	ErrParseProof           = errors.New("failed to parse decision proof")
)

// ProofContext is the ordered validator set a decision is checked against.
type ProofContext struct {
	validators [][]byte
	members    set.Set[string]
}

type proofContextRecord struct {
	Validators [][]byte
}

func NewProofContext(validators [][]byte) (*ProofContext, error) {
	if len(validators) == 0 {
		return nil, ErrNoValidators
	}
	members := set.NewSet[string](len(validators))
	for i, v := range validators {
		if members.Contains(string(v)) {
			return nil, fmt.Errorf("%w: index %d", ErrDuplicateInValidator, i)
		}
		members.Add(string(v))
	}
	return &ProofContext{
		validators: validators,
		members:    members,
	}, nil
}

func ParseProofContext(b []byte) (*ProofContext, error) {
	record := proofContextRecord{}
	if err := rlp.DecodeBytes(b, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseProofContext, err)
	}
	return NewProofContext(record.Validators)
}

func (pc *ProofContext) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(&proofContextRecord{Validators: pc.validators})
}

func (pc *ProofContext) Len() int {
	return len(pc.validators)
}

func (pc *ProofContext) Contains(addr []byte) bool {
	return pc.members.Contains(string(addr))
}

// Validators returns the validator addresses in canonical order.
func (pc *ProofContext) Validators() [][]byte {
	return pc.validators
}

// Proof is the list of validator signatures over a decision. An empty entry
// means the validator at that position did not sign.
type Proof struct {
	Signatures [][]byte
}

func ParseProof(b []byte) (*Proof, error) {
	p := &Proof{}
	if err := rlp.DecodeBytes(b, p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseProof, err)
	}
	return p, nil
}

func (p *Proof) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(p)
}
