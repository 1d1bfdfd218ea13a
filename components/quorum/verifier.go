// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package quorum checks that a decision hash was signed by a 2/3 quorum of a
// validator set.
package quorum

import (
	"errors"
	"fmt"

	"github.com/luxfi/math/set"
)

const (
	InclusiveName = "inclusive"
	StrictName    = "strict"
)

var (
	ErrInvalidValidator       = errors.New("invalid validator")
	ErrDuplicatedValidator    = errors.New("duplicated validator")
	ErrInsufficientSignatures = errors.New("insufficient signatures")
	ErrUnknownThreshold       = errors.New("unknown threshold")
)

// Threshold selects how the 2/3 quorum boundary is treated.
type Threshold uint8

const (
	// Inclusive accepts when verified*3 >= validators*2.
	Inclusive Threshold = iota
	// Strict accepts when verified*3 > validators*2.
	Strict
)

func (t Threshold) String() string {
	switch t {
	case Inclusive:
		return InclusiveName
	case Strict:
		return StrictName
	default:
		return fmt.Sprintf("threshold(%d)", uint8(t))
	}
}

// Reached reports whether [verified] signers out of [validators] form a
// quorum.
func (t Threshold) Reached(verified, validators int) bool {
	lhs, rhs := uint64(verified)*3, uint64(validators)*2
	if t == Strict {
		return lhs > rhs
	}
	return lhs >= rhs
}

func ThresholdFromName(name string) (Threshold, error) {
	switch name {
	case InclusiveName, "":
		return Inclusive, nil
	case StrictName:
		return Strict, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownThreshold, name)
	}
}

// Verifier recovers the signers of a decision and checks them against a
// [ProofContext].
type Verifier struct {
	Recoverer Recoverer
	Address   AddressScheme
	Threshold Threshold
}

// Verify returns the number of distinct validators that signed
// [decisionHash], or an error if any signature is not from a validator, a
// validator signed twice, or the threshold is not reached.
func (v *Verifier) Verify(decisionHash []byte, signatures [][]byte, validators *ProofContext) (int, error) {
	if validators == nil || validators.Len() == 0 {
		return 0, ErrNoValidators
	}

	signers := set.NewSet[string](len(signatures))
	for i, sig := range signatures {
		if len(sig) == 0 {
			continue
		}
		pub, err := v.Recoverer.Recover(decisionHash, sig)
		if err != nil {
			return 0, fmt.Errorf("signature %d: %w", i, err)
		}
		addr, err := v.Address.Address(pub)
		if err != nil {
			return 0, fmt.Errorf("signature %d: %w", i, err)
		}
		if !validators.Contains(addr) {
			return 0, fmt.Errorf("%w: %x", ErrInvalidValidator, addr)
		}
		if signers.Contains(string(addr)) {
			return 0, fmt.Errorf("%w: %x", ErrDuplicatedValidator, addr)
		}
		signers.Add(string(addr))
	}

	verified := signers.Len()
	if !v.Threshold.Reached(verified, validators.Len()) {
		return verified, fmt.Errorf(
			"%w: %d of %d (%s)",
			ErrInsufficientSignatures,
			verified,
			validators.Len(),
			v.Threshold,
		)
	}
	return verified, nil
}
