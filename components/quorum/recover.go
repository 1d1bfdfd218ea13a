// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quorum

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/luxfi/crypto"

	"github.com/luxfi/bmv/components/hashing"
)

const (
	SECP256K1Name = "secp256k1"
	CompactName   = "compact"

	// SignatureLen is the length of a recoverable secp256k1 signature.
	SignatureLen = 65
)

var (
	_ Recoverer = SECP256K1{}
	_ Recoverer = Compact{}

	ErrInvalidSignature = errors.New("invalid signature")
	ErrUnknownRecoverer = errors.New("unknown public key recovery scheme")
)

// Recoverer recovers the uncompressed public key that produced [sig] over
// [hash].
type Recoverer interface {
	Recover(hash, sig []byte) ([]byte, error)
}

// SECP256K1 recovers keys from `r || s || v` signatures where v is the
// recovery id in {0, 1}.
type SECP256K1 struct{}

func (SECP256K1) Recover(hash, sig []byte) ([]byte, error) {
	if len(hash) != hashing.HashLen || len(sig) != SignatureLen {
		return nil, fmt.Errorf("%w: hash=%d sig=%d bytes", ErrInvalidSignature, len(hash), len(sig))
	}
	pub, err := crypto.Ecrecover(hash, sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return pub, nil
}

// Compact recovers keys from `header || r || s` signatures as produced by
// bitcoin style compact signing.
type Compact struct{}

func (Compact) Recover(hash, sig []byte) ([]byte, error) {
	if len(hash) != hashing.HashLen || len(sig) != SignatureLen {
		return nil, fmt.Errorf("%w: hash=%d sig=%d bytes", ErrInvalidSignature, len(hash), len(sig))
	}
	pub, _, err := ecdsa.RecoverCompact(sig, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return pub.SerializeUncompressed(), nil
}

func RecovererFromName(name string) (Recoverer, error) {
	switch name {
	case SECP256K1Name, "":
		return SECP256K1{}, nil
	case CompactName:
		return Compact{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecoverer, name)
	}
}
