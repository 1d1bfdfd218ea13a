// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quorum

import (
	"errors"
	"fmt"

	"github.com/luxfi/bmv/components/hashing"
)

const (
	ICONAddressName     = "icon"
	EthereumAddressName = "eth"
)

var (
	ErrUnknownAddressScheme = errors.New("unknown address scheme")
	ErrInvalidPublicKey     = errors.New("invalid public key")

	// ICONAddress derives 21 byte ICON EOA addresses: a zero type byte
	// followed by the last 20 bytes of sha3-256(X || Y).
	ICONAddress = AddressScheme{
		Hash:       hashing.SHA3256,
		SkipPrefix: true,
		Length:     20,
		Prefix:     []byte{0x00},
	}

	// EthereumAddress derives 20 byte addresses from keccak256(X || Y).
	EthereumAddress = AddressScheme{
		Hash:       hashing.Keccak256,
		SkipPrefix: true,
		Length:     20,
	}
)

// AddressScheme derives a validator address from an uncompressed public key.
type AddressScheme struct {
	Hash hashing.Func
	// SkipPrefix drops the leading 0x04 tag of the public key before hashing.
	SkipPrefix bool
	// Length is the number of trailing digest bytes kept.
	Length int
	// Prefix is prepended to the truncated digest.
	Prefix []byte
}

func (s AddressScheme) Address(pub []byte) ([]byte, error) {
	if len(pub) == 0 || (s.SkipPrefix && len(pub) < 2) {
		return nil, ErrInvalidPublicKey
	}
	if s.SkipPrefix {
		pub = pub[1:]
	}
	digest := s.Hash(pub)
	if s.Length <= 0 || s.Length > len(digest) {
		return nil, fmt.Errorf("%w: length %d", ErrUnknownAddressScheme, s.Length)
	}

	addr := make([]byte, 0, len(s.Prefix)+s.Length)
	addr = append(addr, s.Prefix...)
	return append(addr, digest[len(digest)-s.Length:]...), nil
}

func AddressSchemeFromName(name string) (AddressScheme, error) {
	switch name {
	case ICONAddressName, "":
		return ICONAddress, nil
	case EthereumAddressName:
		return EthereumAddress, nil
	default:
		return AddressScheme{}, fmt.Errorf("%w: %q", ErrUnknownAddressScheme, name)
	}
}
