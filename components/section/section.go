// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package section defines the per-network and per-network-type commitments
// of a BTP block and the decision object a validator quorum signs.
//
// Every record is RLP encoded with positional fields; a nullable byte string
// is encoded as the empty byte string.
package section

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/rlp"

	"github.com/luxfi/bmv/components/hashing"
)

// Direction tells on which side of the running hash a sibling is placed.
type Direction uint8

const (
	Left Direction = iota
	Right
)

var ErrInvalidDirection = errors.New("invalid audit path direction")

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// PathStep is one sibling of the audit path from a network section to the
// network sections root.
type PathStep struct {
	Dir   Direction
	Value []byte
}

// NetworkSection is one update's contribution for one network.
type NetworkSection struct {
	NetworkID    uint64
	UpdateNumber uint64
	Prev         []byte
	MessageCount uint64
	MessagesRoot []byte
}

func (s *NetworkSection) Hash(h hashing.Func) ([]byte, error) {
	return encodeAndHash(h, s)
}

// FoldAuditPath folds [leaf] through [path] and returns the resulting network
// sections root.
func FoldAuditPath(h hashing.Func, leaf []byte, path []PathStep) ([]byte, error) {
	acc := leaf
	for i, step := range path {
		switch step.Dir {
		case Left:
			acc = h(step.Value, acc)
		case Right:
			acc = h(acc, step.Value)
		default:
			return nil, fmt.Errorf("%w at step %d: %s", ErrInvalidDirection, i, step.Dir)
		}
	}
	return acc, nil
}

// NetworkTypeSection commits to the next validator set and to the sections
// of every network of one network type.
type NetworkTypeSection struct {
	NextProofContextHash []byte
	NetworkSectionsRoot  []byte
}

func (s *NetworkTypeSection) Hash(h hashing.Func) ([]byte, error) {
	return encodeAndHash(h, s)
}

// Decision binds a network type section to a height and round of the source
// chain. Its hash is what the validators sign.
type Decision struct {
	SrcNetworkID           string
	NetworkTypeID          uint64
	Height                 uint64
	Round                  uint64
	NetworkTypeSectionHash []byte
}

func (d *Decision) Hash(h hashing.Func) ([]byte, error) {
	return encodeAndHash(h, d)
}

func encodeAndHash(h hashing.Func, v interface{}) ([]byte, error) {
	b, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, err
	}
	return h(b), nil
}
