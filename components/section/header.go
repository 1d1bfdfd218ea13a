// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package section

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/rlp"

	"github.com/luxfi/bmv/components/hashing"
)

var ErrParseHeader = errors.New("failed to parse block header")

// Header is the block header of one network of a BTP block. It carries the
// network section fields plus what is required to rebuild the network type
// section and the decision.
type Header struct {
	MainHeight           uint64
	Round                uint64
	NextProofContextHash []byte
	NetworkSectionToRoot []PathStep
	NetworkID            uint64
	UpdateNumber         uint64
	Prev                 []byte
	MessageCount         uint64
	MessagesRoot         []byte
	NextProofContext     []byte
}

func ParseHeader(b []byte) (*Header, error) {
	h := &Header{}
	if err := rlp.DecodeBytes(b, h); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseHeader, err)
	}
	return h, nil
}

func (h *Header) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(h)
}

// FirstMessageSN is the sequence number of the first message committed by
// this update.
func (h *Header) FirstMessageSN() uint64 {
	return h.UpdateNumber >> 1
}

// HasNewNextValidators reports whether this update rotates the validator set.
func (h *Header) HasNewNextValidators() bool {
	return h.UpdateNumber&1 == 1
}

// IsGenesis reports whether this is the first update of the network.
func (h *Header) IsGenesis() bool {
	return len(h.Prev) == 0
}

func (h *Header) NetworkSection() *NetworkSection {
	return &NetworkSection{
		NetworkID:    h.NetworkID,
		UpdateNumber: h.UpdateNumber,
		Prev:         h.Prev,
		MessageCount: h.MessageCount,
		MessagesRoot: h.MessagesRoot,
	}
}

// NetworkTypeSection rebuilds the network type section from the network
// section hash [nsHash] and the audit path of the header.
func (h *Header) NetworkTypeSection(hash hashing.Func, nsHash []byte) (*NetworkTypeSection, error) {
	root, err := FoldAuditPath(hash, nsHash, h.NetworkSectionToRoot)
	if err != nil {
		return nil, err
	}
	return &NetworkTypeSection{
		NextProofContextHash: h.NextProofContextHash,
		NetworkSectionsRoot:  root,
	}, nil
}

// Digest holds every hash derived from a header.
type Digest struct {
	NetworkSectionHash     []byte
	NetworkTypeSectionHash []byte
	DecisionHash           []byte
}

// Digest computes the network section hash, the network type section hash
// and the decision hash of [h] for the given source network and type.
func (h *Header) Digest(hash hashing.Func, srcNetworkID string, networkTypeID uint64) (*Digest, error) {
	nsHash, err := h.NetworkSection().Hash(hash)
	if err != nil {
		return nil, err
	}
	nts, err := h.NetworkTypeSection(hash, nsHash)
	if err != nil {
		return nil, err
	}
	ntsHash, err := nts.Hash(hash)
	if err != nil {
		return nil, err
	}
	decision := &Decision{
		SrcNetworkID:           srcNetworkID,
		NetworkTypeID:          networkTypeID,
		Height:                 h.MainHeight,
		Round:                  h.Round,
		NetworkTypeSectionHash: ntsHash,
	}
	decisionHash, err := decision.Hash(hash)
	if err != nil {
		return nil, err
	}
	return &Digest{
		NetworkSectionHash:     nsHash,
		NetworkTypeSectionHash: ntsHash,
		DecisionHash:           decisionHash,
	}, nil
}
