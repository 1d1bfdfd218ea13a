// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state persists the link state of a verifier.
package state

import (
	"errors"
	"fmt"

	"github.com/luxfi/database"
)

var (
	ErrNotInitialized = errors.New("link state not initialized")
	ErrCorrupted      = errors.New("link state corrupted")

	stateKey = []byte("state")
)

// LinkState is the single persisted record of a verifier. Empty byte slices
// represent null values.
type LinkState struct {
	SrcNetworkID           string `serialize:"true" json:"srcNetworkID"`
	BMC                    string `serialize:"true" json:"bmc"`
	NetworkTypeID          uint64 `serialize:"true" json:"networkTypeID"`
	NetworkID              uint64 `serialize:"true" json:"networkID"`
	ProofContextHash       []byte `serialize:"true" json:"proofContextHash"`
	ProofContext           []byte `serialize:"true" json:"proofContext"`
	LastNetworkSectionHash []byte `serialize:"true" json:"lastNetworkSectionHash"`
	LastSequence           uint64 `serialize:"true" json:"lastSequence"`
	LastMessageCount       uint64 `serialize:"true" json:"lastMessageCount"`
	LastMessagesRoot       []byte `serialize:"true" json:"lastMessagesRoot"`
	LastFirstMessageSN     uint64 `serialize:"true" json:"lastFirstMessageSN"`
	Height                 uint64 `serialize:"true" json:"height"`
	SequenceOffset         uint64 `serialize:"true" json:"sequenceOffset"`
}

// ProcessedMessageCount is the number of messages of the last update that
// were already delivered.
func (s *LinkState) ProcessedMessageCount() uint64 {
	return s.LastSequence - s.LastFirstMessageSN
}

// RemainMessageCount is the number of messages of the last update that were
// not delivered yet.
func (s *LinkState) RemainMessageCount() uint64 {
	if len(s.LastMessagesRoot) == 0 {
		return 0
	}
	return s.LastMessageCount - s.ProcessedMessageCount()
}

// Verify checks the internal consistency of a decoded record.
func (s *LinkState) Verify() error {
	if s.LastSequence < s.LastFirstMessageSN {
		return fmt.Errorf("%w: last sequence %d before first message %d",
			ErrCorrupted, s.LastSequence, s.LastFirstMessageSN)
	}
	if len(s.LastMessagesRoot) != 0 && s.ProcessedMessageCount() >= s.LastMessageCount {
		return fmt.Errorf("%w: %d of %d messages processed with open root",
			ErrCorrupted, s.ProcessedMessageCount(), s.LastMessageCount)
	}
	return nil
}

func Has(db database.KeyValueReader) (bool, error) {
	return db.Has(stateKey)
}

func Get(db database.KeyValueReader) (*LinkState, error) {
	b, err := db.Get(stateKey)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}

	s := &LinkState{}
	if _, err := Codec.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	if err := s.Verify(); err != nil {
		return nil, err
	}
	return s, nil
}

func Put(db database.KeyValueWriter, s *LinkState) error {
	b, err := Codec.Marshal(CodecVersion, s)
	if err != nil {
		return err
	}
	return db.Put(stateKey, b)
}
