// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bmv

import (
	"bytes"
	"fmt"

	"github.com/luxfi/log"

	"github.com/luxfi/bmv/components/quorum"
	"github.com/luxfi/bmv/components/section"
	"github.com/luxfi/bmv/vms/bmv/state"
)

// pendingUpdate is the latest block update accepted in the current call.
type pendingUpdate struct {
	header  *section.Header
	signers int
	rotated bool
	// consumed is the number of its messages delivered in the current call.
	consumed uint64
}

// acceptedProof is a message proof accepted in the current call.
type acceptedProof struct {
	messages     [][]byte
	leftOffset   uint64
	lastSequence uint64
}

// acceptedEntry is reported once the call that accepted it commits.
type acceptedEntry struct {
	update *pendingUpdate
	proof  *acceptedProof
}

func (v *Verifier) report(entries []acceptedEntry) {
	for _, entry := range entries {
		switch {
		case entry.update != nil:
			header := entry.update.header
			v.metrics.MarkBlockUpdate(entry.update.rotated)
			v.log.Info("accepted block update",
				log.Uint64("height", header.MainHeight),
				log.Uint64("round", header.Round),
				log.Uint64("firstMessageSN", header.FirstMessageSN()),
				log.Uint64("messageCount", header.MessageCount),
				log.Int("signers", entry.update.signers),
				log.Bool("rotated", entry.update.rotated),
			)
		case entry.proof != nil:
			v.metrics.MarkMessageProof(len(entry.proof.messages))
			v.log.Debug("accepted message proof",
				log.Uint64("leftOffset", entry.proof.leftOffset),
				log.Int("messages", len(entry.proof.messages)),
				log.Uint64("lastSequence", entry.proof.lastSequence),
			)
		}
	}
}

// applyBlockUpdate verifies the block update in [payload] against [s] and
// applies it to [s].
func (v *Verifier) applyBlockUpdate(s *state.LinkState, payload []byte) (*pendingUpdate, error) {
	bu, err := ParseBlockUpdate(payload)
	if err != nil {
		return nil, err
	}
	header, err := section.ParseHeader(bu.Header)
	if err != nil {
		return nil, err
	}

	if remain := s.RemainMessageCount(); remain != 0 {
		return nil, fmt.Errorf("%w: %d remaining", ErrRemainNotZero, remain)
	}
	if header.NetworkID != s.NetworkID {
		return nil, fmt.Errorf("%w: expected %d got %d", ErrInvalidNetworkID, s.NetworkID, header.NetworkID)
	}
	if !bytes.Equal(header.Prev, s.LastNetworkSectionHash) {
		return nil, fmt.Errorf("%w: expected %x got %x", ErrNetworkSectionMismatch, s.LastNetworkSectionHash, header.Prev)
	}
	if header.FirstMessageSN() != s.LastSequence {
		return nil, fmt.Errorf("%w: expected %d got %d", ErrInvalidFirstMessageSN, s.LastSequence, header.FirstMessageSN())
	}
	if header.MainHeight < s.Height {
		return nil, fmt.Errorf("%w: %d is below %d", ErrInvalidHeight, header.MainHeight, s.Height)
	}

	digest, err := header.Digest(v.config.hash, s.SrcNetworkID, s.NetworkTypeID)
	if err != nil {
		return nil, err
	}
	validators, err := v.proofContext(s)
	if err != nil {
		return nil, err
	}
	proof := &quorum.Proof{}
	if len(bu.Proof) != 0 {
		proof, err = quorum.ParseProof(bu.Proof)
		if err != nil {
			return nil, err
		}
	}
	verified, err := v.config.quorum.Verify(digest.DecisionHash, proof.Signatures, validators)
	if err != nil {
		return nil, err
	}

	rotated := header.HasNewNextValidators()
	if rotated {
		if !bytes.Equal(v.config.hash(header.NextProofContext), header.NextProofContextHash) {
			return nil, ErrNextProofContextHash
		}
		if bytes.Equal(header.NextProofContextHash, s.ProofContextHash) {
			return nil, fmt.Errorf("%w: rotation to the current validator set", ErrUpdateFlagMismatch)
		}
		next, err := quorum.ParseProofContext(header.NextProofContext)
		if err != nil {
			return nil, err
		}
		s.ProofContextHash = header.NextProofContextHash
		s.ProofContext = header.NextProofContext
		v.proofContexts.Put(hashID(s.ProofContextHash), next)
	}

	s.LastMessagesRoot = messagesRoot(header)
	s.LastMessageCount = header.MessageCount
	s.LastFirstMessageSN = header.FirstMessageSN()
	s.LastNetworkSectionHash = digest.NetworkSectionHash
	s.Height = header.MainHeight
	return &pendingUpdate{
		header:  header,
		signers: verified,
		rotated: rotated,
	}, nil
}

// applyMessageProof verifies the message proof in [payload] against the open
// batch of [s] and returns the proven messages.
func (v *Verifier) applyMessageProof(s *state.LinkState, pending *pendingUpdate, payload []byte) (*acceptedProof, error) {
	mp, err := ParseMessageProof(payload)
	if err != nil {
		return nil, err
	}
	if s.RemainMessageCount() == 0 {
		return nil, ErrNoRemainingMessages
	}

	result, err := mp.Prove(v.config.hash)
	if err != nil {
		return nil, err
	}

	expectedCount, expectedRoot := s.LastMessageCount, s.LastMessagesRoot
	switch {
	case pending != nil && pending.consumed == 0:
		expectedCount, expectedRoot = pending.header.MessageCount, pending.header.MessagesRoot
		if result.LeftOffset != 0 {
			return nil, fmt.Errorf("%w: left offset %d", ErrProofInLeftNotEmpty, result.LeftOffset)
		}
	case result.LeftOffset != s.ProcessedMessageCount():
		return nil, fmt.Errorf("%w: expected %d got %d", ErrProofInLeftMismatch, s.ProcessedMessageCount(), result.LeftOffset)
	}
	if result.Total != expectedCount {
		return nil, fmt.Errorf("%w: expected %d got %d", ErrMessageCountMismatch, expectedCount, result.Total)
	}
	if !bytes.Equal(result.Root, expectedRoot) {
		return nil, fmt.Errorf("%w: expected %x got %x", ErrMessagesRootMismatch, expectedRoot, result.Root)
	}

	batch := uint64(len(mp.Messages))
	s.LastSequence += batch
	if pending != nil {
		pending.consumed += batch
	}
	if result.Remaining(len(mp.Messages)) == 0 {
		s.LastMessagesRoot = nil
	}
	return &acceptedProof{
		messages:     mp.Messages,
		leftOffset:   result.LeftOffset,
		lastSequence: s.LastSequence,
	}, nil
}

// messagesRoot returns the root of the batch committed by [h], or nil if the
// batch is empty.
func messagesRoot(h *section.Header) []byte {
	if h.MessageCount == 0 {
		return nil
	}
	return h.MessagesRoot
}
