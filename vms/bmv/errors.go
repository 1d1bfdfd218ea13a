// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bmv

import (
	"errors"

	"github.com/luxfi/bmv/components/btpaddr"
	"github.com/luxfi/bmv/components/merkle"
	"github.com/luxfi/bmv/components/quorum"
	"github.com/luxfi/bmv/components/section"
	"github.com/luxfi/bmv/vms/bmv/state"
)

var (
	ErrAlreadyInitialized = errors.New("already initialized")

	ErrMalformedRelayMessage = errors.New("malformed relay message")
	ErrUnknownMessageType    = errors.New("unknown relay message type")
	ErrMalformedBlockUpdate  = errors.New("malformed block update")
	ErrMalformedMessageProof = errors.New("malformed message proof")

	ErrInvalidCaller  = errors.New("invalid caller")
	ErrInvalidCurrent = errors.New("invalid current")
	ErrInvalidPrev    = errors.New("invalid prev")

	ErrInvalidSequence          = errors.New("invalid sequence")
	ErrRemainNotZero            = errors.New("remain must be zero")
	ErrInvalidFirstMessageSN    = errors.New("invalid first message sequence")
	ErrInvalidHeight            = errors.New("invalid height")
	ErrNoRemainingMessages      = errors.New("remaining message count must be greater than zero")
	ErrProofInLeftNotEmpty      = errors.New("ProofInLeft should be empty")
	ErrProofInLeftMismatch      = errors.New("mismatch ProofInLeft")
	ErrInvalidNetworkID         = errors.New("invalid network id")
	ErrNetworkSectionMismatch   = errors.New("mismatch networkSectionHash")
	ErrNotFirstBlockUpdate      = errors.New("not first block update")
	ErrNextProofContextHash     = errors.New("mismatch Hash of NextProofContext")
	ErrUpdateFlagMismatch       = errors.New("mismatch UpdateFlag")
	ErrMessageCountMismatch     = errors.New("mismatch MessageCount")
	ErrMessagesRootMismatch     = errors.New("mismatch MessagesRoot")
	ErrProofContextHashMismatch = errors.New("mismatch Hash of proofContext")
)

// Reason classes reported for rejected relay messages.
const (
	ReasonMalformed  = "malformed"
	ReasonAccess     = "access"
	ReasonSequencing = "sequencing"
	ReasonChain      = "chain"
	ReasonCommitment = "commitment"
	ReasonQuorum     = "quorum"
	ReasonState      = "state"
	ReasonUnknown    = "unknown"
)

var reasonClasses = []struct {
	reason string
	errs   []error
}{
	// Access comes first: a malformed BMC address is an access failure.
	{
		reason: ReasonAccess,
		errs:   []error{ErrInvalidCaller, ErrInvalidCurrent, ErrInvalidPrev},
	},
	{
		reason: ReasonMalformed,
		errs: []error{
			ErrMalformedRelayMessage,
			ErrUnknownMessageType,
			ErrMalformedBlockUpdate,
			ErrMalformedMessageProof,
			section.ErrParseHeader,
			section.ErrInvalidDirection,
			quorum.ErrParseProof,
			quorum.ErrParseProofContext,
			quorum.ErrInvalidSignature,
			btpaddr.ErrInvalidAddress,
		},
	},
	{
		reason: ReasonSequencing,
		errs: []error{
			ErrInvalidSequence,
			ErrRemainNotZero,
			ErrInvalidFirstMessageSN,
			ErrInvalidHeight,
			ErrNoRemainingMessages,
			ErrProofInLeftNotEmpty,
			ErrProofInLeftMismatch,
		},
	},
	{
		reason: ReasonChain,
		errs:   []error{ErrInvalidNetworkID, ErrNetworkSectionMismatch, ErrNotFirstBlockUpdate},
	},
	{
		reason: ReasonCommitment,
		errs: []error{
			ErrNextProofContextHash,
			ErrUpdateFlagMismatch,
			ErrMessageCountMismatch,
			ErrMessagesRootMismatch,
			ErrProofContextHashMismatch,
			merkle.ErrEmptyProof,
			merkle.ErrInvalidLeafCount,
			merkle.ErrInvalidLeaf,
			merkle.ErrInvalidLevel,
			merkle.ErrNotPerfect,
			merkle.ErrTotalMismatch,
		},
	},
	{
		reason: ReasonQuorum,
		errs: []error{
			quorum.ErrInvalidValidator,
			quorum.ErrDuplicatedValidator,
			quorum.ErrInsufficientSignatures,
			quorum.ErrNoValidators,
		},
	},
	{
		reason: ReasonState,
		errs:   []error{ErrAlreadyInitialized, state.ErrNotInitialized, state.ErrCorrupted},
	},
}

// Reason returns the class of a relay message rejection.
func Reason(err error) string {
	for _, class := range reasonClasses {
		for _, target := range class.errs {
			if errors.Is(err, target) {
				return class.reason
			}
		}
	}
	return ReasonUnknown
}
