// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bmv implements a BTP message verifier: it keeps the link state of
// one source network and accepts relay messages that prove the inclusion of
// messages in that network's committed history.
package bmv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/cache"
	"github.com/luxfi/database"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/bmv/components/btpaddr"
	"github.com/luxfi/bmv/components/quorum"
	"github.com/luxfi/bmv/components/section"
	"github.com/luxfi/bmv/utils/math"
	"github.com/luxfi/bmv/vms/bmv/metrics"
	"github.com/luxfi/bmv/vms/bmv/state"
)

// GenesisArgs initializes a link.
type GenesisArgs struct {
	SrcNetworkID   string `json:"srcNetworkID"`
	NetworkTypeID  uint64 `json:"networkTypeID"`
	BMC            string `json:"bmc"`
	Header         []byte `json:"header"`
	SequenceOffset uint64 `json:"sequenceOffset"`
}

// Status is what a relay needs to know to build the next relay message.
type Status struct {
	Height         uint64 `json:"height"`
	SequenceOffset uint64 `json:"sequenceOffset"`
	FirstMessageSN uint64 `json:"firstMessageSN"`
	MessageCount   uint64 `json:"messageCount"`
}

type Verifier struct {
	log     log.Logger
	metrics metrics.Metrics
	config  *parsedConfig

	// lock serializes calls against the link stored in [db].
	lock sync.Mutex
	db   database.Database

	// proofContexts maps the hash of a validator set to its parsed form.
	proofContexts *cache.LRU[ids.ID, *quorum.ProofContext]
}

func New(
	logger log.Logger,
	db database.Database,
	config Config,
	m metrics.Metrics,
) (*Verifier, error) {
	parsed, err := config.parse()
	if err != nil {
		return nil, err
	}
	return &Verifier{
		log:           logger,
		metrics:       m,
		config:        parsed,
		db:            db,
		proofContexts: &cache.LRU[ids.ID, *quorum.ProofContext]{Size: config.ProofContextCacheSize},
	}, nil
}

// Bootstrap initializes the link from the genesis header of the source
// network.
func (v *Verifier) Bootstrap(_ context.Context, args GenesisArgs) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	initialized, err := state.Has(v.db)
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}

	header, err := section.ParseHeader(args.Header)
	if err != nil {
		return err
	}
	if !header.IsGenesis() {
		return fmt.Errorf("%w: prev=%x", ErrNotFirstBlockUpdate, header.Prev)
	}
	if header.FirstMessageSN() != 0 {
		return fmt.Errorf("%w: genesis starts at %d", ErrInvalidFirstMessageSN, header.FirstMessageSN())
	}
	if !bytes.Equal(v.config.hash(header.NextProofContext), header.NextProofContextHash) {
		return ErrProofContextHashMismatch
	}
	proofContext, err := quorum.ParseProofContext(header.NextProofContext)
	if err != nil {
		return err
	}
	nsHash, err := header.NetworkSection().Hash(v.config.hash)
	if err != nil {
		return err
	}

	s := &state.LinkState{
		SrcNetworkID:           args.SrcNetworkID,
		BMC:                    args.BMC,
		NetworkTypeID:          args.NetworkTypeID,
		NetworkID:              header.NetworkID,
		ProofContextHash:       header.NextProofContextHash,
		ProofContext:           header.NextProofContext,
		LastNetworkSectionHash: nsHash,
		LastMessageCount:       header.MessageCount,
		LastMessagesRoot:       messagesRoot(header),
		LastFirstMessageSN:     header.FirstMessageSN(),
		Height:                 header.MainHeight,
		SequenceOffset:         args.SequenceOffset,
	}
	if err := state.Put(v.db, s); err != nil {
		return err
	}
	v.proofContexts.Put(hashID(s.ProofContextHash), proofContext)

	v.log.Info("bootstrapped link",
		log.String("srcNetworkID", s.SrcNetworkID),
		log.Uint64("networkTypeID", s.NetworkTypeID),
		log.Uint64("networkID", s.NetworkID),
		log.Uint64("height", s.Height),
		log.Int("validators", proofContext.Len()),
	)
	return nil
}

// HandleRelayMessage verifies [msg] and returns the messages it delivers in
// order. The link state is only updated if every entry of [msg] is valid.
func (v *Verifier) HandleRelayMessage(
	_ context.Context,
	caller string,
	currentBMC string,
	prevBMC string,
	seq uint64,
	msg []byte,
) ([][]byte, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	messages, err := v.handleRelayMessage(caller, currentBMC, prevBMC, seq, msg)
	if err != nil {
		v.metrics.MarkRejected(Reason(err))
		v.log.Warn("rejected relay message",
			log.String("prev", prevBMC),
			log.Uint64("seq", seq),
			log.Err(err),
		)
		return nil, err
	}
	return messages, nil
}

func (v *Verifier) handleRelayMessage(
	caller string,
	currentBMC string,
	prevBMC string,
	seq uint64,
	msg []byte,
) ([][]byte, error) {
	// Every entry reads and stages the link state in [vdb]. Nothing reaches
	// [v.db] unless all entries are valid.
	vdb := versiondb.New(v.db)
	defer vdb.Abort()

	stored, err := state.Get(vdb)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(stored, caller, currentBMC, prevBMC); err != nil {
		return nil, err
	}
	expectedSeq, err := math.Add(stored.SequenceOffset, stored.LastSequence)
	if err != nil || seq != expectedSeq {
		return nil, fmt.Errorf("%w: expected %d got %d", ErrInvalidSequence, expectedSeq, seq)
	}

	relayMessage, err := ParseRelayMessage(msg)
	if err != nil {
		return nil, err
	}

	var (
		pending   *pendingUpdate
		delivered [][]byte
		accepted  = make([]acceptedEntry, 0, len(relayMessage))
	)
	for i, entry := range relayMessage {
		s, err := state.Get(vdb)
		if err != nil {
			return nil, err
		}
		switch entry.Type {
		case BlockUpdateType:
			pending, err = v.applyBlockUpdate(s, entry.Payload)
			accepted = append(accepted, acceptedEntry{update: pending})
		case MessageProofType:
			var proof *acceptedProof
			proof, err = v.applyMessageProof(s, pending, entry.Payload)
			if proof != nil {
				delivered = append(delivered, proof.messages...)
			}
			accepted = append(accepted, acceptedEntry{proof: proof})
		}
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, entry.Type, err)
		}
		if err := state.Put(vdb, s); err != nil {
			return nil, err
		}
	}

	if err := vdb.Commit(); err != nil {
		return nil, err
	}
	v.report(accepted)
	return delivered, nil
}

func checkAccess(s *state.LinkState, caller, currentBMC, prevBMC string) error {
	if caller != s.BMC {
		return fmt.Errorf("%w: %q", ErrInvalidCaller, caller)
	}
	current, err := btpaddr.Parse(currentBMC)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCurrent, err)
	}
	if current.Account != s.BMC {
		return fmt.Errorf("%w: %q", ErrInvalidCurrent, currentBMC)
	}
	prev, err := btpaddr.Parse(prevBMC)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPrev, err)
	}
	if prev.Network != s.SrcNetworkID {
		return fmt.Errorf("%w: %q", ErrInvalidPrev, prevBMC)
	}
	return nil
}

// GetStatus returns the coordination data of the link.
func (v *Verifier) GetStatus(_ context.Context) (*Status, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	s, err := state.Get(v.db)
	if err != nil {
		return nil, err
	}
	return &Status{
		Height:         s.Height,
		SequenceOffset: s.SequenceOffset,
		FirstMessageSN: s.LastFirstMessageSN,
		MessageCount:   s.LastMessageCount,
	}, nil
}

// LinkState returns a copy of the full link state.
func (v *Verifier) LinkState(_ context.Context) (*state.LinkState, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	return state.Get(v.db)
}

// proofContext returns the parsed validator set of [s].
func (v *Verifier) proofContext(s *state.LinkState) (*quorum.ProofContext, error) {
	id := hashID(s.ProofContextHash)
	if pc, ok := v.proofContexts.Get(id); ok {
		return pc, nil
	}
	pc, err := quorum.ParseProofContext(s.ProofContext)
	if err != nil {
		return nil, errors.Join(state.ErrCorrupted, err)
	}
	v.proofContexts.Put(id, pc)
	return pc, nil
}

func hashID(hash []byte) ids.ID {
	var id ids.ID
	copy(id[:], hash)
	return id
}
