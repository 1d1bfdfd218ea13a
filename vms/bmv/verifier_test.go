// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bmv

import (
	"context"
	"fmt"
	"testing"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/rlp"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/bmv/components/hashing"
	"github.com/luxfi/bmv/components/merkle"
	"github.com/luxfi/bmv/components/quorum"
	"github.com/luxfi/bmv/components/quorum/quorumtest"
	"github.com/luxfi/bmv/components/section"
	"github.com/luxfi/bmv/vms/bmv/metrics"
	"github.com/luxfi/bmv/vms/bmv/state"
)

func TestNewRejectsConfig(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectedErr error
	}{
		{
			name:        "hash",
			modify:      func(c *Config) { c.Hash = "md5" },
			expectedErr: hashing.ErrUnknownHash,
		},
		{
			name:        "recovery",
			modify:      func(c *Config) { c.Recovery = "ed25519" },
			expectedErr: quorum.ErrUnknownRecoverer,
		},
		{
			name:        "address",
			modify:      func(c *Config) { c.Address = "btc" },
			expectedErr: quorum.ErrUnknownAddressScheme,
		},
		{
			name:        "threshold",
			modify:      func(c *Config) { c.Threshold = "half" },
			expectedErr: quorum.ErrUnknownThreshold,
		},
		{
			name:        "cache size",
			modify:      func(c *Config) { c.ProofContextCacheSize = 0 },
			expectedErr: errInvalidCacheSize,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultConfig
			test.modify(&config)
			_, err := New(log.NewNoOpLogger(), memdb.New(), config, metrics.Noop{})
			require.ErrorIs(t, err, test.expectedErr)
		})
	}
}

func TestBootstrap(t *testing.T) {
	require := require.New(t)

	e := newTestEnv(t, DefaultConfig, 4, m0, m1)

	status, err := e.verifier.GetStatus(context.Background())
	require.NoError(err)
	require.Equal(&Status{
		Height:         testGenesisHeight,
		SequenceOffset: 0,
		FirstMessageSN: 0,
		MessageCount:   2,
	}, status)

	s := e.linkState()
	require.Equal(testSrcNetworkID, s.SrcNetworkID)
	require.Equal(testBMC, s.BMC)
	require.Equal(uint64(testNetworkTypeID), s.NetworkTypeID)
	require.Equal(uint64(testNetworkID), s.NetworkID)
	require.Equal(e.pcHash, s.ProofContextHash)
	require.Equal(e.genesis.NextProofContext, s.ProofContext)
	require.Equal(sectionHash(t, e.genesis), s.LastNetworkSectionHash)
	require.Equal(e.genesis.MessagesRoot, s.LastMessagesRoot)
	require.Zero(s.LastSequence)
	require.Equal(uint64(2), s.RemainMessageCount())

	genesisBytes, err := e.genesis.Bytes()
	require.NoError(err)
	err = e.verifier.Bootstrap(context.Background(), GenesisArgs{
		SrcNetworkID: testSrcNetworkID,
		BMC:          testBMC,
		Header:       genesisBytes,
	})
	require.ErrorIs(err, ErrAlreadyInitialized)
}

func TestBootstrapRejects(t *testing.T) {
	signers := quorumtest.NewSigners(t, 3)
	pc := quorumtest.ProofContextBytes(t, quorum.ICONAddress, signers)

	tests := []struct {
		name        string
		header      func() *section.Header
		expectedErr error
	}{
		{
			name: "not genesis",
			header: func() *section.Header {
				h := newHeader(t, []byte{1}, 0, 1, nil)
				withRotation(h, pc)
				return h
			},
			expectedErr: ErrNotFirstBlockUpdate,
		},
		{
			name: "proof context hash",
			header: func() *section.Header {
				h := newHeader(t, nil, 0, 1, nil)
				withRotation(h, pc)
				h.NextProofContextHash = hashing.SHA3256([]byte("other"))
				return h
			},
			expectedErr: ErrProofContextHashMismatch,
		},
		{
			name: "missing proof context",
			header: func() *section.Header {
				return newHeader(t, nil, 0, 1, hashing.SHA3256(pc))
			},
			expectedErr: ErrProofContextHashMismatch,
		},
		{
			name: "first message sequence",
			header: func() *section.Header {
				h := newHeader(t, nil, 3, 1, nil)
				withRotation(h, pc)
				return h
			},
			expectedErr: ErrInvalidFirstMessageSN,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			db := memdb.New()
			v, err := New(log.NewNoOpLogger(), db, DefaultConfig, metrics.Noop{})
			require.NoError(err)

			headerBytes, err := test.header().Bytes()
			require.NoError(err)
			err = v.Bootstrap(context.Background(), GenesisArgs{
				SrcNetworkID: testSrcNetworkID,
				BMC:          testBMC,
				Header:       headerBytes,
			})
			require.ErrorIs(err, test.expectedErr)

			_, err = v.GetStatus(context.Background())
			require.ErrorIs(err, state.ErrNotInitialized)
		})
	}
}

func TestNotInitialized(t *testing.T) {
	require := require.New(t)

	v, err := New(log.NewNoOpLogger(), memdb.New(), DefaultConfig, metrics.Noop{})
	require.NoError(err)

	_, err = v.GetStatus(context.Background())
	require.ErrorIs(err, state.ErrNotInitialized)

	_, err = v.HandleRelayMessage(context.Background(), testBMC, testCurrentBMC, testPrevBMC, 0, nil)
	require.ErrorIs(err, state.ErrNotInitialized)
}

func TestBootstrapThenFirstProof(t *testing.T) {
	require := require.New(t)

	e := newTestEnv(t, DefaultConfig, 4, m0)
	require.Equal(hashing.SHA3256(m0), e.genesis.MessagesRoot)

	msg := relayMessage(t, (&Builder{}).MessageProof(&merkle.MessageProof{
		Messages: [][]byte{m0},
	}))
	delivered, err := e.handle(0, msg)
	require.NoError(err)
	require.Equal([][]byte{m0}, delivered)

	s := e.linkState()
	require.Equal(uint64(1), s.LastSequence)
	require.Empty(s.LastMessagesRoot)
	require.Zero(s.RemainMessageCount())
}

func TestSequenceGate(t *testing.T) {
	e := newTestEnv(t, DefaultConfig, 4, m0)

	msg := relayMessage(t, (&Builder{}).MessageProof(&merkle.MessageProof{
		Messages: [][]byte{m0},
	}))
	e.requireRejected(1, msg, ErrInvalidSequence)
}

func TestSequenceOffset(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	v, err := New(log.NewNoOpLogger(), db, DefaultConfig, metrics.Noop{})
	require.NoError(err)

	signers := quorumtest.NewSigners(t, 1)
	genesis := newHeader(t, nil, 0, 1, nil, m0)
	withRotation(genesis, quorumtest.ProofContextBytes(t, quorum.ICONAddress, signers))
	genesisBytes, err := genesis.Bytes()
	require.NoError(err)
	require.NoError(v.Bootstrap(context.Background(), GenesisArgs{
		SrcNetworkID:   testSrcNetworkID,
		BMC:            testBMC,
		Header:         genesisBytes,
		SequenceOffset: 100,
	}))

	msg := relayMessage(t, (&Builder{}).MessageProof(&merkle.MessageProof{
		Messages: [][]byte{m0},
	}))
	_, err = v.HandleRelayMessage(context.Background(), testBMC, testCurrentBMC, testPrevBMC, 0, msg)
	require.ErrorIs(err, ErrInvalidSequence)

	delivered, err := v.HandleRelayMessage(context.Background(), testBMC, testCurrentBMC, testPrevBMC, 100, msg)
	require.NoError(err)
	require.Equal([][]byte{m0}, delivered)

	status, err := v.GetStatus(context.Background())
	require.NoError(err)
	require.Equal(uint64(100), status.SequenceOffset)
}

func TestChainBreak(t *testing.T) {
	e := newTestEnv(t, DefaultConfig, 4)

	h := newHeader(t, hashing.SHA3256([]byte("fork")), 0, testGenesisHeight+1, e.pcHash, m0)
	msg := relayMessage(t, (&Builder{}).BlockUpdate(blockUpdate(t, h, e.signers)))
	e.requireRejected(0, msg, ErrNetworkSectionMismatch)
}

func TestPartialBatch(t *testing.T) {
	require := require.New(t)

	e := newTestEnv(t, DefaultConfig, 4, m0, m1)

	msg := relayMessage(t, (&Builder{}).MessageProof(&merkle.MessageProof{
		Messages: [][]byte{m0},
		Right:    leaves(m1),
	}))
	delivered, err := e.handle(0, msg)
	require.NoError(err)
	require.Equal([][]byte{m0}, delivered)

	s := e.linkState()
	require.Equal(uint64(1), s.LastSequence)
	require.Equal(e.genesis.MessagesRoot, s.LastMessagesRoot)
	require.Equal(uint64(1), s.RemainMessageCount())

	msg = relayMessage(t, (&Builder{}).MessageProof(&merkle.MessageProof{
		Left:     leaves(m0),
		Messages: [][]byte{m1},
	}))
	delivered, err = e.handle(1, msg)
	require.NoError(err)
	require.Equal([][]byte{m1}, delivered)

	s = e.linkState()
	require.Equal(uint64(2), s.LastSequence)
	require.Empty(s.LastMessagesRoot)

	// The drained batch admits the next block update.
	h := newHeader(t, sectionHash(t, e.genesis), 2, testGenesisHeight+1, e.pcHash, m2)
	msg = relayMessage(t, (&Builder{}).
		BlockUpdate(blockUpdate(t, h, e.signers)).
		MessageProof(&merkle.MessageProof{Messages: [][]byte{m2}}),
	)
	delivered, err = e.handle(2, msg)
	require.NoError(err)
	require.Equal([][]byte{m2}, delivered)

	s = e.linkState()
	require.Equal(uint64(3), s.LastSequence)
	require.Equal(uint64(2), s.LastFirstMessageSN)
	require.Equal(uint64(testGenesisHeight+1), s.Height)
	require.Equal(sectionHash(t, h), s.LastNetworkSectionHash)
}

func TestQuorumBoundary(t *testing.T) {
	tests := []struct {
		threshold   string
		skip        []int
		expectedErr error
	}{
		{threshold: quorum.InclusiveName, skip: []int{3}},
		{threshold: quorum.StrictName, skip: []int{3}},
		{threshold: quorum.InclusiveName, skip: []int{2, 3}, expectedErr: quorum.ErrInsufficientSignatures},
		{threshold: quorum.StrictName, skip: []int{2, 3}, expectedErr: quorum.ErrInsufficientSignatures},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s %d of 4", test.threshold, 4-len(test.skip)), func(t *testing.T) {
			require := require.New(t)

			config := DefaultConfig
			config.Threshold = test.threshold
			e := newTestEnv(t, config, 4)

			h := newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, e.pcHash, m0)
			msg := relayMessage(t, (&Builder{}).BlockUpdate(blockUpdate(t, h, e.signers, test.skip...)))
			if test.expectedErr != nil {
				e.requireRejected(0, msg, test.expectedErr)
				return
			}

			_, err := e.handle(0, msg)
			require.NoError(err)
			require.Equal(h.MessagesRoot, e.linkState().LastMessagesRoot)
		})
	}
}

func TestQuorumThreeValidators(t *testing.T) {
	tests := []struct {
		threshold   string
		expectedErr error
	}{
		{threshold: quorum.InclusiveName},
		{threshold: quorum.StrictName, expectedErr: quorum.ErrInsufficientSignatures},
	}
	for _, test := range tests {
		t.Run(test.threshold, func(t *testing.T) {
			config := DefaultConfig
			config.Threshold = test.threshold
			e := newTestEnv(t, config, 3)

			h := newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, e.pcHash)
			msg := relayMessage(t, (&Builder{}).BlockUpdate(blockUpdate(t, h, e.signers, 2)))
			if test.expectedErr != nil {
				e.requireRejected(0, msg, test.expectedErr)
				return
			}
			_, err := e.handle(0, msg)
			require.NoError(t, err)
		})
	}
}

func TestBlockUpdateWithoutProof(t *testing.T) {
	e := newTestEnv(t, DefaultConfig, 4)

	h := newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, e.pcHash)
	headerBytes, err := h.Bytes()
	require.NoError(t, err)
	msg := relayMessage(t, (&Builder{}).BlockUpdate(&BlockUpdate{Header: headerBytes}))
	e.requireRejected(0, msg, quorum.ErrInsufficientSignatures)
}

func TestDuplicatedSignature(t *testing.T) {
	e := newTestEnv(t, DefaultConfig, 4)

	h := newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, e.pcHash)
	bu := blockUpdate(t, h, e.signers)
	proof, err := quorum.ParseProof(bu.Proof)
	require.NoError(t, err)
	proof.Signatures[1] = proof.Signatures[0]
	bu.Proof, err = proof.Bytes()
	require.NoError(t, err)

	msg := relayMessage(t, (&Builder{}).BlockUpdate(bu))
	e.requireRejected(0, msg, quorum.ErrDuplicatedValidator)
}

func TestRotation(t *testing.T) {
	require := require.New(t)

	e := newTestEnv(t, DefaultConfig, 4)
	next := quorumtest.NewSigners(t, 3)
	nextPC := quorumtest.ProofContextBytes(t, quorum.ICONAddress, next)

	rotate := newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, nil)
	withRotation(rotate, nextPC)
	msg := relayMessage(t, (&Builder{}).BlockUpdate(blockUpdate(t, rotate, e.signers)))
	_, err := e.handle(0, msg)
	require.NoError(err)

	s := e.linkState()
	require.Equal(hashing.SHA3256(nextPC), s.ProofContextHash)
	require.Equal(nextPC, s.ProofContext)

	h := newHeader(t, sectionHash(t, rotate), 0, testGenesisHeight+2, s.ProofContextHash)

	// The replaced validators can no longer sign.
	msg = relayMessage(t, (&Builder{}).BlockUpdate(blockUpdate(t, h, e.signers)))
	e.requireRejected(0, msg, quorum.ErrInvalidValidator)

	msg = relayMessage(t, (&Builder{}).BlockUpdate(blockUpdate(t, h, next)))
	_, err = e.handle(0, msg)
	require.NoError(err)
	require.Equal(sectionHash(t, h), e.linkState().LastNetworkSectionHash)
}

func TestRotationWithinCall(t *testing.T) {
	require := require.New(t)

	e := newTestEnv(t, DefaultConfig, 4)
	next := quorumtest.NewSigners(t, 3)
	nextPC := quorumtest.ProofContextBytes(t, quorum.ICONAddress, next)

	rotate := newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, nil)
	withRotation(rotate, nextPC)
	h := newHeader(t, sectionHash(t, rotate), 0, testGenesisHeight+2, hashing.SHA3256(nextPC), m0)

	msg := relayMessage(t, (&Builder{}).
		BlockUpdate(blockUpdate(t, rotate, e.signers)).
		BlockUpdate(blockUpdate(t, h, next)).
		MessageProof(&merkle.MessageProof{Messages: [][]byte{m0}}),
	)
	delivered, err := e.handle(0, msg)
	require.NoError(err)
	require.Equal([][]byte{m0}, delivered)
	require.Equal(hashing.SHA3256(nextPC), e.linkState().ProofContextHash)
}

func TestRotationRejects(t *testing.T) {
	e := newTestEnv(t, DefaultConfig, 4)
	currentPC := e.genesis.NextProofContext
	nextPC := quorumtest.ProofContextBytes(t, quorum.ICONAddress, quorumtest.NewSigners(t, 3))

	tests := []struct {
		name        string
		modify      func(*section.Header)
		expectedErr error
	}{
		{
			name: "hash of next proof context",
			modify: func(h *section.Header) {
				withRotation(h, nextPC)
				h.NextProofContextHash = hashing.SHA3256([]byte("other"))
			},
			expectedErr: ErrNextProofContextHash,
		},
		{
			name: "missing next proof context",
			modify: func(h *section.Header) {
				withRotation(h, nextPC)
				h.NextProofContext = nil
			},
			expectedErr: ErrNextProofContextHash,
		},
		{
			name: "same validator set",
			modify: func(h *section.Header) {
				withRotation(h, currentPC)
			},
			expectedErr: ErrUpdateFlagMismatch,
		},
		{
			name: "malformed next proof context",
			modify: func(h *section.Header) {
				withRotation(h, []byte{0x01, 0x02})
			},
			expectedErr: quorum.ErrParseProofContext,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, e.pcHash)
			test.modify(h)
			msg := relayMessage(t, (&Builder{}).BlockUpdate(blockUpdate(t, h, e.signers)))
			e.requireRejected(0, msg, test.expectedErr)
		})
	}
}

func TestAccessControl(t *testing.T) {
	e := newTestEnv(t, DefaultConfig, 4, m0)
	msg := relayMessage(t, (&Builder{}).MessageProof(&merkle.MessageProof{
		Messages: [][]byte{m0},
	}))

	tests := []struct {
		name        string
		caller      string
		current     string
		prev        string
		expectedErr error
	}{
		{
			name:        "caller",
			caller:      "0xother",
			current:     testCurrentBMC,
			prev:        testPrevBMC,
			expectedErr: ErrInvalidCaller,
		},
		{
			name:        "current account",
			caller:      testBMC,
			current:     "btp://0x2.lux/0xother",
			prev:        testPrevBMC,
			expectedErr: ErrInvalidCurrent,
		},
		{
			name:        "current malformed",
			caller:      testBMC,
			current:     testBMC,
			prev:        testPrevBMC,
			expectedErr: ErrInvalidCurrent,
		},
		{
			name:        "prev network",
			caller:      testBMC,
			current:     testCurrentBMC,
			prev:        "btp://0x3.eth/cxbmc",
			expectedErr: ErrInvalidPrev,
		},
		{
			name:        "prev malformed",
			caller:      testBMC,
			current:     testCurrentBMC,
			prev:        testSrcNetworkID,
			expectedErr: ErrInvalidPrev,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			before := e.linkState()
			_, err := e.verifier.HandleRelayMessage(
				context.Background(),
				test.caller,
				test.current,
				test.prev,
				0,
				msg,
			)
			require.ErrorIs(err, test.expectedErr)
			require.Equal(ReasonAccess, Reason(err))
			require.Equal(before, e.linkState())
		})
	}

	require.InDelta(t, float64(len(tests)), e.rejected(ReasonAccess), 0)
	require.Zero(t, e.rejected(ReasonMalformed))
}

func TestBlockUpdateRejects(t *testing.T) {
	tests := []struct {
		name        string
		messages    [][]byte
		header      func(e *testEnv) *section.Header
		expectedErr error
	}{
		{
			name:     "remain must be zero",
			messages: [][]byte{m0},
			header: func(e *testEnv) *section.Header {
				return newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, e.pcHash)
			},
			expectedErr: ErrRemainNotZero,
		},
		{
			name: "network id",
			header: func(e *testEnv) *section.Header {
				h := newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, e.pcHash)
				h.NetworkID++
				return h
			},
			expectedErr: ErrInvalidNetworkID,
		},
		{
			name: "first message sequence",
			header: func(e *testEnv) *section.Header {
				return newHeader(t, sectionHash(t, e.genesis), 1, testGenesisHeight+1, e.pcHash)
			},
			expectedErr: ErrInvalidFirstMessageSN,
		},
		{
			name: "height",
			header: func(e *testEnv) *section.Header {
				return newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight-1, e.pcHash)
			},
			expectedErr: ErrInvalidHeight,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e := newTestEnv(t, DefaultConfig, 4, test.messages...)
			msg := relayMessage(t, (&Builder{}).BlockUpdate(blockUpdate(t, test.header(e), e.signers)))
			e.requireRejected(0, msg, test.expectedErr)
		})
	}
}

func TestMessageProofRejects(t *testing.T) {
	mx := []byte("mx")

	tests := []struct {
		name        string
		messages    [][]byte
		proof       *merkle.MessageProof
		expectedErr error
	}{
		{
			name:        "no remaining messages",
			proof:       &merkle.MessageProof{Messages: [][]byte{m0}},
			expectedErr: ErrNoRemainingMessages,
		},
		{
			name:     "missing right",
			messages: [][]byte{m0, m1},
			proof: &merkle.MessageProof{
				Messages: [][]byte{m1},
			},
			expectedErr: ErrMessageCountMismatch,
		},
		{
			name:     "left offset",
			messages: [][]byte{m0, m1},
			proof: &merkle.MessageProof{
				Left:     leaves(m0),
				Messages: [][]byte{m1},
			},
			expectedErr: ErrProofInLeftMismatch,
		},
		{
			name:     "message count",
			messages: [][]byte{m0},
			proof: &merkle.MessageProof{
				Messages: [][]byte{m0},
				Right:    leaves(mx),
			},
			expectedErr: ErrMessageCountMismatch,
		},
		{
			name:     "messages root",
			messages: [][]byte{m0, m1},
			proof: &merkle.MessageProof{
				Messages: [][]byte{m0, mx},
			},
			expectedErr: ErrMessagesRootMismatch,
		},
		{
			name:        "empty proof",
			messages:    [][]byte{m0},
			proof:       &merkle.MessageProof{},
			expectedErr: merkle.ErrEmptyProof,
		},
		{
			name:     "leaf count",
			messages: [][]byte{m0, m1},
			proof: &merkle.MessageProof{
				Left:     []merkle.ProofNode{{LeafCount: 0, Value: hashing.SHA3256(m0)}},
				Messages: [][]byte{m1},
			},
			expectedErr: merkle.ErrInvalidLeafCount,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e := newTestEnv(t, DefaultConfig, 4, test.messages...)
			msg := relayMessage(t, (&Builder{}).MessageProof(test.proof))
			e.requireRejected(0, msg, test.expectedErr)
		})
	}
}

func TestProofInLeftAfterBlockUpdate(t *testing.T) {
	e := newTestEnv(t, DefaultConfig, 4)

	h := newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, e.pcHash, m0, m1)
	msg := relayMessage(t, (&Builder{}).
		BlockUpdate(blockUpdate(t, h, e.signers)).
		MessageProof(&merkle.MessageProof{
			Left:     leaves(m0),
			Messages: [][]byte{m1},
		}),
	)
	e.requireRejected(0, msg, ErrProofInLeftNotEmpty)
}

func TestProofInLeftMismatchAcrossCalls(t *testing.T) {
	require := require.New(t)

	e := newTestEnv(t, DefaultConfig, 4, m0, m1, m2)

	msg := relayMessage(t, (&Builder{}).MessageProof(&merkle.MessageProof{
		Messages: [][]byte{m0},
		Right:    leaves(m1, m2),
	}))
	_, err := e.handle(0, msg)
	require.NoError(err)

	msg = relayMessage(t, (&Builder{}).MessageProof(&merkle.MessageProof{
		Messages: [][]byte{m0},
		Right:    leaves(m1, m2),
	}))
	e.requireRejected(1, msg, ErrProofInLeftMismatch)
}

func TestMultipleProofsAfterBlockUpdate(t *testing.T) {
	require := require.New(t)

	e := newTestEnv(t, DefaultConfig, 4)

	h := newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, e.pcHash, m0, m1, m2)
	msg := relayMessage(t, (&Builder{}).
		BlockUpdate(blockUpdate(t, h, e.signers)).
		MessageProof(&merkle.MessageProof{
			Messages: [][]byte{m0},
			Right:    leaves(m1, m2),
		}).
		MessageProof(&merkle.MessageProof{
			Left:     leaves(m0),
			Messages: [][]byte{m1, m2},
		}),
	)
	delivered, err := e.handle(0, msg)
	require.NoError(err)
	require.Equal([][]byte{m0, m1, m2}, delivered)

	s := e.linkState()
	require.Equal(uint64(3), s.LastSequence)
	require.Empty(s.LastMessagesRoot)
}

func TestNoMutationOnLateFailure(t *testing.T) {
	e := newTestEnv(t, DefaultConfig, 4)

	h := newHeader(t, sectionHash(t, e.genesis), 0, testGenesisHeight+1, e.pcHash, m0)
	msg := relayMessage(t, (&Builder{}).
		BlockUpdate(blockUpdate(t, h, e.signers)).
		MessageProof(&merkle.MessageProof{Messages: [][]byte{[]byte("forged")}}),
	)
	e.requireRejected(0, msg, ErrMessagesRootMismatch)

	// The accepted block update was rolled back with the call.
	require := require.New(t)
	require.Zero(e.counter("block_updates_accepted"))
	require.Zero(e.counter("message_proofs_accepted"))
	require.InDelta(1, e.rejected(ReasonCommitment), 0)

	msg = relayMessage(t, (&Builder{}).
		BlockUpdate(blockUpdate(t, h, e.signers)).
		MessageProof(&merkle.MessageProof{Messages: [][]byte{m0}}),
	)
	delivered, err := e.handle(0, msg)
	require.NoError(err)
	require.Equal([][]byte{m0}, delivered)
	require.InDelta(1, e.counter("block_updates_accepted"), 0)
	require.InDelta(1, e.counter("message_proofs_accepted"), 0)
	require.InDelta(1, e.counter("messages_delivered"), 0)
	require.Zero(e.counter("validator_rotations"))
}

func TestMalformedRelayMessage(t *testing.T) {
	e := newTestEnv(t, DefaultConfig, 4, m0)

	unknown, err := rlp.EncodeToBytes(RelayMessage{{Type: 3, Payload: []byte{1}}})
	require.NoError(t, err)

	tests := []struct {
		name        string
		msg         []byte
		expectedErr error
	}{
		{
			name:        "not a list",
			msg:         []byte{0x01},
			expectedErr: ErrMalformedRelayMessage,
		},
		{
			name:        "unknown type",
			msg:         unknown,
			expectedErr: ErrUnknownMessageType,
		},
		{
			name: "block update payload",
			msg: func() []byte {
				b, err := rlp.EncodeToBytes(RelayMessage{{Type: BlockUpdateType, Payload: []byte{0x01}}})
				require.NoError(t, err)
				return b
			}(),
			expectedErr: ErrMalformedBlockUpdate,
		},
		{
			name: "message proof payload",
			msg: func() []byte {
				b, err := rlp.EncodeToBytes(RelayMessage{{Type: MessageProofType, Payload: []byte{0x01}}})
				require.NoError(t, err)
				return b
			}(),
			expectedErr: ErrMalformedMessageProof,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e.requireRejected(0, test.msg, test.expectedErr)
			require.Equal(t, ReasonMalformed, Reason(test.expectedErr))
		})
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{err: fmt.Errorf("entry 0: %w", ErrInvalidSequence), expected: ReasonSequencing},
		{err: ErrNetworkSectionMismatch, expected: ReasonChain},
		{err: fmt.Errorf("%w: 2 of 4", quorum.ErrInsufficientSignatures), expected: ReasonQuorum},
		{err: merkle.ErrNotPerfect, expected: ReasonCommitment},
		{err: state.ErrNotInitialized, expected: ReasonState},
		{err: ErrInvalidPrev, expected: ReasonAccess},
		{err: section.ErrParseHeader, expected: ReasonMalformed},
		{err: fmt.Errorf("boom"), expected: ReasonUnknown},
	}
	for _, test := range tests {
		t.Run(test.err.Error(), func(t *testing.T) {
			require.Equal(t, test.expected, Reason(test.err))
		})
	}
}
