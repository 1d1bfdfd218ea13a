// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bmv

import (
	"context"
	"testing"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/bmv/components/hashing"
	"github.com/luxfi/bmv/components/merkle"
	"github.com/luxfi/bmv/components/quorum"
	"github.com/luxfi/bmv/components/quorum/quorumtest"
	"github.com/luxfi/bmv/components/section"
	"github.com/luxfi/bmv/vms/bmv/metrics"
	"github.com/luxfi/bmv/vms/bmv/metrics/metricstest"
	"github.com/luxfi/bmv/vms/bmv/state"
)

const (
	testSrcNetworkID  = "0x1.icon"
	testNetworkTypeID = 1
	testNetworkID     = 7
	testBMC           = "0xbmc"
	testGenesisHeight = 10

	testCurrentBMC = "btp://0x2.lux/" + testBMC
	testPrevBMC    = "btp://" + testSrcNetworkID + "/cxbmc"
)

var (
	m0 = []byte("m0")
	m1 = []byte("m1")
	m2 = []byte("m2")
)

type testEnv struct {
	t        *testing.T
	db       database.Database
	registry metric.Registry
	verifier *Verifier
	signers  []*quorumtest.Signer
	pcHash   []byte
	genesis  *section.Header
}

// newTestEnv bootstraps a link validated by [validators] signers whose
// genesis commits [messages].
func newTestEnv(t *testing.T, config Config, validators int, messages ...[]byte) *testEnv {
	require := require.New(t)

	db := memdb.New()
	registry := metric.NewRegistry()
	m, err := metrics.New(registry)
	require.NoError(err)
	v, err := New(log.NewNoOpLogger(), db, config, m)
	require.NoError(err)

	signers := quorumtest.NewSigners(t, validators)
	pc := quorumtest.ProofContextBytes(t, quorum.ICONAddress, signers)

	genesis := newHeader(t, nil, 0, testGenesisHeight, nil, messages...)
	withRotation(genesis, pc)
	genesisBytes, err := genesis.Bytes()
	require.NoError(err)

	require.NoError(v.Bootstrap(context.Background(), GenesisArgs{
		SrcNetworkID:  testSrcNetworkID,
		NetworkTypeID: testNetworkTypeID,
		BMC:           testBMC,
		Header:        genesisBytes,
	}))
	return &testEnv{
		t:        t,
		db:       db,
		registry: registry,
		verifier: v,
		signers:  signers,
		pcHash:   genesis.NextProofContextHash,
		genesis:  genesis,
	}
}

// newHeader returns a header without a validator rotation.
func newHeader(
	t testing.TB,
	prev []byte,
	firstSN uint64,
	height uint64,
	pcHash []byte,
	messages ...[]byte,
) *section.Header {
	h := &section.Header{
		MainHeight:           height,
		Round:                1,
		NextProofContextHash: pcHash,
		NetworkSectionToRoot: []section.PathStep{
			{Dir: section.Right, Value: hashing.SHA3256([]byte("other network"))},
		},
		NetworkID:    testNetworkID,
		UpdateNumber: firstSN << 1,
		Prev:         prev,
		MessageCount: uint64(len(messages)),
	}
	if len(messages) > 0 {
		result, err := merkle.ProveMessage(hashing.SHA3256, nil, messages, nil)
		require.NoError(t, err)
		h.MessagesRoot = result.Root
	}
	return h
}

func withRotation(h *section.Header, pc []byte) {
	h.UpdateNumber |= 1
	h.NextProofContext = pc
	h.NextProofContextHash = hashing.SHA3256(pc)
}

func sectionHash(t testing.TB, h *section.Header) []byte {
	hash, err := h.NetworkSection().Hash(hashing.SHA3256)
	require.NoError(t, err)
	return hash
}

// blockUpdate signs [h] with [signers], leaving the positions in [skip]
// unsigned.
func blockUpdate(t testing.TB, h *section.Header, signers []*quorumtest.Signer, skip ...int) *BlockUpdate {
	require := require.New(t)

	digest, err := h.Digest(hashing.SHA3256, testSrcNetworkID, testNetworkTypeID)
	require.NoError(err)
	proof := &quorum.Proof{
		Signatures: quorumtest.Signatures(digest.DecisionHash, signers, skip...),
	}
	proofBytes, err := proof.Bytes()
	require.NoError(err)
	headerBytes, err := h.Bytes()
	require.NoError(err)
	return &BlockUpdate{
		Header: headerBytes,
		Proof:  proofBytes,
	}
}

func leaves(messages ...[]byte) []merkle.ProofNode {
	nodes := make([]merkle.ProofNode, len(messages))
	for i, msg := range messages {
		nodes[i] = merkle.ProofNode{
			LeafCount: 1,
			Value:     hashing.SHA3256(msg),
		}
	}
	return nodes
}

func relayMessage(t testing.TB, b *Builder) []byte {
	msg, err := b.Bytes()
	require.NoError(t, err)
	return msg
}

func (e *testEnv) handle(seq uint64, msg []byte) ([][]byte, error) {
	return e.verifier.HandleRelayMessage(
		context.Background(),
		testBMC,
		testCurrentBMC,
		testPrevBMC,
		seq,
		msg,
	)
}

func (e *testEnv) linkState() *state.LinkState {
	s, err := e.verifier.LinkState(context.Background())
	require.NoError(e.t, err)
	return s
}

// requireRejected checks that [msg] fails with [expectedErr] and leaves the
// link state untouched.
func (e *testEnv) requireRejected(seq uint64, msg []byte, expectedErr error) {
	require := require.New(e.t)

	before := e.linkState()
	delivered, err := e.handle(seq, msg)
	require.ErrorIs(err, expectedErr)
	require.Nil(delivered)
	require.Equal(before, e.linkState())
}

func (e *testEnv) counter(name string) float64 {
	return metricstest.Value(e.t, e.registry, name)
}

func (e *testEnv) rejected(reason string) float64 {
	return metricstest.Value(e.t, e.registry, "relay_messages_rejected", metric.LabelPair{
		Name:  metrics.ReasonLabel,
		Value: reason,
	})
}
