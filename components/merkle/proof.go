// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"fmt"

	"github.com/luxfi/bmv/components/hashing"
	"github.com/luxfi/bmv/utils/math"
)

// MessageProof proves that [Messages] are located right after the leaves
// summarized by [Left] and right before the leaves summarized by [Right].
type MessageProof struct {
	Left     []ProofNode
	Messages [][]byte
	Right    []ProofNode
}

// Result is the outcome of a successful proof evaluation.
type Result struct {
	// Root is the messages root implied by the proof.
	Root []byte
	// LeftOffset is the number of leaves that precede the proven messages.
	LeftOffset uint64
	// Total is the number of leaves in the committed tree.
	Total uint64
}

// Remaining returns the number of committed leaves after the proven batch of
// [batchSize] messages.
func (r Result) Remaining(batchSize int) uint64 {
	return r.Total - r.LeftOffset - uint64(batchSize)
}

// Prove evaluates [p] with [hash] as node and leaf hash.
func (p *MessageProof) Prove(hash hashing.Func) (Result, error) {
	return ProveMessage(hash, p.Left, p.Messages, p.Right)
}

// ProveMessage folds the left proof nodes, the hashes of [messages] and the
// right proof nodes into a fresh accumulator and returns its root along with
// the leaf accounting of the batch.
func ProveMessage(
	hash hashing.Func,
	left []ProofNode,
	messages [][]byte,
	right []ProofNode,
) (Result, error) {
	var (
		acc        = New(hash)
		leftOffset uint64
		rightCount uint64
		err        error
	)
	for _, pn := range left {
		if err := acc.Fold(pn.LeafCount, pn.Value); err != nil {
			return Result{}, err
		}
		leftOffset, err = math.Add(leftOffset, pn.LeafCount)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidLeafCount, err)
		}
	}
	for _, msg := range messages {
		if err := acc.Fold(1, hash(msg)); err != nil {
			return Result{}, err
		}
	}
	for _, pn := range right {
		if err := acc.Fold(pn.LeafCount, pn.Value); err != nil {
			return Result{}, err
		}
		rightCount, err = math.Add(rightCount, pn.LeafCount)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidLeafCount, err)
		}
	}
	if acc.Empty() {
		return Result{}, ErrEmptyProof
	}
	acc.EnsureHash(false)

	// Overflow of the sum is excluded by the checks in Fold.
	total := leftOffset + uint64(len(messages)) + rightCount
	if total != acc.LeafCount() {
		return Result{}, fmt.Errorf("%w: total=%d leaves=%d", ErrTotalMismatch, total, acc.LeafCount())
	}
	if err := acc.Verify(); err != nil {
		return Result{}, err
	}
	return Result{
		Root:       acc.Root(),
		LeftOffset: leftOffset,
		Total:      total,
	}, nil
}
