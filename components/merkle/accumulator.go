// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package merkle implements the partial, append-only Merkle accumulator used
// to prove that a contiguous run of messages is part of a committed messages
// root without materializing the full tree.
//
// The accumulator is left-balanced: every left child above the lowest branch
// level must be a perfect subtree. Subtrees that are already accounted for
// outside of the proven batch are supplied as opaque [ProofNode]s.
package merkle

import (
	"errors"
	"fmt"

	"github.com/luxfi/bmv/components/hashing"
	"github.com/luxfi/bmv/utils/math"
)

const none = -1

var (
	ErrEmptyProof       = errors.New("empty message proof")
	ErrInvalidLeafCount = errors.New("invalid leaf count")
	ErrInvalidLeaf      = errors.New("invalid leaf")
	ErrInvalidLevel     = errors.New("left level is lower than right level")
	ErrNotPerfect       = errors.New("left subtree is not perfect")
	ErrTotalMismatch    = errors.New("total mismatch")
)

// ProofNode summarizes [LeafCount] messages by the root [Value] of their
// subtree.
type ProofNode struct {
	LeafCount uint64
	Value     []byte
}

// node is an arena entry. Children are referenced by index; [none] marks a
// node without children.
type node struct {
	level     int
	leafCount uint64
	value     []byte
	left      int
	right     int
}

func (n *node) isBranch() bool {
	return n.left != none
}

// Accumulator is an incremental binary tree stored as an arena of nodes.
// The zero value is not usable; use [New].
type Accumulator struct {
	hash  hashing.Func
	nodes []node
	root  int
}

func New(hash hashing.Func) *Accumulator {
	return &Accumulator{
		hash: hash,
		root: none,
	}
}

// LevelFor returns the tree level sufficient to represent [n] leaves.
func LevelFor(n uint64) int {
	if n <= 2 {
		return int(n)
	}
	level := 3
	for i := (n - 1) >> 2; i > 0; i >>= 1 {
		level++
	}
	return level
}

// Empty returns true if nothing has been folded into the accumulator.
func (a *Accumulator) Empty() bool {
	return a.root == none
}

// LeafCount returns the number of leaves summarized by the accumulator.
func (a *Accumulator) LeafCount() uint64 {
	if a.root == none {
		return 0
	}
	return a.nodes[a.root].leafCount
}

// Root returns the value of the root node. It is nil until [EnsureHash] has
// been called after the last fold.
func (a *Accumulator) Root() []byte {
	if a.root == none {
		return nil
	}
	return a.nodes[a.root].value
}

// Fold appends a block of [leafCount] leaves whose subtree root is [value].
func (a *Accumulator) Fold(leafCount uint64, value []byte) error {
	if leafCount == 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLeafCount, leafCount)
	}
	if a.root == none {
		a.root = a.push(LevelFor(leafCount), leafCount, value, none, none)
		return nil
	}
	if _, err := math.Add(a.nodes[a.root].leafCount, leafCount); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLeafCount, err)
	}
	a.root = a.fold(a.root, leafCount, value)
	return nil
}

func (a *Accumulator) fold(idx int, leafCount uint64, value []byte) int {
	n := a.nodes[idx]
	if n.isBranch() && a.nodes[n.left].leafCount != a.nodes[n.right].leafCount {
		right := a.fold(n.right, leafCount, value)
		grown := &a.nodes[idx]
		grown.right = right
		grown.leafCount += leafCount
		grown.level = max(a.nodes[grown.left].level, a.nodes[right].level) + 1
		grown.value = nil
		return idx
	}

	leaf := a.push(LevelFor(leafCount), leafCount, value, none, none)
	level := max(n.level, a.nodes[leaf].level) + 1
	return a.push(level, n.leafCount+leafCount, nil, idx, leaf)
}

func (a *Accumulator) push(level int, leafCount uint64, value []byte, left, right int) int {
	a.nodes = append(a.nodes, node{
		level:     level,
		leafCount: leafCount,
		value:     value,
		left:      left,
		right:     right,
	})
	return len(a.nodes) - 1
}

// EnsureHash computes the value of every branch whose value is unset. If
// [force] is true, every branch is recomputed.
func (a *Accumulator) EnsureHash(force bool) {
	if a.root == none {
		return
	}
	a.ensureHash(a.root, force)
}

func (a *Accumulator) ensureHash(idx int, force bool) []byte {
	n := &a.nodes[idx]
	if !n.isBranch() {
		return n.value
	}
	if n.value == nil || force {
		left := a.ensureHash(n.left, force)
		right := a.ensureHash(n.right, force)
		n.value = a.hash(left, right)
	}
	return n.value
}

// Verify checks the structural invariants of the finished tree.
func (a *Accumulator) Verify() error {
	if a.root == none {
		return ErrEmptyProof
	}
	return a.verify(a.root)
}

func (a *Accumulator) verify(idx int) error {
	n := a.nodes[idx]
	if n.level == 1 && n.leafCount != 1 {
		return fmt.Errorf("%w: level 1 with %d leaves", ErrInvalidLeaf, n.leafCount)
	}
	if !n.isBranch() {
		return nil
	}

	left, right := a.nodes[n.left], a.nodes[n.right]
	if left.level < right.level {
		return fmt.Errorf("%w: left=%d right=%d", ErrInvalidLevel, left.level, right.level)
	}
	if n.level > 2 && !isPerfect(left.level, left.leafCount) {
		return fmt.Errorf("%w: level=%d leaves=%d", ErrNotPerfect, left.level, left.leafCount)
	}
	if err := a.verify(n.left); err != nil {
		return err
	}
	return a.verify(n.right)
}

func isPerfect(level int, leafCount uint64) bool {
	if level < 1 || level > 64 {
		return false
	}
	return leafCount == uint64(1)<<(level-1)
}
