// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bmv

import (
	"fmt"

	"github.com/luxfi/geth/rlp"

	"github.com/luxfi/bmv/components/merkle"
)

// MessageType tags the payload of a relay message entry.
type MessageType uint64

const (
	BlockUpdateType  MessageType = 1
	MessageProofType MessageType = 2
)

func (t MessageType) String() string {
	switch t {
	case BlockUpdateType:
		return "blockUpdate"
	case MessageProofType:
		return "messageProof"
	default:
		return fmt.Sprintf("messageType(%d)", uint64(t))
	}
}

// TypePrefixedMessage is one entry of a relay message.
type TypePrefixedMessage struct {
	Type    MessageType
	Payload []byte
}

// BlockUpdate carries an encoded header and the encoded signatures of its
// decision. An empty proof carries no signatures.
type BlockUpdate struct {
	Header []byte
	Proof  []byte
}

// RelayMessage is the ordered list of entries submitted by a relay in one
// call.
type RelayMessage []TypePrefixedMessage

func ParseRelayMessage(b []byte) (RelayMessage, error) {
	var msg RelayMessage
	if err := rlp.DecodeBytes(b, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRelayMessage, err)
	}
	for i, entry := range msg {
		if entry.Type != BlockUpdateType && entry.Type != MessageProofType {
			return nil, fmt.Errorf("%w: entry %d has %s", ErrUnknownMessageType, i, entry.Type)
		}
	}
	return msg, nil
}

func (m RelayMessage) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(m)
}

func ParseBlockUpdate(b []byte) (*BlockUpdate, error) {
	bu := &BlockUpdate{}
	if err := rlp.DecodeBytes(b, bu); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBlockUpdate, err)
	}
	return bu, nil
}

func (bu *BlockUpdate) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(bu)
}

func ParseMessageProof(b []byte) (*merkle.MessageProof, error) {
	mp := &merkle.MessageProof{}
	if err := rlp.DecodeBytes(b, mp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessageProof, err)
	}
	return mp, nil
}

// Builder assembles relay messages. It is used by relays and tests.
type Builder struct {
	msg RelayMessage
	err error
}

func (b *Builder) BlockUpdate(bu *BlockUpdate) *Builder {
	return b.add(BlockUpdateType, bu)
}

func (b *Builder) MessageProof(mp *merkle.MessageProof) *Builder {
	return b.add(MessageProofType, mp)
}

func (b *Builder) add(t MessageType, v interface{}) *Builder {
	if b.err != nil {
		return b
	}
	payload, err := rlp.EncodeToBytes(v)
	if err != nil {
		b.err = err
		return b
	}
	b.msg = append(b.msg, TypePrefixedMessage{
		Type:    t,
		Payload: payload,
	})
	return b
}

func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.msg.Bytes()
}
