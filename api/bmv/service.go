// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bmv exposes a link verifier over JSON-RPC.
package bmv

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"

	"github.com/luxfi/bmv/utils/json"
	"github.com/luxfi/bmv/vms/bmv/state"

	vm "github.com/luxfi/bmv/vms/bmv"
)

const ServiceName = "bmv"

var (
	_ Verifier = (*vm.Verifier)(nil)

	errCallerMismatch = errors.New("caller does not match the authenticated caller")
)

type callerKey struct{}

// WithCaller returns a context carrying the caller the host authenticated for
// a request.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller set by [WithCaller].
func CallerFromContext(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerKey{}).(string)
	return caller, ok
}

// Verifier is the part of a link verifier served by the API.
type Verifier interface {
	HandleRelayMessage(
		ctx context.Context,
		caller string,
		currentBMC string,
		prevBMC string,
		seq uint64,
		msg []byte,
	) ([][]byte, error)
	GetStatus(ctx context.Context) (*vm.Status, error)
	LinkState(ctx context.Context) (*state.LinkState, error)
}

// Service serves a link verifier.
//
// The service does not authenticate requests. A host that exposes it to
// relays must authenticate the caller and attach it with [WithCaller];
// otherwise the caller of a relay message is whatever the client claims.
type Service struct {
	log      log.Logger
	verifier Verifier
}

func NewService(log log.Logger, verifier Verifier) (http.Handler, error) {
	server := rpc.NewServer()
	codec := json.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(
		&Service{
			log:      log,
			verifier: verifier,
		},
		ServiceName,
	)
}

type GetStatusReply struct {
	Height         json.Uint64 `json:"height"`
	SequenceOffset json.Uint64 `json:"sequenceOffset"`
	FirstMessageSN json.Uint64 `json:"firstMessageSN"`
	MessageCount   json.Uint64 `json:"messageCount"`
}

// GetStatus returns what a relay needs to build the next relay message.
func (s *Service) GetStatus(r *http.Request, _ *struct{}, reply *GetStatusReply) error {
	s.log.Debug("API called",
		log.String("service", ServiceName),
		log.String("method", "getStatus"),
	)

	status, err := s.verifier.GetStatus(r.Context())
	if err != nil {
		return err
	}
	reply.Height = json.Uint64(status.Height)
	reply.SequenceOffset = json.Uint64(status.SequenceOffset)
	reply.FirstMessageSN = json.Uint64(status.FirstMessageSN)
	reply.MessageCount = json.Uint64(status.MessageCount)
	return nil
}

type HandleRelayMessageArgs struct {
	// Caller may be empty when the host attached an authenticated caller.
	Caller     string        `json:"caller"`
	CurrentBMC string        `json:"currentBMC"`
	PrevBMC    string        `json:"prevBMC"`
	Seq        json.Uint64   `json:"seq"`
	Message    hexutil.Bytes `json:"message"`
}

type HandleRelayMessageReply struct {
	Messages []hexutil.Bytes `json:"messages"`
}

// HandleRelayMessage verifies a relay message and returns the messages it
// delivers.
func (s *Service) HandleRelayMessage(r *http.Request, args *HandleRelayMessageArgs, reply *HandleRelayMessageReply) error {
	s.log.Debug("API called",
		log.String("service", ServiceName),
		log.String("method", "handleRelayMessage"),
		log.String("prevBMC", args.PrevBMC),
		log.Uint64("seq", uint64(args.Seq)),
	)

	caller := args.Caller
	if authenticated, ok := CallerFromContext(r.Context()); ok {
		if caller != "" && caller != authenticated {
			return fmt.Errorf("%w: %q", errCallerMismatch, caller)
		}
		caller = authenticated
	}

	messages, err := s.verifier.HandleRelayMessage(
		r.Context(),
		caller,
		args.CurrentBMC,
		args.PrevBMC,
		uint64(args.Seq),
		args.Message,
	)
	if err != nil {
		return err
	}
	reply.Messages = make([]hexutil.Bytes, len(messages))
	for i, msg := range messages {
		reply.Messages[i] = msg
	}
	return nil
}

type GetLinkStateReply struct {
	LinkState *state.LinkState `json:"linkState"`
}

// GetLinkState returns the full persisted state of the link.
func (s *Service) GetLinkState(r *http.Request, _ *struct{}, reply *GetLinkStateReply) error {
	s.log.Debug("API called",
		log.String("service", ServiceName),
		log.String("method", "getLinkState"),
	)

	linkState, err := s.verifier.LinkState(r.Context())
	if err != nil {
		return err
	}
	reply.LinkState = linkState
	return nil
}
