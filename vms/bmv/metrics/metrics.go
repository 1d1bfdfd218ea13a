// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/luxfi/metric"

	"github.com/luxfi/bmv/utils/wrappers"
)

const ReasonLabel = "reason"

var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = Noop{}
)

type Metrics interface {
	// Mark that a block update was accepted. [rotated] is true when the
	// update replaced the validator set.
	MarkBlockUpdate(rotated bool)
	// Mark that a message proof delivering [messages] messages was accepted.
	MarkMessageProof(messages int)
	// Mark that a relay message was rejected for the given reason class.
	MarkRejected(reason string)
}

type metricsImpl struct {
	blockUpdates       metric.Counter
	rotations          metric.Counter
	messageProofs      metric.Counter
	messagesDelivered  metric.Counter
	rejectedRelayCalls metric.CounterVec
}

func New(registerer metric.Registerer) (Metrics, error) {
	m := &metricsImpl{
		blockUpdates: metric.NewCounter(metric.CounterOpts{
			Name: "block_updates_accepted",
			Help: "Number of block updates accepted",
		}),
		rotations: metric.NewCounter(metric.CounterOpts{
			Name: "validator_rotations",
			Help: "Number of accepted block updates that replaced the validator set",
		}),
		messageProofs: metric.NewCounter(metric.CounterOpts{
			Name: "message_proofs_accepted",
			Help: "Number of message proofs accepted",
		}),
		messagesDelivered: metric.NewCounter(metric.CounterOpts{
			Name: "messages_delivered",
			Help: "Number of messages extracted from accepted message proofs",
		}),
		rejectedRelayCalls: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "relay_messages_rejected",
				Help: "Number of relay messages rejected, by reason",
			},
			[]string{ReasonLabel},
		),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(metric.AsCollector(m.blockUpdates)),
		registerer.Register(metric.AsCollector(m.rotations)),
		registerer.Register(metric.AsCollector(m.messageProofs)),
		registerer.Register(metric.AsCollector(m.messagesDelivered)),
		registerer.Register(metric.AsCollector(m.rejectedRelayCalls)),
	)
	return m, errs.Err
}

func (m *metricsImpl) MarkBlockUpdate(rotated bool) {
	m.blockUpdates.Inc()
	if rotated {
		m.rotations.Inc()
	}
}

func (m *metricsImpl) MarkMessageProof(messages int) {
	m.messageProofs.Inc()
	m.messagesDelivered.Add(float64(messages))
}

func (m *metricsImpl) MarkRejected(reason string) {
	m.rejectedRelayCalls.With(metric.Labels{
		ReasonLabel: reason,
	}).Inc()
}

type Noop struct{}

func (Noop) MarkBlockUpdate(bool) {}

func (Noop) MarkMessageProof(int) {}

func (Noop) MarkRejected(string) {}
