// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metricstest reads gathered metric values in tests.
package metricstest

import (
	"testing"

	"github.com/luxfi/metric"
	"github.com/stretchr/testify/require"
)

// Value returns the value of the metric [name] whose labels include
// [labels]. A metric that was never reported has value 0.
func Value(t testing.TB, gatherer metric.Gatherer, name string, labels ...metric.LabelPair) float64 {
	families, err := gatherer.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.Name != name {
			continue
		}
		for _, m := range family.Metrics {
			if hasLabels(m.Labels, labels) {
				return m.Value.Value
			}
		}
	}
	return 0
}

func hasLabels(have, want []metric.LabelPair) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h.Name == w.Name && h.Value == w.Value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
