// Copyright 2025 The lcp-enclave-go Authors

package commitment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

func stateID(seed byte) types.StateID {
	var s types.StateID
	for i := range s {
		s[i] = seed
	}
	return s
}

func TestAggregateChainsContiguousUpdates(t *testing.T) {
	first := &UpdateStateMessage{
		ClientID:       "07-tendermint-0",
		PrevHeight:     types.Height{RevisionNumber: 1, RevisionHeight: 10},
		PrevStateID:    stateID(1),
		PostHeight:     types.Height{RevisionNumber: 1, RevisionHeight: 20},
		PostStateID:    stateID(2),
		TimestampNanos: 100,
		Context:        EmptyContext(),
		EmittedStates:  []EmittedState{{Height: types.Height{RevisionNumber: 1, RevisionHeight: 20}, StateID: stateID(2)}},
	}
	second := &UpdateStateMessage{
		ClientID:       "07-tendermint-0",
		PrevHeight:     types.Height{RevisionNumber: 1, RevisionHeight: 20},
		PrevStateID:    stateID(2),
		PostHeight:     types.Height{RevisionNumber: 1, RevisionHeight: 30},
		PostStateID:    stateID(3),
		TimestampNanos: 200,
		Context:        EmptyContext(),
		EmittedStates:  []EmittedState{{Height: types.Height{RevisionNumber: 1, RevisionHeight: 30}, StateID: stateID(3)}},
	}

	agg, err := first.Aggregate(second)
	require.NoError(t, err)
	require.Equal(t, first.PrevHeight, agg.PrevHeight)
	require.Equal(t, first.PrevStateID, agg.PrevStateID)
	require.Equal(t, second.PostHeight, agg.PostHeight)
	require.Equal(t, second.PostStateID, agg.PostStateID)
	require.Len(t, agg.EmittedStates, 2)
	require.Equal(t, types.Time(200), agg.TimestampNanos)
}

func TestAggregateTimestampComesFromNextEvenWhenEarlier(t *testing.T) {
	first := &UpdateStateMessage{
		ClientID:       "07-tendermint-0",
		PrevHeight:     types.Height{RevisionNumber: 1, RevisionHeight: 10},
		PrevStateID:    stateID(1),
		PostHeight:     types.Height{RevisionNumber: 1, RevisionHeight: 20},
		PostStateID:    stateID(2),
		TimestampNanos: 500,
		Context:        EmptyContext(),
	}
	second := &UpdateStateMessage{
		ClientID:       "07-tendermint-0",
		PrevHeight:     types.Height{RevisionNumber: 1, RevisionHeight: 20},
		PrevStateID:    stateID(2),
		PostHeight:     types.Height{RevisionNumber: 1, RevisionHeight: 30},
		PostStateID:    stateID(3),
		TimestampNanos: 200,
		Context:        EmptyContext(),
	}

	agg, err := first.Aggregate(second)
	require.NoError(t, err)
	require.Equal(t, types.Time(200), agg.TimestampNanos)
}

func TestAggregateRejectsNonContiguousChain(t *testing.T) {
	first := &UpdateStateMessage{
		ClientID:    "07-tendermint-0",
		PostHeight:  types.Height{RevisionNumber: 1, RevisionHeight: 20},
		PostStateID: stateID(2),
		Context:     EmptyContext(),
	}
	second := &UpdateStateMessage{
		ClientID:    "07-tendermint-0",
		PrevHeight:  types.Height{RevisionNumber: 1, RevisionHeight: 999},
		PrevStateID: stateID(9),
		Context:     EmptyContext(),
	}

	_, err := first.Aggregate(second)
	require.Error(t, err)
}

func TestAggregateRejectsDifferentClients(t *testing.T) {
	first := &UpdateStateMessage{ClientID: "07-tendermint-0", Context: EmptyContext()}
	second := &UpdateStateMessage{ClientID: "07-tendermint-1", Context: EmptyContext()}

	_, err := first.Aggregate(second)
	require.Error(t, err)
}

func TestAggregateMessagesIsAssociative(t *testing.T) {
	a := &UpdateStateMessage{
		ClientID: "c", PrevHeight: types.Height{RevisionHeight: 1}, PrevStateID: stateID(1),
		PostHeight: types.Height{RevisionHeight: 2}, PostStateID: stateID(2), Context: EmptyContext(),
	}
	b := &UpdateStateMessage{
		ClientID: "c", PrevHeight: types.Height{RevisionHeight: 2}, PrevStateID: stateID(2),
		PostHeight: types.Height{RevisionHeight: 3}, PostStateID: stateID(3), Context: EmptyContext(),
	}
	c := &UpdateStateMessage{
		ClientID: "c", PrevHeight: types.Height{RevisionHeight: 3}, PrevStateID: stateID(3),
		PostHeight: types.Height{RevisionHeight: 4}, PostStateID: stateID(4), Context: EmptyContext(),
	}

	leftFirst, err := AggregateMessages([]*UpdateStateMessage{a, b, c})
	require.NoError(t, err)

	ab, err := a.Aggregate(b)
	require.NoError(t, err)
	rightFirst, err := ab.Aggregate(c)
	require.NoError(t, err)

	require.Equal(t, leftFirst.PrevStateID, rightFirst.PrevStateID)
	require.Equal(t, leftFirst.PostStateID, rightFirst.PostStateID)
	require.Equal(t, leftFirst.PrevHeight, rightFirst.PrevHeight)
	require.Equal(t, leftFirst.PostHeight, rightFirst.PostHeight)
}

func TestValidationContextComposeTightensWindow(t *testing.T) {
	a := ValidationContext{
		Type:                     ContextTypeTrustingPeriod,
		TrustingPeriod:           time.Hour,
		ClockDrift:               time.Minute,
		UntrustedHeaderTimestamp: 1000,
		TrustedStateTimestamp:    100,
	}
	b := ValidationContext{
		Type:                     ContextTypeTrustingPeriod,
		TrustingPeriod:           time.Hour,
		ClockDrift:               time.Minute,
		UntrustedHeaderTimestamp: 2000,
		TrustedStateTimestamp:    50,
	}

	composed, err := a.Compose(b)
	require.NoError(t, err)
	require.Equal(t, types.Time(2000), composed.UntrustedHeaderTimestamp)
	require.Equal(t, types.Time(50), composed.TrustedStateTimestamp)
}

func TestValidationContextComposeRejectsMismatchedTrustingPeriod(t *testing.T) {
	a := ValidationContext{Type: ContextTypeTrustingPeriod, TrustingPeriod: time.Hour}
	b := ValidationContext{Type: ContextTypeTrustingPeriod, TrustingPeriod: 2 * time.Hour}

	_, err := a.Compose(b)
	require.Error(t, err)
}

func TestEncodeDecodeContextRoundTrip(t *testing.T) {
	ctx := ValidationContext{
		Type:                     ContextTypeTrustingPeriod,
		TrustingPeriod:           24 * time.Hour,
		ClockDrift:               10 * time.Second,
		UntrustedHeaderTimestamp: 123456789,
		TrustedStateTimestamp:    987654321,
	}
	encoded, err := EncodeContext(ctx)
	require.NoError(t, err)

	decoded, err := DecodeContext(encoded)
	require.NoError(t, err)
	require.Equal(t, ctx, decoded)
}
