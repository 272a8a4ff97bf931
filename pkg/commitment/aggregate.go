// Copyright 2025 The lcp-enclave-go Authors

package commitment

import (
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
)

// Aggregate folds next onto m, producing a single UpdateStateMessage that
// attests the same claim as applying both updates in sequence would. The
// chain law requires m.PostHeight/PostStateID to equal next's Prev fields
// exactly; EmittedStates concatenate in order and the validation contexts
// compose under their own law.
func (m *UpdateStateMessage) Aggregate(next *UpdateStateMessage) (*UpdateStateMessage, error) {
	if m.ClientID != next.ClientID {
		return nil, lcperrors.New(lcperrors.KindMessageAggregationFailed, "cannot aggregate updates for different clients")
	}
	if !m.PostHeight.EQ(next.PrevHeight) || m.PostStateID != next.PrevStateID {
		return nil, lcperrors.New(lcperrors.KindMessageAggregationFailed,
			"non-contiguous update chain: post state of first update does not match prev state of next")
	}
	ctx, err := m.Context.Compose(next.Context)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindMessageAggregationFailed, "compose validation contexts")
	}

	emitted := make([]EmittedState, 0, len(m.EmittedStates)+len(next.EmittedStates))
	emitted = append(emitted, m.EmittedStates...)
	emitted = append(emitted, next.EmittedStates...)

	return &UpdateStateMessage{
		ClientID:       m.ClientID,
		PrevHeight:     m.PrevHeight,
		PrevStateID:    m.PrevStateID,
		PostHeight:     next.PostHeight,
		PostStateID:    next.PostStateID,
		TimestampNanos: next.TimestampNanos,
		Context:        ctx,
		EmittedStates:  emitted,
	}, nil
}

// AggregateMessages folds a non-empty, height-contiguous chain of
// UpdateStateMessages left to right into a single message. Associativity of
// Aggregate means the fold order does not affect the result, only that the
// input slice must already be ordered by height.
func AggregateMessages(msgs []*UpdateStateMessage) (*UpdateStateMessage, error) {
	if len(msgs) == 0 {
		return nil, lcperrors.New(lcperrors.KindMessageAggregationFailed, "cannot aggregate an empty message set")
	}
	acc := msgs[0]
	for _, next := range msgs[1:] {
		aggregated, err := acc.Aggregate(next)
		if err != nil {
			return nil, err
		}
		acc = aggregated
	}
	return acc, nil
}

// IsIdentityUpdate reports whether m attests no state transition at all:
// prev and post height/state coincide. Such a message is the aggregation
// identity and carries no emitted states.
func (m *UpdateStateMessage) IsIdentityUpdate() bool {
	return m.PrevHeight.EQ(m.PostHeight) && m.PrevStateID == m.PostStateID && len(m.EmittedStates) == 0
}
