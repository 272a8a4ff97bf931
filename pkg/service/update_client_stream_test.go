// Copyright 2025 The lcp-enclave-go Authors

package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

func TestUpdateClientAccumulatorConcatenatesHeaderValue(t *testing.T) {
	acc := NewUpdateClientAccumulator()
	require.NoError(t, acc.Add(UpdateClientChunk{
		ClientID:     types.ClientId("07-tendermint-0"),
		Header:       &types.Any{TypeURL: "/lcp.tendermint.v1.Header", Value: []byte("part1-")},
		IncludeState: true,
	}))
	require.NoError(t, acc.Add(UpdateClientChunk{
		Header: &types.Any{Value: []byte("part2")},
	}))

	clientID, header, err := acc.Finish()
	require.NoError(t, err)
	require.Equal(t, types.ClientId("07-tendermint-0"), clientID)
	require.Equal(t, "part1-part2", string(header.Value))
	require.Equal(t, "/lcp.tendermint.v1.Header", header.TypeURL)
}

func TestUpdateClientAccumulatorRejectsEmptyStream(t *testing.T) {
	acc := NewUpdateClientAccumulator()
	_, _, err := acc.Finish()
	require.Error(t, err)
}

func TestUpdateClientAccumulatorRejectsChunkMissingHeader(t *testing.T) {
	acc := NewUpdateClientAccumulator()
	require.NoError(t, acc.Add(UpdateClientChunk{
		ClientID: types.ClientId("07-tendermint-0"),
		Header:   &types.Any{Value: []byte("part1")},
	}))
	err := acc.Add(UpdateClientChunk{Header: nil})
	require.Error(t, err)
}

func TestUpdateClientAccumulatorRejectsMismatchedTypeURLMidStream(t *testing.T) {
	acc := NewUpdateClientAccumulator()
	require.NoError(t, acc.Add(UpdateClientChunk{
		Header: &types.Any{TypeURL: "/a", Value: []byte("x")},
	}))
	err := acc.Add(UpdateClientChunk{
		Header: &types.Any{TypeURL: "/b", Value: []byte("y")},
	})
	require.Error(t, err)
}
