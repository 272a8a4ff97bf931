// Copyright 2025 The lcp-enclave-go Authors

package lightclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

type stubLightClient struct{}

func (stubLightClient) CreateClient(context.Context, HostContext, ClientStore, types.Any, types.Any) (*CreateResult, error) {
	return nil, nil
}
func (stubLightClient) UpdateClient(context.Context, HostContext, ClientStore, types.ClientId, types.Any) (*UpdateResult, error) {
	return nil, nil
}
func (stubLightClient) VerifyMembership(context.Context, ClientReader, types.ClientId, types.Height, []byte, string, types.StateID) (*MembershipResult, error) {
	return nil, nil
}
func (stubLightClient) VerifyNonMembership(context.Context, ClientReader, types.ClientId, types.Height, []byte, string) (*MembershipResult, error) {
	return nil, nil
}

func TestRegistryGetUnknownTypeFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nonexistent")
	require.Error(t, err)
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", stubLightClient{})

	h, err := r.Get("stub")
	require.NoError(t, err)
	require.NotNil(t, h)
}

func TestGenStateIDFromAnyIsDeterministic(t *testing.T) {
	clientState := types.Any{TypeURL: "/a", Value: []byte("client-state-bytes")}
	consensusState := types.Any{TypeURL: "/b", Value: []byte("consensus-state-bytes")}

	id1 := GenStateIDFromAny(clientState, consensusState)
	id2 := GenStateIDFromAny(clientState, consensusState)
	require.Equal(t, id1, id2)

	other := types.Any{TypeURL: "/a", Value: []byte("different-bytes")}
	id3 := GenStateIDFromAny(other, consensusState)
	require.NotEqual(t, id1, id3)
}

func TestGenClientIDMatchesStateIDString(t *testing.T) {
	clientState := types.Any{TypeURL: "/a", Value: []byte("x")}
	consensusState := types.Any{TypeURL: "/b", Value: []byte("y")}

	clientID := GenClientID(clientState, consensusState)
	stateID := GenStateIDFromAny(clientState, consensusState)
	require.Equal(t, stateID.String(), string(clientID))
}
