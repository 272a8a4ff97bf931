// Copyright 2025 The lcp-enclave-go Authors

package tendermint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/lightclient"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

type fakeStore struct {
	clientStates    map[types.ClientId]types.Any
	consensusStates map[types.ClientId]map[types.Height]types.Any
	frozen          map[types.ClientId]bool
}

func newFakeReader() *fakeStore {
	return &fakeStore{
		clientStates:    make(map[types.ClientId]types.Any),
		consensusStates: make(map[types.ClientId]map[types.Height]types.Any),
		frozen:          make(map[types.ClientId]bool),
	}
}

func (f *fakeStore) ClientState(_ context.Context, id types.ClientId) (types.Any, error) {
	cs, ok := f.clientStates[id]
	if !ok {
		return types.Any{}, lcperrors.New(lcperrors.KindConsensusStateNotFound, "no client state")
	}
	return cs, nil
}

func (f *fakeStore) ConsensusState(_ context.Context, id types.ClientId, height types.Height) (types.Any, error) {
	byHeight, ok := f.consensusStates[id]
	if !ok {
		return types.Any{}, lcperrors.New(lcperrors.KindConsensusStateNotFound, "no consensus states")
	}
	cons, ok := byHeight[height]
	if !ok {
		return types.Any{}, lcperrors.New(lcperrors.KindConsensusStateNotFound, "no consensus state at height")
	}
	return cons, nil
}

func (f *fakeStore) IsFrozen(_ context.Context, id types.ClientId) (bool, error) {
	return f.frozen[id], nil
}

func (f *fakeStore) StageClientState(id types.ClientId, clientState types.Any) {
	f.clientStates[id] = clientState
}

func (f *fakeStore) StageConsensusState(id types.ClientId, height types.Height, consensusState types.Any) {
	byHeight, ok := f.consensusStates[id]
	if !ok {
		byHeight = make(map[types.Height]types.Any)
		f.consensusStates[id] = byHeight
	}
	byHeight[height] = consensusState
}

func (f *fakeStore) StageFreeze(id types.ClientId, _ types.Height) {
	f.frozen[id] = true
}

func TestRegisterAddsTendermintClientType(t *testing.T) {
	registry := lightclient.NewRegistry()
	Register(registry)

	handler, err := registry.Get(ClientTypeTendermint)
	require.NoError(t, err)
	require.NotNil(t, handler)
}

func TestCreateClientDerivesDeterministicClientID(t *testing.T) {
	l := New()
	ctx := context.Background()

	clientState := ClientState{ChainID: "testnet-1", TrustingPeriod: 24 * time.Hour, LatestHeight: types.Height{RevisionNumber: 1, RevisionHeight: 100}}
	consensusState := ConsensusState{Timestamp: 1000, ValidatorsHash: [32]byte{1}}

	csAny, err := marshalAny(TypeURLClientState, clientState)
	require.NoError(t, err)
	consAny, err := marshalAny(TypeURLConsensusState, consensusState)
	require.NoError(t, err)

	res1, err := l.CreateClient(ctx, lightclient.HostContext{}, newFakeReader(), csAny, consAny)
	require.NoError(t, err)
	res2, err := l.CreateClient(ctx, lightclient.HostContext{}, newFakeReader(), csAny, consAny)
	require.NoError(t, err)

	require.Equal(t, res1.ClientID, res2.ClientID, "identical inputs must mint the same client id")
	require.Equal(t, clientState.LatestHeight, res1.Message.PostHeight)
}

func TestUpdateClientRejectsFrozenClient(t *testing.T) {
	l := New()
	ctx := context.Background()
	reader := newFakeReader()

	clientID := types.ClientId("07-tendermint-0")
	reader.frozen[clientID] = true

	headerAny, err := marshalAny("", Header{})
	require.NoError(t, err)

	_, err = l.UpdateClient(ctx, lightclient.HostContext{}, reader, clientID, headerAny)
	require.Error(t, err)
	require.True(t, lcperrors.Is(err, lcperrors.KindClientFrozen))
}

func TestUpdateClientRejectsStaleHeaderBeyondTrustingPeriod(t *testing.T) {
	l := New()
	ctx := context.Background()
	reader := newFakeReader()
	clientID := types.ClientId("07-tendermint-0")

	trustedHeight := types.Height{RevisionNumber: 1, RevisionHeight: 1}
	clientState := ClientState{TrustingPeriod: time.Hour, LatestHeight: trustedHeight, TrustLevelNumerator: 2, TrustLevelDenominator: 3}
	csAny, err := marshalAny(TypeURLClientState, clientState)
	require.NoError(t, err)
	reader.clientStates[clientID] = csAny

	consensusState := ConsensusState{Timestamp: 1000, ValidatorsHash: [32]byte{1}}
	consAny, err := marshalAny(TypeURLConsensusState, consensusState)
	require.NoError(t, err)
	reader.consensusStates[clientID] = map[types.Height]types.Any{trustedHeight: consAny}

	header := Header{
		Height:            types.Height{RevisionNumber: 1, RevisionHeight: 2},
		Time:              types.Time(uint64(consensusState.Timestamp) + uint64(2*time.Hour)),
		TrustedHeight:     trustedHeight,
		ValidatorsHash:    [32]byte{1},
		TotalVotingPower:  100,
		SignedVotingPower: 100,
	}
	headerAny, err := marshalAny("", header)
	require.NoError(t, err)

	_, err = l.UpdateClient(ctx, lightclient.HostContext{}, reader, clientID, headerAny)
	require.Error(t, err)
	require.True(t, lcperrors.Is(err, lcperrors.KindHeaderNotWithinTrustPeriod))
}

func TestUpdateClientAcceptsValidHeaderWithSufficientVotingPower(t *testing.T) {
	l := New()
	ctx := context.Background()
	reader := newFakeReader()
	clientID := types.ClientId("07-tendermint-0")

	trustedHeight := types.Height{RevisionNumber: 1, RevisionHeight: 1}
	clientState := ClientState{TrustingPeriod: 24 * time.Hour, LatestHeight: trustedHeight, TrustLevelNumerator: 2, TrustLevelDenominator: 3}
	csAny, err := marshalAny(TypeURLClientState, clientState)
	require.NoError(t, err)
	reader.clientStates[clientID] = csAny

	consensusState := ConsensusState{Timestamp: 1000, ValidatorsHash: [32]byte{1}, NextValidatorsHash: [32]byte{2}}
	consAny, err := marshalAny(TypeURLConsensusState, consensusState)
	require.NoError(t, err)
	reader.consensusStates[clientID] = map[types.Height]types.Any{trustedHeight: consAny}

	header := Header{
		Height:            types.Height{RevisionNumber: 1, RevisionHeight: 2},
		Time:              consensusState.Timestamp + 10,
		TrustedHeight:     trustedHeight,
		ValidatorsHash:    [32]byte{2},
		TotalVotingPower:  100,
		SignedVotingPower: 70,
	}
	headerAny, err := marshalAny("", header)
	require.NoError(t, err)

	result, err := l.UpdateClient(ctx, lightclient.HostContext{}, reader, clientID, headerAny)
	require.NoError(t, err)
	require.Equal(t, header.Height, result.Message.PostHeight)
	require.Equal(t, trustedHeight, result.Message.PrevHeight)
}

func TestUpdateClientRejectsInsufficientVotingPower(t *testing.T) {
	l := New()
	ctx := context.Background()
	reader := newFakeReader()
	clientID := types.ClientId("07-tendermint-0")

	trustedHeight := types.Height{RevisionNumber: 1, RevisionHeight: 1}
	clientState := ClientState{TrustingPeriod: 24 * time.Hour, LatestHeight: trustedHeight, TrustLevelNumerator: 2, TrustLevelDenominator: 3}
	csAny, err := marshalAny(TypeURLClientState, clientState)
	require.NoError(t, err)
	reader.clientStates[clientID] = csAny

	consensusState := ConsensusState{Timestamp: 1000, ValidatorsHash: [32]byte{1}}
	consAny, err := marshalAny(TypeURLConsensusState, consensusState)
	require.NoError(t, err)
	reader.consensusStates[clientID] = map[types.Height]types.Any{trustedHeight: consAny}

	header := Header{
		Height:            types.Height{RevisionNumber: 1, RevisionHeight: 2},
		Time:              consensusState.Timestamp + 10,
		TrustedHeight:     trustedHeight,
		ValidatorsHash:    [32]byte{1},
		TotalVotingPower:  100,
		SignedVotingPower: 10,
	}
	headerAny, err := marshalAny("", header)
	require.NoError(t, err)

	_, err = l.UpdateClient(ctx, lightclient.HostContext{}, reader, clientID, headerAny)
	require.Error(t, err)
	require.True(t, lcperrors.Is(err, lcperrors.KindHeaderVerificationFailure))
}
