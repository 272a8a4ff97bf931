// Copyright 2025 The lcp-enclave-go Authors

package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datachainlab/lcp-enclave-go/pkg/commitment"
	"github.com/datachainlab/lcp-enclave-go/pkg/enclavekey"
	"github.com/datachainlab/lcp-enclave-go/pkg/lightclient"
	"github.com/datachainlab/lcp-enclave-go/pkg/lightclient/tendermint"
	"github.com/datachainlab/lcp-enclave-go/pkg/router"
	"github.com/datachainlab/lcp-enclave-go/pkg/store"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

func marshalAny(t *testing.T, typeURL string, v interface{}) types.Any {
	t.Helper()
	value, err := json.Marshal(v)
	require.NoError(t, err)
	return types.Any{TypeURL: typeURL, Value: value}
}

func newTestService(t *testing.T) (*Service, tendermint.ClientState) {
	t.Helper()
	registry := lightclient.NewRegistry()
	tendermint.Register(registry)
	rtr := router.New(registry, nil, nil)
	ek := enclavekey.NewManager(filepath.Join(t.TempDir(), "enclave.key"), nil)
	require.NoError(t, ek.Init(false))
	backend := store.NewMemoryBackend()
	svc := New(rtr, ek, backend, nil)

	cs := tendermint.ClientState{
		ChainID:               "testnet-1",
		TrustingPeriod:        24 * time.Hour,
		TrustLevelNumerator:   2,
		TrustLevelDenominator: 3,
		LatestHeight:          types.Height{RevisionNumber: 1, RevisionHeight: 100},
	}
	return svc, cs
}

func TestCreateThenQueryClient(t *testing.T) {
	svc, cs := newTestService(t)
	csAny := marshalAny(t, tendermint.TypeURLClientState, cs)
	consAny := marshalAny(t, tendermint.TypeURLConsensusState, tendermint.ConsensusState{
		Timestamp:      types.Time(1000),
		ValidatorsHash: [32]byte{1},
	})

	res, err := svc.CreateClient(context.Background(), lightclient.HostContext{}, tendermint.ClientTypeTendermint, csAny, consAny)
	require.NoError(t, err)
	require.NotEmpty(t, res.ClientID)

	q, err := svc.Client(context.Background(), res.ClientID)
	require.NoError(t, err)
	require.Equal(t, csAny, q.ClientState)
	require.False(t, q.Frozen)
}

func TestAggregateMessagesRejectsEmptyInput(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.AggregateMessages(nil)
	require.Error(t, err)
}

func TestAggregateMessagesChainsCreateThenUpdate(t *testing.T) {
	svc, cs := newTestService(t)
	csAny := marshalAny(t, tendermint.TypeURLClientState, cs)
	consAny := marshalAny(t, tendermint.TypeURLConsensusState, tendermint.ConsensusState{
		Timestamp:      types.Time(1000),
		ValidatorsHash: [32]byte{1},
	})

	createRes, err := svc.CreateClient(context.Background(), lightclient.HostContext{}, tendermint.ClientTypeTendermint, csAny, consAny)
	require.NoError(t, err)

	header := tendermint.Header{
		Height:            types.Height{RevisionNumber: 1, RevisionHeight: 200},
		Time:              types.Time(2000),
		TrustedHeight:     cs.LatestHeight,
		ValidatorsHash:    [32]byte{1},
		TotalVotingPower:  100,
		SignedVotingPower: 100,
	}
	headerAny := marshalAny(t, "", header)

	updateRes, err := svc.UpdateClient(context.Background(), lightclient.HostContext{}, tendermint.ClientTypeTendermint, createRes.ClientID, headerAny)
	require.NoError(t, err)

	aggregated, err := svc.AggregateMessages([]*commitment.CommitmentProof{createRes.Proof, updateRes.Proof})
	require.NoError(t, err)
	require.NotNil(t, aggregated)

	decoded, err := aggregated.Verify()
	require.NoError(t, err)
	um, ok := decoded.(*commitment.UpdateStateMessage)
	require.True(t, ok)
	require.Equal(t, createRes.ClientID, um.ClientID)
	require.Equal(t, types.Height{RevisionNumber: 1, RevisionHeight: 200}, um.PostHeight)
}

func TestAggregateMessagesRejectsForeignSigner(t *testing.T) {
	svc, cs := newTestService(t)
	csAny := marshalAny(t, tendermint.TypeURLClientState, cs)
	consAny := marshalAny(t, tendermint.TypeURLConsensusState, tendermint.ConsensusState{
		Timestamp:      types.Time(1000),
		ValidatorsHash: [32]byte{1},
	})
	createRes, err := svc.CreateClient(context.Background(), lightclient.HostContext{}, tendermint.ClientTypeTendermint, csAny, consAny)
	require.NoError(t, err)

	other := enclavekey.NewManager(filepath.Join(t.TempDir(), "other.key"), nil)
	require.NoError(t, other.Init(false))
	otherAddr, err := other.Address()
	require.NoError(t, err)

	forged := &commitment.CommitmentProof{
		Message:   createRes.Proof.Message,
		Signer:    otherAddr,
		Signature: createRes.Proof.Signature,
	}
	_, err = svc.AggregateMessages([]*commitment.CommitmentProof{forged})
	require.Error(t, err)
}
