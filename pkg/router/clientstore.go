// Copyright 2025 The lcp-enclave-go Authors

package router

import (
	"context"
	"encoding/json"

	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/lightclient"
	"github.com/datachainlab/lcp-enclave-go/pkg/store"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// clientStore adapts a *store.Store snapshot to lightclient.ClientStore, so
// a LightClient's reads and staged writes land in the exact same snapshot
// the router commits or rolls back for the command.
type clientStore struct {
	st *store.Store
}

func newClientStore(st *store.Store) *clientStore {
	return &clientStore{st: st}
}

func clientStateKey(clientID types.ClientId) []byte {
	return []byte("client_state/" + string(clientID))
}

func consensusStateKey(clientID types.ClientId, height types.Height) []byte {
	return []byte("consensus_state/" + string(clientID) + "/" + height.String())
}

func frozenKey(clientID types.ClientId) []byte {
	return []byte("frozen/" + string(clientID))
}

func (c *clientStore) ClientState(ctx context.Context, clientID types.ClientId) (types.Any, error) {
	raw, found, err := c.st.Get(ctx, clientStateKey(clientID))
	if err != nil {
		return types.Any{}, lcperrors.Wrap(err, lcperrors.KindStoreError, "read client state")
	}
	if !found {
		return types.Any{}, lcperrors.Newf(lcperrors.KindConsensusStateNotFound, "no client state for %s", clientID)
	}
	var a types.Any
	if err := json.Unmarshal(raw, &a); err != nil {
		return types.Any{}, lcperrors.Wrap(err, lcperrors.KindStoreError, "decode client state")
	}
	return a, nil
}

func (c *clientStore) ConsensusState(ctx context.Context, clientID types.ClientId, height types.Height) (types.Any, error) {
	raw, found, err := c.st.Get(ctx, consensusStateKey(clientID, height))
	if err != nil {
		return types.Any{}, lcperrors.Wrap(err, lcperrors.KindStoreError, "read consensus state")
	}
	if !found {
		return types.Any{}, lcperrors.Newf(lcperrors.KindConsensusStateNotFound, "no consensus state for %s at %s", clientID, height)
	}
	var a types.Any
	if err := json.Unmarshal(raw, &a); err != nil {
		return types.Any{}, lcperrors.Wrap(err, lcperrors.KindStoreError, "decode consensus state")
	}
	return a, nil
}

func (c *clientStore) IsFrozen(ctx context.Context, clientID types.ClientId) (bool, error) {
	_, found, err := c.st.Get(ctx, frozenKey(clientID))
	if err != nil {
		return false, lcperrors.Wrap(err, lcperrors.KindStoreError, "read frozen marker")
	}
	return found, nil
}

func (c *clientStore) StageClientState(clientID types.ClientId, clientState types.Any) {
	raw, _ := json.Marshal(clientState)
	c.st.StagePut(clientStateKey(clientID), raw)
}

func (c *clientStore) StageConsensusState(clientID types.ClientId, height types.Height, consensusState types.Any) {
	raw, _ := json.Marshal(consensusState)
	c.st.StagePut(consensusStateKey(clientID, height), raw)
}

func (c *clientStore) StageFreeze(clientID types.ClientId, height types.Height) {
	c.st.StagePut(frozenKey(clientID), []byte(height.String()))
}

var _ lightclient.ClientStore = (*clientStore)(nil)
