// Copyright 2025 The lcp-enclave-go Authors
//
// Package lightclient holds the light-client registry and dispatcher: a
// string-keyed lookup of client-type handlers, each responsible for
// producing the ProxyMessage values that prove a state transition.
package lightclient

import (
	"context"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/datachainlab/lcp-enclave-go/pkg/commitment"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// HostContext carries the host-observed timestamp and height a command was
// processed at, attached to results the way ctx.host_timestamp()/
// ctx.host_height() are in the original dispatcher.
type HostContext struct {
	Timestamp types.Time
	Height    types.Height
}

// ClientReader is the subset of the enclave's transactional store a
// LightClient needs to read: current client/consensus state and frozen
// status. The router backs this with the same Store snapshot a command's
// writes stage into, so a read inside one command sees any state the same
// command has already staged.
type ClientReader interface {
	ClientState(ctx context.Context, clientID types.ClientId) (types.Any, error)
	ConsensusState(ctx context.Context, clientID types.ClientId, height types.Height) (types.Any, error)
	IsFrozen(ctx context.Context, clientID types.ClientId) (bool, error)
}

// ClientWriter is the subset of the enclave's transactional store a
// LightClient needs to stage writes into: new client/consensus states
// after create_client or update_client, and freezing a client after a
// misbehaviour submission.
type ClientWriter interface {
	StageClientState(clientID types.ClientId, clientState types.Any)
	StageConsensusState(clientID types.ClientId, height types.Height, consensusState types.Any)
	StageFreeze(clientID types.ClientId, height types.Height)
}

// ClientStore combines ClientReader and ClientWriter, the full surface a
// LightClient operates against within one command.
type ClientStore interface {
	ClientReader
	ClientWriter
}

// CreateResult is what a successful CreateClient call produces: the
// deterministically derived client id, the initial client/consensus
// state, host-observed processing time/height, and the UpdateState
// message attesting the client's initial state.
type CreateResult struct {
	ClientID         types.ClientId
	ClientState      types.Any
	ConsensusState   types.Any
	ProcessedTime    types.Time
	ProcessedHeight  types.Height
	Message          *commitment.UpdateStateMessage
}

// UpdateResult is what a successful UpdateClient call produces: the
// trusted and new client/consensus states the header was checked against
// and produced, host-observed processing time/height, and the
// UpdateState message attesting the transition.
type UpdateResult struct {
	TrustedClientState    types.Any
	TrustedConsensusState types.Any
	NewClientState        types.Any
	NewConsensusState     types.Any
	ProcessedTime         types.Time
	ProcessedHeight       types.Height
	Message               *commitment.UpdateStateMessage
}

// MembershipResult is what a successful VerifyMembership or
// VerifyNonMembership call produces.
type MembershipResult struct {
	Message *commitment.VerifyMembershipMessage
}

// LightClient is the capability a client-type registers: creating clients,
// applying headers, and producing (non-)membership proofs, all against a
// ClientReader snapshot of host state.
type LightClient interface {
	CreateClient(ctx context.Context, host HostContext, store ClientStore, clientState, consensusState types.Any) (*CreateResult, error)
	UpdateClient(ctx context.Context, host HostContext, store ClientStore, clientID types.ClientId, header types.Any) (*UpdateResult, error)
	VerifyMembership(ctx context.Context, store ClientReader, clientID types.ClientId, height types.Height, prefix []byte, path string, value types.StateID) (*MembershipResult, error)
	VerifyNonMembership(ctx context.Context, store ClientReader, clientID types.ClientId, height types.Height, prefix []byte, path string) (*MembershipResult, error)
}

// GenStateIDFromAny derives a StateID deterministically from a
// (client_state, consensus_state) pair, so independent honest enclaves
// agree on both the StateID and the ClientId minted from it.
func GenStateIDFromAny(clientState, consensusState types.Any) types.StateID {
	h := crypto.NewKeccakState()
	h.Write([]byte(clientState.TypeURL))
	h.Write(clientState.Value)
	h.Write([]byte(consensusState.TypeURL))
	h.Write(consensusState.Value)
	var out types.StateID
	h.Read(out[:])
	return out
}

// GenClientID derives the ClientId minted by CreateClient, matching the
// original dispatcher's choice to use the state id's own string form
// rather than a separately allocated identifier.
func GenClientID(clientState, consensusState types.Any) types.ClientId {
	return types.ClientId(GenStateIDFromAny(clientState, consensusState).String())
}
