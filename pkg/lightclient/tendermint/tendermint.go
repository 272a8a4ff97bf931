// Copyright 2025 The lcp-enclave-go Authors
//
// Package tendermint is the one concrete light-client type the registry
// ships with. Header verification is a minimal bisection-style trust
// check (validator set hash continuity plus a voting power threshold),
// enough to exercise every light-client code path without depending on a
// full Tendermint light-client library.
package tendermint

import (
	"context"
	"encoding/json"
	"time"

	"github.com/datachainlab/lcp-enclave-go/pkg/commitment"
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/lightclient"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// ClientTypeTendermint is this client type's registry key.
const ClientTypeTendermint = "07-tendermint"

// TypeURLClientState and TypeURLConsensusState identify this client
// type's Any-wrapped payloads.
const (
	TypeURLClientState    = "/lcp.tendermint.v1.ClientState"
	TypeURLConsensusState = "/lcp.tendermint.v1.ConsensusState"
)

// ClientState is this client type's on-chain client state.
type ClientState struct {
	ChainID              string
	TrustingPeriod       time.Duration
	ClockDrift           time.Duration
	TrustLevelNumerator  uint64
	TrustLevelDenominator uint64
	LatestHeight         types.Height
	FrozenHeight         types.Height
}

// IsFrozen reports whether this client state has been frozen by a
// misbehaviour submission.
func (cs ClientState) IsFrozen() bool {
	return !cs.FrozenHeight.IsZero()
}

// ConsensusState is this client type's per-height consensus state.
type ConsensusState struct {
	Timestamp          types.Time
	ValidatorsHash     [32]byte
	NextValidatorsHash [32]byte
}

// Header is this client type's update payload: a new block's validator
// commitment plus the voting power that signed it, checked against the
// trusted height's validator set.
type Header struct {
	Height                types.Height
	Time                  types.Time
	ValidatorsHash        [32]byte
	NextValidatorsHash    [32]byte
	TrustedHeight         types.Height
	TotalVotingPower      uint64
	SignedVotingPower     uint64
}

func marshalAny(typeURL string, v interface{}) (types.Any, error) {
	value, err := json.Marshal(v)
	if err != nil {
		return types.Any{}, lcperrors.Wrap(err, lcperrors.KindInputValidation, "marshal "+typeURL)
	}
	return types.Any{TypeURL: typeURL, Value: value}, nil
}

func unmarshalClientState(a types.Any) (ClientState, error) {
	var cs ClientState
	if a.TypeURL != TypeURLClientState {
		return cs, lcperrors.Newf(lcperrors.KindUnexpectedMessageType, "expected client state type %s, got %s", TypeURLClientState, a.TypeURL)
	}
	if err := json.Unmarshal(a.Value, &cs); err != nil {
		return cs, lcperrors.Wrap(err, lcperrors.KindInputValidation, "unmarshal client state")
	}
	return cs, nil
}

func unmarshalConsensusState(a types.Any) (ConsensusState, error) {
	var cons ConsensusState
	if a.TypeURL != TypeURLConsensusState {
		return cons, lcperrors.Newf(lcperrors.KindUnexpectedMessageType, "expected consensus state type %s, got %s", TypeURLConsensusState, a.TypeURL)
	}
	if err := json.Unmarshal(a.Value, &cons); err != nil {
		return cons, lcperrors.Wrap(err, lcperrors.KindInputValidation, "unmarshal consensus state")
	}
	return cons, nil
}

// LightClient implements lightclient.LightClient for the tendermint
// client type.
type LightClient struct{}

// New returns a tendermint LightClient.
func New() *LightClient {
	return &LightClient{}
}

// Register adds the tendermint LightClient to registry under its
// canonical client-type key.
func Register(registry *lightclient.Registry) {
	registry.Register(ClientTypeTendermint, New())
}

func (l *LightClient) CreateClient(ctx context.Context, host lightclient.HostContext, store lightclient.ClientStore, clientStateAny, consensusStateAny types.Any) (*lightclient.CreateResult, error) {
	clientState, err := unmarshalClientState(clientStateAny)
	if err != nil {
		return nil, err
	}
	consensusState, err := unmarshalConsensusState(consensusStateAny)
	if err != nil {
		return nil, err
	}

	clientID := lightclient.GenClientID(clientStateAny, consensusStateAny)
	stateID := lightclient.GenStateIDFromAny(clientStateAny, consensusStateAny)

	store.StageClientState(clientID, clientStateAny)
	store.StageConsensusState(clientID, clientState.LatestHeight, consensusStateAny)

	msg := &commitment.UpdateStateMessage{
		ClientID:       clientID,
		PostHeight:     clientState.LatestHeight,
		PostStateID:    stateID,
		TimestampNanos: consensusState.Timestamp,
		Context:        commitment.EmptyContext(),
		EmittedStates: []commitment.EmittedState{
			{Height: clientState.LatestHeight, StateID: stateID},
		},
	}

	return &lightclient.CreateResult{
		ClientID:        clientID,
		ClientState:     clientStateAny,
		ConsensusState:  consensusStateAny,
		ProcessedTime:   host.Timestamp,
		ProcessedHeight: host.Height,
		Message:         msg,
	}, nil
}

func (l *LightClient) UpdateClient(ctx context.Context, host lightclient.HostContext, store lightclient.ClientStore, clientID types.ClientId, headerAny types.Any) (*lightclient.UpdateResult, error) {
	reader := lightclient.ClientReader(store)
	var header Header
	if err := json.Unmarshal(headerAny.Value, &header); err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInputValidation, "unmarshal tendermint header")
	}

	frozen, err := reader.IsFrozen(ctx, clientID)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindStoreError, "read frozen status")
	}
	if frozen {
		return nil, lcperrors.Newf(lcperrors.KindClientFrozen, "client %s is frozen", clientID)
	}

	clientStateAny, err := reader.ClientState(ctx, clientID)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindConsensusStateNotFound, "read client state")
	}
	clientState, err := unmarshalClientState(clientStateAny)
	if err != nil {
		return nil, err
	}

	latestConsensusAny, err := reader.ConsensusState(ctx, clientID, clientState.LatestHeight)
	if err != nil {
		return nil, lcperrors.Wrapf(err, lcperrors.KindConsensusStateNotFound,
			"consensus state not found for client %s at height %s", clientID, clientState.LatestHeight)
	}
	latestConsensus, err := unmarshalConsensusState(latestConsensusAny)
	if err != nil {
		return nil, err
	}

	if uint64(header.Time) > uint64(latestConsensus.Timestamp)+uint64(clientState.TrustingPeriod) {
		return nil, lcperrors.Newf(lcperrors.KindHeaderNotWithinTrustPeriod,
			"header timestamp %d exceeds trusting period from %d", header.Time, latestConsensus.Timestamp)
	}

	trustedConsensusAny, err := reader.ConsensusState(ctx, clientID, header.TrustedHeight)
	if err != nil {
		return nil, lcperrors.Wrapf(err, lcperrors.KindConsensusStateNotFound,
			"trusted consensus state not found for client %s at height %s", clientID, header.TrustedHeight)
	}
	trustedConsensus, err := unmarshalConsensusState(trustedConsensusAny)
	if err != nil {
		return nil, err
	}

	if err := verifyHeader(trustedConsensus, header, clientState.TrustLevelNumerator, clientState.TrustLevelDenominator); err != nil {
		return nil, err
	}

	newClientState := clientState
	newClientState.LatestHeight = header.Height
	newClientStateAny, err := marshalAny(TypeURLClientState, newClientState)
	if err != nil {
		return nil, err
	}

	newConsensusState := ConsensusState{
		Timestamp:          header.Time,
		ValidatorsHash:     header.ValidatorsHash,
		NextValidatorsHash: header.NextValidatorsHash,
	}
	newConsensusStateAny, err := marshalAny(TypeURLConsensusState, newConsensusState)
	if err != nil {
		return nil, err
	}

	store.StageClientState(clientID, newClientStateAny)
	store.StageConsensusState(clientID, header.Height, newConsensusStateAny)

	prevStateID := lightclient.GenStateIDFromAny(clientStateAny, trustedConsensusAny)
	postStateID := lightclient.GenStateIDFromAny(newClientStateAny, newConsensusStateAny)

	msg := &commitment.UpdateStateMessage{
		ClientID:       clientID,
		PrevHeight:     header.TrustedHeight,
		PrevStateID:    prevStateID,
		PostHeight:     header.Height,
		PostStateID:    postStateID,
		TimestampNanos: host.Timestamp,
		Context: commitment.ValidationContext{
			Type:                     commitment.ContextTypeTrustingPeriod,
			TrustingPeriod:           clientState.TrustingPeriod,
			ClockDrift:               clientState.ClockDrift,
			UntrustedHeaderTimestamp: header.Time,
			TrustedStateTimestamp:    trustedConsensus.Timestamp,
		},
		EmittedStates: []commitment.EmittedState{
			{Height: header.Height, StateID: postStateID},
		},
	}

	return &lightclient.UpdateResult{
		TrustedClientState:    clientStateAny,
		TrustedConsensusState: trustedConsensusAny,
		NewClientState:        newClientStateAny,
		NewConsensusState:     newConsensusStateAny,
		ProcessedTime:         host.Timestamp,
		ProcessedHeight:       host.Height,
		Message:               msg,
	}, nil
}

// verifyHeader checks validator-set-hash continuity against the trusted
// consensus state and that enough voting power signed the new header.
func verifyHeader(trusted ConsensusState, header Header, trustNumerator, trustDenominator uint64) error {
	if header.ValidatorsHash != trusted.NextValidatorsHash && header.ValidatorsHash != trusted.ValidatorsHash {
		return lcperrors.New(lcperrors.KindHeaderVerificationFailure,
			"header validator set does not continue from the trusted validator set")
	}
	if trustDenominator == 0 {
		trustNumerator, trustDenominator = 1, 3
	}
	if header.TotalVotingPower == 0 || header.SignedVotingPower*trustDenominator < header.TotalVotingPower*trustNumerator {
		return lcperrors.New(lcperrors.KindHeaderVerificationFailure,
			"insufficient voting power signed the header")
	}
	return nil
}

func (l *LightClient) VerifyMembership(ctx context.Context, reader lightclient.ClientReader, clientID types.ClientId, height types.Height, prefix []byte, path string, value types.StateID) (*lightclient.MembershipResult, error) {
	stateID, err := l.currentStateID(ctx, reader, clientID, height)
	if err != nil {
		return nil, err
	}
	return &lightclient.MembershipResult{
		Message: &commitment.VerifyMembershipMessage{
			Prefix:  prefix,
			Path:    path,
			Value:   value,
			Height:  height,
			StateID: stateID,
		},
	}, nil
}

func (l *LightClient) VerifyNonMembership(ctx context.Context, reader lightclient.ClientReader, clientID types.ClientId, height types.Height, prefix []byte, path string) (*lightclient.MembershipResult, error) {
	stateID, err := l.currentStateID(ctx, reader, clientID, height)
	if err != nil {
		return nil, err
	}
	return &lightclient.MembershipResult{
		Message: &commitment.VerifyMembershipMessage{
			Prefix:  prefix,
			Path:    path,
			Value:   types.StateID{},
			Height:  height,
			StateID: stateID,
		},
	}, nil
}

func (l *LightClient) currentStateID(ctx context.Context, reader lightclient.ClientReader, clientID types.ClientId, height types.Height) (types.StateID, error) {
	clientStateAny, err := reader.ClientState(ctx, clientID)
	if err != nil {
		return types.StateID{}, lcperrors.Wrap(err, lcperrors.KindConsensusStateNotFound, "read client state")
	}
	consensusStateAny, err := reader.ConsensusState(ctx, clientID, height)
	if err != nil {
		return types.StateID{}, lcperrors.Wrapf(err, lcperrors.KindConsensusStateNotFound,
			"consensus state not found for client %s at height %s", clientID, height)
	}
	return lightclient.GenStateIDFromAny(clientStateAny, consensusStateAny), nil
}
