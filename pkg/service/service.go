// Copyright 2025 The lcp-enclave-go Authors
//
// Package service is the in-process surface a host binds its gRPC (or any
// other) transport to: the Msg/Query operations of the enclave's external
// interface, implemented directly over pkg/router without pulling in any
// transport framework. Transport plumbing outside the CLI is left to the
// host binary; this package is the narrowest interface that needs.
package service

import (
	"context"
	"log"

	"github.com/datachainlab/lcp-enclave-go/pkg/commitment"
	"github.com/datachainlab/lcp-enclave-go/pkg/enclavekey"
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/lightclient"
	"github.com/datachainlab/lcp-enclave-go/pkg/router"
	"github.com/datachainlab/lcp-enclave-go/pkg/store"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// Service wraps a Router with the enclave key and store backend a host
// binds once at startup, exposing one method per Msg/Query RPC.
type Service struct {
	router  *router.Router
	ek      *enclavekey.Manager
	backend store.Backend
	logger  *log.Logger
}

// New builds a Service. logger may be nil for a component-prefixed default.
func New(rtr *router.Router, ek *enclavekey.Manager, backend store.Backend, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[Service] ", log.LstdFlags)
	}
	return &Service{router: rtr, ek: ek, backend: backend, logger: logger}
}

// CreateClient mints a new light client from an initial (client_state,
// consensus_state) pair and returns its signed UpdateState commitment.
func (s *Service) CreateClient(ctx context.Context, host lightclient.HostContext, clientType string, clientState, consensusState types.Any) (*router.LightClientResult, error) {
	cmd := router.Command{LightClient: &router.LightClientCommand{
		Op:             router.OpCreateClient,
		ClientType:     clientType,
		ClientState:    clientState,
		ConsensusState: consensusState,
		Host:           host,
	}}
	res, err := s.router.Dispatch(ctx, s.ek, s.backend, cmd, nil)
	if err != nil {
		return nil, err
	}
	return res.LightClient, nil
}

// UpdateClient applies header to an existing client and returns its signed
// UpdateState commitment.
func (s *Service) UpdateClient(ctx context.Context, host lightclient.HostContext, clientType string, clientID types.ClientId, header types.Any) (*router.LightClientResult, error) {
	cmd := router.Command{LightClient: &router.LightClientCommand{
		Op:         router.OpUpdateClient,
		ClientType: clientType,
		ClientID:   clientID,
		Header:     header,
		Host:       host,
	}}
	res, err := s.router.Dispatch(ctx, s.ek, s.backend, cmd, nil)
	if err != nil {
		return nil, err
	}
	return res.LightClient, nil
}

// UpdateClientStream finishes accumulating a streamed UpdateClient request
// and dispatches it as a single UpdateClient call.
func (s *Service) UpdateClientStream(ctx context.Context, host lightclient.HostContext, clientType string, acc *UpdateClientAccumulator) (*router.LightClientResult, error) {
	clientID, header, err := acc.Finish()
	if err != nil {
		return nil, err
	}
	return s.UpdateClient(ctx, host, clientType, clientID, header)
}

// VerifyMembership checks a membership proof of value at path under prefix
// against the client's state at height.
func (s *Service) VerifyMembership(ctx context.Context, host lightclient.HostContext, clientType string, clientID types.ClientId, height types.Height, prefix []byte, path string, value types.StateID) (*router.LightClientResult, error) {
	cmd := router.Command{LightClient: &router.LightClientCommand{
		Op:         router.OpVerifyMembership,
		ClientType: clientType,
		ClientID:   clientID,
		Height:     height,
		Prefix:     prefix,
		Path:       path,
		Value:      value,
		Host:       host,
	}}
	res, err := s.router.Dispatch(ctx, s.ek, s.backend, cmd, nil)
	if err != nil {
		return nil, err
	}
	return res.LightClient, nil
}

// VerifyNonMembership checks a non-membership proof of path under prefix
// against the client's state at height.
func (s *Service) VerifyNonMembership(ctx context.Context, host lightclient.HostContext, clientType string, clientID types.ClientId, height types.Height, prefix []byte, path string) (*router.LightClientResult, error) {
	cmd := router.Command{LightClient: &router.LightClientCommand{
		Op:         router.OpVerifyNonMembership,
		ClientType: clientType,
		ClientID:   clientID,
		Height:     height,
		Prefix:     prefix,
		Path:       path,
		Host:       host,
	}}
	res, err := s.router.Dispatch(ctx, s.ek, s.backend, cmd, nil)
	if err != nil {
		return nil, err
	}
	return res.LightClient, nil
}

// AggregateMessages combines a chain of previously enclave-signed
// UpdateState commitments into a single equivalent commitment, re-signed
// by this enclave's key. Every input proof must recover to this enclave's
// own address: aggregation composes an enclave's own prior attestations,
// not third-party ones, per original_source's update_client::aggregate
// being called only on a single enclave's own message chain.
func (s *Service) AggregateMessages(proofs []*commitment.CommitmentProof) (*commitment.CommitmentProof, error) {
	if len(proofs) == 0 {
		return nil, lcperrors.New(lcperrors.KindMessageAggregationFailed, "cannot aggregate empty messages")
	}
	selfAddr, err := s.ek.Address()
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInputValidation, "read enclave address")
	}

	msgs := make([]*commitment.UpdateStateMessage, 0, len(proofs))
	for i, p := range proofs {
		decoded, err := p.Verify()
		if err != nil {
			return nil, lcperrors.Wrapf(err, lcperrors.KindMessageAggregationFailed, "verify message %d", i)
		}
		if p.Signer != selfAddr {
			return nil, lcperrors.Newf(lcperrors.KindMessageAggregationFailed, "message %d signer %s is not this enclave's address %s", i, p.Signer.Hex(), selfAddr.Hex())
		}
		um, ok := decoded.(*commitment.UpdateStateMessage)
		if !ok {
			return nil, lcperrors.Newf(lcperrors.KindMessageAggregationFailed, "message %d is not an UpdateState message", i)
		}
		msgs = append(msgs, um)
	}

	agg, err := commitment.AggregateMessages(msgs)
	if err != nil {
		return nil, err
	}
	return commitment.SignMessage(agg, s.ek.Sign, selfAddr)
}

// Client answers the Query.Client RPC: the client's current client state
// and frozen status, read from the latest commit without staging any
// writes.
func (s *Service) Client(ctx context.Context, clientID types.ClientId) (*router.QueryClientResult, error) {
	return s.router.QueryClient(ctx, s.ek, s.backend, clientID)
}
