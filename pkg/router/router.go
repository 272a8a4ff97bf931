// Copyright 2025 The lcp-enclave-go Authors

package router

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/datachainlab/lcp-enclave-go/pkg/commitment"
	"github.com/datachainlab/lcp-enclave-go/pkg/enclavekey"
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/lightclient"
	"github.com/datachainlab/lcp-enclave-go/pkg/store"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// ManageFunc executes an EnclaveManageCommand. It runs without ek or a
// store, since key init and attestation manage the key manager's own
// sealed state directly.
type ManageFunc func(ctx context.Context, cmd EnclaveManageCommand) (*EnclaveManageResult, error)

// Router is the enclave's single entry point. It is the sole locus of the
// atomicity invariant: a light-client command either commits exactly once
// or rolls back exactly once, never both, never neither.
type Router struct {
	registry *lightclient.Registry
	logger   *log.Logger
	metrics  *metrics
}

// New builds a Router over registry. reg may be nil to skip Prometheus
// registration (as in tests); logger may be nil for a component-prefixed
// default.
func New(registry *lightclient.Registry, reg prometheus.Registerer, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.New(log.Writer(), "[Router] ", log.LstdFlags)
	}
	return &Router{
		registry: registry,
		logger:   logger,
		metrics:  newMetrics(reg),
	}
}

// Dispatch routes cmd. EnclaveManage commands run via manage without ek or
// the store. LightClient commands require ek; the router loads the store
// snapshot bound to ek's address, invokes the registered LightClient, and
// commits-and-signs on success or rolls back on any failure.
func (r *Router) Dispatch(ctx context.Context, ek *enclavekey.Manager, backend store.Backend, cmd Command, manage ManageFunc) (*CommandResult, error) {
	requestID := uuid.NewString()
	r.logger.Printf("request=%s dispatching command", requestID)

	if cmd.EnclaveManage != nil {
		res, err := manage(ctx, *cmd.EnclaveManage)
		label := "success"
		if err != nil {
			label = "error"
		}
		r.metrics.commandsTotal.WithLabelValues("enclave_manage", label).Inc()
		if err != nil {
			return nil, err
		}
		return &CommandResult{EnclaveManage: res}, nil
	}

	if cmd.LightClient == nil {
		return nil, lcperrors.New(lcperrors.KindInputValidation, "command must set exactly one of EnclaveManage or LightClient")
	}
	if ek == nil {
		return nil, lcperrors.New(lcperrors.KindInputValidation, "ek must not be nil for a light client command")
	}

	lcCmd := cmd.LightClient

	addr, err := ek.Address()
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInputValidation, "read enclave address")
	}
	st, err := store.LoadState(ctx, backend, addr.Bytes(), r.logger)
	if err != nil {
		r.metrics.commandsTotal.WithLabelValues(string(lcCmd.Op), "error").Inc()
		return nil, lcperrors.Wrap(err, lcperrors.KindStoreError, "load store snapshot")
	}

	msg, clientID, err := r.runLightClient(ctx, st, lcCmd)
	if err != nil {
		st.Rollback()
		r.metrics.rollbacksTotal.Inc()
		r.metrics.commandsTotal.WithLabelValues(string(lcCmd.Op), "error").Inc()
		r.logger.Printf("request=%s command=%s rolled back: %v", requestID, lcCmd.Op, err)
		return nil, lcperrors.Wrapf(err, lcperrors.KindOther, "failed to execute command %s", lcCmd.Op)
	}

	proof, err := commitment.SignMessage(msg, ek.Sign, addr)
	if err != nil {
		st.Rollback()
		r.metrics.rollbacksTotal.Inc()
		r.metrics.commandsTotal.WithLabelValues(string(lcCmd.Op), "error").Inc()
		return nil, lcperrors.Wrapf(err, lcperrors.KindOther, "failed to sign result of command %s", lcCmd.Op)
	}

	commit, err := st.CommitAndSign(ctx, ek.Sign)
	if err != nil {
		// CommitAndSign only leaves a durable write behind if it fails
		// while signing the already-applied write set, in which case
		// its own staged write set is already cleared and this call is
		// a no-op; it's still made unconditionally so every failure path
		// out of Dispatch resolves through exactly one of commit or
		// rollback.
		st.Rollback()
		r.metrics.rollbacksTotal.Inc()
		r.metrics.commandsTotal.WithLabelValues(string(lcCmd.Op), "error").Inc()
		return nil, lcperrors.Wrapf(err, lcperrors.KindStoreError, "commit after command %s", lcCmd.Op)
	}
	r.metrics.commitsTotal.Inc()
	r.metrics.commandsTotal.WithLabelValues(string(lcCmd.Op), "success").Inc()
	r.logger.Printf("request=%s command=%s committed at sequence %d", requestID, lcCmd.Op, commit.Sequence)

	return &CommandResult{
		LightClient: &LightClientResult{
			ClientID: clientID,
			Message:  msg,
			Proof:    proof,
			Commit:   commit,
		},
	}, nil
}

// QueryClientResult answers Query.Client: the client's current state and
// frozen status as of the latest commit.
type QueryClientResult struct {
	ClientState types.Any
	Frozen      bool
}

// QueryClient reads a client's current state from the latest commit
// without staging any writes, mirroring Dispatch's store-loading but
// never calling CommitAndSign or Rollback since nothing is mutated.
func (r *Router) QueryClient(ctx context.Context, ek *enclavekey.Manager, backend store.Backend, clientID types.ClientId) (*QueryClientResult, error) {
	requestID := uuid.NewString()
	r.logger.Printf("request=%s querying client %s", requestID, clientID)

	addr, err := ek.Address()
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInputValidation, "read enclave address")
	}
	st, err := store.LoadState(ctx, backend, addr.Bytes(), r.logger)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindStoreError, "load store snapshot")
	}
	cs := newClientStore(st)

	clientState, err := cs.ClientState(ctx, clientID)
	if err != nil {
		return nil, err
	}
	frozen, err := cs.IsFrozen(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &QueryClientResult{ClientState: clientState, Frozen: frozen}, nil
}

func (r *Router) runLightClient(ctx context.Context, st *store.Store, cmd *LightClientCommand) (commitment.ProxyMessage, types.ClientId, error) {
	cs := newClientStore(st)

	switch cmd.Op {
	case OpCreateClient:
		handler, err := r.registry.Get(cmd.ClientType)
		if err != nil {
			return nil, "", err
		}
		res, err := handler.CreateClient(ctx, cmd.Host, cs, cmd.ClientState, cmd.ConsensusState)
		if err != nil {
			return nil, "", err
		}
		return res.Message, res.ClientID, nil

	case OpUpdateClient:
		handler, err := r.registry.Get(cmd.ClientType)
		if err != nil {
			return nil, "", err
		}
		res, err := handler.UpdateClient(ctx, cmd.Host, cs, cmd.ClientID, cmd.Header)
		if err != nil {
			return nil, "", err
		}
		return res.Message, cmd.ClientID, nil

	case OpVerifyMembership:
		handler, err := r.registry.Get(cmd.ClientType)
		if err != nil {
			return nil, "", err
		}
		res, err := handler.VerifyMembership(ctx, cs, cmd.ClientID, cmd.Height, cmd.Prefix, cmd.Path, cmd.Value)
		if err != nil {
			return nil, "", err
		}
		return res.Message, cmd.ClientID, nil

	case OpVerifyNonMembership:
		handler, err := r.registry.Get(cmd.ClientType)
		if err != nil {
			return nil, "", err
		}
		res, err := handler.VerifyNonMembership(ctx, cs, cmd.ClientID, cmd.Height, cmd.Prefix, cmd.Path)
		if err != nil {
			return nil, "", err
		}
		return res.Message, cmd.ClientID, nil

	default:
		return nil, "", lcperrors.Newf(lcperrors.KindInputValidation, "unknown light client operation %q", cmd.Op)
	}
}
