// Copyright 2025 The lcp-enclave-go Authors
//
// Package router implements the enclave's single entry point: routing a
// typed command either to enclave management (key init, attestation,
// neither of which touches the store) or to the light-client dispatcher
// under the atomicity contract that exactly one of commit or rollback
// happens per command.
package router

import (
	"github.com/datachainlab/lcp-enclave-go/pkg/commitment"
	"github.com/datachainlab/lcp-enclave-go/pkg/lightclient"
	"github.com/datachainlab/lcp-enclave-go/pkg/store"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// EnclaveManageOp identifies which enclave management operation a command
// requests. These never touch the store.
type EnclaveManageOp string

const (
	OpInitKey               EnclaveManageOp = "init_key"
	OpShowAVR                EnclaveManageOp = "show_avr"
	OpIASRemoteAttestation  EnclaveManageOp = "ias_remote_attestation"
	OpDCAPRemoteAttestation EnclaveManageOp = "dcap_remote_attestation"
	OpZKDCAPRemoteAttestation EnclaveManageOp = "zkdcap_remote_attestation"
)

// EnclaveManageCommand carries an enclave-management request.
type EnclaveManageCommand struct {
	Op    EnclaveManageOp
	Force bool
}

// EnclaveManageResult carries an enclave-management response.
type EnclaveManageResult struct {
	Address types.Address
	AVR     []byte
}

// LightClientOp identifies which light-client operation a command
// requests. These always require ek and a loaded store.
type LightClientOp string

const (
	OpCreateClient          LightClientOp = "create_client"
	OpUpdateClient          LightClientOp = "update_client"
	OpVerifyMembership      LightClientOp = "verify_membership"
	OpVerifyNonMembership   LightClientOp = "verify_non_membership"
)

// LightClientCommand carries a light-client request. Only the fields
// relevant to Op need be set.
type LightClientCommand struct {
	Op             LightClientOp
	ClientType     string
	ClientID       types.ClientId
	ClientState    types.Any
	ConsensusState types.Any
	Header         types.Any
	Height         types.Height
	Prefix         []byte
	Path           string
	Value          types.StateID
	Host           lightclient.HostContext
}

// Command is exactly one of EnclaveManage or LightClient.
type Command struct {
	EnclaveManage *EnclaveManageCommand
	LightClient   *LightClientCommand
}

// LightClientResult is the light-client half of a CommandResult: the
// produced ProxyMessage, its signed CommitmentProof, and the store commit
// it was signed against.
type LightClientResult struct {
	ClientID types.ClientId
	Message  commitment.ProxyMessage
	Proof    *commitment.CommitmentProof
	Commit   *store.CommitResult
}

// CommandResult is exactly one of EnclaveManage or LightClient, mirroring
// the Command it answers.
type CommandResult struct {
	EnclaveManage *EnclaveManageResult
	LightClient   *LightClientResult
}
