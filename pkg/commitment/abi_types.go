// Copyright 2025 The lcp-enclave-go Authors
//
// Shared Ethereum-ABI type plumbing for the commitment message codec (C1).
// Types are built once with abi.NewType and cached at package init, the way
// abigen-generated bindings cache a parsed MetaData.ABI rather than
// re-parsing a JSON schema on every call.
package commitment

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// heightComponents describes the (uint64, uint64) revision-number /
// revision-height tuple shared by every height field in the wire format.
var heightComponents = []abi.ArgumentMarshaling{
	{Name: "revisionNumber", Type: "uint64"},
	{Name: "revisionHeight", Type: "uint64"},
}

func mustType(t, internalType string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, internalType, components)
	if err != nil {
		panic("commitment: invalid abi type " + t + ": " + err.Error())
	}
	return typ
}

var (
	heightType  = mustType("tuple", "", heightComponents)
	bytes32Type = mustType("bytes32", "", nil)
	bytesType   = mustType("bytes", "", nil)
	stringType  = mustType("string", "", nil)
	uint128Type = mustType("uint128", "", nil)
	addressType = mustType("address", "", nil)

	emittedStateType = mustType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "height", Type: "tuple", Components: heightComponents},
		{Name: "stateId", Type: "bytes"},
	})

	prevStateType = mustType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "height", Type: "tuple", Components: heightComponents},
		{Name: "stateId", Type: "bytes32"},
	})
)

// envelopeArgs is the outer (bytes32 header, bytes body) wrapper every
// ProxyMessage is encoded as.
var envelopeArgs = abi.Arguments{
	{Name: "header", Type: bytes32Type},
	{Name: "body", Type: bytesType},
}

// updateStateArgs is the UpdateState body tuple, field order exactly as
// declared: prev_height, prev_state_id, post_height, post_state_id,
// timestamp_nanos, context, emitted_states.
var updateStateArgs = abi.Arguments{
	{Name: "prevHeight", Type: heightType},
	{Name: "prevStateId", Type: bytes32Type},
	{Name: "postHeight", Type: heightType},
	{Name: "postStateId", Type: bytes32Type},
	{Name: "timestampNanos", Type: uint128Type},
	{Name: "context", Type: bytesType},
	{Name: "emittedStates", Type: emittedStateType},
}

// verifyMembershipArgs is the VerifyMembership body tuple.
var verifyMembershipArgs = abi.Arguments{
	{Name: "prefix", Type: bytesType},
	{Name: "path", Type: stringType},
	{Name: "value", Type: bytes32Type},
	{Name: "height", Type: heightType},
	{Name: "stateId", Type: bytes32Type},
}

// misbehaviourArgs is the Misbehaviour body tuple.
var misbehaviourArgs = abi.Arguments{
	{Name: "clientId", Type: stringType},
	{Name: "prevStates", Type: prevStateType},
	{Name: "context", Type: bytesType},
}

// trustingPeriodArgs is the ABI payload of a TrustingPeriod ValidationContext.
var trustingPeriodArgs = abi.Arguments{
	{Name: "trustingPeriodNanos", Type: mustType("uint64", "", nil)},
	{Name: "clockDriftNanos", Type: mustType("uint64", "", nil)},
	{Name: "untrustedHeaderTimestamp", Type: uint128Type},
	{Name: "trustedStateTimestamp", Type: uint128Type},
}

// commitmentProofArgs encodes a CommitmentProof as (bytes, address, bytes).
var commitmentProofArgs = abi.Arguments{
	{Name: "message", Type: bytesType},
	{Name: "signer", Type: addressType},
	{Name: "signature", Type: bytesType},
}

// abiHeight mirrors heightComponents field-for-field so abi.ConvertType can
// reflect.Convert the auto-generated anonymous tuple struct into it.
type abiHeight struct {
	RevisionNumber uint64
	RevisionHeight uint64
}

type abiEmittedState struct {
	Height  abiHeight
	StateId []byte
}

type abiPrevState struct {
	Height  abiHeight
	StateId [32]byte
}
