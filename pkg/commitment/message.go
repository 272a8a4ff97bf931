// Copyright 2025 The lcp-enclave-go Authors

package commitment

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// ProxyMessage is any of the three body variants an enclave can emit:
// UpdateStateMessage, VerifyMembershipMessage, or MisbehaviourMessage.
// The interface exists only to let callers hold one of the three without a
// type switch at every call site; encoding always goes through the
// package-level Encode, which calls the concrete type's encodeBody.
type ProxyMessage interface {
	messageType() MessageType
	encodeBody() ([]byte, error)
}

// EmittedState is a (height, state digest) pair an UpdateState message
// attests was produced along the way from PrevHeight to PostHeight.
type EmittedState struct {
	Height  types.Height
	StateID types.StateID
}

// UpdateStateMessage attests that applying a light-client header advances
// a client from (PrevHeight, PrevStateID) to (PostHeight, PostStateID).
// PrevHeight and PrevStateID are the zero value when this is the client's
// first state.
type UpdateStateMessage struct {
	ClientID       types.ClientId
	PrevHeight     types.Height
	PrevStateID    types.StateID
	PostHeight     types.Height
	PostStateID    types.StateID
	TimestampNanos types.Time
	Context        ValidationContext
	EmittedStates  []EmittedState
}

func (m *UpdateStateMessage) messageType() MessageType { return MessageTypeUpdateState }

func (m *UpdateStateMessage) encodeBody() ([]byte, error) {
	ctxBytes, err := EncodeContext(m.Context)
	if err != nil {
		return nil, err
	}
	emitted := make([]abiEmittedState, len(m.EmittedStates))
	for i, es := range m.EmittedStates {
		emitted[i] = abiEmittedState{
			Height: abiHeight{
				RevisionNumber: es.Height.RevisionNumber,
				RevisionHeight: es.Height.RevisionHeight,
			},
			StateId: es.StateID.Bytes(),
		}
	}
	body, err := updateStateArgs.Pack(
		abiHeight{RevisionNumber: m.PrevHeight.RevisionNumber, RevisionHeight: m.PrevHeight.RevisionHeight},
		m.PrevStateID,
		abiHeight{RevisionNumber: m.PostHeight.RevisionNumber, RevisionHeight: m.PostHeight.RevisionHeight},
		m.PostStateID,
		new(big.Int).SetUint64(uint64(m.TimestampNanos)),
		ctxBytes,
		emitted,
	)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "pack update state body")
	}
	return body, nil
}

func decodeUpdateStateBody(body []byte) (*UpdateStateMessage, error) {
	unpacked, err := updateStateArgs.Unpack(body)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "unpack update state body")
	}
	prevHeight := *abi.ConvertType(unpacked[0], new(abiHeight)).(*abiHeight)
	prevStateID := *abi.ConvertType(unpacked[1], new([32]byte)).(*[32]byte)
	postHeight := *abi.ConvertType(unpacked[2], new(abiHeight)).(*abiHeight)
	postStateID := *abi.ConvertType(unpacked[3], new([32]byte)).(*[32]byte)
	timestampNanos := *abi.ConvertType(unpacked[4], new(*big.Int)).(**big.Int)
	ctxBytes := *abi.ConvertType(unpacked[5], new([]byte)).(*[]byte)
	emittedRaw := *abi.ConvertType(unpacked[6], new([]abiEmittedState)).(*[]abiEmittedState)

	ctx, err := DecodeContext(ctxBytes)
	if err != nil {
		return nil, err
	}

	emitted := make([]EmittedState, len(emittedRaw))
	for i, es := range emittedRaw {
		stateID, err := types.StateIDFromBytes(es.StateId)
		if err != nil {
			return nil, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "decode emitted state id")
		}
		emitted[i] = EmittedState{
			Height:  types.Height{RevisionNumber: es.Height.RevisionNumber, RevisionHeight: es.Height.RevisionHeight},
			StateID: stateID,
		}
	}

	return &UpdateStateMessage{
		PrevHeight:     types.Height{RevisionNumber: prevHeight.RevisionNumber, RevisionHeight: prevHeight.RevisionHeight},
		PrevStateID:    types.StateID(prevStateID),
		PostHeight:     types.Height{RevisionNumber: postHeight.RevisionNumber, RevisionHeight: postHeight.RevisionHeight},
		PostStateID:    types.StateID(postStateID),
		TimestampNanos: types.Time(timestampNanos.Uint64()),
		Context:        ctx,
		EmittedStates:  emitted,
	}, nil
}

// VerifyMembershipMessage attests that a key/value pair was present (or, for
// non-membership, absent with Value the zero digest) in the state committed
// to at Height.
type VerifyMembershipMessage struct {
	Prefix  []byte
	Path    string
	Value   types.StateID
	Height  types.Height
	StateID types.StateID
}

func (m *VerifyMembershipMessage) messageType() MessageType { return MessageTypeState }

func (m *VerifyMembershipMessage) encodeBody() ([]byte, error) {
	body, err := verifyMembershipArgs.Pack(
		m.Prefix,
		m.Path,
		m.Value,
		abiHeight{RevisionNumber: m.Height.RevisionNumber, RevisionHeight: m.Height.RevisionHeight},
		m.StateID,
	)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "pack verify membership body")
	}
	return body, nil
}

func decodeVerifyMembershipBody(body []byte) (*VerifyMembershipMessage, error) {
	unpacked, err := verifyMembershipArgs.Unpack(body)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "unpack verify membership body")
	}
	prefix := *abi.ConvertType(unpacked[0], new([]byte)).(*[]byte)
	path := *abi.ConvertType(unpacked[1], new(string)).(*string)
	value := *abi.ConvertType(unpacked[2], new([32]byte)).(*[32]byte)
	height := *abi.ConvertType(unpacked[3], new(abiHeight)).(*abiHeight)
	stateID := *abi.ConvertType(unpacked[4], new([32]byte)).(*[32]byte)

	return &VerifyMembershipMessage{
		Prefix:  prefix,
		Path:    path,
		Value:   types.StateID(value),
		Height:  types.Height{RevisionNumber: height.RevisionNumber, RevisionHeight: height.RevisionHeight},
		StateID: types.StateID(stateID),
	}, nil
}

// PrevState is one (height, state digest) entry in a Misbehaviour message's
// prev_states list: the set of states the conflicting headers were each
// individually valid against before they diverged.
type PrevState struct {
	Height  types.Height
	StateID types.StateID
}

// MisbehaviourMessage attests that two headers, both purportedly valid
// updates for ClientID, are mutually inconsistent, and so the client must
// be frozen.
type MisbehaviourMessage struct {
	ClientID   types.ClientId
	PrevStates []PrevState
	Context    ValidationContext
}

func (m *MisbehaviourMessage) messageType() MessageType { return MessageTypeMisbehaviour }

func (m *MisbehaviourMessage) encodeBody() ([]byte, error) {
	ctxBytes, err := EncodeContext(m.Context)
	if err != nil {
		return nil, err
	}
	prevStates := make([]abiPrevState, len(m.PrevStates))
	for i, ps := range m.PrevStates {
		prevStates[i] = abiPrevState{
			Height:  abiHeight{RevisionNumber: ps.Height.RevisionNumber, RevisionHeight: ps.Height.RevisionHeight},
			StateId: ps.StateID,
		}
	}
	body, err := misbehaviourArgs.Pack(string(m.ClientID), prevStates, ctxBytes)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "pack misbehaviour body")
	}
	return body, nil
}

func decodeMisbehaviourBody(body []byte) (*MisbehaviourMessage, error) {
	unpacked, err := misbehaviourArgs.Unpack(body)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "unpack misbehaviour body")
	}
	clientID := *abi.ConvertType(unpacked[0], new(string)).(*string)
	prevStatesRaw := *abi.ConvertType(unpacked[1], new([]abiPrevState)).(*[]abiPrevState)
	ctxBytes := *abi.ConvertType(unpacked[2], new([]byte)).(*[]byte)

	ctx, err := DecodeContext(ctxBytes)
	if err != nil {
		return nil, err
	}

	prevStates := make([]PrevState, len(prevStatesRaw))
	for i, ps := range prevStatesRaw {
		prevStates[i] = PrevState{
			Height:  types.Height{RevisionNumber: ps.Height.RevisionNumber, RevisionHeight: ps.Height.RevisionHeight},
			StateID: types.StateID(ps.StateId),
		}
	}

	return &MisbehaviourMessage{
		ClientID:   types.ClientId(clientID),
		PrevStates: prevStates,
		Context:    ctx,
	}, nil
}

// Encode wraps msg's ABI-encoded body in the versioned envelope: a 32-byte
// header carrying schema version and message type, then the body, both
// packed through the (bytes32, bytes) envelope tuple.
func Encode(msg ProxyMessage) ([]byte, error) {
	body, err := msg.encodeBody()
	if err != nil {
		return nil, err
	}
	h := newHeader(msg.messageType())
	return envelopeArgs.Pack(([32]byte)(h), body)
}

// Decode parses an envelope produced by Encode and dispatches on its
// message type tag to recover the concrete ProxyMessage.
func Decode(data []byte) (ProxyMessage, error) {
	unpacked, err := envelopeArgs.Unpack(data)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "unpack message envelope")
	}
	headerBytes := *abi.ConvertType(unpacked[0], new([32]byte)).(*[32]byte)
	body := *abi.ConvertType(unpacked[1], new([]byte)).(*[]byte)

	h := header(headerBytes)
	if err := h.validate(); err != nil {
		return nil, err
	}

	switch h.messageType() {
	case MessageTypeUpdateState:
		return decodeUpdateStateBody(body)
	case MessageTypeState:
		return decodeVerifyMembershipBody(body)
	case MessageTypeMisbehaviour:
		return decodeMisbehaviourBody(body)
	default:
		return nil, lcperrors.Newf(lcperrors.KindUnexpectedMessageType, "unknown message type tag %d", h.messageType())
	}
}
