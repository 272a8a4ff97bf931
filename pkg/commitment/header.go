// Copyright 2025 The lcp-enclave-go Authors

package commitment

import (
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
)

// MessageSchemaVersion is the only header version this codec accepts on
// decode. Bumping it is a breaking wire change.
const MessageSchemaVersion uint16 = 1

// MessageType tags which ProxyMessage variant a body holds.
type MessageType uint16

const (
	MessageTypeUpdateState MessageType = 1

	// MessageTypeState tags VerifyMembership. The name predates a broader
	// meaning that was never implemented; the numeric tag is preserved
	// regardless (see spec's Open Questions).
	MessageTypeState MessageType = 2

	MessageTypeMisbehaviour MessageType = 3
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeUpdateState:
		return "UpdateState"
	case MessageTypeState:
		return "VerifyMembership"
	case MessageTypeMisbehaviour:
		return "Misbehaviour"
	default:
		return "Unknown"
	}
}

// header is the 32-byte envelope header: [0:2) version, [2:4) message type,
// [4:32) reserved.
type header [32]byte

func newHeader(msgType MessageType) header {
	var h header
	h[0] = byte(MessageSchemaVersion >> 8)
	h[1] = byte(MessageSchemaVersion)
	h[2] = byte(msgType >> 8)
	h[3] = byte(msgType)
	return h
}

// version reads the schema version out of the header's first two bytes.
func (h header) version() uint16 {
	return uint16(h[0])<<8 | uint16(h[1])
}

// messageType reads the type tag out of bytes [2:4).
func (h header) messageType() MessageType {
	return MessageType(uint16(h[2])<<8 | uint16(h[3]))
}

// validate checks the header's version. Reserved bytes [4:32) are
// intentionally never inspected here: the wire format allows future
// extension through them, and decoders must ignore them.
func (h header) validate() error {
	if h.version() != MessageSchemaVersion {
		return lcperrors.Newf(lcperrors.KindInvalidMessageHeader,
			"unsupported message schema version %d, want %d", h.version(), MessageSchemaVersion)
	}
	return nil
}
