// Copyright 2025 The lcp-enclave-go Authors

package hostbridge

import (
	"encoding/binary"

	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
)

// CommandSchemaVersion is the only header version this codec accepts on
// decode.
const CommandSchemaVersion uint16 = 1

// CommandKind tags which payload a BoundaryCommand carries.
type CommandKind uint16

const (
	CommandKindEnclaveManage CommandKind = 1
	CommandKindLightClient   CommandKind = 2
)

func (k CommandKind) String() string {
	switch k {
	case CommandKindEnclaveManage:
		return "EnclaveManage"
	case CommandKindLightClient:
		return "LightClient"
	default:
		return "Unknown"
	}
}

// BoundaryCommand is a command as it crosses the enclave boundary: a kind
// tag plus an opaque, already-serialized payload. pkg/router decodes the
// payload once the kind is known.
type BoundaryCommand struct {
	Kind    CommandKind
	Payload []byte
}

// Encode serializes cmd as [32-byte header][4-byte payload length][payload].
// The header mirrors pkg/commitment's message envelope: [0:2) schema
// version, [2:4) kind tag, [4:32) reserved, so that both the in-enclave
// message codec and this cross-boundary codec read the same way under a
// hex dump.
func Encode(cmd BoundaryCommand) []byte {
	out := make([]byte, 32+4+len(cmd.Payload))
	binary.BigEndian.PutUint16(out[0:2], CommandSchemaVersion)
	binary.BigEndian.PutUint16(out[2:4], uint16(cmd.Kind))
	binary.BigEndian.PutUint32(out[32:36], uint32(len(cmd.Payload)))
	copy(out[36:], cmd.Payload)
	return out
}

// Decode parses the wire form Encode produces.
func Decode(data []byte) (BoundaryCommand, error) {
	if len(data) < 36 {
		return BoundaryCommand{}, lcperrors.Newf(lcperrors.KindHostBoundary, "boundary command too short: %d bytes", len(data))
	}
	version := binary.BigEndian.Uint16(data[0:2])
	if version != CommandSchemaVersion {
		return BoundaryCommand{}, lcperrors.Newf(lcperrors.KindHostBoundary, "unsupported boundary command schema version %d, want %d", version, CommandSchemaVersion)
	}
	kind := CommandKind(binary.BigEndian.Uint16(data[2:4]))
	length := binary.BigEndian.Uint32(data[32:36])
	if uint32(len(data)-36) != length {
		return BoundaryCommand{}, lcperrors.Newf(lcperrors.KindHostBoundary, "boundary command payload length mismatch: header says %d, got %d", length, len(data)-36)
	}
	payload := make([]byte, length)
	copy(payload, data[36:])
	return BoundaryCommand{Kind: kind, Payload: payload}, nil
}
