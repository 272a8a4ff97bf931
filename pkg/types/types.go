// Copyright 2025 The lcp-enclave-go Authors
//
// Package types holds the data model shared across the enclave core:
// addresses, opaque state digests, IBC-style heights, and the polymorphic
// Any envelope used to carry client/consensus/header objects.
package types

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MaxUnixTimestampNanos bounds every Time value carried in a ProxyMessage.
// Chosen to keep nanosecond timestamps representable in a u128 ABI slot
// without overflowing int64 math used for comparisons.
const MaxUnixTimestampNanos uint64 = 1<<63 - 1

// Address is a 20-byte identifier of an enclave key or operator.
type Address = common.Address

// StateID is a 32-byte opaque digest binding a (client state, consensus
// state) pair. Identical inputs must yield an identical StateID across
// every honest enclave, so StateID is always derived with Keccak256, never
// with a non-deterministic source.
type StateID [32]byte

// IsZero reports whether the StateID is the all-zero sentinel.
func (s StateID) IsZero() bool {
	return s == StateID{}
}

func (s StateID) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// Bytes returns the StateID as a byte slice.
func (s StateID) Bytes() []byte {
	return s[:]
}

// StateIDFromBytes builds a StateID from a 32-byte slice.
func StateIDFromBytes(b []byte) (StateID, error) {
	var s StateID
	if len(b) != 32 {
		return s, fmt.Errorf("state id must be 32 bytes, got %d", len(b))
	}
	copy(s[:], b)
	return s, nil
}

// Height is an IBC-style (revision_number, revision_height) pair with total
// lexicographic ordering.
type Height struct {
	RevisionNumber uint64
	RevisionHeight uint64
}

// IsZero reports whether this is the zero height, used as the sentinel for
// "no previous height" in the wire codec.
func (h Height) IsZero() bool {
	return h.RevisionNumber == 0 && h.RevisionHeight == 0
}

// GT reports whether h is strictly greater than other under lexicographic
// ordering on (revision_number, revision_height).
func (h Height) GT(other Height) bool {
	if h.RevisionNumber != other.RevisionNumber {
		return h.RevisionNumber > other.RevisionNumber
	}
	return h.RevisionHeight > other.RevisionHeight
}

// EQ reports whether h equals other.
func (h Height) EQ(other Height) bool {
	return h.RevisionNumber == other.RevisionNumber && h.RevisionHeight == other.RevisionHeight
}

func (h Height) String() string {
	return fmt.Sprintf("%d-%d", h.RevisionNumber, h.RevisionHeight)
}

// Time is unsigned nanoseconds since the Unix epoch, bounded by
// MaxUnixTimestampNanos.
type Time uint64

// Valid reports whether t lies within the representable range.
func (t Time) Valid() bool {
	return uint64(t) <= MaxUnixTimestampNanos
}

// ClientId is a light-client instance identifier, derived deterministically
// from its initial (client_state, consensus_state) pair so that independent
// honest enclaves agree on it without coordination.
type ClientId string

// Any is the polymorphic envelope carrying a client state, consensus state,
// or header object whose concrete type is identified by TypeURL.
type Any struct {
	TypeURL string
	Value   []byte
}
