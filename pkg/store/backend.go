// Copyright 2025 The lcp-enclave-go Authors
//
// Package store implements the enclave's transactional key-value store:
// staged writes that only become visible on an atomic commit that also
// produces a state root digest for the enclave key to sign.
package store

import "context"

// Backend is the durable half of the store: everything that must persist
// across process restarts. Both the in-memory backend (tests, Development
// attestation mode) and the lib/pq-backed backend satisfy it, mirroring the
// teacher's thin Client-plus-Tx split.
type Backend interface {
	// Get reads a committed value. found is false if key has never been
	// written or was most recently deleted.
	Get(ctx context.Context, key []byte) (value []byte, found bool, err error)

	// Root returns a digest of the current committed contents. Root must
	// be deterministic in the key/value pairs alone, independent of
	// write order, so two enclaves that converge on the same contents
	// compute the same root.
	Root(ctx context.Context) ([32]byte, error)

	// ApplyWriteSet durably and atomically applies puts and deletes,
	// computes the resulting root, and increments the monotonic sequence
	// counter, all as one transaction. postRoot and sequence always
	// describe the exact state the write set produced: a backend must
	// never apply the write set and then fail to report its root or
	// sequence, since that would durably commit state the caller never
	// received a CommitResult for. It must not partially apply: a crash
	// or error midway must leave the backend exactly as it was before
	// the call.
	ApplyWriteSet(ctx context.Context, puts map[string][]byte, deletes []string) (postRoot [32]byte, sequence uint64, err error)

	// BoundPubkey returns the enclave public key this snapshot was bound
	// to at its first commit, or nil if the snapshot has never been
	// committed by any enclave.
	BoundPubkey(ctx context.Context) ([]byte, error)

	// BindPubkey records the enclave public key a fresh (never-committed)
	// snapshot is now bound to.
	BindPubkey(ctx context.Context, pubkey []byte) error
}
