// Copyright 2025 The lcp-enclave-go Authors

package store

import "errors"

// Sentinel errors for store lifecycle operations.
var (
	// ErrPubkeyMismatch is returned by LoadState when the snapshot was
	// previously bound to a different enclave public key.
	ErrPubkeyMismatch = errors.New("store snapshot is bound to a different enclave public key")

	// ErrNoStagedWrites is not returned by any Store method: Rollback has
	// no return value, and rolling back an empty write set is a no-op.
	ErrNoStagedWrites = errors.New("no staged writes to roll back")
)
