// Copyright 2025 The lcp-enclave-go Authors

package enclavekey

import "errors"

// Sentinel errors for enclave key lifecycle operations.
var (
	// ErrAlreadyInitialized is returned by Init when a sealed key already
	// exists and force was not requested.
	ErrAlreadyInitialized = errors.New("enclave key already initialized")

	// ErrNotInitialized is returned by Sign/Address/PublicKey before Init or
	// Unseal has loaded a key into the manager.
	ErrNotInitialized = errors.New("enclave key not initialized")
)
