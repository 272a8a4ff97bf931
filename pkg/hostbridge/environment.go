// Copyright 2025 The lcp-enclave-go Authors

// Package hostbridge implements the enclave boundary a host process talks
// across: a process-wide Environment set exactly once at startup, a
// deterministic binary codec for commands crossing that boundary, and the
// two one-way print hooks the enclave uses to surface log lines to the
// host.
package hostbridge

import (
	"sync"

	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
)

// Environment is the host-supplied configuration an enclave session reads
// for the lifetime of the process: where sealed state lives and where
// attestation endpoints are reachable. It is read-only once set.
type Environment struct {
	Home           string
	IASEndpoint    string
	PCCSURL        string
	CertsServiceURL string
}

var (
	mu      sync.Mutex
	current *Environment
)

// SetEnvironment installs env as the process-wide Environment. It may be
// called exactly once; every subsequent call fails with a KindHostBoundary
// error regardless of whether env is equal to the one already installed. The host boundary is write-once, read-many.
func SetEnvironment(env Environment) error {
	mu.Lock()
	defer mu.Unlock()
	if current != nil {
		return lcperrors.New(lcperrors.KindHostBoundary, "host environment is already set")
	}
	current = &env
	return nil
}

// CurrentEnvironment returns the installed Environment. It fails with
// KindHostBoundary if SetEnvironment has not yet run.
func CurrentEnvironment() (Environment, error) {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return Environment{}, lcperrors.New(lcperrors.KindHostBoundary, "host environment is not set")
	}
	return *current, nil
}

// resetEnvironmentForTest clears the process-wide Environment. It exists
// only so tests can exercise SetEnvironment's write-once behavior without
// leaking state across test cases.
func resetEnvironmentForTest() {
	mu.Lock()
	defer mu.Unlock()
	current = nil
}
