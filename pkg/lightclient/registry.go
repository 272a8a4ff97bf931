// Copyright 2025 The lcp-enclave-go Authors

package lightclient

import (
	"sync"

	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
)

// Registry maps a client-type string to the LightClient capability that
// handles it, populated once at process init.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]LightClient
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]LightClient)}
}

// Register binds clientType to handler. Re-registering an existing type
// overwrites the previous handler, mirroring a registry populated
// top-to-bottom at init with no duplicate-detection requirement.
func (r *Registry) Register(clientType string, handler LightClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[clientType] = handler
}

// Get looks up the handler for clientType.
func (r *Registry) Get(clientType string) (LightClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[clientType]
	if !ok {
		return nil, lcperrors.Newf(lcperrors.KindInputValidation, "no light client registered for type %q", clientType)
	}
	return h, nil
}
