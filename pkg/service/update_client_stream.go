// Copyright 2025 The lcp-enclave-go Authors

package service

import (
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// UpdateClientChunk is one chunk of a streamed UpdateClient request.
// ClientID and IncludeState are read from the first chunk only and ignored
// on later ones; a chunk carries no signer field. Every chunk
// must carry a non-empty Header, whose Value is concatenated across
// chunks to rebuild the full header bytes.
type UpdateClientChunk struct {
	ClientID     types.ClientId
	Header       *types.Any
	IncludeState bool
}

// UpdateClientAccumulator rebuilds a single UpdateClient request from a
// stream of chunks. Any chunk, including ones after the first, that omits
// Header fails input validation rather than being silently tolerated.
type UpdateClientAccumulator struct {
	clientID     types.ClientId
	typeURL      string
	value        []byte
	includeState bool
	chunks       int
}

// NewUpdateClientAccumulator returns an empty accumulator.
func NewUpdateClientAccumulator() *UpdateClientAccumulator {
	return &UpdateClientAccumulator{}
}

// Add folds chunk into the accumulator. It must be called once per chunk,
// in stream order.
func (a *UpdateClientAccumulator) Add(chunk UpdateClientChunk) error {
	if chunk.Header == nil || len(chunk.Header.Value) == 0 {
		return lcperrors.Newf(lcperrors.KindInputValidation, "chunk %d must carry a non-empty header", a.chunks)
	}
	if a.chunks == 0 {
		a.clientID = chunk.ClientID
		a.includeState = chunk.IncludeState
		a.typeURL = chunk.Header.TypeURL
		a.value = append([]byte{}, chunk.Header.Value...)
	} else {
		if chunk.Header.TypeURL != "" && chunk.Header.TypeURL != a.typeURL {
			return lcperrors.Newf(lcperrors.KindInputValidation, "chunk %d header type_url %q does not match initial %q", a.chunks, chunk.Header.TypeURL, a.typeURL)
		}
		a.value = append(a.value, chunk.Header.Value...)
	}
	a.chunks++
	return nil
}

// Finish returns the reassembled (client_id, header) pair. An empty
// stream fails input validation.
func (a *UpdateClientAccumulator) Finish() (types.ClientId, types.Any, error) {
	if a.chunks == 0 {
		return "", types.Any{}, lcperrors.New(lcperrors.KindInputValidation, "update client stream carried no chunks")
	}
	return a.clientID, types.Any{TypeURL: a.typeURL, Value: a.value}, nil
}
