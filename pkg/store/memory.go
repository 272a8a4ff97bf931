// Copyright 2025 The lcp-enclave-go Authors

package store

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

// MemoryBackend is an in-process Backend used by tests and the
// Development attestation mode, where durability across restarts is not
// required.
type MemoryBackend struct {
	mu       sync.Mutex
	data     map[string][]byte
	pubkey   []byte
	sequence uint64
}

// NewMemoryBackend returns an empty, unbound MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (b *MemoryBackend) Root(_ context.Context) ([32]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return computeRoot(b.data), nil
}

func (b *MemoryBackend) ApplyWriteSet(_ context.Context, puts map[string][]byte, deletes []string) ([32]byte, uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range deletes {
		delete(b.data, k)
	}
	for k, v := range puts {
		cp := make([]byte, len(v))
		copy(cp, v)
		b.data[k] = cp
	}
	b.sequence++
	return computeRoot(b.data), b.sequence, nil
}

func (b *MemoryBackend) BoundPubkey(_ context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubkey == nil {
		return nil, nil
	}
	out := make([]byte, len(b.pubkey))
	copy(out, b.pubkey)
	return out, nil
}

func (b *MemoryBackend) BindPubkey(_ context.Context, pubkey []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pubkey = append([]byte(nil), pubkey...)
	return nil
}

// computeRoot hashes the sorted key/value pairs so that the result is
// independent of map iteration order.
func computeRoot(data map[string][]byte) [32]byte {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteByte(0)
		buf.Write(data[k])
		buf.WriteByte(0)
	}
	return [32]byte(crypto.Keccak256Hash(buf.Bytes()))
}
