// Copyright 2025 The lcp-enclave-go Authors

package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"log"
	"sync"

	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
)

// SignFunc produces a signature over a payload, the shape of
// (*enclavekey.Manager).Sign. Store takes it as a function rather than a
// concrete type to avoid a dependency on the key manager package.
type SignFunc func(payload []byte) ([]byte, error)

// CommitResult is the outcome of a successful CommitAndSign: the state
// roots before and after the write set was applied, the new monotonic
// sequence number, and the enclave's signature over all three.
type CommitResult struct {
	PreRoot   [32]byte
	PostRoot  [32]byte
	Sequence  uint64
	Signature []byte
}

// EncodeCommitPayload serializes (pre_root, post_root, monotonic_seq) into
// the exact bytes the enclave key signs, so a verifier can recompute the
// same digest from a CommitResult.
func EncodeCommitPayload(preRoot, postRoot [32]byte, sequence uint64) []byte {
	buf := make([]byte, 32+32+8)
	copy(buf[0:32], preRoot[:])
	copy(buf[32:64], postRoot[:])
	binary.BigEndian.PutUint64(buf[64:72], sequence)
	return buf
}

// Store is a key-value snapshot with staged uncommitted writes. Exactly
// one of CommitAndSign or Rollback must be called to resolve a command's
// staged writes; Router (C6) enforces this at the call site.
type Store struct {
	mu      sync.Mutex
	backend Backend
	logger  *log.Logger

	puts    map[string][]byte
	deletes map[string]struct{}
}

// LoadState opens a snapshot against backend. If pubkey is non-nil and the
// backend already has a bound pubkey, they must match. If the backend has
// never been committed, pubkey (if given) becomes the binding.
func LoadState(ctx context.Context, backend Backend, pubkey []byte, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[Store] ", log.LstdFlags)
	}
	bound, err := backend.BoundPubkey(ctx)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindStoreError, "read bound pubkey")
	}
	switch {
	case bound == nil && pubkey != nil:
		if err := backend.BindPubkey(ctx, pubkey); err != nil {
			return nil, lcperrors.Wrap(err, lcperrors.KindStoreError, "bind pubkey on first load")
		}
	case bound != nil && pubkey != nil && !bytes.Equal(bound, pubkey):
		return nil, lcperrors.Wrap(ErrPubkeyMismatch, lcperrors.KindStoreError, "load_state pubkey check")
	}

	return &Store{
		backend: backend,
		logger:  logger,
		puts:    make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}, nil
}

// Get reads a value, preferring a staged write over the committed backend
// so a command sees its own uncommitted mutations.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := string(key)
	if _, deleted := s.deletes[k]; deleted {
		return nil, false, nil
	}
	if v, staged := s.puts[k]; staged {
		return v, true, nil
	}
	v, found, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, false, lcperrors.Wrap(err, lcperrors.KindStoreError, "get key")
	}
	return v, found, nil
}

// StagePut queues a write into the in-memory write set. It is not durable
// or visible to other Store instances until CommitAndSign succeeds.
func (s *Store) StagePut(key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(key)
	delete(s.deletes, k)
	cp := make([]byte, len(value))
	copy(cp, value)
	s.puts[k] = cp
}

// StageDelete queues a deletion into the in-memory write set.
func (s *Store) StageDelete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(key)
	delete(s.puts, k)
	s.deletes[k] = struct{}{}
}

// HasStagedWrites reports whether there is anything for CommitAndSign or
// Rollback to resolve.
func (s *Store) HasStagedWrites() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts) > 0 || len(s.deletes) > 0
}

// CommitAndSign atomically and durably applies the staged write set,
// computes the post-commit state root, increments the monotonic sequence
// number, and signs {pre_root, post_root, sequence} with sign. The write,
// its root, and the sequence increment are produced by a single
// Backend.ApplyWriteSet call, so a failure there can never leave the
// backend holding a durable write this method failed to report: either
// ApplyWriteSet fails and nothing changed, or it succeeds and postRoot/seq
// describe exactly what it applied. Once ApplyWriteSet succeeds, the
// staged write set is cleared regardless of whether sign then fails,
// since by that point the mutation is already durable and there is
// nothing left for Rollback to discard.
func (s *Store) CommitAndSign(ctx context.Context, sign SignFunc) (*CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	preRoot, err := s.backend.Root(ctx)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindStoreError, "read pre-commit root")
	}

	deletes := make([]string, 0, len(s.deletes))
	for k := range s.deletes {
		deletes = append(deletes, k)
	}
	postRoot, seq, err := s.backend.ApplyWriteSet(ctx, s.puts, deletes)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindStoreError, "apply write set")
	}

	s.puts = make(map[string][]byte)
	s.deletes = make(map[string]struct{})

	payload := EncodeCommitPayload(preRoot, postRoot, seq)
	sig, err := sign(payload)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindStoreError, "sign commit payload after durable commit")
	}

	s.logger.Printf("committed store: seq=%d pre_root=%x post_root=%x", seq, preRoot, postRoot)

	return &CommitResult{
		PreRoot:   preRoot,
		PostRoot:  postRoot,
		Sequence:  seq,
		Signature: sig,
	}, nil
}

// Rollback discards the staged write set without touching durable state.
func (s *Store) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = make(map[string][]byte)
	s.deletes = make(map[string]struct{})
}
