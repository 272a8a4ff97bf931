// Copyright 2025 The lcp-enclave-go Authors
//
// Package enclavekey manages the enclave's signing key: generation, sealed
// persistence, and producing the recoverable signatures every
// CommitmentProof is built from.
package enclavekey

import (
	"crypto/ecdsa"
	"encoding/hex"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/persist"
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// sealedKeyPerm restricts the sealed key file to the owning process.
const sealedKeyPerm = 0o600

// Manager owns the enclave's private signing key. A Manager is safe for
// concurrent Sign/Address calls once initialized; Init/Unseal themselves
// are not meant to race with those calls or each other.
type Manager struct {
	keyPath string
	logger  *log.Logger

	priv    *ecdsa.PrivateKey
	address types.Address
}

// NewManager constructs a Manager bound to keyPath. If logger is nil, a
// component-prefixed default logger is used.
func NewManager(keyPath string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(log.Writer(), "[EnclaveKey] ", log.LstdFlags)
	}
	return &Manager{keyPath: keyPath, logger: logger}
}

// Init generates a new signing key and seals it to keyPath. If a sealed key
// already exists and force is false, it returns ErrAlreadyInitialized
// without touching the existing key. Key minting is deliberately decoupled
// from attestation: a failed attestation afterward never requires
// re-minting this key.
func (m *Manager) Init(force bool) error {
	if !force {
		if _, err := os.Stat(m.keyPath); err == nil {
			return ErrAlreadyInitialized
		}
	}

	priv, err := crypto.GenerateKey()
	if err != nil {
		return lcperrors.Wrap(err, lcperrors.KindOther, "generate enclave signing key")
	}

	if err := m.seal(priv); err != nil {
		return err
	}

	m.priv = priv
	m.address = crypto.PubkeyToAddress(priv.PublicKey)
	m.logger.Printf("initialized enclave key, address=%s", m.address.Hex())
	return nil
}

// Unseal loads a previously sealed key from keyPath into the manager. The
// sealed blob is only meaningful to an enclave with the same measurement;
// this Go implementation cannot itself enforce that binding and relies on
// the surrounding attestation pipeline to have verified it.
func (m *Manager) Unseal() error {
	data, err := os.ReadFile(m.keyPath)
	if err != nil {
		return lcperrors.Wrap(err, lcperrors.KindOther, "read sealed enclave key")
	}
	keyBytes, err := hex.DecodeString(string(data))
	if err != nil {
		return lcperrors.Wrap(err, lcperrors.KindOther, "decode sealed enclave key hex")
	}
	priv, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return lcperrors.Wrap(err, lcperrors.KindOther, "parse sealed enclave key")
	}
	m.priv = priv
	m.address = crypto.PubkeyToAddress(priv.PublicKey)
	return nil
}

func (m *Manager) seal(priv *ecdsa.PrivateKey) error {
	keyHex := hex.EncodeToString(crypto.FromECDSA(priv))
	if err := persist.AtomicWriteFile(m.keyPath, []byte(keyHex), sealedKeyPerm); err != nil {
		return lcperrors.Wrap(err, lcperrors.KindOther, "seal enclave key to disk")
	}
	return nil
}

// Sign produces a 65-byte recoverable ECDSA signature over
// keccak256(message) such that ecrecover yields Address(). The private
// scalar itself is never returned or logged.
func (m *Manager) Sign(message []byte) ([]byte, error) {
	if m.priv == nil {
		return nil, ErrNotInitialized
	}
	digest := crypto.Keccak256(message)
	sig, err := crypto.Sign(digest, m.priv)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "sign with enclave key")
	}
	return sig, nil
}

// Address returns the enclave's signing address, derived once from the
// public key at Init or Unseal time.
func (m *Manager) Address() (types.Address, error) {
	if m.priv == nil {
		return types.Address{}, ErrNotInitialized
	}
	return m.address, nil
}

// PublicKey exposes the uncompressed public key, used by the attestation
// pipeline to bind the key to a hardware measurement.
func (m *Manager) PublicKey() (*ecdsa.PublicKey, error) {
	if m.priv == nil {
		return nil, ErrNotInitialized
	}
	return &m.priv.PublicKey, nil
}

// Initialized reports whether a key has been generated or unsealed into
// this manager.
func (m *Manager) Initialized() bool {
	return m.priv != nil
}
