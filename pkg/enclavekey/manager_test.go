// Copyright 2025 The lcp-enclave-go Authors

package enclavekey

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestInitThenSignRecoversAddress(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "sealed_enclave_key")
	m := NewManager(keyPath, nil)

	require.NoError(t, m.Init(false))

	addr, err := m.Address()
	require.NoError(t, err)

	message := []byte("update-state-message-bytes")
	sig, err := m.Sign(message)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	digest := crypto.Keccak256(message)
	pub, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	require.Equal(t, addr, crypto.PubkeyToAddress(*pub))
}

func TestInitRejectsReinitWithoutForce(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "sealed_enclave_key")
	m := NewManager(keyPath, nil)
	require.NoError(t, m.Init(false))

	err := m.Init(false)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInitForceOverwritesExistingKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "sealed_enclave_key")
	m := NewManager(keyPath, nil)
	require.NoError(t, m.Init(false))
	firstAddr, err := m.Address()
	require.NoError(t, err)

	require.NoError(t, m.Init(true))
	secondAddr, err := m.Address()
	require.NoError(t, err)

	require.NotEqual(t, firstAddr, secondAddr)
}

func TestUnsealLoadsPreviouslySealedKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "sealed_enclave_key")
	first := NewManager(keyPath, nil)
	require.NoError(t, first.Init(false))
	addr, err := first.Address()
	require.NoError(t, err)

	second := NewManager(keyPath, nil)
	require.False(t, second.Initialized())
	require.NoError(t, second.Unseal())
	require.True(t, second.Initialized())

	gotAddr, err := second.Address()
	require.NoError(t, err)
	require.Equal(t, addr, gotAddr)
}

func TestSignBeforeInitFails(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "sealed_enclave_key")
	m := NewManager(keyPath, nil)

	_, err := m.Sign([]byte("x"))
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = m.Address()
	require.ErrorIs(t, err, ErrNotInitialized)
}
