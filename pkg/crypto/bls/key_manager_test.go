// Copyright 2025 The lcp-enclave-go Authors

package bls

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyManagerLoadOrGenerateKeyPersistsAcrossInstances(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "bls_key")

	km1 := NewKeyManager(keyPath)
	require.NoError(t, km1.LoadOrGenerateKey())
	pub1 := km1.GetPublicKeyBytes()
	require.NotEmpty(t, pub1)

	km2 := NewKeyManager(keyPath)
	require.NoError(t, km2.LoadOrGenerateKey())
	require.Equal(t, pub1, km2.GetPublicKeyBytes())
}

func TestKeyManagerSignVerifiesAgainstGetPublicKeyBytes(t *testing.T) {
	km := NewKeyManager(filepath.Join(t.TempDir(), "bls_key"))
	require.NoError(t, km.LoadOrGenerateKey())

	msg := []byte("zkdcap local-prove seal")
	sig, err := km.Sign(msg)
	require.NoError(t, err)

	pk, err := PublicKeyFromBytes(km.GetPublicKeyBytes())
	require.NoError(t, err)
	require.True(t, pk.Verify(sig, msg))
}

func TestKeyManagerSignWithoutLoadFails(t *testing.T) {
	km := NewKeyManager("")
	_, err := km.Sign([]byte("msg"))
	require.Error(t, err)
}

func TestKeyManagerGetPublicKeyBytesBeforeLoadIsNil(t *testing.T) {
	km := NewKeyManager("")
	require.Nil(t, km.GetPublicKeyBytes())
}
