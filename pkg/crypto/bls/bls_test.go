// Copyright 2025 The lcp-enclave-go Authors

package bls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPairProducesVerifiableSignature(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("lcp-enclave-go zkdcap seal")
	sig := sk.Sign(msg)
	require.True(t, pk.Verify(sig, msg))
}

func TestPublicKeyVerifyRejectsWrongMessage(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	sig := sk.Sign([]byte("original"))
	require.False(t, pk.Verify(sig, []byte("tampered")))
}

func TestPublicKeyVerifyRejectsWrongKey(t *testing.T) {
	sk1, _, err := GenerateKeyPair()
	require.NoError(t, err)
	_, pk2, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("lcp-enclave-go zkdcap seal")
	sig := sk1.Sign(msg)
	require.False(t, pk2.Verify(sig, msg))
}

func TestPublicKeyFromBytesRoundTrips(t *testing.T) {
	_, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	decoded, err := PublicKeyFromBytes(pk.Bytes())
	require.NoError(t, err)
	require.Equal(t, pk.Bytes(), decoded.Bytes())
}

func TestSignatureFromBytesRoundTrips(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	sig := sk.Sign([]byte("msg"))
	decoded, err := SignatureFromBytes(sig.Bytes())
	require.NoError(t, err)
	require.True(t, pk.Verify(decoded, []byte("msg")))
}

func TestPrivateKeyFromBytesRoundTrips(t *testing.T) {
	sk, _, err := GenerateKeyPair()
	require.NoError(t, err)

	decoded, err := PrivateKeyFromBytes(sk.Bytes())
	require.NoError(t, err)
	require.Equal(t, sk.Bytes(), decoded.Bytes())
}

func TestPrivateKeyFromBytesRejectsWrongSize(t *testing.T) {
	_, err := PrivateKeyFromBytes([]byte{0x01, 0x02})
	require.Error(t, err)
}
