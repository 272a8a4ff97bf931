// Copyright 2025 The lcp-enclave-go Authors

package commitment

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestCommitmentProofSignAndVerify(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(priv.PublicKey)

	msg := sampleUpdateState(t)
	proof, err := SignMessage(msg, func(digest []byte) ([]byte, error) {
		return crypto.Sign(digest, priv)
	}, signer)
	require.NoError(t, err)

	decoded, err := proof.Verify()
	require.NoError(t, err)

	got, ok := decoded.(*UpdateStateMessage)
	require.True(t, ok)
	require.Equal(t, msg.PostStateID, got.PostStateID)
}

func TestCommitmentProofVerifyRejectsWrongSigner(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	msg := sampleUpdateState(t)
	proof, err := SignMessage(msg, func(digest []byte) ([]byte, error) {
		return crypto.Sign(digest, priv)
	}, crypto.PubkeyToAddress(other.PublicKey))
	require.NoError(t, err)

	_, err = proof.Verify()
	require.Error(t, err)
}

func TestCommitmentProofVerifyRejectsTamperedMessage(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(priv.PublicKey)

	msg := sampleUpdateState(t)
	proof, err := SignMessage(msg, func(digest []byte) ([]byte, error) {
		return crypto.Sign(digest, priv)
	}, signer)
	require.NoError(t, err)

	proof.Message[len(proof.Message)-1] ^= 0xFF

	_, err = proof.Verify()
	require.Error(t, err)
}

func TestCommitmentProofEncodeDecodeRoundTrip(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(priv.PublicKey)

	msg := sampleUpdateState(t)
	proof, err := SignMessage(msg, func(digest []byte) ([]byte, error) {
		return crypto.Sign(digest, priv)
	}, signer)
	require.NoError(t, err)

	encoded, err := EncodeProof(proof)
	require.NoError(t, err)

	decoded, err := DecodeProof(encoded)
	require.NoError(t, err)
	require.Equal(t, proof.Message, decoded.Message)
	require.Equal(t, proof.Signer, decoded.Signer)
	require.Equal(t, proof.Signature, decoded.Signature)

	_, err = decoded.Verify()
	require.NoError(t, err)
}
