// Copyright 2025 The lcp-enclave-go Authors
//
// Package bls implements BLS12-381 signing over gnark-crypto: key
// generation, signing, and verification. The zkdcap attestation flavor's
// local prove mode uses it to produce the signed seal standing in for a
// zkVM receipt.
package bls

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

var (
	initOnce sync.Once
	initErr  error

	g1Gen bls12381.G1Affine
	g2Gen bls12381.G2Affine
)

const (
	PrivateKeySize = 32 // BLS12-381 private key is 32 bytes (scalar)
	PublicKeySize  = 96 // BLS12-381 public key is 96 bytes (G2 point, compressed)
	SignatureSize  = 48 // BLS12-381 signature is 48 bytes (G1 point, compressed)
)

// Initialize sets up the BLS generator points. Must be called before any
// BLS operation; safe to call multiple times.
func Initialize() error {
	initOnce.Do(func() {
		_, _, g1GenPoint, g2GenPoint := bls12381.Generators()
		g1Gen = g1GenPoint
		g2Gen = g2GenPoint
	})
	return initErr
}

// PrivateKey is a BLS private key - a scalar in Fr.
type PrivateKey struct {
	scalar fr.Element
}

// PublicKey is a BLS public key - a point on G2.
type PublicKey struct {
	point bls12381.G2Affine
}

// Signature is a BLS signature - a point on G1.
type Signature struct {
	point bls12381.G1Affine
}

// GenerateKeyPair generates a new BLS key pair using a secure random source.
func GenerateKeyPair() (*PrivateKey, *PublicKey, error) {
	if err := Initialize(); err != nil {
		return nil, nil, fmt.Errorf("initialize BLS: %w", err)
	}

	var sk fr.Element
	_, err := sk.SetRandom()
	if err != nil {
		return nil, nil, fmt.Errorf("generate random scalar: %w", err)
	}

	privateKey := &PrivateKey{scalar: sk}
	return privateKey, privateKey.PublicKey(), nil
}

// PrivateKeyFromBytes deserializes a private key from bytes.
func PrivateKeyFromBytes(data []byte) (*PrivateKey, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize BLS: %w", err)
	}
	if len(data) != PrivateKeySize {
		return nil, fmt.Errorf("invalid private key size: got %d, want %d", len(data), PrivateKeySize)
	}

	var sk fr.Element
	sk.SetBytes(data)
	return &PrivateKey{scalar: sk}, nil
}

// PublicKeyFromBytes deserializes a public key from bytes.
func PublicKeyFromBytes(data []byte) (*PublicKey, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize BLS: %w", err)
	}

	var pk bls12381.G2Affine
	_, err := pk.SetBytes(data)
	if err != nil {
		return nil, fmt.Errorf("deserialize public key: %w", err)
	}
	return &PublicKey{point: pk}, nil
}

// SignatureFromBytes deserializes a signature from bytes.
func SignatureFromBytes(data []byte) (*Signature, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize BLS: %w", err)
	}

	var sig bls12381.G1Affine
	_, err := sig.SetBytes(data)
	if err != nil {
		return nil, fmt.Errorf("deserialize signature: %w", err)
	}
	return &Signature{point: sig}, nil
}

// Bytes returns the serialized private key bytes.
func (sk *PrivateKey) Bytes() []byte {
	bytes := sk.scalar.Bytes()
	return bytes[:]
}

// Hex returns the private key as a hex string, used to persist it in
// KeyManager's key file.
func (sk *PrivateKey) Hex() string {
	return hex.EncodeToString(sk.Bytes())
}

// PublicKey derives the public key from this private key: pk = sk * G2.
func (sk *PrivateKey) PublicKey() *PublicKey {
	var pk bls12381.G2Affine
	var skBig big.Int
	sk.scalar.BigInt(&skBig)
	pk.ScalarMultiplication(&g2Gen, &skBig)
	return &PublicKey{point: pk}
}

// Sign signs a message: sig = sk * H(message).
func (sk *PrivateKey) Sign(message []byte) *Signature {
	h := hashToG1(message)

	var sig bls12381.G1Affine
	var skBig big.Int
	sk.scalar.BigInt(&skBig)
	sig.ScalarMultiplication(&h, &skBig)

	return &Signature{point: sig}
}

// Bytes returns the serialized public key bytes (compressed G2 point).
func (pk *PublicKey) Bytes() []byte {
	bytes := pk.point.Bytes()
	return bytes[:]
}

// Verify checks sig against message via pairing:
// e(sig, G2) == e(H(message), pk).
func (pk *PublicKey) Verify(sig *Signature, message []byte) bool {
	h := hashToG1(message)

	var negPk bls12381.G2Affine
	negPk.Neg(&pk.point)

	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{sig.point, h},
		[]bls12381.G2Affine{g2Gen, negPk},
	)
	if err != nil {
		return false
	}
	return ok
}

// Bytes returns the serialized signature bytes (compressed G1 point).
func (sig *Signature) Bytes() []byte {
	bytes := sig.point.Bytes()
	return bytes[:]
}

// hashToG1 hashes a message to a point on G1 using the "hash and pray" method.
func hashToG1(message []byte) bls12381.G1Affine {
	h := sha256.New()
	h.Write([]byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_"))
	h.Write(message)

	var counter uint64
	for {
		h2 := sha256.New()
		h2.Write(h.Sum(nil))
		binary.Write(h2, binary.BigEndian, counter)
		hash := h2.Sum(nil)

		var point bls12381.G1Affine
		_, err := point.SetBytes(hash)
		if err == nil && !point.IsInfinity() {
			return point
		}

		var scalar fr.Element
		scalar.SetBytes(hash)
		var scalarBig big.Int
		scalar.BigInt(&scalarBig)

		var result bls12381.G1Affine
		result.ScalarMultiplication(&g1Gen, &scalarBig)
		if !result.IsInfinity() {
			return result
		}

		counter++
		if counter > 1000 {
			return g1Gen
		}
	}
}
