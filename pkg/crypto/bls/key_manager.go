// Copyright 2025 The lcp-enclave-go Authors
//
// KeyManager persists a BLS key pair to a hex-encoded key file, loading
// it back on the next run instead of regenerating. The zkdcap flavor's
// Local prove mode uses this to keep a stable prover identity across
// restarts.

package bls

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// KeyManager owns a BLS key pair backed by a file on disk.
type KeyManager struct {
	keyPath    string
	privateKey *PrivateKey
	publicKey  *PublicKey
}

// NewKeyManager returns a KeyManager backed by keyPath.
func NewKeyManager(keyPath string) *KeyManager {
	return &KeyManager{
		keyPath: keyPath,
	}
}

// LoadOrGenerateKey loads the key at keyPath, generating and persisting a
// new one if it doesn't exist yet.
func (km *KeyManager) LoadOrGenerateKey() error {
	if err := Initialize(); err != nil {
		return fmt.Errorf("initialize BLS: %w", err)
	}

	if km.keyPath != "" {
		if _, err := os.Stat(km.keyPath); err == nil {
			return km.loadKey()
		}
	}
	return km.generateNewKey()
}

func (km *KeyManager) loadKey() error {
	if km.keyPath == "" {
		return fmt.Errorf("no key path specified")
	}

	data, err := os.ReadFile(km.keyPath)
	if err != nil {
		return fmt.Errorf("read key file: %w", err)
	}

	keyBytes, err := hex.DecodeString(string(data))
	if err != nil {
		return fmt.Errorf("decode key hex: %w", err)
	}

	km.privateKey, err = PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}

	km.publicKey = km.privateKey.PublicKey()
	return nil
}

func (km *KeyManager) generateNewKey() error {
	var err error
	km.privateKey, km.publicKey, err = GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate key pair: %w", err)
	}

	if km.keyPath != "" {
		return km.saveKey()
	}
	return nil
}

func (km *KeyManager) saveKey() error {
	if km.keyPath == "" {
		return fmt.Errorf("no key path specified")
	}
	if km.privateKey == nil {
		return fmt.Errorf("no private key to save")
	}

	dir := filepath.Dir(km.keyPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	keyHex := hex.EncodeToString(km.privateKey.Bytes())
	if err := os.WriteFile(km.keyPath, []byte(keyHex), 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// GetPublicKeyBytes returns the public key as bytes.
func (km *KeyManager) GetPublicKeyBytes() []byte {
	if km.publicKey == nil {
		return nil
	}
	return km.publicKey.Bytes()
}

// Sign signs message with the loaded private key.
func (km *KeyManager) Sign(message []byte) (*Signature, error) {
	if km.privateKey == nil {
		return nil, fmt.Errorf("no private key loaded")
	}
	return km.privateKey.Sign(message), nil
}
