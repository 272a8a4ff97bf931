// Copyright 2025 The lcp-enclave-go Authors

package attestation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestPersistAndLoadRoundTrip(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	path := AVRPath(t.TempDir())
	want := &EAVR{
		Flavor:  FlavorIAS,
		Address: addr,
		Payload: []byte(`{"isvEnclaveQuoteStatus":"OK"}`),
	}
	require.NoError(t, Persist(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want.Flavor, got.Flavor)
	require.Equal(t, want.Address, got.Address)
	require.JSONEq(t, string(want.Payload), string(got.Payload))
}

func TestLoadNonexistentPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing", "avr"))
	require.Error(t, err)
}

func TestLoadMalformedJSONFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avr")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestPersistOverwritesExistingFile(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	path := AVRPath(t.TempDir())
	first := &EAVR{Flavor: FlavorDCAP, Address: addr, Payload: []byte(`{"a":1}`)}
	second := &EAVR{Flavor: FlavorZKDCAP, Address: addr, Payload: []byte(`{"a":2}`)}
	require.NoError(t, Persist(path, first))
	require.NoError(t, Persist(path, second))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, FlavorZKDCAP, got.Flavor)
}
