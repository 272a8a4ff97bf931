// Copyright 2025 The lcp-enclave-go Authors

package ias

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation"
)

func TestAttestAssemblesEAVRFromIASResponse(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-ias-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		w.Header().Set("X-IASReport-Signature", "c2lnbmF0dXJl")
		w.Header().Set("X-IASReport-Signing-Certificate", "cert-chain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"isvEnclaveQuoteStatus":"OK"}`))
	}))
	defer server.Close()

	quote := BuildQuote(addr, [32]byte{1}, [32]byte{2}, 1)
	cfg := Config{SPID: "test-spid", IASKey: "test-ias-key", Mode: ModeDevelopment, Endpoint: server.URL}

	eavr, err := Attest(context.Background(), cfg, addr, quote)
	require.NoError(t, err)
	require.Equal(t, attestation.FlavorIAS, eavr.Flavor)
	require.Equal(t, addr, eavr.Address)

	var report Report
	require.NoError(t, json.Unmarshal(eavr.Payload, &report))
	require.Contains(t, string(report.AVRBody), "OK")
	require.Equal(t, []byte("cert-chain"), report.SigningCertChain)
}

func TestAttestRejectsMismatchedReportBinding(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	wrongAddr := crypto.PubkeyToAddress(other.PublicKey)

	quote := BuildQuote(wrongAddr, [32]byte{}, [32]byte{}, 0)
	_, err = Attest(context.Background(), Config{}, addr, quote)
	require.Error(t, err)
}

func TestAttestSurfacesNonOKStatusAsError(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	quote := BuildQuote(addr, [32]byte{}, [32]byte{}, 0)
	cfg := Config{SPID: "s", IASKey: "k", Endpoint: server.URL}
	_, err = Attest(context.Background(), cfg, addr, quote)
	require.Error(t, err)
}

func TestConfigFromEnvRequiresBothVars(t *testing.T) {
	t.Setenv(EnvSPID, "")
	t.Setenv(EnvIASKey, "")
	_, err := ConfigFromEnv(ModeDevelopment)
	require.Error(t, err)

	t.Setenv(EnvSPID, "spid")
	t.Setenv(EnvIASKey, "key")
	cfg, err := ConfigFromEnv(ModeProduction)
	require.NoError(t, err)
	require.Equal(t, "spid", cfg.SPID)
	require.Equal(t, ModeProduction, cfg.Mode)
}
