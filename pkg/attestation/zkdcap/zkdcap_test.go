// Copyright 2025 The lcp-enclave-go Authors

package zkdcap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation"
	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/dcap"
)

func newQuote(addr [20]byte) dcap.Quote {
	var rd [attestation.ReportDataLen]byte
	copy(rd[:], addr[:])
	return dcap.Quote{ReportData: rd, Signature: []byte{0x01}}
}

func TestProveDevModeProducesEmptySeal(t *testing.T) {
	receipt, err := Prove(context.Background(), Config{ProveMode: ProveModeDev}, dcap.Quote{}, [32]byte{}, dcap.QVResult{})
	require.NoError(t, err)
	require.Empty(t, receipt.Seal)
	require.NoError(t, receipt.Verify())
}

func TestProveLocalModeProducesVerifiableSeal(t *testing.T) {
	receipt, err := Prove(context.Background(), Config{ProveMode: ProveModeLocal}, dcap.Quote{}, [32]byte{1}, dcap.QVResult{TCBStatus: "UpToDate"})
	require.NoError(t, err)
	require.NotEmpty(t, receipt.Seal)
	require.NoError(t, receipt.Verify())
}

func TestProveLocalModeSealRejectsTamperedJournal(t *testing.T) {
	receipt, err := Prove(context.Background(), Config{ProveMode: ProveModeLocal}, dcap.Quote{}, [32]byte{1}, dcap.QVResult{TCBStatus: "UpToDate"})
	require.NoError(t, err)

	receipt.Journal.Result.TCBStatus = "Revoked"
	require.Error(t, receipt.Verify())
}

func TestProveBonsaiModeRequiresCredentials(t *testing.T) {
	_, err := Prove(context.Background(), Config{ProveMode: ProveModeBonsai}, dcap.Quote{}, [32]byte{}, dcap.QVResult{})
	require.Error(t, err)
}

func TestProveBonsaiModePostsJournalAndReturnsSeal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("remote-seal"))
	}))
	defer server.Close()

	cfg := Config{ProveMode: ProveModeBonsai, BonsaiAPIURL: server.URL, BonsaiAPIKey: "test-key"}
	receipt, err := Prove(context.Background(), cfg, dcap.Quote{}, [32]byte{}, dcap.QVResult{})
	require.NoError(t, err)
	require.Equal(t, []byte("remote-seal"), receipt.Seal)
}

func TestAttestSimulatedRejectsResultOutsideAllowList(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	sim := &SimConfig{ISVEnclaveQuoteStatus: "GROUP_OUT_OF_DATE"}
	cfg := Config{ProveMode: ProveModeDev, AllowList: dcap.QVResultAllowList{AllowedTCBStatuses: []string{"OK"}}}

	_, err = AttestSimulated(context.Background(), cfg, addr, sim, newQuote(addr), [32]byte{})
	require.Error(t, err)
}

func TestAttestSimulatedAssemblesEAVRWhenWithinAllowList(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	sim := &SimConfig{ISVEnclaveQuoteStatus: "OK", TCBEvaluationDataNumber: 3}
	cfg := Config{ProveMode: ProveModeDev, AllowList: dcap.QVResultAllowList{AllowedTCBStatuses: []string{"OK"}}}

	eavr, err := AttestSimulated(context.Background(), cfg, addr, sim, newQuote(addr), [32]byte{})
	require.NoError(t, err)
	require.Equal(t, attestation.FlavorZKDCAP, eavr.Flavor)

	var report Report
	require.NoError(t, json.Unmarshal(eavr.Payload, &report))
	require.Equal(t, "OK", report.Receipt.Journal.Result.TCBStatus)
}

func TestSimConfigFromEnvRequiresValidPEMAndKey(t *testing.T) {
	t.Setenv(EnvSimRootCAPEM, "")
	t.Setenv(EnvSimRootKeyPKCS8, "")
	_, err := SimConfigFromEnv()
	require.Error(t, err)
}
