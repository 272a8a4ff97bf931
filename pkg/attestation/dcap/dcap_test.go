// Copyright 2025 The lcp-enclave-go Authors

package dcap

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

func newQuote(addr [20]byte) Quote {
	var rd [attestation.ReportDataLen]byte
	copy(rd[:], addr[:])
	return Quote{ReportData: rd, Signature: []byte{0x01}}
}

func TestAttestAssemblesEAVRWhenWithinAllowList(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	pccs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Collateral{
			TCBStatus:               "UpToDate",
			AdvisoryIDs:             []string{"INTEL-SA-1"},
			TCBEvaluationDataNumber: 5,
		})
	}))
	defer pccs.Close()

	cfg := Config{PCCSURL: pccs.URL}
	allow := QVResultAllowList{AllowedTCBStatuses: []string{"UpToDate"}, AllowedAdvisoryIDs: []string{"INTEL-SA-1"}}

	eavr, err := Attest(context.Background(), cfg, addr, newQuote(addr), allow)
	require.NoError(t, err)
	require.Equal(t, attestation.FlavorDCAP, eavr.Flavor)

	var report Report
	require.NoError(t, json.Unmarshal(eavr.Payload, &report))
	require.Equal(t, "UpToDate", report.Result.TCBStatus)
}

func TestAttestRejectsResultOutsideAllowList(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	pccs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Collateral{TCBStatus: "Revoked"})
	}))
	defer pccs.Close()

	cfg := Config{PCCSURL: pccs.URL}
	allow := QVResultAllowList{AllowedTCBStatuses: []string{"UpToDate"}}

	_, err = Attest(context.Background(), cfg, addr, newQuote(addr), allow)
	require.Error(t, err)
}

func TestVerifyQuoteRejectsPinnedTCBEvaluationDataNumberMismatch(t *testing.T) {
	pinned := uint32(7)
	cfg := Config{ExpectedTCBEvaluationDataNumber: &pinned}
	collateral := Collateral{TCBEvaluationDataNumber: 6, TCBStatus: "UpToDate"}

	_, err := VerifyQuote(cfg, Quote{Signature: []byte{1}}, collateral, QVResultAllowList{AllowedTCBStatuses: []string{"UpToDate"}})
	require.Error(t, err)
}

func TestVerifyQuoteRejectsUnsignedQuote(t *testing.T) {
	_, err := VerifyQuote(Config{}, Quote{}, Collateral{}, QVResultAllowList{})
	require.Error(t, err)
}

func TestQVResultAllowListRejectsUnlistedAdvisory(t *testing.T) {
	allow := QVResultAllowList{AllowedTCBStatuses: []string{"UpToDate"}, AllowedAdvisoryIDs: []string{"INTEL-SA-1"}}
	err := allow.Check(QVResult{TCBStatus: "UpToDate", AdvisoryIDs: []string{"INTEL-SA-2"}})
	require.Error(t, err)
}
