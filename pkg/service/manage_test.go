// Copyright 2025 The lcp-enclave-go Authors

package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation"
	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/ias"
	"github.com/datachainlab/lcp-enclave-go/pkg/enclavekey"
	"github.com/datachainlab/lcp-enclave-go/pkg/router"
)

func newTestManageFunc(t *testing.T, iasURL string) (router.ManageFunc, *enclavekey.Manager, string) {
	t.Helper()
	home := t.TempDir()
	ek := enclavekey.NewManager(filepath.Join(home, "sealed_enclave_key"), nil)
	manage := NewManageFunc(ek, ManageOptions{
		Home: home,
		IAS: IASOptions{
			Config: ias.Config{SPID: "test-spid", IASKey: "test-ias-key", Mode: ias.ModeDevelopment, Endpoint: iasURL},
		},
	})
	return manage, ek, home
}

func TestManageFuncInitKeyInitializesAndReturnsAddress(t *testing.T) {
	manage, ek, _ := newTestManageFunc(t, "")
	res, err := manage(context.Background(), router.EnclaveManageCommand{Op: router.OpInitKey})
	require.NoError(t, err)
	require.True(t, ek.Initialized())
	addr, err := ek.Address()
	require.NoError(t, err)
	require.Equal(t, addr, res.Address)
}

func TestManageFuncInitKeyTwiceWithoutForceFails(t *testing.T) {
	manage, _, _ := newTestManageFunc(t, "")
	_, err := manage(context.Background(), router.EnclaveManageCommand{Op: router.OpInitKey})
	require.NoError(t, err)
	_, err = manage(context.Background(), router.EnclaveManageCommand{Op: router.OpInitKey})
	require.Error(t, err)
}

func TestManageFuncIASRemoteAttestationPersistsAVR(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-IASReport-Signature", "c2lnbmF0dXJl")
		w.Header().Set("X-IASReport-Signing-Certificate", "cert-chain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"isvEnclaveQuoteStatus":"OK"}`))
	}))
	defer server.Close()

	manage, ek, home := newTestManageFunc(t, server.URL)
	_, err := manage(context.Background(), router.EnclaveManageCommand{Op: router.OpInitKey})
	require.NoError(t, err)

	res, err := manage(context.Background(), router.EnclaveManageCommand{Op: router.OpIASRemoteAttestation})
	require.NoError(t, err)
	require.NotEmpty(t, res.AVR)

	loaded, err := attestation.Load(attestation.AVRPath(home))
	require.NoError(t, err)
	require.Equal(t, attestation.FlavorIAS, loaded.Flavor)

	addr, err := ek.Address()
	require.NoError(t, err)
	require.Equal(t, addr, loaded.Address)
}

func TestManageFuncShowAVRReturnsPersistedReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-IASReport-Signature", "c2lnbmF0dXJl")
		w.Header().Set("X-IASReport-Signing-Certificate", "cert-chain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"isvEnclaveQuoteStatus":"OK"}`))
	}))
	defer server.Close()

	manage, _, _ := newTestManageFunc(t, server.URL)
	_, err := manage(context.Background(), router.EnclaveManageCommand{Op: router.OpInitKey})
	require.NoError(t, err)
	attestRes, err := manage(context.Background(), router.EnclaveManageCommand{Op: router.OpIASRemoteAttestation})
	require.NoError(t, err)

	showRes, err := manage(context.Background(), router.EnclaveManageCommand{Op: router.OpShowAVR})
	require.NoError(t, err)
	require.JSONEq(t, string(attestRes.AVR), string(showRes.AVR))
}

func TestManageFuncShowAVRWithoutPriorAttestationFails(t *testing.T) {
	manage, _, _ := newTestManageFunc(t, "")
	_, err := manage(context.Background(), router.EnclaveManageCommand{Op: router.OpInitKey})
	require.NoError(t, err)
	_, err = manage(context.Background(), router.EnclaveManageCommand{Op: router.OpShowAVR})
	require.Error(t, err)
}

func TestManageFuncUnknownOpFails(t *testing.T) {
	manage, _, _ := newTestManageFunc(t, "")
	_, err := manage(context.Background(), router.EnclaveManageCommand{Op: router.EnclaveManageOp("bogus")})
	require.Error(t, err)
}
