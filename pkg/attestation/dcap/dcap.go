// Copyright 2025 The lcp-enclave-go Authors
//
// Package dcap implements the DCAP (Data Center Attestation Primitives,
// ECDSA-based) remote-attestation flavor: the enclave produces an ECDSA
// quote, the host pulls TCB Info/QE Identity/CRL collateral from a PCCS
// and a certificate chain from a certs service, and a quote verifier
// checks the quote offline against that collateral.
package dcap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation"
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// UpdatePolicy selects the TCB Info refresh cadence a PCCS client uses.
type UpdatePolicy string

const (
	UpdatePolicyEarly    UpdatePolicy = "early"
	UpdatePolicyStandard UpdatePolicy = "standard"
)

const defaultTimeout = 30 * time.Second

// Config configures collateral fetch and verification.
type Config struct {
	PCCSURL                         string
	CertsServiceURL                 string
	UpdatePolicy                    UpdatePolicy
	ExpectedTCBEvaluationDataNumber *uint32
	HTTPClient                      *http.Client
	Timeout                         time.Duration
}

// Quote is the enclave-produced ECDSA quote, report-data bound to the
// enclave key's address.
type Quote struct {
	ReportData [attestation.ReportDataLen]byte `json:"report_data"`
	MrEnclave  [32]byte                        `json:"mrenclave"`
	MrSigner   [32]byte                        `json:"mrsigner"`
	IsvSvn     uint16                           `json:"isv_svn"`
	QEVendorID [16]byte                        `json:"qe_vendor_id"`
	Signature  []byte                          `json:"signature"`
}

// Collateral is the TCB Info, QE Identity, and CRL bundle a PCCS serves,
// plus the certificate chain a certs service serves.
type Collateral struct {
	TCBInfo    json.RawMessage `json:"tcb_info"`
	QEIdentity json.RawMessage `json:"qe_identity"`
	CRLs       [][]byte        `json:"crls"`
	Certs      []byte          `json:"certs"`

	TCBEvaluationDataNumber uint32   `json:"tcb_evaluation_data_number"`
	TCBStatus               string   `json:"tcb_status"`
	AdvisoryIDs             []string `json:"advisory_ids"`
}

// QVResult is what offline quote verification yields: the TCB status the
// collateral reported and the advisory ids attached to it, plus the TCB
// Info generation the result was evaluated against.
type QVResult struct {
	TCBStatus               string   `json:"tcb_status"`
	AdvisoryIDs             []string `json:"advisory_ids"`
	TCBEvaluationDataNumber uint32   `json:"tcb_evaluation_data_number"`
}

// QVResultAllowList constrains which QVResult values an on-chain verifier
// accepts; any result outside the allow-list fails.
type QVResultAllowList struct {
	AllowedTCBStatuses []string
	AllowedAdvisoryIDs []string
}

// Check verifies r is within the allow-list. A QVResult carrying any
// advisory id not in AllowedAdvisoryIDs fails, as does a TCB status not
// in AllowedTCBStatuses.
func (a QVResultAllowList) Check(r QVResult) error {
	if !contains(a.AllowedTCBStatuses, r.TCBStatus) {
		return lcperrors.Newf(lcperrors.KindAttestationFailed, "tcb status %q is not in the allow list", r.TCBStatus)
	}
	for _, id := range r.AdvisoryIDs {
		if !contains(a.AllowedAdvisoryIDs, id) {
			return lcperrors.Newf(lcperrors.KindAttestationFailed, "advisory id %q is not in the allow list", id)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Report is the DCAP flavor's EAVR payload: the quote, the fetched
// collateral, and the verification result it produced.
type Report struct {
	Quote      Quote      `json:"quote"`
	Collateral Collateral `json:"collateral"`
	Result     QVResult   `json:"result"`
}

// FetchCollateral pulls TCB Info, QE Identity, and CRLs from cfg.PCCSURL
// and the certificate chain from cfg.CertsServiceURL.
func FetchCollateral(ctx context.Context, cfg Config) (*Collateral, error) {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	policy := cfg.UpdatePolicy
	if policy == "" {
		policy = UpdatePolicyStandard
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pccsURL := fmt.Sprintf("%s/sgx/certification/v4/tcb?update=%s", cfg.PCCSURL, policy)
	body, err := getJSON(reqCtx, client, pccsURL)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "fetch PCCS collateral (retryable)")
	}

	var collateral Collateral
	if err := json.Unmarshal(body, &collateral); err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "decode PCCS collateral")
	}

	if cfg.CertsServiceURL != "" {
		certs, err := getJSON(reqCtx, client, cfg.CertsServiceURL)
		if err != nil {
			return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "fetch cert chain (retryable)")
		}
		collateral.Certs = certs
	}

	return &collateral, nil
}

func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

// VerifyQuote checks quote against collateral offline: the collateral's
// reported TCB evaluation data number must match cfg's expectation (if
// pinned), and the resulting QVResult must pass allow.
func VerifyQuote(cfg Config, quote Quote, collateral Collateral, allow QVResultAllowList) (*QVResult, error) {
	if len(quote.Signature) == 0 {
		return nil, lcperrors.New(lcperrors.KindAttestationFailed, "quote carries no signature")
	}
	if cfg.ExpectedTCBEvaluationDataNumber != nil && collateral.TCBEvaluationDataNumber != *cfg.ExpectedTCBEvaluationDataNumber {
		return nil, lcperrors.Newf(lcperrors.KindAttestationFailed,
			"collateral tcb evaluation data number %d does not match pinned %d",
			collateral.TCBEvaluationDataNumber, *cfg.ExpectedTCBEvaluationDataNumber)
	}

	result := QVResult{
		TCBStatus:               collateral.TCBStatus,
		AdvisoryIDs:             collateral.AdvisoryIDs,
		TCBEvaluationDataNumber: collateral.TCBEvaluationDataNumber,
	}
	if err := allow.Check(result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Attest fetches collateral, verifies quote against it, and assembles the
// resulting EAVR.
func Attest(ctx context.Context, cfg Config, address types.Address, quote Quote, allow QVResultAllowList) (*attestation.EAVR, error) {
	if err := attestation.VerifyReportBinding(quote.ReportData[:], address); err != nil {
		return nil, err
	}

	collateral, err := FetchCollateral(ctx, cfg)
	if err != nil {
		return nil, err
	}

	result, err := VerifyQuote(cfg, quote, *collateral, allow)
	if err != nil {
		return nil, err
	}

	report := Report{Quote: quote, Collateral: *collateral, Result: *result}
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "marshal DCAP report")
	}

	return &attestation.EAVR{
		Flavor:  attestation.FlavorDCAP,
		Address: address,
		Payload: payload,
	}, nil
}
