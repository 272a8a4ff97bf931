// Copyright 2025 The lcp-enclave-go Authors
//
// Package ias implements the legacy IAS (Intel Attestation Service,
// EPID-based) remote-attestation flavor: the enclave builds a quote whose
// report data binds the enclave key's address, the host forwards it to
// IAS, and IAS's AVR, signature, and signing certificate chain together
// become the EndorsedAttestationVerificationReport.
package ias

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation"
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// Mode selects which IAS endpoint family a Config targets.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

const (
	developmentEndpoint = "https://api.trustedservices.intel.com/sgx/dev/attestation/v4/report"
	productionEndpoint  = "https://api.trustedservices.intel.com/sgx/attestation/v4/report"

	// EnvSPID and EnvIASKey are the environment variables used to
	// configure IAS remote attestation.
	EnvSPID   = "SPID"
	EnvIASKey = "IAS_KEY"

	defaultTimeout = 30 * time.Second
)

// Config configures an IAS attestation request.
type Config struct {
	SPID       string
	IASKey     string
	Mode       Mode
	Endpoint   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// ConfigFromEnv reads SPID and IAS_KEY from the environment, the way
// `enclave ias-remote-attestation` requires them to be set.
func ConfigFromEnv(mode Mode) (Config, error) {
	spid := os.Getenv(EnvSPID)
	key := os.Getenv(EnvIASKey)
	if spid == "" || key == "" {
		return Config{}, lcperrors.Newf(lcperrors.KindAttestationFailed, "%s and %s must be set for IAS remote attestation", EnvSPID, EnvIASKey)
	}
	return Config{SPID: spid, IASKey: key, Mode: mode}, nil
}

func (c Config) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	if c.Mode == ModeProduction {
		return productionEndpoint
	}
	return developmentEndpoint
}

// Quote is the enclave-produced EPID quote, report-data bound to the
// enclave key's address.
type Quote struct {
	ReportData [attestation.ReportDataLen]byte `json:"report_data"`
	MrEnclave  [32]byte                        `json:"mrenclave"`
	MrSigner   [32]byte                        `json:"mrsigner"`
	IsvSvn     uint16                           `json:"isv_svn"`
}

// Report is the IAS flavor's EAVR payload: the quote, the raw AVR body IAS
// returned, its signature, and the signing certificate chain.
type Report struct {
	Quote            Quote  `json:"quote"`
	AVRBody          []byte `json:"avr_body"`
	Signature        []byte `json:"signature"`
	SigningCertChain []byte `json:"signing_cert_chain"`
}

// BuildQuote constructs the quote this enclave would submit, binding
// address into its report-data field.
func BuildQuote(address types.Address, mrEnclave, mrSigner [32]byte, isvSvn uint16) Quote {
	return Quote{
		ReportData: attestation.ReportBinding(address),
		MrEnclave:  mrEnclave,
		MrSigner:   mrSigner,
		IsvSvn:     isvSvn,
	}
}

// Attest submits quote to IAS and assembles the resulting EAVR.
func Attest(ctx context.Context, cfg Config, address types.Address, quote Quote) (*attestation.EAVR, error) {
	if err := attestation.VerifyReportBinding(quote.ReportData[:], address); err != nil {
		return nil, err
	}

	body, err := json.Marshal(struct {
		ISVEnclaveQuote string `json:"isvEnclaveQuote"`
	}{ISVEnclaveQuote: base64.StdEncoding.EncodeToString(encodeQuote(quote))})
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "marshal IAS request body")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "build IAS request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", cfg.IASKey)

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "IAS request failed (retryable)")
	}
	defer resp.Body.Close()

	avrBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "read IAS response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, lcperrors.Newf(lcperrors.KindAttestationFailed, "IAS returned status %d: %s", resp.StatusCode, string(avrBody))
	}

	sig, err := base64.StdEncoding.DecodeString(resp.Header.Get("X-IASReport-Signature"))
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "decode IAS report signature")
	}

	report := Report{
		Quote:            quote,
		AVRBody:          avrBody,
		Signature:        sig,
		SigningCertChain: []byte(resp.Header.Get("X-IASReport-Signing-Certificate")),
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "marshal IAS report")
	}

	return &attestation.EAVR{
		Flavor:  attestation.FlavorIAS,
		Address: address,
		Payload: payload,
	}, nil
}

func encodeQuote(q Quote) []byte {
	buf := make([]byte, 0, attestation.ReportDataLen+64+2)
	buf = append(buf, q.ReportData[:]...)
	buf = append(buf, q.MrEnclave[:]...)
	buf = append(buf, q.MrSigner[:]...)
	buf = append(buf, byte(q.IsvSvn>>8), byte(q.IsvSvn))
	return buf
}
