// Copyright 2025 The lcp-enclave-go Authors
//
// Package zkdcap implements the zkDCAP remote-attestation flavor: the DCAP
// verification program runs inside a zkVM and produces a succinct receipt
// rather than requiring an on-chain verifier to trust the host's offline
// DCAP check directly. Local proving is grounded on BLS12-381 signing
// (gnark-crypto) over the receipt's public journal as the seal; a real
// zkVM backend would swap this for a STARK/SNARK proof of the same
// program execution.
package zkdcap

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation"
	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/dcap"
	"github.com/datachainlab/lcp-enclave-go/pkg/crypto/bls"
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// ProveMode selects how the DCAP verification program's receipt is
// produced.
type ProveMode string

const (
	ProveModeDev    ProveMode = "dev"
	ProveModeLocal  ProveMode = "local"
	ProveModeBonsai ProveMode = "bonsai"
)

const (
	// EnvSimRootCAPEM and EnvSimRootKeyPKCS8 inject a synthetic root of
	// trust for zkdcap-sim's local tests.
	EnvSimRootCAPEM    = "DCAP_SIM_ROOT_CA_PEM"
	EnvSimRootKeyPKCS8 = "DCAP_SIM_ROOT_KEY_PKCS8"

	defaultTimeout = 30 * time.Second
)

// Config configures proving for one zkdcap attestation call.
type Config struct {
	ProveMode            ProveMode
	ProgramPath          string
	BonsaiAPIURL         string
	BonsaiAPIKey         string
	DisablePreExecution  bool
	LocalProverKeyPath   string
	AllowList            dcap.QVResultAllowList
	HTTPClient           *http.Client
	Timeout              time.Duration
}

// SimConfig is the synthetic root of trust and fabricated verification
// result zkdcap-sim uses for local tests, in place of a real Intel root
// CA and a real PCCS.
type SimConfig struct {
	RootCAPEM               []byte
	RootKeyPKCS8            []byte
	AdvisoryIDs             []string
	ISVEnclaveQuoteStatus   string
	TCBEvaluationDataNumber uint32
}

// SimConfigFromEnv reads the synthetic root of trust from
// DCAP_SIM_ROOT_CA_PEM / DCAP_SIM_ROOT_KEY_PKCS8, validating both parse as
// a certificate and a PKCS8 key respectively.
func SimConfigFromEnv() (*SimConfig, error) {
	caPEM := os.Getenv(EnvSimRootCAPEM)
	keyPEM := os.Getenv(EnvSimRootKeyPKCS8)
	if caPEM == "" || keyPEM == "" {
		return nil, lcperrors.Newf(lcperrors.KindAttestationFailed,
			"%s and %s must be set for zkdcap simulation", EnvSimRootCAPEM, EnvSimRootKeyPKCS8)
	}

	block, _ := pem.Decode([]byte(caPEM))
	if block == nil {
		return nil, lcperrors.New(lcperrors.KindAttestationFailed, "decode simulated root CA PEM")
	}
	if _, err := x509.ParseCertificate(block.Bytes); err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "parse simulated root CA certificate")
	}

	keyBlock, _ := pem.Decode([]byte(keyPEM))
	if keyBlock == nil {
		return nil, lcperrors.New(lcperrors.KindAttestationFailed, "decode simulated root key PEM")
	}
	if _, err := x509.ParsePKCS8PrivateKey(keyBlock.Bytes); err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "parse simulated root key")
	}

	return &SimConfig{RootCAPEM: []byte(caPEM), RootKeyPKCS8: []byte(keyPEM)}, nil
}

// SimulatedResult fabricates a QVResult from sim, the way zkdcap-sim
// bypasses a real PCCS lookup for local tests.
func (sim *SimConfig) SimulatedResult() dcap.QVResult {
	return dcap.QVResult{
		TCBStatus:               sim.ISVEnclaveQuoteStatus,
		AdvisoryIDs:             sim.AdvisoryIDs,
		TCBEvaluationDataNumber: sim.TCBEvaluationDataNumber,
	}
}

// Journal is the receipt's public output: everything an on-chain verifier
// needs without re-running the DCAP verification program itself.
type Journal struct {
	ReportData [attestation.ReportDataLen]byte `json:"report_data"`
	MrEnclave  [32]byte                        `json:"mrenclave"`
	Result     dcap.QVResult                   `json:"result"`
}

func (j Journal) encode() ([]byte, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "marshal zkdcap journal")
	}
	return data, nil
}

// Receipt is the succinct output of the DCAP verification program: the
// public journal and a seal attesting the program ran to completion and
// produced that journal.
type Receipt struct {
	ProveMode    ProveMode `json:"prove_mode"`
	Journal      Journal   `json:"journal"`
	Seal         []byte    `json:"seal"`
	ProverPubKey []byte    `json:"prover_pub_key,omitempty"`
}

// Verify checks a Dev-mode receipt trivially and a Local-mode receipt's
// BLS seal against its embedded prover key. Bonsai receipts are verified
// by the remote service and accepted here on their seal's presence.
func (r Receipt) Verify() error {
	switch r.ProveMode {
	case ProveModeDev:
		return nil
	case ProveModeLocal:
		journal, err := r.Journal.encode()
		if err != nil {
			return err
		}
		pk, err := bls.PublicKeyFromBytes(r.ProverPubKey)
		if err != nil {
			return lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "parse zkdcap prover public key")
		}
		sig, err := bls.SignatureFromBytes(r.Seal)
		if err != nil {
			return lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "parse zkdcap seal")
		}
		if !pk.Verify(sig, journal) {
			return lcperrors.New(lcperrors.KindAttestationFailed, "zkdcap seal does not verify against the journal")
		}
		return nil
	case ProveModeBonsai:
		if len(r.Seal) == 0 {
			return lcperrors.New(lcperrors.KindAttestationFailed, "bonsai receipt carries no seal")
		}
		return nil
	default:
		return lcperrors.Newf(lcperrors.KindAttestationFailed, "unknown prove mode %q", r.ProveMode)
	}
}

// Prove runs the DCAP verification program (already executed into result
// by the caller) through the configured prove backend and returns its
// receipt.
func Prove(ctx context.Context, cfg Config, quote dcap.Quote, mrEnclave [32]byte, result dcap.QVResult) (*Receipt, error) {
	journal := Journal{ReportData: quote.ReportData, MrEnclave: mrEnclave, Result: result}

	switch cfg.ProveMode {
	case "", ProveModeDev:
		return &Receipt{ProveMode: ProveModeDev, Journal: journal}, nil

	case ProveModeLocal:
		km := bls.NewKeyManager(cfg.LocalProverKeyPath)
		if err := km.LoadOrGenerateKey(); err != nil {
			return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "load or generate local zkdcap prover key")
		}
		data, err := journal.encode()
		if err != nil {
			return nil, err
		}
		sig, err := km.Sign(data)
		if err != nil {
			return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "sign zkdcap journal")
		}
		return &Receipt{
			ProveMode:    ProveModeLocal,
			Journal:      journal,
			Seal:         sig.Bytes(),
			ProverPubKey: km.GetPublicKeyBytes(),
		}, nil

	case ProveModeBonsai:
		return proveBonsai(ctx, cfg, journal)

	default:
		return nil, lcperrors.Newf(lcperrors.KindAttestationFailed, "unknown prove mode %q", cfg.ProveMode)
	}
}

func proveBonsai(ctx context.Context, cfg Config, journal Journal) (*Receipt, error) {
	if cfg.BonsaiAPIURL == "" || cfg.BonsaiAPIKey == "" {
		return nil, lcperrors.New(lcperrors.KindAttestationFailed, "bonsai_api_url and bonsai_api_key are required for bonsai prove mode")
	}

	data, err := journal.encode()
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/sessions", cfg.BonsaiAPIURL)
	if cfg.ProgramPath != "" {
		url = fmt.Sprintf("%s?program=%s", url, cfg.ProgramPath)
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "build bonsai request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("x-api-key", cfg.BonsaiAPIKey)

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "bonsai request failed (retryable)")
	}
	defer resp.Body.Close()

	seal, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "read bonsai response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, lcperrors.Newf(lcperrors.KindAttestationFailed, "bonsai returned status %d", resp.StatusCode)
	}

	return &Receipt{ProveMode: ProveModeBonsai, Journal: journal, Seal: seal}, nil
}

// Report is the zkdcap flavor's EAVR payload.
type Report struct {
	Receipt Receipt `json:"receipt"`
}

// Attest runs (unless DisablePreExecution) an in-enclave dry run of DCAP
// verification, proves the result through cfg's backend, and assembles
// the resulting EAVR.
func Attest(ctx context.Context, cfg Config, address types.Address, dcapCfg dcap.Config, quote dcap.Quote, mrEnclave [32]byte) (*attestation.EAVR, error) {
	if err := attestation.VerifyReportBinding(quote.ReportData[:], address); err != nil {
		return nil, err
	}

	var result dcap.QVResult
	if !cfg.DisablePreExecution {
		collateral, err := dcap.FetchCollateral(ctx, dcapCfg)
		if err != nil {
			return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "zkdcap pre-execution dry run")
		}
		r, err := dcap.VerifyQuote(dcapCfg, quote, *collateral, cfg.AllowList)
		if err != nil {
			return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "zkdcap pre-execution verification failed")
		}
		result = *r
	}

	receipt, err := Prove(ctx, cfg, quote, mrEnclave, result)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(Report{Receipt: *receipt})
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "marshal zkdcap report")
	}

	return &attestation.EAVR{
		Flavor:  attestation.FlavorZKDCAP,
		Address: address,
		Payload: payload,
	}, nil
}

// AttestSimulated runs the zkdcap pipeline against sim's synthetic root of
// trust instead of a real PCCS lookup, the way `attestation zkdcap-sim`
// fabricates a result for local tests.
func AttestSimulated(ctx context.Context, cfg Config, address types.Address, sim *SimConfig, quote dcap.Quote, mrEnclave [32]byte) (*attestation.EAVR, error) {
	if err := attestation.VerifyReportBinding(quote.ReportData[:], address); err != nil {
		return nil, err
	}
	if err := cfg.AllowList.Check(sim.SimulatedResult()); err != nil {
		return nil, err
	}

	receipt, err := Prove(ctx, cfg, quote, mrEnclave, sim.SimulatedResult())
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(Report{Receipt: *receipt})
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "marshal zkdcap report")
	}

	return &attestation.EAVR{
		Flavor:  attestation.FlavorZKDCAP,
		Address: address,
		Payload: payload,
	}, nil
}
