// Copyright 2025 The lcp-enclave-go Authors

//go:build simulate

package main

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"os"
	"os/exec"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation"
	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/ias"
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
)

// simulatedAVRBody is the fabricated report body a real IAS response
// would otherwise carry.
type simulatedAVRBody struct {
	ISVEnclaveQuoteStatus string   `json:"isvEnclaveQuoteStatus"`
	AdvisoryIDs           []string `json:"advisoryIDs,omitempty"`
}

func newAttestationSimulateCommand() *cobra.Command {
	var enclaveKeyHex, signingKeyPath, signingCertPath string
	var validateCert bool
	var advisoryIDs []string
	var isvEnclaveQuoteStatus string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "fabricate an IAS AVR signed by a caller-supplied RSA key, for local tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := common.HexToAddress(enclaveKeyHex)

			keyPEM, err := os.ReadFile(signingKeyPath)
			if err != nil {
				return lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "read signing key")
			}
			block, _ := pem.Decode(keyPEM)
			if block == nil {
				return lcperrors.New(lcperrors.KindAttestationFailed, "decode signing key PEM")
			}
			keyAny, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "parse signing key as PKCS8")
			}
			rsaKey, ok := keyAny.(*rsa.PrivateKey)
			if !ok {
				return lcperrors.New(lcperrors.KindAttestationFailed, "signing key is not an RSA key")
			}

			signingCert, err := os.ReadFile(signingCertPath)
			if err != nil {
				return lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "read signing certificate")
			}

			if validateCert {
				if err := validateCertModulus(rsaKey, signingCertPath); err != nil {
					return err
				}
			}

			body := simulatedAVRBody{ISVEnclaveQuoteStatus: isvEnclaveQuoteStatus, AdvisoryIDs: advisoryIDs}
			avrBody, err := json.Marshal(body)
			if err != nil {
				return err
			}
			digest := sha256.Sum256(avrBody)
			signature, err := rsa.SignPKCS1v15(rand.Reader, rsaKey, crypto.SHA256, digest[:])
			if err != nil {
				return lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "sign fabricated avr body")
			}

			report := ias.Report{
				Quote:            ias.BuildQuote(addr, [32]byte{}, [32]byte{}, 0),
				AVRBody:          avrBody,
				Signature:        signature,
				SigningCertChain: signingCert,
			}
			payload, err := json.Marshal(report)
			if err != nil {
				return err
			}
			eavr := &attestation.EAVR{Flavor: attestation.FlavorIAS, Address: addr, Payload: payload}
			return printEAVR(eavr)
		},
	}
	cmd.Flags().StringVar(&enclaveKeyHex, "enclave_key", "", "hex-encoded enclave key address to attest")
	cmd.Flags().StringVar(&signingKeyPath, "signing_key_path", "", "PKCS8 PEM RSA key used to sign the fabricated AVR")
	cmd.Flags().StringVar(&signingCertPath, "signing_cert_path", "", "DER certificate chain to attach to the fabricated AVR")
	cmd.Flags().BoolVar(&validateCert, "validate_cert", true, "cross-check the certificate's modulus against the signing key via openssl")
	cmd.Flags().StringSliceVar(&advisoryIDs, "advisory_ids", nil, "Intel security advisory IDs to include in the report")
	cmd.Flags().StringVar(&isvEnclaveQuoteStatus, "isv_enclave_quote_status", "OK", "quote status to include in the report")
	cmd.MarkFlagRequired("enclave_key")
	cmd.MarkFlagRequired("signing_key_path")
	cmd.MarkFlagRequired("signing_cert_path")
	return cmd
}

// validateCertModulus cross-checks signingCertPath's RSA modulus against
// rsaKey's, via the openssl binary, mirroring
// original_source/app/src/commands/attestation.rs's validate_cert check.
func validateCertModulus(rsaKey *rsa.PrivateKey, signingCertPath string) error {
	out, err := exec.Command("openssl", "x509", "-noout", "-modulus", "-inform", "der", "-in", signingCertPath).Output()
	if err != nil {
		return lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "exec openssl x509 -modulus")
	}
	line := strings.TrimSpace(string(out))
	modulusHex, ok := strings.CutPrefix(line, "Modulus=")
	if !ok {
		return lcperrors.Newf(lcperrors.KindAttestationFailed, "unexpected openssl output: %s", line)
	}
	certModulus, err := hex.DecodeString(modulusHex)
	if err != nil {
		return lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "decode openssl modulus hex")
	}
	keyModulus := rsaKey.PublicKey.N.Bytes()
	if !bytesEqualIgnoringLeadingZero(certModulus, keyModulus) {
		return lcperrors.New(lcperrors.KindAttestationFailed, "signing certificate modulus does not match signing key")
	}
	return nil
}

func bytesEqualIgnoringLeadingZero(a, b []byte) bool {
	trim := func(x []byte) []byte {
		for len(x) > 0 && x[0] == 0 {
			x = x[1:]
		}
		return x
	}
	a, b = trim(a), trim(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
