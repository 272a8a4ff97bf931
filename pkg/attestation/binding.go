// Copyright 2025 The lcp-enclave-go Authors
//
// Package attestation implements the remote-attestation pipeline: three
// flavors (ias, dcap, zkdcap) share one abstract flow — mint or load the
// enclave key, build a report binding it, endorse the report with the
// relevant provider, and persist the resulting EndorsedAttestationVerificationReport.
package attestation

import (
	"bytes"

	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// ReportDataLen is the fixed width of a quote/report's report-data field.
const ReportDataLen = 64

// ReportBinding builds the 64-byte report-data value every attestation
// flavor's quote must carry: key.address left-aligned, zero-padded. An
// on-chain verifier checks this binding before trusting the enclave's
// signature, so all three flavors build it through this one helper rather
// than reimplementing the padding per provider.
func ReportBinding(address types.Address) [ReportDataLen]byte {
	var out [ReportDataLen]byte
	copy(out[:], address.Bytes())
	return out
}

// VerifyReportBinding checks that reportData is exactly ReportBinding(address).
func VerifyReportBinding(reportData []byte, address types.Address) error {
	if len(reportData) != ReportDataLen {
		return lcperrors.Newf(lcperrors.KindAttestationFailed, "report data must be %d bytes, got %d", ReportDataLen, len(reportData))
	}
	want := ReportBinding(address)
	if !bytes.Equal(reportData, want[:]) {
		return lcperrors.New(lcperrors.KindAttestationFailed, "report data does not bind the enclave key address")
	}
	return nil
}
