// Copyright 2025 The lcp-enclave-go Authors

package attestation

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/persist"
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// avrFilePerm matches the sealed key's permission discipline: readable
// only by the owning process.
const avrFilePerm = 0o600

// Flavor identifies which attestation pipeline produced an EAVR.
type Flavor string

const (
	FlavorIAS    Flavor = "ias"
	FlavorDCAP   Flavor = "dcap"
	FlavorZKDCAP Flavor = "zkdcap"
)

// EAVR is the EndorsedAttestationVerificationReport: an IAS-signed report,
// a DCAP quote plus collateral bundle, or a zkDCAP receipt, each carrying
// enough evidence for an on-chain verifier to conclude that Address is
// controlled by an enclave with a known measurement. Payload holds the
// flavor-specific report JSON-encoded, since this package must not import
// the flavor subpackages that import it for ReportBinding/Persist.
type EAVR struct {
	Flavor  Flavor          `json:"flavor"`
	Address types.Address   `json:"address"`
	Payload json.RawMessage `json:"payload"`
}

// AVRPath is the path the CLI persists the EAVR to, "${home}/avr".
func AVRPath(home string) string {
	return filepath.Join(home, "avr")
}

// Persist writes e atomically to path, so a background service never
// observes a partially written file.
func Persist(path string, e *EAVR) error {
	data, err := json.Marshal(e)
	if err != nil {
		return lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "marshal EAVR")
	}
	if err := persist.AtomicWriteFile(path, data, avrFilePerm); err != nil {
		return lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "persist EAVR")
	}
	return nil
}

// Load reads and decodes a previously persisted EAVR.
func Load(path string) (*EAVR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "read EAVR")
	}
	var e EAVR
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "decode EAVR")
	}
	return &e, nil
}
