// Copyright 2025 The lcp-enclave-go Authors

package service

import (
	"context"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation"
	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/dcap"
	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/ias"
	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/zkdcap"
	"github.com/datachainlab/lcp-enclave-go/pkg/enclavekey"
	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/router"
)

// IASOptions configures the OpIASRemoteAttestation manage op. MrEnclave,
// MrSigner and IsvSvn stand in for the hardware measurement an actual SGX
// quoting enclave would supply; extracting those belongs to the TEE SDK's
// ocall/ecall ABI, which this enclave does not implement.
type IASOptions struct {
	Config    ias.Config
	MrEnclave [32]byte
	MrSigner  [32]byte
	IsvSvn    uint16
}

// DCAPOptions configures the OpDCAPRemoteAttestation manage op. Quote is
// the caller-supplied ECDSA quote; its ReportData is overwritten with the
// enclave key's binding before verification.
type DCAPOptions struct {
	Config    dcap.Config
	AllowList dcap.QVResultAllowList
	Quote     dcap.Quote
}

// ZKDCAPOptions configures the OpZKDCAPRemoteAttestation manage op. When
// Simulated is non-nil, AttestSimulated runs against a synthetic root of
// trust instead of a real PCCS lookup.
type ZKDCAPOptions struct {
	Config     zkdcap.Config
	DCAPConfig dcap.Config
	Quote      dcap.Quote
	MrEnclave  [32]byte
	Simulated  *zkdcap.SimConfig
}

// ManageOptions bundles the per-flavor configuration NewManageFunc needs.
// Home is the directory sealed_enclave_key and avr are persisted under.
type ManageOptions struct {
	Home   string
	IAS    IASOptions
	DCAP   DCAPOptions
	ZKDCAP ZKDCAPOptions
}

// NewManageFunc builds the router.ManageFunc that backs every
// EnclaveManage command: key init/show and the three attestation
// flavors. It never touches the store, matching
// original_source/enclave-modules/handler/src/router.rs's routing of
// these ops away from the transactional dispatch path.
func NewManageFunc(ek *enclavekey.Manager, opts ManageOptions) router.ManageFunc {
	return func(ctx context.Context, cmd router.EnclaveManageCommand) (*router.EnclaveManageResult, error) {
		switch cmd.Op {
		case router.OpInitKey:
			if err := ek.Init(cmd.Force); err != nil {
				return nil, err
			}
			addr, err := ek.Address()
			if err != nil {
				return nil, err
			}
			return &router.EnclaveManageResult{Address: addr}, nil

		case router.OpShowAVR:
			addr, err := ek.Address()
			if err != nil {
				return nil, err
			}
			eavr, err := attestation.Load(attestation.AVRPath(opts.Home))
			if err != nil {
				return nil, err
			}
			return &router.EnclaveManageResult{Address: addr, AVR: eavr.Payload}, nil

		case router.OpIASRemoteAttestation:
			addr, err := ek.Address()
			if err != nil {
				return nil, err
			}
			if !cmd.Force {
				if _, err := attestation.Load(attestation.AVRPath(opts.Home)); err == nil {
					return nil, lcperrors.New(lcperrors.KindAttestationFailed, "avr already exists, use --force to re-attest")
				}
			}
			quote := ias.BuildQuote(addr, opts.IAS.MrEnclave, opts.IAS.MrSigner, opts.IAS.IsvSvn)
			eavr, err := ias.Attest(ctx, opts.IAS.Config, addr, quote)
			if err != nil {
				return nil, err
			}
			if err := attestation.Persist(attestation.AVRPath(opts.Home), eavr); err != nil {
				return nil, err
			}
			return &router.EnclaveManageResult{Address: addr, AVR: eavr.Payload}, nil

		case router.OpDCAPRemoteAttestation:
			addr, err := ek.Address()
			if err != nil {
				return nil, err
			}
			quote := opts.DCAP.Quote
			quote.ReportData = attestation.ReportBinding(addr)
			eavr, err := dcap.Attest(ctx, opts.DCAP.Config, addr, quote, opts.DCAP.AllowList)
			if err != nil {
				return nil, err
			}
			if err := attestation.Persist(attestation.AVRPath(opts.Home), eavr); err != nil {
				return nil, err
			}
			return &router.EnclaveManageResult{Address: addr, AVR: eavr.Payload}, nil

		case router.OpZKDCAPRemoteAttestation:
			addr, err := ek.Address()
			if err != nil {
				return nil, err
			}
			quote := opts.ZKDCAP.Quote
			quote.ReportData = attestation.ReportBinding(addr)

			var eavr *attestation.EAVR
			if opts.ZKDCAP.Simulated != nil {
				eavr, err = zkdcap.AttestSimulated(ctx, opts.ZKDCAP.Config, addr, opts.ZKDCAP.Simulated, quote, opts.ZKDCAP.MrEnclave)
			} else {
				eavr, err = zkdcap.Attest(ctx, opts.ZKDCAP.Config, addr, opts.ZKDCAP.DCAPConfig, quote, opts.ZKDCAP.MrEnclave)
			}
			if err != nil {
				return nil, err
			}
			if err := attestation.Persist(attestation.AVRPath(opts.Home), eavr); err != nil {
				return nil, err
			}
			return &router.EnclaveManageResult{Address: addr, AVR: eavr.Payload}, nil

		default:
			return nil, lcperrors.Newf(lcperrors.KindInputValidation, "unknown enclave management operation %q", cmd.Op)
		}
	}
}
