// Copyright 2025 The lcp-enclave-go Authors

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation"
	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/dcap"
	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/ias"
	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/zkdcap"
)

func newAttestationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attestation",
		Short: "run a single attestation flavor against an arbitrary enclave key, printing the resulting avr",
	}
	cmd.AddCommand(newAttestationIASCommand())
	cmd.AddCommand(newAttestationDCAPCommand())
	cmd.AddCommand(newAttestationZKDCAPCommand())
	cmd.AddCommand(newAttestationZKDCAPSimCommand())
	cmd.AddCommand(newAttestationSimulateCommand())
	return cmd
}

func printEAVR(eavr *attestation.EAVR) error {
	out, err := json.MarshalIndent(eavr, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newAttestationIASCommand() *cobra.Command {
	var enclaveKeyHex string
	var development bool
	cmd := &cobra.Command{
		Use:   "ias",
		Short: "attest an enclave key with Intel IAS",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := common.HexToAddress(enclaveKeyHex)
			mode := ias.ModeProduction
			if development {
				mode = ias.ModeDevelopment
			}
			cfg, err := ias.ConfigFromEnv(mode)
			if err != nil {
				return err
			}
			quote := ias.BuildQuote(addr, [32]byte{}, [32]byte{}, 0)
			eavr, err := ias.Attest(cmd.Context(), cfg, addr, quote)
			if err != nil {
				return err
			}
			return printEAVR(eavr)
		},
	}
	cmd.Flags().StringVar(&enclaveKeyHex, "enclave_key", "", "hex-encoded enclave key address to attest")
	cmd.Flags().BoolVar(&development, "development", false, "use the IAS development endpoint")
	cmd.MarkFlagRequired("enclave_key")
	return cmd
}

func newAttestationDCAPCommand() *cobra.Command {
	var enclaveKeyHex, pccsURL, certsServiceURL, updatePolicy string
	var expectedTCBEvalDataNumber uint32
	cmd := &cobra.Command{
		Use:   "dcap",
		Short: "attest an enclave key with DCAP",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := common.HexToAddress(enclaveKeyHex)
			cfg := dcap.Config{
				PCCSURL:         orDefault(pccsURL, appConfig.PCCSURL),
				CertsServiceURL: orDefault(certsServiceURL, appConfig.CertsServiceURL),
				UpdatePolicy:    dcap.UpdatePolicy(orDefault(updatePolicy, appConfig.DCAPUpdatePolicy)),
				Timeout:         appConfig.AttestationTimeout,
			}
			if expectedTCBEvalDataNumber != 0 {
				cfg.ExpectedTCBEvaluationDataNumber = &expectedTCBEvalDataNumber
			}
			quote := dcap.Quote{ReportData: attestation.ReportBinding(addr)}
			eavr, err := dcap.Attest(cmd.Context(), cfg, addr, quote, dcap.QVResultAllowList{
				AllowedTCBStatuses: []string{"UpToDate"},
			})
			if err != nil {
				return err
			}
			return printEAVR(eavr)
		},
	}
	cmd.Flags().StringVar(&enclaveKeyHex, "enclave_key", "", "hex-encoded enclave key address to attest")
	cmd.Flags().StringVar(&pccsURL, "pccs_url", "", "PCCS collateral endpoint")
	cmd.Flags().StringVar(&certsServiceURL, "certs_service_url", "", "certificate chain service endpoint")
	cmd.Flags().StringVar(&updatePolicy, "update_policy", "", "early|standard")
	cmd.Flags().Uint32Var(&expectedTCBEvalDataNumber, "expected_tcb_evaluation_data_number", 0, "pin the TCB evaluation data number collateral must match")
	cmd.MarkFlagRequired("enclave_key")
	return cmd
}

func newAttestationZKDCAPCommand() *cobra.Command {
	var enclaveKeyHex string
	var allowedTCBStatuses, allowedAdvisoryIDs []string
	var programPath, proveMode, bonsaiAPIURL, bonsaiAPIKey string
	var disablePreExecution bool
	cmd := &cobra.Command{
		Use:   "zkdcap",
		Short: "attest an enclave key with zkDCAP",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := common.HexToAddress(enclaveKeyHex)
			zkCfg := zkdcap.Config{
				ProveMode:           zkdcap.ProveMode(orDefault(proveMode, appConfig.ZKDCAPProveMode)),
				ProgramPath:         orDefault(programPath, appConfig.ZKDCAPProgramPath),
				BonsaiAPIURL:        orDefault(bonsaiAPIURL, appConfig.BonsaiAPIURL),
				BonsaiAPIKey:        orDefault(bonsaiAPIKey, appConfig.BonsaiAPIKey),
				DisablePreExecution: disablePreExecution,
				AllowList: dcap.QVResultAllowList{
					AllowedTCBStatuses: allowedTCBStatuses,
					AllowedAdvisoryIDs: allowedAdvisoryIDs,
				},
				Timeout: appConfig.AttestationTimeout,
			}
			dcapCfg := dcap.Config{
				PCCSURL:         appConfig.PCCSURL,
				CertsServiceURL: appConfig.CertsServiceURL,
				UpdatePolicy:    dcap.UpdatePolicy(appConfig.DCAPUpdatePolicy),
				Timeout:         appConfig.AttestationTimeout,
			}
			quote := dcap.Quote{ReportData: attestation.ReportBinding(addr)}
			eavr, err := zkdcap.Attest(cmd.Context(), zkCfg, addr, dcapCfg, quote, [32]byte{})
			if err != nil {
				return err
			}
			return printEAVR(eavr)
		},
	}
	cmd.Flags().StringVar(&enclaveKeyHex, "enclave_key", "", "hex-encoded enclave key address to attest")
	cmd.Flags().StringSliceVar(&allowedTCBStatuses, "allowed_tcb_statuses", nil, "comma-separated allow-listed TCB statuses")
	cmd.Flags().StringSliceVar(&allowedAdvisoryIDs, "allowed_advisory_ids", nil, "comma-separated allow-listed advisory ids")
	cmd.Flags().StringVar(&programPath, "program_path", "", "path to the DCAP verification program binary")
	cmd.Flags().StringVar(&proveMode, "prove_mode", "", "dev|local|bonsai")
	cmd.Flags().StringVar(&bonsaiAPIURL, "bonsai_api_url", "", "Bonsai proving service endpoint")
	cmd.Flags().StringVar(&bonsaiAPIKey, "bonsai_api_key", "", "Bonsai proving service API key")
	cmd.Flags().BoolVar(&disablePreExecution, "disable_pre_execution", false, "skip the local pre-execution sanity pass before proving")
	cmd.MarkFlagRequired("enclave_key")
	return cmd
}

func newAttestationZKDCAPSimCommand() *cobra.Command {
	var enclaveKeyHex string
	var advisoryIDs []string
	var isvEnclaveQuoteStatus string
	var tcbEvalDataNum uint32
	cmd := &cobra.Command{
		Use:   "zkdcap-sim",
		Short: "attest an enclave key with zkDCAP against a synthetic root of trust",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := common.HexToAddress(enclaveKeyHex)
			sim, err := zkdcap.SimConfigFromEnv()
			if err != nil {
				return err
			}
			sim.AdvisoryIDs = advisoryIDs
			sim.ISVEnclaveQuoteStatus = isvEnclaveQuoteStatus
			sim.TCBEvaluationDataNumber = tcbEvalDataNum

			zkCfg := zkdcap.Config{ProveMode: zkdcap.ProveMode(appConfig.ZKDCAPProveMode), Timeout: appConfig.AttestationTimeout}
			quote := dcap.Quote{ReportData: attestation.ReportBinding(addr)}
			eavr, err := zkdcap.AttestSimulated(cmd.Context(), zkCfg, addr, sim, quote, [32]byte{})
			if err != nil {
				return err
			}
			return printEAVR(eavr)
		},
	}
	cmd.Flags().StringVar(&enclaveKeyHex, "enclave_key", "", "hex-encoded enclave key address to attest")
	cmd.Flags().StringSliceVar(&advisoryIDs, "advisory_ids", nil, "synthetic advisory ids to report")
	cmd.Flags().StringVar(&isvEnclaveQuoteStatus, "isv_enclave_quote_status", "OK", "synthetic TCB status to report")
	cmd.Flags().Uint32Var(&tcbEvalDataNum, "tcb_eval_data_num", 1, "synthetic TCB evaluation data number to report")
	cmd.MarkFlagRequired("enclave_key")
	return cmd
}

func orDefault(flagValue, fallback string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return fallback
}
