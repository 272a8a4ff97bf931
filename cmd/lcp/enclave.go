// Copyright 2025 The lcp-enclave-go Authors

package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datachainlab/lcp-enclave-go/pkg/attestation"
	"github.com/datachainlab/lcp-enclave-go/pkg/attestation/ias"
	"github.com/datachainlab/lcp-enclave-go/pkg/enclavekey"
	"github.com/datachainlab/lcp-enclave-go/pkg/router"
	"github.com/datachainlab/lcp-enclave-go/pkg/service"
)

func keyPath() string {
	return filepath.Join(appConfig.Home, "sealed_enclave_key")
}

func newEnclaveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enclave",
		Short: "manage the enclave's signing key and its IAS attestation",
	}
	cmd.AddCommand(newEnclaveInitKeyCommand())
	cmd.AddCommand(newEnclaveIASRemoteAttestationCommand())
	cmd.AddCommand(newEnclaveShowAVRCommand())
	return cmd
}

func newEnclaveInitKeyCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-key",
		Short: "mint and seal a new enclave key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ek := enclavekey.NewManager(keyPath(), logger)
			manage := service.NewManageFunc(ek, service.ManageOptions{Home: appConfig.Home})
			res, err := manage(cmd.Context(), router.EnclaveManageCommand{Op: router.OpInitKey, Force: force})
			if err != nil {
				return err
			}
			fmt.Printf("ENCLAVE_KEY=%s\n", res.Address.Hex())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing sealed key")
	return cmd
}

func newEnclaveIASRemoteAttestationCommand() *cobra.Command {
	var force bool
	var development bool
	cmd := &cobra.Command{
		Use:   "ias-remote-attestation",
		Short: "attest the enclave key with Intel IAS and persist the resulting AVR",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appConfig.ValidateForIASAttestation(); err != nil {
				return err
			}
			ek := enclavekey.NewManager(keyPath(), logger)
			if err := ek.Unseal(); err != nil {
				return err
			}
			mode := ias.ModeProduction
			if development {
				mode = ias.ModeDevelopment
			}
			iasCfg, err := ias.ConfigFromEnv(mode)
			if err != nil {
				return err
			}
			manage := service.NewManageFunc(ek, service.ManageOptions{
				Home: appConfig.Home,
				IAS:  service.IASOptions{Config: iasCfg},
			})
			res, err := manage(cmd.Context(), router.EnclaveManageCommand{Op: router.OpIASRemoteAttestation, Force: force})
			if err != nil {
				return err
			}
			fmt.Printf("ENCLAVE_KEY=%s\n", res.Address.Hex())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-attest even if an avr already exists")
	cmd.Flags().BoolVar(&development, "development", false, "use the IAS development endpoint")
	return cmd
}

func newEnclaveShowAVRCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show-avr",
		Short: "print the enclave key's address and the mrenclave recorded in its avr",
		RunE: func(cmd *cobra.Command, args []string) error {
			ek := enclavekey.NewManager(keyPath(), logger)
			if err := ek.Unseal(); err != nil {
				return err
			}
			addr, err := ek.Address()
			if err != nil {
				return err
			}
			eavr, err := attestation.Load(attestation.AVRPath(appConfig.Home))
			if err != nil {
				return err
			}
			fmt.Printf("ENCLAVE_KEY=%s\n", addr.Hex())
			fmt.Printf("MRENCLAVE=%s\n", mrEnclaveHex(eavr))
			return nil
		},
	}
}

// mrEnclaveHex pulls mrenclave out of whichever flavor's payload shape
// the persisted EAVR carries.
func mrEnclaveHex(eavr *attestation.EAVR) string {
	var quote struct {
		Quote struct {
			MrEnclave [32]byte `json:"mrenclave"`
		} `json:"quote"`
		MrEnclave [32]byte `json:"mrenclave"`
	}
	if err := json.Unmarshal(eavr.Payload, &quote); err != nil {
		return "unknown"
	}
	mr := quote.Quote.MrEnclave
	if mr == ([32]byte{}) {
		mr = quote.MrEnclave
	}
	return fmt.Sprintf("0x%x", mr)
}
