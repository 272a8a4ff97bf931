// Copyright 2025 The lcp-enclave-go Authors

// Command lcp is the host binary that drives an enclave session's key
// lifecycle and attestation pipeline from the command line.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/datachainlab/lcp-enclave-go/pkg/config"
)

var (
	cfgHome    string
	logger     *log.Logger
	appConfig  *config.Config
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "lcp",
		Short:         "lcp manages an IBC light client enclave's key and attestation lifecycle",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfgHome != "" {
				cfg.Home = cfgHome
			}
			appConfig = cfg
			logger = log.New(log.Writer(), "[lcp] ", log.LstdFlags)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgHome, "home", "", "directory holding sealed_enclave_key and avr (default: $LCP_HOME or ./)")

	root.AddCommand(newEnclaveCommand())
	root.AddCommand(newAttestationCommand())
	return root
}
