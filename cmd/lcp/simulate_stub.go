// Copyright 2025 The lcp-enclave-go Authors

//go:build !simulate

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

// newAttestationSimulateCommand is only available in builds tagged
// `simulate`; a production binary never fabricates an AVR.
func newAttestationSimulateCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "simulate",
		Hidden: true,
		Short:  "not available: rebuild with -tags simulate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("lcp was built without -tags simulate")
		},
	}
}
