// Copyright 2025 The lcp-enclave-go Authors

// Package config holds process configuration for the lcp-enclave-go CLI:
// a flat struct populated from environment variables, with CLI flags
// (bound by cmd/lcp via cobra/pflag) free to override any field after
// Load returns.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
)

// Config holds the settings every lcp subcommand shares: where sealed
// state lives, and the default attestation provider endpoints a
// subcommand's flags fall back to when unset.
type Config struct {
	// Home is the directory sealed_enclave_key and avr are read from and
	// written to.
	Home string

	LogLevel string

	// IAS credentials are read as environment variables, never as flags.
	SPID    string
	IASKey  string
	IASMode string // "production" or "development"

	// DCAP / zkDCAP provider defaults; attestation subcommand flags
	// override these per invocation.
	PCCSURL                       string
	CertsServiceURL               string
	DCAPUpdatePolicy              string
	DCAPExpectedTCBEvalDataNumber int

	ZKDCAPProgramPath         string
	ZKDCAPProveMode           string
	BonsaiAPIURL              string
	BonsaiAPIKey              string
	ZKDCAPDisablePreExecution bool

	AttestationTimeout time.Duration

	MetricsAddr string
}

// Load reads Config from the process environment, applying the same
// defaults a fresh lcp installation would need to get started against a
// local PCCS/IAS test double.
func Load() (*Config, error) {
	return &Config{
		Home:     getEnv("LCP_HOME", "./"),
		LogLevel: getEnv("LCP_LOG_LEVEL", "info"),

		SPID:    getEnv("SPID", ""),
		IASKey:  getEnv("IAS_KEY", ""),
		IASMode: getEnv("LCP_IAS_MODE", "production"),

		PCCSURL:                       getEnv("LCP_PCCS_URL", ""),
		CertsServiceURL:               getEnv("LCP_CERTS_SERVICE_URL", ""),
		DCAPUpdatePolicy:              getEnv("LCP_DCAP_UPDATE_POLICY", "standard"),
		DCAPExpectedTCBEvalDataNumber: getEnvInt("LCP_DCAP_EXPECTED_TCB_EVAL_DATA_NUMBER", 0),

		ZKDCAPProgramPath:         getEnv("LCP_ZKDCAP_PROGRAM_PATH", ""),
		ZKDCAPProveMode:           getEnv("LCP_ZKDCAP_PROVE_MODE", "dev"),
		BonsaiAPIURL:              getEnv("BONSAI_API_URL", ""),
		BonsaiAPIKey:              getEnv("BONSAI_API_KEY", ""),
		ZKDCAPDisablePreExecution: getEnvBool("LCP_ZKDCAP_DISABLE_PRE_EXECUTION", false),

		AttestationTimeout: getEnvDuration("LCP_ATTESTATION_TIMEOUT", 30*time.Second),

		MetricsAddr: getEnv("LCP_METRICS_ADDR", ""),
	}, nil
}

// ValidateForIASAttestation checks the environment variables required for
// `enclave ias-remote-attestation`.
func (c *Config) ValidateForIASAttestation() error {
	if c.SPID == "" {
		return lcperrors.New(lcperrors.KindInputValidation, "SPID environment variable is required")
	}
	if c.IASKey == "" {
		return lcperrors.New(lcperrors.KindInputValidation, "IAS_KEY environment variable is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
