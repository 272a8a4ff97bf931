// Copyright 2025 The lcp-enclave-go Authors

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig is the optional `--config` YAML overlay for attestation
// subcommands: the DCAP/zkDCAP provider settings are too structured
// (allow-lists, a nested Bonsai client, per-call timeouts) to carry as
// flat env vars or flags alone.
type ProviderConfig struct {
	DCAP   DCAPProviderSettings   `yaml:"dcap"`
	ZKDCAP ZKDCAPProviderSettings `yaml:"zkdcap"`
}

// DCAPProviderSettings mirrors pkg/attestation/dcap.Config plus the
// allow-list attestation subcommand flags also accept.
type DCAPProviderSettings struct {
	PCCSURL                    string   `yaml:"pccs_url"`
	CertsServiceURL            string   `yaml:"certs_service_url"`
	UpdatePolicy               string   `yaml:"update_policy"`
	ExpectedTCBEvalDataNumber  int      `yaml:"expected_tcb_evaluation_data_number"`
	AllowedTCBStatuses         []string `yaml:"allowed_tcb_statuses"`
	AllowedAdvisoryIDs         []string `yaml:"allowed_advisory_ids"`
	Timeout                    Duration `yaml:"timeout"`
}

// ZKDCAPProviderSettings mirrors pkg/attestation/zkdcap.Config.
type ZKDCAPProviderSettings struct {
	ProgramPath          string   `yaml:"program_path"`
	ProveMode            string   `yaml:"prove_mode"`
	BonsaiAPIURL         string   `yaml:"bonsai_api_url"`
	BonsaiAPIKey         string   `yaml:"bonsai_api_key"`
	DisablePreExecution  bool     `yaml:"disable_pre_execution"`
	Timeout              Duration `yaml:"timeout"`
}

// Duration wraps time.Duration so ProviderConfig can be authored with
// Go-style duration strings ("30s") in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadProviderConfig reads a ProviderConfig from path, expanding
// ${VAR}/${VAR:-default} references against the process environment
// before parsing.
func LoadProviderConfig(path string) (*ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	expanded := substituteEnvVars(string(data))

	var cfg ProviderConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}
