// Copyright 2025 The lcp-enclave-go Authors

package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrDefaultPrefersFlagValue(t *testing.T) {
	require.Equal(t, "flag", orDefault("flag", "fallback"))
}

func TestOrDefaultFallsBackWhenFlagBlank(t *testing.T) {
	require.Equal(t, "fallback", orDefault("  ", "fallback"))
	require.Equal(t, "fallback", orDefault("", "fallback"))
}
