// Copyright 2025 The lcp-enclave-go Authors

package hostbridge

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInfoReturnsNullTerminatedUTF8(t *testing.T) {
	var buf bytes.Buffer
	hooks := NewPrintHooks(log.New(&buf, "", 0))

	out := hooks.Info("enclave key initialized")
	require.Equal(t, byte(0), out[len(out)-1])
	require.Equal(t, "enclave key initialized", string(out[:len(out)-1]))
	require.Contains(t, buf.String(), "enclave key initialized")
}

func TestDebugReturnsNullTerminatedUTF8(t *testing.T) {
	var buf bytes.Buffer
	hooks := NewPrintHooks(log.New(&buf, "", 0))

	out := hooks.Debug("loaded store snapshot at sequence 4")
	require.Equal(t, byte(0), out[len(out)-1])
	require.Equal(t, "loaded store snapshot at sequence 4", string(out[:len(out)-1]))
	require.Contains(t, buf.String(), "loaded store snapshot at sequence 4")
}

func TestPrintHooksDefaultLoggerAcceptsNil(t *testing.T) {
	hooks := NewPrintHooks(nil)
	out := hooks.Info("hello")
	require.Equal(t, "hello\x00", string(out))
}
