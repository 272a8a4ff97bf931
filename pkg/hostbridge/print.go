// Copyright 2025 The lcp-enclave-go Authors

package hostbridge

import "log"

// PrintHooks are the two one-way channels an enclave session uses to
// surface log lines to the host: info for operator-facing messages,
// debug for everything else. Both return a null-terminated UTF-8 byte
// slice, the shape a host-side FFI caller expects to receive across the
// boundary rather than a Go string it cannot own directly.
type PrintHooks struct {
	logger *log.Logger
}

// NewPrintHooks builds PrintHooks that mirror every line through logger in
// addition to returning it across the boundary. logger may be nil for a
// component-prefixed default.
func NewPrintHooks(logger *log.Logger) *PrintHooks {
	if logger == nil {
		logger = log.New(log.Writer(), "[HostBridge] ", log.LstdFlags)
	}
	return &PrintHooks{logger: logger}
}

// Info logs msg at info level and returns it null-terminated.
func (p *PrintHooks) Info(msg string) []byte {
	p.logger.Printf("INFO %s", msg)
	return nullTerminate(msg)
}

// Debug logs msg at debug level and returns it null-terminated.
func (p *PrintHooks) Debug(msg string) []byte {
	p.logger.Printf("DEBUG %s", msg)
	return nullTerminate(msg)
}

func nullTerminate(s string) []byte {
	out := make([]byte, len(s)+1)
	copy(out, s)
	return out
}
