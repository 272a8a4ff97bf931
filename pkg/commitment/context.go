// Copyright 2025 The lcp-enclave-go Authors

package commitment

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// ContextType tags which ValidationContext variant a context header holds.
type ContextType uint8

const (
	ContextTypeEmpty         ContextType = 0
	ContextTypeTrustingPeriod ContextType = 1
)

// ValidationContext carries the temporal constraints an on-chain verifier
// must re-check before trusting a header update. The zero value is Empty.
type ValidationContext struct {
	Type                     ContextType
	TrustingPeriod           time.Duration
	ClockDrift               time.Duration
	UntrustedHeaderTimestamp types.Time
	TrustedStateTimestamp    types.Time
}

// EmptyContext returns the Empty validation context.
func EmptyContext() ValidationContext {
	return ValidationContext{Type: ContextTypeEmpty}
}

// contextHeaderLen is the 1-byte tag + 31 reserved bytes prefix ahead of the
// ABI-encoded payload, mirroring the outer message header's shape at a
// smaller scale.
const contextHeaderLen = 32

// EncodeContext serializes a ValidationContext as its own headered blob:
// a 1-byte type tag, 31 reserved bytes, then the ABI-encoded payload.
func EncodeContext(ctx ValidationContext) ([]byte, error) {
	head := make([]byte, contextHeaderLen)
	head[0] = byte(ctx.Type)

	switch ctx.Type {
	case ContextTypeEmpty:
		return head, nil
	case ContextTypeTrustingPeriod:
		payload, err := trustingPeriodArgs.Pack(
			uint64(ctx.TrustingPeriod.Nanoseconds()),
			uint64(ctx.ClockDrift.Nanoseconds()),
			new(big.Int).SetUint64(uint64(ctx.UntrustedHeaderTimestamp)),
			new(big.Int).SetUint64(uint64(ctx.TrustedStateTimestamp)),
		)
		if err != nil {
			return nil, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "pack trusting period context")
		}
		return append(head, payload...), nil
	default:
		return nil, lcperrors.Newf(lcperrors.KindInvalidMessageHeader, "unknown validation context type %d", ctx.Type)
	}
}

// DecodeContext parses a headered ValidationContext blob produced by
// EncodeContext. Reserved bytes are ignored, matching the outer header's
// forward-compatibility policy.
func DecodeContext(data []byte) (ValidationContext, error) {
	if len(data) < contextHeaderLen {
		return ValidationContext{}, lcperrors.Newf(lcperrors.KindInvalidMessageHeader,
			"validation context too short: %d bytes", len(data))
	}
	ctxType := ContextType(data[0])
	payload := data[contextHeaderLen:]

	switch ctxType {
	case ContextTypeEmpty:
		return EmptyContext(), nil
	case ContextTypeTrustingPeriod:
		unpacked, err := trustingPeriodArgs.Unpack(payload)
		if err != nil {
			return ValidationContext{}, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "unpack trusting period context")
		}
		trustingPeriodNanos := *abi.ConvertType(unpacked[0], new(uint64)).(*uint64)
		clockDriftNanos := *abi.ConvertType(unpacked[1], new(uint64)).(*uint64)
		untrusted := *abi.ConvertType(unpacked[2], new(*big.Int)).(**big.Int)
		trusted := *abi.ConvertType(unpacked[3], new(*big.Int)).(**big.Int)
		return ValidationContext{
			Type:                     ContextTypeTrustingPeriod,
			TrustingPeriod:           time.Duration(trustingPeriodNanos),
			ClockDrift:               time.Duration(clockDriftNanos),
			UntrustedHeaderTimestamp: types.Time(untrusted.Uint64()),
			TrustedStateTimestamp:    types.Time(trusted.Uint64()),
		}, nil
	default:
		return ValidationContext{}, lcperrors.Newf(lcperrors.KindInvalidMessageHeader, "unknown validation context type %d", ctxType)
	}
}

// Compose combines two validation contexts: Empty composes only with
// Empty, TrustingPeriod composes only with a matching TrustingPeriod and
// tightens the timestamp window, and mixed variants always fail.
func (a ValidationContext) Compose(b ValidationContext) (ValidationContext, error) {
	if a.Type != b.Type {
		return ValidationContext{}, lcperrors.New(lcperrors.KindMessageAggregationFailed,
			"cannot compose mismatched validation context types")
	}
	switch a.Type {
	case ContextTypeEmpty:
		return EmptyContext(), nil
	case ContextTypeTrustingPeriod:
		if a.TrustingPeriod != b.TrustingPeriod || a.ClockDrift != b.ClockDrift {
			return ValidationContext{}, lcperrors.New(lcperrors.KindMessageAggregationFailed,
				"trusting period and clock drift must match to compose")
		}
		composed := ValidationContext{
			Type:           ContextTypeTrustingPeriod,
			TrustingPeriod: a.TrustingPeriod,
			ClockDrift:     a.ClockDrift,
		}
		if a.UntrustedHeaderTimestamp > b.UntrustedHeaderTimestamp {
			composed.UntrustedHeaderTimestamp = a.UntrustedHeaderTimestamp
		} else {
			composed.UntrustedHeaderTimestamp = b.UntrustedHeaderTimestamp
		}
		if a.TrustedStateTimestamp < b.TrustedStateTimestamp {
			composed.TrustedStateTimestamp = a.TrustedStateTimestamp
		} else {
			composed.TrustedStateTimestamp = b.TrustedStateTimestamp
		}
		return composed, nil
	default:
		return ValidationContext{}, lcperrors.Newf(lcperrors.KindInvalidMessageHeader, "unknown validation context type %d", a.Type)
	}
}

// Validate re-checks the temporal constraints this context encodes against
// a wall-clock time, as an on-chain verifier would.
func (a ValidationContext) Validate(now types.Time) error {
	if a.Type != ContextTypeTrustingPeriod {
		return nil
	}
	driftBound := types.Time(uint64(now) + uint64(a.ClockDrift))
	if a.UntrustedHeaderTimestamp > driftBound {
		return lcperrors.New(lcperrors.KindHeaderNotWithinTrustPeriod, "header timestamp is ahead of local clock beyond allowed drift")
	}
	trustExpiry := uint64(a.TrustedStateTimestamp) + uint64(a.TrustingPeriod)
	if uint64(now) > trustExpiry {
		return lcperrors.New(lcperrors.KindHeaderNotWithinTrustPeriod, "trusted state has expired its trusting period")
	}
	return nil
}
