// Copyright 2025 The lcp-enclave-go Authors

package commitment

import (
	"bytes"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/datachainlab/lcp-enclave-go/pkg/lcperrors"
	"github.com/datachainlab/lcp-enclave-go/pkg/types"
)

// CommitmentProof binds an encoded ProxyMessage to the enclave key that
// attested it: Message is the exact bytes Encode produced, Signer is the
// address Signature must recover to (checked by Verify), and Signature is a
// 65-byte recoverable ECDSA signature over Keccak256(Message).
type CommitmentProof struct {
	Message   []byte
	Signer    types.Address
	Signature []byte
}

// SignMessage encodes msg, passes Keccak256 of the encoding to sign, and
// returns the resulting CommitmentProof with Signer set to signer. sign must
// return a 65-byte recoverable secp256k1 signature; SignMessage does not
// check that it recovers to signer.
func SignMessage(msg ProxyMessage, sign func(digest []byte) ([]byte, error), signer types.Address) (*CommitmentProof, error) {
	encoded, err := Encode(msg)
	if err != nil {
		return nil, err
	}
	digest := crypto.Keccak256(encoded)
	sig, err := sign(digest)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "sign commitment digest")
	}
	if len(sig) != 65 {
		return nil, lcperrors.Newf(lcperrors.KindAttestationFailed, "signature must be 65 bytes, got %d", len(sig))
	}
	return &CommitmentProof{
		Message:   encoded,
		Signer:    signer,
		Signature: sig,
	}, nil
}

// Verify checks that Signature recovers to Signer over Keccak256(Message),
// and that Message decodes to a well-formed ProxyMessage. It returns the
// decoded message on success.
func (p *CommitmentProof) Verify() (ProxyMessage, error) {
	if len(p.Signature) != 65 {
		return nil, lcperrors.Newf(lcperrors.KindAttestationFailed, "signature must be 65 bytes, got %d", len(p.Signature))
	}
	digest := crypto.Keccak256(p.Message)
	pubKey, err := crypto.SigToPub(digest, p.Signature)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindAttestationFailed, "recover public key from signature")
	}
	recovered := crypto.PubkeyToAddress(*pubKey)
	if !bytes.Equal(recovered.Bytes(), p.Signer.Bytes()) {
		return nil, lcperrors.Newf(lcperrors.KindAttestationFailed,
			"signature recovers to %s, want %s", recovered.Hex(), p.Signer.Hex())
	}
	return Decode(p.Message)
}

// EncodeProof serializes a CommitmentProof as an ABI (bytes, address, bytes)
// tuple, the shape an on-chain verifier's calldata decoder expects.
func EncodeProof(p *CommitmentProof) ([]byte, error) {
	out, err := commitmentProofArgs.Pack(p.Message, p.Signer, p.Signature)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "pack commitment proof")
	}
	return out, nil
}

// DecodeProof parses a CommitmentProof produced by EncodeProof.
func DecodeProof(data []byte) (*CommitmentProof, error) {
	unpacked, err := commitmentProofArgs.Unpack(data)
	if err != nil {
		return nil, lcperrors.Wrap(err, lcperrors.KindInvalidAbi, "unpack commitment proof")
	}
	message := *abi.ConvertType(unpacked[0], new([]byte)).(*[]byte)
	signer := *abi.ConvertType(unpacked[1], new(types.Address)).(*types.Address)
	signature := *abi.ConvertType(unpacked[2], new([]byte)).(*[]byte)
	return &CommitmentProof{
		Message:   message,
		Signer:    signer,
		Signature: signature,
	}, nil
}
