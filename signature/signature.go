// Package signature parses 65-byte secp256k1 signatures from their hex form
// and recovers the signing address from a digest.
package signature

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/microai-paygate/verifier/validation"
)

// Length is the size of an r || s || v signature in bytes.
const Length = 65

var (
	// ErrFormat is the sentinel every *FormatError unwraps to.
	ErrFormat = errors.New("signature: malformed encoding")

	// ErrRecovery is the sentinel every *RecoveryError unwraps to.
	ErrRecovery = errors.New("signature: recovery failed")
)

// FormatError reports a signature string that is not 65 bytes of hex.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "signature: " + e.Reason
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// RecoveryError reports a well-formed signature from which no public key
// can be recovered.
type RecoveryError struct {
	Reason string
	Err    error
}

func (e *RecoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signature: %s: %v", e.Reason, e.Err)
	}
	return "signature: " + e.Reason
}

func (e *RecoveryError) Is(target error) bool {
	return target == ErrRecovery
}

func (e *RecoveryError) Unwrap() error {
	return e.Err
}

// Signature is a secp256k1 ECDSA signature with its recovery byte as it was
// received. V is not normalised until RecoveryID is called.
type Signature struct {
	R [32]byte
	S [32]byte
	V byte
}

// Parse decodes 130 hex characters, with or without a 0x prefix, into r
// (bytes 0-31), s (bytes 32-63) and v (byte 64). Input is never padded or
// truncated.
func Parse(s string) (Signature, error) {
	raw := s
	if len(raw) >= 2 && raw[0] == '0' && (raw[1] == 'x' || raw[1] == 'X') {
		raw = raw[2:]
	}
	if len(raw) != Length*2 {
		return Signature{}, &FormatError{Reason: fmt.Sprintf("expected %d hex characters, got %d", Length*2, len(raw))}
	}

	if err := validation.ValidateHex(raw); err != nil {
		return Signature{}, &FormatError{Reason: err.Error()}
	}

	b, err := hexutil.Decode("0x" + raw)
	if err != nil {
		return Signature{}, &FormatError{Reason: fmt.Sprintf("invalid hex: %v", err)}
	}
	return FromBytes(b)
}

// FromBytes splits a 65-byte r || s || v slice.
func FromBytes(b []byte) (Signature, error) {
	if len(b) != Length {
		return Signature{}, &FormatError{Reason: fmt.Sprintf("expected %d bytes, got %d", Length, len(b))}
	}
	var sig Signature
	copy(sig.R[:], b[:32])
	copy(sig.S[:], b[32:64])
	sig.V = b[64]
	return sig, nil
}

// Bytes returns r || s || v with v as received.
func (s Signature) Bytes() []byte {
	out := make([]byte, 0, Length)
	out = append(out, s.R[:]...)
	out = append(out, s.S[:]...)
	return append(out, s.V)
}

// Hex returns the 0x-prefixed lowercase encoding of Bytes.
func (s Signature) Hex() string {
	return hexutil.Encode(s.Bytes())
}

// RecoveryID maps v from {0, 1} or {27, 28} onto the {0, 1} recovery id.
func (s Signature) RecoveryID() (byte, error) {
	switch s.V {
	case 0, 1:
		return s.V, nil
	case 27, 28:
		return s.V - 27, nil
	default:
		return 0, &RecoveryError{Reason: fmt.Sprintf("invalid recovery identifier %d", s.V)}
	}
}

// Recover returns the address whose key produced s over digest: the low 20
// bytes of keccak256 of the uncompressed public key.
func (s Signature) Recover(digest common.Hash) (common.Address, error) {
	id, err := s.RecoveryID()
	if err != nil {
		return common.Address{}, err
	}

	r := new(big.Int).SetBytes(s.R[:])
	sv := new(big.Int).SetBytes(s.S[:])
	if r.Sign() == 0 || sv.Sign() == 0 {
		return common.Address{}, &RecoveryError{Reason: "r and s must be non-zero"}
	}
	// High-s values are accepted; only the curve order bounds r and s.
	if !crypto.ValidateSignatureValues(id, r, sv, false) {
		return common.Address{}, &RecoveryError{Reason: "r or s exceeds the curve order"}
	}

	normalized := make([]byte, 0, Length)
	normalized = append(normalized, s.R[:]...)
	normalized = append(normalized, s.S[:]...)
	normalized = append(normalized, id)

	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, &RecoveryError{Reason: "no public key satisfies the signature", Err: err}
	}
	return crypto.PubkeyToAddress(*pub), nil
}
