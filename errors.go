package verifier

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema indicates the typed data could not be assembled from the request.
	ErrSchema = errors.New("verifier: malformed typed data")

	// ErrSignatureFormat indicates the signature is not 65 bytes of hex.
	ErrSignatureFormat = errors.New("verifier: malformed signature")

	// ErrRecovery indicates a well-formed signature from which no address could be recovered.
	ErrRecovery = errors.New("verifier: signature recovery failed")

	// ErrSignerMismatch indicates the recovered address differs from the claimed signer.
	ErrSignerMismatch = errors.New("verifier: signer mismatch")

	// ErrUnsupportedChain indicates the context names a chain outside the allowlist.
	ErrUnsupportedChain = errors.New("verifier: unsupported chain")

	// ErrInvalidDomain indicates an unusable signing domain configuration.
	ErrInvalidDomain = errors.New("verifier: invalid signing domain")

	// ErrInvalidKey indicates an unparseable private key.
	ErrInvalidKey = errors.New("verifier: invalid private key")

	// ErrInvalidKeystore indicates an unreadable or undecryptable keystore file.
	ErrInvalidKeystore = errors.New("verifier: invalid keystore file")

	// ErrInvalidMnemonic indicates a BIP39 phrase that fails its checksum or derivation.
	ErrInvalidMnemonic = errors.New("verifier: invalid mnemonic phrase")
)

// ErrorCode classifies a VerificationError.
type ErrorCode string

const (
	ErrCodeSchema           ErrorCode = "MALFORMED_TYPED_DATA"
	ErrCodeSignatureFormat  ErrorCode = "MALFORMED_SIGNATURE"
	ErrCodeRecovery         ErrorCode = "RECOVERY_FAILED"
	ErrCodeSignerMismatch   ErrorCode = "SIGNER_MISMATCH"
	ErrCodeUnsupportedChain ErrorCode = "UNSUPPORTED_CHAIN"
)

// Wire prefixes for the error member of a verification response.
const (
	msgSchema          = "Failed to build typed data"
	msgSignatureFormat = "Invalid signature format"
	msgVerification    = "Verification failed"
)

// VerificationError is a coded verification failure carrying its cause.
type VerificationError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the error code, so callers can
// test with errors.Is regardless of the wrapped cause.
func (e *VerificationError) Is(target error) bool {
	switch e.Code {
	case ErrCodeSchema:
		return target == ErrSchema
	case ErrCodeUnsupportedChain:
		return target == ErrUnsupportedChain || target == ErrSchema
	case ErrCodeSignatureFormat:
		return target == ErrSignatureFormat
	case ErrCodeRecovery:
		return target == ErrRecovery
	case ErrCodeSignerMismatch:
		return target == ErrSignerMismatch
	}
	return false
}

// NewVerificationError creates a new VerificationError.
func NewVerificationError(code ErrorCode, message string, err error) *VerificationError {
	return &VerificationError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// WithDetails adds details to the error.
func (e *VerificationError) WithDetails(key string, value interface{}) *VerificationError {
	e.Details[key] = value
	return e
}
