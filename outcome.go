package verifier

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// OutcomeKind classifies the result of a verification.
type OutcomeKind int

const (
	// OutcomeValid means the signature recovered to an address.
	OutcomeValid OutcomeKind = iota
	// OutcomeRecoveryFailed means the signature parsed but no key satisfies it.
	OutcomeRecoveryFailed
	// OutcomeSignerMismatch means recovery succeeded to an address other than the claimed signer.
	OutcomeSignerMismatch
	// OutcomeMalformedTypedData means the request could not be turned into typed data.
	OutcomeMalformedTypedData
	// OutcomeMalformedSignature means the signature is not 65 bytes of hex.
	OutcomeMalformedSignature
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeValid:
		return "valid"
	case OutcomeRecoveryFailed:
		return "recovery_failed"
	case OutcomeSignerMismatch:
		return "signer_mismatch"
	case OutcomeMalformedTypedData:
		return "malformed_typed_data"
	case OutcomeMalformedSignature:
		return "malformed_signature"
	default:
		return "unknown"
	}
}

// Outcome is the result of one verification. Address is meaningful for
// OutcomeValid and OutcomeSignerMismatch only.
type Outcome struct {
	Kind    OutcomeKind
	Address common.Address
	Err     error
}

// Valid returns a successful outcome for addr.
func Valid(addr common.Address) Outcome {
	return Outcome{Kind: OutcomeValid, Address: addr}
}

// Invalid returns a failed outcome of the given kind.
func Invalid(kind OutcomeKind, err error) Outcome {
	return Outcome{Kind: kind, Err: err}
}

// IsValid reports whether the signature verified.
func (o Outcome) IsValid() bool {
	return o.Kind == OutcomeValid
}

// IsStructural reports whether the request could not be evaluated at all, as
// opposed to evaluating to a failed verification.
func (o Outcome) IsStructural() bool {
	return o.Kind == OutcomeMalformedTypedData || o.Kind == OutcomeMalformedSignature
}

// HasAddress reports whether recovery produced an address.
func (o Outcome) HasAddress() bool {
	return o.Kind == OutcomeValid || o.Kind == OutcomeSignerMismatch
}

// Response renders the outcome as the wire response. Recovered addresses are
// lowercase hex.
func (o Outcome) Response() VerifyResponse {
	var resp VerifyResponse
	resp.IsValid = o.IsValid()
	if o.HasAddress() {
		addr := hexutil.Encode(o.Address.Bytes())
		resp.RecoveredAddress = &addr
	}
	if o.Err != nil {
		msg := o.Err.Error()
		resp.Error = &msg
	}
	return resp
}

// ErrorResponse renders a failure that happened before a verification could
// start, such as an undecodable body.
func ErrorResponse(err error) VerifyResponse {
	msg := err.Error()
	return VerifyResponse{Error: &msg}
}
