// Package verifier checks EIP-712 signatures over payment intents and reports
// which address produced them.
package verifier

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/microai-paygate/verifier/eip712"
	"github.com/microai-paygate/verifier/validation"
)

// PaymentContext is the payment intent a caller signed. ChainID selects the
// signing domain and is not part of the signed message.
type PaymentContext struct {
	Recipient string `json:"recipient"`
	Token     string `json:"token"`
	Amount    string `json:"amount"`
	Nonce     string `json:"nonce"`
	ChainID   uint64 `json:"chainId"`
}

// Validate checks the context before typed data is built from it.
func (pc PaymentContext) Validate() error {
	return validation.ValidatePaymentFields(pc.Recipient, pc.Token, pc.Amount, pc.Nonce)
}

// Message returns the Payment struct value in schema order.
func (pc PaymentContext) Message() eip712.Message {
	return eip712.Message{
		"recipient": pc.Recipient,
		"token":     pc.Token,
		"amount":    pc.Amount,
		"nonce":     pc.Nonce,
	}
}

// VerifyRequest is the body of POST /verify.
type VerifyRequest struct {
	Context   PaymentContext `json:"context"`
	Signature string         `json:"signature"`

	// Signer optionally names the address the caller expects to recover.
	Signer string `json:"signer,omitempty"`
}

// ClaimedSigner parses Signer. The zero value and false are returned when no
// claim was made.
func (r VerifyRequest) ClaimedSigner() (common.Address, bool, error) {
	if r.Signer == "" {
		return common.Address{}, false, nil
	}
	if err := validation.ValidateAddress(r.Signer); err != nil {
		return common.Address{}, false, err
	}
	return common.HexToAddress(r.Signer), true, nil
}

// VerifyResponse is the body returned for every /verify request.
type VerifyResponse struct {
	IsValid          bool    `json:"is_valid"`
	RecoveredAddress *string `json:"recovered_address"`
	Error            *string `json:"error"`
}
