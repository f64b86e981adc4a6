// Package evm signs payment intents with a local secp256k1 key, producing
// the signatures the verifier recovers.
package evm

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/google/uuid"

	verifier "github.com/microai-paygate/verifier"
)

// Signer signs PaymentContexts under a fixed domain.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	domain     verifier.DomainConfig
}

// SignerOption configures a Signer.
type SignerOption func(*Signer) error

// NewSigner creates a new signer with the given options.
func NewSigner(opts ...SignerOption) (*Signer, error) {
	s := &Signer{
		domain: verifier.DefaultDomain,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.privateKey == nil {
		return nil, verifier.ErrInvalidKey
	}
	if err := s.domain.Validate(); err != nil {
		return nil, err
	}

	s.address = crypto.PubkeyToAddress(s.privateKey.PublicKey)
	return s, nil
}

// WithPrivateKey sets the private key from a hex string.
func WithPrivateKey(hexKey string) SignerOption {
	return func(s *Signer) error {
		// Remove 0x prefix if present
		hexKey = strings.TrimPrefix(hexKey, "0x")

		privateKey, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			return verifier.ErrInvalidKey
		}

		s.privateKey = privateKey
		return nil
	}
}

// WithDomain sets the signing domain. It must match the verifier's.
func WithDomain(d verifier.DomainConfig) SignerOption {
	return func(s *Signer) error {
		s.domain = d
		return nil
	}
}

// Address returns the address the verifier will recover.
func (s *Signer) Address() common.Address {
	return s.address
}

// TypedData returns the go-ethereum rendition of the typed data for pc.
func (s *Signer) TypedData(pc verifier.PaymentContext) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			verifier.PaymentType: []apitypes.Type{
				{Name: "recipient", Type: "address"},
				{Name: "token", Type: "string"},
				{Name: "amount", Type: "string"},
				{Name: "nonce", Type: "string"},
			},
		},
		PrimaryType: verifier.PaymentType,
		Domain: apitypes.TypedDataDomain{
			Name:              s.domain.Name,
			Version:           s.domain.Version,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(pc.ChainID)),
			VerifyingContract: s.domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"recipient": pc.Recipient,
			"token":     pc.Token,
			"amount":    pc.Amount,
			"nonce":     pc.Nonce,
		},
	}
}

// SignPayment signs pc and returns the 0x-prefixed signature with v in {27, 28}.
func (s *Signer) SignPayment(pc verifier.PaymentContext) (string, error) {
	if err := pc.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", verifier.ErrSchema, err)
	}

	digest, _, err := apitypes.TypedDataAndHash(s.TypedData(pc))
	if err != nil {
		return "", fmt.Errorf("%w: %v", verifier.ErrSchema, err)
	}

	signature, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign payment: %w", err)
	}

	// Adjust v value for Ethereum (27 or 28)
	signature[64] += 27

	return hexutil.Encode(signature), nil
}

// Request signs pc and returns a ready-to-send verify request claiming this
// signer when claim is set.
func (s *Signer) Request(pc verifier.PaymentContext, claim bool) (verifier.VerifyRequest, error) {
	sig, err := s.SignPayment(pc)
	if err != nil {
		return verifier.VerifyRequest{}, err
	}
	req := verifier.VerifyRequest{Context: pc, Signature: sig}
	if claim {
		req.Signer = s.address.Hex()
	}
	return req, nil
}

// NewNonce returns a fresh random nonce for a payment context.
func NewNonce() string {
	return uuid.New().String()
}
