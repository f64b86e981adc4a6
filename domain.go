package verifier

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/microai-paygate/verifier/eip712"
)

// PaymentType is the primary type of every signed payment intent.
const PaymentType = "Payment"

// DomainConfig holds the signing domain members that are fixed per
// deployment. The chain id is the only member taken from the request.
type DomainConfig struct {
	Name              string
	Version           string
	VerifyingContract common.Address
}

// DefaultDomain is the MicroAI Paygate domain with the zero-address
// placeholder as verifying contract.
var DefaultDomain = DomainConfig{
	Name:    "MicroAI Paygate",
	Version: "1",
}

// Validate reports an unusable domain configuration.
func (d DomainConfig) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDomain)
	}
	if d.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidDomain)
	}
	return nil
}

// Domain binds the configuration to chainID.
func (d DomainConfig) Domain(chainID uint64) eip712.Domain {
	contract := d.VerifyingContract
	return eip712.Domain{
		Name:              d.Name,
		Version:           d.Version,
		ChainID:           new(big.Int).SetUint64(chainID),
		VerifyingContract: &contract,
	}
}

// PaymentTypes returns the Payment schema. Member order is part of the type
// hash and must not change.
func PaymentTypes() eip712.Types {
	return eip712.Types{
		PaymentType: {
			{Name: "recipient", Type: "address"},
			{Name: "token", Type: "string"},
			{Name: "amount", Type: "string"},
			{Name: "nonce", Type: "string"},
		},
	}
}

// TypedData builds the typed data a signer of pc is expected to have signed.
func (d DomainConfig) TypedData(pc PaymentContext) (*eip712.TypedData, error) {
	return eip712.New(PaymentTypes(), PaymentType, d.Domain(pc.ChainID), pc.Message())
}

// Digest returns the EIP-712 signing digest for pc under this domain.
func (d DomainConfig) Digest(pc PaymentContext) (common.Hash, error) {
	td, err := d.TypedData(pc)
	if err != nil {
		return common.Hash{}, err
	}
	return td.Digest()
}
