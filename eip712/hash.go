package eip712

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// digestPrefix is the EIP-191 version byte pair for structured data.
var digestPrefix = []byte{0x19, 0x01}

// DomainSeparator returns hashStruct("EIP712Domain", domain).
func (td *TypedData) DomainSeparator() (common.Hash, error) {
	return td.HashStruct(DomainType, td.Domain.Message())
}

// Digest returns the 32-byte signing hash:
//
//	keccak256("\x19\x01" || domainSeparator || hashStruct(primaryType, message))
func (td *TypedData) Digest() (common.Hash, error) {
	domainSeparator, err := td.DomainSeparator()
	if err != nil {
		return common.Hash{}, err
	}
	messageHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(digestPrefix, domainSeparator.Bytes(), messageHash.Bytes()), nil
}
