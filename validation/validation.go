// Package validation holds the wire-level checks applied to a payment
// context and its signature before either is decoded.
package validation

import (
	"fmt"
	"regexp"
)

var (
	// evmAddressRegex matches Ethereum-style addresses (0x followed by 40 hex chars)
	evmAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

	// hexStringRegex matches 0x-prefixed (or bare) hex of any even length
	hexStringRegex = regexp.MustCompile(`^(0[xX])?([a-fA-F0-9]{2})*$`)
)

// ValidateAddress validates that address is 0x followed by 40 hex characters.
// Checksum casing is not enforced.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if !evmAddressRegex.MatchString(address) {
		return fmt.Errorf("invalid EVM address format: %s (expected 0x followed by 40 hex characters)", address)
	}
	return nil
}

// ValidateHex reports whether s is well-formed, even-length hex.
func ValidateHex(s string) error {
	if !hexStringRegex.MatchString(s) {
		return fmt.Errorf("invalid hex string: %q", s)
	}
	return nil
}

// ValidatePaymentFields validates the signed members of a payment context.
// Token, amount and nonce are opaque text and are accepted as given.
func ValidatePaymentFields(recipient, token, amount, nonce string) error {
	if err := ValidateAddress(recipient); err != nil {
		return fmt.Errorf("invalid context: recipient %w", err)
	}
	return nil
}
