package evm

import (
	"errors"
	"testing"

	verifier "github.com/microai-paygate/verifier"
)

// Well-known development phrase; its first accounts are published widely.
const devMnemonic = "test test test test test test test test test test test junk"

func TestWithMnemonic(t *testing.T) {
	tests := []struct {
		name  string
		index uint32
		want  string
	}{
		{"account 0", 0, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"},
		{"account 1", 1, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, err := NewSigner(WithMnemonic(devMnemonic, tt.index))
			if err != nil {
				t.Fatalf("NewSigner: %v", err)
			}
			if got := signer.Address().Hex(); got != tt.want {
				t.Errorf("Address() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWithMnemonic_SignsVerifiably(t *testing.T) {
	signer, err := NewSigner(WithMnemonic(devMnemonic, 0))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	req, err := signer.Request(testContext(), true)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	o := newTestVerifier(t).VerifyRequest(t.Context(), "test", req)
	if !o.IsValid() || o.Address != signer.Address() {
		t.Errorf("outcome = %+v, want valid for %s", o, signer.Address().Hex())
	}
}

func TestWithMnemonic_Invalid(t *testing.T) {
	for _, phrase := range []string{
		"",
		"not a real mnemonic phrase at all",
		"test test test test test test test test test test test",
	} {
		_, err := NewSigner(WithMnemonic(phrase, 0))
		if !errors.Is(err, verifier.ErrInvalidMnemonic) {
			t.Errorf("WithMnemonic(%q): expected ErrInvalidMnemonic, got %v", phrase, err)
		}
	}
}
