package verifier

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestVerifyRequest_JSONFieldNames(t *testing.T) {
	body := `{
		"context": {
			"recipient": "0x1234567890123456789012345678901234567890",
			"token": "USDC",
			"amount": "100",
			"nonce": "n1",
			"chainId": 84532
		},
		"signature": "0xabc"
	}`

	var req VerifyRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if req.Context.ChainID != 84532 {
		t.Errorf("ChainID = %d, want 84532", req.Context.ChainID)
	}
	if req.Context.Nonce != "n1" || req.Signature != "0xabc" {
		t.Errorf("unexpected request %+v", req)
	}
	if req.Signer != "" {
		t.Errorf("Signer = %q, want empty", req.Signer)
	}
}

func TestVerifyResponse_NullMembers(t *testing.T) {
	out, err := json.Marshal(VerifyResponse{IsValid: false})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"is_valid":false,"recovered_address":null,"error":null}`; string(out) != want {
		t.Errorf("Marshal = %s, want %s", out, want)
	}
}

func TestPaymentContext_Message(t *testing.T) {
	msg := testContext("n1").Message()
	if len(msg) != 4 {
		t.Fatalf("message has %d members, want 4", len(msg))
	}
	for _, k := range []string{"recipient", "token", "amount", "nonce"} {
		if _, ok := msg[k]; !ok {
			t.Errorf("message missing %s", k)
		}
	}
}

func TestVerifyRequest_ClaimedSigner(t *testing.T) {
	tests := []struct {
		name    string
		signer  string
		want    common.Address
		wantOK  bool
		wantErr bool
	}{
		{"absent", "", common.Address{}, false, false},
		{"lowercase", "0xcd2a3d9f938e13cd947ec05abc7fe734df8dd826", common.HexToAddress("0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"), true, false},
		{"malformed", "0xcd2a", common.Address{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := VerifyRequest{Signer: tt.signer}.ClaimedSigner()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ClaimedSigner() = %s, %v", got.Hex(), ok)
			}
		})
	}
}

func TestOutcome_Response(t *testing.T) {
	addr := common.HexToAddress("0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826")
	mismatch := NewVerificationError(ErrCodeSignerMismatch, msgVerification, errors.New("signer mismatch"))

	tests := []struct {
		name       string
		outcome    Outcome
		wantValid  bool
		wantAddr   string
		wantErrMsg string
	}{
		{"valid", Valid(addr), true, "0xcd2a3d9f938e13cd947ec05abc7fe734df8dd826", ""},
		{"mismatch keeps address", Outcome{Kind: OutcomeSignerMismatch, Address: addr, Err: mismatch}, false, "0xcd2a3d9f938e13cd947ec05abc7fe734df8dd826", "Verification failed: signer mismatch"},
		{"recovery failed", Invalid(OutcomeRecoveryFailed, NewVerificationError(ErrCodeRecovery, msgVerification, nil)), false, "", "Verification failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.outcome.Response()
			if resp.IsValid != tt.wantValid {
				t.Errorf("IsValid = %v, want %v", resp.IsValid, tt.wantValid)
			}
			switch {
			case tt.wantAddr == "" && resp.RecoveredAddress != nil:
				t.Errorf("RecoveredAddress = %q, want nil", *resp.RecoveredAddress)
			case tt.wantAddr != "" && (resp.RecoveredAddress == nil || *resp.RecoveredAddress != tt.wantAddr):
				t.Errorf("RecoveredAddress = %v, want %q", resp.RecoveredAddress, tt.wantAddr)
			}
			switch {
			case tt.wantErrMsg == "" && resp.Error != nil:
				t.Errorf("Error = %q, want nil", *resp.Error)
			case tt.wantErrMsg != "" && (resp.Error == nil || *resp.Error != tt.wantErrMsg):
				t.Errorf("Error = %v, want %q", resp.Error, tt.wantErrMsg)
			}
		})
	}
}

func TestOutcomeKind_String(t *testing.T) {
	tests := map[OutcomeKind]string{
		OutcomeValid:              "valid",
		OutcomeRecoveryFailed:     "recovery_failed",
		OutcomeSignerMismatch:     "signer_mismatch",
		OutcomeMalformedTypedData: "malformed_typed_data",
		OutcomeMalformedSignature: "malformed_signature",
		OutcomeKind(42):           "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(kind), got, want)
		}
	}
}
