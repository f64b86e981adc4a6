package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	verifier "github.com/microai-paygate/verifier"
	"github.com/microai-paygate/verifier/encoding"
	verifierhttp "github.com/microai-paygate/verifier/http"
)

const (
	testPrivateKeyHex = "380eb0f3d505f087e438eca80bc4df9a7faa24f868e69fc0440261a0fc0567dc"
	testRecipient     = "0x1234567890123456789012345678901234567890"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newTestVerifier(t *testing.T) *verifier.Verifier {
	t.Helper()
	v, err := verifier.New(verifier.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("verifier.New: %v", err)
	}
	return v
}

func TestAddress(t *testing.T) {
	out, err := execute(t, "address", "--key", testPrivateKeyHex)
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	if !strings.HasPrefix(out, "0x") || len(strings.TrimSpace(out)) != 42 {
		t.Errorf("unexpected address output %q", out)
	}
}

func TestAddress_KeyFromEnv(t *testing.T) {
	t.Setenv(keyEnv, "0x"+testPrivateKeyHex)
	fromEnv, err := execute(t, "address")
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	fromFlag, _ := execute(t, "address", "--key", testPrivateKeyHex)
	if fromEnv != fromFlag {
		t.Errorf("env key address %q != flag key address %q", fromEnv, fromFlag)
	}
}

func TestAddress_Mnemonic(t *testing.T) {
	out, err := execute(t, "address", "--mnemonic", "test test test test test test test test test test test junk", "--account-index", "1")
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	if got := strings.TrimSpace(out); got != "0x70997970C51812dc3A010C7d01b50e0d17dc79C8" {
		t.Errorf("address = %s", got)
	}
}

func TestNoKey(t *testing.T) {
	t.Setenv(keyEnv, "")
	if _, err := execute(t, "address"); err == nil || !strings.Contains(err.Error(), "no signing key") {
		t.Errorf("expected missing key error, got %v", err)
	}
}

func TestRequest_Verifies(t *testing.T) {
	tests := []struct {
		name  string
		extra []string
	}{
		{"json", nil},
		{"claimed signer on base", []string{"--claim", "--chain-id", "8453"}},
		{"base64", []string{"--base64"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"request", "--key", testPrivateKeyHex,
				"--recipient", testRecipient, "--amount", "100", "--nonce", "n1"}, tt.extra...)
			out, err := execute(t, args...)
			if err != nil {
				t.Fatalf("request: %v", err)
			}

			var req verifier.VerifyRequest
			if strings.Contains(strings.Join(tt.extra, " "), "--base64") {
				req, err = encoding.DecodeVerifyRequestString(strings.TrimSpace(out))
			} else {
				req, err = encoding.DecodeVerifyRequest(strings.NewReader(out))
			}
			if err != nil {
				t.Fatalf("decode output %q: %v", out, err)
			}
			if req.Context.Nonce != "n1" || req.Context.Token != "USDC" {
				t.Errorf("unexpected context %+v", req.Context)
			}

			o := newTestVerifier(t).VerifyRequest(context.Background(), "test", req)
			if !o.IsValid() {
				t.Errorf("signed request did not verify: %v", o.Err)
			}
		})
	}
}

func TestRequest_RandomNonce(t *testing.T) {
	args := []string{"request", "--key", testPrivateKeyHex, "--recipient", testRecipient, "--amount", "1"}
	a, err := execute(t, args...)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	b, _ := execute(t, args...)
	if a == b {
		t.Error("expected distinct nonces across invocations")
	}
}

func TestRequest_MissingFlags(t *testing.T) {
	if _, err := execute(t, "request", "--key", testPrivateKeyHex, "--amount", "1"); err == nil {
		t.Error("expected error without --recipient")
	}
}

func TestVerify(t *testing.T) {
	mux, err := verifierhttp.NewServeMux(&verifierhttp.Config{
		Verifier: newTestVerifier(t),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewServeMux: %v", err)
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, err := execute(t, "verify", "--key", testPrivateKeyHex, "--url", srv.URL,
		"--recipient", testRecipient, "--amount", "100", "--correlation-id", "cli-1", "--claim")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	var result struct {
		Status        int                     `json:"status"`
		CorrelationID string                  `json:"correlation_id"`
		Response      verifier.VerifyResponse `json:"response"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid output %q: %v", out, err)
	}
	if result.Status != 200 || !result.Response.IsValid || result.CorrelationID != "cli-1" {
		t.Errorf("unexpected result %+v", result)
	}
}
