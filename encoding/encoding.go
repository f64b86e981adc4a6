// Package encoding decodes and encodes the JSON bodies exchanged with the
// verification endpoint.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	verifier "github.com/microai-paygate/verifier"
)

// ErrMalformedBody is returned for bodies that are not a complete verify request.
var ErrMalformedBody = errors.New("encoding: malformed request body")

// wireRequest mirrors verifier.VerifyRequest with pointer members so that a
// missing member can be told apart from an empty one.
type wireRequest struct {
	Context   *wireContext `json:"context"`
	Signature *string      `json:"signature"`
	Signer    string       `json:"signer"`
}

type wireContext struct {
	Recipient *string `json:"recipient"`
	Token     *string `json:"token"`
	Amount    *string `json:"amount"`
	Nonce     *string `json:"nonce"`
	ChainID   *uint64 `json:"chainId"`
}

// DecodeVerifyRequest reads one JSON verify request from r. Every context
// member and the signature are required; unknown members are ignored.
//
// Returns an error wrapping ErrMalformedBody if the body is not valid JSON
// or a required member is missing or has the wrong type.
func DecodeVerifyRequest(r io.Reader) (verifier.VerifyRequest, error) {
	var wire wireRequest
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return verifier.VerifyRequest{}, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	if wire.Context == nil {
		return verifier.VerifyRequest{}, missing("context")
	}
	if wire.Signature == nil {
		return verifier.VerifyRequest{}, missing("signature")
	}
	c := wire.Context
	for _, m := range []struct {
		name string
		ok   bool
	}{
		{"context.recipient", c.Recipient != nil},
		{"context.token", c.Token != nil},
		{"context.amount", c.Amount != nil},
		{"context.nonce", c.Nonce != nil},
		{"context.chainId", c.ChainID != nil},
	} {
		if !m.ok {
			return verifier.VerifyRequest{}, missing(m.name)
		}
	}

	return verifier.VerifyRequest{
		Context: verifier.PaymentContext{
			Recipient: *c.Recipient,
			Token:     *c.Token,
			Amount:    *c.Amount,
			Nonce:     *c.Nonce,
			ChainID:   *c.ChainID,
		},
		Signature: *wire.Signature,
		Signer:    wire.Signer,
	}, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing field %q", ErrMalformedBody, field)
}

// EncodeVerifyResponse writes resp as a single line of JSON.
func EncodeVerifyResponse(w io.Writer, resp verifier.VerifyResponse) error {
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

// MarshalVerifyRequest returns the JSON body for req.
func MarshalVerifyRequest(req verifier.VerifyRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}

// EncodeVerifyRequest converts req to base64-encoded JSON, for transports
// that carry the request in a single header value.
func EncodeVerifyRequest(req verifier.VerifyRequest) (string, error) {
	body, err := MarshalVerifyRequest(req)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(body), nil
}

// DecodeVerifyRequestString is the inverse of EncodeVerifyRequest.
func DecodeVerifyRequestString(encoded string) (verifier.VerifyRequest, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return verifier.VerifyRequest{}, fmt.Errorf("%w: failed to decode base64: %v", ErrMalformedBody, err)
	}
	return DecodeVerifyRequest(bytes.NewReader(decoded))
}

// DecodeVerifyResponse reads a /verify response body.
func DecodeVerifyResponse(r io.Reader) (verifier.VerifyResponse, error) {
	var resp verifier.VerifyResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return verifier.VerifyResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}
