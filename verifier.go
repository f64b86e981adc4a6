package verifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/microai-paygate/verifier/metrics"
	"github.com/microai-paygate/verifier/signature"
)

// Verifier recovers the signer of payment intents. It holds no per-request
// state and is safe for concurrent use.
type Verifier struct {
	domain   DomainConfig
	chains   ChainPolicy
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Verifier.
type Option func(*Verifier) error

// New creates a Verifier for DefaultDomain unless overridden by opts.
func New(opts ...Option) (*Verifier, error) {
	v := &Verifier{
		domain:   DefaultDomain,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if err := v.domain.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// WithDomain sets the constant members of the signing domain.
func WithDomain(d DomainConfig) Option {
	return func(v *Verifier) error {
		v.domain = d
		return nil
	}
}

// WithAllowedChains restricts verification to the given chain ids.
func WithAllowedChains(chainIDs ...uint64) Option {
	return func(v *Verifier) error {
		v.chains = NewChainPolicy(chainIDs...)
		return nil
	}
}

// WithLogger sets the logger used for per-request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) error {
		if logger != nil {
			v.logger = logger
		}
		return nil
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(v *Verifier) error {
		if r != nil {
			v.recorder = r
		}
		return nil
	}
}

// Domain returns the configured signing domain.
func (v *Verifier) Domain() DomainConfig {
	return v.domain
}

// Verify recovers the address that signed pc. Failures to build the typed
// data or parse the signature yield a structural outcome; a signature that
// parses but does not recover yields OutcomeRecoveryFailed.
func (v *Verifier) Verify(ctx context.Context, correlationID string, pc PaymentContext, signatureHex string) Outcome {
	return v.verify(ctx, correlationID, pc, signatureHex, nil)
}

// VerifyRequest is Verify plus the optional claimed-signer comparison.
func (v *Verifier) VerifyRequest(ctx context.Context, correlationID string, req VerifyRequest) Outcome {
	claimed, ok, err := req.ClaimedSigner()
	if err != nil {
		verr := NewVerificationError(ErrCodeSchema, msgSchema, fmt.Errorf("signer: %w", err))
		return v.finish(ctx, correlationID, req.Context, time.Now(), Invalid(OutcomeMalformedTypedData, verr))
	}
	if !ok {
		return v.verify(ctx, correlationID, req.Context, req.Signature, nil)
	}
	return v.verify(ctx, correlationID, req.Context, req.Signature, &claimed)
}

func (v *Verifier) verify(ctx context.Context, correlationID string, pc PaymentContext, signatureHex string, claimed *common.Address) Outcome {
	start := time.Now()

	v.logger.InfoContext(ctx, "verification request",
		"correlation_id", correlationID,
		"nonce", pc.Nonce,
		"chain_id", pc.ChainID,
	)

	if err := v.chains.Check(pc.ChainID); err != nil {
		verr := NewVerificationError(ErrCodeUnsupportedChain, msgSchema, err).
			WithDetails("chain_id", pc.ChainID)
		return v.finish(ctx, correlationID, pc, start, Invalid(OutcomeMalformedTypedData, verr))
	}

	if err := pc.Validate(); err != nil {
		verr := NewVerificationError(ErrCodeSchema, msgSchema, err)
		return v.finish(ctx, correlationID, pc, start, Invalid(OutcomeMalformedTypedData, verr))
	}

	digest, err := v.domain.Digest(pc)
	if err != nil {
		verr := NewVerificationError(ErrCodeSchema, msgSchema, err)
		return v.finish(ctx, correlationID, pc, start, Invalid(OutcomeMalformedTypedData, verr))
	}

	sig, err := signature.Parse(signatureHex)
	if err != nil {
		verr := NewVerificationError(ErrCodeSignatureFormat, msgSignatureFormat, err)
		return v.finish(ctx, correlationID, pc, start, Invalid(OutcomeMalformedSignature, verr))
	}

	addr, err := sig.Recover(digest)
	if err != nil {
		verr := NewVerificationError(ErrCodeRecovery, msgVerification, err)
		return v.finish(ctx, correlationID, pc, start, Invalid(OutcomeRecoveryFailed, verr))
	}

	if claimed != nil && *claimed != addr {
		verr := NewVerificationError(ErrCodeSignerMismatch, msgVerification,
			fmt.Errorf("signer mismatch: recovered %s, claimed %s",
				hexutil.Encode(addr.Bytes()), hexutil.Encode(claimed.Bytes()))).
			WithDetails("claimed", claimed.Hex())
		return v.finish(ctx, correlationID, pc, start, Outcome{Kind: OutcomeSignerMismatch, Address: addr, Err: verr})
	}

	return v.finish(ctx, correlationID, pc, start, Valid(addr))
}

func (v *Verifier) finish(ctx context.Context, correlationID string, pc PaymentContext, start time.Time, o Outcome) Outcome {
	chain := ChainLabel(pc.ChainID)
	v.recorder.IncOutcome(o.Kind.String(), chain)
	v.recorder.ObserveLatency("verify", time.Since(start), chain)

	attrs := []any{
		"correlation_id", correlationID,
		"nonce", pc.Nonce,
		"chain_id", pc.ChainID,
		"outcome", o.Kind.String(),
	}
	if o.HasAddress() {
		attrs = append(attrs, "recovered_address", hexutil.Encode(o.Address.Bytes()))
	}
	if o.IsValid() {
		v.logger.InfoContext(ctx, "signature valid", attrs...)
		return o
	}
	attrs = append(attrs, "error", o.Err)
	v.logger.WarnContext(ctx, "verification failed", attrs...)
	return o
}
