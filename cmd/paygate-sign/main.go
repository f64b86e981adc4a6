// Command paygate-sign produces signed payment intents for the verifier, and
// can submit them to a running verifier.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	verifier "github.com/microai-paygate/verifier"
	"github.com/microai-paygate/verifier/encoding"
	"github.com/microai-paygate/verifier/evm"
	verifierhttp "github.com/microai-paygate/verifier/http"
)

// keyEnv supplies the private key when no key flag is given.
const keyEnv = "PAYGATE_SIGNER_KEY"

type options struct {
	key           string
	keystore      string
	password      string
	mnemonic      string
	accountIndex  uint32
	domainName    string
	domainVersion string

	recipient string
	token     string
	amount    string
	nonce     string
	chainID   uint64
	claim     bool
	base64    bool

	url           string
	correlationID string
	timeout       time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "paygate-sign",
		Short:         "Sign MicroAI Paygate payment intents",
		Long:          "Sign EIP-712 payment intents with a local key and print or submit verify requests.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.key, "key", "", "hex private key (default $"+keyEnv+")")
	pf.StringVar(&opts.keystore, "keystore", "", "path to an encrypted keystore file")
	pf.StringVar(&opts.password, "password", "", "keystore password")
	pf.StringVar(&opts.mnemonic, "mnemonic", "", "BIP39 phrase to derive the key from")
	pf.Uint32Var(&opts.accountIndex, "account-index", 0, "HD account index used with --mnemonic")
	pf.StringVar(&opts.domainName, "domain-name", verifier.DefaultDomain.Name, "EIP-712 domain name")
	pf.StringVar(&opts.domainVersion, "domain-version", verifier.DefaultDomain.Version, "EIP-712 domain version")

	root.AddCommand(newAddressCmd(opts), newRequestCmd(opts), newVerifyCmd(opts))
	return root
}

func addPaymentFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVar(&opts.recipient, "recipient", "", "payee address (0x + 40 hex)")
	f.StringVar(&opts.token, "token", "USDC", "token symbol")
	f.StringVar(&opts.amount, "amount", "", "amount as a decimal string")
	f.StringVar(&opts.nonce, "nonce", "", "request nonce (default random UUID)")
	f.Uint64Var(&opts.chainID, "chain-id", verifier.EthereumMainnet.ChainID, "chain id bound into the signing domain")
	f.BoolVar(&opts.claim, "claim", false, "include the signer address as a claim")
	_ = cmd.MarkFlagRequired("recipient")
	_ = cmd.MarkFlagRequired("amount")
}

func newAddressCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the signer address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := opts.signer()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signer.Address().Hex())
			return nil
		},
	}
}

func newRequestCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Print a signed verify request body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			if opts.base64 {
				encoded, err := encoding.EncodeVerifyRequest(req)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), encoded)
				return nil
			}
			body, err := encoding.MarshalVerifyRequest(req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		},
	}
	addPaymentFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.base64, "base64", false, "print base64-encoded JSON")
	return cmd
}

func newVerifyCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Sign a payment intent and submit it to a verifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			client, err := verifierhttp.NewClient(opts.url, verifierhttp.WithTimeout(opts.timeout))
			if err != nil {
				return err
			}
			result, err := client.Verify(cmd.Context(), opts.correlationID, req)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(struct {
				Status        int                     `json:"status"`
				CorrelationID string                  `json:"correlation_id"`
				Response      verifier.VerifyResponse `json:"response"`
			}{result.Status, result.CorrelationID, result.Response}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	addPaymentFlags(cmd, opts)
	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "http://localhost:3002", "verifier base URL")
	f.StringVar(&opts.correlationID, "correlation-id", "", "X-Correlation-ID to send")
	f.DurationVar(&opts.timeout, "timeout", 5*time.Second, "per-attempt timeout")
	return cmd
}

func (o *options) signer() (*evm.Signer, error) {
	signerOpts := []evm.SignerOption{
		evm.WithDomain(verifier.DomainConfig{Name: o.domainName, Version: o.domainVersion}),
	}
	switch {
	case o.keystore != "":
		signerOpts = append(signerOpts, evm.WithKeystore(o.keystore, o.password))
	case o.mnemonic != "":
		signerOpts = append(signerOpts, evm.WithMnemonic(o.mnemonic, o.accountIndex))
	case o.key != "":
		signerOpts = append(signerOpts, evm.WithPrivateKey(o.key))
	case os.Getenv(keyEnv) != "":
		signerOpts = append(signerOpts, evm.WithPrivateKey(os.Getenv(keyEnv)))
	default:
		return nil, errors.New("no signing key: use --key, --keystore, --mnemonic or $" + keyEnv)
	}
	return evm.NewSigner(signerOpts...)
}

func (o *options) request() (verifier.VerifyRequest, error) {
	signer, err := o.signer()
	if err != nil {
		return verifier.VerifyRequest{}, err
	}
	nonce := o.nonce
	if nonce == "" {
		nonce = evm.NewNonce()
	}
	return signer.Request(verifier.PaymentContext{
		Recipient: o.recipient,
		Token:     o.token,
		Amount:    o.amount,
		Nonce:     nonce,
		ChainID:   o.chainID,
	}, o.claim)
}
