package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/walletkit-demo/walletpass/internal/crypto"
	"github.com/walletkit-demo/walletpass/internal/keymanager"
	"github.com/walletkit-demo/walletpass/internal/services"
	"github.com/walletkit-demo/walletpass/internal/walletkit"
)

var envelopeCmd = &cobra.Command{
	Use:   "envelope",
	Short: "Build and examine pass envelopes",
}

var (
	payloadFile string
	instanceIDs []string
)

var envelopeBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Seal a pass into an envelope",
	Long: `Seal a pass into an envelope and print it with its save link.

Either pass a complete pass instance (JSON file, "-" for stdin) or the ids of instances
already created on the wallet server. The "iss" field is set to APP_ID.

Requires APP_ID and SIGNING_KEY_FILE. The content key is wrapped with RECIPIENT_KEY_FILE,
or with the built-in wallet server session key when it is not set.

Examples:
  walletpass envelope build --payload ./loyalty-instance.json
  walletpass envelope build --instance-id 20250101-0001 --instance-id 20250101-0002`,
	Args: cobra.NoArgs,
	RunE: runEnvelopeBuild,
}

var (
	recipientPrivateKeyPath string
	signerPublicKeyPath     string
	envelopeFile            string
)

var envelopeOpenCmd = &cobra.Command{
	Use:   "open [envelope | save-url]",
	Short: "Decrypt an envelope and verify its signature",
	Long: `Open an envelope the way the wallet server does: unwrap the content key with the recipient
private key, decrypt and decompress the payload, and verify the signature with the signer public key.

This only works with a recipient key pair you hold (sandbox keys); the wallet server's private key is never available.

Examples:
  walletpass envelope open --recipient-key ./keys/recipient.private.pem --signer-key ./keys/signer.public.pem "$ENVELOPE"
  walletpass envelope open --recipient-key ./keys/recipient.private.pem --signer-key ./keys/signer.public.pem --file envelope.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnvelopeOpen,
}

var envelopeInspectCmd = &cobra.Command{
	Use:   "inspect [envelope | save-url]",
	Short: "Show the header and segment sizes of an envelope",
	Long:  `Decode the parts of an envelope that can be read without keys.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEnvelopeInspect,
}

func init() {
	envelopeBuildCmd.Flags().StringVar(&payloadFile, "payload", "", `Pass instance JSON file ("-" for stdin)`)
	envelopeBuildCmd.Flags().StringSliceVar(&instanceIDs, "instance-id", nil, "Id of a pass instance on the wallet server (repeatable)")
	envelopeBuildCmd.MarkFlagsMutuallyExclusive("payload", "instance-id")
	envelopeBuildCmd.MarkFlagsOneRequired("payload", "instance-id")

	envelopeOpenCmd.Flags().StringVar(&recipientPrivateKeyPath, "recipient-key", "", "Recipient private key PEM file (required)")
	envelopeOpenCmd.Flags().StringVar(&signerPublicKeyPath, "signer-key", "", "Signer public key PEM file (required)")
	envelopeOpenCmd.Flags().StringVar(&envelopeFile, "file", "", `Read the envelope from a file ("-" for stdin)`)
	_ = envelopeOpenCmd.MarkFlagRequired("recipient-key")
	_ = envelopeOpenCmd.MarkFlagRequired("signer-key")

	envelopeInspectCmd.Flags().StringVar(&envelopeFile, "file", "", `Read the envelope from a file ("-" for stdin)`)

	envelopeCmd.AddCommand(envelopeBuildCmd)
	envelopeCmd.AddCommand(envelopeOpenCmd)
	envelopeCmd.AddCommand(envelopeInspectCmd)
}

func runEnvelopeBuild(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireSigner(); err != nil {
		return err
	}

	region, err := walletkit.ParseRegion(cfg.WalletRegion)
	if err != nil {
		return err
	}

	keys, err := keymanager.NewKeyManager(cmd.Context(), &keymanager.Config{
		KeysDir:          cfg.KeysDir,
		SigningKeyFile:   cfg.SigningKeyFile,
		RecipientKeyFile: cfg.RecipientKeyFile,
		CallbackKeyFile:  cfg.CallbackKeyFile,
	}, appLogger)
	if err != nil {
		return err
	}

	issuer, err := services.NewEnvelopeIssuer(cfg.AppID, region, keys)
	if err != nil {
		return err
	}

	req := services.IssueRequest{InstanceIDs: instanceIDs}
	if payloadFile != "" {
		req.Instance, err = readInput(cmd.InOrStdin(), payloadFile)
		if err != nil {
			return err
		}
	}

	issued, err := issuer.Issue(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "envelope: %s\n", issued.Envelope)
	fmt.Fprintf(out, "save url: %s\n", issued.SaveURL)
	return nil
}

func runEnvelopeOpen(cmd *cobra.Command, args []string) error {
	envelope, err := envelopeArg(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	recipientKeyPem, err := readKeyPEM(recipientPrivateKeyPath)
	if err != nil {
		return err
	}
	signerKeyPem, err := readKeyPEM(signerPublicKeyPath)
	if err != nil {
		return err
	}

	opened, err := crypto.OpenEnvelope(envelope, recipientKeyPem, signerKeyPem)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "signature: valid")
	fmt.Fprintln(out, "payload:")
	return writeJSON(out, []byte(opened.Payload))
}

func runEnvelopeInspect(cmd *cobra.Command, args []string) error {
	envelope, err := envelopeArg(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	return inspectEnvelope(cmd.OutOrStdout(), envelope)
}

// inspectEnvelope prints what can be learnt from an envelope without keys
func inspectEnvelope(w io.Writer, envelope string) error {
	env, err := crypto.ParseEnvelope(envelope)
	if err != nil {
		return err
	}

	header, err := crypto.DecodeHeader(env.Header)
	if err != nil {
		return err
	}

	wrappedKey, err := crypto.DecodeSegment(env.WrappedKey)
	if err != nil {
		return fmt.Errorf("wrapped key segment: %w", err)
	}
	iv, err := crypto.DecodeSegment(env.IV)
	if err != nil {
		return fmt.Errorf("iv segment: %w", err)
	}
	cipherText, err := crypto.DecodeSegment(env.CipherText)
	if err != nil {
		return fmt.Errorf("ciphertext segment: %w", err)
	}

	fmt.Fprintf(w, "header:      alg=%s enc=%s kid=%s zip=%s\n", header.Algorithm, header.Encryption, header.KeyID, header.Compression)
	fmt.Fprintf(w, "wrapped key: %d bytes (RSA-%d)\n", len(wrappedKey), len(wrappedKey)*8)
	fmt.Fprintf(w, "iv:          %s\n", iv)
	fmt.Fprintf(w, "ciphertext:  %d bytes compressed\n", len(cipherText))
	fmt.Fprintf(w, "signature:   %d characters\n", len(env.Signature))
	return nil
}

// envelopeArg returns the envelope from the argument or the --file flag.
// A save link is accepted in place of the envelope.
func envelopeArg(in io.Reader, args []string) (string, error) {
	var value string
	switch {
	case len(args) == 1 && envelopeFile != "":
		return "", fmt.Errorf("pass the envelope as an argument or with --file, not both")
	case len(args) == 1:
		value = strings.TrimSpace(args[0])
	case envelopeFile != "":
		s, err := trimmedInput(in, envelopeFile)
		if err != nil {
			return "", err
		}
		value = s
	default:
		return "", fmt.Errorf("an envelope is required")
	}

	if strings.HasPrefix(value, "https://") || strings.HasPrefix(value, "http://") {
		u, err := url.Parse(value)
		if err != nil {
			return "", fmt.Errorf("invalid save url: %w", err)
		}
		content := u.Query().Get("content")
		if content == "" {
			return "", fmt.Errorf("save url has no content parameter")
		}
		return content, nil
	}
	return value, nil
}

// writeJSON pretty prints data when it is JSON and writes it unchanged otherwise
func writeJSON(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		buf.Reset()
		buf.Write(data)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
