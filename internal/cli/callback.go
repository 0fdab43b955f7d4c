package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/walletkit-demo/walletpass/internal/crypto"
	"github.com/walletkit-demo/walletpass/internal/keymanager"
	"github.com/walletkit-demo/walletpass/internal/services"
)

var callbackCmd = &cobra.Command{
	Use:   "callback",
	Short: "Work with wallet server callback notifications",
}

var (
	callbackBodyFile      string
	callbackSignature     string
	callbackSignatureFile string
	callbackPublicKeyPath string
)

var callbackVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the HMSSign signature of a callback notification",
	Long: `Verify the signature of a callback notification.

The body is the JSON object the wallet server posted; the signature is the value of its HMSSign header.
The key is --public-key, then CALLBACK_KEY_FILE in KEYS_DIR, then the built-in wallet server callback key.

Example:
  walletpass callback verify --body notification.json --signature "g6Ylid2v13..."`,
	Args: cobra.NoArgs,
	RunE: runCallbackVerify,
}

func init() {
	callbackVerifyCmd.Flags().StringVar(&callbackBodyFile, "body", "", `Notification JSON file ("-" for stdin) (required)`)
	callbackVerifyCmd.Flags().StringVar(&callbackSignature, "signature", "", "HMSSign header value")
	callbackVerifyCmd.Flags().StringVar(&callbackSignatureFile, "signature-file", "", "Read the HMSSign header value from a file")
	callbackVerifyCmd.Flags().StringVar(&callbackPublicKeyPath, "public-key", "", "Callback public key PEM file")
	_ = callbackVerifyCmd.MarkFlagRequired("body")
	callbackVerifyCmd.MarkFlagsMutuallyExclusive("signature", "signature-file")
	callbackVerifyCmd.MarkFlagsOneRequired("signature", "signature-file")

	callbackCmd.AddCommand(callbackVerifyCmd)
}

func runCallbackVerify(cmd *cobra.Command, args []string) error {
	body, err := readInput(cmd.InOrStdin(), callbackBodyFile)
	if err != nil {
		return err
	}

	signature := callbackSignature
	if callbackSignatureFile != "" {
		if signature, err = trimmedInput(cmd.InOrStdin(), callbackSignatureFile); err != nil {
			return err
		}
	}

	keyPem, err := callbackKeyPEM()
	if err != nil {
		return err
	}

	return verifyNotification(cmd.OutOrStdout(), body, signature, keyPem)
}

// verifyNotification checks the notification and reports the outcome on w.
// A signature that does not verify is returned as an error so the command exits non-zero.
func verifyNotification(w io.Writer, body []byte, signature, keyPem string) error {
	fields, err := services.ParseNotification(body)
	if err != nil {
		return err
	}

	if err := crypto.VerifySignature(crypto.Canonicalize(fields), keyPem, signature); err != nil {
		fmt.Fprintln(w, "signature: invalid")
		return err
	}

	fmt.Fprintln(w, "signature: valid")
	for _, k := range []string{"eventId", "eventType", "sceneType", "passTypeIdentifier", "passNumber", "eventTime"} {
		if v := fields[k]; v != "" {
			fmt.Fprintf(w, "%-19s %s\n", k+":", v)
		}
	}
	return nil
}

func callbackKeyPEM() (string, error) {
	switch {
	case callbackPublicKeyPath != "":
		return readKeyPEM(callbackPublicKeyPath)
	case cfg.CallbackKeyFile != "":
		return crypto.ReadPEMFile(cfg.KeysDir, cfg.CallbackKeyFile)
	default:
		return keymanager.BuiltInCallbackKeyPEM(), nil
	}
}
