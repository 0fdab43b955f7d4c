// keygen generates the RSA key pairs used by walletpass: the signer key that signs envelopes,
// and sandbox recipient or callback key pairs for testing without the wallet server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/walletkit-demo/walletpass/internal/crypto"
	"github.com/walletkit-demo/walletpass/internal/version"
)

// file naming convention - name.public.pem, name.private.pem (and .jwk)
const (
	publicKeyFileNameFormat  = "%s.public.%s"
	privateKeyFileNameFormat = "%s.private.%s"
)

var (
	name      string
	outputDir string
	format    string
	rsaSize   int
	kid       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "keygen",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "RSA key generator for walletpass",
		Long:              "Generate RSA key pairs in PEM (PKCS#8 / PKIX) and JWK format for envelope signing and sandbox testing",
	}

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new key pair",
		Long: `Generate a new RSA key pair.

Example:
  keygen generate --name signer --outputdir ./keys
  keygen generate --name recipient --outputdir ./keys --size 3072 --format pem`,
		RunE: runGenerate,
	}

	generateCmd.Flags().StringVarP(&name, "name", "n", "", "Key name used in the file names (e.g. signer) [required]")
	generateCmd.Flags().StringVarP(&outputDir, "outputdir", "o", "", "Output directory for generated keys [required]")
	generateCmd.Flags().StringVarP(&format, "format", "f", "both", "Output format: pem, jwk or both")
	generateCmd.Flags().IntVarP(&rsaSize, "size", "s", 3072, "RSA key size in bits (2048, 3072 or 4096)")
	generateCmd.Flags().StringVarP(&kid, "kid", "k", "", "Key ID (default: derived from the key thumbprint)")
	_ = generateCmd.MarkFlagRequired("name")
	_ = generateCmd.MarkFlagRequired("outputdir")

	rootCmd.AddCommand(generateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if format != "pem" && format != "jwk" && format != "both" {
		return fmt.Errorf("invalid format: %s (must be pem, jwk or both)", format)
	}

	if rsaSize != 2048 && rsaSize != 3072 && rsaSize != 4096 {
		return fmt.Errorf("invalid RSA key size: %d (must be 2048, 3072 or 4096)", rsaSize)
	}

	// make the directory if it doesn't exist
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	fmt.Printf("Generating %d-bit RSA key pair: %s\n", rsaSize, name)

	privateKey, err := crypto.GenerateRSAKeyPair(rsaSize)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	keyID := kid
	if keyID == "" {
		keyID, err = crypto.GenerateKeyIDFromRSAKey(&privateKey.PublicKey)
		if err != nil {
			return fmt.Errorf("failed to generate key ID: %w", err)
		}
	}

	if format == "pem" || format == "both" {
		publicFile := fmt.Sprintf(publicKeyFileNameFormat, name, "pem")
		if err := crypto.SaveRSAPublicKeyToPEMFile(&privateKey.PublicKey, outputDir, publicFile); err != nil {
			return fmt.Errorf("failed to save public key: %w", err)
		}
		fmt.Printf("✓ Public PEM:  %s/%s\n", outputDir, publicFile)

		privateFile := fmt.Sprintf(privateKeyFileNameFormat, name, "pem")
		if err := crypto.SaveRSAPrivateKeyToPEMFile(privateKey, outputDir, privateFile); err != nil {
			return fmt.Errorf("failed to save private key: %w", err)
		}
		fmt.Printf("✓ Private PEM: %s/%s\n", outputDir, privateFile)
	}

	if format == "jwk" || format == "both" {
		publicFile := fmt.Sprintf(publicKeyFileNameFormat, name, "jwk")
		if err := crypto.SaveRSAPublicKeyToJWKFile(&privateKey.PublicKey, keyID, outputDir, publicFile); err != nil {
			return fmt.Errorf("failed to save public key: %w", err)
		}
		fmt.Printf("✓ Public JWK:  %s/%s (kid: %s)\n", outputDir, publicFile, keyID)

		privateFile := fmt.Sprintf(privateKeyFileNameFormat, name, "jwk")
		if err := crypto.SaveRSAPrivateKeyToJWKFile(privateKey, keyID, outputDir, privateFile); err != nil {
			return fmt.Errorf("failed to save private key: %w", err)
		}
		fmt.Printf("✓ Private JWK: %s/%s (kid: %s)\n", outputDir, privateFile, keyID)
	}

	return nil
}
