package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/walletkit-demo/walletpass/internal/walletkit"
)

var passCmd = &cobra.Command{
	Use:   "pass",
	Short: "Manage pass models and instances on the wallet server",
	Long: `Call the wallet server REST API.

<pass-type> is one of eventticket, flight, giftcard, loyalty, offer, transit.
<kind> is model or instance.

Requires APP_ID, APP_SECRET and WALLET_SERVER_BASE_URL. An access token is fetched from TOKEN_URL
with the client credentials grant.`,
}

var passBodyFile string

var passCreateCmd = &cobra.Command{
	Use:   "create <pass-type> <kind>",
	Short: "Create a pass model or instance",
	Example: `  walletpass pass create loyalty model --file model.json
  walletpass pass create loyalty instance --file instance.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPass(cmd, args, func(c *walletkit.Client, pt walletkit.PassType, kind walletkit.Kind, id string, body []byte) ([]byte, error) {
			return c.Create(cmd.Context(), pt, kind, body)
		})
	},
}

var passGetCmd = &cobra.Command{
	Use:   "get <pass-type> <kind> <id>",
	Short: "Get a pass model or instance",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPass(cmd, args, func(c *walletkit.Client, pt walletkit.PassType, kind walletkit.Kind, id string, body []byte) ([]byte, error) {
			return c.Get(cmd.Context(), pt, kind, id)
		})
	},
}

var passUpdateCmd = &cobra.Command{
	Use:   "update <pass-type> <kind> <id>",
	Short: "Replace a pass model or instance (PUT)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPass(cmd, args, func(c *walletkit.Client, pt walletkit.PassType, kind walletkit.Kind, id string, body []byte) ([]byte, error) {
			return c.FullUpdate(cmd.Context(), pt, kind, id, body)
		})
	},
}

var passPatchCmd = &cobra.Command{
	Use:   "patch <pass-type> <kind> <id>",
	Short: "Update some fields of a pass model or instance (PATCH)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPass(cmd, args, func(c *walletkit.Client, pt walletkit.PassType, kind walletkit.Kind, id string, body []byte) ([]byte, error) {
			return c.PartialUpdate(cmd.Context(), pt, kind, id, body)
		})
	},
}

var passAddMessageCmd = &cobra.Command{
	Use:     "add-message <pass-type> <kind> <id>",
	Short:   "Add a message to a pass model or instance",
	Example: `  walletpass pass add-message loyalty instance 20250101-0001 --file message.json`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPass(cmd, args, func(c *walletkit.Client, pt walletkit.PassType, kind walletkit.Kind, id string, body []byte) ([]byte, error) {
			return c.AddMessage(cmd.Context(), pt, kind, id, body)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{passCreateCmd, passUpdateCmd, passPatchCmd, passAddMessageCmd} {
		c.Flags().StringVar(&passBodyFile, "file", "", `Request body JSON file ("-" for stdin) (required)`)
		_ = c.MarkFlagRequired("file")
		passCmd.AddCommand(c)
	}
	passCmd.AddCommand(passGetCmd)
}

type passCall func(c *walletkit.Client, pt walletkit.PassType, kind walletkit.Kind, id string, body []byte) ([]byte, error)

// runPass parses the common arguments, calls the wallet server and prints the response
func runPass(cmd *cobra.Command, args []string, call passCall) error {
	if err := cfg.RequireWalletServer(); err != nil {
		return err
	}

	passType, err := walletkit.ParsePassType(args[0])
	if err != nil {
		return err
	}
	kind, err := walletkit.ParseKind(args[1])
	if err != nil {
		return err
	}
	var id string
	if len(args) > 2 {
		id = args[2]
	}

	var body []byte
	if cmd.Flags().Lookup("file") != nil {
		if body, err = readInput(cmd.InOrStdin(), passBodyFile); err != nil {
			return err
		}
	}

	client, err := walletkit.NewClient(cmd.Context(), walletkit.ClientConfig{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		TokenURL:  cfg.TokenURL,
		BaseURL:   cfg.WalletServerBaseURL,
		Timeout:   cfg.HTTPClientTimeout,
	}, appLogger)
	if err != nil {
		return err
	}

	resp, err := call(client, passType, kind, id, body)
	if err != nil {
		var apiErr *walletkit.APIError
		if errors.As(err, &apiErr) {
			appLogger.Error("wallet server rejected the request",
				slog.Int("status_code", apiErr.StatusCode),
				slog.String("pass_type", string(passType)),
				slog.String("kind", string(kind)))
			_ = writeJSON(cmd.ErrOrStderr(), []byte(apiErr.Body))
		}
		return fmt.Errorf("%s %s: %w", cmd.Name(), passType, err)
	}

	return writeJSON(cmd.OutOrStdout(), resp)
}
