// Package cli implements the walletpass command line tool.
//
// The commands read their settings from the environment (see config.ClientEnvironment).
// Output meant for scripts goes to stdout; logs go to stderr.
package cli

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/walletkit-demo/walletpass/internal/config"
	"github.com/walletkit-demo/walletpass/internal/logger"
	"github.com/walletkit-demo/walletpass/internal/version"
)

var (
	cfg       *config.ClientEnvironment
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "walletpass",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	Short:             "Wallet pass envelope and wallet server CLI",
	Long: `walletpass builds signed and encrypted pass envelopes, checks callback notification
signatures and calls the wallet server REST API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewClientConfig()
		if err != nil {
			log.Printf("failed to load configuration: %v", err.Error())
			return err
		}

		appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
		return nil
	},
}

func Execute() {
	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(envelopeCmd)
	rootCmd.AddCommand(callbackCmd)
	rootCmd.AddCommand(passCmd)
}
