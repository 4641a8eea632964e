package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"invoice-dashboard/internal/config"
	"invoice-dashboard/internal/logger"
)

var version = "1.0.0"

var appCfg config.AppConfig

var rootCmd = &cobra.Command{
	Use:   "invoice-dashboard",
	Short: "Accounts receivable dashboard: invoice aging, KPIs and top customers",
	Long: `invoice-dashboard serves the invoicing dashboard API and prints
aging reports from the same engine.

Configuration is read from the environment; a .env file in the working
directory is loaded first when present.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envErr := godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := logger.Setup(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if envErr != nil {
			l := logger.WithComponent("cmd")
			l.Info().Err(envErr).Msg("no .env file loaded, using system env or defaults")
		}
		appCfg = cfg
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		l := logger.WithComponent("cmd")
		l.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
