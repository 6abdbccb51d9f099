package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"conversiq-server/internal/config"
	"conversiq-server/internal/infrastructure/logger"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "conversiq-cli",
	Short: "ConversIQ CLI - maintenance commands for the ConversIQ backend",
	Long: `conversiq-cli runs maintenance tasks against the ConversIQ database.

Examples:
  conversiq-cli backfill-embeddings
  conversiq-cli migrate up
  conversiq-cli config show --format env`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.PersistentFlags().StringSlice("env-file", []string{".env", "../.env"}, "Env files to load before reading configuration")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}

// loadConfig applies env files and parses configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	paths, _ := cmd.Flags().GetStringSlice("env-file")
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to load %s: %v\n", path, err)
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg).With().Str("command", "conversiq-cli").Logger()
}
