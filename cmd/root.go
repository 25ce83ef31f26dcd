// Package cmd wires the CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/askql/askql/internal/config"
	"github.com/askql/askql/internal/logging"
)

// Version is stamped at build time.
var Version = "0.1.0"

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "askql",
	Short: "Ask your database questions in plain language",
	Long: `askql turns natural-language questions into SQL and runs them against
a local SQLite database. Table schemas are extracted, described, and
indexed in a vector store so questions reach the generation service
with the right context; pattern rules keep answers coming when the
service is down.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if cfgFile != "" {
			if err := os.Setenv("ASKQL_CONFIG", cfgFile); err != nil {
				return err
			}
		}

		var err error

		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logging.InitializeLogger(cfg.Logging)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Path to a JSON config file (default: $HOME/.config/askql/config.json)")
}

// Execute runs the CLI.
func Execute() error {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	return nil
}
