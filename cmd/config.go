package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the active configuration",
	Long:  `Show the merged configuration from the config file, environment variables, and defaults.`,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Println("Active Configuration:")

	fmt.Println("\nServer:")
	fmt.Printf("  Host: %s\n", cfg.Server.Host)
	fmt.Printf("  Port: %d\n", cfg.Server.Port)
	fmt.Printf("  Shutdown Timeout: %s\n", cfg.Server.ShutdownTimeout)

	fmt.Println("\nDatabase:")
	fmt.Printf("  Path: %s\n", cfg.Database.Path)
	fmt.Printf("  Query Timeout: %s\n", cfg.Database.QueryTimeout)
	fmt.Printf("  Seed Demo Data: %t\n", cfg.Database.Seed)
	fmt.Printf("  Sample Rows: %d\n", cfg.Database.SampleRows)

	fmt.Println("\nVector Store:")
	fmt.Printf("  URL: %s\n", cfg.Vector.URL)
	fmt.Printf("  Collection: %s\n", cfg.Vector.Collection)
	fmt.Printf("  Dimensions: %d\n", cfg.Vector.Dimensions)
	fmt.Printf("  Timeout: %s\n", cfg.Vector.Timeout)

	fmt.Println("\nGenerator:")
	fmt.Printf("  URL: %s\n", cfg.Generator.URL)
	fmt.Printf("  Timeout: %s\n", cfg.Generator.Timeout)
	fmt.Printf("  Training Timeout: %s\n", cfg.Generator.TrainingTimeout)
	fmt.Printf("  Max Retries: %d\n", cfg.Generator.MaxRetries)

	fmt.Println("\nRetriever:")
	fmt.Printf("  Limit: %d\n", cfg.Retriever.Limit)
	fmt.Printf("  Score Floor: %g\n", cfg.Retriever.ScoreFloor)

	fmt.Println("\nLogging:")
	fmt.Printf("  Level: %s\n", cfg.Logging.Level)
	fmt.Printf("  Format: %s\n", cfg.Logging.Format)
	fmt.Printf("  Output: %s\n", cfg.Logging.Output)

	return nil
}
