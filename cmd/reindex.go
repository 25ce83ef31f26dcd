package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-extract the schema and rebuild the context index",
	Long: `Run schema extraction, rewrite the vector index, and retrain the
generation service. Use this after the database schema changes; the
lazy one-time training never picks up changes on its own.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.db.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Rebuilding schema context..."
	s.Start()

	err = p.orchestrator.Resync(ctx)

	s.Stop()

	if err != nil {
		return err
	}

	fmt.Printf("Schema context rebuilt (state: %s)\n", p.orchestrator.State())

	return nil
}
