package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the database and the generation service",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.db.Close()

	dbUp := p.db.CheckConnection(ctx)
	genErr := p.service.CheckHealth(ctx)

	fmt.Printf("database:           %s\n", okStatus(dbUp))

	if genErr != nil {
		fmt.Printf("generation service: down (%v)\n", genErr)
	} else {
		fmt.Println("generation service: ok")
	}

	if !dbUp || genErr != nil {
		return fmt.Errorf("one or more dependencies are unavailable")
	}

	return nil
}

func okStatus(up bool) string {
	if up {
		return "ok"
	}

	return "down"
}
