package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/askql/askql/internal/database"
)

var askExecute bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question and print the generated SQL",
	Long: `Translate a natural-language question into SQL using the full context
pipeline. With --execute the SQL also runs against the database and the
rows are printed.

Examples:
  askql ask "Show me all employees"
  askql ask --execute "What is the total sales amount?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askExecute, "execute", false, "Run the generated SQL and print the rows")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	question := strings.TrimSpace(args[0])
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.db.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Generating SQL..."
	s.Start()

	sql, err := p.orchestrator.GenerateSQL(ctx, question)

	s.Stop()

	if err != nil {
		return err
	}

	fmt.Println(sql)

	if !askExecute {
		return nil
	}

	result, err := p.db.Execute(ctx, sql)
	if err != nil {
		return err
	}

	printRows(result.Columns, result.Rows)
	fmt.Fprintf(os.Stderr, "%d row(s) in %s\n", len(result.Rows), result.Duration)

	return nil
}

func printRows(columns []string, rows []database.Row) {
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return
	}

	fmt.Println(strings.Join(columns, "\t"))

	for _, row := range rows {
		values := make([]string, len(columns))
		for i, col := range columns {
			values[i] = fmt.Sprintf("%v", row[col])
		}

		fmt.Println(strings.Join(values, "\t"))
	}
}
