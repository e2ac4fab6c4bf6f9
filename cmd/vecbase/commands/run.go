package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Insert demo vectors and run a sample query",
	Long: `Insert ten demo vectors and print the top-3 results for a sample query.

The demo exercises the full insert and search path against the resolved
configuration, so it doubles as a smoke test for VECBASE_* settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDemo(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger()
	log.Info("config resolved",
		"dim", cfg.Dim,
		"metric", cfg.Metric,
		"max_elements", cfg.MaxElements,
	)

	db, _, err := openStore(cfg)
	if err != nil {
		return err
	}

	log.Info("inserting demo vectors")

	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("vec_%d", i)
		vector := make([]float32, cfg.Dim)
		for j := range vector {
			vector[j] = float32(i+j) / 100
		}
		if err := db.Insert(ctx, id, vector, fmt.Sprintf("demo metadata %d", i)); err != nil {
			return fmt.Errorf("insert %s: %w", id, err)
		}
	}

	log.Info("inserted demo vectors", "count", 10)

	query := make([]float32, cfg.Dim)
	for j := range query {
		query[j] = float32(j) / 100
	}
	results := db.Search(ctx, query, 3)

	fmt.Println("\n[VecBase] Top-3 results for demo query:")
	for _, r := range results {
		fmt.Printf("  id=%-8s  score=%.6f  meta=%q\n", r.ID, r.Score, r.Metadata)
	}

	log.Info("demo complete")
	return nil
}
