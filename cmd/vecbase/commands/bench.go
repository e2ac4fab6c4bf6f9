package commands

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/d65v/vecbase"
)

const benchDim = 128

var benchCount int

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the internal insert/search benchmark",
	Long: `Insert deterministic 128-dimensional vectors and time a top-10 search.

The workload is fixed so runs are comparable across machines and versions.
For statistically grounded numbers, run the Benchmark* functions in the
repository with 'go test -bench' instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		n := benchCount

		fmt.Println("[VecBase] Running internal benchmark...")

		cfg := vecbase.DefaultConfig()
		cfg.Dim = benchDim

		db, _, err := openStore(cfg)
		if err != nil {
			return err
		}

		// Vector generation dominates setup at large n; fan it out before
		// the timed section so the numbers cover the store alone.
		vectors := make([][]float32, n)
		g := new(errgroup.Group)
		g.SetLimit(runtime.GOMAXPROCS(0))
		const chunk = 512
		for lo := 0; lo < n; lo += chunk {
			hi := min(lo+chunk, n)
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					v := make([]float32, benchDim)
					for j := range v {
						v[j] = float32(math.Sin(float64(i * j)))
					}
					vectors[i] = v
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		t0 := time.Now()
		for i, v := range vectors {
			if err := db.Insert(ctx, fmt.Sprintf("b_%d", i), v, ""); err != nil {
				return fmt.Errorf("insert b_%d: %w", i, err)
			}
		}
		fmt.Printf("  Inserted %d vectors in %dms\n", n, time.Since(t0).Milliseconds())

		query := make([]float32, benchDim)
		for j := range query {
			query[j] = float32(math.Cos(float64(j)))
		}
		t1 := time.Now()
		_ = db.Search(ctx, query, 10)
		fmt.Printf("  Search (top-10) in %dµs\n", time.Since(t1).Microseconds())

		return nil
	},
}

func init() {
	benchCmd.Flags().IntVarP(&benchCount, "count", "n", 10_000, "vectors to insert")
	rootCmd.AddCommand(benchCmd)
}
