// Package scorefilter provides a store plugin that clamps vector components
// to [-1, 1] on insert and drops search results below a score threshold.
package scorefilter

import (
	"context"
	"os"
	"strconv"

	"github.com/d65v/vecbase"
)

// EnvMinScore configures the threshold for NewFromEnv.
const EnvMinScore = "VECBASE_PLUGIN_MIN_SCORE"

// Options configures the filter.
type Options struct {
	// Logger receives clamp and filter diagnostics.
	Logger *vecbase.Logger
}

// Filter is a vecbase.Plugin. On insert it clamps every vector component to
// [-1, 1] as a guard against out-of-range embeddings; on search it drops
// results scoring below MinScore.
type Filter struct {
	minScore float32
	logger   *vecbase.Logger
}

var _ vecbase.Plugin = (*Filter)(nil)

// New creates a Filter with the given threshold. A threshold of 0 keeps
// every non-negative score.
func New(minScore float32, optFns ...func(o *Options)) *Filter {
	opts := Options{Logger: vecbase.NoopLogger()}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = vecbase.NoopLogger()
	}
	return &Filter{minScore: minScore, logger: opts.Logger}
}

// NewFromEnv creates a Filter configured by the VECBASE_PLUGIN_MIN_SCORE
// environment variable. Missing or unparseable values mean no filtering.
func NewFromEnv(optFns ...func(o *Options)) *Filter {
	var minScore float32
	if v := os.Getenv(EnvMinScore); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			minScore = float32(parsed)
		}
	}
	return New(minScore, optFns...)
}

// Name implements vecbase.Plugin.
func (f *Filter) Name() string { return "score_filter" }

// Version implements vecbase.Plugin.
func (f *Filter) Version() string { return "1.0.0" }

// MinScore returns the configured threshold.
func (f *Filter) MinScore() float32 { return f.minScore }

// OnInit implements vecbase.Plugin.
func (f *Filter) OnInit() error {
	f.logger.InfoContext(context.Background(), "score filter loaded", "min_score", f.minScore)
	return nil
}

// OnInsert clamps every component to [-1, 1].
func (f *Filter) OnInsert(id string, vector []float32, _ *string) {
	clamped := 0
	for i, x := range vector {
		switch {
		case x > 1:
			vector[i] = 1
			clamped++
		case x < -1:
			vector[i] = -1
			clamped++
		}
	}
	if clamped > 0 {
		f.logger.DebugContext(context.Background(), "clamped components",
			"id", id,
			"clamped", clamped,
		)
	}
}

// OnSearchResults drops results scoring below the threshold. Results arrive
// sorted best first, so survivors keep their order.
func (f *Filter) OnSearchResults(results []vecbase.SearchResult) []vecbase.SearchResult {
	kept := results[:0]
	for _, r := range results {
		if r.Score >= f.minScore {
			kept = append(kept, r)
		}
	}
	if dropped := len(results) - len(kept); dropped > 0 {
		f.logger.DebugContext(context.Background(), "filtered low-score results",
			"dropped", dropped,
			"min_score", f.minScore,
		)
	}
	return kept
}
