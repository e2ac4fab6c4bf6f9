package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/d65v/vecbase"
	"github.com/d65v/vecbase/plugins/scorefilter"
)

var (
	// Global flags
	cfgFile         string
	flagDim         int
	flagMetric      string
	flagMaxElements int
	flagStoragePath string
	logLevel        string
	jsonLogs        bool
)

var rootCmd = &cobra.Command{
	Use:   "vecbase",
	Short: "Embeddable vector store with a single-layer proximity graph",
	Long: `vecbase - an embeddable vector store.

Vectors are float32 rows of a fixed dimensionality, keyed by string ids.
Similarity is cosine (default), euclidean or dot. Small stores are scanned
exactly; larger ones traverse a proximity graph greedily.

Running vecbase with no command inserts ten demo vectors and prints the
top-3 results for a sample query, same as 'vecbase run'.

Configuration is resolved from defaults, then environment variables, then
the --config file, then flags:

  VECBASE_DIM               Vector dimensionality (default: 128)
  VECBASE_METRIC            Similarity metric: cosine | euclidean | dot
  VECBASE_MAX_ELEMENTS      Max vectors held in memory (default: 1000000)
  VECBASE_STORAGE_PATH      Path for record stores and snapshots (default: ./data)
  VECBASE_PLUGIN_MIN_SCORE  Enables the score filter plugin at the given threshold

Examples:
  # Demo run with a 4-dimensional store
  vecbase run --dim 4

  # Interactive session
  vecbase repl --dim 4 --metric euclidean

  # Import a numpy matrix and keep the result as a snapshot
  vecbase import npy embeddings.npy --out embeddings.vecb

  # Copy a snapshot to S3
  vecbase snapshot push embeddings.vecb s3://my-bucket/embeddings.vecb`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Assigned here rather than in the composite literal: the closure refers
	// to runDemo, whose call chain reads rootCmd, and that self-reference in
	// the var initializer is an initialization cycle.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command %q, try --help", args[0])
		}
		return runDemo(cmd)
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file, layered over VECBASE_* env")
	pf.IntVar(&flagDim, "dim", 0, "vector dimensionality")
	pf.StringVar(&flagMetric, "metric", "", "similarity metric: cosine | euclidean | dot")
	pf.IntVar(&flagMaxElements, "max-elements", 0, "hard capacity ceiling")
	pf.StringVar(&flagStoragePath, "storage-path", "", "path for record stores and snapshots")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug | info | warn | error")
	pf.BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")
}

// loadConfig resolves the effective configuration. Precedence, lowest to
// highest: defaults, VECBASE_* environment variables, the --config file,
// command-line flags.
func loadConfig() (vecbase.Config, error) {
	cfg, err := vecbase.FromEnv()
	if err != nil {
		return vecbase.Config{}, err
	}

	if cfgFile != "" {
		data, err := os.ReadFile(cfgFile)
		if err != nil {
			return vecbase.Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return vecbase.Config{}, fmt.Errorf("parse config %s: %w", cfgFile, err)
		}
	}

	pf := rootCmd.PersistentFlags()
	if pf.Changed("dim") {
		cfg.Dim = flagDim
	}
	if pf.Changed("metric") {
		cfg.Metric = flagMetric
	}
	if pf.Changed("max-elements") {
		cfg.MaxElements = flagMaxElements
	}
	if pf.Changed("storage-path") {
		cfg.StoragePath = flagStoragePath
	}

	return cfg, nil
}

// storeOptions builds the construction options shared by every command that
// opens a store. Plugins are not part of the set: snapshot restores replay
// records through Insert, and registering hooks first would re-fire them on
// records they already processed.
func storeOptions(metrics vecbase.MetricsCollector) []vecbase.Option {
	return []vecbase.Option{
		vecbase.WithLogger(newLogger()),
		vecbase.WithMetricsCollector(metrics),
	}
}

// envPlugins returns the plugins selected by environment variables. The
// score filter joins only when its variable is set; an unconfigured
// threshold of zero would still drop negative euclidean scores.
func envPlugins() []vecbase.Plugin {
	var plugins []vecbase.Plugin
	if os.Getenv(scorefilter.EnvMinScore) != "" {
		plugins = append(plugins, scorefilter.NewFromEnv())
	}
	return plugins
}

// registerEnvPlugins adds the env-selected plugins to a store rebuilt from a
// snapshot, after the replay has finished.
func registerEnvPlugins(db *vecbase.VecBase) error {
	for _, p := range envPlugins() {
		if err := db.RegisterPlugin(p); err != nil {
			return err
		}
	}
	return nil
}

// openStore builds an empty store from cfg with the flag-selected logger, a
// basic metrics collector, and the env-gated score filter plugin.
func openStore(cfg vecbase.Config) (*vecbase.VecBase, *vecbase.BasicMetricsCollector, error) {
	metrics := &vecbase.BasicMetricsCollector{}
	opts := storeOptions(metrics)
	if plugins := envPlugins(); len(plugins) > 0 {
		opts = append(opts, vecbase.WithPlugins(plugins...))
	}
	db, err := vecbase.New(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return db, metrics, nil
}

func newLogger() *vecbase.Logger {
	level := parseLogLevel(logLevel)
	if jsonLogs {
		return vecbase.NewJSONLogger(level)
	}
	return vecbase.NewTextLogger(level)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
