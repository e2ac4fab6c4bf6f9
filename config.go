package vecbase

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables read by FromEnv.
const (
	EnvDim         = "VECBASE_DIM"
	EnvMetric      = "VECBASE_METRIC"
	EnvMaxElements = "VECBASE_MAX_ELEMENTS"
	EnvStoragePath = "VECBASE_STORAGE_PATH"
)

// Config holds the store configuration. It is constructed once at process
// start and passed to New; the store keeps no ambient or global state.
type Config struct {
	// Dim is the required vector dimensionality. Must be positive.
	Dim int `yaml:"dim"`

	// Metric names the similarity metric: cosine, euclidean or dot.
	// Unrecognized values fall back to cosine.
	Metric string `yaml:"metric"`

	// MaxElements is the hard capacity ceiling. Inserts of new ids past the
	// ceiling are silently dropped; nothing is evicted.
	MaxElements int `yaml:"max_elements"`

	// StoragePath is reserved for persistence collaborators; the store
	// itself never touches it.
	StoragePath string `yaml:"storage_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Dim:         128,
		Metric:      "cosine",
		MaxElements: 1_000_000,
		StoragePath: "./data",
	}
}

// FromEnv builds a Config from VECBASE_* environment variables, starting
// from DefaultConfig. Malformed integer values are an ErrConfig, not a
// silent fallback.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvDim); v != "" {
		dim, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, &ErrConfig{Field: EnvDim, Reason: fmt.Sprintf("not an integer: %q", v), cause: err}
		}
		cfg.Dim = dim
	}
	if v := os.Getenv(EnvMetric); v != "" {
		cfg.Metric = v
	}
	if v := os.Getenv(EnvMaxElements); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, &ErrConfig{Field: EnvMaxElements, Reason: fmt.Sprintf("not an integer: %q", v), cause: err}
		}
		cfg.MaxElements = m
	}
	if v := os.Getenv(EnvStoragePath); v != "" {
		cfg.StoragePath = v
	}

	return cfg, nil
}

// LoadFile reads a YAML config file, layered over DefaultConfig. Fields
// absent from the file keep their defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ErrConfig{Field: path, Reason: "malformed yaml", cause: err}
	}

	return cfg, nil
}

// SaveFile writes the config as YAML.
func (c Config) SaveFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
