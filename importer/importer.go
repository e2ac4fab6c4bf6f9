// Package importer bulk-loads vectors into a store from external sources:
// NumPy .npy files and SQLite databases.
package importer

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/d65v/vecbase"
)

// Options configures an import run.
type Options struct {
	// Prefix is prepended to the row index to form record ids ("vec_" by
	// default, so row 7 becomes "vec_7").
	Prefix string

	// DryRun parses and validates the source without inserting anything.
	DryRun bool

	// Logger receives progress and skip diagnostics.
	Logger *vecbase.Logger
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Prefix: "vec_",
		Logger: vecbase.NoopLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = vecbase.NoopLogger()
	}
	return opts
}

// Failure records a row that could not be inserted.
type Failure struct {
	ID  string
	Err error
}

// Report summarizes an import run.
type Report struct {
	// Imported counts rows inserted into the store.
	Imported int

	// Skipped counts rows dropped before insertion (NaN or Inf components).
	Skipped int

	// Failed lists rows the store rejected.
	Failed []Failure
}

// progress throttles per-row log output to one line per second.
func progress() *rate.Sometimes {
	return &rate.Sometimes{Interval: time.Second}
}
