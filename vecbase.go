package vecbase

import (
	"context"
	"slices"
	"time"

	"github.com/d65v/vecbase/index"
	"github.com/d65v/vecbase/metric"
)

// VecRecord is a stored vector with its id and optional metadata.
type VecRecord struct {
	// ID is the unique primary key.
	ID string

	// Vector holds the stored values: L2-normalized under the cosine
	// metric, verbatim otherwise.
	Vector []float32

	// Metadata is an opaque caller-owned string, "" when absent.
	Metadata string
}

// SearchResult is one ranked hit joined with its record metadata.
type SearchResult struct {
	index.SearchResult

	// Metadata is the stored metadata of the matched record.
	Metadata string
}

// VecBase is an embeddable vector store: an id-keyed record map kept in
// lockstep with a proximity graph behind a single validating boundary.
//
// VecBase performs no locking and never suspends: every operation is
// synchronous and assumes exclusive access for its duration. The deployment
// contract is single mutator at a time, no reader overlapping a writer,
// enforced by the caller. There is no cancellation; the ctx parameters feed
// logging only.
type VecBase struct {
	cfg     Config
	metric  metric.Metric
	records map[string]VecRecord
	graph   *index.Graph

	plugins     []Plugin
	pluginNames map[string]struct{}

	metrics MetricsCollector
	logger  *Logger
}

// Stats is a point-in-time summary of store state.
type Stats struct {
	Records int
	Dim     int
	Metric  string
	Graph   index.Stats
}

// New creates a store from cfg. Dim must be positive; an unrecognized
// metric name degrades to cosine; MaxElements <= 0 takes the default cap.
func New(cfg Config, optFns ...Option) (*VecBase, error) {
	if cfg.Dim <= 0 {
		return nil, &ErrConfig{Field: "dim", Reason: "must be positive"}
	}
	if cfg.MaxElements <= 0 {
		cfg.MaxElements = DefaultConfig().MaxElements
	}
	cfg.Metric = metric.Parse(cfg.Metric).String()

	opts := applyOptions(optFns)

	vb := &VecBase{
		cfg:     cfg,
		metric:  metric.Parse(cfg.Metric),
		records: make(map[string]VecRecord),
		graph: index.New(func(o *index.Options) {
			o.MaxElements = cfg.MaxElements
		}),
		pluginNames: make(map[string]struct{}),
		metrics:     opts.metricsCollector,
		logger:      opts.logger,
	}

	for _, p := range opts.plugins {
		if err := vb.RegisterPlugin(p); err != nil {
			return nil, err
		}
	}

	return vb, nil
}

// Insert stores vector under id, replacing any existing record wholesale and
// rewiring the id into the graph as though new. A vector of the wrong length
// fails with ErrDimensionMismatch and changes nothing. A new id arriving
// while the store is at MaxElements is silently dropped (logged at warn, no
// error, no state change, no plugin hooks).
func (vb *VecBase) Insert(ctx context.Context, id string, vector []float32, metadata string) error {
	start := time.Now()
	err := vb.insert(ctx, id, vector, metadata)
	duration := time.Since(start)
	vb.metrics.RecordInsert(duration, err)
	vb.logger.LogInsert(ctx, id, len(vector), err)
	return err
}

func (vb *VecBase) insert(ctx context.Context, id string, vector []float32, metadata string) error {
	if len(vector) != vb.cfg.Dim {
		return &ErrDimensionMismatch{Expected: vb.cfg.Dim, Got: len(vector)}
	}

	// Capacity is decided before hooks fire, so plugins never observe an
	// insert that was discarded.
	if _, exists := vb.records[id]; !exists && len(vb.records) >= vb.cfg.MaxElements {
		vb.logger.WarnContext(ctx, "insert dropped at capacity",
			"id", id,
			"max_elements", vb.cfg.MaxElements,
		)
		return nil
	}

	vec := slices.Clone(vector)
	meta := metadata
	for _, p := range vb.plugins {
		p.OnInsert(id, vec, &meta)
	}

	if vb.metric == metric.Cosine {
		metric.NormalizeInPlace(vec)
	}

	vb.records[id] = VecRecord{ID: id, Vector: vec, Metadata: meta}
	vb.graph.Insert(id, vec)
	return nil
}

// Search returns up to k records ranked against query, best first. A query
// of the wrong length yields an empty result and a warning diagnostic, not
// an error; plugin hooks are skipped on that path. Under the cosine metric
// the query is normalized before ranking.
func (vb *VecBase) Search(ctx context.Context, query []float32, k int) []SearchResult {
	start := time.Now()
	results := vb.search(ctx, query, k)
	vb.metrics.RecordSearch(k, time.Since(start))
	vb.logger.LogSearch(ctx, k, len(results))
	return results
}

func (vb *VecBase) search(ctx context.Context, query []float32, k int) []SearchResult {
	if len(query) != vb.cfg.Dim {
		vb.logger.WarnContext(ctx, "query dimension mismatch",
			"expected", vb.cfg.Dim,
			"got", len(query),
		)
		return nil
	}

	q := query
	if vb.metric == metric.Cosine {
		q = metric.Normalize(query)
	}

	hits := vb.graph.Search(q, k, vb.metric)

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		rec, ok := vb.records[h.ID]
		if !ok {
			continue
		}
		results = append(results, SearchResult{SearchResult: h, Metadata: rec.Metadata})
	}

	for _, p := range vb.plugins {
		results = p.OnSearchResults(results)
	}

	return results
}

// Delete removes id from the record map and the graph together.
// An absent id fails with ErrNotFound.
func (vb *VecBase) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := vb.delete(id)
	vb.metrics.RecordDelete(time.Since(start), err)
	vb.logger.LogDelete(ctx, id, err)
	return err
}

func (vb *VecBase) delete(id string) error {
	if _, ok := vb.records[id]; !ok {
		return &ErrNotFound{ID: id}
	}
	delete(vb.records, id)
	vb.graph.Remove(id)
	return nil
}

// Get returns the record stored under id. The returned vector is a copy;
// mutating it does not affect the store. Get has no side effects.
func (vb *VecBase) Get(id string) (VecRecord, bool) {
	rec, ok := vb.records[id]
	if !ok {
		return VecRecord{}, false
	}
	rec.Vector = slices.Clone(rec.Vector)
	return rec, true
}

// Len returns the number of stored records.
func (vb *VecBase) Len() int {
	return len(vb.records)
}

// IsEmpty reports whether the store holds no records.
func (vb *VecBase) IsEmpty() bool {
	return len(vb.records) == 0
}

// Range calls fn for every stored record, in unspecified order, until fn
// returns false. The vector passed to fn is a copy.
func (vb *VecBase) Range(fn func(rec VecRecord) bool) {
	for _, rec := range vb.records {
		rec.Vector = slices.Clone(rec.Vector)
		if !fn(rec) {
			return
		}
	}
}

// Config returns the effective configuration.
func (vb *VecBase) Config() Config {
	return vb.cfg
}

// Stats returns a point-in-time summary of store and graph state.
func (vb *VecBase) Stats() Stats {
	return Stats{
		Records: len(vb.records),
		Dim:     vb.cfg.Dim,
		Metric:  vb.cfg.Metric,
		Graph:   vb.graph.Stats(),
	}
}
