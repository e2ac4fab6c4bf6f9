package vecbase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d65v/vecbase/metric"
)

func newTestStore(t *testing.T, cfg Config, optFns ...Option) *VecBase {
	t.Helper()
	db, err := New(cfg, optFns...)
	require.NoError(t, err)
	return db
}

func TestNewValidation(t *testing.T) {
	t.Run("DimRequired", func(t *testing.T) {
		_, err := New(Config{Dim: 0})
		require.Error(t, err)

		var ce *ErrConfig
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "dim", ce.Field)

		_, err = New(Config{Dim: -4})
		assert.Error(t, err)
	})

	t.Run("UnrecognizedMetricFallsBackToCosine", func(t *testing.T) {
		db := newTestStore(t, Config{Dim: 2, Metric: "manhattan"})
		assert.Equal(t, "cosine", db.Config().Metric)
	})

	t.Run("MaxElementsDefaulted", func(t *testing.T) {
		db := newTestStore(t, Config{Dim: 2})
		assert.Equal(t, DefaultConfig().MaxElements, db.Config().MaxElements)
	})
}

func TestInsertGetRoundTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("CosineStoresNormalized", func(t *testing.T) {
		db := newTestStore(t, Config{Dim: 2, Metric: "cosine"})
		require.NoError(t, db.Insert(ctx, "a", []float32{3, 4}, "meta"))

		rec, ok := db.Get("a")
		require.True(t, ok)
		assert.Equal(t, "a", rec.ID)
		assert.Equal(t, "meta", rec.Metadata)
		assert.InDelta(t, 0.6, rec.Vector[0], 1e-6)
		assert.InDelta(t, 0.8, rec.Vector[1], 1e-6)
	})

	t.Run("EuclideanStoresVerbatim", func(t *testing.T) {
		db := newTestStore(t, Config{Dim: 2, Metric: "euclidean"})
		require.NoError(t, db.Insert(ctx, "a", []float32{3, 4}, ""))

		rec, ok := db.Get("a")
		require.True(t, ok)
		assert.Equal(t, []float32{3, 4}, rec.Vector)
	})

	t.Run("DotStoresVerbatim", func(t *testing.T) {
		db := newTestStore(t, Config{Dim: 2, Metric: "dot"})
		require.NoError(t, db.Insert(ctx, "a", []float32{3, 4}, ""))

		rec, ok := db.Get("a")
		require.True(t, ok)
		assert.Equal(t, []float32{3, 4}, rec.Vector)
	})

	t.Run("ZeroVectorSurvivesCosine", func(t *testing.T) {
		db := newTestStore(t, Config{Dim: 2, Metric: "cosine"})
		require.NoError(t, db.Insert(ctx, "zero", []float32{0, 0}, ""))

		rec, ok := db.Get("zero")
		require.True(t, ok)
		assert.Equal(t, []float32{0, 0}, rec.Vector)
	})
}

func TestInsertDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 3})

	err := db.Insert(ctx, "bad", []float32{1, 2}, "")
	require.Error(t, err)

	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Got)

	// Atomic no-op: nothing was stored anywhere.
	assert.Equal(t, 0, db.Len())
	_, ok := db.Get("bad")
	assert.False(t, ok)
}

func TestInsertLenSemantics(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2})

	require.NoError(t, db.Insert(ctx, "a", []float32{1, 0}, ""))
	assert.Equal(t, 1, db.Len())

	require.NoError(t, db.Insert(ctx, "b", []float32{0, 1}, ""))
	assert.Equal(t, 2, db.Len())

	// Overwrite keeps len unchanged.
	require.NoError(t, db.Insert(ctx, "a", []float32{0, 1}, ""))
	assert.Equal(t, 2, db.Len())
}

func TestInsertOverwriteReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2, Metric: "dot"})

	require.NoError(t, db.Insert(ctx, "a", []float32{1, 0}, "old"))
	require.NoError(t, db.Insert(ctx, "a", []float32{0, 1}, ""))

	rec, ok := db.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{0, 1}, rec.Vector)
	// Prior metadata is discarded, not merged.
	assert.Equal(t, "", rec.Metadata)

	// The graph sees the new vector, not the old one.
	res := db.Search(ctx, []float32{0, 1}, 1)
	require.Len(t, res, 1)
	assert.Equal(t, "a", res[0].ID)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
}

func TestInsertAtCapacity(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2, MaxElements: 2})

	require.NoError(t, db.Insert(ctx, "a", []float32{1, 0}, ""))
	require.NoError(t, db.Insert(ctx, "b", []float32{0, 1}, ""))
	// Third insert is silently dropped: nil error, no state change.
	require.NoError(t, db.Insert(ctx, "c", []float32{1, 1}, ""))

	assert.Equal(t, 2, db.Len())
	_, ok := db.Get("c")
	assert.False(t, ok)

	// Overwrites still work at the ceiling.
	require.NoError(t, db.Insert(ctx, "a", []float32{1, 1}, "updated"))
	assert.Equal(t, 2, db.Len())
	rec, ok := db.Get("a")
	require.True(t, ok)
	assert.Equal(t, "updated", rec.Metadata)
}

func TestSearchBasics(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2})

	assert.Empty(t, db.Search(ctx, []float32{1, 0}, 5), "empty store yields empty result")

	require.NoError(t, db.Insert(ctx, "a", []float32{1, 0}, "alpha"))
	require.NoError(t, db.Insert(ctx, "b", []float32{0.5, 0.5}, "beta"))
	require.NoError(t, db.Insert(ctx, "c", []float32{0, 1}, "gamma"))

	res := db.Search(ctx, []float32{1, 0}, 10)
	require.Len(t, res, 3, "k past store size returns everything in the exact regime")
	assert.Equal(t, "a", res[0].ID)
	assert.Equal(t, "alpha", res[0].Metadata)

	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}

	res = db.Search(ctx, []float32{1, 0}, 2)
	assert.Len(t, res, 2)
}

func TestSearchWrongDimensionIsSoftFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 3})
	require.NoError(t, db.Insert(ctx, "a", []float32{1, 0, 0}, ""))

	// Wrong-length query: empty result, no error, no panic. Asymmetric
	// with Insert's hard failure on purpose.
	res := db.Search(ctx, []float32{1, 0}, 5)
	assert.Empty(t, res)
}

func TestSearchScenarioAnimals(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 4, Metric: "cosine"})

	vectors := map[string][]float32{
		"cat":  {0.9, 0.1, 0, 0},
		"dog":  {0.8, 0.2, 0, 0},
		"car":  {0, 0, 0.9, 0.1},
		"bus":  {0, 0, 0.8, 0.2},
		"fish": {0.5, 0.5, 0, 0},
	}
	for id, v := range vectors {
		require.NoError(t, db.Insert(ctx, id, v, "label:"+id))
	}

	res := db.Search(ctx, []float32{0.95, 0.05, 0, 0}, 3)
	require.Len(t, res, 3)
	assert.Equal(t, "cat", res[0].ID)
	assert.Equal(t, "dog", res[1].ID)
	assert.Equal(t, "fish", res[2].ID)
	assert.Equal(t, "label:cat", res[0].Metadata)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2})

	require.NoError(t, db.Insert(ctx, "a", []float32{1, 0}, ""))
	require.NoError(t, db.Insert(ctx, "b", []float32{0, 1}, ""))

	require.NoError(t, db.Delete(ctx, "a"))
	assert.Equal(t, 1, db.Len())
	_, ok := db.Get("a")
	assert.False(t, ok)

	// Deleted ids never surface in searches.
	for _, r := range db.Search(ctx, []float32{1, 0}, 10) {
		assert.NotEqual(t, "a", r.ID)
	}

	err := db.Delete(ctx, "a")
	require.Error(t, err)

	var nf *ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "a", nf.ID)
	assert.Equal(t, 1, db.Len())
}

func TestDeleteEntryThenInsertAndSearch(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2})

	// First insert seeds the graph entry point; deleting it must not wedge
	// later operations.
	require.NoError(t, db.Insert(ctx, "entry", []float32{1, 0}, ""))
	require.NoError(t, db.Insert(ctx, "b", []float32{0, 1}, ""))
	require.NoError(t, db.Insert(ctx, "c", []float32{0.5, 0.5}, ""))

	require.NoError(t, db.Delete(ctx, "entry"))

	require.NoError(t, db.Insert(ctx, "d", []float32{0.9, 0.1}, ""))
	res := db.Search(ctx, []float32{0.9, 0.1}, 2)
	require.NotEmpty(t, res)
	assert.Equal(t, "d", res[0].ID)
}

func TestGetDefensiveCopy(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2, Metric: "dot"})
	require.NoError(t, db.Insert(ctx, "a", []float32{1, 2}, ""))

	rec, ok := db.Get("a")
	require.True(t, ok)
	rec.Vector[0] = 99

	again, ok := db.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2}, again.Vector)
}

func TestInsertDoesNotAliasCallerVector(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2, Metric: "dot"})

	v := []float32{1, 2}
	require.NoError(t, db.Insert(ctx, "a", v, ""))
	v[0] = 99

	rec, ok := db.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2}, rec.Vector)
}

func TestIsEmptyAndRange(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2})

	assert.True(t, db.IsEmpty())

	require.NoError(t, db.Insert(ctx, "a", []float32{1, 0}, "ma"))
	require.NoError(t, db.Insert(ctx, "b", []float32{0, 1}, "mb"))
	assert.False(t, db.IsEmpty())

	seen := map[string]string{}
	db.Range(func(rec VecRecord) bool {
		seen[rec.ID] = rec.Metadata
		return true
	})
	assert.Equal(t, map[string]string{"a": "ma", "b": "mb"}, seen)

	// Early stop.
	count := 0
	db.Range(func(rec VecRecord) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestStatsSnapshot(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2, Metric: "euclidean", MaxElements: 100})

	require.NoError(t, db.Insert(ctx, "a", []float32{1, 0}, ""))
	require.NoError(t, db.Insert(ctx, "b", []float32{0, 1}, ""))

	stats := db.Stats()
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 2, stats.Dim)
	assert.Equal(t, "euclidean", stats.Metric)
	assert.Equal(t, 2, stats.Graph.Nodes)
	assert.Equal(t, 100, stats.Graph.MaxElements)
}

func TestMetricsCollectorWiring(t *testing.T) {
	ctx := context.Background()
	collector := &BasicMetricsCollector{}
	db := newTestStore(t, Config{Dim: 2}, WithMetricsCollector(collector))

	require.NoError(t, db.Insert(ctx, "a", []float32{1, 0}, ""))
	require.Error(t, db.Insert(ctx, "bad", []float32{1}, ""))
	db.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, db.Delete(ctx, "a"))
	require.Error(t, db.Delete(ctx, "ghost"))

	stats := collector.GetStats()
	assert.Equal(t, int64(2), stats.InsertCount)
	assert.Equal(t, int64(1), stats.InsertErrors)
	assert.Equal(t, int64(1), stats.SearchCount)
	assert.Equal(t, int64(2), stats.DeleteCount)
	assert.Equal(t, int64(1), stats.DeleteErrors)
}

func TestEuclideanRanking(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2, Metric: "euclidean"})

	require.NoError(t, db.Insert(ctx, "near", []float32{1, 1}, ""))
	require.NoError(t, db.Insert(ctx, "far", []float32{10, 10}, ""))

	res := db.Search(ctx, []float32{0, 0}, 2)
	require.Len(t, res, 2)
	assert.Equal(t, "near", res[0].ID)
	assert.Negative(t, res[0].Score, "euclidean scores are negated distances")
}

func TestDotRankingRewardsMagnitude(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2, Metric: "dot"})

	require.NoError(t, db.Insert(ctx, "unit", []float32{1, 0}, ""))
	require.NoError(t, db.Insert(ctx, "long", []float32{4, 0}, ""))

	res := db.Search(ctx, []float32{1, 0}, 2)
	require.Len(t, res, 2)
	assert.Equal(t, "long", res[0].ID)
	assert.InDelta(t, 4.0, res[0].Score, 1e-6)
}

func TestManyInsertsStayConsistent(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 8})

	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("vec_%03d", i)
		v := make([]float32, 8)
		for j := range v {
			v[j] = float32((i+j)%17) / 17
		}
		require.NoError(t, db.Insert(ctx, id, v, fmt.Sprintf("meta %d", i)))
	}
	require.Equal(t, 200, db.Len())

	// Spot-delete and re-check lockstep.
	require.NoError(t, db.Delete(ctx, "vec_050"))
	require.NoError(t, db.Delete(ctx, "vec_100"))
	assert.Equal(t, 198, db.Len())
	assert.Equal(t, 198, db.Stats().Graph.Nodes)

	res := db.Search(ctx, db.mustVector(t, "vec_003"), 5)
	require.NotEmpty(t, res)
	assert.Equal(t, "vec_003", res[0].ID)
}

// mustVector fetches a stored vector for use as a query.
func (vb *VecBase) mustVector(t *testing.T, id string) []float32 {
	t.Helper()
	rec, ok := vb.Get(id)
	require.True(t, ok)
	return rec.Vector
}

func TestErrorsAreComparable(t *testing.T) {
	dm := &ErrDimensionMismatch{Expected: 4, Got: 2}
	assert.Equal(t, "dimension mismatch: expected 4, got 2", dm.Error())

	nf := &ErrNotFound{ID: "x"}
	assert.Equal(t, `not found: "x"`, nf.Error())

	ce := &ErrConfig{Field: "dim", Reason: "must be positive"}
	assert.Equal(t, "invalid config dim: must be positive", ce.Error())
	assert.Nil(t, errors.Unwrap(ce))

	pl := &ErrPluginLoad{Name: "p", Reason: "already registered"}
	assert.Equal(t, `plugin "p": already registered`, pl.Error())
}

func TestMetricParseIntegration(t *testing.T) {
	// The store's effective metric is the parsed one, round-tripped
	// through Config.
	db := newTestStore(t, Config{Dim: 2, Metric: "EUCLIDEAN"})
	assert.Equal(t, metric.Euclidean.String(), db.Config().Metric)
}
