package vecbase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchInsertAllSucceed(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2})

	res := db.BatchInsert(ctx, []BatchItem{
		{ID: "a", Vector: []float32{1, 0}, Metadata: "ma"},
		{ID: "b", Vector: []float32{0, 1}, Metadata: "mb"},
		{ID: "c", Vector: []float32{1, 1}, Metadata: "mc"},
	})

	assert.Equal(t, 3, res.Inserted)
	assert.Empty(t, res.Failed)
	assert.Equal(t, 3, db.Len())

	rec, ok := db.Get("b")
	require.True(t, ok)
	assert.Equal(t, "mb", rec.Metadata)
}

func TestBatchInsertPartialFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2})

	items := make([]BatchItem, 0, 10)
	for i := 0; i < 10; i++ {
		v := []float32{float32(i), 1}
		if i == 4 {
			v = []float32{1, 2, 3} // wrong dimension
		}
		items = append(items, BatchItem{ID: fmt.Sprintf("v%d", i), Vector: v})
	}

	res := db.BatchInsert(ctx, items)

	assert.Equal(t, 9, res.Inserted)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "v4", res.Failed[0].ID)

	var dm *ErrDimensionMismatch
	require.ErrorAs(t, res.Failed[0].Err, &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 3, dm.Got)

	assert.Equal(t, 9, db.Len())
	_, ok := db.Get("v4")
	assert.False(t, ok)
}

func TestBatchInsertContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2})

	res := db.BatchInsert(ctx, []BatchItem{
		{ID: "bad1", Vector: []float32{1}},
		{ID: "good", Vector: []float32{1, 0}},
		{ID: "bad2", Vector: []float32{1, 2, 3}},
	})

	assert.Equal(t, 1, res.Inserted)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, "bad1", res.Failed[0].ID)
	assert.Equal(t, "bad2", res.Failed[1].ID)

	_, ok := db.Get("good")
	assert.True(t, ok, "items after a failure are still applied")
}

func TestBatchInsertEmpty(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2})

	res := db.BatchInsert(ctx, nil)
	assert.Equal(t, 0, res.Inserted)
	assert.Empty(t, res.Failed)
}

func TestBatchInsertDuplicateIDLastWins(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, Config{Dim: 2, Metric: "dot"})

	res := db.BatchInsert(ctx, []BatchItem{
		{ID: "a", Vector: []float32{1, 0}, Metadata: "first"},
		{ID: "a", Vector: []float32{0, 1}, Metadata: "second"},
	})

	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, db.Len())

	rec, ok := db.Get("a")
	require.True(t, ok)
	assert.Equal(t, "second", rec.Metadata)
	assert.Equal(t, []float32{0, 1}, rec.Vector)
}

func TestBatchInsertRecordsMetrics(t *testing.T) {
	ctx := context.Background()
	collector := &BasicMetricsCollector{}
	db := newTestStore(t, Config{Dim: 2}, WithMetricsCollector(collector))

	db.BatchInsert(ctx, []BatchItem{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "bad", Vector: []float32{1}},
	})

	stats := collector.GetStats()
	assert.Equal(t, int64(1), stats.BatchInsertCount)
	assert.Equal(t, int64(2), stats.BatchInsertItems)
	assert.Equal(t, int64(1), stats.BatchInsertFailed)
	assert.Equal(t, int64(0), stats.InsertCount, "batch items bypass the single-insert recorder")
}
