package vecbase

import (
	"context"
	"time"
)

// BatchItem is one insert in a batch.
type BatchItem struct {
	ID       string
	Vector   []float32
	Metadata string
}

// BatchFailure names an item that could not be inserted and why.
type BatchFailure struct {
	ID  string
	Err error
}

// BatchResult reports the outcome of a batch insert.
type BatchResult struct {
	// Inserted counts the items that were applied.
	Inserted int

	// Failed lists each failed item with its reason, in batch order.
	Failed []BatchFailure
}

// BatchInsert applies Insert to each item sequentially. Failures are
// collected per item and never roll back earlier successes; later items are
// unaffected by earlier failures. Partial application with a precise failure
// report is the contract.
func (vb *VecBase) BatchInsert(ctx context.Context, items []BatchItem) BatchResult {
	start := time.Now()

	var result BatchResult
	for _, item := range items {
		if err := vb.insert(ctx, item.ID, item.Vector, item.Metadata); err != nil {
			result.Failed = append(result.Failed, BatchFailure{ID: item.ID, Err: err})
			continue
		}
		result.Inserted++
	}

	vb.metrics.RecordBatchInsert(len(items), len(result.Failed), time.Since(start))
	vb.logger.LogBatchInsert(ctx, len(items), len(result.Failed))
	return result
}
