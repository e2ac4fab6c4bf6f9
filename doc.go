// Package vecbase provides an embeddable in-process vector store for Go.
//
// Vectors are float32 slices keyed by string ids with optional string
// metadata. Search ranks by a configurable similarity metric (cosine,
// euclidean or dot) and always returns higher-is-better scores. A
// single-layer proximity graph accelerates search past a size threshold;
// below it every query is an exact scan.
//
// # Quick Start
//
//	ctx := context.Background()
//	db, err := vecbase.New(vecbase.Config{Dim: 4, Metric: "cosine"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = db.Insert(ctx, "cat", []float32{0.9, 0.1, 0, 0}, "label:cat")
//	_ = db.Insert(ctx, "car", []float32{0, 0, 0.9, 0.1}, "label:car")
//
//	for _, hit := range db.Search(ctx, []float32{0.95, 0.05, 0, 0}, 3) {
//	    fmt.Println(hit.ID, hit.Score, hit.Metadata)
//	}
//
// # Batch Insert
//
//	result := db.BatchInsert(ctx, []vecbase.BatchItem{
//	    {ID: "a", Vector: vecA},
//	    {ID: "b", Vector: vecB, Metadata: "label:b"},
//	})
//	fmt.Println(result.Inserted, len(result.Failed))
//
// # Plugins
//
// Plugins observe and mutate operations through a small capability
// interface: OnInsert runs after validation and before storage, and
// OnSearchResults post-processes ranked results. See RegisterPlugin.
//
// # Concurrency
//
// The store has no internal locking. Every operation assumes exclusive
// access for its duration: a single owning goroutine, or an external lock
// serializing all calls against one instance.
//
// Persistence, remote snapshot transfer and bulk import live in the
// persistence, blobstore and importer packages; the core store performs no
// I/O.
package vecbase
