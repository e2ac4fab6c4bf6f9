// Package index provides a single-layer proximity graph for approximate
// nearest neighbor search over string-keyed vectors.
//
// The graph switches between two regimes per call, based purely on current
// node count: at or below a fixed threshold it scans every node (exact); above
// it, it runs a greedy best-first traversal from a single entry point
// (approximate, no recall guarantee).
//
// The graph never validates vector dimensions. Callers own that boundary; a
// mismatched vector reaching the graph is a programming error upstream, not a
// recoverable condition here.
package index

const (
	// DefaultM is the default maximum number of neighbors wired per node.
	DefaultM = 16

	// DefaultMaxElements is the default hard capacity ceiling.
	DefaultMaxElements = 1_000_000

	// bruteThreshold is the node count at or below which every search runs
	// as an exact scan. Not configurable; the regime is chosen per call
	// from current size.
	bruteThreshold = 500
)

// SearchResult is one ranked hit. Higher Score is a better match under every
// metric.
type SearchResult struct {
	// ID is the identifier of the matched node.
	ID string

	// Score is the match quality under the metric the search ran with.
	Score float32
}

// Options contains configuration options for the graph.
type Options struct {
	// M is the maximum number of neighbors wired per node at insert time.
	M int

	// MaxElements is the hard capacity ceiling. Inserts of new ids at the
	// ceiling are silent no-ops; nothing is evicted.
	MaxElements int
}

// DefaultOptions contains the default configuration options for the graph.
var DefaultOptions = Options{
	M:           DefaultM,
	MaxElements: DefaultMaxElements,
}

// Stats is a point-in-time summary of graph state.
type Stats struct {
	// Nodes is the current node count.
	Nodes int

	// Edges is the total number of directed neighbor links.
	Edges int

	// MaxNeighbors is the configured M.
	MaxNeighbors int

	// MaxElements is the configured capacity ceiling.
	MaxElements int
}
