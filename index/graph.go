package index

import (
	"slices"

	"github.com/d65v/vecbase/metric"
)

// node is a stored vector and its outgoing neighbor links.
type node struct {
	id        string
	vector    []float32
	neighbors []string
}

// Graph is a single-layer proximity graph. It keeps its own copy of every
// vector handed to Insert.
//
// Graph performs no locking; callers serialize access (single mutator, no
// reader overlapping a writer).
type Graph struct {
	nodes map[string]*node
	entry string // valid only while the graph is non-empty
	opts  Options
}

// New creates an empty graph.
func New(optFns ...func(o *Options)) *Graph {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.M <= 0 {
		opts.M = DefaultM
	}
	if opts.MaxElements <= 0 {
		opts.MaxElements = DefaultMaxElements
	}

	return &Graph{
		nodes: make(map[string]*node),
		opts:  opts,
	}
}

// Insert adds a vector under id and wires it to up to M nearby nodes.
//
// An id that is already present is replaced as though it had been removed
// first: stale back-links are scrubbed before the id is rewired.
//
// If the node count already equals MaxElements, Insert is a silent no-op.
//
// Neighbor selection always scores under the cosine metric, whatever metric
// searches later run with, using whichever search regime current size
// implies. The very first id inserted becomes the entry point.
func (g *Graph) Insert(id string, vector []float32) {
	if _, ok := g.nodes[id]; ok {
		g.Remove(id)
	}

	if len(g.nodes) >= g.opts.MaxElements {
		return
	}

	n := &node{
		id:     id,
		vector: slices.Clone(vector),
	}

	if len(g.nodes) == 0 {
		g.entry = id
		g.nodes[id] = n
		return
	}

	nearest := g.Search(n.vector, g.opts.M, metric.Cosine)
	n.neighbors = make([]string, 0, len(nearest))
	for _, r := range nearest {
		n.neighbors = append(n.neighbors, r.ID)
	}

	// Best-effort back-links: a full neighbor keeps its list, leaving the
	// edge asymmetric.
	for _, nbrID := range n.neighbors {
		nbr := g.nodes[nbrID]
		if len(nbr.neighbors) < g.opts.M {
			nbr.neighbors = append(nbr.neighbors, id)
		}
	}

	g.nodes[id] = n
}

// Remove deletes id and scrubs it from every remaining neighbor list.
// Removing an absent id is a no-op. If id was the entry point, an arbitrary
// survivor takes over, or the entry is cleared when the graph empties.
func (g *Graph) Remove(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}

	delete(g.nodes, id)

	for _, n := range g.nodes {
		n.neighbors = slices.DeleteFunc(n.neighbors, func(nbr string) bool {
			return nbr == id
		})
	}

	if g.entry == id {
		g.entry = ""
		for survivor := range g.nodes {
			g.entry = survivor
			break
		}
	}
}

// Len returns the current node count.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// EntryPoint returns the current traversal entry point, if the graph is
// non-empty.
func (g *Graph) EntryPoint() (string, bool) {
	if len(g.nodes) == 0 {
		return "", false
	}
	return g.entry, true
}

// Stats returns a point-in-time summary of graph state.
func (g *Graph) Stats() Stats {
	edges := 0
	for _, n := range g.nodes {
		edges += len(n.neighbors)
	}
	return Stats{
		Nodes:        len(g.nodes),
		Edges:        edges,
		MaxNeighbors: g.opts.M,
		MaxElements:  g.opts.MaxElements,
	}
}
