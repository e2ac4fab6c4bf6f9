package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d65v/vecbase/metric"
)

func TestNewDefaults(t *testing.T) {
	g := New()
	assert.Equal(t, DefaultM, g.opts.M)
	assert.Equal(t, DefaultMaxElements, g.opts.MaxElements)
	assert.Equal(t, 0, g.Len())

	_, ok := g.EntryPoint()
	assert.False(t, ok)
}

func TestNewOptions(t *testing.T) {
	g := New(func(o *Options) {
		o.M = 4
		o.MaxElements = 10
	})
	assert.Equal(t, 4, g.opts.M)
	assert.Equal(t, 10, g.opts.MaxElements)

	invalid := New(func(o *Options) {
		o.M = -1
		o.MaxElements = 0
	})
	assert.Equal(t, DefaultM, invalid.opts.M)
	assert.Equal(t, DefaultMaxElements, invalid.opts.MaxElements)
}

func TestFirstInsertBecomesEntry(t *testing.T) {
	g := New()
	g.Insert("first", []float32{1, 0})

	entry, ok := g.EntryPoint()
	require.True(t, ok)
	assert.Equal(t, "first", entry)

	// Later inserts never displace the entry point.
	g.Insert("second", []float32{0, 1})
	g.Insert("third", []float32{1, 1})
	entry, ok = g.EntryPoint()
	require.True(t, ok)
	assert.Equal(t, "first", entry)
}

func TestInsertCopiesVector(t *testing.T) {
	g := New()
	v := []float32{1, 0}
	g.Insert("a", v)
	v[0] = 99

	res := g.Search([]float32{1, 0}, 1, metric.Cosine)
	require.Len(t, res, 1)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
}

func TestInsertWiresNeighbors(t *testing.T) {
	g := New(func(o *Options) { o.M = 2 })
	g.Insert("a", []float32{1, 0, 0})
	g.Insert("b", []float32{0.9, 0.1, 0})
	g.Insert("c", []float32{0, 0, 1})

	// c links to at most M existing nodes.
	assert.LessOrEqual(t, len(g.nodes["c"].neighbors), 2)

	// a and b were wired to each other when each was inserted.
	assert.Contains(t, g.nodes["b"].neighbors, "a")
	assert.Contains(t, g.nodes["a"].neighbors, "b")
}

func TestBackLinkCappedAtM(t *testing.T) {
	g := New(func(o *Options) { o.M = 2 })

	// Tight cluster: every new node wires to all predecessors until their
	// lists fill up.
	for i := 0; i < 5; i++ {
		g.Insert(fmt.Sprintf("n%d", i), []float32{1, float32(i) * 0.001})
	}

	for id, n := range g.nodes {
		assert.LessOrEqual(t, len(n.neighbors), 2, "node %s exceeds M", id)
		for _, nbr := range n.neighbors {
			assert.NotEqual(t, id, nbr, "node %s references itself", id)
			_, alive := g.nodes[nbr]
			assert.True(t, alive, "node %s references missing %s", id, nbr)
		}
	}
}

func TestWiringAlwaysScoresUnderCosine(t *testing.T) {
	g := New(func(o *Options) { o.M = 1 })
	g.Insert("a", []float32{1, 0})
	g.Insert("b", []float32{10, 10})

	// Raw dot against [0.1 0.1]: a scores 0.1, b scores 2. Euclidean would
	// prefer a by a wide margin; the wiring pass must pick b.
	g.Insert("c", []float32{0.1, 0.1})

	require.Len(t, g.nodes["c"].neighbors, 1)
	assert.Equal(t, "b", g.nodes["c"].neighbors[0])
}

func TestInsertAtCapacityIsNoop(t *testing.T) {
	g := New(func(o *Options) { o.MaxElements = 2 })
	g.Insert("a", []float32{1, 0})
	g.Insert("b", []float32{0, 1})
	g.Insert("c", []float32{1, 1})

	assert.Equal(t, 2, g.Len())
	res := g.Search([]float32{1, 1}, 10, metric.Cosine)
	assert.Len(t, res, 2)
	for _, r := range res {
		assert.NotEqual(t, "c", r.ID)
	}
}

func TestReinsertReplacesNode(t *testing.T) {
	g := New()
	g.Insert("a", []float32{1, 0})
	g.Insert("b", []float32{0.9, 0.1})
	g.Insert("c", []float32{0.8, 0.2})
	require.Equal(t, 3, g.Len())

	// Move a to the opposite side of the space.
	g.Insert("a", []float32{-1, 0})
	assert.Equal(t, 3, g.Len())

	// No node may still hold a duplicate or self link, and the rewired
	// vector must be the one searches see.
	for id, n := range g.nodes {
		seen := map[string]bool{}
		for _, nbr := range n.neighbors {
			assert.NotEqual(t, id, nbr)
			assert.False(t, seen[nbr], "duplicate link %s -> %s", id, nbr)
			seen[nbr] = true
		}
	}

	res := g.Search([]float32{-1, 0}, 1, metric.Cosine)
	require.Len(t, res, 1)
	assert.Equal(t, "a", res[0].ID)
}

func TestReinsertAtCapacityKeepsLen(t *testing.T) {
	g := New(func(o *Options) { o.MaxElements = 2 })
	g.Insert("a", []float32{1, 0})
	g.Insert("b", []float32{0, 1})

	g.Insert("a", []float32{0.5, 0.5})
	assert.Equal(t, 2, g.Len())

	res := g.Search([]float32{0.5, 0.5}, 1, metric.Cosine)
	require.Len(t, res, 1)
	assert.Equal(t, "a", res[0].ID)
}

func TestRemoveScrubsNeighborLists(t *testing.T) {
	g := New()
	g.Insert("a", []float32{1, 0})
	g.Insert("b", []float32{0.9, 0.1})
	g.Insert("c", []float32{0.8, 0.2})

	g.Remove("b")

	assert.Equal(t, 2, g.Len())
	for id, n := range g.nodes {
		assert.NotContains(t, n.neighbors, "b", "node %s still references removed id", id)
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	g := New()
	g.Insert("a", []float32{1, 0})
	g.Remove("ghost")
	assert.Equal(t, 1, g.Len())
}

func TestRemoveEntryReassigns(t *testing.T) {
	g := New()
	g.Insert("a", []float32{1, 0})
	g.Insert("b", []float32{0, 1})
	g.Insert("c", []float32{1, 1})

	g.Remove("a")

	entry, ok := g.EntryPoint()
	require.True(t, ok)
	assert.Contains(t, []string{"b", "c"}, entry)

	// The graph stays usable after entry reassignment.
	g.Insert("d", []float32{0.5, 0.5})
	res := g.Search([]float32{0.5, 0.5}, 2, metric.Cosine)
	assert.NotEmpty(t, res)
}

func TestRemoveLastClearsEntry(t *testing.T) {
	g := New()
	g.Insert("only", []float32{1})
	g.Remove("only")

	assert.Equal(t, 0, g.Len())
	_, ok := g.EntryPoint()
	assert.False(t, ok)

	// A fresh insert seeds a new entry.
	g.Insert("again", []float32{1})
	entry, ok := g.EntryPoint()
	require.True(t, ok)
	assert.Equal(t, "again", entry)
}

func TestStats(t *testing.T) {
	g := New(func(o *Options) { o.M = 3 })
	g.Insert("a", []float32{1, 0})
	g.Insert("b", []float32{0.9, 0.1})

	stats := g.Stats()
	assert.Equal(t, 2, stats.Nodes)
	assert.Equal(t, 2, stats.Edges) // a <-> b
	assert.Equal(t, 3, stats.MaxNeighbors)
	assert.Equal(t, DefaultMaxElements, stats.MaxElements)
}
