package index

import (
	"cmp"
	"slices"

	"github.com/d65v/vecbase/internal/queue"
	"github.com/d65v/vecbase/metric"
)

// Search returns up to k nodes ranked against query under m, best first.
// Ties are broken by id, ascending (a documented, stable order with no
// semantic weight). An empty graph or k <= 0 yields an empty result, never
// an error.
//
// At or below the regime threshold every node is scored (exact). Above it a
// greedy traversal explores from the entry point and stops after
// accumulating ef = k*4 candidates, so results are approximate with no
// recall guarantee.
func (g *Graph) Search(query []float32, k int, m metric.Metric) []SearchResult {
	if len(g.nodes) == 0 || k <= 0 {
		return nil
	}

	if len(g.nodes) <= bruteThreshold {
		return g.bruteSearch(query, k, m)
	}

	return g.greedySearch(query, k, m)
}

// bruteSearch scores every node. Exact under the active score function.
func (g *Graph) bruteSearch(query []float32, k int, m metric.Metric) []SearchResult {
	results := make([]SearchResult, 0, len(g.nodes))
	for _, n := range g.nodes {
		results = append(results, SearchResult{
			ID:    n.id,
			Score: metric.Score(m, query, n.vector),
		})
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// greedySearch runs a single-seed best-first traversal from the entry point.
// The frontier only grows; there is no pruning of weak candidates, so cost
// scales with ef rather than with any quality threshold.
func (g *Graph) greedySearch(query []float32, k int, m metric.Metric) []SearchResult {
	ef := k * 4

	entry := g.nodes[g.entry]
	frontier := queue.NewMax(ef)
	frontier.PushItem(queue.Item{
		ID:    entry.id,
		Score: metric.Score(m, query, entry.vector),
	})

	visited := make(map[string]struct{}, ef)
	visited[entry.id] = struct{}{}

	results := make([]SearchResult, 0, ef)
	for frontier.Len() > 0 && len(results) < ef {
		item, _ := frontier.PopItem()
		results = append(results, SearchResult{ID: item.ID, Score: item.Score})

		for _, nbrID := range g.nodes[item.ID].neighbors {
			if _, seen := visited[nbrID]; seen {
				continue
			}
			visited[nbrID] = struct{}{}

			nbr, ok := g.nodes[nbrID]
			if !ok {
				continue
			}
			frontier.PushItem(queue.Item{
				ID:    nbrID,
				Score: metric.Score(m, query, nbr.vector),
			})
		}
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func sortResults(results []SearchResult) {
	slices.SortFunc(results, func(a, b SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
