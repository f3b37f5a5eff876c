// Package rpw computes Ranked Positional Weights over a precedence graph.
package rpw

import (
	"sort"

	"github.com/joshharrison/lineloom/internal/graph"
)

// Compute sets RPW on every task: the summed duration of its chain-successor
// closure, the task itself included. The graph must have chain successors
// derived.
func Compute(g *graph.TaskGraph) {
	for _, t := range g.Tasks {
		w := 0
		for _, id := range t.ChainSuccessors {
			w += g.Tasks[id].Duration
		}
		t.RPW = w
	}
}

// Ranked returns task ids by RPW descending. Equal weights keep input order.
func Ranked(g *graph.TaskGraph) []string {
	ids := make([]string, len(g.Order))
	copy(ids, g.Order)
	sort.SliceStable(ids, func(i, j int) bool {
		return g.Tasks[ids[i]].RPW > g.Tasks[ids[j]].RPW
	})
	return ids
}
