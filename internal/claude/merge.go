package claude

import (
	"fmt"

	"github.com/joshharrison/lineloom/internal/graph"
	"github.com/joshharrison/lineloom/internal/source"
)

// SkippedEdge is an inferred edge that was not merged, with the reason.
type SkippedEdge struct {
	Edge   PredEdge `json:"edge"`
	Reason string   `json:"reason"`
}

// Summaries converts task records into the form sent to Claude.
func Summaries(records []source.RawTask) []TaskSummary {
	out := make([]TaskSummary, len(records))
	for i, r := range records {
		out[i] = TaskSummary{ID: r.ID, Name: r.Name, Duration: r.Duration, Predecessors: r.Predecessors}
	}
	return out
}

// MergeEdges adds inferred edges to a copy of records. Edges are taken in
// order; an edge is skipped when it names an unknown task, points a task at
// itself, is already present, or would close a cycle with the relations
// accepted so far. The input records are not modified.
func MergeEdges(records []source.RawTask, edges []PredEdge) ([]source.RawTask, []PredEdge, []SkippedEdge) {
	merged := make([]source.RawTask, len(records))
	g := &graph.TaskGraph{
		Tasks: make(map[string]*graph.Task, len(records)),
		Adj:   make(map[string][]string),
	}
	index := make(map[string]int, len(records))
	for i, r := range records {
		merged[i] = r
		merged[i].Predecessors = append([]string(nil), r.Predecessors...)
		index[r.ID] = i
		g.Tasks[r.ID] = &graph.Task{ID: r.ID}
		g.Order = append(g.Order, r.ID)
	}
	for _, r := range records {
		for _, pred := range r.Predecessors {
			g.Adj[pred] = append(g.Adj[pred], r.ID)
		}
	}

	var accepted []PredEdge
	var skipped []SkippedEdge
	skip := func(e PredEdge, format string, args ...interface{}) {
		skipped = append(skipped, SkippedEdge{Edge: e, Reason: fmt.Sprintf(format, args...)})
	}

	for _, e := range edges {
		i, ok := index[e.TaskID]
		if !ok {
			skip(e, "unknown task_id %s", e.TaskID)
			continue
		}
		if _, ok := index[e.PredecessorID]; !ok {
			skip(e, "unknown predecessor_id %s", e.PredecessorID)
			continue
		}
		if e.TaskID == e.PredecessorID {
			skip(e, "self-precedence %s", e.TaskID)
			continue
		}
		if contains(merged[i].Predecessors, e.PredecessorID) {
			skip(e, "already present: %s -> %s", e.PredecessorID, e.TaskID)
			continue
		}

		g.Adj[e.PredecessorID] = append(g.Adj[e.PredecessorID], e.TaskID)
		if cycle := g.DetectCycle(); cycle != nil {
			g.Adj[e.PredecessorID] = g.Adj[e.PredecessorID][:len(g.Adj[e.PredecessorID])-1]
			skip(e, "would create cycle: %s -> %s", e.PredecessorID, e.TaskID)
			continue
		}

		merged[i].Predecessors = append(merged[i].Predecessors, e.PredecessorID)
		accepted = append(accepted, e)
	}

	return merged, accepted, skipped
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
