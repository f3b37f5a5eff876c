package cpm

import (
	"fmt"
	"sort"

	"github.com/joshharrison/lineloom/internal/graph"
)

// Analyze runs the critical path method over g using task durations.
// The critical path is a lower bound on the beat of a single-station line
// and tells which tasks leave no room when stations are reordered.
func Analyze(g *graph.TaskGraph) (*CPMResult, error) {
	order := g.TopoOrder
	if len(order) != len(g.Tasks) {
		return nil, fmt.Errorf("topological order covers %d of %d tasks", len(order), len(g.Tasks))
	}

	result := &CPMResult{
		Tasks:     make(map[string]*TaskSchedule, len(order)),
		TopoOrder: order,
	}
	for _, id := range order {
		result.Tasks[id] = &TaskSchedule{TaskID: id}
	}

	// Forward pass: ES = max(EF of predecessors)
	for _, id := range order {
		ts := result.Tasks[id]
		es := 0
		for _, pred := range g.RevAdj[id] {
			if ef := result.Tasks[pred].EF; ef > es {
				es = ef
			}
		}
		ts.ES = es
		ts.EF = es + g.Tasks[id].Duration
		if ts.EF > result.TotalDuration {
			result.TotalDuration = ts.EF
		}
	}

	// Backward pass: LF = min(LS of successors), leaves finish at the end
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		ts := result.Tasks[id]

		lf := result.TotalDuration
		for _, succ := range g.Adj[id] {
			if ls := result.Tasks[succ].LS; ls < lf {
				lf = ls
			}
		}
		ts.LF = lf
		ts.LS = lf - g.Tasks[id].Duration
		ts.Slack = ts.LS - ts.ES
		ts.IsCritical = ts.Slack == 0
	}

	for _, id := range order {
		if result.Tasks[id].IsCritical {
			result.CriticalPath = append(result.CriticalPath, id)
		}
	}

	result.Levels = computeLevels(result, g)
	return result, nil
}

// computeLevels groups tasks by their earliest start time. Within a level,
// critical tasks come first, then input order.
func computeLevels(result *CPMResult, g *graph.TaskGraph) []Level {
	byStart := make(map[int][]string)
	for _, id := range result.TopoOrder {
		es := result.Tasks[id].ES
		byStart[es] = append(byStart[es], id)
	}

	starts := make([]int, 0, len(byStart))
	for es := range byStart {
		starts = append(starts, es)
	}
	sort.Ints(starts)

	levels := make([]Level, len(starts))
	for i, es := range starts {
		ids := byStart[es]
		sort.SliceStable(ids, func(a, b int) bool {
			aCrit := result.Tasks[ids[a]].IsCritical
			bCrit := result.Tasks[ids[b]].IsCritical
			if aCrit != bCrit {
				return aCrit
			}
			return g.Tasks[ids[a]].Index < g.Tasks[ids[b]].Index
		})

		critical := false
		for _, id := range ids {
			result.Tasks[id].Level = i
			if result.Tasks[id].IsCritical {
				critical = true
			}
		}
		levels[i] = Level{Index: i, Start: es, TaskIDs: ids, IsCritical: critical}
	}
	return levels
}
