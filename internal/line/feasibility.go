package line

import "github.com/joshharrison/lineloom/internal/graph"

// OrderFeasible reports whether every predecessor of t is already placed at
// a station at or before j.
func (l *Layout) OrderFeasible(j int, t *graph.Task) bool {
	for _, pred := range t.Predecessors {
		at, ok := l.at[pred]
		if !ok || at > j {
			return false
		}
	}
	return true
}

// RedeployFeasible reports whether every task downstream of t is placed at a
// station at or after j. The task's own entry in its closure is skipped: it
// is the one being moved.
func (l *Layout) RedeployFeasible(j int, t *graph.Task) bool {
	for _, id := range t.ChainSuccessors {
		if id == t.ID {
			continue
		}
		at, ok := l.at[id]
		if !ok || at < j {
			return false
		}
	}
	return true
}

// MoveFeasible is the full precedence check for relocating a placed task to
// station j. Moving backwards needs OrderFeasible, moving forwards needs
// RedeployFeasible; checking both covers either direction.
func (l *Layout) MoveFeasible(j int, t *graph.Task) bool {
	return l.OrderFeasible(j, t) && l.RedeployFeasible(j, t)
}

// Fits reports whether station j has room for d more time units.
func (l *Layout) Fits(j, d int) bool {
	return l.Load(j)+d <= l.Beat
}
