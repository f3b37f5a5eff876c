package heuristic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joshharrison/lineloom/internal/graph"
	"github.com/joshharrison/lineloom/internal/line"
)

// TieBreak orders the pool of available tasks in Moodie-Young.
type TieBreak string

const (
	// MaxTime places the longest available task first.
	MaxTime TieBreak = "max_time"
	// MinTime places the shortest available task first.
	MinTime TieBreak = "min_time"
)

// ParseTieBreak accepts max_time, min_time (or max/min). Empty means MaxTime.
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "", "max_time", "max":
		return MaxTime, nil
	case "min_time", "min":
		return MinTime, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTieBreak, s)
	}
}

// MoodieYoung places one available task per round. A task is available once
// every predecessor has been placed; the pool is ordered by duration and the
// head goes to the first station, counting from 1, with room for it.
type MoodieYoung struct {
	TieBreak TieBreak
}

func (m MoodieYoung) Name() string {
	return fmt.Sprintf("%s/%s", NameMoodieYoung, m.tieBreak())
}

func (m MoodieYoung) tieBreak() TieBreak {
	if m.TieBreak == "" {
		return MaxTime
	}
	return m.TieBreak
}

func (m MoodieYoung) Assign(g *graph.TaskGraph, beat int) (*line.Layout, error) {
	if err := Validate(g, beat); err != nil {
		return nil, err
	}

	// working copy of each predecessor set, shrunk as tasks are placed
	pending := make(map[string]map[string]bool, len(g.Tasks))
	for _, id := range g.Order {
		preds := make(map[string]bool, len(g.Tasks[id].Predecessors))
		for _, p := range g.Tasks[id].Predecessors {
			preds[p] = true
		}
		pending[id] = preds
	}

	l := line.New(g, beat)
	l.Open()
	for l.Placed() < len(g.Order) {
		pool := m.pool(g, l, pending)
		if len(pool) == 0 {
			return nil, fmt.Errorf("%w: no available task with %d of %d placed", ErrStalled, l.Placed(), len(g.Order))
		}
		t := g.Tasks[pool[0]]

		for j := 1; ; j++ {
			if len(l.Station(l.Len()).TaskIDs) > 0 {
				l.Open()
			}
			if j > l.Len() {
				return nil, fmt.Errorf("%w: task %s fits no station", ErrStalled, t.ID)
			}
			if l.Fits(j, t.Duration) && l.OrderFeasible(j, t) {
				if err := l.Place(t.ID, j); err != nil {
					return nil, err
				}
				break
			}
		}

		for _, preds := range pending {
			delete(preds, t.ID)
		}
	}

	l.TrimTrailingEmpty()
	return l, nil
}

// pool returns unplaced tasks with no pending predecessors, sorted by
// duration per the tie-break. Equal durations keep input order.
func (m MoodieYoung) pool(g *graph.TaskGraph, l *line.Layout, pending map[string]map[string]bool) []string {
	var pool []string
	for _, id := range g.Order {
		if _, done := l.StationOf(id); done {
			continue
		}
		if len(pending[id]) == 0 {
			pool = append(pool, id)
		}
	}

	desc := m.tieBreak() == MaxTime
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := g.Tasks[pool[i]].Duration, g.Tasks[pool[j]].Duration
		if desc {
			return a > b
		}
		return a < b
	})
	return pool
}
