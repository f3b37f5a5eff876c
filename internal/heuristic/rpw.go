package heuristic

import (
	"fmt"

	"github.com/joshharrison/lineloom/internal/graph"
	"github.com/joshharrison/lineloom/internal/line"
	"github.com/joshharrison/lineloom/internal/rpw"
)

// RPW packs tasks in ranked positional weight order. Each station gets
// repeated passes over the unplaced tasks until a pass places nothing.
type RPW struct{}

func (RPW) Name() string { return NameRPW }

func (RPW) Assign(g *graph.TaskGraph, beat int) (*line.Layout, error) {
	if err := Validate(g, beat); err != nil {
		return nil, err
	}

	rpw.Compute(g)
	ranked := rpw.Ranked(g)

	l := line.New(g, beat)
	for l.Placed() < len(ranked) {
		j := l.Open()
		for {
			placed := false
			for _, id := range ranked {
				if _, done := l.StationOf(id); done {
					continue
				}
				t := g.Tasks[id]
				if !l.Fits(j, t.Duration) || !l.OrderFeasible(j, t) {
					continue
				}
				if err := l.Place(id, j); err != nil {
					return nil, err
				}
				placed = true
			}
			if !placed {
				break
			}
		}
		if len(l.Station(j).TaskIDs) == 0 {
			return nil, fmt.Errorf("%w: station %d took no task", ErrStalled, j)
		}
	}

	l.TrimTrailingEmpty()
	return l, nil
}
