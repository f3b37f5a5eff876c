// Package line holds the station layout of a balanced line and the
// precedence checks used while building and rebalancing it.
package line

import (
	"errors"
	"fmt"

	"github.com/joshharrison/lineloom/internal/graph"
)

var (
	// ErrUnknownTask is returned when an id is not part of the layout's graph.
	ErrUnknownTask = errors.New("unknown task")

	// ErrNoStation is returned for a station index outside 1..Len().
	ErrNoStation = errors.New("no such station")

	// ErrInvariant is wrapped by every Verify failure.
	ErrInvariant = errors.New("layout invariant violated")
)

// Station is one work position on the line. Index is 1-based.
type Station struct {
	Index   int      `json:"index"`
	TaskIDs []string `json:"task_ids"`
}

// Layout is an ordered list of stations plus the task -> station mapping.
// Task records stay owned by the graph; stations only hold ids.
type Layout struct {
	Graph    *graph.TaskGraph
	Beat     int
	Stations []*Station

	at map[string]int
}

// New returns an empty layout for g with the given beat.
func New(g *graph.TaskGraph, beat int) *Layout {
	return &Layout{
		Graph: g,
		Beat:  beat,
		at:    make(map[string]int, len(g.Tasks)),
	}
}

// Len returns the number of stations.
func (l *Layout) Len() int {
	return len(l.Stations)
}

// Station returns station j, or nil when j is out of range.
func (l *Layout) Station(j int) *Station {
	if j < 1 || j > len(l.Stations) {
		return nil
	}
	return l.Stations[j-1]
}

// Load returns the summed duration of the tasks at station j.
func (l *Layout) Load(j int) int {
	s := l.Station(j)
	if s == nil {
		return 0
	}
	load := 0
	for _, id := range s.TaskIDs {
		load += l.Graph.Tasks[id].Duration
	}
	return load
}

// Loads returns every station load; element i belongs to station i+1.
func (l *Layout) Loads() []int {
	loads := make([]int, len(l.Stations))
	for i := range l.Stations {
		loads[i] = l.Load(i + 1)
	}
	return loads
}

// Open appends an empty station and returns its index.
func (l *Layout) Open() int {
	j := len(l.Stations) + 1
	l.Stations = append(l.Stations, &Station{Index: j})
	return j
}

// StationOf returns the station holding id.
func (l *Layout) StationOf(id string) (int, bool) {
	j, ok := l.at[id]
	return j, ok
}

// Placed returns the number of tasks assigned to a station.
func (l *Layout) Placed() int {
	return len(l.at)
}

// Place appends id to station j.
func (l *Layout) Place(id string, j int) error {
	if _, ok := l.Graph.Tasks[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	s := l.Station(j)
	if s == nil {
		return fmt.Errorf("%w: %d", ErrNoStation, j)
	}
	if cur, ok := l.at[id]; ok {
		return fmt.Errorf("task %s already placed at station %d", id, cur)
	}
	s.TaskIDs = append(s.TaskIDs, id)
	l.at[id] = j
	return nil
}

// Move relocates id from station from to station to.
func (l *Layout) Move(id string, from, to int) error {
	if l.Station(to) == nil {
		return fmt.Errorf("%w: %d", ErrNoStation, to)
	}
	if err := l.remove(id, from); err != nil {
		return err
	}
	dst := l.Station(to)
	dst.TaskIDs = append(dst.TaskIDs, id)
	l.at[id] = to
	return nil
}

// Swap exchanges task a at station ja with task b at station jb.
func (l *Layout) Swap(a string, ja int, b string, jb int) error {
	if err := l.remove(a, ja); err != nil {
		return err
	}
	if err := l.remove(b, jb); err != nil {
		// put a back so a failed swap leaves the layout untouched
		l.Station(ja).TaskIDs = append(l.Station(ja).TaskIDs, a)
		l.at[a] = ja
		return err
	}
	sa, sb := l.Station(ja), l.Station(jb)
	sa.TaskIDs = append(sa.TaskIDs, b)
	sb.TaskIDs = append(sb.TaskIDs, a)
	l.at[a] = jb
	l.at[b] = ja
	return nil
}

func (l *Layout) remove(id string, j int) error {
	s := l.Station(j)
	if s == nil {
		return fmt.Errorf("%w: %d", ErrNoStation, j)
	}
	for i, cur := range s.TaskIDs {
		if cur == id {
			s.TaskIDs = append(s.TaskIDs[:i], s.TaskIDs[i+1:]...)
			delete(l.at, id)
			return nil
		}
	}
	return fmt.Errorf("task %s is not at station %d", id, j)
}

// TrimTrailingEmpty discards empty stations at the end of the line.
func (l *Layout) TrimTrailingEmpty() {
	for len(l.Stations) > 0 && len(l.Stations[len(l.Stations)-1].TaskIDs) == 0 {
		l.Stations = l.Stations[:len(l.Stations)-1]
	}
}

// Assignment returns a copy of the task id -> station index mapping.
func (l *Layout) Assignment() map[string]int {
	out := make(map[string]int, len(l.at))
	for id, j := range l.at {
		out[id] = j
	}
	return out
}

// Verify checks that every task is placed exactly once, that no predecessor
// sits after its dependent, and that no station exceeds the beat.
func (l *Layout) Verify() error {
	seen := make(map[string]int, len(l.Graph.Tasks))
	for _, s := range l.Stations {
		for _, id := range s.TaskIDs {
			if _, ok := l.Graph.Tasks[id]; !ok {
				return fmt.Errorf("%w: station %d holds unknown task %s", ErrInvariant, s.Index, id)
			}
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("%w: task %s placed at stations %d and %d", ErrInvariant, id, prev, s.Index)
			}
			seen[id] = s.Index
		}
	}

	for _, id := range l.Graph.Order {
		j, ok := seen[id]
		if !ok {
			return fmt.Errorf("%w: task %s is not placed", ErrInvariant, id)
		}
		for _, pred := range l.Graph.Tasks[id].Predecessors {
			if seen[pred] > j {
				return fmt.Errorf("%w: task %s at station %d precedes its predecessor %s at station %d",
					ErrInvariant, id, j, pred, seen[pred])
			}
		}
	}

	for i, load := range l.Loads() {
		if load > l.Beat {
			return fmt.Errorf("%w: station %d load %d exceeds beat %d", ErrInvariant, i+1, load, l.Beat)
		}
	}
	return nil
}
