// Package heuristic builds an initial station layout for a precedence graph.
//
// Two greedy strategies are provided:
//   - RPW: tasks ranked by positional weight, packed station by station
//   - MoodieYoung: one available task per round, chosen by duration
//
// Both return a layout in which every task is placed exactly once, no
// predecessor sits after its dependent and no station exceeds the beat.
package heuristic

import (
	"fmt"
	"strings"

	"github.com/joshharrison/lineloom/internal/graph"
	"github.com/joshharrison/lineloom/internal/line"
)

// Heuristic names accepted by New.
const (
	NameRPW         = "rpw"
	NameMoodieYoung = "moodie_young"
)

// Heuristic assigns every task of g to a station without exceeding beat.
type Heuristic interface {
	Name() string
	Assign(g *graph.TaskGraph, beat int) (*line.Layout, error)
}

// New returns the heuristic registered under name. tieBreak is only used by
// Moodie-Young; an empty value selects max_time.
func New(name string, tieBreak string) (Heuristic, error) {
	switch normalize(name) {
	case NameRPW, "":
		return RPW{}, nil
	case NameMoodieYoung, "moodieyoung", "mym":
		tb, err := ParseTieBreak(tieBreak)
		if err != nil {
			return nil, err
		}
		return MoodieYoung{TieBreak: tb}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHeuristic, name)
	}
}

// Names lists the accepted heuristic names.
func Names() []string {
	return []string{NameRPW, NameMoodieYoung}
}

// Validate rejects a non-positive beat and any task that no station could
// ever hold.
func Validate(g *graph.TaskGraph, beat int) error {
	if beat <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBeat, beat)
	}
	for _, id := range g.Order {
		if d := g.Tasks[id].Duration; d > beat {
			return &InfeasibleTaskError{TaskID: id, Duration: d, Beat: beat}
		}
	}
	return nil
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "-", "_")
}
