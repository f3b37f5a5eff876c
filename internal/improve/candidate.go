// Package improve rebalances a complete layout with trade and transfer
// moves between the most and least loaded stations.
package improve

import (
	"fmt"
	"math"

	"github.com/joshharrison/lineloom/internal/line"
)

// Kind is the type of a candidate move.
type Kind string

const (
	// Transfer relocates one task from the busiest to the idlest station.
	Transfer Kind = "transfer"
	// Trade swaps a task of the busiest station with one of the idlest.
	Trade Kind = "trade"
)

// Candidate is one possible move for the current round. For a transfer,
// Task goes from From to To. For a trade, Partner additionally goes from To
// to From.
type Candidate struct {
	Kind         Kind    `json:"kind"`
	Task         string  `json:"task"`
	Partner      string  `json:"partner,omitempty"`
	From         int     `json:"from"`
	To           int     `json:"to"`
	ExpectedGain float64 `json:"expected_gain"`
}

func (c Candidate) String() string {
	if c.Kind == Trade {
		return fmt.Sprintf("trade %s@%d <-> %s@%d (gain %.2f)", c.Task, c.From, c.Partner, c.To, c.ExpectedGain)
	}
	return fmt.Sprintf("transfer %s %d -> %d (gain %.2f)", c.Task, c.From, c.To, c.ExpectedGain)
}

// Extremes returns the 1-based indexes of the most and least loaded
// stations. Ties go to the first station.
func Extremes(loads []int) (jMax, jMin int) {
	if len(loads) == 0 {
		return 0, 0
	}
	jMax, jMin = 1, 1
	for i, load := range loads {
		if load > loads[jMax-1] {
			jMax = i + 1
		}
		if load < loads[jMin-1] {
			jMin = i + 1
		}
	}
	return jMax, jMin
}

// Generate lists every feasible transfer and trade between the busiest and
// the idlest station of l. Transfers come first, each group in station order.
//
// A candidate is kept only if it moves a positive amount of work that is
// smaller than the load gap. Such a move lowers the sum of squared loads,
// never raises the maximum load and keeps both stations within the beat.
// Trades between tasks on one precedence chain are skipped.
func Generate(l *line.Layout) []Candidate {
	loads := l.Loads()
	if len(loads) < 2 {
		return nil
	}
	jMax, jMin := Extremes(loads)
	tMax, tMin := loads[jMax-1], loads[jMin-1]
	gap := tMax - tMin
	if gap <= 0 {
		return nil
	}

	g := l.Graph
	busy := l.Station(jMax).TaskIDs
	idle := l.Station(jMin).TaskIDs

	var cands []Candidate
	for _, a := range busy {
		ta := g.Tasks[a]
		d := ta.Duration
		if d <= 0 || d >= gap || !l.MoveFeasible(jMin, ta) {
			continue
		}
		cands = append(cands, Candidate{
			Kind:         Transfer,
			Task:         a,
			From:         jMax,
			To:           jMin,
			ExpectedGain: math.Abs(float64((tMax-d)-(tMin+d))) / 2,
		})
	}

	for _, a := range busy {
		ta := g.Tasks[a]
		if ta.Duration >= gap || !l.MoveFeasible(jMin, ta) {
			continue
		}
		for _, b := range idle {
			tb := g.Tasks[b]
			if tb.Duration >= gap || ta.Duration-tb.Duration <= 0 {
				continue
			}
			if ta.InChain(b) || tb.InChain(a) {
				continue
			}
			if !l.MoveFeasible(jMax, tb) {
				continue
			}
			delta := ta.Duration - tb.Duration
			cands = append(cands, Candidate{
				Kind:         Trade,
				Task:         a,
				Partner:      b,
				From:         jMax,
				To:           jMin,
				ExpectedGain: math.Abs(float64((tMax - delta) - (tMin + delta))),
			})
		}
	}
	return cands
}

// Select returns the candidate with the lowest expected gain. Equal gains
// go to the earliest generated candidate.
func Select(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.ExpectedGain < best.ExpectedGain {
			best = c
		}
	}
	return best, true
}

// Apply performs c on l.
func Apply(l *line.Layout, c Candidate) error {
	switch c.Kind {
	case Transfer:
		return l.Move(c.Task, c.From, c.To)
	case Trade:
		return l.Swap(c.Task, c.From, c.Partner, c.To)
	default:
		return fmt.Errorf("unknown move kind %q", c.Kind)
	}
}
