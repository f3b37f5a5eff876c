// Package metrics scores a station layout.
package metrics

import (
	"math"

	"github.com/joshharrison/lineloom/internal/line"
)

// Summary is the set of figures reported for a layout.
type Summary struct {
	StationCount   int     `json:"station_count"`
	TotalWork      int     `json:"total_work"`
	MaxLoad        int     `json:"max_load"`
	MinLoad        int     `json:"min_load"`
	IdleTime       int     `json:"idle_time"` // stations times beat, minus total work
	Loads          []int   `json:"loads"`
	BalanceRate    float64 `json:"balance_rate"`
	Smoothing      float64 `json:"smoothing_index"`
	LineEfficiency float64 `json:"line_efficiency"`          // total work over stations times beat
	MinStations    int     `json:"theoretical_min_stations"` // ceil(total work / beat)
}

// BalanceRate returns sum(loads) / (max(loads) * (len(loads) + 1)).
// It is zero for an empty or idle line.
func BalanceRate(loads []int) float64 {
	total, max := sum(loads), maxOf(loads)
	if max == 0 {
		return 0
	}
	return float64(total) / float64(max*(len(loads)+1))
}

// SmoothingIndex returns sqrt(sum((load - max)^2)) over all stations.
func SmoothingIndex(loads []int) float64 {
	max := maxOf(loads)
	var sq float64
	for _, load := range loads {
		d := float64(load - max)
		sq += d * d
	}
	return math.Sqrt(sq)
}

// Summarize computes every figure of l against its beat.
func Summarize(l *line.Layout) Summary {
	loads := l.Loads()
	s := Summary{
		StationCount: len(loads),
		TotalWork:    sum(loads),
		MaxLoad:      maxOf(loads),
		MinLoad:      minOf(loads),
		Loads:        loads,
		BalanceRate:  BalanceRate(loads),
		Smoothing:    SmoothingIndex(loads),
		MinStations:  MinStations(l.Graph.TotalDuration(), l.Beat),
	}
	s.IdleTime = len(loads)*l.Beat - s.TotalWork
	if len(loads) > 0 && l.Beat > 0 {
		s.LineEfficiency = float64(s.TotalWork) / float64(len(loads)*l.Beat)
	}
	return s
}

// MinStations returns ceil(work / beat), the fewest stations any layout
// could use.
func MinStations(work, beat int) int {
	if beat <= 0 {
		return 0
	}
	return (work + beat - 1) / beat
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func maxOf(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
