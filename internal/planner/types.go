package planner

import (
	"time"

	"github.com/joshharrison/lineloom/internal/improve"
	"github.com/joshharrison/lineloom/internal/metrics"
)

// PlanConfig holds the balancing options of one run.
type PlanConfig struct {
	Beat      int    `json:"beat"`
	Heuristic string `json:"heuristic"`
	TieBreak  string `json:"tie_break,omitempty"`
	Improve   bool   `json:"improve"`
	MaxRounds int    `json:"max_rounds,omitempty"`
}

// BalancePlan is the complete result of balancing a task table. It is what
// reporters render and what the HTTP service returns.
type BalancePlan struct {
	ID           string                  `json:"id"`
	CreatedAt    time.Time               `json:"created_at"`
	Config       PlanConfig              `json:"config"`
	Heuristic    string                  `json:"heuristic"` // resolved name, tie-break included
	TotalTasks   int                     `json:"total_tasks"`
	Stations     []PlannedStation        `json:"stations"`
	Tasks        map[string]*PlannedTask `json:"tasks"`
	Initial      metrics.Summary         `json:"initial"`
	Final        metrics.Summary         `json:"final"`
	Moves        []improve.Move          `json:"moves"`
	Converged    bool                    `json:"converged"`
	CriticalPath []string                `json:"critical_path"`
	CriticalTime int                     `json:"critical_time"` // length of the longest precedence chain
	Levels       int                     `json:"levels"`        // number of distinct earliest-start levels
}

// PlannedStation is one station of the final layout.
type PlannedStation struct {
	Index int           `json:"index"`
	Tasks []PlannedTask `json:"tasks"`
	Load  int           `json:"load"`
	Idle  int           `json:"idle"`
}

// PlannedTask is a task as placed on the line.
type PlannedTask struct {
	TaskID       string   `json:"task_id"`
	Name         string   `json:"name"`
	Duration     int      `json:"duration"`
	Station      int      `json:"station"`
	RPW          int      `json:"rpw"`
	Slack        int      `json:"slack"`
	IsCritical   bool     `json:"is_critical"`
	Level        int      `json:"level"`
	Predecessors []string `json:"predecessors,omitempty"`
}

// StationCount returns the number of stations of the final layout.
func (p *BalancePlan) StationCount() int {
	return len(p.Stations)
}

// Improved reports whether the improvement phase changed the layout.
func (p *BalancePlan) Improved() bool {
	return len(p.Moves) > 0
}
