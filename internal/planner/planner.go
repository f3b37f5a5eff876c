package planner

import (
	"fmt"
	"time"

	"github.com/joshharrison/lineloom/internal/cpm"
	"github.com/joshharrison/lineloom/internal/graph"
	"github.com/joshharrison/lineloom/internal/heuristic"
	"github.com/joshharrison/lineloom/internal/improve"
	"github.com/joshharrison/lineloom/internal/line"
	"github.com/joshharrison/lineloom/internal/logging"
	"github.com/joshharrison/lineloom/internal/metrics"
	"github.com/joshharrison/lineloom/internal/rpw"
	"github.com/joshharrison/lineloom/internal/source"
)

// Option customises Generate.
type Option func(*options)

type options struct {
	logger *logging.Logger
	now    func() time.Time
}

// WithLogger sets the logger used for phase and move logging.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source used for the plan id.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Build constructs the precedence graph from task records and balances it.
func Build(records []source.RawTask, config PlanConfig, opts ...Option) (*BalancePlan, error) {
	g, err := graph.BuildFromRaw(records)
	if err != nil {
		return nil, err
	}
	return Generate(g, config, opts...)
}

// Generate balances g onto a line of stations and returns the plan.
//
// Configuration and input errors are returned before any station is
// opened. The final layout is checked against the line invariants before
// the plan is built.
func Generate(g *graph.TaskGraph, config PlanConfig, opts ...Option) (*BalancePlan, error) {
	o := options{logger: logging.NopLogger(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if config.Heuristic == "" {
		config.Heuristic = heuristic.NameRPW
	}
	if config.MaxRounds == 0 {
		config.MaxRounds = improve.DefaultMaxRounds
	}

	h, err := heuristic.New(config.Heuristic, config.TieBreak)
	if err != nil {
		return nil, err
	}
	if err := heuristic.Validate(g, config.Beat); err != nil {
		return nil, err
	}

	now := o.now()
	plan := &BalancePlan{
		ID:         fmt.Sprintf("line-%s", now.Format("2006-01-02-150405")),
		CreatedAt:  now,
		Config:     config,
		Heuristic:  h.Name(),
		TotalTasks: g.TaskCount(),
	}
	log := o.logger.WithRun(plan.ID)

	cpmResult, err := cpm.Analyze(g)
	if err != nil {
		return nil, fmt.Errorf("critical path: %w", err)
	}
	rpw.Compute(g)

	log.WithPhase("assign").Info("assigning stations",
		"heuristic", h.Name(), "beat", config.Beat, "tasks", g.TaskCount())
	layout, err := h.Assign(g, config.Beat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.Name(), err)
	}
	plan.Initial = metrics.Summarize(layout)
	plan.Converged = true

	if config.Improve {
		ilog := log.WithPhase("improve")
		res, err := improve.Run(layout, improve.Options{MaxRounds: config.MaxRounds, Logger: ilog})
		if err != nil {
			return nil, fmt.Errorf("improve: %w", err)
		}
		plan.Moves = res.Moves
		plan.Converged = res.Converged
		ilog.Info("improvement finished", "moves", len(res.Moves), "converged", res.Converged)
	}

	if err := layout.Verify(); err != nil {
		return nil, err
	}
	plan.Final = metrics.Summarize(layout)
	log.WithPhase("metrics").Info("line balanced",
		"stations", plan.Final.StationCount,
		"balance_rate", plan.Final.BalanceRate,
		"smoothing_index", plan.Final.Smoothing)

	plan.CriticalPath = cpmResult.CriticalPath
	plan.CriticalTime = cpmResult.TotalDuration
	plan.Levels = len(cpmResult.Levels)
	fillStations(plan, g, layout, cpmResult)
	return plan, nil
}

func fillStations(plan *BalancePlan, g *graph.TaskGraph, layout *line.Layout, cpmResult *cpm.CPMResult) {
	plan.Tasks = make(map[string]*PlannedTask, g.TaskCount())
	for _, s := range layout.Stations {
		ps := PlannedStation{Index: s.Index}
		for _, id := range s.TaskIDs {
			t := g.Tasks[id]
			schedule := cpmResult.Tasks[id]
			pt := PlannedTask{
				TaskID:       id,
				Name:         t.Name,
				Duration:     t.Duration,
				Station:      s.Index,
				RPW:          t.RPW,
				Slack:        schedule.Slack,
				IsCritical:   schedule.IsCritical,
				Level:        schedule.Level,
				Predecessors: t.Predecessors,
			}
			ps.Tasks = append(ps.Tasks, pt)
			ps.Load += t.Duration
			plan.Tasks[id] = &pt
		}
		ps.Idle = layout.Beat - ps.Load
		plan.Stations = append(plan.Stations, ps)
	}
}
