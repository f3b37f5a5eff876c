package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/lineloom/internal/improve"
	"github.com/joshharrison/lineloom/internal/metrics"
	"github.com/joshharrison/lineloom/internal/planner"
	"github.com/joshharrison/lineloom/internal/ui"
)

const barWidth = 24

// Reporter renders a balance plan for terminals and machines.
type Reporter struct {
	Plan *planner.BalancePlan
}

// New creates a new Reporter.
func New(plan *planner.BalancePlan) *Reporter {
	return &Reporter{Plan: plan}
}

// PrintReport writes the station layout, the metrics before and after
// improvement, the move log and the critical path.
func (r *Reporter) PrintReport(w io.Writer) {
	p := r.Plan
	beat := p.Config.Beat

	fmt.Fprintf(w, "%s %s\n", ui.BoldCyan("🏭 Lineloom"), ui.Dim(p.ID))
	fmt.Fprintf(w, "%s\n", ui.Cyan("══════════════════════════"))
	fmt.Fprintf(w, "Heuristic: %s\n", ui.Bold(p.Heuristic))
	fmt.Fprintf(w, "Beat:      %d\n", beat)
	fmt.Fprintf(w, "Tasks:     %d (work %d)\n", p.TotalTasks, p.Final.TotalWork)
	fmt.Fprintf(w, "Stations:  %d %s\n", p.StationCount(),
		ui.Dim(fmt.Sprintf("(lower bound %d)", p.Final.MinStations)))
	fmt.Fprintf(w, "Levels:    %d\n\n", p.Levels)

	for _, s := range p.Stations {
		fmt.Fprintf(w, "  %s %-3d %s %3d/%d  %s\n",
			ui.BoldWhite("STATION"), s.Index,
			ui.LoadBar(s.Load, beat, barWidth), s.Load, beat,
			ui.Dim(fmt.Sprintf("idle %d", s.Idle)))
		for _, t := range s.Tasks {
			r.printTask(w, t)
		}
		fmt.Fprintln(w)
	}

	r.printMetrics(w)

	if p.Improved() {
		fmt.Fprintf(w, "\n%s\n", ui.Bold("Improvement moves:"))
		for _, m := range p.Moves {
			fmt.Fprintf(w, "  %s %s\n", ui.MoveIcon(string(m.Kind)), describeMove(m))
		}
		if !p.Converged {
			fmt.Fprintf(w, "  %s\n", ui.Yellow("stopped at round cap before converging"))
		}
	}

	if len(p.CriticalPath) > 0 {
		fmt.Fprintf(w, "\nCritical:  %s %s\n",
			ui.BoldYellow("⚡ "+strings.Join(p.CriticalPath, " → ")),
			ui.Dim(fmt.Sprintf("(%d)", p.CriticalTime)))
	}
}

func (r *Reporter) printTask(w io.Writer, t planner.PlannedTask) {
	critical := " "
	if t.IsCritical {
		critical = ui.BoldYellow("⚡")
	}

	fmt.Fprintf(w, "    %s %-8s %-40s %4d  %s\n",
		critical, ui.TaskLabel(t.TaskID), truncate(t.Name, 40), t.Duration,
		ui.Dim(fmt.Sprintf("rpw %d  L%d", t.RPW, t.Level)))
}

// truncate shortens s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func (r *Reporter) printMetrics(w io.Writer) {
	p := r.Plan
	if !p.Config.Improve {
		fmt.Fprintf(w, "Balance rate:    %.3f\n", p.Final.BalanceRate)
		fmt.Fprintf(w, "Smoothing index: %.3f\n", p.Final.Smoothing)
		fmt.Fprintf(w, "Line efficiency: %.3f\n", p.Final.LineEfficiency)
		return
	}

	fmt.Fprintf(w, "%-17s %8s %8s  %s\n", "", "initial", "final", "")
	fmt.Fprintf(w, "%-17s %8.3f %8.3f  %s\n", "Balance rate:",
		p.Initial.BalanceRate, p.Final.BalanceRate,
		ui.Delta(p.Initial.BalanceRate, p.Final.BalanceRate, true))
	fmt.Fprintf(w, "%-17s %8.3f %8.3f  %s\n", "Smoothing index:",
		p.Initial.Smoothing, p.Final.Smoothing,
		ui.Delta(p.Initial.Smoothing, p.Final.Smoothing, false))
	fmt.Fprintf(w, "%-17s %8d %8d\n", "Max load:", p.Initial.MaxLoad, p.Final.MaxLoad)
}

func describeMove(m improve.Move) string {
	if m.Kind == improve.Trade {
		return fmt.Sprintf("round %d: trade %s (station %d) with %s (station %d)  %s",
			m.Round, ui.TaskLabel(m.Task), m.From, ui.TaskLabel(m.Partner), m.To, ui.Dim(formatLoads(m.LoadsAfter)))
	}
	return fmt.Sprintf("round %d: transfer %s from station %d to %d  %s",
		m.Round, ui.TaskLabel(m.Task), m.From, m.To, ui.Dim(formatLoads(m.LoadsAfter)))
}

func formatLoads(loads []int) string {
	parts := make([]string, len(loads))
	for i, l := range loads {
		parts[i] = fmt.Sprint(l)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// JSON returns the machine-readable report.
func (r *Reporter) JSON() ([]byte, error) {
	type task struct {
		TaskID   string `json:"task_id"`
		Name     string `json:"name"`
		Duration int    `json:"duration"`
		Level    int    `json:"level"`
	}

	type station struct {
		Index int    `json:"index"`
		Load  int    `json:"load"`
		Idle  int    `json:"idle"`
		Tasks []task `json:"tasks"`
	}

	type output struct {
		PlanID         string           `json:"plan_id"`
		Heuristic      string           `json:"heuristic"`
		Beat           int              `json:"beat"`
		StationCount   int              `json:"station_count"`
		BalanceRate    float64          `json:"balance_rate"`
		SmoothingIndex float64          `json:"smoothing_index"`
		Stations       []station        `json:"stations"`
		Moves          []improve.Move   `json:"moves,omitempty"`
		Initial        *metrics.Summary `json:"initial,omitempty"`
		Final          metrics.Summary  `json:"final"`
		CriticalPath   []string         `json:"critical_path"`
	}

	p := r.Plan
	o := output{
		PlanID:         p.ID,
		Heuristic:      p.Heuristic,
		Beat:           p.Config.Beat,
		StationCount:   p.StationCount(),
		BalanceRate:    p.Final.BalanceRate,
		SmoothingIndex: p.Final.Smoothing,
		Moves:          p.Moves,
		Final:          p.Final,
		CriticalPath:   p.CriticalPath,
	}
	if p.Config.Improve {
		initial := p.Initial
		o.Initial = &initial
	}

	for _, s := range p.Stations {
		st := station{Index: s.Index, Load: s.Load, Idle: s.Idle}
		for _, t := range s.Tasks {
			st.Tasks = append(st.Tasks, task{TaskID: t.TaskID, Name: t.Name, Duration: t.Duration, Level: t.Level})
		}
		o.Stations = append(o.Stations, st)
	}

	return json.MarshalIndent(o, "", "  ")
}

// Summary returns a one-line summary of the plan.
func (r *Reporter) Summary() string {
	p := r.Plan
	s := fmt.Sprintf("%s: %d stations, balance rate %.3f, smoothing index %.3f",
		p.Heuristic, p.StationCount(), p.Final.BalanceRate, p.Final.Smoothing)
	if p.Improved() {
		s += fmt.Sprintf(", %d moves", len(p.Moves))
	}
	return s
}

// PrintComparison writes one row per plan so heuristics can be compared on
// the same task table. The best balance rate is highlighted.
func PrintComparison(w io.Writer, plans []*planner.BalancePlan) {
	if len(plans) == 0 {
		return
	}

	best := 0
	for i, p := range plans {
		if p.Final.BalanceRate > plans[best].Final.BalanceRate {
			best = i
		}
	}

	fmt.Fprintf(w, "%s %s\n", ui.BoldCyan("🏭 Lineloom comparison"),
		ui.Dim(fmt.Sprintf("beat %d", plans[0].Config.Beat)))
	fmt.Fprintf(w, "  %-24s %8s %8s %10s %10s %6s\n",
		"HEURISTIC", "IMPROVE", "STATIONS", "BALANCE", "SMOOTHING", "MOVES")
	for i, p := range plans {
		improveCol := "no"
		if p.Config.Improve {
			improveCol = "yes"
		}
		row := fmt.Sprintf("  %-24s %8s %8d %10.3f %10.3f %6d",
			p.Heuristic, improveCol, p.StationCount(), p.Final.BalanceRate, p.Final.Smoothing, len(p.Moves))
		if i == best {
			row = ui.BoldGreen(row)
		}
		fmt.Fprintln(w, row)
	}
}
