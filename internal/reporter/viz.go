package reporter

import (
	"fmt"
	"io"

	"github.com/joshharrison/lineloom/internal/graph"
	"github.com/joshharrison/lineloom/internal/planner"
	"github.com/joshharrison/lineloom/internal/ui"
)

// PrintASCIIGraph writes the precedence graph grouped by station, each task
// followed by the tasks it feeds and the station they sit at.
func PrintASCIIGraph(w io.Writer, g *graph.TaskGraph, plan *planner.BalancePlan) {
	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Precedence Graph by Station"))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════════"))
	fmt.Fprintln(w)

	for _, s := range plan.Stations {
		fmt.Fprintf(w, "%s 🏭 Station %d %s %s\n", ui.Cyan("──"), s.Index,
			ui.Dim(fmt.Sprintf("(%d/%d)", s.Load, plan.Config.Beat)), ui.Cyan("──────────────────────────"))
		for _, t := range s.Tasks {
			crit := " "
			if t.IsCritical {
				crit = ui.BoldYellow("⚡")
			}
			fmt.Fprintf(w, "  %s [%s] %s %s\n", crit, ui.TaskLabel(t.TaskID), t.Name,
				ui.Dim(fmt.Sprintf("(%d, L%d)", t.Duration, t.Level)))

			for _, succ := range g.Adj[t.TaskID] {
				at := "?"
				if pt, ok := plan.Tasks[succ]; ok {
					at = fmt.Sprint(pt.Station)
				}
				fmt.Fprintf(w, "      %s %s %s\n", ui.Dim("└──→"), ui.Magenta(succ), ui.Dim("@"+at))
			}
		}
		fmt.Fprintln(w)
	}
}

// PrintDOT writes the precedence graph in Graphviz DOT format with one
// cluster per station. Critical tasks and edges between them are red.
func PrintDOT(w io.Writer, g *graph.TaskGraph, plan *planner.BalancePlan) {
	fmt.Fprintln(w, "digraph lineloom {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")

	for _, s := range plan.Stations {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  subgraph cluster_%d {\n", s.Index)
		fmt.Fprintf(w, "    label=\"station %d (%d/%d)\";\n", s.Index, s.Load, plan.Config.Beat)
		for _, t := range s.Tasks {
			attrs := fmt.Sprintf(`label="%s\n%s (%d)"`, t.TaskID, t.Name, t.Duration)
			if t.IsCritical {
				attrs += `, style="rounded,bold", color=red`
			}
			fmt.Fprintf(w, "    %q [%s];\n", t.TaskID, attrs)
		}
		fmt.Fprintln(w, "  }")
	}

	fmt.Fprintln(w)
	for _, from := range g.Order {
		for _, to := range g.Adj[from] {
			style := ""
			pf, pt := plan.Tasks[from], plan.Tasks[to]
			if pf != nil && pt != nil && pf.IsCritical && pt.IsCritical {
				style = ` [color=red, penwidth=2]`
			}
			fmt.Fprintf(w, "  %q -> %q%s;\n", from, to, style)
		}
	}

	fmt.Fprintln(w, "}")
}
