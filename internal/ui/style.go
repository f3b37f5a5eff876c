package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintLogo renders the colored lineloom logo.
func PrintLogo(w io.Writer) {
	frame := color.New(color.FgCyan)
	stations := color.New(color.FgYellow)
	belt := color.New(color.FgCyan, color.Faint)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	stations.Fprintln(w, "   |  [#]  [#]  [#]  [#]  [#] |")
	belt.Fprintln(w, "   |==>==>==>==>==>==>==>==>==|")
	brand.Fprintln(w, "   |  L  I  N  E  L  O  O  M  |")
	belt.Fprintln(w, "   |==>==>==>==>==>==>==>==>==|")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintln(w, "   Assembly line balancing")
	fmt.Fprintln(w)
}

// taskColors is a palette of distinct bold colors for differentiating tasks.
var taskColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// taskColorIndex hashes a task ID to a palette index.
func taskColorIndex(taskID string) int {
	var h uint32
	for _, c := range taskID {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(taskColors)))
}

// TaskLabel returns the task id in its palette color. The same id always
// gets the same color.
func TaskLabel(taskID string) string {
	return taskColors[taskColorIndex(taskID)](taskID)
}

// LoadBar draws load against beat as a bar of width cells. Utilization at
// or above 90% is green, at or above 60% yellow, and red below that.
func LoadBar(load, beat, width int) string {
	if width <= 0 || beat <= 0 {
		return ""
	}
	filled := load * width / beat
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled)
	rest := Dim(strings.Repeat("░", width-filled))
	return UtilizationColor(load, beat)(bar) + rest
}

// UtilizationColor picks the color for a station loaded to load out of beat.
func UtilizationColor(load, beat int) func(a ...interface{}) string {
	switch {
	case beat <= 0:
		return Dim
	case load*10 >= beat*9:
		return Green
	case load*10 >= beat*6:
		return Yellow
	default:
		return Red
	}
}

// MoveIcon returns a colored icon for an improvement move kind.
func MoveIcon(kind string) string {
	switch kind {
	case "transfer":
		return Cyan("→")
	case "trade":
		return Magenta("⇄")
	default:
		return Dim("·")
	}
}

// Delta formats the change from before to after. Green marks a change in
// the wanted direction, red the opposite.
func Delta(before, after float64, higherIsBetter bool) string {
	d := after - before
	s := fmt.Sprintf("%+.3f", d)
	switch {
	case d == 0:
		return Dim(s)
	case (d > 0) == higherIsBetter:
		return Green(s)
	default:
		return Red(s)
	}
}
