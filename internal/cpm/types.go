package cpm

// CPMResult holds the critical path analysis of a precedence graph.
type CPMResult struct {
	Tasks         map[string]*TaskSchedule
	CriticalPath  []string // critical task ids in topological order
	TotalDuration int      // length of the longest precedence chain
	Levels        []Level  // tasks grouped by earliest start
	TopoOrder     []string
}

// TaskSchedule holds the timing of a single task if the line had unlimited
// stations.
type TaskSchedule struct {
	TaskID     string `json:"task_id"`
	ES         int    `json:"es"` // earliest start/finish
	EF         int    `json:"ef"`
	LS         int    `json:"ls"` // latest start/finish
	LF         int    `json:"lf"`
	Slack      int    `json:"slack"`
	IsCritical bool   `json:"is_critical"`
	Level      int    `json:"level"`
}

// Level is a group of tasks sharing one earliest start time.
type Level struct {
	Index      int
	Start      int
	TaskIDs    []string
	IsCritical bool // true if the level holds a critical task
}
