package graph

// Task is a single work element of the line.
type Task struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Duration     int      `json:"duration"`
	Predecessors []string `json:"predecessors"`
	Successors   []string `json:"successors"`
	// ChainSuccessors is the task itself followed by every task that
	// transitively depends on it, in input order.
	ChainSuccessors []string `json:"chain_successors"`
	RPW             int      `json:"rpw"`
	Index           int      `json:"-"` // position in the input table

	chain map[string]bool
}

// InChain reports whether id is in the task's chain-successor closure.
func (t *Task) InChain(id string) bool {
	return t.chain[id]
}

// TaskGraph is a directed acyclic precedence graph of tasks.
type TaskGraph struct {
	Tasks     map[string]*Task
	Order     []string            // task ids in input order
	Adj       map[string][]string // task -> direct successors
	RevAdj    map[string][]string // task -> direct predecessors
	Roots     []string            // tasks with no predecessors
	Leaves    []string            // tasks with no successors
	TopoOrder []string
}
