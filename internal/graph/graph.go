package graph

import (
	"fmt"

	"github.com/gammazero/toposort"
	"github.com/joshharrison/lineloom/internal/source"
)

// BuildFromRaw constructs a TaskGraph from task records and derives the
// successor and chain-successor relations.
func BuildFromRaw(rawTasks []source.RawTask) (*TaskGraph, error) {
	g := &TaskGraph{
		Tasks:  make(map[string]*Task, len(rawTasks)),
		Adj:    make(map[string][]string),
		RevAdj: make(map[string][]string),
	}

	// Index all tasks
	for i := range rawTasks {
		rt := &rawTasks[i]
		if _, dup := g.Tasks[rt.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, rt.ID)
		}
		g.Tasks[rt.ID] = &Task{
			ID:           rt.ID,
			Name:         rt.Name,
			Duration:     rt.Duration,
			Predecessors: dedupe(rt.Predecessors),
			Index:        i,
		}
		g.Order = append(g.Order, rt.ID)
	}

	// Every predecessor must name a known task
	for _, id := range g.Order {
		for _, pred := range g.Tasks[id].Predecessors {
			if _, ok := g.Tasks[pred]; !ok {
				return nil, &InvalidReferenceError{TaskID: id, MissingID: pred}
			}
		}
	}

	g.DeriveSuccessors()
	if err := g.DeriveChainSuccessors(); err != nil {
		return nil, err
	}
	return g, nil
}

// DeriveSuccessors sets successors(A) = {B : A in B.predecessors} for every
// task, listing successors in input order.
func (g *TaskGraph) DeriveSuccessors() {
	g.Adj = make(map[string][]string, len(g.Tasks))
	g.RevAdj = make(map[string][]string, len(g.Tasks))
	g.Roots = nil
	g.Leaves = nil

	for _, id := range g.Order {
		t := g.Tasks[id]
		g.RevAdj[id] = t.Predecessors
		for _, pred := range t.Predecessors {
			g.Adj[pred] = append(g.Adj[pred], id)
		}
	}

	for _, id := range g.Order {
		t := g.Tasks[id]
		t.Successors = g.Adj[id]
		if len(t.Predecessors) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(t.Successors) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}
}

// DeriveChainSuccessors computes, for every task, the reflexive transitive
// closure of its successors. Closures are built in reverse topological order
// so each task unions the finished closures of its direct successors.
func (g *TaskGraph) DeriveChainSuccessors() error {
	var edges []toposort.Edge
	for _, id := range g.Order {
		for _, succ := range g.Adj[id] {
			edges = append(edges, toposort.Edge{id, succ})
		}
	}

	var sorted []interface{}
	if len(edges) > 0 {
		var err error
		sorted, err = toposort.Toposort(edges)
		if err != nil {
			return &CyclicDependencyError{Cycle: g.DetectCycle()}
		}
	}

	// Isolated tasks have no edges; they can go anywhere in the order.
	inSorted := make(map[string]bool, len(sorted))
	order := make([]string, 0, len(g.Tasks))
	for _, node := range sorted {
		id := node.(string)
		inSorted[id] = true
		order = append(order, id)
	}
	for _, id := range g.Order {
		if !inSorted[id] {
			order = append(order, id)
		}
	}
	g.TopoOrder = order

	for i := len(order) - 1; i >= 0; i-- {
		t := g.Tasks[order[i]]
		t.chain = map[string]bool{t.ID: true}
		for _, succ := range t.Successors {
			for member := range g.Tasks[succ].chain {
				t.chain[member] = true
			}
		}
	}

	for _, id := range g.Order {
		t := g.Tasks[id]
		t.ChainSuccessors = []string{id}
		for _, other := range g.Order {
			if other != id && t.chain[other] {
				t.ChainSuccessors = append(t.ChainSuccessors, other)
			}
		}
	}
	return nil
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// Uses an explicit-stack DFS with coloring: white (unvisited), gray (on the
// current path), black (done).
func (g *TaskGraph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	type frame struct {
		id   string
		next int
	}

	color := make(map[string]int, len(g.Tasks))
	parent := make(map[string]string)

	for _, root := range g.Order {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack := []frame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			adj := g.Adj[top.id]
			if top.next == len(adj) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			node := top.id
			next := adj[top.next]
			top.next++

			switch color[next] {
			case gray:
				// Found a cycle; walk parents back to its entry
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			case white:
				parent[next] = node
				color[next] = gray
				stack = append(stack, frame{id: next})
			}
		}
	}
	return nil
}

// TaskCount returns the number of tasks in the graph.
func (g *TaskGraph) TaskCount() int {
	return len(g.Tasks)
}

// TotalDuration returns the work content of the whole line.
func (g *TaskGraph) TotalDuration() int {
	total := 0
	for _, t := range g.Tasks {
		total += t.Duration
	}
	return total
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
