package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/joshharrison/lineloom/internal/source"
)

func TestBuildFromRaw_SimpleDAG(t *testing.T) {
	// 1 -> 2 -> 4
	// 1 -> 3 -> 4
	raw := []source.RawTask{
		{ID: "1", Name: "Mount frame", Duration: 5},
		{ID: "2", Name: "Fit wheels", Duration: 3, Predecessors: []string{"1"}},
		{ID: "3", Name: "Route cables", Duration: 4, Predecessors: []string{"1"}},
		{ID: "4", Name: "Final check", Duration: 2, Predecessors: []string{"2", "3"}},
	}

	g, err := BuildFromRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.TaskCount() != 4 {
		t.Errorf("expected 4 tasks, got %d", g.TaskCount())
	}

	if len(g.Roots) != 1 || g.Roots[0] != "1" {
		t.Errorf("expected roots=[1], got %v", g.Roots)
	}
	if len(g.Leaves) != 1 || g.Leaves[0] != "4" {
		t.Errorf("expected leaves=[4], got %v", g.Leaves)
	}

	if succ := g.Tasks["1"].Successors; !reflect.DeepEqual(succ, []string{"2", "3"}) {
		t.Errorf("expected successors of 1 = [2 3], got %v", succ)
	}
	if rev := g.RevAdj["4"]; len(rev) != 2 {
		t.Errorf("expected 4 to have 2 predecessors, got %v", rev)
	}

	if chain := g.Tasks["1"].ChainSuccessors; !reflect.DeepEqual(chain, []string{"1", "2", "3", "4"}) {
		t.Errorf("expected chain of 1 = [1 2 3 4], got %v", chain)
	}
	if chain := g.Tasks["3"].ChainSuccessors; !reflect.DeepEqual(chain, []string{"3", "4"}) {
		t.Errorf("expected chain of 3 = [3 4], got %v", chain)
	}
	if chain := g.Tasks["4"].ChainSuccessors; !reflect.DeepEqual(chain, []string{"4"}) {
		t.Errorf("expected chain of 4 = [4], got %v", chain)
	}
}

func TestBuildFromRaw_ChainIsReflexive(t *testing.T) {
	raw := []source.RawTask{
		{ID: "a", Duration: 1},
		{ID: "b", Duration: 1, Predecessors: []string{"a"}},
		{ID: "c", Duration: 1},
	}

	g, err := BuildFromRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for id, task := range g.Tasks {
		if !task.InChain(id) {
			t.Errorf("task %s missing from its own chain", id)
		}
		if task.ChainSuccessors[0] != id {
			t.Errorf("task %s: chain should start with itself, got %v", id, task.ChainSuccessors)
		}
	}
}

// The closure must equal the fixed point of unioning the direct successors'
// closures.
func TestBuildFromRaw_ChainIsFixedPoint(t *testing.T) {
	raw := []source.RawTask{
		{ID: "1", Duration: 1},
		{ID: "2", Duration: 1, Predecessors: []string{"1"}},
		{ID: "3", Duration: 1, Predecessors: []string{"1"}},
		{ID: "4", Duration: 1, Predecessors: []string{"2"}},
		{ID: "5", Duration: 1, Predecessors: []string{"3", "4"}},
		{ID: "6", Duration: 1, Predecessors: []string{"5"}},
		{ID: "7", Duration: 1},
	}

	g, err := BuildFromRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, id := range g.Order {
		task := g.Tasks[id]
		want := map[string]bool{id: true}
		for _, succ := range task.Successors {
			for _, member := range g.Tasks[succ].ChainSuccessors {
				want[member] = true
			}
		}
		if len(want) != len(task.ChainSuccessors) {
			t.Errorf("task %s: expected %d chain members, got %v", id, len(want), task.ChainSuccessors)
		}
		for member := range want {
			if !task.InChain(member) {
				t.Errorf("task %s: %s missing from chain", id, member)
			}
		}
	}

	if len(g.TopoOrder) != 7 {
		t.Errorf("expected topo order over 7 tasks, got %v", g.TopoOrder)
	}
}

func TestBuildFromRaw_CycleDetection(t *testing.T) {
	// a -> b -> c -> a (cycle)
	raw := []source.RawTask{
		{ID: "a", Duration: 1, Predecessors: []string{"c"}},
		{ID: "b", Duration: 1, Predecessors: []string{"a"}},
		{ID: "c", Duration: 1, Predecessors: []string{"b"}},
	}

	_, err := BuildFromRaw(raw)
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
	var cycErr *CyclicDependencyError
	if !errors.As(err, &cycErr) {
		t.Fatalf("expected *CyclicDependencyError, got %T", err)
	}
	if len(cycErr.Cycle) < 4 || cycErr.Cycle[0] != cycErr.Cycle[len(cycErr.Cycle)-1] {
		t.Errorf("expected closed cycle path, got %v", cycErr.Cycle)
	}
	t.Logf("cycle error (expected): %v", err)
}

func TestBuildFromRaw_SelfLoop(t *testing.T) {
	raw := []source.RawTask{
		{ID: "a", Duration: 1, Predecessors: []string{"a"}},
	}

	_, err := BuildFromRaw(raw)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected cyclic dependency, got %v", err)
	}
}

func TestBuildFromRaw_InvalidReference(t *testing.T) {
	raw := []source.RawTask{
		{ID: "1", Duration: 2},
		{ID: "2", Duration: 3, Predecessors: []string{"1", "9"}},
	}

	_, err := BuildFromRaw(raw)
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	var refErr *InvalidReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected *InvalidReferenceError, got %T", err)
	}
	if refErr.TaskID != "2" || refErr.MissingID != "9" {
		t.Errorf("expected task 2 / missing 9, got %s / %s", refErr.TaskID, refErr.MissingID)
	}
}

func TestBuildFromRaw_DuplicateID(t *testing.T) {
	raw := []source.RawTask{
		{ID: "1", Duration: 2},
		{ID: "1", Duration: 3},
	}

	_, err := BuildFromRaw(raw)
	if !errors.Is(err, ErrDuplicateTask) {
		t.Fatalf("expected ErrDuplicateTask, got %v", err)
	}
}

func TestBuildFromRaw_DuplicatePredecessorsCollapsed(t *testing.T) {
	raw := []source.RawTask{
		{ID: "1", Duration: 2},
		{ID: "2", Duration: 3, Predecessors: []string{"1", "1"}},
	}

	g, err := BuildFromRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Tasks["2"].Predecessors) != 1 {
		t.Errorf("expected one predecessor, got %v", g.Tasks["2"].Predecessors)
	}
	if len(g.Tasks["1"].Successors) != 1 {
		t.Errorf("expected one successor, got %v", g.Tasks["1"].Successors)
	}
}

func TestDetectCycle_NoCycle(t *testing.T) {
	g := &TaskGraph{
		Tasks: map[string]*Task{
			"a": {ID: "a"},
			"b": {ID: "b"},
		},
		Order: []string{"a", "b"},
		Adj: map[string][]string{
			"a": {"b"},
		},
	}

	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("expected no cycle, got %v", cycle)
	}
}

func TestDetectCycle_WithCycle(t *testing.T) {
	g := &TaskGraph{
		Tasks: map[string]*Task{
			"a": {ID: "a"},
			"b": {ID: "b"},
			"c": {ID: "c"},
		},
		Order: []string{"a", "b", "c"},
		Adj: map[string][]string{
			"a": {"b"},
			"b": {"c"},
			"c": {"a"},
		},
	}

	cycle := g.DetectCycle()
	if cycle == nil {
		t.Fatal("expected cycle, got nil")
	}
	if !reflect.DeepEqual(cycle, []string{"a", "b", "c", "a"}) {
		t.Errorf("expected cycle [a b c a], got %v", cycle)
	}
}

func TestBuildFromRaw_Empty(t *testing.T) {
	g, err := BuildFromRaw(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TaskCount() != 0 {
		t.Errorf("expected 0 tasks, got %d", g.TaskCount())
	}
}

func TestBuildFromRaw_LinearChain(t *testing.T) {
	raw := []source.RawTask{
		{ID: "a", Duration: 1},
		{ID: "b", Duration: 2, Predecessors: []string{"a"}},
		{ID: "c", Duration: 3, Predecessors: []string{"b"}},
		{ID: "d", Duration: 4, Predecessors: []string{"c"}},
	}

	g, err := BuildFromRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(g.TopoOrder, []string{"a", "b", "c", "d"}) {
		t.Errorf("expected topo order a..d, got %v", g.TopoOrder)
	}
	if g.TotalDuration() != 10 {
		t.Errorf("expected total duration 10, got %d", g.TotalDuration())
	}
}
