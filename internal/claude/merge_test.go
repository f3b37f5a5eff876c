package claude

import (
	"reflect"
	"strings"
	"testing"

	"github.com/joshharrison/lineloom/internal/graph"
	"github.com/joshharrison/lineloom/internal/source"
)

func records() []source.RawTask {
	return []source.RawTask{
		{ID: "1", Name: "Frame", Duration: 5},
		{ID: "2", Name: "Wheels", Duration: 3, Predecessors: []string{"1"}},
		{ID: "3", Name: "Cables", Duration: 4},
		{ID: "4", Name: "Check", Duration: 2},
	}
}

func TestMergeEdges(t *testing.T) {
	in := records()
	edges := []PredEdge{
		{TaskID: "3", PredecessorID: "1", Reason: "frame first"},
		{TaskID: "9", PredecessorID: "1"},
		{TaskID: "3", PredecessorID: "8"},
		{TaskID: "4", PredecessorID: "4"},
		{TaskID: "2", PredecessorID: "1"},
		{TaskID: "4", PredecessorID: "3"},
		{TaskID: "1", PredecessorID: "4"},
	}

	merged, accepted, skipped := MergeEdges(in, edges)

	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted edges, got %+v", accepted)
	}
	if len(skipped) != 5 {
		t.Fatalf("expected 5 skipped edges, got %+v", skipped)
	}
	wantReasons := []string{"unknown task_id", "unknown predecessor_id", "self-precedence", "already present", "would create cycle"}
	for i, want := range wantReasons {
		if !strings.HasPrefix(skipped[i].Reason, want) {
			t.Errorf("skip %d: expected reason %q, got %q", i, want, skipped[i].Reason)
		}
	}

	if !reflect.DeepEqual(merged[2].Predecessors, []string{"1"}) {
		t.Errorf("expected task 3 preceded by 1, got %v", merged[2].Predecessors)
	}
	if !reflect.DeepEqual(merged[3].Predecessors, []string{"3"}) {
		t.Errorf("expected task 4 preceded by 3, got %v", merged[3].Predecessors)
	}
	if len(merged[0].Predecessors) != 0 {
		t.Errorf("task 1 should stay a root, got %v", merged[0].Predecessors)
	}

	// Input is untouched
	if len(in[2].Predecessors) != 0 || len(in[3].Predecessors) != 0 {
		t.Error("MergeEdges modified its input")
	}

	if _, err := graph.BuildFromRaw(merged); err != nil {
		t.Errorf("merged records should form a valid graph: %v", err)
	}
}

func TestMergeEdges_NoEdges(t *testing.T) {
	merged, accepted, skipped := MergeEdges(records(), nil)
	if !reflect.DeepEqual(merged, records()) {
		t.Errorf("expected records unchanged, got %+v", merged)
	}
	if accepted != nil || skipped != nil {
		t.Errorf("expected nothing accepted or skipped, got %v / %v", accepted, skipped)
	}
}

func TestSummaries(t *testing.T) {
	got := Summaries(records())
	if len(got) != 4 || got[1].ID != "2" || got[1].Name != "Wheels" || got[1].Duration != 3 {
		t.Errorf("unexpected summaries: %+v", got)
	}
	if !reflect.DeepEqual(got[1].Predecessors, []string{"1"}) {
		t.Errorf("expected predecessors carried over, got %v", got[1].Predecessors)
	}
}
