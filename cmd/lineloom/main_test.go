package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/joshharrison/lineloom/internal/source"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `id,name,duration,predecessors
1,Frame,5,
2,Wheels,3,1
3,Cables,4,1
`

// run executes the CLI with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if os.Getenv("LINELOOM_STATE_DIR") == "" {
		t.Setenv("LINELOOM_STATE_DIR", filepath.Join(t.TempDir(), ".lineloom"))
	}
	flagConfig, flagJSON, flagInputFormat, flagOutput, flagFormat = "", false, "", "", ""

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w

	cmd := newRootCmd()
	cmd.SetArgs(args)
	runErr := cmd.Execute()

	w.Close()
	os.Stdout = stdout
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out), runErr
}

func writeTasks(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))
	return path
}

func TestBalance_JSON(t *testing.T) {
	out, err := run(t, "balance", writeTasks(t), "--beat", "7", "--json")
	require.NoError(t, err)

	var parsed struct {
		Heuristic    string `json:"heuristic"`
		StationCount int    `json:"station_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	require.Equal(t, "rpw", parsed.Heuristic)
	require.Equal(t, 2, parsed.StationCount)
}

func TestBalance_RequiresBeat(t *testing.T) {
	_, err := run(t, "balance", writeTasks(t))
	require.ErrorContains(t, err, "beat is required")
}

func TestBalance_BeatFromEnv(t *testing.T) {
	t.Setenv("LINELOOM_BALANCE_BEAT", "7")
	out, err := run(t, "balance", writeTasks(t), "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"beat": 7`)
}

func TestCompare(t *testing.T) {
	out, err := run(t, "compare", writeTasks(t), "--beat", "7")
	require.NoError(t, err)
	require.Contains(t, out, "rpw")
	require.Contains(t, out, "moodie_young/max_time")
	require.Contains(t, out, "moodie_young/min_time")
}

func TestViz_DOT(t *testing.T) {
	out, err := run(t, "viz", writeTasks(t), "--beat", "7", "--format", "dot")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "digraph lineloom {"), out)
}

func TestInferPreds_FromFileApply(t *testing.T) {
	tasks := filepath.Join(t.TempDir(), "tasks.csv")
	require.NoError(t, os.WriteFile(tasks, []byte("id,name,duration,predecessors\n1,Frame,5,\n2,Wheels,3,\n"), 0644))

	edges := filepath.Join(t.TempDir(), "edges.json")
	doc := `{"edges": [{"task_id": "2", "predecessor_id": "1", "reason": "frame first"}, {"task_id": "1", "predecessor_id": "2"}], "summary": "s"}`
	require.NoError(t, os.WriteFile(edges, []byte(doc), 0644))

	merged := filepath.Join(t.TempDir(), "merged.csv")
	_, err := run(t, "infer-preds", tasks, "--from-file", edges, "--apply", "-o", merged)
	require.NoError(t, err)

	records, err := source.Load(merged)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Empty(t, records[0].Predecessors)
	require.Equal(t, []string{"1"}, records[1].Predecessors)
}

func TestStatusAndHistory(t *testing.T) {
	t.Setenv("LINELOOM_STATE_DIR", filepath.Join(t.TempDir(), "state"))
	tasks := writeTasks(t)

	out, err := run(t, "status")
	require.NoError(t, err)
	require.Contains(t, out, "No balance runs recorded")

	_, err = run(t, "balance", tasks, "--beat", "7", "--json")
	require.NoError(t, err)
	_, err = run(t, "balance", tasks, "--beat", "7", "--heuristic", "moodie_young", "--json")
	require.NoError(t, err)

	out, err = run(t, "history")
	require.NoError(t, err)
	require.Contains(t, out, "rpw")
	require.Contains(t, out, "moodie_young/max_time")

	out, err = run(t, "status", "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"heuristic": "moodie_young/max_time"`)

	out, err = run(t, "status")
	require.NoError(t, err)
	require.Contains(t, out, "Last run")
	require.Contains(t, out, "moodie_young/max_time: 2 stations, balance rate 0.571")

	out, err = run(t, "clean")
	require.NoError(t, err)
	require.Contains(t, out, "Removed")

	out, err = run(t, "history")
	require.NoError(t, err)
	require.Contains(t, out, "No balance runs recorded")
}

func TestBalance_NoSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	t.Setenv("LINELOOM_STATE_DIR", dir)

	_, err := run(t, "balance", writeTasks(t), "--beat", "7", "--json", "--save=false")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "history.json"))
	require.True(t, os.IsNotExist(err))
}
