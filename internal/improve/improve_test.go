package improve

import (
	"bytes"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/joshharrison/lineloom/internal/graph"
	"github.com/joshharrison/lineloom/internal/heuristic"
	"github.com/joshharrison/lineloom/internal/line"
	"github.com/joshharrison/lineloom/internal/logging"
	"github.com/joshharrison/lineloom/internal/metrics"
	"github.com/joshharrison/lineloom/internal/source"
	"github.com/stretchr/testify/require"
)

func layoutOf(t *testing.T, raw []source.RawTask, beat int, stations ...[]string) *line.Layout {
	t.Helper()
	g, err := graph.BuildFromRaw(raw)
	require.NoError(t, err)
	l := line.New(g, beat)
	for _, ids := range stations {
		j := l.Open()
		for _, id := range ids {
			require.NoError(t, l.Place(id, j))
		}
	}
	require.NoError(t, l.Verify())
	return l
}

// a=6 b=2 | c=1, no precedence
func unevenPair(t *testing.T) *line.Layout {
	return layoutOf(t, []source.RawTask{
		{ID: "a", Duration: 6},
		{ID: "b", Duration: 2},
		{ID: "c", Duration: 1},
	}, 10, []string{"a", "b"}, []string{"c"})
}

func TestExtremes(t *testing.T) {
	jMax, jMin := Extremes([]int{4, 9, 2, 9, 2})
	require.Equal(t, 2, jMax)
	require.Equal(t, 3, jMin)

	jMax, jMin = Extremes(nil)
	require.Zero(t, jMax)
	require.Zero(t, jMin)
}

func TestGenerate(t *testing.T) {
	cands := Generate(unevenPair(t))

	require.Equal(t, []Candidate{
		{Kind: Transfer, Task: "a", From: 1, To: 2, ExpectedGain: 2.5},
		{Kind: Transfer, Task: "b", From: 1, To: 2, ExpectedGain: 1.5},
		{Kind: Trade, Task: "a", Partner: "c", From: 1, To: 2, ExpectedGain: 3},
		{Kind: Trade, Task: "b", Partner: "c", From: 1, To: 2, ExpectedGain: 5},
	}, cands)

	best, ok := Select(cands)
	require.True(t, ok)
	require.Equal(t, "b", best.Task)
	require.Equal(t, Transfer, best.Kind)
}

func TestGenerate_NoCandidates(t *testing.T) {
	t.Run("single station", func(t *testing.T) {
		l := layoutOf(t, []source.RawTask{{ID: "a", Duration: 3}}, 5, []string{"a"})
		require.Empty(t, Generate(l))
	})

	t.Run("already level", func(t *testing.T) {
		l := layoutOf(t, []source.RawTask{
			{ID: "a", Duration: 3},
			{ID: "b", Duration: 3},
		}, 5, []string{"a"}, []string{"b"})
		require.Empty(t, Generate(l))
	})
}

func TestGenerate_RespectsPrecedence(t *testing.T) {
	// a -> b -> d; a would balance the line but cannot pass b
	l := layoutOf(t, []source.RawTask{
		{ID: "a", Duration: 1},
		{ID: "b", Duration: 2, Predecessors: []string{"a"}},
		{ID: "c", Duration: 5},
		{ID: "d", Duration: 1, Predecessors: []string{"b"}},
	}, 10, []string{"a", "c"}, []string{"b"}, []string{"d"})

	require.Empty(t, Generate(l))
}

func TestGenerate_SkipsChainRelatedTrades(t *testing.T) {
	// x -> y and both sit on different stations
	l := layoutOf(t, []source.RawTask{
		{ID: "x", Duration: 2},
		{ID: "z", Duration: 7},
		{ID: "y", Duration: 1, Predecessors: []string{"x"}},
	}, 10, []string{"x", "z"}, []string{"y"})

	for _, c := range Generate(l) {
		if c.Kind == Trade {
			require.False(t, c.Task == "x" && c.Partner == "y", "x and y are precedence related")
		}
	}
}

func TestSelect_FirstGeneratedWinsTies(t *testing.T) {
	cands := []Candidate{
		{Kind: Transfer, Task: "p", ExpectedGain: 1},
		{Kind: Trade, Task: "q", ExpectedGain: 0.5},
		{Kind: Transfer, Task: "r", ExpectedGain: 0.5},
	}
	best, ok := Select(cands)
	require.True(t, ok)
	require.Equal(t, "q", best.Task)

	_, ok = Select(nil)
	require.False(t, ok)
}

func TestApply(t *testing.T) {
	l := unevenPair(t)
	require.NoError(t, Apply(l, Candidate{Kind: Trade, Task: "a", Partner: "c", From: 1, To: 2}))
	require.Equal(t, []int{3, 6}, l.Loads())

	require.NoError(t, Apply(l, Candidate{Kind: Transfer, Task: "b", From: 1, To: 2}))
	require.Equal(t, []int{1, 8}, l.Loads())

	require.Error(t, Apply(l, Candidate{Kind: "rotate"}))
}

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	l := unevenPair(t)

	res, err := Run(l, Options{Logger: logging.New(&buf, logging.LevelDebug)})
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.Equal(t, 1, res.Rounds)
	require.Equal(t, []Move{{
		Round:        1,
		Kind:         Transfer,
		Task:         "b",
		From:         1,
		To:           2,
		ExpectedGain: 1.5,
		LoadsAfter:   []int{6, 3},
	}}, res.Moves)
	require.NoError(t, l.Verify())
	require.True(t, strings.Contains(buf.String(), `"msg":"applied move"`))
}

func TestRun_MaxRounds(t *testing.T) {
	raw := []source.RawTask{{ID: "e", Duration: 1}}
	busy := []string{"a", "b", "c", "d", "f", "g"}
	for _, id := range busy {
		raw = append(raw, source.RawTask{ID: id, Duration: 1})
	}
	l := layoutOf(t, raw, 10, busy, []string{"e"})

	res, err := Run(l, Options{MaxRounds: 1})
	require.NoError(t, err)
	require.Len(t, res.Moves, 1)
	require.False(t, res.Converged)
	require.Equal(t, []int{5, 2}, l.Loads())

	res, err = Run(l, Options{})
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.Len(t, res.Moves, 1)
	require.Equal(t, []int{4, 3}, l.Loads())
}

func randomDAG(rng *rand.Rand, n int) []source.RawTask {
	raw := make([]source.RawTask, n)
	for i := range raw {
		rt := source.RawTask{ID: strconv.Itoa(i + 1), Duration: rng.Intn(12)}
		for p := 0; p < i; p++ {
			if rng.Intn(5) == 0 {
				rt.Predecessors = append(rt.Predecessors, strconv.Itoa(p+1))
			}
		}
		raw[i] = rt
	}
	return raw
}

func TestRun_MonotoneAndIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	heuristics := []heuristic.Heuristic{
		heuristic.RPW{},
		heuristic.MoodieYoung{TieBreak: heuristic.MaxTime},
		heuristic.MoodieYoung{TieBreak: heuristic.MinTime},
	}

	for round := 0; round < 40; round++ {
		raw := randomDAG(rng, 6+rng.Intn(30))
		g, err := graph.BuildFromRaw(raw)
		require.NoError(t, err)
		beat := 12 + rng.Intn(20)

		for _, h := range heuristics {
			l, err := h.Assign(g, beat)
			require.NoError(t, err)
			before := metrics.Summarize(l)

			res, err := Run(l, Options{})
			require.NoError(t, err)
			require.True(t, res.Converged)
			require.NoError(t, l.Verify())

			after := metrics.Summarize(l)
			require.Equal(t, before.StationCount, after.StationCount)
			require.LessOrEqual(t, after.MaxLoad, before.MaxLoad)
			require.GreaterOrEqual(t, after.BalanceRate+1e-9, before.BalanceRate)
			require.LessOrEqual(t, after.Smoothing, before.Smoothing+1e-9)

			again, err := Run(l, Options{})
			require.NoError(t, err)
			require.Empty(t, again.Moves)
			require.True(t, again.Converged)
		}
	}
}
