package assign

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"paretoevo/internal/evo"
	"paretoevo/internal/model"
)

func loadTestProblem(t *testing.T) *Problem {
	t.Helper()
	p, err := LoadDir("testdata")
	require.NoError(t, err)
	return p
}

// smallProblem has two TAs and three sections; sections 0 and 1 share a
// daytime.
func smallProblem(t *testing.T) *Problem {
	t.Helper()
	p, err := NewProblem(
		[]TA{
			{ID: 0, Name: "a", MaxAssigned: 1, Prefs: []Preference{Preferred, Willing, Unwilling}},
			{ID: 1, Name: "b", MaxAssigned: 2, Prefs: []Preference{Unwilling, Preferred, Willing}},
		},
		[]Section{
			{ID: 0, Daytime: "M 10", MinTA: 1},
			{ID: 1, Daytime: "M 10", MinTA: 2},
			{ID: 2, Daytime: "T 2", MinTA: 0},
		},
	)
	require.NoError(t, err)
	return p
}

func mustRows(t *testing.T, rows [][]int) model.Solution {
	t.Helper()
	s, err := model.FromRows(rows)
	require.NoError(t, err)
	return s
}

func evaluate(p *Problem, s model.Solution) []float64 {
	return []float64{p.Overallocation(s), p.Conflicts(s), p.Undersupport(s), p.Unwilling(s), p.Unpreferred(s)}
}

func TestAllZeroAssignment(t *testing.T) {
	p := loadTestProblem(t)
	require.Equal(t, 43, p.Rows())
	require.Equal(t, 17, p.Cols())

	got := evaluate(p, model.NewSolution(43, 17))
	require.Equal(t, []float64{0, 0, 43, 0, 0}, got)
}

func TestFixtureScores(t *testing.T) {
	p := loadTestProblem(t)

	require.Equal(t, []float64{628, 43, 0, 443, 171}, evaluate(p, model.Ones(43, 17)))

	preferred := p.Mask(func(pref Preference) bool { return pref == Preferred })
	require.Equal(t, []float64{44, 8, 3, 0, 0}, evaluate(p, preferred))
}

func TestObjectivesSmall(t *testing.T) {
	p := smallProblem(t)

	cases := []struct {
		name string
		rows [][]int
		want []float64
	}{
		{name: "empty", rows: [][]int{{0, 0, 0}, {0, 0, 0}}, want: []float64{0, 0, 3, 0, 0}},
		{name: "all", rows: [][]int{{1, 1, 1}, {1, 1, 1}}, want: []float64{3, 2, 0, 2, 2}},
		{name: "preferred only", rows: [][]int{{1, 0, 0}, {0, 1, 0}}, want: []float64{0, 0, 1, 0, 0}},
		{name: "one conflict", rows: [][]int{{1, 1, 0}, {0, 0, 0}}, want: []float64{1, 1, 1, 0, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, evaluate(p, mustRows(t, tc.rows)))
		})
	}
}

func TestConflictsCountedOncePerTA(t *testing.T) {
	p, err := NewProblem(
		[]TA{{ID: 0, MaxAssigned: 4, Prefs: []Preference{Preferred, Preferred, Preferred, Preferred}}},
		[]Section{{ID: 0, Daytime: "x"}, {ID: 1, Daytime: "x"}, {ID: 2, Daytime: "y"}, {ID: 3, Daytime: "y"}},
	)
	require.NoError(t, err)
	require.Equal(t, 1.0, p.Conflicts(model.Ones(1, 4)))
}

func TestObjectiveShapeMismatchPanics(t *testing.T) {
	p := smallProblem(t)
	require.PanicsWithError(t, "assignment shape mismatch: got 3x3, want 2x3", func() {
		p.Overallocation(model.NewSolution(3, 3))
	})
}

func TestNewProblemRejectsShortPreferences(t *testing.T) {
	_, err := NewProblem(
		[]TA{{ID: 0, Prefs: []Preference{Preferred}}},
		[]Section{{ID: 0}, {ID: 1}},
	)
	require.ErrorIs(t, err, ErrShape)
}

func TestSwapAgents(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	in := mustRows(t, [][]int{{1, 0, 0}, {1, 1, 0}, {0, 0, 1}})

	cols := SwapColumnsAgent(rng, []model.Solution{in.Clone()})
	require.Equal(t, sortedCounts(colSums(in)), sortedCounts(colSums(cols)))
	for r := 0; r < in.Rows; r++ {
		require.Equal(t, in.RowSum(r), cols.RowSum(r))
	}

	rows := SwapRowsAgent(rng, []model.Solution{in.Clone()})
	for c := 0; c < in.Cols; c++ {
		require.Equal(t, in.ColSum(c), rows.ColSum(c))
	}
}

func TestFlipValChangesOneCell(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	in := model.NewSolution(4, 5)
	out := FlipValAgent(rng, []model.Solution{in.Clone()})

	diff := 0
	for i := range out.Cells {
		if out.Cells[i] != in.Cells[i] {
			diff++
		}
	}
	require.Equal(t, 1, diff)
}

func TestOverlayIsLogicalAnd(t *testing.T) {
	a := mustRows(t, [][]int{{1, 1}, {0, 1}})
	b := mustRows(t, [][]int{{1, 0}, {1, 1}})
	got := OverlayAgent(nil, []model.Solution{a, b})
	require.True(t, got.Equal(mustRows(t, [][]int{{1, 0}, {0, 1}})), "got %s", got)
}

func TestRemoveAgents(t *testing.T) {
	p := smallProblem(t)
	all := model.Ones(2, 3)

	noU := p.RemoveUnwillingAgent(nil, []model.Solution{all.Clone()})
	require.Equal(t, 0.0, p.Unwilling(noU))
	require.True(t, noU.Equal(mustRows(t, [][]int{{1, 1, 0}, {0, 1, 1}})), "got %s", noU)

	noW := p.RemoveUnpreferredAgent(nil, []model.Solution{all.Clone()})
	require.Equal(t, 0.0, p.Unpreferred(noW))
	require.True(t, noW.Equal(mustRows(t, [][]int{{1, 0, 1}, {1, 1, 0}})), "got %s", noW)
}

func TestSeeds(t *testing.T) {
	p := loadTestProblem(t)
	seeds := p.Seeds(rand.New(rand.NewSource(1)), 10)
	require.Len(t, seeds, 15)
	for _, s := range seeds {
		require.NoError(t, s.Validate())
		require.Equal(t, 43, s.Rows)
		require.Equal(t, 17, s.Cols)
	}
	require.True(t, seeds[10].Equal(model.NewSolution(43, 17)))
	require.True(t, seeds[11].Equal(model.Ones(43, 17)))
	require.Equal(t, 0.0, p.Unwilling(seeds[12]))
	require.Equal(t, 0.0, p.Unpreferred(seeds[12]))
	require.Equal(t, 0.0, p.Unwilling(seeds[13]))
	require.Equal(t, 0.0, p.Unpreferred(seeds[14]))
}

func TestRegisterOrder(t *testing.T) {
	p := smallProblem(t)
	fitness := evo.NewFitnessRegistry()
	agents := evo.NewAgentRegistry()
	require.NoError(t, p.Register(fitness, agents))

	require.Equal(t, []string{Overallocation, Conflicts, Undersupport, UnwillingName, Unpreferred}, fitness.Names())
	require.Equal(t, []string{SwapColumns, SwapRows, FlipVal, Overlay, RemoveUnwilling, RemoveUnpreferred}, agents.Names())

	_, k, err := agents.Resolve(Overlay)
	require.NoError(t, err)
	require.Equal(t, 2, k)
}

func TestEngineRunsAssignment(t *testing.T) {
	p := loadTestProblem(t)
	fitness := evo.NewFitnessRegistry()
	agents := evo.NewAgentRegistry()
	require.NoError(t, p.Register(fitness, agents))

	engine, err := evo.NewEngine(evo.EngineConfig{Fitness: fitness, Agents: agents, Seed: 5})
	require.NoError(t, err)
	for _, s := range p.Seeds(rand.New(rand.NewSource(5)), 10) {
		engine.AddSolution(s)
	}

	res, err := engine.Run(context.Background(), evo.RunConfig{Iterations: 500, TimeBudget: -1})
	require.NoError(t, err)
	require.Equal(t, 500, res.Iterations)
	require.NotEmpty(t, res.Population)

	evals := make([]model.Evaluation, 0, len(res.Population))
	for _, e := range res.Population {
		evals = append(evals, e.Evaluation)
	}
	for _, a := range evals {
		for _, b := range evals {
			require.False(t, evo.Dominates(a, b), "%s dominates %s", a, b)
		}
	}
}

func colSums(s model.Solution) []int {
	out := make([]int, s.Cols)
	for c := range out {
		out[c] = s.ColSum(c)
	}
	return out
}

func sortedCounts(v []int) map[int]int {
	out := make(map[int]int, len(v))
	for _, x := range v {
		out[x]++
	}
	return out
}
