package assign

import (
	"errors"
	"fmt"
	"math/rand"

	"paretoevo/internal/evo"
	"paretoevo/internal/model"
)

// Objective names in registration order.
const (
	Overallocation = "overallocation"
	Conflicts      = "conflicts"
	Undersupport   = "undersupport"
	UnwillingName  = "unwilling"
	Unpreferred    = "unpreferred"
)

// Agent names in registration order.
const (
	SwapColumns       = "swap_columns"
	SwapRows          = "swap_rows"
	FlipVal           = "flip_val"
	Overlay           = "overlay"
	RemoveUnwilling   = "remove_unwilling"
	RemoveUnpreferred = "remove_unpreferred"
)

// Problem holds the TA and section tables every objective reads.
type Problem struct {
	TAs      []TA
	Sections []Section
}

func NewProblem(tas []TA, sections []Section) (*Problem, error) {
	if len(tas) == 0 {
		return nil, errors.New("at least one TA is required")
	}
	if len(sections) == 0 {
		return nil, errors.New("at least one section is required")
	}
	for _, ta := range tas {
		if len(ta.Prefs) != len(sections) {
			return nil, fmt.Errorf("%w: TA %d has %d preferences for %d sections", ErrShape, ta.ID, len(ta.Prefs), len(sections))
		}
	}
	return &Problem{TAs: tas, Sections: sections}, nil
}

func (p *Problem) Rows() int { return len(p.TAs) }
func (p *Problem) Cols() int { return len(p.Sections) }

// Register adds the five objectives and six agents in their canonical order.
func (p *Problem) Register(fitness *evo.FitnessRegistry, agents *evo.AgentRegistry) error {
	objectives := []struct {
		name string
		fn   evo.Objective
	}{
		{Overallocation, p.Overallocation},
		{Conflicts, p.Conflicts},
		{Undersupport, p.Undersupport},
		{UnwillingName, p.Unwilling},
		{Unpreferred, p.Unpreferred},
	}
	for _, o := range objectives {
		if err := fitness.Register(o.name, o.fn); err != nil {
			return fmt.Errorf("register objective %s: %w", o.name, err)
		}
	}

	operators := []struct {
		name string
		fn   evo.Agent
		k    int
	}{
		{SwapColumns, SwapColumnsAgent, 1},
		{SwapRows, SwapRowsAgent, 1},
		{FlipVal, FlipValAgent, 1},
		{Overlay, OverlayAgent, 2},
		{RemoveUnwilling, p.RemoveUnwillingAgent, 1},
		{RemoveUnpreferred, p.RemoveUnpreferredAgent, 1},
	}
	for _, o := range operators {
		if err := agents.Register(o.name, o.fn, o.k); err != nil {
			return fmt.Errorf("register agent %s: %w", o.name, err)
		}
	}
	return nil
}

// Overallocation sums, over TAs, how many sections each is assigned beyond
// their max_assigned.
func (p *Problem) Overallocation(sol model.Solution) float64 {
	p.mustFit(sol)
	total := 0
	for r, ta := range p.TAs {
		if over := sol.RowSum(r) - ta.MaxAssigned; over > 0 {
			total += over
		}
	}
	return float64(total)
}

// Conflicts counts TAs assigned to two or more sections meeting at the same
// time. Each TA counts at most once.
func (p *Problem) Conflicts(sol model.Solution) float64 {
	p.mustFit(sol)
	total := 0
	for r := range p.TAs {
		seen := make(map[string]struct{}, len(p.Sections))
		for c, section := range p.Sections {
			if !sol.Assigned(r, c) {
				continue
			}
			if _, dup := seen[section.Daytime]; dup {
				total++
				break
			}
			seen[section.Daytime] = struct{}{}
		}
	}
	return float64(total)
}

// Undersupport sums, over sections, how many TAs each is short of min_ta.
func (p *Problem) Undersupport(sol model.Solution) float64 {
	p.mustFit(sol)
	total := 0
	for c, section := range p.Sections {
		if short := section.MinTA - sol.ColSum(c); short > 0 {
			total += short
		}
	}
	return float64(total)
}

// Unwilling counts assignments to sections a TA marked U.
func (p *Problem) Unwilling(sol model.Solution) float64 {
	return float64(p.countAssigned(sol, Unwilling))
}

// Unpreferred counts assignments to sections a TA marked W.
func (p *Problem) Unpreferred(sol model.Solution) float64 {
	return float64(p.countAssigned(sol, Willing))
}

func (p *Problem) countAssigned(sol model.Solution, pref Preference) int {
	p.mustFit(sol)
	total := 0
	for r, ta := range p.TAs {
		for c, got := range ta.Prefs {
			if got == pref && sol.Assigned(r, c) {
				total++
			}
		}
	}
	return total
}

// mustFit panics on a solution whose shape does not match the tables. A
// wrongly shaped solution is a plug-in bug, not a runtime condition.
func (p *Problem) mustFit(sol model.Solution) {
	if sol.Rows != p.Rows() || sol.Cols != p.Cols() || len(sol.Cells) != sol.Rows*sol.Cols {
		panic(fmt.Errorf("%w: got %dx%d, want %dx%d", ErrShape, sol.Rows, sol.Cols, p.Rows(), p.Cols()))
	}
}

// SwapColumnsAgent swaps two random columns.
func SwapColumnsAgent(rng *rand.Rand, sols []model.Solution) model.Solution {
	s := sols[0]
	c1, c2 := rng.Intn(s.Cols), rng.Intn(s.Cols)
	for r := 0; r < s.Rows; r++ {
		a, b := s.At(r, c1), s.At(r, c2)
		s.Set(r, c1, b)
		s.Set(r, c2, a)
	}
	return s
}

// SwapRowsAgent swaps two random rows.
func SwapRowsAgent(rng *rand.Rand, sols []model.Solution) model.Solution {
	s := sols[0]
	r1, r2 := rng.Intn(s.Rows), rng.Intn(s.Rows)
	for c := 0; c < s.Cols; c++ {
		a, b := s.At(r1, c), s.At(r2, c)
		s.Set(r1, c, b)
		s.Set(r2, c, a)
	}
	return s
}

// FlipValAgent flips one random cell.
func FlipValAgent(rng *rand.Rand, sols []model.Solution) model.Solution {
	s := sols[0]
	s.Flip(rng.Intn(s.Rows), rng.Intn(s.Cols))
	return s
}

// OverlayAgent keeps only assignments present in both inputs.
func OverlayAgent(_ *rand.Rand, sols []model.Solution) model.Solution {
	a, b := sols[0], sols[1]
	if !a.SameShape(b) {
		panic(fmt.Errorf("%w: overlay of %dx%d and %dx%d", ErrShape, a.Rows, a.Cols, b.Rows, b.Cols))
	}
	out := model.NewSolution(a.Rows, a.Cols)
	for i := range out.Cells {
		out.Cells[i] = a.Cells[i] & b.Cells[i]
	}
	return out
}

// RemoveUnwillingAgent clears every assignment a TA marked U.
func (p *Problem) RemoveUnwillingAgent(_ *rand.Rand, sols []model.Solution) model.Solution {
	return p.clear(sols[0], Unwilling)
}

// RemoveUnpreferredAgent clears every assignment a TA marked W.
func (p *Problem) RemoveUnpreferredAgent(_ *rand.Rand, sols []model.Solution) model.Solution {
	return p.clear(sols[0], Willing)
}

func (p *Problem) clear(s model.Solution, pref Preference) model.Solution {
	p.mustFit(s)
	for r, ta := range p.TAs {
		for c, got := range ta.Prefs {
			if got == pref {
				s.Set(r, c, 0)
			}
		}
	}
	return s
}

// Mask returns a solution with a cell set wherever keep reports true for the
// TA's preference.
func (p *Problem) Mask(keep func(Preference) bool) model.Solution {
	s := model.NewSolution(p.Rows(), p.Cols())
	for r, ta := range p.TAs {
		for c, pref := range ta.Prefs {
			if keep(pref) {
				s.Set(r, c, 1)
			}
		}
	}
	return s
}

// Random returns a matrix with each cell set with probability 1/2.
func (p *Problem) Random(rng *rand.Rand) model.Solution {
	s := model.NewSolution(p.Rows(), p.Cols())
	for i := range s.Cells {
		s.Cells[i] = uint8(rng.Intn(2))
	}
	return s
}

// Seeds returns the initial population: randomCount random matrices, then
// all-zeros, all-ones, preferred-only, everything but unwilling and
// everything but willing.
func (p *Problem) Seeds(rng *rand.Rand, randomCount int) []model.Solution {
	seeds := make([]model.Solution, 0, randomCount+5)
	for i := 0; i < randomCount; i++ {
		seeds = append(seeds, p.Random(rng))
	}
	seeds = append(seeds,
		model.NewSolution(p.Rows(), p.Cols()),
		model.Ones(p.Rows(), p.Cols()),
		p.Mask(func(pref Preference) bool { return pref == Preferred }),
		p.Mask(func(pref Preference) bool { return pref != Unwilling }),
		p.Mask(func(pref Preference) bool { return pref != Willing }),
	)
	return seeds
}
