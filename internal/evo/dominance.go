package evo

import (
	"errors"
	"fmt"

	"paretoevo/internal/model"
)

var ErrConstraints = errors.New("constraints unavailable")

// Dominates reports whether p is no worse than q in every objective and
// strictly better in at least one. Lower scores are better. Evaluations of
// different length never dominate each other.
func Dominates(p, q model.Evaluation) bool {
	if len(p) == 0 || len(p) != len(q) {
		return false
	}
	strict := false
	for i := range p {
		diff := q[i].Value - p[i].Value
		if diff < 0 {
			return false
		}
		if diff > 0 {
			strict = true
		}
	}
	return strict
}

// NonDominated returns the members of evals not dominated by any other
// member, preserving input order.
func NonDominated(evals []model.Evaluation) []model.Evaluation {
	out := make([]model.Evaluation, 0, len(evals))
	for i, q := range evals {
		dominated := false
		for j, p := range evals {
			if i != j && Dominates(p, q) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, q)
		}
	}
	return out
}

// Constraints maps an objective name to the maximum score it may take.
// Objectives without an entry are unconstrained.
type Constraints map[string]float64

// Feasible reports whether every score is within its configured maximum.
func (c Constraints) Feasible(eval model.Evaluation) bool {
	for _, s := range eval {
		limit, ok := c[s.Name]
		if ok && s.Value > limit {
			return false
		}
	}
	return true
}

// ConstraintSource loads constraints. It is consulted on every reduction.
type ConstraintSource interface {
	Load() (Constraints, error)
}

// StaticConstraints is an in-memory ConstraintSource. A nil value imposes no
// limits.
type StaticConstraints Constraints

func (s StaticConstraints) Load() (Constraints, error) {
	return Constraints(s), nil
}

// Reducer prunes a population to its feasible non-dominated set.
type Reducer struct {
	Constraints ConstraintSource
}

// Reduce replaces the population with its non-dominated, feasible members and
// returns the number of entries removed. Failing to load constraints is an
// error and leaves the population untouched.
func (r Reducer) Reduce(pop *Population) (int, error) {
	var limits Constraints
	if r.Constraints != nil {
		loaded, err := r.Constraints.Load()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrConstraints, err)
		}
		limits = loaded
	}

	front := NonDominated(pop.Evaluations())
	keep := make(map[string]struct{}, len(front))
	for _, eval := range front {
		if limits.Feasible(eval) {
			keep[eval.Key()] = struct{}{}
		}
	}
	return pop.Retain(keep), nil
}
