package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"paretoevo/internal/model"
)

var (
	ErrObjectiveNotFound = errors.New("objective not found")
	ErrAgentNotFound     = errors.New("agent not found")
)

// Objective scores a solution. Lower is better. Scores must be finite;
// checkpoint stores refuse to persist NaN or infinite values.
type Objective func(sol model.Solution) float64

// Agent produces a new solution from k sampled solutions. The inputs are
// private copies and may be mutated freely.
type Agent func(rng *rand.Rand, sols []model.Solution) model.Solution

// FitnessRegistry keeps objectives in registration order. Registering an
// existing name replaces the function but keeps its position.
type FitnessRegistry struct {
	names []string
	fns   map[string]Objective
}

func NewFitnessRegistry() *FitnessRegistry {
	return &FitnessRegistry{fns: make(map[string]Objective)}
}

func (r *FitnessRegistry) Register(name string, fn Objective) error {
	if name == "" {
		return errors.New("objective name is required")
	}
	if fn == nil {
		return errors.New("objective is required")
	}
	if _, exists := r.fns[name]; !exists {
		r.names = append(r.names, name)
	}
	r.fns[name] = fn
	return nil
}

func (r *FitnessRegistry) Resolve(name string) (Objective, error) {
	fn, ok := r.fns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectiveNotFound, name)
	}
	return fn, nil
}

func (r *FitnessRegistry) Names() []string {
	return append([]string(nil), r.names...)
}

func (r *FitnessRegistry) Len() int {
	return len(r.names)
}

// Evaluate scores sol against every objective in registration order.
func (r *FitnessRegistry) Evaluate(sol model.Solution) model.Evaluation {
	eval := make(model.Evaluation, 0, len(r.names))
	for _, name := range r.names {
		eval = append(eval, model.Score{Name: name, Value: r.fns[name](sol)})
	}
	return eval
}

type registeredAgent struct {
	fn Agent
	k  int
}

// AgentRegistry keeps agents and their arity in registration order.
type AgentRegistry struct {
	names  []string
	agents map[string]registeredAgent
}

func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{agents: make(map[string]registeredAgent)}
}

// Register adds an agent consuming k solutions per call. k <= 0 means 1.
func (r *AgentRegistry) Register(name string, fn Agent, k int) error {
	if name == "" {
		return errors.New("agent name is required")
	}
	if fn == nil {
		return errors.New("agent is required")
	}
	if k <= 0 {
		k = 1
	}
	if _, exists := r.agents[name]; !exists {
		r.names = append(r.names, name)
	}
	r.agents[name] = registeredAgent{fn: fn, k: k}
	return nil
}

// Resolve returns the agent function and its arity.
func (r *AgentRegistry) Resolve(name string) (Agent, int, error) {
	entry, ok := r.agents[name]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return entry.fn, entry.k, nil
}

func (r *AgentRegistry) Names() []string {
	return append([]string(nil), r.names...)
}

func (r *AgentRegistry) Len() int {
	return len(r.names)
}
