package evo

import (
	"math/rand"

	"paretoevo/internal/model"
)

// Population maps evaluation keys to the solution that produced them. It is
// owned by a single engine and is not safe for concurrent use.
type Population struct {
	fitness *FitnessRegistry
	order   []string
	entries map[string]model.Entry
}

func NewPopulation(fitness *FitnessRegistry) *Population {
	return &Population{
		fitness: fitness,
		entries: make(map[string]model.Entry),
	}
}

// Add scores sol and stores it under its evaluation. A solution whose
// evaluation is already present replaces the stored one.
func (p *Population) Add(sol model.Solution) model.Evaluation {
	eval := p.fitness.Evaluate(sol)
	p.Put(eval, sol)
	return eval
}

// Put stores a pre-scored pair. Scores are carried as given.
func (p *Population) Put(eval model.Evaluation, sol model.Solution) {
	key := eval.Key()
	if _, exists := p.entries[key]; !exists {
		p.order = append(p.order, key)
	}
	p.entries[key] = model.Entry{Evaluation: eval, Solution: sol}
}

func (p *Population) Get(key string) (model.Entry, bool) {
	entry, ok := p.entries[key]
	return entry, ok
}

func (p *Population) Size() int {
	return len(p.order)
}

// Sample draws k solutions with replacement, each a deep copy. It returns an
// empty slice when the population is empty.
func (p *Population) Sample(rng *rand.Rand, k int) []model.Solution {
	if len(p.order) == 0 || k <= 0 {
		return []model.Solution{}
	}
	picks := make([]model.Solution, 0, k)
	for i := 0; i < k; i++ {
		key := p.order[rng.Intn(len(p.order))]
		picks = append(picks, p.entries[key].Solution.Clone())
	}
	return picks
}

// Evaluations returns the stored evaluations in insertion order.
func (p *Population) Evaluations() []model.Evaluation {
	out := make([]model.Evaluation, 0, len(p.order))
	for _, key := range p.order {
		out = append(out, p.entries[key].Evaluation)
	}
	return out
}

// Entries returns deep copies of the stored pairs in insertion order.
func (p *Population) Entries() []model.Entry {
	out := make([]model.Entry, 0, len(p.order))
	for _, key := range p.order {
		out = append(out, p.entries[key].Clone())
	}
	return out
}

// Retain drops every entry whose key is not in keep and returns how many
// entries were removed.
func (p *Population) Retain(keep map[string]struct{}) int {
	order := p.order[:0]
	removed := 0
	for _, key := range p.order {
		if _, ok := keep[key]; ok {
			order = append(order, key)
			continue
		}
		delete(p.entries, key)
		removed++
	}
	p.order = order
	return removed
}
