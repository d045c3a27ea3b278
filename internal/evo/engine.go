package evo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"paretoevo/internal/model"
)

const (
	DefaultDomInterval    = 100
	DefaultStatusInterval = 10000
	DefaultSyncInterval   = 1000
	DefaultTimeBudget     = 600 * time.Second
)

var (
	ErrNoAgents        = errors.New("no agents registered")
	ErrEmptyPopulation = errors.New("population is empty")
)

// State is the evolution loop phase.
type State string

const (
	StateRunning   State = "running"
	StatePruning   State = "pruning"
	StateReporting State = "reporting"
	StateSyncing   State = "syncing"
	StateStopped   State = "stopped"
)

// StopReason explains why Run returned.
type StopReason string

const (
	StopCompleted  StopReason = "completed"
	StopTimeBudget StopReason = "time_budget"
	StopCancelled  StopReason = "cancelled"
)

// Checkpoint persists the population so independent runs can merge their
// frontiers. Implementations are best-effort; concurrent writers may lose
// each other's updates.
type Checkpoint interface {
	LoadEntries(ctx context.Context) ([]model.Entry, error)
	SaveEntries(ctx context.Context, entries []model.Entry) error
}

type EngineConfig struct {
	Fitness     *FitnessRegistry
	Agents      *AgentRegistry
	Constraints ConstraintSource
	Checkpoint  Checkpoint
	Observer    Observer
	Reporter    Reporter
	Logger      *slog.Logger
	Seed        int64
	// Rand overrides Seed when set.
	Rand *rand.Rand
	// OnTransition is called on every state change.
	OnTransition func(from, to State)
	// Now defaults to time.Now.
	Now func() time.Time
}

// RunConfig controls one call to Run. Zero intervals take their defaults.
// A negative TimeBudget disables the wall-clock limit.
type RunConfig struct {
	Iterations     int
	DomInterval    int
	StatusInterval int
	SyncInterval   int
	TimeBudget     time.Duration
}

func (c RunConfig) withDefaults() RunConfig {
	if c.DomInterval <= 0 {
		c.DomInterval = DefaultDomInterval
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = DefaultStatusInterval
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = DefaultSyncInterval
	}
	if c.TimeBudget == 0 {
		c.TimeBudget = DefaultTimeBudget
	}
	return c
}

type RunResult struct {
	Iterations int
	StopReason StopReason
	Elapsed    time.Duration
	Population []model.Entry
}

// Engine drives agent invocation, pruning, reporting and checkpoint merge
// over a single owned population. It is not safe for concurrent use.
type Engine struct {
	cfg     EngineConfig
	rng     *rand.Rand
	pop     *Population
	reducer Reducer
	logger  *slog.Logger
	obs     Observer
	state   State
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Fitness == nil {
		return nil, fmt.Errorf("fitness registry is required")
	}
	if cfg.Agents == nil {
		return nil, fmt.Errorf("agent registry is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}

	return &Engine{
		cfg:     cfg,
		rng:     rng,
		pop:     NewPopulation(cfg.Fitness),
		reducer: Reducer{Constraints: cfg.Constraints},
		logger:  cfg.Logger,
		obs:     cfg.Observer,
		state:   StateRunning,
	}, nil
}

func (e *Engine) Population() *Population {
	return e.pop
}

func (e *Engine) State() State {
	return e.state
}

// AddSolution scores and stores a solution, typically an initial seed.
func (e *Engine) AddSolution(sol model.Solution) model.Evaluation {
	return e.pop.Add(sol.Clone())
}

// RunAgent invokes one agent against k sampled solutions and stores the
// result. An empty population yields ErrEmptyPopulation without invoking the
// agent. Panics raised by the agent or an objective are not recovered.
func (e *Engine) RunAgent(name string) (model.Evaluation, error) {
	agent, k, err := e.cfg.Agents.Resolve(name)
	if err != nil {
		return nil, err
	}
	if e.pop.Size() == 0 {
		return nil, ErrEmptyPopulation
	}
	picks := e.pop.Sample(e.rng, k)
	produced := agent(e.rng, picks)
	e.obs.AgentInvoked(name)
	return e.pop.Add(produced), nil
}

// RemoveDominated prunes the population to its feasible non-dominated set.
func (e *Engine) RemoveDominated() error {
	before := e.pop.Size()
	removed, err := e.reducer.Reduce(e.pop)
	if err != nil {
		return err
	}
	e.obs.Pruned(removed, e.pop.Size())
	e.logger.Debug("population pruned", "before", before, "removed", removed, "size", e.pop.Size())
	return nil
}

// Sync merges the checkpoint into the population, prunes, and writes the
// result back. Checkpoint I/O failures are logged and never returned; only a
// pruning failure is.
func (e *Engine) Sync(ctx context.Context) error {
	if e.cfg.Checkpoint == nil {
		return nil
	}

	merged := 0
	result := SyncMerged
	loaded, err := e.cfg.Checkpoint.LoadEntries(ctx)
	if err != nil {
		result = SyncLoadFailed
		e.logger.Warn("checkpoint load failed, skipping merge", "error", err)
	} else {
		merged = e.merge(loaded)
	}

	if err := e.RemoveDominated(); err != nil {
		return err
	}

	if err := e.cfg.Checkpoint.SaveEntries(ctx, e.pop.Entries()); err != nil {
		result = SyncSaveFailed
		e.logger.Warn("checkpoint save failed", "error", err)
	}
	e.obs.Synced(result, merged)
	return nil
}

// merge copies loaded entries into the population, overwriting matching keys.
// Entries scored against a different objective set are skipped.
func (e *Engine) merge(loaded []model.Entry) int {
	names := e.cfg.Fitness.Names()
	merged, skipped := 0, 0
	for _, entry := range loaded {
		if !sameObjectives(entry.Evaluation, names) {
			skipped++
			continue
		}
		e.pop.Put(entry.Evaluation, entry.Solution)
		merged++
	}
	if skipped > 0 {
		e.logger.Warn("checkpoint entries scored with different objectives were skipped", "skipped", skipped)
	}
	return merged
}

// Run performs up to cfg.Iterations agent invocations. It always finishes
// with a final prune and report; the returned population is that final
// frontier.
func (e *Engine) Run(ctx context.Context, cfg RunConfig) (RunResult, error) {
	cfg = cfg.withDefaults()
	names := e.cfg.Agents.Names()
	if cfg.Iterations > 0 && len(names) == 0 {
		return RunResult{}, ErrNoAgents
	}

	start := e.cfg.Now()
	reason := StopCompleted
	completed, skipped := 0, 0
	e.logger.Info("evolution started", "iterations", cfg.Iterations, "population", e.pop.Size(), "agents", len(names))

	for i := 0; i < cfg.Iterations; i++ {
		if ctx.Err() != nil {
			reason = StopCancelled
			break
		}
		e.setState(StateRunning)

		pick := names[e.rng.Intn(len(names))]
		if _, err := e.RunAgent(pick); err != nil {
			if !errors.Is(err, ErrEmptyPopulation) {
				return RunResult{}, err
			}
			if skipped == 0 {
				e.logger.Warn("population is empty, agents are skipped until a checkpoint merge refills it", "iteration", i)
			}
			skipped++
		}
		completed++

		if i%cfg.DomInterval == 0 {
			e.setState(StatePruning)
			if err := e.RemoveDominated(); err != nil {
				return RunResult{}, err
			}
		}

		if i%cfg.StatusInterval == 0 {
			e.setState(StatePruning)
			if err := e.RemoveDominated(); err != nil {
				return RunResult{}, err
			}
			e.setState(StateReporting)
			if err := e.cfg.Reporter.Status(i, e.pop.Entries()); err != nil {
				e.logger.Warn("status report failed", "error", err)
			}
		}

		if i%cfg.SyncInterval == 0 {
			e.setState(StateSyncing)
			if err := e.Sync(ctx); err != nil {
				return RunResult{}, err
			}
		}

		if cfg.TimeBudget > 0 && e.cfg.Now().Sub(start) > cfg.TimeBudget {
			reason = StopTimeBudget
			e.logger.Info("time budget reached", "budget", cfg.TimeBudget, "iteration", i)
			break
		}
	}

	e.setState(StatePruning)
	if err := e.RemoveDominated(); err != nil {
		return RunResult{}, err
	}

	result := RunResult{
		Iterations: completed,
		StopReason: reason,
		Elapsed:    e.cfg.Now().Sub(start),
		Population: e.pop.Entries(),
	}
	e.setState(StateReporting)
	if err := e.cfg.Reporter.Final(result); err != nil {
		e.logger.Warn("final report failed", "error", err)
	}
	e.setState(StateStopped)
	e.logger.Info("evolution stopped", "reason", reason, "iterations", completed, "skipped", skipped, "population", len(result.Population))
	return result, nil
}

func (e *Engine) setState(next State) {
	if next == e.state {
		return
	}
	prev := e.state
	e.state = next
	if e.cfg.OnTransition != nil {
		e.cfg.OnTransition(prev, next)
	}
}

func sameObjectives(eval model.Evaluation, names []string) bool {
	if len(eval) != len(names) {
		return false
	}
	for i, s := range eval {
		if s.Name != names[i] {
			return false
		}
	}
	return true
}
