// Package paretoevo runs the TA assignment optimizer and inspects its shared
// checkpoint.
package paretoevo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"paretoevo/internal/assign"
	"paretoevo/internal/constraint"
	"paretoevo/internal/evo"
	"paretoevo/internal/metrics"
	"paretoevo/internal/model"
	"paretoevo/internal/storage"
)

const (
	DefaultIterations      = 5_000_000
	DefaultDataDir         = "data"
	DefaultConstraintsPath = "constraints.json"
	defaultRandomSeeds     = 10
)

type Options struct {
	StoreKind      string
	CheckpointPath string
	// Out receives status and final reports. Nil discards them.
	Out     io.Writer
	Logger  *slog.Logger
	Metrics *metrics.Collector
}

type Client struct {
	store   storage.CheckpointStore
	out     io.Writer
	logger  *slog.Logger
	metrics *metrics.Collector
}

type RunRequest struct {
	DataDir         string
	ConstraintsPath string
	// NoConstraints disables constraint filtering entirely.
	NoConstraints bool
	// Iterations of zero prunes and reports the seeds without running any
	// agent; a negative value picks DefaultIterations.
	Iterations     int
	DomInterval    int
	StatusInterval int
	SyncInterval   int
	// TimeBudget of zero means the engine default; negative disables it.
	TimeBudget time.Duration
	// Seed of zero picks a time-based seed.
	Seed        int64
	RandomSeeds int
}

type RunSummary struct {
	RunID      string
	Seed       int64
	Iterations int
	StopReason string
	Elapsed    time.Duration
	Frontier   []model.Entry
	Objectives []evo.ObjectiveSummary
}

// Frontier is the most recently saved checkpoint.
type Frontier struct {
	WriterID   string
	SavedAt    time.Time
	Entries    []model.Entry
	Objectives []evo.ObjectiveSummary
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, opts.CheckpointPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:   store,
		out:     opts.Out,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.DataDir == "" {
		req.DataDir = DefaultDataDir
	}
	if req.ConstraintsPath == "" {
		req.ConstraintsPath = DefaultConstraintsPath
	}
	if req.Iterations < 0 {
		req.Iterations = DefaultIterations
	}
	if req.RandomSeeds <= 0 {
		req.RandomSeeds = defaultRandomSeeds
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)

	problem, err := assign.LoadDir(req.DataDir)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load assignment data: %w", err)
	}

	fitness := evo.NewFitnessRegistry()
	agents := evo.NewAgentRegistry()
	if err := problem.Register(fitness, agents); err != nil {
		return RunSummary{}, err
	}

	var constraints evo.ConstraintSource = evo.StaticConstraints(nil)
	if !req.NoConstraints {
		file := constraint.File{Path: req.ConstraintsPath}
		limits, err := file.Load()
		if err != nil {
			return RunSummary{}, fmt.Errorf("%w: %w", evo.ErrConstraints, err)
		}
		if unknown := constraint.Validate(limits, fitness.Names()); len(unknown) > 0 {
			logger.Warn("constraints name unknown objectives", "names", unknown)
		}
		constraints = file
	}

	if err := c.store.Init(ctx); err != nil {
		return RunSummary{}, fmt.Errorf("init checkpoint store: %w", err)
	}

	rng := rand.New(rand.NewSource(req.Seed))
	cfg := evo.EngineConfig{
		Fitness:     fitness,
		Agents:      agents,
		Constraints: constraints,
		Checkpoint:  &storage.Checkpointer{Store: c.store, WriterID: runID},
		Reporter:    evo.Reporter{Out: c.out},
		Logger:      logger,
		Rand:        rng,
	}
	if c.metrics != nil {
		cfg.Observer = c.metrics
	}
	engine, err := evo.NewEngine(cfg)
	if err != nil {
		return RunSummary{}, err
	}
	for _, sol := range problem.Seeds(rng, req.RandomSeeds) {
		engine.AddSolution(sol)
	}

	result, err := engine.Run(ctx, evo.RunConfig{
		Iterations:     req.Iterations,
		DomInterval:    req.DomInterval,
		StatusInterval: req.StatusInterval,
		SyncInterval:   req.SyncInterval,
		TimeBudget:     req.TimeBudget,
	})
	if err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:      runID,
		Seed:       req.Seed,
		Iterations: result.Iterations,
		StopReason: string(result.StopReason),
		Elapsed:    result.Elapsed,
		Frontier:   result.Population,
		Objectives: evo.Summarize(result.Population),
	}, nil
}

// Show loads the shared checkpoint without running anything.
func (c *Client) Show(ctx context.Context) (Frontier, error) {
	if err := c.store.Init(ctx); err != nil {
		return Frontier{}, fmt.Errorf("init checkpoint store: %w", err)
	}
	snapshot, err := c.store.Load(ctx)
	if err != nil {
		return Frontier{}, err
	}
	return Frontier{
		WriterID:   snapshot.WriterID,
		SavedAt:    snapshot.SavedAt,
		Entries:    snapshot.Entries,
		Objectives: evo.Summarize(snapshot.Entries),
	}, nil
}
