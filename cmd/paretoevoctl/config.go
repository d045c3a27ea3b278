package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"paretoevo/internal/evo"
	"paretoevo/pkg/paretoevo"
)

type runOptions struct {
	Iterations     int
	DomInterval    int
	StatusInterval int
	SyncInterval   int
	TimeBudget     time.Duration
	Seed           int64
	RandomSeeds    int
	DataDir        string
	Constraints    string
	NoConstraints  bool
	MetricsAddr    string
}

func defaultRunOptions() runOptions {
	return runOptions{
		Iterations:     paretoevo.DefaultIterations,
		DomInterval:    evo.DefaultDomInterval,
		StatusInterval: evo.DefaultStatusInterval,
		SyncInterval:   evo.DefaultSyncInterval,
		TimeBudget:     evo.DefaultTimeBudget,
		RandomSeeds:    10,
		DataDir:        paretoevo.DefaultDataDir,
		Constraints:    paretoevo.DefaultConstraintsPath,
	}
}

func (o runOptions) request() paretoevo.RunRequest {
	return paretoevo.RunRequest{
		DataDir:         o.DataDir,
		ConstraintsPath: o.Constraints,
		NoConstraints:   o.NoConstraints,
		Iterations:      o.Iterations,
		DomInterval:     o.DomInterval,
		StatusInterval:  o.StatusInterval,
		SyncInterval:    o.SyncInterval,
		TimeBudget:      o.TimeBudget,
		Seed:            o.Seed,
		RandomSeeds:     o.RandomSeeds,
	}
}

// runConfig mirrors the run flags. Absent keys leave the flag value alone.
type runConfig struct {
	Iterations     *int           `yaml:"iterations"`
	DomInterval    *int           `yaml:"dom_interval"`
	StatusInterval *int           `yaml:"status_interval"`
	SyncInterval   *int           `yaml:"sync_interval"`
	TimeBudget     *time.Duration `yaml:"time_budget"`
	Seed           *int64         `yaml:"seed"`
	RandomSeeds    *int           `yaml:"random_seeds"`
	DataDir        *string        `yaml:"data_dir"`
	Constraints    *string        `yaml:"constraints"`
	NoConstraints  *bool          `yaml:"no_constraints"`
	MetricsAddr    *string        `yaml:"metrics_addr"`
}

func loadRunConfig(path string) (runConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return runConfig{}, err
	}
	defer f.Close()

	var cfg runConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return runConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// apply copies configured values into opts unless the matching flag was set
// on the command line.
func (c runConfig) apply(opts *runOptions, changed func(string) bool) {
	set(&opts.Iterations, c.Iterations, changed("iterations"))
	set(&opts.DomInterval, c.DomInterval, changed("dom"))
	set(&opts.StatusInterval, c.StatusInterval, changed("status"))
	set(&opts.SyncInterval, c.SyncInterval, changed("sync"))
	set(&opts.TimeBudget, c.TimeBudget, changed("time-budget"))
	set(&opts.Seed, c.Seed, changed("seed"))
	set(&opts.RandomSeeds, c.RandomSeeds, changed("random-seeds"))
	set(&opts.DataDir, c.DataDir, changed("data-dir"))
	set(&opts.Constraints, c.Constraints, changed("constraints"))
	set(&opts.NoConstraints, c.NoConstraints, changed("no-constraints"))
	set(&opts.MetricsAddr, c.MetricsAddr, changed("metrics-addr"))
}

func set[T any](dst *T, src *T, flagSet bool) {
	if src != nil && !flagSet {
		*dst = *src
	}
}

// newLogger writes text logs to a terminal and JSON logs otherwise.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", raw)
	}
	w := cmd.ErrOrStderr()
	handlerOpts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
}
