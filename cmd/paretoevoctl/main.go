package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"paretoevo/internal/metrics"
	"paretoevo/internal/storage"
	"paretoevo/pkg/paretoevo"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "paretoevoctl",
		Short:         "Evolve Pareto-efficient TA to lab section assignments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().String("log-level", "info", "log level: debug|info|warn|error")
	root.PersistentFlags().String("store", storage.DefaultStoreKind(), "checkpoint backend: file|sqlite|memory")
	root.PersistentFlags().String("checkpoint", "", "checkpoint path (default "+storage.DefaultCheckpointPath+" for file, "+storage.DefaultSQLitePath+" for sqlite)")

	root.AddCommand(newRunCmd(), newShowCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	opts := defaultRunOptions()
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the evolution loop and print the final frontier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				cfg, err := loadRunConfig(configPath)
				if err != nil {
					return err
				}
				cfg.apply(&opts, cmd.Flags().Changed)
			}
			return runRun(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML run configuration; explicit flags take precedence")
	f.IntVarP(&opts.Iterations, "iterations", "n", opts.Iterations, "agent invocations to perform")
	f.IntVar(&opts.DomInterval, "dom", opts.DomInterval, "iterations between dominance pruning passes")
	f.IntVar(&opts.StatusInterval, "status", opts.StatusInterval, "iterations between status reports")
	f.IntVar(&opts.SyncInterval, "sync", opts.SyncInterval, "iterations between checkpoint merges")
	f.DurationVar(&opts.TimeBudget, "time-budget", opts.TimeBudget, "wall-clock limit; 0 uses the default, negative disables it")
	f.Int64Var(&opts.Seed, "seed", 0, "random seed; 0 picks one from the clock")
	f.IntVar(&opts.RandomSeeds, "random-seeds", opts.RandomSeeds, "random matrices added to the initial population")
	f.StringVar(&opts.DataDir, "data-dir", opts.DataDir, "directory holding tas.csv and sections.csv")
	f.StringVar(&opts.Constraints, "constraints", opts.Constraints, "JSON or YAML file of per-objective maxima")
	f.BoolVar(&opts.NoConstraints, "no-constraints", false, "disable constraint filtering")
	f.StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	return cmd
}

func runRun(cmd *cobra.Command, opts runOptions) error {
	ctx := cmd.Context()
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	storeKind, checkpointPath := storeFlags(cmd)

	collector := metrics.NewCollector()
	if opts.MetricsAddr != "" {
		stopMetrics, err := serveMetrics(opts.MetricsAddr, collector, logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	client, err := paretoevo.New(paretoevo.Options{
		StoreKind:      storeKind,
		CheckpointPath: checkpointPath,
		Out:            cmd.OutOrStdout(),
		Logger:         logger,
		Metrics:        collector,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, opts.request())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run_id=%s seed=%d iterations=%d stop=%s elapsed=%s frontier=%d\n",
		summary.RunID, summary.Seed, summary.Iterations, summary.StopReason,
		summary.Elapsed.Round(time.Millisecond), len(summary.Frontier))
	return nil
}

func newShowCmd() *cobra.Command {
	var withSolutions bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the frontier stored in the shared checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			storeKind, checkpointPath := storeFlags(cmd)
			client, err := paretoevo.New(paretoevo.Options{StoreKind: storeKind, CheckpointPath: checkpointPath})
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			frontier, err := client.Show(cmd.Context())
			if errors.Is(err, storage.ErrNoCheckpoint) {
				fmt.Fprintf(cmd.OutOrStdout(), "no checkpoint at %s\n", checkpointPath)
				return nil
			}
			if err != nil {
				return err
			}
			printFrontier(cmd.OutOrStdout(), frontier, withSolutions)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSolutions, "solutions", false, "print each solution matrix")
	return cmd
}

func printFrontier(w io.Writer, frontier paretoevo.Frontier, withSolutions bool) {
	fmt.Fprintf(w, "writer=%s saved=%s entries=%d\n", frontier.WriterID, humanize.Time(frontier.SavedAt), len(frontier.Entries))
	for _, s := range frontier.Objectives {
		fmt.Fprintf(w, "  %-16s min=%g mean=%.3f max=%g\n", s.Name, s.Min, s.Mean, s.Max)
	}
	for _, entry := range frontier.Entries {
		if withSolutions {
			fmt.Fprintf(w, "%s:\t%s\n", entry.Evaluation, entry.Solution)
			continue
		}
		fmt.Fprintln(w, entry.Evaluation)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "paretoevoctl %s\n", version)
		},
	}
}

func storeFlags(cmd *cobra.Command) (string, string) {
	kind, _ := cmd.Flags().GetString("store")
	path, _ := cmd.Flags().GetString("checkpoint")
	if path == "" {
		path = storage.DefaultPath(kind)
	}
	return kind, path
}

func serveMetrics(addr string, collector *metrics.Collector, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
