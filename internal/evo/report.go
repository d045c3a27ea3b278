package evo

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"paretoevo/internal/model"
)

// ObjectiveSummary aggregates one objective across a set of entries.
type ObjectiveSummary struct {
	Name string
	Min  float64
	Mean float64
	Max  float64
}

// Summarize computes per-objective statistics in the order of the first
// entry's evaluation.
func Summarize(entries []model.Entry) []ObjectiveSummary {
	if len(entries) == 0 {
		return nil
	}
	names := entries[0].Evaluation.Names()
	out := make([]ObjectiveSummary, 0, len(names))
	for _, name := range names {
		values := make([]float64, 0, len(entries))
		for _, entry := range entries {
			if v, ok := entry.Evaluation.Lookup(name); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		out = append(out, ObjectiveSummary{
			Name: name,
			Min:  floats.Min(values),
			Mean: stat.Mean(values, nil),
			Max:  floats.Max(values),
		})
	}
	return out
}

// Reporter writes human-readable progress. A nil Out discards output.
type Reporter struct {
	Out io.Writer
}

func (r Reporter) writer() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

// Status prints the iteration, population size and every retained
// evaluation.
func (r Reporter) Status(iteration int, entries []model.Entry) error {
	w := r.writer()
	if _, err := fmt.Fprintf(w, "Iteration: %s\nPopulation size: %d\n", humanize.Comma(int64(iteration)), len(entries)); err != nil {
		return err
	}
	for _, entry := range entries {
		if _, err := fmt.Fprintln(w, entry.Evaluation.String()); err != nil {
			return err
		}
	}
	for _, s := range Summarize(entries) {
		if _, err := fmt.Fprintf(w, "  %-16s min=%g mean=%.3f max=%g\n", s.Name, s.Min, s.Mean, s.Max); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Final prints every evaluation followed by its solution matrix.
func (r Reporter) Final(result RunResult) error {
	w := r.writer()
	if _, err := fmt.Fprintf(w, "Stopped after %s iterations (%s), population size %d\n",
		humanize.Comma(int64(result.Iterations)), result.StopReason, len(result.Population)); err != nil {
		return err
	}
	for _, entry := range result.Population {
		if _, err := fmt.Fprintf(w, "%s:\t%s\n", entry.Evaluation.String(), entry.Solution.String()); err != nil {
			return err
		}
	}
	return nil
}
