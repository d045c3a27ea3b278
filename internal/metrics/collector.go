// Package metrics exposes engine progress as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paretoevo/internal/evo"
)

const namespace = "paretoevo"

// Collector implements evo.Observer on top of a private Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	iterations     prometheus.Counter
	agentCalls     *prometheus.CounterVec
	pruneRemoved   prometheus.Counter
	populationSize prometheus.Gauge
	syncs          *prometheus.CounterVec
	mergedEntries  prometheus.Counter
}

var _ evo.Observer = (*Collector)(nil)

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Agent invocations completed by the evolution loop.",
		}),
		agentCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_invocations_total",
			Help:      "Agent invocations by agent name.",
		}, []string{"agent"}),
		pruneRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prune_removed_total",
			Help:      "Solutions removed by dominance and constraint pruning.",
		}),
		populationSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "population_size",
			Help:      "Population size after the latest pruning pass.",
		}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_total",
			Help:      "Checkpoint synchronizations by result.",
		}, []string{"result"}),
		mergedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_merged_entries_total",
			Help:      "Checkpoint entries merged into the population.",
		}),
	}
	c.registry.MustRegister(
		c.iterations,
		c.agentCalls,
		c.pruneRemoved,
		c.populationSize,
		c.syncs,
		c.mergedEntries,
	)
	return c
}

func (c *Collector) AgentInvoked(agent string) {
	c.iterations.Inc()
	c.agentCalls.WithLabelValues(agent).Inc()
}

func (c *Collector) Pruned(removed, size int) {
	c.pruneRemoved.Add(float64(removed))
	c.populationSize.Set(float64(size))
}

func (c *Collector) Synced(result evo.SyncResult, merged int) {
	c.syncs.WithLabelValues(string(result)).Inc()
	c.mergedEntries.Add(float64(merged))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
