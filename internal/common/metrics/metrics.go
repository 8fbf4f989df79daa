// internal/common/metrics/metrics.go
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the counters for a single matching run. Each run owns its
// registry so the pushed batch contains only this run's series.
type Metrics struct {
	Registry *prometheus.Registry

	DirectoryLookups       *prometheus.CounterVec
	UnresolvedParticipants prometheus.Gauge
	ParticipantsLoaded     prometheus.Gauge
	Matches                *prometheus.CounterVec
	ValidationViolations   *prometheus.CounterVec
	RunResult              *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		DirectoryLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_matcher_directory_lookups_total",
				Help: "Directory lookups by kind and result",
			},
			[]string{"kind", "result"},
		),
		UnresolvedParticipants: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mentor_matcher_unresolved_participants",
			Help: "Participants with at least one unresolved directory field",
		}),
		ParticipantsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mentor_matcher_participants_loaded",
			Help: "Participants read from the survey responses",
		}),
		Matches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_matcher_matches_total",
				Help: "Match records written by outcome",
			},
			[]string{"outcome"},
		),
		ValidationViolations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_matcher_validation_violations_total",
				Help: "Rubric constraint violations found after matching",
			},
			[]string{"rule"},
		),
		RunResult: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_matcher_runs_total",
				Help: "Completed runs by result code",
			},
			[]string{"code"},
		),
	}
}

// Push sends the registry to a Prometheus Pushgateway. An empty url is a no-op.
func (m *Metrics) Push(url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.Registry).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
