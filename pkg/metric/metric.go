// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	metrics "github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all vault metrics using luxfi/metric
type Metrics struct {
	metricsInstance metrics.Metrics

	// Registry metrics
	PlayersInscribed metrics.Counter
	MysteriesCreated metrics.Counter

	// Submission metrics
	SubmissionsWrong   metrics.Counter
	SubmissionsCorrect metrics.Counter
	MysteriesSolved    metrics.Counter
	ProofsRevealed     metrics.Counter
	PayoutVolume       metrics.Counter

	// Working-set metrics
	ActiveMysteries metrics.Gauge
	EscrowBalance   metrics.Gauge

	// Performance metrics
	SubmissionDuration metrics.Histogram
}

// NewMetrics creates a new metrics instance using luxfi/metric
func NewMetrics() (*Metrics, error) {
	factory := metrics.NewPrometheusFactory()
	metricsInstance := factory.New("vault")

	m := &Metrics{
		metricsInstance: metricsInstance,
	}

	m.PlayersInscribed = metricsInstance.NewCounter("players_inscribed_total", "Total number of players inscribed")
	m.MysteriesCreated = metricsInstance.NewCounter("mysteries_created_total", "Total number of mysteries created")

	m.SubmissionsWrong = metricsInstance.NewCounter("submissions_wrong_total", "Total number of wrong answer submissions")
	m.SubmissionsCorrect = metricsInstance.NewCounter("submissions_correct_total", "Total number of correct answer submissions")
	m.MysteriesSolved = metricsInstance.NewCounter("mysteries_solved_total", "Total number of mysteries solved")
	m.ProofsRevealed = metricsInstance.NewCounter("proofs_revealed_total", "Total number of proofs revealed")
	m.PayoutVolume = metricsInstance.NewCounter("payout_volume_total", "Total bounty value paid out")

	m.ActiveMysteries = metricsInstance.NewGauge("active_mysteries", "Number of mysteries in the active working set")
	m.EscrowBalance = metricsInstance.NewGauge("escrow_balance", "Current escrow account balance")

	m.SubmissionDuration = metricsInstance.NewHistogram(
		"submission_duration_seconds",
		"Time to process an answer submission",
		prometheus.DefBuckets,
	)

	return m, nil
}

// GetGatherer returns the prometheus gatherer for metrics export
func (m *Metrics) GetGatherer() prometheus.Gatherer {
	if registry := m.metricsInstance.Registry(); registry != nil {
		return registry
	}
	return prometheus.DefaultGatherer
}

// GetRegisterer returns the prometheus registerer
func (m *Metrics) GetRegisterer() prometheus.Registerer {
	if registry := m.metricsInstance.Registry(); registry != nil {
		return registry
	}
	return prometheus.DefaultRegisterer
}
