package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the vault metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeCancelled = "cancelled"
	OutcomeRejected  = "rejected"
)

// VaultMetrics instrument the vault operations and the snapshot refresher.
type VaultMetrics struct {
	operations         *prometheus.CounterVec
	operationsInFlight *prometheus.GaugeVec
	operationLatencies *prometheus.HistogramVec

	refreshes         *prometheus.CounterVec
	refreshLatencies  prometheus.Histogram
	depositFlowEvents *prometheus.CounterVec
}

// NewDefaultVaultMetrics creates the vault metrics under the given prefix.
func NewDefaultVaultMetrics(pkg string) VaultMetrics {
	return VaultMetrics{
		operations: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_vault_operations", pkg),
				Help: "How many vault operations ran, partitioned by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		)),
		operationsInFlight: registerOnce(prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: fmt.Sprintf("%s_vault_operations_in_flight", pkg),
				Help: "Number of vault operations currently running, partitioned by operation.",
			},
			[]string{"operation"},
		)),
		operationLatencies: registerOnce(prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: fmt.Sprintf("%s_vault_operation_latencies", pkg),
				Help: "How long vault operations take, partitioned by operation.",
			},
			[]string{"operation"},
		)),
		refreshes: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_snapshot_refreshes", pkg),
				Help: "How many snapshot fetches ran, partitioned by outcome.",
			},
			[]string{"outcome"},
		)),
		refreshLatencies: registerOnce(prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: fmt.Sprintf("%s_snapshot_refresh_latencies", pkg),
				Help: "How long snapshot fetches take.",
			},
		)),
		depositFlowEvents: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_deposit_flow_events", pkg),
				Help: "Deposit flow lifecycle events, partitioned by event.",
			},
			[]string{"event"},
		)),
	}
}

// Operations returns the counter for the operation and outcome.
func (m VaultMetrics) Operations(operation, outcome string) prometheus.Counter {
	return m.operations.WithLabelValues(operation, outcome)
}

// OperationsInFlight returns the in-flight gauge for the operation.
func (m VaultMetrics) OperationsInFlight(operation string) prometheus.Gauge {
	return m.operationsInFlight.WithLabelValues(operation)
}

// OperationTimer returns a new latency timer for the operation.
func (m VaultMetrics) OperationTimer(operation string) *prometheus.Timer {
	return prometheus.NewTimer(m.operationLatencies.WithLabelValues(operation))
}

// Refreshes returns the refresh counter for the outcome.
func (m VaultMetrics) Refreshes(outcome string) prometheus.Counter {
	return m.refreshes.WithLabelValues(outcome)
}

// RefreshTimer returns a new latency timer for a snapshot fetch.
func (m VaultMetrics) RefreshTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.refreshLatencies)
}

// DepositFlowEvents returns the counter for a deposit flow event
// (opened, rejected, succeeded, failed, closed).
func (m VaultMetrics) DepositFlowEvents(event string) prometheus.Counter {
	return m.depositFlowEvents.WithLabelValues(event)
}
