package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	LedgerOperations *prometheus.CounterVec
	StaleOperations  prometheus.Gauge

	// Balance metrics
	BalanceChanges        *prometheus.CounterVec
	BalanceChangeDuration prometheus.Histogram
	BalanceChangeAmount   *prometheus.HistogramVec

	// Saga metrics
	SagaCommands *prometheus.CounterVec

	// Bus metrics
	BusMessages       *prometheus.CounterVec
	BusHandleDuration *prometheus.HistogramVec

	// History metrics
	HistoryWrites *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		LedgerOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_ledger_operations_total",
				Help: "Operation ledger outcomes by operation name",
			},
			[]string{"operation", "result"},
		),
		StaleOperations: factory.NewGauge(prometheus.GaugeOpts{
			Name: "accounts_ledger_stale_operations",
			Help: "Non-terminal operations older than the stale threshold at last check",
		}),

		// Balance metrics
		BalanceChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_balance_changes_total",
				Help: "Balance mutations by reason and result",
			},
			[]string{"reason", "result"},
		),
		BalanceChangeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "accounts_balance_change_duration_seconds",
			Help:    "Duration of balance mutation transactions",
			Buckets: prometheus.DefBuckets,
		}),
		BalanceChangeAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accounts_balance_change_amount",
				Help:    "Absolute balance change amounts",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"reason"},
		),

		// Saga metrics
		SagaCommands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_saga_commands_total",
				Help: "Commands emitted by sagas",
			},
			[]string{"saga", "command"},
		),

		// Bus metrics
		BusMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_bus_messages_total",
				Help: "Bus messages by type and result",
			},
			[]string{"message_type", "result"},
		),
		BusHandleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accounts_bus_handle_duration_seconds",
				Help:    "Message handler duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"message_type"},
		),

		// History metrics
		HistoryWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_history_writes_total",
				Help: "History sink writes by sink and result",
			},
			[]string{"sink", "result"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accounts_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}
