package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TransfersAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transfers_accepted_total",
			Help: "Total transfers accepted",
		},
	)
	TransfersRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transfers_rejected_total",
			Help: "Total transfers rejected",
		},
	)
	TransferFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_failures_total",
			Help: "Failed transfer operations by reason",
		},
		[]string{"reason"},
	)
	BalanceOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_operations_total",
			Help: "Successful deposit/withdraw operations",
		},
		[]string{"op"},
	)
	LockTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lock_timeouts_total",
			Help: "Row-lock waits that hit the configured bound",
		},
	)
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(TransfersAccepted)
	prometheus.MustRegister(TransfersRejected)
	prometheus.MustRegister(TransferFailures)
	prometheus.MustRegister(BalanceOps)
	prometheus.MustRegister(LockTimeouts)
	prometheus.MustRegister(WorkerQueueDepth)
}
