package pool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the pool's counters to Prometheus. Register once per
// process.
type Metrics struct {
	SubmittedTotal   prometheus.CounterFunc
	CompletedTotal   prometheus.CounterFunc
	FailedTotal      prometheus.CounterFunc
	CancelledTotal   prometheus.CounterFunc
	RejectedTotal    prometheus.CounterFunc
	DiscardedTotal   prometheus.CounterFunc
	OverwrittenTotal prometheus.CounterFunc

	PendingTasks   prometheus.GaugeFunc
	ActiveTasks    prometheus.GaugeFunc
	CurrentWorkers prometheus.GaugeFunc
	ActiveWorkers  prometheus.GaugeFunc
	BusyRatio      prometheus.GaugeFunc
	PendingRatio   prometheus.GaugeFunc
}

// NewMetrics creates and registers all pool metrics against the default
// registerer.
func NewMetrics(p *Pool) *Metrics {
	counter := func(name, help string, fn func() float64) prometheus.CounterFunc {
		return promauto.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, fn)
	}
	gauge := func(name, help string, fn func() float64) prometheus.GaugeFunc {
		return promauto.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)
	}

	return &Metrics{
		SubmittedTotal: counter("pool_tasks_submitted_total",
			"Total tasks successfully enqueued",
			func() float64 { return float64(p.totalSubmitted.Load()) }),
		CompletedTotal: counter("pool_tasks_completed_total",
			"Total tasks executed successfully",
			func() float64 { return float64(p.totalCompleted.Load()) }),
		FailedTotal: counter("pool_tasks_failed_total",
			"Total tasks that failed during execution",
			func() float64 { return float64(p.totalFailed.Load()) }),
		CancelledTotal: counter("pool_tasks_cancelled_total",
			"Total tasks cancelled before execution",
			func() float64 { return float64(p.totalCancelled.Load()) }),
		RejectedTotal: counter("pool_tasks_rejected_total",
			"Total tasks rejected at submission",
			func() float64 { return float64(p.totalRejected.Load()) }),
		DiscardedTotal: counter("pool_tasks_discarded_total",
			"Total tasks dropped by the Discard policy",
			func() float64 { return float64(p.discardCnt.Load()) }),
		OverwrittenTotal: counter("pool_tasks_overwritten_total",
			"Total tasks evicted by the Overwrite policy",
			func() float64 { return float64(p.overwriteCnt.Load()) }),

		PendingTasks: gauge("pool_pending_tasks",
			"Tasks currently queued",
			func() float64 { return float64(p.Pending()) }),
		ActiveTasks: gauge("pool_active_tasks",
			"Tasks currently executing",
			func() float64 { return float64(p.ActiveTasks()) }),
		CurrentWorkers: gauge("pool_current_workers",
			"Live worker count",
			func() float64 { return float64(p.CurrentWorkers()) }),
		ActiveWorkers: gauge("pool_active_workers",
			"Workers currently executing tasks",
			func() float64 { return float64(p.ActiveWorkers()) }),
		BusyRatio: gauge("pool_busy_ratio",
			"Active workers over live workers, sampled by the load controller",
			func() float64 { return p.Statistics().BusyRatio }),
		PendingRatio: gauge("pool_pending_ratio",
			"Queue utilization, sampled by the load controller",
			func() float64 { return p.Statistics().PendingRatio }),
	}
}
