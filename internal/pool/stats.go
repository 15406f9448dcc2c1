package pool

import (
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// counters is the pool's relaxed accounting block. Reads are individually
// atomic; a snapshot is not.
type counters struct {
	totalSubmitted atomic.Uint64
	totalCompleted atomic.Uint64
	totalFailed    atomic.Uint64
	totalCancelled atomic.Uint64
	totalRejected  atomic.Uint64

	totalExecTimeNs atomic.Uint64

	busyRatioBits    atomic.Uint64
	pendingRatioBits atomic.Uint64

	currentWorkers        atomic.Int64
	activeWorkers         atomic.Int64
	peakWorkers           atomic.Int64
	totalWorkersCreated   atomic.Uint64
	totalWorkersDestroyed atomic.Uint64

	discardCnt    atomic.Uint64
	overwriteCnt  atomic.Uint64
	pausedWaitCnt atomic.Uint64
}

// Statistics is a point-in-time snapshot of the pool's counters.
type Statistics struct {
	TotalSubmitted uint64 `json:"total_submitted"`
	TotalCompleted uint64 `json:"total_completed"`
	TotalFailed    uint64 `json:"total_failed"`
	TotalCancelled uint64 `json:"total_cancelled"`
	TotalRejected  uint64 `json:"total_rejected"`

	TotalExecTime time.Duration `json:"total_exec_time_ns"`
	AvgExecTime   time.Duration `json:"avg_exec_time_ns"`

	PendingTasks int64   `json:"pending_tasks"`
	BusyRatio    float64 `json:"busy_ratio"`
	PendingRatio float64 `json:"pending_ratio"`

	CurrentWorkers        int64  `json:"current_workers"`
	ActiveWorkers         int64  `json:"active_workers"`
	PeakWorkers           int64  `json:"peak_workers"`
	TotalWorkersCreated   uint64 `json:"total_workers_created"`
	TotalWorkersDestroyed uint64 `json:"total_workers_destroyed"`

	DiscardedTasks   uint64 `json:"discarded_tasks"`
	OverwrittenTasks uint64 `json:"overwritten_tasks"`
	PauseWaits       uint64 `json:"pause_waits"`
}

// Statistics returns a snapshot. Each field is read atomically but the set
// is not a consistent cut.
func (p *Pool) Statistics() Statistics {
	var stats Statistics
	stats.TotalSubmitted = p.totalSubmitted.Load()
	stats.TotalCompleted = p.totalCompleted.Load()
	stats.TotalFailed = p.totalFailed.Load()
	stats.TotalCancelled = p.totalCancelled.Load()
	stats.TotalRejected = p.totalRejected.Load()

	execNs := p.totalExecTimeNs.Load()
	stats.TotalExecTime = time.Duration(execNs)
	if stats.TotalCompleted > 0 {
		stats.AvgExecTime = time.Duration(execNs / stats.TotalCompleted)
	}

	pending := p.Pending()
	stats.PendingTasks = pending
	stats.BusyRatio = math.Float64frombits(p.busyRatioBits.Load())
	if qcap := p.queue.Capacity(); qcap > 0 {
		stats.PendingRatio = float64(pending) / float64(qcap)
	}

	stats.CurrentWorkers = p.currentWorkers.Load()
	stats.ActiveWorkers = p.activeWorkers.Load()
	stats.PeakWorkers = p.peakWorkers.Load()
	stats.TotalWorkersCreated = p.totalWorkersCreated.Load()
	stats.TotalWorkersDestroyed = p.totalWorkersDestroyed.Load()

	stats.DiscardedTasks = p.discardCnt.Load()
	stats.OverwrittenTasks = p.overwriteCnt.Load()
	stats.PauseWaits = p.pausedWaitCnt.Load()
	return stats
}

// ResetStatistics zeroes the counters. Peak resets to the current worker
// count; live gauges are untouched.
func (p *Pool) ResetStatistics() {
	p.totalSubmitted.Store(0)
	p.totalCompleted.Store(0)
	p.totalFailed.Store(0)
	p.totalCancelled.Store(0)
	p.totalRejected.Store(0)

	p.totalExecTimeNs.Store(0)

	p.busyRatioBits.Store(0)
	p.pendingRatioBits.Store(0)

	p.peakWorkers.Store(p.currentWorkers.Load())
	p.totalWorkersCreated.Store(0)
	p.totalWorkersDestroyed.Store(0)

	p.discardCnt.Store(0)
	p.overwriteCnt.Store(0)
	p.pausedWaitCnt.Store(0)
}

func (p *Pool) recordComplete(task Task, elapsed time.Duration) {
	p.totalExecTimeNs.Add(uint64(elapsed.Nanoseconds()))
	if task.Success() {
		p.totalCompleted.Add(1)
	} else {
		p.totalFailed.Add(1)
	}
}

func (p *Pool) recordCancel() {
	cancelled := p.totalCancelled.Add(1)
	slog.Debug("task cancelled", "total_cancelled", cancelled)
}

func (p *Pool) recordRejected() {
	rejected := p.totalRejected.Add(1)
	slog.Debug("task rejected", "total_rejected", rejected, "pending", p.Pending())
}

func (p *Pool) storeBusyRatio(v float64) {
	p.busyRatioBits.Store(math.Float64bits(v))
}

func (p *Pool) storePendingRatio(v float64) {
	p.pendingRatioBits.Store(math.Float64bits(v))
}
