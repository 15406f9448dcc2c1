package pool

import (
	"context"
	"log/slog"
	"time"
)

// controllerLoop samples load every LoadCheckInterval and adjusts worker
// capacity between CoreWorkers and MaxWorkers. Scale decisions are debounced
// and capacity changes enter a cooldown; a manual kick bypasses the
// cooldown. Mixed signals reset the debounce counters.
func (p *Pool) controllerLoop() {
	defer close(p.ctrlDone)
	slog.Debug("load controller started",
		"interval", p.cfg.LoadCheckInterval,
		"cooldown", p.cfg.Cooldown)

	ticker := time.NewTicker(p.cfg.LoadCheckInterval)
	defer ticker.Stop()

	lastAdjust := time.Now()
	upHits, downHits := 0, 0

	for {
		kicked := false
		select {
		case <-p.ctrlStop:
			slog.Debug("load controller exiting")
			return
		case <-p.ctrlKick:
			kicked = true
		case <-ticker.C:
		}

		now := time.Now()
		if !kicked && now.Sub(lastAdjust) < p.cfg.Cooldown {
			continue
		}

		pending := p.Pending()
		current := p.currentWorkers.Load()
		active := p.activeWorkers.Load()
		busyRatio := 0.0
		if current > 0 {
			busyRatio = float64(active) / float64(current)
		}
		p.storeBusyRatio(busyRatio)
		p.storePendingRatio(float64(pending) / float64(p.queue.Capacity()))

		toGrow := pending >= p.cfg.PendingHi || busyRatio >= p.cfg.ScaleUpThreshold
		toShrink := pending <= p.cfg.PendingLow && busyRatio <= p.cfg.ScaleDownThreshold

		if toGrow {
			upHits++
			if upHits >= p.cfg.DebounceHits {
				upHits, downHits = 0, 0
				lastAdjust = now
				p.workersMu.Lock()
				if p.currentWorkers.Load() < int64(p.cfg.MaxWorkers) {
					before := p.currentWorkers.Load()
					p.createWorkerLocked()
					slog.Info("pool scaled up",
						"from", before,
						"to", p.currentWorkers.Load(),
						"pending", pending,
						"busy_ratio", busyRatio)
				} else {
					slog.Debug("scale-up skipped: at max workers", "max_workers", p.cfg.MaxWorkers)
				}
				p.workersMu.Unlock()
			}
			continue
		}

		if toShrink {
			downHits++
			if downHits >= p.cfg.DebounceHits {
				upHits, downHits = 0, 0
				lastAdjust = now
				var targets []*workerSlot
				p.workersMu.Lock()
				if p.currentWorkers.Load() > int64(p.cfg.CoreWorkers) {
					targets = p.scheduleShrinkLocked(1)
				}
				p.workersMu.Unlock()
				if len(targets) > 0 {
					p.enqueueExitSignals(targets)
					for _, slot := range targets {
						p.retireWorker(slot)
					}
					slog.Info("pool scaled down",
						"workers", p.currentWorkers.Load(),
						"pending", pending,
						"busy_ratio", busyRatio)
				} else {
					slog.Debug("scale-down skipped: no idle workers")
				}
			}
			continue
		}

		upHits, downHits = 0, 0
	}
}

// scheduleShrinkLocked marks up to count idle workers for retirement.
// Callers hold workersMu.
func (p *Pool) scheduleShrinkLocked(count int) []*workerSlot {
	var targets []*workerSlot
	for _, slot := range p.workers {
		if len(targets) >= count {
			break
		}
		if !slot.idle.Load() {
			continue
		}
		if slot.shouldExit.CompareAndSwap(false, true) {
			targets = append(targets, slot)
		}
	}
	if len(targets) > 0 {
		slog.Debug("scheduled workers for shrink", "count", len(targets))
	}
	return targets
}

// enqueueExitSignals posts a directed exit task per target. Workers that pop
// one addressed elsewhere requeue it.
func (p *Pool) enqueueExitSignals(targets []*workerSlot) {
	for _, slot := range targets {
		if !p.queue.WaitPush(context.Background(), &exitTask{slot: slot}) {
			break
		}
		slog.Debug("exit signal enqueued")
	}
}

// retireWorker removes slot from the worker set and waits for its goroutine
// to finish.
func (p *Pool) retireWorker(slot *workerSlot) {
	p.workersMu.Lock()
	found := false
	for i, s := range p.workers {
		if s == slot {
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			found = true
			break
		}
	}
	p.workersMu.Unlock()
	if !found {
		return
	}
	<-slot.done
	slog.Debug("worker retired", "current_workers", p.currentWorkers.Load())
}

// TriggerLoadCheck wakes the controller for an immediate sample, bypassing
// the cooldown.
func (p *Pool) TriggerLoadCheck() {
	select {
	case p.ctrlKick <- struct{}{}:
	default:
	}
}

func (p *Pool) stopController() {
	p.ctrlStopOnce.Do(func() {
		if p.ctrlStop == nil {
			return
		}
		close(p.ctrlStop)
		<-p.ctrlDone
		slog.Debug("load controller stopped")
	})
}
