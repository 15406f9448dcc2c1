// Package pool implements a bounded worker pool with cooperative pause,
// graceful and forced shutdown, back-pressure policies and load-driven
// worker scaling. Tasks flow through the mpmc blocking queue; workers are
// goroutines owning a slot for their lifetime.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meetgrid/backend/internal/mpmc"
)

type State int32

const (
	StateCreated State = iota
	StateRunning
	StateShuttingDown
	StateForceStopping
	StateStopped
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateRunning:
		return "RUNNING"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	case StateForceStopping:
		return "FORCE_STOPPING"
	case StateStopped:
		return "STOPPED"
	case StatePaused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// Policy governs what a submission does when the queue is full.
type Policy int32

const (
	PolicyBlock Policy = iota
	PolicyDiscard
	PolicyOverwrite
)

func (p Policy) String() string {
	switch p {
	case PolicyBlock:
		return "Block"
	case PolicyDiscard:
		return "Discard"
	case PolicyOverwrite:
		return "Overwrite"
	default:
		return "Unknown"
	}
}

// ParsePolicy maps a config string to a Policy, defaulting to Block.
func ParsePolicy(s string) Policy {
	switch s {
	case "discard", "Discard":
		return PolicyDiscard
	case "overwrite", "Overwrite":
		return PolicyOverwrite
	default:
		return PolicyBlock
	}
}

type StopMode int

const (
	StopGraceful StopMode = iota
	StopForce
)

func (m StopMode) String() string {
	if m == StopForce {
		return "Force"
	}
	return "Graceful"
}

type ShutdownOption int

const (
	ShutdownGraceful ShutdownOption = iota
	ShutdownForce
	ShutdownTimeout
)

type Config struct {
	QueueCap           uint64
	CoreWorkers        int
	MaxWorkers         int
	LoadCheckInterval  time.Duration
	KeepAlive          time.Duration
	ScaleUpThreshold   float64
	ScaleDownThreshold float64
	PendingHi          int64
	PendingLow         int64
	DebounceHits       int
	Cooldown           time.Duration
	Policy             Policy
}

func DefaultConfig() Config {
	return Config{
		QueueCap:           1024,
		CoreWorkers:        4,
		MaxWorkers:         8,
		LoadCheckInterval:  100 * time.Millisecond,
		KeepAlive:          5 * time.Second,
		ScaleUpThreshold:   0.75,
		ScaleDownThreshold: 0.25,
		PendingHi:          64,
		PendingLow:         8,
		DebounceHits:       3,
		Cooldown:           500 * time.Millisecond,
		Policy:             PolicyBlock,
	}
}

type workerSlot struct {
	done       chan struct{}
	shouldExit atomic.Bool
	idle       atomic.Bool
	idleStreak atomic.Uint64
	lastActive atomic.Int64
}

// Pool executes submitted tasks on a dynamically sized set of workers.
type Pool struct {
	cfg    Config
	state  atomic.Int32
	policy atomic.Int32
	queue  *mpmc.Blocking[Task]

	workersMu sync.Mutex
	workers   []*workerSlot

	pauseMu sync.Mutex
	pauseCh chan struct{}

	drainMu    sync.Mutex
	drainCond  *sync.Cond
	submitMu   sync.Mutex
	submitCond *sync.Cond
	submitting atomic.Int64

	ctrlStop     chan struct{}
	ctrlStopOnce sync.Once
	ctrlKick     chan struct{}
	ctrlDone     chan struct{}

	activeTasks atomic.Int64

	counters
}

// New builds a pool from cfg with out-of-range values clamped. The pool
// starts in the CREATED state; call Start.
func New(cfg Config) *Pool {
	if cfg.CoreWorkers < 1 {
		cfg.CoreWorkers = 1
	}
	if cfg.MaxWorkers < cfg.CoreWorkers {
		cfg.MaxWorkers = cfg.CoreWorkers
	}
	if cfg.PendingLow > cfg.PendingHi {
		cfg.PendingLow = cfg.PendingHi
	}
	if cfg.DebounceHits < 1 {
		cfg.DebounceHits = 1
	}
	if cfg.LoadCheckInterval <= 0 {
		cfg.LoadCheckInterval = 100 * time.Millisecond
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}

	p := &Pool{
		cfg:   cfg,
		queue: mpmc.NewBlocking[Task](cfg.QueueCap),
	}
	p.state.Store(int32(StateCreated))
	p.policy.Store(int32(cfg.Policy))
	// Starts resolved; Pause swaps in an open channel.
	closed := make(chan struct{})
	close(closed)
	p.pauseCh = closed
	p.drainCond = sync.NewCond(&p.drainMu)
	p.submitCond = sync.NewCond(&p.submitMu)

	slog.Debug("pool constructed",
		"core_workers", cfg.CoreWorkers,
		"max_workers", cfg.MaxWorkers,
		"queue_cap", p.queue.Capacity(),
		"policy", cfg.Policy)
	return p
}

// NewSize builds a fixed-size pool: workers both core and max, scaling
// thresholds derived from queueCap.
func NewSize(workers int, queueCap uint64) *Pool {
	cfg := DefaultConfig()
	if workers < 1 {
		workers = 1
	}
	cfg.CoreWorkers = workers
	cfg.MaxWorkers = workers
	cfg.QueueCap = queueCap
	cfg.PendingHi = int64(queueCap / 2)
	cfg.PendingLow = int64(queueCap / 8)
	if cfg.PendingLow < 1 {
		cfg.PendingLow = 1
	}
	return New(cfg)
}

// Start launches the core workers and the load controller. Only valid from
// CREATED; anything else is a logged no-op.
func (p *Pool) Start() {
	if !p.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		slog.Warn("pool start ignored", "state", p.State())
		return
	}
	slog.Info("pool starting",
		"core_workers", p.cfg.CoreWorkers,
		"max_workers", p.cfg.MaxWorkers,
		"queue_cap", p.queue.Capacity(),
		"policy", p.Policy(),
		"load_check_interval", p.cfg.LoadCheckInterval,
		"keep_alive", p.cfg.KeepAlive)

	p.workersMu.Lock()
	for i := 0; i < p.cfg.CoreWorkers; i++ {
		p.createWorkerLocked()
	}
	p.workersMu.Unlock()

	p.ctrlStop = make(chan struct{})
	p.ctrlKick = make(chan struct{}, 1)
	p.ctrlDone = make(chan struct{})
	go p.controllerLoop()

	slog.Info("pool started",
		"workers", p.CurrentWorkers(),
		"pending_hi", p.cfg.PendingHi,
		"pending_low", p.cfg.PendingLow)
}

// Stop brings the pool to STOPPED. Graceful drains in-flight submissions and
// every queued task; Force cancels the backlog.
func (p *Pool) Stop(mode StopMode) {
	slog.Info("pool stop requested", "mode", mode, "state", p.State())
	graceful := mode == StopGraceful
	for {
		s := p.State()
		if s == StateStopped {
			break
		}
		target := s
		switch s {
		case StateCreated:
			target = StateStopped
		case StateRunning, StatePaused:
			if graceful {
				target = StateShuttingDown
			} else {
				target = StateForceStopping
			}
		case StateShuttingDown:
			if !graceful {
				target = StateForceStopping
			}
		}
		if target == s {
			break
		}
		if p.state.CompareAndSwap(int32(s), int32(target)) {
			slog.Debug("pool stop state transition", "from", s, "to", target)
			break
		}
	}

	p.wakePaused()

	switch p.State() {
	case StateShuttingDown:
		slog.Info("pool graceful shutdown", "submissions_in_flight", p.submitting.Load())
		p.submitMu.Lock()
		for p.submitting.Load() > 0 && p.State() == StateShuttingDown {
			p.submitCond.Wait()
		}
		p.submitMu.Unlock()
		slog.Info("pool submissions drained", "pending", p.Pending(), "active", p.ActiveTasks())
		p.drainMu.Lock()
		for (p.Pending() > 0 || p.ActiveTasks() > 0) && p.State() == StateShuttingDown {
			p.drainCond.Wait()
		}
		p.drainMu.Unlock()
		p.queue.Close()
	case StateForceStopping:
		pending := p.Pending()
		slog.Warn("pool force stop", "cancelling", pending)
		p.queue.Clear(func(t Task) {
			t.Cancel(errors.New("pool force stopped"))
			p.recordCancel()
		})
		p.queue.Close()
		// Release any concurrent graceful waiter.
		p.broadcastDrain()
		p.broadcastSubmit()
	case StateStopped:
		return
	}

	p.stopController()

	p.workersMu.Lock()
	toJoin := p.workers
	p.workers = nil
	p.workersMu.Unlock()
	for _, slot := range toJoin {
		<-slot.done
	}

	p.state.Store(int32(StateStopped))
	slog.Info("pool stopped", "workers_joined", len(toJoin), "pending", p.Pending(), "active", p.ActiveTasks())
}

// Shutdown is Stop with an escalation option. ShutdownTimeout attempts a
// graceful stop and escalates to force when the deadline passes.
func (p *Pool) Shutdown(opt ShutdownOption, timeout time.Duration) {
	switch opt {
	case ShutdownGraceful:
		p.Stop(StopGraceful)
	case ShutdownForce:
		p.Stop(StopForce)
	case ShutdownTimeout:
		done := make(chan struct{})
		go func() {
			p.Stop(StopGraceful)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(timeout):
			slog.Warn("pool shutdown timeout exceeded, escalating to force stop", "timeout", timeout)
			p.Stop(StopForce)
			<-done
		}
	}
}

// Post submits a fire-and-forget task. Returns false when the task was
// rejected or could not be enqueued.
func (p *Pool) Post(fn func()) bool {
	task := newSimpleTask(fn)
	for {
		s := p.State()
		if s == StateRunning {
			break
		}
		if s == StatePaused {
			p.waitWhilePaused()
			continue
		}
		p.recordRejected()
		return false
	}

	var success bool
	switch p.Policy() {
	case PolicyBlock:
		success = p.queue.WaitPush(context.Background(), task)
	case PolicyDiscard:
		success = p.queue.TryPush(task)
		if !success {
			p.discardCnt.Add(1)
		}
	case PolicyOverwrite:
		evicted, overwrote, pushed := p.queue.OverwritePush(task)
		if overwrote {
			evicted.Cancel(errors.New("task overwritten"))
			p.recordCancel()
			p.overwriteCnt.Add(1)
		}
		success = pushed
		if !success {
			p.discardCnt.Add(1)
		}
	}

	if success {
		p.totalSubmitted.Add(1)
	} else {
		p.recordRejected()
	}
	return success
}

// PostBatch submits fire-and-forget tasks without blocking and returns how
// many were enqueued. Only accepted while RUNNING.
func (p *Pool) PostBatch(fns []func()) int {
	if p.State() != StateRunning {
		return 0
	}
	tasks := make([]Task, len(fns))
	for i, fn := range fns {
		tasks[i] = newSimpleTask(fn)
	}
	count := p.queue.TryPushBatch(tasks)
	p.totalSubmitted.Add(uint64(count))
	return count
}

// Submit enqueues a value-bearing task and returns its future. A submission
// that finds the pool in a terminal state returns an error; enqueue failures
// resolve the returned future with the failure instead.
func Submit[T any](p *Pool, fn func() (T, error)) (*Future[T], error) {
	task := newFutureTask(fn)

	p.submitOn()
	defer p.submitOff()

	waitedInPause := false
	for {
		s := p.State()
		if s == StateRunning {
			if waitedInPause {
				slog.Debug("submit resumed after pause")
			}
			break
		}
		if s == StatePaused {
			slog.Debug("submit blocked: pool paused")
			p.waitWhilePaused()
			waitedInPause = true
			continue
		}
		if waitedInPause && s == StateShuttingDown {
			// The caller committed before the pause ended; honor it.
			slog.Info("submit allowed during shutdown after pause wait")
			break
		}
		if waitedInPause && s == StateForceStopping {
			p.recordCancel()
			task.Cancel(errors.New("pool force stopped"))
			slog.Error("submit cancelled: pool force stopping", "pending", p.Pending())
			return task.fut, nil
		}
		p.recordRejected()
		slog.Error("submit rejected", "state", s)
		return nil, fmt.Errorf("pool is not running: state=%s", s)
	}

	switch p.Policy() {
	case PolicyBlock:
		if !p.queue.WaitPush(context.Background(), task) {
			p.recordRejected()
			task.Cancel(errors.New("task queue closed"))
			slog.Warn("submit failed: queue closed", "pending", p.Pending(), "state", p.State())
			return task.fut, nil
		}
	case PolicyDiscard:
		if !p.queue.TryPush(task) {
			p.recordRejected()
			p.discardCnt.Add(1)
			task.Cancel(errors.New("task discarded"))
			slog.Warn("submit discarded", "pending", p.Pending(), "discarded", p.discardCnt.Load())
			return task.fut, nil
		}
	case PolicyOverwrite:
		evicted, overwrote, pushed := p.queue.OverwritePush(Task(task))
		if overwrote {
			evicted.Cancel(errors.New("task overwritten"))
			p.recordCancel()
			p.overwriteCnt.Add(1)
			slog.Debug("submit overwrote pending task", "overwritten", p.overwriteCnt.Load())
		}
		if !pushed {
			p.recordRejected()
			p.discardCnt.Add(1)
			task.Cancel(errors.New("task overwrite failed"))
			slog.Warn("submit failed: overwrite could not enqueue", "pending", p.Pending())
			return task.fut, nil
		}
	}

	p.totalSubmitted.Add(1)
	return task.fut, nil
}

// Pause freezes task dispatch while keeping workers alive. RUNNING only.
func (p *Pool) Pause() {
	p.pauseMu.Lock()
	if p.state.CompareAndSwap(int32(StateRunning), int32(StatePaused)) {
		p.pauseCh = make(chan struct{})
		slog.Info("pool paused")
	} else {
		slog.Debug("pool pause ignored", "state", p.State())
	}
	p.pauseMu.Unlock()
}

// Resume lifts a pause. PAUSED only.
func (p *Pool) Resume() {
	p.pauseMu.Lock()
	if p.state.CompareAndSwap(int32(StatePaused), int32(StateRunning)) {
		close(p.pauseCh)
		slog.Info("pool resumed")
	} else {
		slog.Debug("pool resume ignored", "state", p.State())
	}
	p.pauseMu.Unlock()
}

func (p *Pool) Paused() bool  { return p.State() == StatePaused }
func (p *Pool) Running() bool { return p.State() == StateRunning }

func (p *Pool) State() State { return State(p.state.Load()) }

func (p *Pool) Policy() Policy { return Policy(p.policy.Load()) }

func (p *Pool) SetPolicy(policy Policy) { p.policy.Store(int32(policy)) }

// Pending is the queued-task count.
func (p *Pool) Pending() int64 { return p.queue.Size() }

// ActiveTasks is the number of tasks currently executing.
func (p *Pool) ActiveTasks() int64 { return p.activeTasks.Load() }

func (p *Pool) CurrentWorkers() int64 { return p.currentWorkers.Load() }
func (p *Pool) ActiveWorkers() int64  { return p.activeWorkers.Load() }

func (p *Pool) DiscardedTasks() uint64   { return p.discardCnt.Load() }
func (p *Pool) OverwrittenTasks() uint64 { return p.overwriteCnt.Load() }
func (p *Pool) PauseWaits() uint64       { return p.pausedWaitCnt.Load() }

// waitWhilePaused parks the caller until the pool leaves PAUSED.
func (p *Pool) waitWhilePaused() {
	for {
		p.pauseMu.Lock()
		ch := p.pauseCh
		paused := p.State() == StatePaused
		p.pauseMu.Unlock()
		if !paused {
			return
		}
		p.pausedWaitCnt.Add(1)
		<-ch
	}
}

// wakePaused resolves the pause channel so every paused waiter re-checks
// state.
func (p *Pool) wakePaused() {
	p.pauseMu.Lock()
	select {
	case <-p.pauseCh:
	default:
		close(p.pauseCh)
	}
	p.pauseMu.Unlock()
}

func (p *Pool) submitOn() {
	p.submitting.Add(1)
}

func (p *Pool) submitOff() {
	if p.submitting.Add(-1) == 0 {
		p.broadcastSubmit()
	}
}

func (p *Pool) broadcastSubmit() {
	p.submitMu.Lock()
	p.submitCond.Broadcast()
	p.submitMu.Unlock()
}

func (p *Pool) broadcastDrain() {
	p.drainMu.Lock()
	p.drainCond.Broadcast()
	p.drainMu.Unlock()
}

func (p *Pool) createWorkerLocked() {
	slot := &workerSlot{done: make(chan struct{})}
	slot.idle.Store(true)
	slot.lastActive.Store(time.Now().UnixNano())
	p.workers = append(p.workers, slot)
	p.currentWorkers.Add(1)
	p.totalWorkersCreated.Add(1)
	for {
		peak := p.peakWorkers.Load()
		cur := p.currentWorkers.Load()
		if cur <= peak || p.peakWorkers.CompareAndSwap(peak, cur) {
			break
		}
	}
	go p.workerLoop(slot)
	slog.Debug("worker created",
		"current_workers", p.currentWorkers.Load(),
		"peak_workers", p.peakWorkers.Load())
}

func (p *Pool) workerLoop(slot *workerSlot) {
	defer p.workerExit(slot)
	for {
		p.waitWhilePausedWorker()
		if p.State() == StateForceStopping {
			slog.Debug("worker exiting: pool force stopping")
			break
		}

		slot.idle.Store(true)
		slot.idleStreak.Add(1)

		task, ok := p.queue.WaitPop(context.Background())
		if !ok {
			if p.queue.Closed() {
				slog.Debug("worker exiting: task queue closed")
				break
			}
			continue
		}
		if task == nil {
			slog.Warn("worker woke without task object")
			continue
		}

		if et, isExit := task.(*exitTask); isExit {
			if et.slot == slot {
				slot.shouldExit.Store(false)
				slog.Info("worker received directed exit request")
				break
			}
			// Not addressed to us; put it back for the right worker.
			if !p.queue.WaitPush(context.Background(), task) {
				slog.Warn("worker failed to requeue exit task")
				break
			}
			continue
		}

		slot.lastActive.Store(time.Now().UnixNano())
		p.taskOn(slot)
		start := time.Now()
		task.Execute()
		elapsed := time.Since(start)
		p.recordComplete(task, elapsed)
		p.taskOff(slot)

		if p.ActiveTasks() == 0 && p.Pending() == 0 {
			p.broadcastDrain()
		}
	}
}

// waitWhilePausedWorker is the worker-side pause gate; it counts waits like
// the producer side does.
func (p *Pool) waitWhilePausedWorker() {
	for p.State() == StatePaused {
		p.pauseMu.Lock()
		ch := p.pauseCh
		paused := p.State() == StatePaused
		p.pauseMu.Unlock()
		if !paused {
			return
		}
		p.pausedWaitCnt.Add(1)
		slog.Debug("worker waiting: pool paused")
		<-ch
	}
}

func (p *Pool) taskOn(slot *workerSlot) {
	slot.idle.Store(false)
	slot.idleStreak.Store(0)
	p.activeWorkers.Add(1)
	p.activeTasks.Add(1)
}

func (p *Pool) taskOff(slot *workerSlot) {
	p.activeTasks.Add(-1)
	p.activeWorkers.Add(-1)
	slot.idle.Store(true)
	slot.idleStreak.Add(1)
}

func (p *Pool) workerExit(slot *workerSlot) {
	p.currentWorkers.Add(-1)
	p.totalWorkersDestroyed.Add(1)
	p.broadcastDrain()
	close(slot.done)
	slog.Debug("worker exited", "current_workers", p.currentWorkers.Load())
}
