// Package task runs named goroutines with shared cancellation, used by the
// simulator server and the monitor loop of the command line tool.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-julabo/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrStopped is returned when a task is started on a stopped Manager.
var ErrStopped = errors.New("task manager already stopped")

// Func is the body of a looping task. It returns false to end the task.
type Func func() bool

// CtxFunc is the body of a task that runs once and watches ctx itself.
type CtxFunc func(ctx context.Context)

// CancelFunc is called when a task exits, for whatever reason.
type CancelFunc func()

// Manager manages the lifecycle of a group of goroutines.
//
// Stop cancels every task; Wait blocks until they have returned and re-arms
// the Manager so it can be reused.
//
//	mgr := task.NewManager(ctx, logger)
//	_ = mgr.Start("accept", func() bool { ... })
//	...
//	mgr.Stop()
//	mgr.Wait()
type Manager struct {
	pctx      context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	logger    logger.Logger
	count     atomic.Int32
	intervals *xsync.MapOf[string, *intervalTask]
	mu        sync.RWMutex // protects ctx and cancel
	taskMu    sync.RWMutex // blocks task creation during Wait
}

// NewManager creates a Manager whose tasks are cancelled with ctx.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	if l == nil {
		l = logger.GetLogger()
	}

	mgr := &Manager{
		pctx:      ctx,
		logger:    l,
		intervals: xsync.NewMapOf[string, *intervalTask](),
	}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Context returns the context shared by the current tasks.
func (mgr *Manager) Context() context.Context {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.ctx
}

// Start runs fn in a loop until it returns false or the Manager is stopped.
func (mgr *Manager) Start(name string, fn Func) error {
	mgr.logger.Debug("start task", "name", name)

	starter, err := mgr.newStarter(name)
	if err != nil {
		return err
	}

	if err := starter.start(func() {
		mgr.runLoop(name, fn)
	}); err != nil {
		return err
	}

	return starter.waitForStart()
}

// Go runs fn once with the task context. onExit, if not nil, runs after fn returns.
func (mgr *Manager) Go(name string, fn CtxFunc, onExit CancelFunc) error {
	mgr.logger.Debug("start task", "name", name)

	starter, err := mgr.newStarter(name)
	if err != nil {
		return err
	}

	ctx := mgr.Context()
	if err := starter.start(func() {
		if onExit != nil {
			defer onExit()
		}

		mgr.callWithRecover(name, func() { fn(ctx) })
	}); err != nil {
		return err
	}

	return starter.waitForStart()
}

// StartInterval runs fn every interval until it returns false, the interval
// is stopped, or the Manager is stopped. With runNow, fn also runs once
// synchronously before the first tick.
func (mgr *Manager) StartInterval(name string, fn Func, interval time.Duration, runNow bool) error {
	mgr.logger.Debug("start interval task", "name", name, "interval", interval, "run_now", runNow)

	if interval <= 0 {
		return fmt.Errorf("invalid interval: %v", interval)
	}

	iv := &intervalTask{ticker: time.NewTicker(interval), done: make(chan struct{})}
	if _, loaded := mgr.intervals.LoadOrStore(name, iv); loaded {
		iv.ticker.Stop()
		return fmt.Errorf("interval task %s already exists", name)
	}

	cleanup := func() {
		iv.stop()
		mgr.intervals.Compute(name, func(cur *intervalTask, loaded bool) (*intervalTask, bool) {
			// keep an entry registered by a newer task with the same name
			return cur, !loaded || cur == iv
		})
	}

	if runNow && !mgr.callWithRecoverBool(name, fn) {
		cleanup()
		return nil
	}

	starter, err := mgr.newStarter(name)
	if err != nil {
		cleanup()
		return err
	}

	ctx := mgr.Context()
	err = starter.start(func() {
		defer cleanup()

		for {
			select {
			case <-ctx.Done():
				return
			case <-iv.done:
				return
			case <-iv.ticker.C:
				if !mgr.callWithRecoverBool(name, fn) {
					return
				}
			}
		}
	})
	if err != nil {
		cleanup()
		return err
	}

	return starter.waitForStart()
}

// StopInterval stops the interval task registered under name.
func (mgr *Manager) StopInterval(name string) error {
	iv, ok := mgr.intervals.LoadAndDelete(name)
	if !ok {
		return fmt.Errorf("interval task %s not found", name)
	}
	iv.stop()

	return nil
}

type intervalTask struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (iv *intervalTask) stop() {
	iv.once.Do(func() {
		iv.ticker.Stop()
		close(iv.done)
	})
}

// Stop cancels every running task.
func (mgr *Manager) Stop() {
	mgr.intervals.Range(func(_ string, iv *intervalTask) bool {
		iv.stop()
		return true
	})

	mgr.mu.Lock()
	if mgr.cancel != nil {
		mgr.cancel()
	}
	mgr.mu.Unlock()
}

// Wait blocks until every task has returned, then re-arms the Manager.
func (mgr *Manager) Wait() {
	mgr.taskMu.Lock()
	defer mgr.taskMu.Unlock()

	mgr.wg.Wait()

	mgr.mu.Lock()
	mgr.ctx, mgr.cancel = context.WithCancel(mgr.pctx)
	mgr.mu.Unlock()
}

// TaskCount returns the number of running tasks.
func (mgr *Manager) TaskCount() int {
	return int(mgr.count.Load())
}

func (mgr *Manager) callWithRecover(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
		}
	}()

	fn()
}

// callWithRecoverBool reports false when fn panics.
func (mgr *Manager) callWithRecoverBool(name string, fn func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
			ok = false
		}
	}()

	return fn()
}

func (mgr *Manager) runLoop(name string, fn Func) {
	for {
		ctx := mgr.Context()
		select {
		case <-ctx.Done():
			return
		default:
			if !mgr.callWithRecoverBool(name, fn) {
				return
			}
		}
	}
}

type starter struct {
	mgr     *Manager
	name    string
	started chan struct{}
}

func (mgr *Manager) newStarter(name string) (*starter, error) {
	select {
	case <-mgr.Context().Done():
		return nil, fmt.Errorf("start %s: %w", name, ErrStopped)
	default:
	}

	return &starter{mgr: mgr, name: name, started: make(chan struct{})}, nil
}

// start fails instead of blocking while Wait is draining the task group,
// since the caller may itself be one of the tasks Wait is waiting for.
func (s *starter) start(body func()) error {
	if !s.mgr.taskMu.TryRLock() {
		return fmt.Errorf("start %s: %w", s.name, ErrStopped)
	}
	defer s.mgr.taskMu.RUnlock()

	s.mgr.wg.Add(1)
	s.mgr.count.Add(1)

	go func() {
		defer s.mgr.wg.Done()
		defer func() {
			s.mgr.count.Add(-1)
			s.mgr.logger.Debug("task terminated", "name", s.name, "task_count", s.mgr.TaskCount())
		}()

		close(s.started)
		body()
	}()

	return nil
}

func (s *starter) waitForStart() error {
	select {
	case <-s.started:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for %s to start", s.name)
	}
}
