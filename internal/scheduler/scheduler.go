package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Action is the payload executed when a job's due instant elapses.
type Action func(ctx context.Context)

// ErrStopped is returned by Schedule after the scheduler has been stopped.
var ErrStopped = errors.New("scheduler stopped")

// Scheduler holds a set of pending one-shot jobs keyed by stable identifier.
// Schedule replaces any existing job with the same id atomically; Cancel is a
// no-op on unknown ids. Removal and firing are mutually exclusive: a fired
// timer revalidates that its entry is still the current one for the id before
// running the action, so once Cancel returns the action will not start.
type Scheduler struct {
	log     *zap.Logger
	metrics *Metrics

	mu      sync.Mutex
	entries map[string]*entry
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type entry struct {
	timer *time.Timer
	due   time.Time
}

// New creates a scheduler ready to accept jobs. Metrics may be nil.
func New(log *zap.Logger, m *Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:     log,
		metrics: m,
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Schedule inserts a job or replaces the pending job with the same id.
// A due instant in the past fires immediately.
func (s *Scheduler) Schedule(id string, due time.Time, fn Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}

	if old, ok := s.entries[id]; ok {
		old.timer.Stop()
		delete(s.entries, id)
		if s.metrics != nil {
			s.metrics.replaced.Inc()
		}
	}

	e := &entry{due: due}
	delay := time.Until(due)
	if delay < 0 {
		delay = 0
	}
	e.timer = time.AfterFunc(delay, func() { s.fire(id, e, fn) })
	s.entries[id] = e

	if s.metrics != nil {
		s.metrics.scheduled.Inc()
		s.metrics.pending.Set(float64(len(s.entries)))
	}
	s.log.Debug("job scheduled", zap.String("id", id), zap.Time("due", due))
	return nil
}

// fire claims the entry and runs the action. A stale callback (the entry was
// cancelled or replaced after the timer expired) gives up without running.
func (s *Scheduler) fire(id string, e *entry, fn Action) {
	s.mu.Lock()
	cur, ok := s.entries[id]
	if s.stopped || !ok || cur != e {
		s.mu.Unlock()
		return
	}
	delete(s.entries, id)
	if s.metrics != nil {
		s.metrics.pending.Set(float64(len(s.entries)))
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job action panicked", zap.String("id", id), zap.Any("panic", r))
		}
	}()
	fn(s.ctx)
	if s.metrics != nil {
		s.metrics.fired.Inc()
	}
	s.log.Debug("job fired", zap.String("id", id), zap.Time("due", e.due))
}

// Cancel removes a pending job. It reports whether a job was removed;
// a missing id is not an error.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.entries, id)
	if s.metrics != nil {
		s.metrics.cancelled.Inc()
		s.metrics.pending.Set(float64(len(s.entries)))
	}
	s.log.Debug("job cancelled", zap.String("id", id))
	return true
}

// Due reports the due instant of a pending job, if present.
func (s *Scheduler) Due(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return time.Time{}, false
	}
	return e.due, true
}

// Pending returns the number of registered jobs.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop cancels all pending jobs and waits for in-flight actions to finish.
// In-flight actions complete without interference.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
	if s.metrics != nil {
		s.metrics.pending.Set(0)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.cancel()
	s.log.Info("scheduler stopped")
}
