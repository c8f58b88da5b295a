// Package scheduler runs named recurring tasks on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task is one unit of recurring work. The context is cancelled when the scheduler stops.
type Task func(ctx context.Context) error

type job struct {
	name       string
	schedule   cron.Schedule
	task       Task
	runOnStart bool
	running    atomic.Bool
}

type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location
	log  *zap.Logger

	mu      sync.Mutex
	jobs    map[string]*job
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type Option func(*Scheduler)

// WithLocation evaluates schedules in loc instead of the local time zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.loc = loc
	}
}

func New(log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		loc:  time.Local,
		log:  log,
		jobs: make(map[string]*job),
	}
	for _, opt := range opts {
		opt(s)
	}
	cronLog := cron.PrintfLogger(zap.NewStdLog(log.Named("cron")))
	s.cron = cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(cronLog)),
	)
	return s
}

// Every registers task under name on a standard five-field cron spec.
// With runOnStart the task also runs once as soon as the scheduler starts.
func (s *Scheduler) Every(name, spec string, task Task, runOnStart bool) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started, cannot add %s", name)
	}
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("task %s already registered", name)
	}

	j := &job{name: name, schedule: schedule, task: task, runOnStart: runOnStart}
	s.jobs[name] = j
	s.cron.Schedule(schedule, cron.FuncJob(func() { s.run(j) }))
	return nil
}

// Start begins firing tasks. Stop must be called to release them.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	var eager []*job
	for _, j := range s.jobs {
		if j.runOnStart {
			eager = append(eager, j)
		}
	}
	s.mu.Unlock()

	s.cron.Start()
	for _, j := range eager {
		j := j
		go s.run(j)
	}

	for name := range s.jobs {
		if next, err := s.Next(name, time.Now()); err == nil {
			s.log.Info("Task scheduled", zap.String("task", name), zap.Time("next_run", next))
		}
	}
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// Next is the first fire time of the named task strictly after from.
func (s *Scheduler) Next(name string, from time.Time) (time.Time, error) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, fmt.Errorf("task %s not registered", name)
	}
	return j.schedule.Next(from.In(s.loc)), nil
}

func (s *Scheduler) run(j *job) {
	if !j.running.CompareAndSwap(false, true) {
		s.log.Warn("Task still running, skipping this run", zap.String("task", j.name))
		return
	}
	defer j.running.Store(false)

	s.mu.Lock()
	ctx := s.ctx
	if ctx == nil || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	start := time.Now()
	if err := j.task(ctx); err != nil {
		s.log.Error("Task failed", zap.String("task", j.name), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	s.log.Info("Task finished", zap.String("task", j.name), zap.Duration("took", time.Since(start)))
}
