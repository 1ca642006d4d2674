// Package scheduler enqueues the library's periodic tasks on cron schedules.
// The work itself runs in the task queue; the scheduler only decides when.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
)

// Enqueuer adds a task to the queue. tasks.Client satisfies it.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Scheduler manages the periodic jobs.
type Scheduler struct {
	queue Enqueuer

	cron      *cron.Cron
	entries   map[string]cron.EntryID
	tasks     map[string]backlite.Task
	mu        sync.RWMutex
	isRunning bool
}

// New creates a scheduler that enqueues into queue.
func New(queue Enqueuer) *Scheduler {
	return &Scheduler{
		queue:   queue,
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
		tasks:   make(map[string]backlite.Task),
	}
}

// Add schedules task under name. Adding a name twice replaces the job.
func (s *Scheduler) Add(name, schedule string, task backlite.Task) error {
	if err := ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s' for %s: %w", schedule, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
	}
	id, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.enqueue(name); err != nil {
			log.Printf("[SCHEDULER] %s: %v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.entries[name] = id
	s.tasks[name] = task

	log.Printf("[SCHEDULER] %s scheduled with '%s'", name, schedule)
	return nil
}

// Start begins the scheduler and stops it when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}
	s.cron.Start()
	s.isRunning = true

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop stops the scheduler and waits for running jobs to finish enqueueing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	// Running jobs take the read lock, so wait for them without holding it.
	<-s.cron.Stop().Done()
	log.Printf("[SCHEDULER] stopped")
}

// NextRun returns when the named job fires next, or nil when the scheduler
// is stopped or the job is unknown.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.entries[name]
	if !ok || !s.isRunning {
		return nil
	}
	next := s.cron.Entry(id).Next
	return &next
}

func (s *Scheduler) enqueue(name string) (string, error) {
	s.mu.RLock()
	task, ok := s.tasks[name]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown job %q", name)
	}

	id, err := s.queue.Enqueue(task)
	if err != nil {
		return "", err
	}
	log.Printf("[SCHEDULER] %s enqueued as task %s", name, id)
	return id, nil
}
