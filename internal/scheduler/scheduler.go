// Package scheduler runs tasks one at a time on a single owner goroutine.
package scheduler

import (
	"errors"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("treeguides.scheduler")

// ErrStopped is returned when a task is posted after Stop.
var ErrStopped = errors.New("scheduler: stopped")

type Task struct {
	Name    string
	Execute func() error
}

type Scheduler struct {
	taskQueue chan Task
	mu        sync.RWMutex
	stopped   bool
	wg        sync.WaitGroup
	done      chan struct{}
}

// NewScheduler creates a new Scheduler with the specified queue size.
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		done:      make(chan struct{}),
	}
}

// RunScheduler starts the owner loop. Tasks run in the order they were
// posted.
func (s *Scheduler) RunScheduler() {
	go func() {
		defer close(s.done)
		for task := range s.taskQueue {
			s.run(task)
		}
	}()
}

func (s *Scheduler) run(task Task) {
	defer s.wg.Done()
	log.Debugf("executing %s", task.Name)
	if err := task.Execute(); err != nil {
		log.Errorf("task %s: %s", task.Name, err)
	}
}

// Post queues task without waiting for it to run.
func (s *Scheduler) Post(task Task) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return ErrStopped
	}
	s.wg.Add(1)
	s.taskQueue <- task
	return nil
}

// Do queues fn and waits for it to finish, returning its error. It must not
// be called from inside a task.
func (s *Scheduler) Do(name string, fn func() error) error {
	result := make(chan error, 1)
	err := s.Post(Task{Name: name, Execute: func() error {
		err := fn()
		result <- err
		return err
	}})
	if err != nil {
		return err
	}
	return <-result
}

// StopScheduler refuses further tasks, waits for the queued ones to finish
// and stops the loop. Calling it twice is a no-op.
func (s *Scheduler) StopScheduler() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.taskQueue)
	s.mu.Unlock()

	log.Debugf("stopping scheduler")
	s.wg.Wait()
	<-s.done
	log.Debugf("scheduler stopped")
}
