// Package taskstore defines the contract to the external execution backend.
// The scheduler submits task descriptors here and receives opaque external
// ids back; completion results flow to the monitor through whatever callback
// the integrating process wires up.
package taskstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Descriptor describes one unit of work handed to the execution backend.
type Descriptor struct {
	Name         string    `json:"name" validate:"required"`
	SystemPrompt string    `json:"system_prompt"`
	UserPrompt   string    `json:"user_prompt" validate:"required"`
	ScheduledAt  time.Time `json:"scheduled_at,omitempty"`
	ContextID    string    `json:"context_id,omitempty"`
}

// TaskStore is the execution backend seen by the scheduler. Submit returns
// the backend's id for the created task; that id is the correlation key for
// later completion callbacks.
type TaskStore interface {
	Submit(ctx context.Context, desc Descriptor) (string, error)
	Cancel(ctx context.Context, externalID string) error
}

// Executor produces a task's output from its descriptor. Used by the
// in-memory store in place of a real agent backend.
type Executor func(desc Descriptor) (string, error)

// CompletionHandler receives the output (or error) of an executed task.
type CompletionHandler func(externalID, output string, execErr error)

// InMemoryStore queues submitted descriptors and executes them on demand
// through an injected Executor. It backs the `run` command and tests; a real
// deployment implements TaskStore against the surrounding agent system.
type InMemoryStore struct {
	mu        sync.Mutex
	executor  Executor
	onDone    CompletionHandler
	queue     []string
	tasks     map[string]Descriptor
	cancelled map[string]bool
}

// NewInMemoryStore creates a store that runs descriptors through executor
// and reports results to onDone when Drain is called.
func NewInMemoryStore(executor Executor, onDone CompletionHandler) *InMemoryStore {
	return &InMemoryStore{
		executor:  executor,
		onDone:    onDone,
		tasks:     make(map[string]Descriptor),
		cancelled: make(map[string]bool),
	}
}

// Submit queues a descriptor and returns its external id.
func (s *InMemoryStore) Submit(ctx context.Context, desc Descriptor) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if desc.UserPrompt == "" {
		return "", fmt.Errorf("submit task %q: empty prompt", desc.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.tasks[id] = desc
	s.queue = append(s.queue, id)
	return id, nil
}

// Cancel marks a queued task so Drain skips it. Cancelling an unknown id is
// an error; cancelling twice is not.
func (s *InMemoryStore) Cancel(ctx context.Context, externalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[externalID]; !ok {
		return fmt.Errorf("cancel task %s: unknown id", externalID)
	}
	s.cancelled[externalID] = true
	return nil
}

// Pending returns the number of queued, uncancelled tasks.
func (s *InMemoryStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range s.queue {
		if !s.cancelled[id] {
			n++
		}
	}
	return n
}

// Drain executes queued tasks sequentially in submission order, invoking the
// completion handler after each one. The handler may submit follow-up tasks;
// Drain keeps going until the queue is empty or ctx is done.
func (s *InMemoryStore) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		var (
			id   string
			desc Descriptor
			ok   bool
		)
		for len(s.queue) > 0 {
			id = s.queue[0]
			s.queue = s.queue[1:]
			if s.cancelled[id] {
				delete(s.tasks, id)
				continue
			}
			desc, ok = s.tasks[id], true
			delete(s.tasks, id)
			break
		}
		s.mu.Unlock()

		if !ok {
			return nil
		}
		output, err := s.executor(desc)
		if s.onDone != nil {
			s.onDone(id, output, err)
		}
	}
}
