package notify

import (
	"context"
	"sync"
)

// InMemory records emitted reminders for tests and local development.
type InMemory struct {
	mu        sync.Mutex
	reminders []Reminder
	// FailNext makes the next Emit fail, for exercising emit-failure paths.
	FailNext error
}

var _ Notifier = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (n *InMemory) Emit(_ context.Context, reminder Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.FailNext; err != nil {
		n.FailNext = nil
		return err
	}
	n.reminders = append(n.reminders, reminder)
	return nil
}

// Emitted returns a copy of everything emitted so far.
func (n *InMemory) Emitted() []Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Reminder, len(n.reminders))
	copy(out, n.reminders)
	return out
}
