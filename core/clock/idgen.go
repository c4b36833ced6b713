package clock

import (
	"fmt"
	"sync"
)

// TaskIDCounter generates task ids of the form "{TypeName}{counter}" where
// counter increases monotonically from 0, independently per type name. It is
// meant to be owned exclusively by a single Dispatcher instance.
type TaskIDCounter struct {
	mu      sync.Mutex
	counter map[string]int
}

// NewTaskIDCounter returns a zeroed counter.
func NewTaskIDCounter() *TaskIDCounter {
	return &TaskIDCounter{counter: make(map[string]int)}
}

// Next returns the next id for typeName and advances the counter.
func (c *TaskIDCounter) Next(typeName string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.counter[typeName]
	c.counter[typeName] = n + 1
	return fmt.Sprintf("%s%d", typeName, n)
}
