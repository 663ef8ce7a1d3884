package posting

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/honeycarbs/jobingest/internal/domain"
)

// MemoryTaskTracker keeps task state in process; used when no Redis is configured
type MemoryTaskTracker struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]domain.IngestionTask
}

// NewMemoryTaskTracker returns an empty tracker
func NewMemoryTaskTracker() *MemoryTaskTracker {
	return &MemoryTaskTracker{tasks: make(map[uuid.UUID]domain.IngestionTask)}
}

func (m *MemoryTaskTracker) Save(_ context.Context, task domain.IngestionTask) error {
	task.PerSource = maps.Clone(task.PerSource)
	m.mu.Lock()
	m.tasks[task.ID] = task
	m.mu.Unlock()
	return nil
}

func (m *MemoryTaskTracker) Get(_ context.Context, id uuid.UUID) (domain.IngestionTask, error) {
	m.mu.RLock()
	task, ok := m.tasks[id]
	m.mu.RUnlock()
	if !ok {
		return domain.IngestionTask{}, ErrTaskNotFound
	}
	task.PerSource = maps.Clone(task.PerSource)
	return task, nil
}
