package memory

import (
	"context"
	"sync"

	"github.com/rosterpedia/roster-sync/internal/domain/jobscheduler"
)

type JobDispatchRepository struct {
	mu     sync.Mutex
	events map[string]jobscheduler.DispatchEvent
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{events: make(map[string]jobscheduler.DispatchEvent)}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.DispatchID] = event
	return nil
}
