package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rosterpedia/roster-sync/internal/domain/teamsource"
)

type TeamSourceRepository struct {
	mu      sync.RWMutex
	sources map[string]teamsource.TeamSource
}

func NewTeamSourceRepository(sources []teamsource.TeamSource) *TeamSourceRepository {
	byID := make(map[string]teamsource.TeamSource, len(sources))
	for _, item := range sources {
		byID[item.ID] = item
	}

	return &TeamSourceRepository{sources: byID}
}

func (r *TeamSourceRepository) List(_ context.Context) ([]teamsource.TeamSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshot(false), nil
}

func (r *TeamSourceRepository) ListEnabled(_ context.Context) ([]teamsource.TeamSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshot(true), nil
}

func (r *TeamSourceRepository) snapshot(enabledOnly bool) []teamsource.TeamSource {
	out := make([]teamsource.TeamSource, 0, len(r.sources))
	for _, item := range r.sources {
		if enabledOnly && !item.Enabled {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShortCode < out[j].ShortCode })
	return out
}

func (r *TeamSourceRepository) GetByID(_ context.Context, id string) (teamsource.TeamSource, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.sources[id]
	return item, ok, nil
}

func (r *TeamSourceRepository) GetByName(_ context.Context, name string) (teamsource.TeamSource, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.sources {
		if strings.EqualFold(item.ShortCode, name) || strings.EqualFold(item.LongName, name) {
			return item, true, nil
		}
	}

	return teamsource.TeamSource{}, false, nil
}

func (r *TeamSourceRepository) Upsert(_ context.Context, source teamsource.TeamSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources[source.ID] = source
	return nil
}

func (r *TeamSourceRepository) MarkSynced(_ context.Context, id string, syncedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.sources[id]
	if !ok {
		return nil
	}
	item.LastSyncedAt = &syncedAt
	r.sources[id] = item
	return nil
}
