package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rosterpedia/roster-sync/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	teams map[string]team.Team
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	byID := make(map[string]team.Team, len(teams))
	for _, item := range teams {
		byID[item.ID] = item
	}

	return &TeamRepository{teams: byID}
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.teams))
	for _, item := range r.teams {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (r *TeamRepository) GetByID(_ context.Context, id string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.teams[id]
	return item, ok, nil
}

func (r *TeamRepository) GetBySourceID(_ context.Context, sourceID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.teams {
		if item.SourceID == sourceID {
			return item, true, nil
		}
	}

	return team.Team{}, false, nil
}

func (r *TeamRepository) Upsert(_ context.Context, t team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.teams[t.ID] = t
	return nil
}
