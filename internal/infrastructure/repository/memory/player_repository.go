package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rosterpedia/roster-sync/internal/domain/player"
)

type PlayerRepository struct {
	mu      sync.RWMutex
	players map[string]player.Player
}

func playerKey(teamID, ign string) string {
	return teamID + "|" + ign
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	byKey := make(map[string]player.Player, len(players))
	for _, item := range players {
		byKey[playerKey(item.TeamID, item.IGN)] = item
	}

	return &PlayerRepository{players: byKey}
}

func (r *PlayerRepository) ListByTeam(_ context.Context, teamID string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshot(teamID, false), nil
}

func (r *PlayerRepository) ListCurrentByTeam(_ context.Context, teamID string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshot(teamID, true), nil
}

func (r *PlayerRepository) snapshot(teamID string, currentOnly bool) []player.Player {
	var out []player.Player
	for _, item := range r.players {
		if item.TeamID != teamID {
			continue
		}
		if currentOnly && !item.IsCurrent {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IGN < out[j].IGN })
	return out
}

func (r *PlayerRepository) GetByTeamAndIGN(_ context.Context, teamID, ign string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.players[playerKey(teamID, ign)]
	return item, ok, nil
}

func (r *PlayerRepository) Upsert(_ context.Context, p player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.players[playerKey(p.TeamID, p.IGN)] = p
	return nil
}

func (r *PlayerRepository) MarkAllNotCurrent(_ context.Context, teamID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, item := range r.players {
		if item.TeamID != teamID || !item.IsCurrent {
			continue
		}
		item.IsCurrent = false
		item.LastSyncedAt = &at
		r.players[key] = item
	}

	return nil
}
