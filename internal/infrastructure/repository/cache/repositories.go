package cache

import (
	"context"
	"time"

	"github.com/rosterpedia/roster-sync/internal/domain/player"
	"github.com/rosterpedia/roster-sync/internal/domain/team"
	"github.com/rosterpedia/roster-sync/internal/domain/teamsource"
	basecache "github.com/rosterpedia/roster-sync/internal/platform/cache"
)

// TeamSourceRepository is a read-through cache in front of the
// persistent team source repository. Writes invalidate every source
// key so reads never serve a stale configuration.
type TeamSourceRepository struct {
	next  teamsource.Repository
	cache *basecache.Store
}

func NewTeamSourceRepository(next teamsource.Repository, cache *basecache.Store) *TeamSourceRepository {
	return &TeamSourceRepository{next: next, cache: cache}
}

func (r *TeamSourceRepository) List(ctx context.Context) ([]teamsource.TeamSource, error) {
	v, err := r.cache.GetOrLoad(ctx, "teamsource:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]teamsource.TeamSource(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]teamsource.TeamSource)
	return append([]teamsource.TeamSource(nil), items...), nil
}

func (r *TeamSourceRepository) ListEnabled(ctx context.Context) ([]teamsource.TeamSource, error) {
	v, err := r.cache.GetOrLoad(ctx, "teamsource:enabled", func(ctx context.Context) (any, error) {
		items, err := r.next.ListEnabled(ctx)
		if err != nil {
			return nil, err
		}
		return append([]teamsource.TeamSource(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]teamsource.TeamSource)
	return append([]teamsource.TeamSource(nil), items...), nil
}

func (r *TeamSourceRepository) GetByID(ctx context.Context, id string) (teamsource.TeamSource, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "teamsource:id:"+id, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return cachedTeamSource{value: item, exists: exists}, nil
	})
	if err != nil {
		return teamsource.TeamSource{}, false, err
	}

	cached, _ := v.(cachedTeamSource)
	return cached.value, cached.exists, nil
}

func (r *TeamSourceRepository) GetByName(ctx context.Context, name string) (teamsource.TeamSource, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "teamsource:name:"+name, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		return cachedTeamSource{value: item, exists: exists}, nil
	})
	if err != nil {
		return teamsource.TeamSource{}, false, err
	}

	cached, _ := v.(cachedTeamSource)
	return cached.value, cached.exists, nil
}

func (r *TeamSourceRepository) Upsert(ctx context.Context, source teamsource.TeamSource) error {
	if err := r.next.Upsert(ctx, source); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "teamsource:")
	return nil
}

func (r *TeamSourceRepository) MarkSynced(ctx context.Context, id string, syncedAt time.Time) error {
	if err := r.next.MarkSynced(ctx, id, syncedAt); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "teamsource:")
	return nil
}

type cachedTeamSource struct {
	value  teamsource.TeamSource
	exists bool
}

// TeamRepository caches team reads, invalidating on upsert.
type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	v, err := r.cache.GetOrLoad(ctx, "team:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]team.Team)
	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (team.Team, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "team:id:"+id, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return cachedTeam{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeam)
	return cached.value, cached.exists, nil
}

func (r *TeamRepository) GetBySourceID(ctx context.Context, sourceID string) (team.Team, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "team:source:"+sourceID, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetBySourceID(ctx, sourceID)
		if err != nil {
			return nil, err
		}
		return cachedTeam{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeam)
	return cached.value, cached.exists, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, t team.Team) error {
	if err := r.next.Upsert(ctx, t); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "team:")
	return nil
}

type cachedTeam struct {
	value  team.Team
	exists bool
}

// PlayerRepository caches per-team roster reads. Any write touches
// roster membership, so the whole team prefix is dropped.
type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID string) ([]player.Player, error) {
	v, err := r.cache.GetOrLoad(ctx, "player:team:"+teamID+":all", func(ctx context.Context) (any, error) {
		items, err := r.next.ListByTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return append([]player.Player(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]player.Player)
	return append([]player.Player(nil), items...), nil
}

func (r *PlayerRepository) ListCurrentByTeam(ctx context.Context, teamID string) ([]player.Player, error) {
	v, err := r.cache.GetOrLoad(ctx, "player:team:"+teamID+":current", func(ctx context.Context) (any, error) {
		items, err := r.next.ListCurrentByTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return append([]player.Player(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]player.Player)
	return append([]player.Player(nil), items...), nil
}

func (r *PlayerRepository) GetByTeamAndIGN(ctx context.Context, teamID, ign string) (player.Player, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "player:team:"+teamID+":ign:"+ign, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByTeamAndIGN(ctx, teamID, ign)
		if err != nil {
			return nil, err
		}
		return cachedPlayer{value: item, exists: exists}, nil
	})
	if err != nil {
		return player.Player{}, false, err
	}

	cached, _ := v.(cachedPlayer)
	return cached.value, cached.exists, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, p player.Player) error {
	if err := r.next.Upsert(ctx, p); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "player:team:"+p.TeamID)
	return nil
}

func (r *PlayerRepository) MarkAllNotCurrent(ctx context.Context, teamID string, at time.Time) error {
	if err := r.next.MarkAllNotCurrent(ctx, teamID, at); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "player:team:"+teamID)
	return nil
}

type cachedPlayer struct {
	value  player.Player
	exists bool
}
