package player

import (
	"context"
	"time"
)

// Repository describes player persistence needs from use cases.
type Repository interface {
	ListByTeam(ctx context.Context, teamID string) ([]Player, error)
	ListCurrentByTeam(ctx context.Context, teamID string) ([]Player, error)
	GetByTeamAndIGN(ctx context.Context, teamID, ign string) (Player, bool, error)
	Upsert(ctx context.Context, p Player) error
	MarkAllNotCurrent(ctx context.Context, teamID string, at time.Time) error
}
