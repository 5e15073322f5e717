package teamsource

import (
	"context"
	"time"
)

// Repository describes team source persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]TeamSource, error)
	ListEnabled(ctx context.Context) ([]TeamSource, error)
	GetByID(ctx context.Context, id string) (TeamSource, bool, error)
	GetByName(ctx context.Context, name string) (TeamSource, bool, error)
	Upsert(ctx context.Context, source TeamSource) error
	MarkSynced(ctx context.Context, id string, syncedAt time.Time) error
}
