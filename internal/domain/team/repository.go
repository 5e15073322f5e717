package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	GetByID(ctx context.Context, id string) (Team, bool, error)
	GetBySourceID(ctx context.Context, sourceID string) (Team, bool, error)
	Upsert(ctx context.Context, team Team) error
}
