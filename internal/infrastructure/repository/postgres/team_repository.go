package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rosterpedia/roster-sync/internal/domain/team"
	qb "github.com/rosterpedia/roster-sync/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.IsNull("deleted_at")).
		OrderBy("name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row))
	}

	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("public_id", id))
}

func (r *TeamRepository) GetBySourceID(ctx context.Context, sourceID string) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("source_public_id", sourceID))
}

func (r *TeamRepository) getOne(ctx context.Context, match qb.Condition) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(match, qb.IsNull("deleted_at")).
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team: %w", err)
	}

	return teamFromRow(row), true, nil
}

// Upsert inserts or refreshes the one team owned by its source.
func (r *TeamRepository) Upsert(ctx context.Context, t team.Team) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate team: %w", err)
	}

	model := teamInsertModel{
		PublicID:    t.ID,
		SourceID:    t.SourceID,
		Name:        t.Name,
		ShortName:   t.ShortName,
		Region:      t.Region,
		OrgLocation: t.OrgLocation,
		LogoURL:     t.LogoURL,
		Website:     t.Website,
		IsDisbanded: t.IsDisbanded,
	}

	query, args, err := qb.InsertModel("teams", model, `ON CONFLICT (source_public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    name = EXCLUDED.name,
    short_name = EXCLUDED.short_name,
    region = EXCLUDED.region,
    org_location = EXCLUDED.org_location,
    logo_url = EXCLUDED.logo_url,
    website = EXCLUDED.website,
    is_disbanded = EXCLUDED.is_disbanded,
    last_synced_at = NOW(),
    updated_at = NOW(),
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert team query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team source=%s name=%s: %w", t.SourceID, t.Name, err)
	}

	return nil
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:           row.PublicID,
		SourceID:     row.SourceID,
		Name:         row.Name,
		ShortName:    row.ShortName,
		Region:       row.Region,
		OrgLocation:  row.OrgLocation,
		LogoURL:      row.LogoURL,
		Website:      row.Website,
		IsDisbanded:  row.IsDisbanded,
		LastSyncedAt: row.LastSyncedAt,
	}
}
