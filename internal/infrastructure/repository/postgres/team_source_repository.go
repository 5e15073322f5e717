package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rosterpedia/roster-sync/internal/domain/teamsource"
	qb "github.com/rosterpedia/roster-sync/internal/platform/querybuilder"
)

type TeamSourceRepository struct {
	db *sqlx.DB
}

func NewTeamSourceRepository(db *sqlx.DB) *TeamSourceRepository {
	return &TeamSourceRepository{db: db}
}

func (r *TeamSourceRepository) List(ctx context.Context) ([]teamsource.TeamSource, error) {
	return r.list(ctx, false)
}

func (r *TeamSourceRepository) ListEnabled(ctx context.Context) ([]teamsource.TeamSource, error) {
	return r.list(ctx, true)
}

func (r *TeamSourceRepository) list(ctx context.Context, enabledOnly bool) ([]teamsource.TeamSource, error) {
	conditions := []qb.Condition{qb.IsNull("deleted_at")}
	if enabledOnly {
		conditions = append(conditions, qb.Eq("enabled", true))
	}

	query, args, err := qb.Select("*").From("team_sources").
		Where(conditions...).
		OrderBy("short_code").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select team sources query: %w", err)
	}

	var rows []teamSourceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select team sources: %w", err)
	}

	out := make([]teamsource.TeamSource, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamSourceFromRow(row))
	}

	return out, nil
}

func (r *TeamSourceRepository) GetByID(ctx context.Context, id string) (teamsource.TeamSource, bool, error) {
	query, args, err := qb.Select("*").From("team_sources").
		Where(
			qb.Eq("public_id", id),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return teamsource.TeamSource{}, false, fmt.Errorf("build select team source query: %w", err)
	}

	var row teamSourceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return teamsource.TeamSource{}, false, nil
		}
		return teamsource.TeamSource{}, false, fmt.Errorf("select team source by id: %w", err)
	}

	return teamSourceFromRow(row), true, nil
}

// GetByName matches either the short code or the long display name, so both
// "T1" and "T1 Esports" resolve the same source.
func (r *TeamSourceRepository) GetByName(ctx context.Context, name string) (teamsource.TeamSource, bool, error) {
	query, args, err := qb.Select("*").From("team_sources").
		Where(
			qb.Expr("(short_code = ? OR long_name = ?)", name, name),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return teamsource.TeamSource{}, false, fmt.Errorf("build select team source by name query: %w", err)
	}

	var row teamSourceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return teamsource.TeamSource{}, false, nil
		}
		return teamsource.TeamSource{}, false, fmt.Errorf("select team source by name: %w", err)
	}

	return teamSourceFromRow(row), true, nil
}

func (r *TeamSourceRepository) Upsert(ctx context.Context, source teamsource.TeamSource) error {
	if err := source.Validate(); err != nil {
		return fmt.Errorf("validate team source: %w", err)
	}

	model := teamSourceInsertModel{
		PublicID:    source.ID,
		ShortCode:   source.ShortCode,
		LongName:    source.LongName,
		ExternalURL: source.ExternalURL,
		Enabled:     source.Enabled,
	}

	query, args, err := qb.InsertModel("team_sources", model, `ON CONFLICT (short_code) WHERE deleted_at IS NULL
DO UPDATE SET
    long_name = EXCLUDED.long_name,
    external_url = EXCLUDED.external_url,
    enabled = EXCLUDED.enabled,
    updated_at = NOW(),
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert team source query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team source short_code=%s: %w", source.ShortCode, err)
	}

	return nil
}

func (r *TeamSourceRepository) MarkSynced(ctx context.Context, id string, syncedAt time.Time) error {
	query, args, err := qb.Update("team_sources").
		Set("last_synced_at", syncedAt.UTC()).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark team source synced query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark team source synced id=%s: %w", id, err)
	}

	return nil
}

func teamSourceFromRow(row teamSourceTableModel) teamsource.TeamSource {
	return teamsource.TeamSource{
		ID:           row.PublicID,
		ShortCode:    row.ShortCode,
		LongName:     row.LongName,
		ExternalURL:  row.ExternalURL,
		Enabled:      row.Enabled,
		LastSyncedAt: row.LastSyncedAt,
	}
}
