package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rosterpedia/roster-sync/internal/domain/player"
	qb "github.com/rosterpedia/roster-sync/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID string) ([]player.Player, error) {
	return r.list(ctx, teamID, false)
}

func (r *PlayerRepository) ListCurrentByTeam(ctx context.Context, teamID string) ([]player.Player, error) {
	return r.list(ctx, teamID, true)
}

func (r *PlayerRepository) list(ctx context.Context, teamID string, currentOnly bool) ([]player.Player, error) {
	conditions := []qb.Condition{
		qb.Eq("team_public_id", teamID),
		qb.IsNull("deleted_at"),
	}
	if currentOnly {
		conditions = append(conditions, qb.Eq("is_current", true))
	}

	query, args, err := qb.Select("*").From("players").
		Where(conditions...).
		OrderBy("ign").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		if isRetryableStatementError(err) {
			err = r.db.SelectContext(ctx, &rows, query, args...)
		}
		if err != nil {
			return nil, fmt.Errorf("select players team=%s: %w", teamID, err)
		}
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}

	return out, nil
}

func (r *PlayerRepository) GetByTeamAndIGN(ctx context.Context, teamID, ign string) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").
		Where(
			qb.Eq("team_public_id", teamID),
			qb.Eq("ign", ign),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player team=%s ign=%s: %w", teamID, ign, err)
	}

	return playerFromRow(row), true, nil
}

// Upsert inserts or refreshes one roster row keyed by (team, ign).
func (r *PlayerRepository) Upsert(ctx context.Context, p player.Player) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validate player: %w", err)
	}

	model := playerInsertModel{
		PublicID:     p.ID,
		TeamID:       p.TeamID,
		IGN:          p.IGN,
		RealName:     p.RealName,
		Country:      p.Country,
		Nationality:  p.Nationality,
		Age:          intPtrToInt64Ptr(p.Age),
		Birthdate:    p.Birthdate,
		Role:         p.Role,
		DateJoined:   p.DateJoined,
		ContractEnds: p.ContractEnds,
		IsCurrent:    p.IsCurrent,
		LastSyncedAt: p.LastSyncedAt,
	}

	query, args, err := qb.InsertModel("players", model, `ON CONFLICT (team_public_id, ign) WHERE deleted_at IS NULL
DO UPDATE SET
    real_name = EXCLUDED.real_name,
    country = EXCLUDED.country,
    nationality = EXCLUDED.nationality,
    age = EXCLUDED.age,
    birthdate = EXCLUDED.birthdate,
    role = EXCLUDED.role,
    date_joined = EXCLUDED.date_joined,
    contract_ends = EXCLUDED.contract_ends,
    is_current = EXCLUDED.is_current,
    last_synced_at = EXCLUDED.last_synced_at,
    updated_at = NOW(),
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert player query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player team=%s ign=%s: %w", p.TeamID, p.IGN, err)
	}

	return nil
}

// MarkAllNotCurrent flips the whole active roster of a team to historical.
func (r *PlayerRepository) MarkAllNotCurrent(ctx context.Context, teamID string, at time.Time) error {
	query, args, err := qb.Update("players").
		Set("is_current", false).
		Set("last_synced_at", at.UTC()).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("team_public_id", teamID),
			qb.Eq("is_current", true),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark players not current query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark players not current team=%s: %w", teamID, err)
	}

	return nil
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		ID:           row.PublicID,
		TeamID:       row.TeamID,
		IGN:          row.IGN,
		RealName:     row.RealName,
		Country:      row.Country,
		Nationality:  row.Nationality,
		Age:          nullInt64ToIntPtr(row.Age),
		Birthdate:    row.Birthdate,
		Role:         row.Role,
		DateJoined:   row.DateJoined,
		ContractEnds: row.ContractEnds,
		IsCurrent:    row.IsCurrent,
		LastSyncedAt: row.LastSyncedAt,
	}
}

func intPtrToInt64Ptr(value *int) *int64 {
	if value == nil {
		return nil
	}
	v := int64(*value)
	return &v
}

func nullInt64ToIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}
