package postgres

import (
	"database/sql"
	"time"
)

type playerTableModel struct {
	ID           int64         `db:"id"`
	PublicID     string        `db:"public_id"`
	TeamID       string        `db:"team_public_id"`
	IGN          string        `db:"ign"`
	RealName     string        `db:"real_name"`
	Country      string        `db:"country"`
	Nationality  string        `db:"nationality"`
	Age          sql.NullInt64 `db:"age"`
	Birthdate    *time.Time    `db:"birthdate"`
	Role         string        `db:"role"`
	DateJoined   *time.Time    `db:"date_joined"`
	ContractEnds *time.Time    `db:"contract_ends"`
	IsCurrent    bool          `db:"is_current"`
	LastSyncedAt *time.Time    `db:"last_synced_at"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
	DeletedAt    *time.Time    `db:"deleted_at"`
}

type playerInsertModel struct {
	PublicID     string     `db:"public_id"`
	TeamID       string     `db:"team_public_id"`
	IGN          string     `db:"ign"`
	RealName     string     `db:"real_name"`
	Country      string     `db:"country"`
	Nationality  string     `db:"nationality"`
	Age          *int64     `db:"age"`
	Birthdate    *time.Time `db:"birthdate"`
	Role         string     `db:"role"`
	DateJoined   *time.Time `db:"date_joined"`
	ContractEnds *time.Time `db:"contract_ends"`
	IsCurrent    bool       `db:"is_current"`
	LastSyncedAt *time.Time `db:"last_synced_at"`
}
