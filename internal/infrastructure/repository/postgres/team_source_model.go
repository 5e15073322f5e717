package postgres

import "time"

type teamSourceTableModel struct {
	ID           int64      `db:"id"`
	PublicID     string     `db:"public_id"`
	ShortCode    string     `db:"short_code"`
	LongName     string     `db:"long_name"`
	ExternalURL  string     `db:"external_url"`
	Enabled      bool       `db:"enabled"`
	LastSyncedAt *time.Time `db:"last_synced_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

type teamSourceInsertModel struct {
	PublicID    string `db:"public_id"`
	ShortCode   string `db:"short_code"`
	LongName    string `db:"long_name"`
	ExternalURL string `db:"external_url"`
	Enabled     bool   `db:"enabled"`
}
