package postgres

import "time"

type teamTableModel struct {
	ID           int64      `db:"id"`
	PublicID     string     `db:"public_id"`
	SourceID     string     `db:"source_public_id"`
	Name         string     `db:"name"`
	ShortName    string     `db:"short_name"`
	Region       string     `db:"region"`
	OrgLocation  string     `db:"org_location"`
	LogoURL      string     `db:"logo_url"`
	Website      string     `db:"website"`
	IsDisbanded  bool       `db:"is_disbanded"`
	LastSyncedAt *time.Time `db:"last_synced_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

type teamInsertModel struct {
	PublicID    string `db:"public_id"`
	SourceID    string `db:"source_public_id"`
	Name        string `db:"name"`
	ShortName   string `db:"short_name"`
	Region      string `db:"region"`
	OrgLocation string `db:"org_location"`
	LogoURL     string `db:"logo_url"`
	Website     string `db:"website"`
	IsDisbanded bool   `db:"is_disbanded"`
}
