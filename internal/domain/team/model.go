package team

import (
	"fmt"
	"time"
)

// Team is the persisted view of one esports organization, owned by the
// team source it was scraped through.
type Team struct {
	ID           string
	SourceID     string
	Name         string
	ShortName    string
	Region       string
	OrgLocation  string
	LogoURL      string
	Website      string
	IsDisbanded  bool
	LastSyncedAt *time.Time
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.SourceID == "" {
		return fmt.Errorf("team source id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
