package teamsource

import (
	"fmt"
	"time"
)

// TeamSource is an operator-configured pointer at one team's wiki page.
// ShortCode doubles as the human handle in job payloads and dedup keys.
type TeamSource struct {
	ID           string
	ShortCode    string
	LongName     string
	ExternalURL  string
	Enabled      bool
	LastSyncedAt *time.Time
}

func (s TeamSource) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("team source id is required")
	}
	if s.ShortCode == "" {
		return fmt.Errorf("team source short code is required")
	}
	if s.LongName == "" {
		return fmt.Errorf("team source long name is required")
	}

	return nil
}

// PageName is the wiki page the source resolves to, preferring the long
// display name over the short code.
func (s TeamSource) PageName() string {
	if s.LongName != "" {
		return s.LongName
	}
	return s.ShortCode
}
