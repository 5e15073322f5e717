package player

import (
	"fmt"
	"time"
)

// Role is the normalized in-game role. Free-form scraped labels ("Top
// Laner", "Midlane") are reduced to these before reconciliation; anything
// else is kept verbatim since the wiki occasionally invents new labels.
type Role = string

const (
	RoleTop     Role = "Top"
	RoleJungle  Role = "Jungle"
	RoleMid     Role = "Mid"
	RoleBot     Role = "Bot"
	RoleSupport Role = "Support"
)

// Player is one roster member, current or historical. Identity for
// reconciliation is (TeamID, IGN); rows are never deleted, only flipped to
// not-current when a player leaves the active roster.
type Player struct {
	ID           string
	TeamID       string
	IGN          string
	RealName     string
	Country      string
	Nationality  string
	Age          *int
	Birthdate    *time.Time
	Role         Role
	DateJoined   *time.Time
	ContractEnds *time.Time
	IsCurrent    bool
	LastSyncedAt *time.Time
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.TeamID == "" {
		return fmt.Errorf("player team id is required")
	}
	if p.IGN == "" {
		return fmt.Errorf("player ign is required")
	}
	if p.Age != nil && *p.Age < 0 {
		return fmt.Errorf("player age must not be negative")
	}

	return nil
}
