package leaguepedia

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
)

// PlayerProfile is the scraped view of one player wiki page, merged with the
// roster row it was discovered through.
type PlayerProfile struct {
	IGN          string
	RealName     string
	Country      string
	Nationality  string
	Age          *int
	Birthdate    *time.Time
	Role         string
	DateJoined   *time.Time
	ContractEnds *time.Time
	IsCurrent    bool
}

var playerNameLabels = []string{"Name", "Real Name", "Birth Name"}
var playerCountryLabels = []string{"Country", "Residency"}
var playerNationalityLabels = []string{"Nationality", "Country"}
var playerRoleLabels = []string{"Role", "Position", "Main Role"}
var playerBirthdateLabels = []string{"Birth", "Birthdate", "Date of Birth", "Born"}
var playerAgeLabels = []string{"Age"}

// FetchPlayerProfile scrapes one player page. found=false (page missing or
// no info panel) is a skip for the caller, not a failure.
func (c *Client) FetchPlayerProfile(ctx context.Context, pageName string) (PlayerProfile, bool, error) {
	doc, found, err := c.fetchDocument(ctx, "/wiki/"+normalizePageName(pageName))
	if err != nil || !found {
		return PlayerProfile{}, false, err
	}

	infobox := findInfobox(doc)
	if infobox == nil {
		c.logger.WarnContext(ctx, "no infobox found for player", "player", pageName)
		return PlayerProfile{}, false, nil
	}

	ign := strings.TrimSpace(doc.Find("h1.mw-page-title-main").First().Text())
	if ign == "" {
		ign = strings.ReplaceAll(pageName, "_", " ")
	}

	birthdate := c.parseBirthdate(infobox)
	profile := PlayerProfile{
		IGN:         ign,
		RealName:    extractInfoboxValue(infobox, playerNameLabels),
		Country:     extractInfoboxValue(infobox, playerCountryLabels),
		Nationality: extractInfoboxValue(infobox, playerNationalityLabels),
		Age:         c.resolveAge(infobox, birthdate),
		Birthdate:   birthdate,
		Role:        cleanRole(extractInfoboxValue(infobox, playerRoleLabels)),
		// Only invoked for names discovered on the active roster.
		IsCurrent: true,
	}

	return profile, true, nil
}

// FetchTeamRoster scrapes the team page for its active roster and then one
// player page per discovered name. Individual player pages that are missing
// or unreachable are skipped; only a transient failure on the team page
// itself is returned as an error.
func (c *Client) FetchTeamRoster(ctx context.Context, teamName string) ([]PlayerProfile, error) {
	doc, found, err := c.fetchDocument(ctx, "/wiki/"+normalizePageName(teamName))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	entries := extractRosterEntries(doc)
	if len(entries) == 0 {
		c.logger.InfoContext(ctx, "no active roster located", "team", teamName)
		return nil, nil
	}

	pageNames := make([]string, 0, len(entries))
	for _, entry := range entries {
		pageNames = append(pageNames, entry.PageName)
	}
	c.logger.InfoContext(ctx, "active roster located",
		"team", teamName,
		"player_count", len(entries),
		"players", strings.Join(pageNames, ", "),
	)

	profiles := make([]PlayerProfile, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return profiles, crerr.Mark(err, errLeaguepediaTransient)
		}

		profile, ok, err := c.FetchPlayerProfile(ctx, entry.PageName)
		if err != nil {
			c.logger.WarnContext(ctx, "player profile fetch failed, skipping",
				"team", teamName, "player", entry.PageName, "error", err)
			continue
		}
		if !ok {
			c.logger.WarnContext(ctx, "player profile unavailable, skipping",
				"team", teamName, "player", entry.PageName)
			continue
		}

		// The roster table knows membership details the player page lacks.
		if profile.Role == "" {
			profile.Role = entry.Role
		}
		profile.DateJoined = entry.DateJoined
		profile.ContractEnds = entry.ContractEnds

		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// resolveAge prefers the explicit Age field, falling back to whole years
// since the birthdate.
func (c *Client) resolveAge(infobox *goquery.Selection, birthdate *time.Time) *int {
	if raw := extractInfoboxValue(infobox, playerAgeLabels); raw != "" {
		if digits := allDigitsLeading(raw); digits != "" {
			if age, err := strconv.Atoi(digits); err == nil {
				return &age
			}
		}
	}

	if birthdate == nil {
		return nil
	}
	age := yearsBetween(*birthdate, c.now())
	if age < 0 {
		return nil
	}
	return &age
}

func (c *Client) parseBirthdate(infobox *goquery.Selection) *time.Time {
	raw := extractInfoboxValue(infobox, playerBirthdateLabels)
	if raw == "" {
		return nil
	}
	t, err := parseDateString(raw)
	if err != nil {
		return nil
	}
	return &t
}

// yearsBetween is the floor of the calendar years from birth to now.
func yearsBetween(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// allDigitsLeading returns the leading run of digits ("27 years" -> "27").
func allDigitsLeading(value string) string {
	value = strings.TrimSpace(value)
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	return value[:end]
}
