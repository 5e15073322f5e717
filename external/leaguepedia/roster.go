package leaguepedia

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
)

// RosterEntry is one row of a team's active-roster table. DateJoined and
// ContractEnds are only set when the table carries sortable date cells.
type RosterEntry struct {
	PageName     string
	Role         string
	DateJoined   *time.Time
	ContractEnds *time.Time
}

// Namespaces whose pages are never players. Matched as a prefix of the wiki
// page name, not anywhere in the document.
var nonPlayerNamespaces = map[string]struct{}{
	"file":     {},
	"category": {},
	"special":  {},
	"template": {},
	"user":     {},
	"talk":     {},
	"help":     {},
	"project":  {},
}

var errEmptyDate = crerr.New("empty date value")

var playerRoleKeywordRegex = regexp.MustCompile(`(?i)top|jungle|mid|bot|support`)
var isoDateRegex = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
var allDigitsRegex = regexp.MustCompile(`^\d+$`)

// extractRosterEntries locates the active-roster table and pulls player page
// names out of it, preserving first-seen order and dropping duplicates and
// non-player links. An empty slice means no roster could be located.
func extractRosterEntries(doc *goquery.Document) []RosterEntry {
	table := locateRosterTable(doc)
	if table == nil {
		return nil
	}

	entries := collectPlayerCells(table)
	if len(entries) == 0 {
		// Some layouts omit the dedicated player cell class. Fall back to
		// rows whose role cell names one of the five player roles, which
		// also screens out coach and staff rows.
		entries = collectRoleRows(table)
	}
	return entries
}

// locateRosterTable tries the known table conventions in priority order.
func locateRosterTable(doc *goquery.Document) *goquery.Selection {
	if table := doc.Find("table.team-members-current").First(); table.Length() > 0 {
		return table
	}

	// The "Active" section anchor sits inside a heading; the roster table is
	// the next table element after it.
	if anchor := doc.Find("#Active").First(); anchor.Length() > 0 {
		for sibling := anchor.Parent().Next(); sibling.Length() > 0; sibling = sibling.Next() {
			if goquery.NodeName(sibling) == "table" {
				return sibling
			}
		}
	}

	if table := doc.Find(`table[class*="team-members"]`).First(); table.Length() > 0 {
		return table
	}
	return nil
}

func collectPlayerCells(table *goquery.Selection) []RosterEntry {
	var entries []RosterEntry
	seen := map[string]struct{}{}

	table.Find("td.team-members-player").Each(func(_ int, cell *goquery.Selection) {
		pageName := playerPageFromCell(cell)
		if pageName == "" {
			return
		}
		if _, dup := seen[pageName]; dup {
			return
		}
		seen[pageName] = struct{}{}

		row := cell.Closest("tr")
		entries = append(entries, RosterEntry{
			PageName:     pageName,
			Role:         cleanRole(row.Find("td.team-members-role").First().Text()),
			DateJoined:   parseRosterDate(row.Find(`td[class*="join"], td[class*="date"]`).First()),
			ContractEnds: parseRosterDate(row.Find(`td[class*="contract"]`).First()),
		})
	})

	return entries
}

func collectRoleRows(table *goquery.Selection) []RosterEntry {
	var entries []RosterEntry
	seen := map[string]struct{}{}

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		roleCell := row.Find("td.team-members-role").First()
		if roleCell.Length() == 0 {
			return
		}
		roleText := strings.TrimSpace(roleCell.Text())
		if !playerRoleKeywordRegex.MatchString(roleText) {
			return
		}

		pageName := playerPageFromCell(row.Find("td.team-members-player").First())
		if pageName == "" {
			pageName = playerPageFromCell(row)
		}
		if pageName == "" {
			return
		}
		if _, dup := seen[pageName]; dup {
			return
		}
		seen[pageName] = struct{}{}

		entries = append(entries, RosterEntry{
			PageName: pageName,
			Role:     cleanRole(roleText),
		})
	})

	return entries
}

// playerPageFromCell returns the wiki page name of the first player link in
// the cell, or "" when the cell only links into non-player namespaces.
func playerPageFromCell(cell *goquery.Selection) string {
	if cell == nil || cell.Length() == 0 {
		return ""
	}
	var pageName string
	cell.Find(`a[href^="/wiki/"]`).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		candidate := strings.TrimPrefix(href, "/wiki/")
		if candidate == "" || isNonPlayerPage(candidate) {
			return true
		}
		pageName = candidate
		return false
	})
	return pageName
}

func isNonPlayerPage(pageName string) bool {
	idx := strings.Index(pageName, ":")
	if idx <= 0 {
		return false
	}
	_, ok := nonPlayerNamespaces[strings.ToLower(pageName[:idx])]
	return ok
}

// parseRosterDate reads a date cell, preferring the machine-readable
// data-sort-value attribute (unix seconds or a date string) over the display
// text, which is then only scanned for an ISO date.
func parseRosterDate(cell *goquery.Selection) *time.Time {
	if cell == nil || cell.Length() == 0 {
		return nil
	}

	if sortValue, ok := cell.Attr("data-sort-value"); ok {
		sortValue = strings.TrimSpace(sortValue)
		if allDigitsRegex.MatchString(sortValue) {
			if secs, err := strconv.ParseInt(sortValue, 10, 64); err == nil {
				t := time.Unix(secs, 0).UTC()
				return &t
			}
		}
		if t, err := parseDateString(sortValue); err == nil {
			return &t
		}
	}

	if match := isoDateRegex.FindString(cell.Text()); match != "" {
		if t, err := time.Parse("2006-01-02", match); err == nil {
			return &t
		}
	}
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"2 January 2006",
	"Jan 2, 2006",
}

func parseDateString(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errEmptyDate
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	if match := isoDateRegex.FindString(value); match != "" {
		if t, err := time.Parse("2006-01-02", match); err == nil {
			return t, nil
		}
	}
	return time.Time{}, lastErr
}
