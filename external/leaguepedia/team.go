package leaguepedia

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TeamPage is the scraped view of one team wiki page.
type TeamPage struct {
	Name        string
	Short       string
	Region      string
	OrgLocation string
	Website     string
	LogoURL     string
	IsDisbanded bool
}

var teamNameLabels = []string{"Name", "Full Name", "Team Name", "Official Name"}
var teamShortLabels = []string{"Short", "Abbreviation", "Tag"}
var teamRegionLabels = []string{"Region"}
var teamWebsiteLabels = []string{"Website", "Web"}
var teamStatusLabels = []string{"Status", "Active"}

// FetchTeamByName scrapes the team's wiki page. found=false means the page
// does not exist or has no info panel; a non-nil error means the source was
// unreachable (transient).
func (c *Client) FetchTeamByName(ctx context.Context, teamName string) (TeamPage, bool, error) {
	doc, found, err := c.fetchDocument(ctx, "/wiki/"+normalizePageName(teamName))
	if err != nil || !found {
		return TeamPage{}, false, err
	}
	return c.parseTeamPage(ctx, doc, teamName)
}

func (c *Client) parseTeamPage(ctx context.Context, doc *goquery.Document, teamName string) (TeamPage, bool, error) {
	infobox := findInfobox(doc)
	if infobox == nil {
		c.logger.WarnContext(ctx, "no infobox found for team", "team", teamName)
		return TeamPage{}, false, nil
	}

	page := TeamPage{
		Name:        teamFullName(doc, infobox, teamName),
		Short:       extractInfoboxValue(infobox, teamShortLabels),
		Region:      extractInfoboxValue(infobox, teamRegionLabels),
		Website:     extractInfoboxLink(infobox, teamWebsiteLabels),
		LogoURL:     extractInfoboxImage(infobox),
		IsDisbanded: isDisbanded(doc),
	}
	if page.Short == "" {
		page.Short = teamName
	}

	// Older team pages carry a dedicated InfoboxTeam table whose Org
	// Location and Region cells are more precise than the generic panel.
	if loc := extractTeamInfoboxField(doc, "Org Location"); loc != "" {
		page.OrgLocation = loc
	}
	if region := extractTeamInfoboxField(doc, "Region"); region != "" {
		page.Region = region
	}

	return page, true, nil
}

// teamFullName resolves the display name by priority: infobox title element,
// explicit name labels, page heading, then the requested name.
func teamFullName(doc *goquery.Document, infobox *goquery.Selection, teamName string) string {
	if title := strings.TrimSpace(infobox.Find(".infobox-title").First().Text()); title != "" {
		return title
	}
	if name := extractInfoboxValue(infobox, teamNameLabels); name != "" {
		return name
	}
	if heading := strings.TrimSpace(doc.Find("h1.mw-page-title-main").First().Text()); heading != "" {
		return heading
	}
	return teamName
}

// extractTeamInfoboxField reads a label/value pair from the InfoboxTeam
// table, preferring the short-code and name sub-elements over raw cell text.
func extractTeamInfoboxField(doc *goquery.Document, label string) string {
	infobox := doc.Find("table.InfoboxTeam").First()
	if infobox.Length() == 0 {
		return ""
	}

	var value string
	infobox.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}
		if !strings.EqualFold(strings.TrimSpace(cells.First().Text()), label) {
			return true
		}

		valueCell := cells.Eq(1)
		if icon := valueCell.Find("div.region-icon").First(); icon.Length() > 0 {
			value = strings.TrimSpace(icon.Text())
			return false
		}
		if name := valueCell.Find("span.markup-object-name").First(); name.Length() > 0 {
			value = strings.TrimSpace(name.Text())
			return false
		}
		value = strings.TrimSpace(valueCell.Text())
		return false
	})

	return dedupeText(value)
}

// isDisbanded classifies a team as inactive from structured signals only:
// the infobox status field and the page category listings. Free body text is
// deliberately never scanned; articles routinely mention "inactive" players
// on active teams.
func isDisbanded(doc *goquery.Document) bool {
	if infobox := findInfobox(doc); infobox != nil {
		status := strings.ToLower(extractInfoboxValue(infobox, teamStatusLabels))
		if status != "" {
			if strings.Contains(status, "disbanded") ||
				strings.Contains(status, "inactive") ||
				strings.Contains(status, "dissolved") {
				return true
			}
		}
	}

	categories := strings.ToLower(doc.Find(".page-header__categories, .page-footer__categories").Text())
	return strings.Contains(categories, "disbanded teams") ||
		strings.Contains(categories, "inactive teams")
}
