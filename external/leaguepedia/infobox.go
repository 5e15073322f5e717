package leaguepedia

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// infoboxStrategy tries one structural convention for a labelled value inside
// an info panel. It returns "" when the convention does not match.
type infoboxStrategy func(infobox *goquery.Selection, label string) string

// Ordered by reliability: exact header rows first, portable-infobox
// data-source attributes second, loose label/value div pairs last.
var infoboxStrategies = []infoboxStrategy{
	matchHeaderRow,
	matchDataSource,
	matchLabelPair,
}

func findInfobox(doc *goquery.Document) *goquery.Selection {
	sel := doc.Find(".infobox, .portable-infobox").First()
	if sel.Length() == 0 {
		return nil
	}
	return sel
}

// extractInfoboxValue tries every known infobox layout for each candidate
// label in order and returns the first non-empty hit, cleaned of duplicated
// text nodes.
func extractInfoboxValue(infobox *goquery.Selection, labels []string) string {
	if infobox == nil {
		return ""
	}
	for _, label := range labels {
		for _, strategy := range infoboxStrategies {
			if value := strategy(infobox, label); value != "" {
				return dedupeText(value)
			}
		}
	}
	return ""
}

// matchHeaderRow handles <tr><th>Label</th><td>Value</td></tr> rows where the
// header text equals the label.
func matchHeaderRow(infobox *goquery.Selection, label string) string {
	var value string
	infobox.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		header := strings.TrimSpace(row.Find("th").First().Text())
		if !strings.EqualFold(header, label) {
			return true
		}
		value = strings.TrimSpace(row.Find("td").First().Text())
		return value == ""
	})
	return value
}

// matchDataSource handles portable infoboxes:
// <div data-source="label"><div class="pi-data-value">Value</div></div>.
func matchDataSource(infobox *goquery.Selection, label string) string {
	selector := fmt.Sprintf(`[data-source*=%q]`, normalizeLabel(label))
	item := infobox.Find(selector).First()
	if item.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(item.Find(".pi-data-value, .pi-font").First().Text())
}

// matchLabelPair handles sibling label/value elements, matching the label by
// case-insensitive substring.
func matchLabelPair(infobox *goquery.Selection, label string) string {
	needle := strings.ToLower(label)
	var value string
	infobox.Find(".infobox-label, .pi-data-label").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(strings.TrimSpace(sel.Text())), needle) {
			return true
		}
		value = strings.TrimSpace(sel.Next().Text())
		return value == ""
	})
	return value
}

// extractInfoboxLink returns the href of the first anchor in a matching
// header row, used for fields whose value is the link itself (Website).
func extractInfoboxLink(infobox *goquery.Selection, labels []string) string {
	if infobox == nil {
		return ""
	}
	for _, label := range labels {
		var href string
		infobox.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			header := strings.TrimSpace(row.Find("th").First().Text())
			if !strings.EqualFold(header, label) {
				return true
			}
			href, _ = row.Find("td a").First().Attr("href")
			return href == ""
		})
		if href != "" {
			return href
		}
	}
	return ""
}

// extractInfoboxImage returns the first infobox image URL, upgrading
// protocol-relative sources.
func extractInfoboxImage(infobox *goquery.Selection) string {
	if infobox == nil {
		return ""
	}
	img := infobox.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	src, ok := img.Attr("src")
	if !ok || src == "" {
		src, _ = img.Attr("data-src")
	}
	if src == "" {
		return ""
	}
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	if !strings.HasPrefix(src, "http") {
		return "https:" + src
	}
	return src
}

// dedupeText collapses values whose text nodes were concatenated twice by
// nested markup ("KRKR" -> "KR"). Only an exact first-half/second-half match
// collapses; partial repetition is left alone.
func dedupeText(text string) string {
	if text == "" || len(text)%2 != 0 {
		return text
	}
	half := len(text) / 2
	if text[:half] == text[half:] {
		return text[:half]
	}
	return text
}

// normalizeLabel lowercases and strips spaces to match portable-infobox
// data-source attribute values.
func normalizeLabel(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), " ", "")
}

var roleLanerSuffixRegex = regexp.MustCompile(`(?i)\s*laner?\s*$`)

// cleanRole strips the redundant "Laner" suffix from role labels so "Top
// Laner" and "Top" reconcile to the same role.
func cleanRole(role string) string {
	role = strings.TrimSpace(role)
	if cleaned := strings.TrimSpace(roleLanerSuffixRegex.ReplaceAllString(role, "")); cleaned != "" {
		return cleaned
	}
	return role
}
