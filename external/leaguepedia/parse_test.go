package leaguepedia

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func mustParseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture html: %v", err)
	}
	return doc
}

func TestDedupeText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"KRKR", "KR"},
		{"South KoreaSouth Korea", "South Korea"},
		{"KR", "KR"},
		{"KRK", "KRK"},     // odd length, untouched
		{"KRKX", "KRKX"},   // halves differ
		{"aaa", "aaa"},     // partial repetition is not a duplicate
		{"", ""},
	}
	for _, tc := range cases {
		if got := dedupeText(tc.in); got != tc.want {
			t.Fatalf("dedupeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Top Laner", "Top"},
		{"Mid laner", "Mid"},
		{"Midlane", "Mid"},
		{"Support", "Support"},
		{"  Jungle  ", "Jungle"},
		{"Laner", "Laner"}, // stripping everything keeps the original
		{"", ""},
	}
	for _, tc := range cases {
		if got := cleanRole(tc.in); got != tc.want {
			t.Fatalf("cleanRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsNonPlayerPage(t *testing.T) {
	t.Parallel()

	nonPlayers := []string{
		"File:T1_logo.png",
		"Category:LCK_Teams",
		"Special:Search",
		"Template:Roster",
		"user:Someone",
		"Talk:Faker",
		"Help:Editing",
		"Project:About",
	}
	for _, page := range nonPlayers {
		if !isNonPlayerPage(page) {
			t.Fatalf("expected %q to be filtered as non-player", page)
		}
	}

	players := []string{
		"Faker",
		"Keria",
		"Twisted_Fate", // colons only count as namespace separators at a prefix
		":LeadingColon",
	}
	for _, page := range players {
		if isNonPlayerPage(page) {
			t.Fatalf("expected %q to pass the namespace filter", page)
		}
	}
}

func TestExtractInfoboxValue_StrategyPriority(t *testing.T) {
	t.Parallel()

	// Header row layout.
	doc := mustParseHTML(t, `<table class="infobox">
		<tr><th>Country</th><td>South Korea</td></tr>
	</table>`)
	if got := extractInfoboxValue(findInfobox(doc), []string{"Country"}); got != "South Korea" {
		t.Fatalf("header row strategy: got %q", got)
	}

	// Portable infobox data-source layout.
	doc = mustParseHTML(t, `<aside class="portable-infobox">
		<div data-source="country"><div class="pi-data-value">South Korea</div></div>
	</aside>`)
	if got := extractInfoboxValue(findInfobox(doc), []string{"Country"}); got != "South Korea" {
		t.Fatalf("data-source strategy: got %q", got)
	}

	// Label/value sibling layout.
	doc = mustParseHTML(t, `<div class="infobox">
		<div class="infobox-label">Country of Birth</div><div>South Korea</div>
	</div>`)
	if got := extractInfoboxValue(findInfobox(doc), []string{"Country"}); got != "South Korea" {
		t.Fatalf("label pair strategy: got %q", got)
	}

	// Nested markup duplicating the text collapses to a single copy.
	doc = mustParseHTML(t, `<table class="infobox">
		<tr><th>Region</th><td><span>KR</span><span>KR</span></td></tr>
	</table>`)
	if got := extractInfoboxValue(findInfobox(doc), []string{"Region"}); got != "KR" {
		t.Fatalf("duplicated text: got %q", got)
	}

	// First matching label wins over later ones.
	doc = mustParseHTML(t, `<table class="infobox">
		<tr><th>Residency</th><td>Korea</td></tr>
		<tr><th>Country</th><td>Denmark</td></tr>
	</table>`)
	if got := extractInfoboxValue(findInfobox(doc), []string{"Country", "Residency"}); got != "Denmark" {
		t.Fatalf("label priority: got %q", got)
	}
}

func TestLocateRosterTable_PriorityOrder(t *testing.T) {
	t.Parallel()

	// The dedicated current-members class always wins.
	doc := mustParseHTML(t, `
		<span id="Active"></span>
		<table id="wrong"><tr><td>x</td></tr></table>
		<table class="team-members-current" id="right"><tr><td>x</td></tr></table>`)
	if id, _ := locateRosterTable(doc).Attr("id"); id != "right" {
		t.Fatalf("expected team-members-current table, got id=%q", id)
	}

	// Next: first table after the Active section anchor.
	doc = mustParseHTML(t, `
		<h2><span id="Active">Active</span></h2>
		<p>intro</p>
		<table id="roster"><tr><td>x</td></tr></table>
		<table class="team-members-former" id="former"></table>`)
	if id, _ := locateRosterTable(doc).Attr("id"); id != "roster" {
		t.Fatalf("expected table after #Active anchor, got id=%q", id)
	}

	// Last resort: any team-members table.
	doc = mustParseHTML(t, `<table class="team-members-other" id="fallback"></table>`)
	if id, _ := locateRosterTable(doc).Attr("id"); id != "fallback" {
		t.Fatalf("expected team-members fallback table, got id=%q", id)
	}

	if table := locateRosterTable(mustParseHTML(t, `<p>no roster here</p>`)); table != nil {
		t.Fatal("expected nil for a page without a roster table")
	}
}

func TestExtractRosterEntries_FiltersAndDeduplicates(t *testing.T) {
	t.Parallel()

	doc := mustParseHTML(t, `<table class="team-members-current">
		<tr>
			<td class="team-members-player">
				<a href="/wiki/File:Flag_kr.png">flag</a>
				<a href="/wiki/Faker">Faker</a>
			</td>
			<td class="team-members-role">Mid Laner</td>
			<td class="team-members-join-date" data-sort-value="2013-02-06">Feb 2013</td>
			<td class="team-members-contract" data-sort-value="1798675200">2026</td>
		</tr>
		<tr>
			<td class="team-members-player"><a href="/wiki/Faker">Faker again</a></td>
			<td class="team-members-role">Mid</td>
		</tr>
		<tr>
			<td class="team-members-player"><a href="/wiki/Category:Staff">staff link</a></td>
			<td class="team-members-role">Coach</td>
		</tr>
		<tr>
			<td class="team-members-player"><a href="/wiki/Keria">Keria</a></td>
			<td class="team-members-role">Support</td>
			<td class="team-members-join-date">joined 2020-11-25</td>
		</tr>
	</table>`)

	entries := extractRosterEntries(doc)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after filtering, got %d: %+v", len(entries), entries)
	}

	faker := entries[0]
	if faker.PageName != "Faker" || faker.Role != "Mid" {
		t.Fatalf("first entry mismatch: %+v", faker)
	}
	if faker.DateJoined == nil || faker.DateJoined.Format("2006-01-02") != "2013-02-06" {
		t.Fatalf("join date from data-sort-value mismatch: %v", faker.DateJoined)
	}
	if faker.ContractEnds == nil || faker.ContractEnds.Year() != 2026 {
		t.Fatalf("contract end from unix sort value mismatch: %v", faker.ContractEnds)
	}

	keria := entries[1]
	if keria.PageName != "Keria" || keria.Role != "Support" {
		t.Fatalf("second entry mismatch: %+v", keria)
	}
	if keria.DateJoined == nil || keria.DateJoined.Format("2006-01-02") != "2020-11-25" {
		t.Fatalf("join date from display text mismatch: %v", keria.DateJoined)
	}
}

func TestExtractRosterEntries_RoleKeywordFallback(t *testing.T) {
	t.Parallel()

	// No team-members-player cells: rows are selected by role keyword, which
	// drops the coach row.
	doc := mustParseHTML(t, `<table class="team-members-current">
		<tr><td><a href="/wiki/Zeus">Zeus</a></td><td class="team-members-role">Top</td></tr>
		<tr><td><a href="/wiki/KkOma">kkOma</a></td><td class="team-members-role">Head Coach</td></tr>
		<tr><td><a href="/wiki/Oner">Oner</a></td><td class="team-members-role">Jungle</td></tr>
	</table>`)

	entries := extractRosterEntries(doc)
	if len(entries) != 2 {
		t.Fatalf("expected 2 role-matched entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].PageName != "Zeus" || entries[0].Role != "Top" {
		t.Fatalf("first fallback entry mismatch: %+v", entries[0])
	}
	if entries[1].PageName != "Oner" || entries[1].Role != "Jungle" {
		t.Fatalf("second fallback entry mismatch: %+v", entries[1])
	}
}

func TestParseRosterDate(t *testing.T) {
	t.Parallel()

	cell := func(html string) *goquery.Selection {
		return mustParseHTML(t, "<table><tr>"+html+"</tr></table>").Find("td").First()
	}

	if got := parseRosterDate(cell(`<td data-sort-value="1798675200">2026</td>`)); got == nil || !got.Equal(time.Unix(1798675200, 0).UTC()) {
		t.Fatalf("unix sort value: got %v", got)
	}
	if got := parseRosterDate(cell(`<td data-sort-value="November 25, 2020">Nov 2020</td>`)); got == nil || got.Format("2006-01-02") != "2020-11-25" {
		t.Fatalf("date string sort value: got %v", got)
	}
	if got := parseRosterDate(cell(`<td>joined on 2013-02-06 after qualifying</td>`)); got == nil || got.Format("2006-01-02") != "2013-02-06" {
		t.Fatalf("iso date in display text: got %v", got)
	}
	if got := parseRosterDate(cell(`<td>unknown</td>`)); got != nil {
		t.Fatalf("unparseable cell: got %v, want nil", got)
	}
	if got := parseRosterDate(nil); got != nil {
		t.Fatalf("nil cell: got %v, want nil", got)
	}
}

func TestIsDisbanded(t *testing.T) {
	t.Parallel()

	doc := mustParseHTML(t, `<table class="infobox">
		<tr><th>Status</th><td>Disbanded</td></tr>
	</table>`)
	if !isDisbanded(doc) {
		t.Fatal("status field should classify the team as disbanded")
	}

	doc = mustParseHTML(t, `<table class="infobox">
		<tr><th>Name</th><td>Gone Gaming</td></tr>
	</table>
	<div class="page-footer__categories"><a>Teams</a><a>Disbanded Teams</a></div>`)
	if !isDisbanded(doc) {
		t.Fatal("category listing should classify the team as disbanded")
	}

	// Body text never counts, even when it mentions disbanding.
	doc = mustParseHTML(t, `<table class="infobox">
		<tr><th>Status</th><td>Active</td></tr>
	</table>
	<p>Rumors say the team might be disbanded next year. Their inactive
	substitute retired.</p>`)
	if isDisbanded(doc) {
		t.Fatal("free body text must not classify an active team as disbanded")
	}
}

func TestYearsBetween(t *testing.T) {
	t.Parallel()

	birth := time.Date(1996, time.May, 7, 0, 0, 0, 0, time.UTC)

	if got := yearsBetween(birth, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)); got != 27 {
		t.Fatalf("before birthday: got %d, want 27", got)
	}
	if got := yearsBetween(birth, time.Date(2024, time.May, 7, 0, 0, 0, 0, time.UTC)); got != 28 {
		t.Fatalf("on birthday: got %d, want 28", got)
	}
	if got := yearsBetween(birth, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)); got != 28 {
		t.Fatalf("after birthday: got %d, want 28", got)
	}
}
