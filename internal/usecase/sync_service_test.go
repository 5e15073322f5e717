package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rosterpedia/roster-sync/internal/domain/player"
	"github.com/rosterpedia/roster-sync/internal/domain/team"
	"github.com/rosterpedia/roster-sync/internal/domain/teamsource"
)

func newSyncFixture(provider RosterProvider) (*SyncService, *stubSourceRepo, *stubTeamRepo, *stubPlayerRepo) {
	sourceRepo := &stubSourceRepo{sources: map[string]teamsource.TeamSource{
		"src-1": {ID: "src-1", ShortCode: "T1", LongName: "T1", Enabled: true},
	}}
	teamRepo := &stubTeamRepo{teams: map[string]team.Team{}}
	playerRepo := &stubPlayerRepo{players: map[string]player.Player{}}

	svc := NewSyncService(provider, sourceRepo, teamRepo, playerRepo, &seqIDGen{}, SyncConfig{}, nil)
	svc.now = func() time.Time {
		return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc, sourceRepo, teamRepo, playerRepo
}

func TestSyncTeamSource_ReconciliationIsIdempotent(t *testing.T) {
	t.Parallel()

	provider := &stubRosterProvider{
		page: ExternalTeamPage{Name: "T1", Short: "T1", Region: "KR"},
		roster: []ExternalPlayerProfile{
			{IGN: "Faker", Role: "Mid"},
			{IGN: "Keria", Role: "Support"},
		},
	}
	svc, _, _, playerRepo := newSyncFixture(provider)

	first, err := svc.SyncTeamSource(context.Background(), "src-1")
	if err != nil {
		t.Fatalf("first sync error: %v", err)
	}
	if first.Outcome != SyncOutcomeSuccess {
		t.Fatalf("first sync outcome=%s, want success", first.Outcome)
	}
	if first.Created != 2 || first.Updated != 0 || first.Retired != 0 {
		t.Fatalf("first sync counts: %+v", first)
	}

	second, err := svc.SyncTeamSource(context.Background(), "src-1")
	if err != nil {
		t.Fatalf("second sync error: %v", err)
	}
	if second.Created != 0 || second.Updated != 2 || second.Retired != 0 {
		t.Fatalf("second sync should only update: %+v", second)
	}

	if len(playerRepo.players) != 2 {
		t.Fatalf("expected 2 player rows after two syncs, got %d", len(playerRepo.players))
	}
	for _, p := range playerRepo.players {
		if !p.IsCurrent {
			t.Fatalf("player %s should be current after resync", p.IGN)
		}
	}
}

func TestSyncTeamSource_AbsentPlayersBecomeHistory(t *testing.T) {
	t.Parallel()

	provider := &stubRosterProvider{
		page:   ExternalTeamPage{Name: "T1", Short: "T1"},
		roster: []ExternalPlayerProfile{{IGN: "Faker", Role: "Mid"}, {IGN: "Zeus", Role: "Top"}},
	}
	svc, _, _, playerRepo := newSyncFixture(provider)

	if _, err := svc.SyncTeamSource(context.Background(), "src-1"); err != nil {
		t.Fatalf("initial sync error: %v", err)
	}

	// Zeus leaves the roster.
	provider.roster = []ExternalPlayerProfile{{IGN: "Faker", Role: "Mid"}}
	result, err := svc.SyncTeamSource(context.Background(), "src-1")
	if err != nil {
		t.Fatalf("second sync error: %v", err)
	}
	if result.Retired != 1 {
		t.Fatalf("retired=%d, want 1: %+v", result.Retired, result)
	}

	var zeus *player.Player
	for _, p := range playerRepo.players {
		if p.IGN == "Zeus" {
			row := p
			zeus = &row
		}
	}
	if zeus == nil {
		t.Fatal("departed player row must be kept as history")
	}
	if zeus.IsCurrent {
		t.Fatal("departed player must no longer be current")
	}
}

func TestSyncTeamSource_Outcomes(t *testing.T) {
	t.Parallel()

	t.Run("team page missing", func(t *testing.T) {
		t.Parallel()
		svc, _, _, _ := newSyncFixture(&stubRosterProvider{teamMissing: true})
		result, err := svc.SyncTeamSource(context.Background(), "src-1")
		if err != nil {
			t.Fatalf("sync error: %v", err)
		}
		if result.Outcome != SyncOutcomeNotFound {
			t.Fatalf("outcome=%s, want not_found", result.Outcome)
		}
	})

	t.Run("disbanded team keeps roster untouched", func(t *testing.T) {
		t.Parallel()
		provider := &stubRosterProvider{
			page:   ExternalTeamPage{Name: "Gone Gaming", Short: "GG", IsDisbanded: true},
			roster: []ExternalPlayerProfile{{IGN: "Someone"}},
		}
		svc, _, teamRepo, playerRepo := newSyncFixture(provider)
		result, err := svc.SyncTeamSource(context.Background(), "src-1")
		if err != nil {
			t.Fatalf("sync error: %v", err)
		}
		if result.Outcome != SyncOutcomeDisbanded {
			t.Fatalf("outcome=%s, want disbanded", result.Outcome)
		}
		if len(playerRepo.players) != 0 {
			t.Fatal("disbanded sync must not touch player rows")
		}
		stored, _, _ := teamRepo.GetBySourceID(context.Background(), "src-1")
		if !stored.IsDisbanded {
			t.Fatal("team row should be stored with the disbanded flag")
		}
	})

	t.Run("unreachable source", func(t *testing.T) {
		t.Parallel()
		svc, _, _, _ := newSyncFixture(&stubRosterProvider{teamErr: fmt.Errorf("connection refused")})
		result, err := svc.SyncTeamSource(context.Background(), "src-1")
		if err != nil {
			t.Fatalf("sync error: %v", err)
		}
		if result.Outcome != SyncOutcomeNetworkError {
			t.Fatalf("outcome=%s, want network_error", result.Outcome)
		}
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		t.Parallel()
		svc, _, _, _ := newSyncFixture(&stubRosterProvider{
			page:      ExternalTeamPage{Name: "T1", Short: "T1"},
			rosterErr: fmt.Errorf("fetch roster: %w", context.DeadlineExceeded),
		})
		result, err := svc.SyncTeamSource(context.Background(), "src-1")
		if err != nil {
			t.Fatalf("sync error: %v", err)
		}
		if result.Outcome != SyncOutcomeTimedOut {
			t.Fatalf("outcome=%s, want timed_out", result.Outcome)
		}
	})
}

func TestSyncTeamByName_CreatesSourceForUnknownName(t *testing.T) {
	t.Parallel()

	provider := &stubRosterProvider{
		page:   ExternalTeamPage{Name: "Gen.G", Short: "GEN"},
		roster: []ExternalPlayerProfile{{IGN: "Chovy", Role: "Mid"}},
	}
	svc, sourceRepo, _, _ := newSyncFixture(provider)

	result, err := svc.SyncTeamByName(context.Background(), "Gen.G")
	if err != nil {
		t.Fatalf("sync by name error: %v", err)
	}
	if result.Outcome != SyncOutcomeSuccess {
		t.Fatalf("outcome=%s, want success", result.Outcome)
	}

	if _, exists, _ := sourceRepo.GetByName(context.Background(), "Gen.G"); !exists {
		t.Fatal("sync by unknown name should create a team source")
	}
}

func TestSyncTeamSource_StampsLastSyncedAt(t *testing.T) {
	t.Parallel()

	provider := &stubRosterProvider{page: ExternalTeamPage{Name: "T1", Short: "T1"}}
	svc, sourceRepo, teamRepo, _ := newSyncFixture(provider)

	if _, err := svc.SyncTeamSource(context.Background(), "src-1"); err != nil {
		t.Fatalf("sync error: %v", err)
	}

	source, _, _ := sourceRepo.GetByID(context.Background(), "src-1")
	if source.LastSyncedAt == nil {
		t.Fatal("source LastSyncedAt should be stamped")
	}
	stored, _, _ := teamRepo.GetBySourceID(context.Background(), "src-1")
	if stored.LastSyncedAt == nil {
		t.Fatal("team LastSyncedAt should be stamped")
	}
}

// --- stubs ---

type stubRosterProvider struct {
	page        ExternalTeamPage
	roster      []ExternalPlayerProfile
	teamMissing bool
	teamErr     error
	rosterErr   error
}

func (s *stubRosterProvider) FetchTeam(_ context.Context, _ string) (ExternalTeamPage, bool, error) {
	if s.teamErr != nil {
		return ExternalTeamPage{}, false, s.teamErr
	}
	if s.teamMissing {
		return ExternalTeamPage{}, false, nil
	}
	return s.page, true, nil
}

func (s *stubRosterProvider) FetchRoster(_ context.Context, _ string) ([]ExternalPlayerProfile, error) {
	if s.rosterErr != nil {
		return nil, s.rosterErr
	}
	return s.roster, nil
}

type stubSourceRepo struct {
	sources map[string]teamsource.TeamSource
}

func (r *stubSourceRepo) List(_ context.Context) ([]teamsource.TeamSource, error) {
	out := make([]teamsource.TeamSource, 0, len(r.sources))
	for _, s := range r.sources {
		out = append(out, s)
	}
	return out, nil
}

func (r *stubSourceRepo) ListEnabled(ctx context.Context) ([]teamsource.TeamSource, error) {
	all, _ := r.List(ctx)
	out := all[:0]
	for _, s := range all {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubSourceRepo) GetByID(_ context.Context, id string) (teamsource.TeamSource, bool, error) {
	s, ok := r.sources[id]
	return s, ok, nil
}

func (r *stubSourceRepo) GetByName(_ context.Context, name string) (teamsource.TeamSource, bool, error) {
	for _, s := range r.sources {
		if s.ShortCode == name || s.LongName == name {
			return s, true, nil
		}
	}
	return teamsource.TeamSource{}, false, nil
}

func (r *stubSourceRepo) Upsert(_ context.Context, source teamsource.TeamSource) error {
	r.sources[source.ID] = source
	return nil
}

func (r *stubSourceRepo) MarkSynced(_ context.Context, id string, syncedAt time.Time) error {
	s, ok := r.sources[id]
	if !ok {
		return fmt.Errorf("source %s not found", id)
	}
	s.LastSyncedAt = &syncedAt
	r.sources[id] = s
	return nil
}

type stubTeamRepo struct {
	teams map[string]team.Team
}

func (r *stubTeamRepo) List(_ context.Context) ([]team.Team, error) {
	out := make([]team.Team, 0, len(r.teams))
	for _, t := range r.teams {
		out = append(out, t)
	}
	return out, nil
}

func (r *stubTeamRepo) GetByID(_ context.Context, id string) (team.Team, bool, error) {
	t, ok := r.teams[id]
	return t, ok, nil
}

func (r *stubTeamRepo) GetBySourceID(_ context.Context, sourceID string) (team.Team, bool, error) {
	for _, t := range r.teams {
		if t.SourceID == sourceID {
			return t, true, nil
		}
	}
	return team.Team{}, false, nil
}

func (r *stubTeamRepo) Upsert(_ context.Context, t team.Team) error {
	r.teams[t.ID] = t
	return nil
}

type stubPlayerRepo struct {
	players map[string]player.Player
}

func playerKey(teamID, ign string) string { return teamID + "|" + ign }

func (r *stubPlayerRepo) ListByTeam(_ context.Context, teamID string) ([]player.Player, error) {
	var out []player.Player
	for _, p := range r.players {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPlayerRepo) ListCurrentByTeam(ctx context.Context, teamID string) ([]player.Player, error) {
	all, _ := r.ListByTeam(ctx, teamID)
	var out []player.Player
	for _, p := range all {
		if p.IsCurrent {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPlayerRepo) GetByTeamAndIGN(_ context.Context, teamID, ign string) (player.Player, bool, error) {
	p, ok := r.players[playerKey(teamID, ign)]
	return p, ok, nil
}

func (r *stubPlayerRepo) Upsert(_ context.Context, p player.Player) error {
	r.players[playerKey(p.TeamID, p.IGN)] = p
	return nil
}

func (r *stubPlayerRepo) MarkAllNotCurrent(_ context.Context, teamID string, _ time.Time) error {
	for key, p := range r.players {
		if p.TeamID == teamID && p.IsCurrent {
			p.IsCurrent = false
			r.players[key] = p
		}
	}
	return nil
}

type seqIDGen struct {
	n int
}

func (g *seqIDGen) NewID() (string, error) {
	g.n++
	return fmt.Sprintf("id-%d", g.n), nil
}
