package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rosterpedia/roster-sync/internal/domain/player"
	"github.com/rosterpedia/roster-sync/internal/domain/team"
	"github.com/rosterpedia/roster-sync/internal/domain/teamsource"
	"github.com/rosterpedia/roster-sync/internal/platform/id"
	"github.com/rosterpedia/roster-sync/internal/platform/logging"
	"github.com/rosterpedia/roster-sync/internal/platform/resilience"
)

// RosterProvider fetches team and roster data from the wiki source. A nil
// error with found=false means the page does not exist; a non-nil error
// always means the source was unreachable.
type RosterProvider interface {
	FetchTeam(ctx context.Context, teamName string) (ExternalTeamPage, bool, error)
	FetchRoster(ctx context.Context, teamName string) ([]ExternalPlayerProfile, error)
}

type ExternalTeamPage struct {
	Name        string
	Short       string
	Region      string
	OrgLocation string
	Website     string
	LogoURL     string
	IsDisbanded bool
}

type ExternalPlayerProfile struct {
	IGN          string
	RealName     string
	Country      string
	Nationality  string
	Age          *int
	Birthdate    *time.Time
	Role         string
	DateJoined   *time.Time
	ContractEnds *time.Time
}

// SyncOutcome classifies how one sync invocation ended. Every outcome is a
// normal return; sync never fails the caller with an unhandled error.
type SyncOutcome string

const (
	SyncOutcomeSuccess      SyncOutcome = "success"
	SyncOutcomeNotFound     SyncOutcome = "not_found"
	SyncOutcomeDisbanded    SyncOutcome = "disbanded"
	SyncOutcomeTimedOut     SyncOutcome = "timed_out"
	SyncOutcomeNetworkError SyncOutcome = "network_error"
	SyncOutcomeFailed       SyncOutcome = "failed"
)

type SyncResult struct {
	Outcome      SyncOutcome `json:"outcome"`
	SourceID     string      `json:"source_id,omitempty"`
	TeamID       string      `json:"team_id,omitempty"`
	TeamName     string      `json:"team_name,omitempty"`
	PlayersFound int         `json:"players_found"`
	Created      int         `json:"created"`
	Updated      int         `json:"updated"`
	Retired      int         `json:"retired"`
	Skipped      int         `json:"skipped"`
	Message      string      `json:"message,omitempty"`
}

type SyncConfig struct {
	// Timeout bounds one whole team sync including every player page fetch.
	Timeout time.Duration
}

type SyncService struct {
	provider   RosterProvider
	sourceRepo teamsource.Repository
	teamRepo   team.Repository
	playerRepo player.Repository
	idGen      id.Generator
	cfg        SyncConfig
	logger     *logging.Logger
	flight     resilience.SingleFlight
	now        func() time.Time
}

func NewSyncService(
	provider RosterProvider,
	sourceRepo teamsource.Repository,
	teamRepo team.Repository,
	playerRepo player.Repository,
	idGen id.Generator,
	cfg SyncConfig,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &SyncService{
		provider:   provider,
		sourceRepo: sourceRepo,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		idGen:      idGen,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// SyncTeamSource refreshes the team and roster behind one configured source.
func (s *SyncService) SyncTeamSource(ctx context.Context, sourceID string) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncTeamSource")
	defer span.End()

	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return SyncResult{}, fmt.Errorf("%w: source id is required", ErrInvalidInput)
	}

	source, exists, err := s.sourceRepo.GetByID(ctx, sourceID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("get team source=%s: %w", sourceID, err)
	}
	if !exists {
		return SyncResult{}, fmt.Errorf("%w: team source=%s", ErrNotFound, sourceID)
	}

	return s.syncSource(ctx, source), nil
}

// SyncTeamByName resolves a source by name first, so ad-hoc name triggers
// and source-id triggers share one sync path. An unknown name gets a
// disabled source created on the fly.
func (s *SyncService) SyncTeamByName(ctx context.Context, teamName string) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncTeamByName")
	defer span.End()

	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return SyncResult{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	source, exists, err := s.sourceRepo.GetByName(ctx, teamName)
	if err != nil {
		return SyncResult{}, fmt.Errorf("get team source by name=%s: %w", teamName, err)
	}
	if !exists {
		newID, err := s.idGen.NewID()
		if err != nil {
			return SyncResult{}, fmt.Errorf("generate source id: %w", err)
		}
		source = teamsource.TeamSource{
			ID:        newID,
			ShortCode: teamName,
			LongName:  teamName,
		}
		if err := s.sourceRepo.Upsert(ctx, source); err != nil {
			return SyncResult{}, fmt.Errorf("create team source for name=%s: %w", teamName, err)
		}
	}

	return s.syncSource(ctx, source), nil
}

// syncSource runs the whole fetch-and-reconcile pipeline under the sync
// deadline, collapsing concurrent syncs of the same source into one run.
func (s *SyncService) syncSource(ctx context.Context, source teamsource.TeamSource) SyncResult {
	out, _, _ := s.flight.Do("sync-source:"+source.ID, func() (any, error) {
		return s.doSync(ctx, source), nil
	})
	result, ok := out.(SyncResult)
	if !ok {
		return SyncResult{Outcome: SyncOutcomeFailed, SourceID: source.ID, Message: "unexpected sync result type"}
	}
	return result
}

func (s *SyncService) doSync(parent context.Context, source teamsource.TeamSource) SyncResult {
	ctx, cancel := context.WithTimeout(parent, s.cfg.Timeout)
	defer cancel()

	result := SyncResult{SourceID: source.ID, TeamName: source.PageName()}
	startedAt := s.now()

	page, found, err := s.provider.FetchTeam(ctx, source.PageName())
	if err != nil {
		return s.finishWithFetchError(ctx, result, "team page fetch failed", err)
	}
	if !found {
		s.logger.InfoContext(ctx, "team page not found", "source_id", source.ID, "team", source.PageName())
		result.Outcome = SyncOutcomeNotFound
		return result
	}

	teamRow, err := s.upsertTeam(ctx, source, page)
	if err != nil {
		s.logger.ErrorContext(ctx, "team upsert failed", "source_id", source.ID, "error", err)
		result.Outcome = SyncOutcomeFailed
		result.Message = err.Error()
		return result
	}
	result.TeamID = teamRow.ID
	result.TeamName = teamRow.Name

	if page.IsDisbanded {
		s.logger.InfoContext(ctx, "team is disbanded, roster left as history",
			"source_id", source.ID, "team", teamRow.Name)
		result.Outcome = SyncOutcomeDisbanded
		s.stampSource(ctx, source.ID)
		return result
	}

	profiles, err := s.provider.FetchRoster(ctx, source.PageName())
	if err != nil {
		return s.finishWithFetchError(ctx, result, "roster fetch failed", err)
	}
	result.PlayersFound = len(profiles)

	created, updated, retired, skipped, err := s.reconcile(ctx, teamRow, profiles)
	if err != nil {
		s.logger.ErrorContext(ctx, "roster reconciliation failed",
			"source_id", source.ID, "team", teamRow.Name, "error", err)
		result.Outcome = SyncOutcomeFailed
		result.Message = err.Error()
		return result
	}
	result.Created = created
	result.Updated = updated
	result.Retired = retired
	result.Skipped = skipped
	result.Outcome = SyncOutcomeSuccess

	s.stampSource(ctx, source.ID)
	s.logger.InfoContext(ctx, "team sync finished",
		"source_id", source.ID,
		"team", teamRow.Name,
		"players_found", result.PlayersFound,
		"created", created,
		"updated", updated,
		"retired", retired,
		"skipped", skipped,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)
	return result
}

func (s *SyncService) finishWithFetchError(ctx context.Context, result SyncResult, msg string, err error) SyncResult {
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.WarnContext(ctx, msg+": sync deadline exceeded",
			"source_id", result.SourceID, "team", result.TeamName, "timeout", s.cfg.Timeout)
		result.Outcome = SyncOutcomeTimedOut
		result.Message = err.Error()
		return result
	}
	s.logger.WarnContext(ctx, msg, "source_id", result.SourceID, "team", result.TeamName, "error", err)
	result.Outcome = SyncOutcomeNetworkError
	result.Message = err.Error()
	return result
}

// upsertTeam first-or-creates the team owned by this source and refreshes
// its scraped attributes.
func (s *SyncService) upsertTeam(ctx context.Context, source teamsource.TeamSource, page ExternalTeamPage) (team.Team, error) {
	existing, exists, err := s.teamRepo.GetBySourceID(ctx, source.ID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team by source=%s: %w", source.ID, err)
	}

	now := s.now().UTC()
	row := existing
	if !exists {
		newID, err := s.idGen.NewID()
		if err != nil {
			return team.Team{}, fmt.Errorf("generate team id: %w", err)
		}
		row = team.Team{ID: newID, SourceID: source.ID}
	}

	row.Name = page.Name
	row.ShortName = page.Short
	row.Region = page.Region
	row.OrgLocation = page.OrgLocation
	row.LogoURL = page.LogoURL
	row.Website = page.Website
	row.IsDisbanded = page.IsDisbanded
	row.LastSyncedAt = &now

	if err := row.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("validate team: %w", err)
	}
	if err := s.teamRepo.Upsert(ctx, row); err != nil {
		return team.Team{}, fmt.Errorf("upsert team=%s: %w", row.Name, err)
	}

	return row, nil
}

// reconcile applies the scraped roster to storage: every current player is
// first marked not-current, then each scraped profile is upserted by
// (team, ign) back to current. Players absent from the scrape keep their
// rows as roster history. Running twice with the same input is a no-op for
// membership.
func (s *SyncService) reconcile(ctx context.Context, teamRow team.Team, profiles []ExternalPlayerProfile) (created, updated, retired, skipped int, err error) {
	now := s.now().UTC()

	before, err := s.playerRepo.ListCurrentByTeam(ctx, teamRow.ID)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("list current players team=%s: %w", teamRow.ID, err)
	}
	currentIGNs := make(map[string]struct{}, len(before))
	for _, p := range before {
		currentIGNs[p.IGN] = struct{}{}
	}

	if err := s.playerRepo.MarkAllNotCurrent(ctx, teamRow.ID, now); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("mark players not current team=%s: %w", teamRow.ID, err)
	}

	for _, profile := range profiles {
		if strings.TrimSpace(profile.IGN) == "" {
			skipped++
			continue
		}

		existing, exists, err := s.playerRepo.GetByTeamAndIGN(ctx, teamRow.ID, profile.IGN)
		if err != nil {
			return created, updated, retired, skipped, fmt.Errorf("get player team=%s ign=%s: %w", teamRow.ID, profile.IGN, err)
		}

		row := existing
		if !exists {
			newID, err := s.idGen.NewID()
			if err != nil {
				return created, updated, retired, skipped, fmt.Errorf("generate player id: %w", err)
			}
			row = player.Player{ID: newID, TeamID: teamRow.ID, IGN: profile.IGN}
		}

		row.RealName = profile.RealName
		row.Country = profile.Country
		row.Nationality = profile.Nationality
		row.Age = profile.Age
		row.Birthdate = profile.Birthdate
		row.Role = profile.Role
		row.DateJoined = profile.DateJoined
		row.ContractEnds = profile.ContractEnds
		row.IsCurrent = true
		row.LastSyncedAt = &now

		if err := row.Validate(); err != nil {
			s.logger.WarnContext(ctx, "skipping invalid player row",
				"team", teamRow.Name, "ign", profile.IGN, "error", err)
			skipped++
			continue
		}
		if err := s.playerRepo.Upsert(ctx, row); err != nil {
			return created, updated, retired, skipped, fmt.Errorf("upsert player team=%s ign=%s: %w", teamRow.ID, profile.IGN, err)
		}

		if exists {
			updated++
		} else {
			created++
		}
		delete(currentIGNs, profile.IGN)
	}

	// Whoever was current before and is not in the scrape stays persisted,
	// just no longer current.
	retired = len(currentIGNs)
	return created, updated, retired, skipped, nil
}

func (s *SyncService) stampSource(ctx context.Context, sourceID string) {
	if err := s.sourceRepo.MarkSynced(ctx, sourceID, s.now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "stamp source last synced failed", "source_id", sourceID, "error", err)
	}
}
