package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rosterpedia/roster-sync/internal/domain/player"
	"github.com/rosterpedia/roster-sync/internal/domain/team"
	"github.com/rosterpedia/roster-sync/internal/domain/teamsource"
	"github.com/rosterpedia/roster-sync/internal/usecase"
)

type teamSourceDTO struct {
	ID           string     `json:"id"`
	ShortCode    string     `json:"short_code"`
	LongName     string     `json:"long_name"`
	ExternalURL  string     `json:"external_url,omitempty"`
	Enabled      bool       `json:"enabled"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

type teamDTO struct {
	ID           string     `json:"id"`
	SourceID     string     `json:"source_id"`
	Name         string     `json:"name"`
	ShortName    string     `json:"short_name,omitempty"`
	Region       string     `json:"region,omitempty"`
	OrgLocation  string     `json:"org_location,omitempty"`
	LogoURL      string     `json:"logo_url,omitempty"`
	Website      string     `json:"website,omitempty"`
	IsDisbanded  bool       `json:"is_disbanded"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

type playerDTO struct {
	ID           string     `json:"id"`
	TeamID       string     `json:"team_id"`
	IGN          string     `json:"ign"`
	RealName     string     `json:"real_name,omitempty"`
	Country      string     `json:"country,omitempty"`
	Nationality  string     `json:"nationality,omitempty"`
	Age          *int       `json:"age,omitempty"`
	Birthdate    *time.Time `json:"birthdate,omitempty"`
	Role         string     `json:"role,omitempty"`
	DateJoined   *time.Time `json:"date_joined,omitempty"`
	ContractEnds *time.Time `json:"contract_ends,omitempty"`
	IsCurrent    bool       `json:"is_current"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

func teamSourceToDTO(ctx context.Context, s teamsource.TeamSource) teamSourceDTO {
	return teamSourceDTO{
		ID:           s.ID,
		ShortCode:    s.ShortCode,
		LongName:     s.LongName,
		ExternalURL:  s.ExternalURL,
		Enabled:      s.Enabled,
		LastSyncedAt: s.LastSyncedAt,
	}
}

func teamToDTO(ctx context.Context, t team.Team) teamDTO {
	return teamDTO{
		ID:           t.ID,
		SourceID:     t.SourceID,
		Name:         t.Name,
		ShortName:    t.ShortName,
		Region:       t.Region,
		OrgLocation:  t.OrgLocation,
		LogoURL:      t.LogoURL,
		Website:      t.Website,
		IsDisbanded:  t.IsDisbanded,
		LastSyncedAt: t.LastSyncedAt,
	}
}

func playerToDTO(ctx context.Context, p player.Player) playerDTO {
	return playerDTO{
		ID:           p.ID,
		TeamID:       p.TeamID,
		IGN:          p.IGN,
		RealName:     p.RealName,
		Country:      p.Country,
		Nationality:  p.Nationality,
		Age:          p.Age,
		Birthdate:    p.Birthdate,
		Role:         p.Role,
		DateJoined:   p.DateJoined,
		ContractEnds: p.ContractEnds,
		IsCurrent:    p.IsCurrent,
		LastSyncedAt: p.LastSyncedAt,
	}
}

func (h *Handler) ListTeamSources(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamSources")
	defer span.End()

	sources, err := h.sourceRepo.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list team sources failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamSourceDTO, 0, len(sources))
	for _, s := range sources {
		items = append(items, teamSourceToDTO(ctx, s))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.teamRepo.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(ctx, t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetTeamDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamDetails")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	item, found, err := h.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !found {
		writeError(ctx, w, fmt.Errorf("%w: team %q", usecase.ErrNotFound, teamID))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(ctx, item))
}

func (h *Handler) ListTeamPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamPlayers")
	defer span.End()

	h.writeTeamPlayers(ctx, w, r, h.playerRepo.ListCurrentByTeam)
}

func (h *Handler) ListTeamPlayerHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamPlayerHistory")
	defer span.End()

	h.writeTeamPlayers(ctx, w, r, h.playerRepo.ListByTeam)
}

func (h *Handler) writeTeamPlayers(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, teamID string) ([]player.Player, error),
) {
	teamID := strings.TrimSpace(r.PathValue("teamID"))
	_, found, err := h.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !found {
		writeError(ctx, w, fmt.Errorf("%w: team %q", usecase.ErrNotFound, teamID))
		return
	}

	players, err := list(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "list players failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(ctx, p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
