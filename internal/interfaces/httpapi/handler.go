package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rosterpedia/roster-sync/internal/domain/jobscheduler"
	"github.com/rosterpedia/roster-sync/internal/domain/player"
	"github.com/rosterpedia/roster-sync/internal/domain/team"
	"github.com/rosterpedia/roster-sync/internal/domain/teamsource"
	"github.com/rosterpedia/roster-sync/internal/platform/logging"
	"github.com/rosterpedia/roster-sync/internal/usecase"
)

type Handler struct {
	syncService     *usecase.SyncService
	fleetService    *usecase.FleetSyncService
	sourceRepo      teamsource.Repository
	teamRepo        team.Repository
	playerRepo      player.Repository
	jobDispatchRepo jobscheduler.Repository
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(
	syncService *usecase.SyncService,
	fleetService *usecase.FleetSyncService,
	sourceRepo teamsource.Repository,
	teamRepo team.Repository,
	playerRepo player.Repository,
	jobDispatchRepo jobscheduler.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		syncService:     syncService,
		fleetService:    fleetService,
		sourceRepo:      sourceRepo,
		teamRepo:        teamRepo,
		playerRepo:      playerRepo,
		jobDispatchRepo: jobDispatchRepo,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
