package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/rosterpedia/roster-sync/internal/domain/jobscheduler"
	"github.com/rosterpedia/roster-sync/internal/usecase"
	"go.opentelemetry.io/otel/trace"
)

var internalJobDispatchUnsafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

type internalJobSyncRequest struct {
	SourceID   string `json:"source_id" validate:"omitempty,max=128"`
	TeamName   string `json:"team_name" validate:"omitempty,max=256"`
	Force      bool   `json:"force"`
	MaxWorkers int    `json:"max_workers" validate:"omitempty,min=1,max=64"`
	DispatchID string `json:"dispatch_id" validate:"omitempty,max=256"`
}

func (req internalJobSyncRequest) sourceKey() string {
	if key := strings.TrimSpace(req.SourceID); key != "" {
		return key
	}
	return strings.TrimSpace(req.TeamName)
}

func (h *Handler) RunSyncTeamSourceJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncTeamSourceJob")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := h.decodeInternalJobSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.SyncTeamSource(ctx, req.SourceID)
	if err != nil {
		h.recordInternalJobDispatch(ctx, req, jobscheduler.DispatchEvent{
			JobName:      "sync-team-source",
			JobPath:      "/v1/internal/jobs/sync-team-source",
			SourceKey:    req.sourceKey(),
			Status:       jobscheduler.StatusFailed,
			Payload:      buildInternalJobPayload(req),
			ErrorMessage: err.Error(),
			OccurredAt:   time.Now().UTC(),
		})
		h.logger.WarnContext(ctx, "run sync team source job failed", "source_id", req.SourceID, "error", err)
		writeError(ctx, w, err)
		return
	}
	h.recordInternalJobDispatch(ctx, req, jobscheduler.DispatchEvent{
		JobName:    "sync-team-source",
		JobPath:    "/v1/internal/jobs/sync-team-source",
		SourceKey:  req.sourceKey(),
		Status:     jobscheduler.StatusCompleted,
		Payload:    buildInternalJobPayload(req),
		OccurredAt: time.Now().UTC(),
	})

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunSyncTeamJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncTeamJob")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := h.decodeInternalJobSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.SyncTeamByName(ctx, req.TeamName)
	if err != nil {
		h.recordInternalJobDispatch(ctx, req, jobscheduler.DispatchEvent{
			JobName:      "sync-team",
			JobPath:      "/v1/internal/jobs/sync-team",
			SourceKey:    req.sourceKey(),
			Status:       jobscheduler.StatusFailed,
			Payload:      buildInternalJobPayload(req),
			ErrorMessage: err.Error(),
			OccurredAt:   time.Now().UTC(),
		})
		h.logger.WarnContext(ctx, "run sync team job failed", "team_name", req.TeamName, "error", err)
		writeError(ctx, w, err)
		return
	}
	h.recordInternalJobDispatch(ctx, req, jobscheduler.DispatchEvent{
		JobName:    "sync-team",
		JobPath:    "/v1/internal/jobs/sync-team",
		SourceKey:  req.sourceKey(),
		Status:     jobscheduler.StatusCompleted,
		Payload:    buildInternalJobPayload(req),
		OccurredAt: time.Now().UTC(),
	})

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunFleetSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFleetSyncJob")
	defer span.End()

	if h.fleetService == nil {
		writeError(ctx, w, fmt.Errorf("%w: fleet sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := h.decodeInternalJobSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.fleetService.RunFleetSync(ctx, usecase.FleetSyncInput{
		Force: req.Force,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run fleet sync job failed", "force", req.Force, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunFleetSyncDirectJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFleetSyncDirectJob")
	defer span.End()

	if h.fleetService == nil {
		writeError(ctx, w, fmt.Errorf("%w: fleet sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := h.decodeInternalJobSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.fleetService.RunFleetSyncDirect(ctx, usecase.FleetSyncInput{
		Force:      req.Force,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run fleet sync direct job failed", "force", req.Force, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) decodeInternalJobSyncRequest(r *http.Request) (internalJobSyncRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req internalJobSyncRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return internalJobSyncRequest{}, nil
		}
		return internalJobSyncRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	if err := h.validateRequest(r.Context(), req); err != nil {
		return internalJobSyncRequest{}, err
	}

	return req, nil
}

func (h *Handler) recordInternalJobDispatch(ctx context.Context, req internalJobSyncRequest, event jobscheduler.DispatchEvent) {
	if h.jobDispatchRepo == nil {
		return
	}

	dispatchID := strings.TrimSpace(req.DispatchID)
	if dispatchID == "" {
		dispatchID = buildManualDispatchID(event.JobName, event.SourceKey, event.OccurredAt)
	}
	event.DispatchID = dispatchID

	traceID, spanID := httpTraceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID

	if err := h.jobDispatchRepo.UpsertEvent(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "record internal job dispatch failed",
			"dispatch_id", event.DispatchID,
			"job_name", event.JobName,
			"status", event.Status,
			"error", err,
		)
	}
}

func buildInternalJobPayload(req internalJobSyncRequest) map[string]any {
	payload := map[string]any{
		"force": req.Force,
	}
	if strings.TrimSpace(req.SourceID) != "" {
		payload["source_id"] = req.SourceID
	}
	if strings.TrimSpace(req.TeamName) != "" {
		payload["team_name"] = req.TeamName
	}
	if strings.TrimSpace(req.DispatchID) != "" {
		payload["dispatch_id"] = req.DispatchID
	}
	return payload
}

func buildManualDispatchID(jobName, sourceKey string, now time.Time) string {
	jobName = sanitizeDispatchPart(jobName)
	sourceKey = sanitizeDispatchPart(sourceKey)
	ts := now.UTC().Format("20060102T150405.000000000Z")
	return "manual-" + jobName + "-" + sourceKey + "-" + ts
}

func sanitizeDispatchPart(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return internalJobDispatchUnsafeRegex.ReplaceAllString(value, "-")
}

func httpTraceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
