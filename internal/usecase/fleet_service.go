package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/rosterpedia/roster-sync/internal/domain/jobscheduler"
	"github.com/rosterpedia/roster-sync/internal/domain/teamsource"
	"github.com/rosterpedia/roster-sync/internal/platform/logging"
)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

// ShouldRunFleetSync decides whether the daily trigger runs a full fleet
// sync. Rosters churn hardest in the off-season window, so November,
// December and January sync every day; the rest of the year only the first
// week of each month.
func ShouldRunFleetSync(today time.Time) bool {
	switch today.Month() {
	case time.November, time.December, time.January:
		return true
	default:
		return today.Day() <= 7
	}
}

type FleetSyncConfig struct {
	// DedupWindow buckets dedup IDs so retried triggers inside one window
	// collapse into a single queued job per source.
	DedupWindow time.Duration
	MaxWorkers  int
	JobPath     string
}

type FleetSyncInput struct {
	// Force runs even on a day the calendar predicate would skip.
	Force bool
	// MaxWorkers overrides the configured pool size for direct runs.
	MaxWorkers int
}

type FleetSyncResult struct {
	Mode             string                `json:"mode"`
	SourceCount      int                   `json:"source_count"`
	QueuedCount      int                   `json:"queued_count"`
	SuccessCount     int                   `json:"success_count"`
	FailedCount      int                   `json:"failed_count"`
	SkippedCalendar  bool                  `json:"skipped_calendar,omitempty"`
	WorkerCount      int                   `json:"worker_count,omitempty"`
	QueuedOperations []string              `json:"queued_operations,omitempty"`
	Tasks            []FleetSyncTaskResult `json:"tasks,omitempty"`
}

type FleetSyncTaskResult struct {
	SourceID   string `json:"source_id"`
	TeamName   string `json:"team_name"`
	Outcome    string `json:"outcome"`
	Players    int    `json:"players"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

type FleetSyncService struct {
	sourceRepo   teamsource.Repository
	syncSvc      *SyncService
	queue        JobQueue
	dispatchRepo jobscheduler.Repository
	cfg          FleetSyncConfig
	logger       *logging.Logger
	now          func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewFleetSyncService(
	sourceRepo teamsource.Repository,
	syncSvc *SyncService,
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	cfg FleetSyncConfig,
	logger *logging.Logger,
) *FleetSyncService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 24 * time.Hour
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.JobPath == "" {
		cfg.JobPath = "/v1/internal/jobs/sync-team-source"
	}

	return &FleetSyncService{
		sourceRepo:   sourceRepo,
		syncSvc:      syncSvc,
		queue:        queue,
		dispatchRepo: dispatchRepo,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// RunFleetSync enqueues one sync job per enabled source, honoring the
// calendar predicate unless forced.
func (s *FleetSyncService) RunFleetSync(ctx context.Context, input FleetSyncInput) (FleetSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FleetSyncService.RunFleetSync")
	defer span.End()

	now := s.now().UTC()
	if !input.Force && !ShouldRunFleetSync(now) {
		s.logger.InfoContext(ctx, "fleet sync skipped by calendar", "date", now.Format("2006-01-02"))
		return FleetSyncResult{Mode: "queued", SkippedCalendar: true}, nil
	}

	sources, err := s.sourceRepo.ListEnabled(ctx)
	if err != nil {
		return FleetSyncResult{}, fmt.Errorf("list enabled team sources: %w", err)
	}

	result := FleetSyncResult{
		Mode:             "queued",
		SourceCount:      len(sources),
		QueuedOperations: make([]string, 0, len(sources)),
	}

	for _, source := range sources {
		if err := s.enqueueSourceSync(ctx, source, now); err != nil {
			return FleetSyncResult{}, err
		}
		result.QueuedCount++
		result.QueuedOperations = append(result.QueuedOperations, "sync-team-source:"+source.ShortCode)
	}

	return result, nil
}

// RunFleetSyncDirect performs the syncs in-process on a worker pool instead
// of queueing, for operator-triggered full refreshes.
func (s *FleetSyncService) RunFleetSyncDirect(ctx context.Context, input FleetSyncInput) (FleetSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FleetSyncService.RunFleetSyncDirect")
	defer span.End()

	if s.syncSvc == nil {
		return FleetSyncResult{}, fmt.Errorf("%w: sync service is not configured", ErrDependencyUnavailable)
	}

	sources, err := s.sourceRepo.ListEnabled(ctx)
	if err != nil {
		return FleetSyncResult{}, fmt.Errorf("list enabled team sources: %w", err)
	}

	workerCount := input.MaxWorkers
	if workerCount <= 0 {
		workerCount = s.cfg.MaxWorkers
	}
	if workerCount > len(sources) && len(sources) > 0 {
		workerCount = len(sources)
	}
	if workerCount <= 0 {
		workerCount = 1
	}

	result := FleetSyncResult{
		Mode:        "direct",
		SourceCount: len(sources),
		WorkerCount: workerCount,
		Tasks:       make([]FleetSyncTaskResult, 0, len(sources)),
	}
	if len(sources) == 0 {
		return result, nil
	}

	var successCount atomic.Int32
	var failedCount atomic.Int32
	rows := make(chan FleetSyncTaskResult, len(sources))

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return FleetSyncResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, source := range sources {
		source := source
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			syncResult, err := s.syncSvc.SyncTeamSource(ctx, source.ID)
			row := FleetSyncTaskResult{
				SourceID:   source.ID,
				TeamName:   source.PageName(),
				DurationMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				row.Outcome = string(SyncOutcomeFailed)
				row.Message = err.Error()
			} else {
				row.Outcome = string(syncResult.Outcome)
				row.Players = syncResult.PlayersFound
				row.Message = syncResult.Message
			}

			if row.Outcome == string(SyncOutcomeSuccess) || row.Outcome == string(SyncOutcomeDisbanded) {
				successCount.Add(1)
			} else {
				failedCount.Add(1)
			}
			rows <- row
		}); err != nil {
			workers.Done()
			return FleetSyncResult{}, fmt.Errorf("submit sync task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for row := range rows {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].TeamName < result.Tasks[j].TeamName
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	return result, nil
}

func (s *FleetSyncService) enqueueSourceSync(ctx context.Context, source teamsource.TeamSource, now time.Time) error {
	dedupID := dedupKey("sync-team-source", source.ShortCode, now, s.cfg.DedupWindow)
	payload := map[string]any{
		"source_id":   source.ID,
		"team_name":   source.PageName(),
		"dispatch_id": dedupID,
	}
	event := jobscheduler.DispatchEvent{
		DispatchID: dedupID,
		JobName:    "sync-team-source",
		JobPath:    s.cfg.JobPath,
		SourceKey:  source.ShortCode,
		Payload:    payload,
		OccurredAt: now.UTC(),
	}

	if err := s.queue.Enqueue(ctx, s.cfg.JobPath, payload, 0, dedupID); err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
		s.recordDispatchEvent(ctx, event)
		return fmt.Errorf("enqueue sync-team-source source=%s: %w", source.ShortCode, err)
	}

	event.Status = jobscheduler.StatusSent
	s.recordDispatchEvent(ctx, event)
	return nil
}

// MarkDispatchCompleted flips a dispatch event after the job landed, so the
// ops view can tell delivered-but-stuck jobs from finished ones.
func (s *FleetSyncService) MarkDispatchCompleted(ctx context.Context, dispatchID, sourceKey string, jobErr error) {
	if strings.TrimSpace(dispatchID) == "" {
		return
	}
	event := jobscheduler.DispatchEvent{
		DispatchID: dispatchID,
		JobName:    "sync-team-source",
		JobPath:    s.cfg.JobPath,
		SourceKey:  sourceKey,
		Status:     jobscheduler.StatusCompleted,
		OccurredAt: s.now().UTC(),
	}
	if jobErr != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = jobErr.Error()
	}
	s.recordDispatchEvent(ctx, event)
}

func (s *FleetSyncService) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}

func dedupKey(prefix, sourceKey string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	prefix = sanitizeDedupSegment(prefix)
	sourceKey = sanitizeDedupSegment(sourceKey)
	return prefix + "-" + sourceKey + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}
