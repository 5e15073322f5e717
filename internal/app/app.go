package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rosterpedia/roster-sync/external/leaguepedia"
	"github.com/rosterpedia/roster-sync/internal/config"
	"github.com/rosterpedia/roster-sync/internal/domain/jobscheduler"
	"github.com/rosterpedia/roster-sync/internal/domain/player"
	"github.com/rosterpedia/roster-sync/internal/domain/team"
	"github.com/rosterpedia/roster-sync/internal/domain/teamsource"
	"github.com/rosterpedia/roster-sync/internal/infrastructure/jobqueue"
	cacherepo "github.com/rosterpedia/roster-sync/internal/infrastructure/repository/cache"
	"github.com/rosterpedia/roster-sync/internal/infrastructure/repository/memory"
	"github.com/rosterpedia/roster-sync/internal/infrastructure/repository/postgres"
	"github.com/rosterpedia/roster-sync/internal/interfaces/httpapi"
	basecache "github.com/rosterpedia/roster-sync/internal/platform/cache"
	idgen "github.com/rosterpedia/roster-sync/internal/platform/id"
	"github.com/rosterpedia/roster-sync/internal/platform/logging"
	"github.com/rosterpedia/roster-sync/internal/platform/resilience"
	"github.com/rosterpedia/roster-sync/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

type repositories struct {
	sources  teamsource.Repository
	teams    team.Repository
	players  player.Repository
	dispatch jobscheduler.Repository
}

// NewHTTPServer wires repositories, the wiki client and the sync services
// into a ready-to-run HTTP server. Falls back to seeded in-memory
// repositories when the database is unreachable so local development works
// without Postgres.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, db := buildRepositories(cfg, logger)

	wikiClient := leaguepedia.NewClient(leaguepedia.ClientConfig{
		BaseURL:            cfg.LeaguepediaBaseURL,
		UserAgent:          cfg.LeaguepediaUserAgent,
		MinRequestInterval: cfg.LeaguepediaMinRequestInterval,
		Timeout:            cfg.LeaguepediaTimeout,
		MaxRetries:         cfg.LeaguepediaMaxRetries,
		Logger:             logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.LeaguepediaCircuitEnabled,
			FailureThreshold: cfg.LeaguepediaCircuitFailureCount,
			OpenTimeout:      cfg.LeaguepediaCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.LeaguepediaCircuitHalfOpenMaxReq,
		},
	})
	provider := leaguepedia.NewProvider(wikiClient)

	syncSvc := usecase.NewSyncService(
		provider,
		repos.sources,
		repos.teams,
		repos.players,
		idgen.NewRandomGenerator(),
		usecase.SyncConfig{Timeout: cfg.SyncTimeout},
		logger,
	)

	var queue usecase.JobQueue
	if cfg.QStashEnabled {
		queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
		}, logger)
	} else {
		logger.Info("qstash disabled, fleet sync enqueues are dropped", "reason", "QSTASH_ENABLED=false")
		queue = usecase.NewNoopJobQueue()
	}

	fleetSvc := usecase.NewFleetSyncService(
		repos.sources,
		syncSvc,
		queue,
		repos.dispatch,
		usecase.FleetSyncConfig{
			DedupWindow: cfg.FleetDedupWindow,
			MaxWorkers:  cfg.FleetMaxWorkers,
		},
		logger,
	)

	handler := httpapi.NewHandler(
		syncSvc,
		fleetSvc,
		repos.sources,
		repos.teams,
		repos.players,
		repos.dispatch,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if db != nil {
		server.RegisterOnShutdown(func() { _ = db.Close() })
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB) {
	db, err := connectDB(cfg)
	if err != nil {
		logger.Warn("database unavailable, using in-memory repositories", "error", err)
		return repositories{
			sources:  memory.NewTeamSourceRepository(memory.SeedTeamSources()),
			teams:    memory.NewTeamRepository(nil),
			players:  memory.NewPlayerRepository(nil),
			dispatch: memory.NewJobDispatchRepository(),
		}, nil
	}

	logger.Info("database connected", "db_name", dbNameFromURL(cfg.DBURL))
	repos := repositories{
		sources:  postgres.NewTeamSourceRepository(db),
		teams:    postgres.NewTeamRepository(db),
		players:  postgres.NewPlayerRepository(db),
		dispatch: postgres.NewJobDispatchRepository(db),
	}
	if cfg.CacheTTL > 0 {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.sources = cacherepo.NewTeamSourceRepository(repos.sources, store)
		repos.teams = cacherepo.NewTeamRepository(repos.teams, store)
		repos.players = cacherepo.NewPlayerRepository(repos.players, store)
	}
	return repos, db
}

func connectDB(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
