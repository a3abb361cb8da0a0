package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"ProspectPilot/internal/config"
	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/generators"
	"ProspectPilot/internal/httpapi"
	"ProspectPilot/internal/infrastructure/auth"
	"ProspectPilot/internal/infrastructure/cache"
	"ProspectPilot/internal/infrastructure/feed"
	"ProspectPilot/internal/infrastructure/llm"
	"ProspectPilot/internal/infrastructure/metrics"
	"ProspectPilot/internal/infrastructure/parser"
	"ProspectPilot/internal/infrastructure/people"
	"ProspectPilot/internal/infrastructure/scheduler"
	"ProspectPilot/internal/infrastructure/storage"
	"ProspectPilot/internal/infrastructure/vendor"
	"ProspectPilot/internal/logging"
	"ProspectPilot/internal/ports"
	"ProspectPilot/internal/signals"
	"ProspectPilot/internal/usecase"
)

const sweepInterval = 10 * time.Minute

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sql.DB
	redis      *redis.Client
	auth       *auth.Client
	vendors    ports.VendorSource
	aggregator *usecase.Aggregator
	outreach   *usecase.Outreach
	janitor    *usecase.Janitor
	server     *httpapi.Server
}

// New opens the database and builds every component.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	collector := metrics.New()
	repo := storage.NewPostgresRepository(db)

	authClient := auth.NewClient(
		cfg.Auth.BaseURL,
		cfg.Auth.AnonKey,
		auth.NewCredentialFile(cfg.Auth.CredentialsPath),
		storage.NewPairingStore(db),
		nil,
		baseLogger.With("component", "auth"),
	)

	gateway := llm.NewGateway(cfg.Gateway, baseLogger.With("component", "llm"),
		llm.WithTokenSource(authClient),
		llm.WithUsage(collector),
	)
	gens := generators.New(gateway, baseLogger.With("component", "generators"), collector)

	httpClient := &http.Client{Timeout: 20 * time.Second}
	registry := signals.NewRegistry()
	registry.Register(parser.NewSearchScraper(httpClient, cfg.Signals.SearchURL, cfg.Signals.UserAgent))
	registry.Register(feed.NewStrategy(httpClient, cfg.Signals.FeedURL, cfg.Signals.UserAgent, gens, baseLogger.With("component", "feed")))
	fetcher := signals.NewFetcher(registry, signals.FetcherConfig{
		Engine:         cfg.Signals.Engine,
		NewsMode:       cfg.Signals.NewsMode,
		NewsLimit:      cfg.Signals.NewsLimit,
		FinancialLimit: cfg.Signals.FinancialLimit,
		SearchURL:      cfg.Signals.SearchURL,
	}, collector, baseLogger.With("component", "signals"))

	var (
		resolutions ports.ResolutionCache = cache.NewLRU(cfg.People.CacheSize)
		redisClient *redis.Client
	)
	if cfg.Redis.Address != "" {
		redisClient = cache.NewRedisClient(cfg.Redis)
		shared := cache.NewRedis(redisClient, cfg.Redis.TTL, baseLogger.With("component", "cache.redis"))
		if err := shared.Ping(ctx); err != nil {
			baseLogger.Warn("redis unavailable, using in-process cache only", "error", err)
		} else {
			resolutions = cache.Tiered{Local: resolutions, Shared: shared}
		}
	}
	peers := generators.NewPeerFinder(
		people.NewResolver(nil, cfg.Signals.UserAgent, cfg.People.Cookie),
		resolutions,
		cfg.People.SearchURL,
		cfg.People.Timeout,
		baseLogger.With("component", "peers"),
	)

	cacheGateway := usecase.NewCacheGateway(repo, baseLogger.With("component", "cache"))
	aggregator := usecase.NewAggregator(usecase.AggregatorDeps{
		Signals:    fetcher,
		Generators: gens,
		Cache:      cacheGateway,
		Outcomes:   collector,
		Logger:     baseLogger.With("component", "aggregator"),
	})

	sessions := usecase.NewChatSessions()
	outreach := usecase.NewOutreach(usecase.OutreachDeps{
		Generators: gens,
		Peers:      peers,
		Cache:      cacheGateway,
		Prospects:  repo,
		Emails:     repo,
		Activity:   repo,
		Sessions:   sessions,
		Logger:     baseLogger.With("component", "outreach"),
	})
	janitor := usecase.NewJanitor(scheduler.NewTicker(sweepInterval), sessions, usecase.SessionIdleTimeout,
		baseLogger.With("component", "janitor"))

	vendors := vendor.NewLoader(storage.NewProfileStore(db), vendor.NewRemoteClient(nil), cfg.Vendor.WebhookURL,
		cfg.Vendor.Default, baseLogger.With("component", "vendor"))

	server := httpapi.New(httpapi.Deps{
		Enricher: aggregator,
		Outreach: outreach,
		Pairing:  authClient,
		Vendors:  vendors,
		Metrics:  collector.Handler(),
		Defaults: httpapi.Defaults{
			Model:      cfg.Gateway.Model,
			NewsEngine: cfg.Signals.Engine,
			NewsMode:   cfg.Signals.NewsMode,
			Debug:      baseLogger.Enabled(ctx, slog.LevelDebug),
		},
		Logger: baseLogger.With("component", "http"),
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		db:         db,
		redis:      redisClient,
		auth:       authClient,
		vendors:    vendors,
		aggregator: aggregator,
		outreach:   outreach,
		janitor:    janitor,
		server:     server,
	}, nil
}

// Serve runs the HTTP API and the chat-session janitor until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.janitor.Start(ctx); err != nil {
		return fmt.Errorf("start janitor: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.janitor.Stop(stopCtx); err != nil {
			a.logger.Warn("janitor stop", "error", err)
		}
	}()

	return httpapi.Serve(ctx, a.cfg.Server.Addr, a.server.Handler(),
		a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.logger.With("component", "http"))
}

// Enrich runs one enrichment outside the HTTP transport.
func (a *Application) Enrich(ctx context.Context, profile domain.ProfileSnapshot, refresh bool) (usecase.Result, error) {
	token, err := a.auth.AccessToken(ctx)
	if err != nil {
		return usecase.Result{}, fmt.Errorf("not available: %w", err)
	}
	s := domain.RequestSettings{
		UserID:      a.auth.UserID(),
		AccessToken: token,
		Model:       a.cfg.Gateway.Model,
		Debug:       a.logger.Enabled(ctx, slog.LevelDebug),
		NewsEngine:  a.cfg.Signals.Engine,
		NewsMode:    a.cfg.Signals.NewsMode,
	}
	s.Vendor = a.vendors.Load(ctx, s.UserID)
	return a.aggregator.Enrich(ctx, s, profile, usecase.EnrichOptions{Refresh: refresh}), nil
}

// Pair claims a device pairing code and returns the paired user id.
func (a *Application) Pair(ctx context.Context, code string) (string, error) {
	return a.auth.Pair(ctx, code)
}

// Migrate creates the tables the service uses.
func (a *Application) Migrate(ctx context.Context) error {
	return storage.Migrate(ctx, a.db)
}

// Close releases the database and Redis connections.
func (a *Application) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
