package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/hostsync/internal/config"
	"github.com/MrSnakeDoc/hostsync/internal/httpserver"
	"github.com/MrSnakeDoc/hostsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostsync/internal/index"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
	"github.com/MrSnakeDoc/hostsync/internal/reconcile"
	"github.com/MrSnakeDoc/hostsync/internal/redis"
	"github.com/MrSnakeDoc/hostsync/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/hostsync/internal/store/redis"
	"github.com/MrSnakeDoc/hostsync/internal/utils"
	"github.com/MrSnakeDoc/hostsync/internal/version"
	"github.com/MrSnakeDoc/hostsync/internal/zabbix"
)

// App is the long running daemon: scheduled passes plus the HTTP surface.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	loop        *scheduler.ReconcileLoop
	watcher     *scheduler.FileWatcher
	gc          *scheduler.GarbageCollector
}

// NewZabbixClient builds the API client from cfg.
func NewZabbixClient(cfg *config.Config, log logger.Logger) (*zabbix.Client, error) {
	return zabbix.New(zabbix.Options{
		URL:               cfg.ZabbixURL,
		User:              cfg.ZabbixUser,
		Password:          cfg.ZabbixPassword,
		Token:             cfg.ZabbixToken,
		Timeout:           cfg.ZabbixTimeout,
		RequestsPerSecond: cfg.ZabbixRPS,
		Insecure:          cfg.ZabbixInsecure,
	}, log)
}

// NewReconciler wires a reconciler against the configured server.
func NewReconciler(cfg *config.Config, log logger.Logger, dryRun bool) (*reconcile.Reconciler, error) {
	client, err := NewZabbixClient(cfg, log)
	if err != nil {
		return nil, err
	}
	groupSync, err := reconcile.ParseGroupSync(cfg.GroupSync)
	if err != nil {
		return nil, err
	}
	return reconcile.New(client, log, reconcile.Options{DryRun: dryRun, GroupSync: groupSync}), nil
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	client, err := NewZabbixClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build api client: %w", err)
	}

	// best effort, every pass contacts the server again
	if v, err := client.Version(ctx); err != nil {
		log.Warn("monitoring server not reachable yet", logger.Error(err))
	} else {
		log.Info("monitoring server reachable", logger.String("api_version", v))
	}
	return build(ctx, cfg, log, client)
}

func build(ctx context.Context, cfg *config.Config, log logger.Logger, api reconcile.API) (*App, error) {
	groupSync, err := reconcile.ParseGroupSync(cfg.GroupSync)
	if err != nil {
		return nil, err
	}
	reconciler := reconcile.New(api, log, reconcile.Options{GroupSync: groupSync})

	memIndex := index.NewMemoryIndex()

	// Redis is optional: without it reports live in memory and there is no
	// pass lock, so only one daemon may run.
	var redisClient *goredis.Client
	var store *redisstore.Store
	if cfg.RedisEnabled() {
		redisClient, err = redis.Connect(ctx, redis.OptionsFromConfig(cfg), log)
		if err != nil {
			return nil, err
		}
		store = redisstore.NewStore(redisClient, cfg.ReportTTL)

		syncer := scheduler.NewReportSyncer(store, memIndex, log)
		if err := syncer.Sync(ctx); err != nil {
			log.Warn("failed to sync reports from redis on startup", logger.Error(err))
		}
	} else {
		log.Info("redis disabled, reports kept in memory only")
	}

	trigger := make(chan struct{}, 1)

	loop := scheduler.NewReconcileLoop(
		cfg.DesiredFile,
		reconciler,
		store,
		memIndex,
		log,
		cfg.Interval,
		cfg.LockTTL,
		trigger,
	)

	var watcher *scheduler.FileWatcher
	if cfg.Watch {
		watcher = scheduler.NewFileWatcher(cfg.DesiredFile, cfg.WatchDebounce, trigger, log)
	}

	gc := scheduler.NewGarbageCollector(store, memIndex, log, cfg.GCInterval, cfg.ReportTTL)

	d := deps.Deps{
		Logger:       log,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		DesiredFile:  cfg.DesiredFile,
		Interval:     cfg.Interval,
		Index:        memIndex,
		Store:        store,
		Trigger:      trigger,
	}

	return &App{
		cfg:         cfg,
		logger:      log,
		server:      httpserver.New(cfg, log, d),
		redisClient: redisClient,
		loop:        loop,
		watcher:     watcher,
		gc:          gc,
	}, nil
}

// Run blocks until ctx is cancelled or the HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("🚀 starting hostsync",
		logger.String("version", version.Version),
		logger.String("commit", version.Commit),
		logger.String("listen", a.cfg.ListenPort),
		logger.String("desired_file", a.cfg.DesiredFile))

	if err := a.loop.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reconcile loop: %w", err)
	}
	a.logger.Info("reconcile loop started", logger.Duration("interval", a.cfg.Interval))

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			// Scheduled passes still converge, only change latency suffers
			a.logger.Warn("desired file watch disabled", logger.Error(err))
			a.watcher = nil
		}
	}

	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("⏳ shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
		defer cancel()
		return a.server.Stop(shutdownCtx)
	})

	err := g.Wait()
	a.shutdown()
	return err
}

func (a *App) shutdown() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.gc.Stop()
	a.loop.Stop()

	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}
	a.logger.Info("✅ hostsync stopped cleanly")
	_ = a.logger.Sync()
}
