package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/tanzim-io/tanzim-sdk/internal/audit"
	"github.com/tanzim-io/tanzim-sdk/internal/server"
	contentpersistence "github.com/tanzim-io/tanzim-sdk/modules/content/infrastructure/persistence"
	contentsvc "github.com/tanzim-io/tanzim-sdk/modules/content/services"
	corepersistence "github.com/tanzim-io/tanzim-sdk/modules/core/infrastructure/persistence"
	coresvc "github.com/tanzim-io/tanzim-sdk/modules/core/services"
	hierarchypersistence "github.com/tanzim-io/tanzim-sdk/modules/hierarchy/infrastructure/persistence"
	hierarchysvc "github.com/tanzim-io/tanzim-sdk/modules/hierarchy/services"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
	"github.com/tanzim-io/tanzim-sdk/pkg/cache"
	"github.com/tanzim-io/tanzim-sdk/pkg/configuration"
	"github.com/tanzim-io/tanzim-sdk/pkg/dbretry"
	"github.com/tanzim-io/tanzim-sdk/pkg/eventbus"
	"github.com/tanzim-io/tanzim-sdk/pkg/health"
)

func migrate(conf *configuration.Configuration) error {
	db, err := sql.Open("pgx", conf.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, conf.MigrationsDir)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrate(conf); err != nil {
		logger.WithError(err).Fatal("migrations failed")
	}

	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		logger.WithError(err).Fatal("failed to create database pool")
	}
	defer pool.Close()

	scopeCache := cache.Disabled()
	if conf.ScopeCache.Enabled {
		scopeCache = cache.New(conf.ScopeCache.TTL, conf.ScopeCache.SweepInterval)
	}

	probe := health.NewProbe(pool, conf.HealthProbeInterval, logger)
	go probe.Run(ctx)

	publisher := eventbus.NewEventPublisher(logger)
	audit.Register(publisher, logger)
	engine := access.NewEngine(logger)

	nodeRepo := hierarchypersistence.NewHierarchyRepository()
	userRepo := corepersistence.NewUserRepository()
	contentRepo := contentpersistence.NewContentRepository()

	deriver := hierarchysvc.NewScopeDeriver(nodeRepo, scopeCache)
	hierarchyService := hierarchysvc.NewHierarchyService(nodeRepo, deriver, engine, publisher, scopeCache)
	userService := coresvc.NewUserService(userRepo, engine, publisher)
	provisioningService := coresvc.NewProvisioningService(userRepo, nodeRepo, deriver, engine, publisher)
	contentService := contentsvc.NewContentService(contentRepo, deriver, engine, publisher)

	retry := dbretry.Policy{
		MaxAttempts:     conf.Retry.MaxAttempts,
		InitialInterval: conf.Retry.InitialInterval,
		MaxInterval:     conf.Retry.MaxInterval,
		Retryable:       dbretry.IsTransient,
	}

	srv := server.New(server.Options{
		Configuration:       conf,
		Logger:              logger,
		Pool:                pool,
		Users:               userRepo,
		Probe:               probe,
		Retry:               retry,
		HierarchyService:    hierarchyService,
		UserService:         userService,
		ProvisioningService: provisioningService,
		ContentService:      contentService,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("server shutdown failed")
		}
	}()

	logger.Infof("listening on %s", conf.SocketAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server stopped")
	}
}
