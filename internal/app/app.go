// Package app wires configuration, storage, services and transport into
// a running process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/heartmarshall/lingocards-backend/internal/adapter/postgres"
	cardrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/card"
	cardstaterepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/cardstate"
	dailycountrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/dailycount"
	deckrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/deck"
	invitationrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/invitation"
	noterepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/note"
	relationshiprepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/relationship"
	revieweventrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/reviewevent"
	sessionrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/session"
	syncmetarepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/syncmeta"
	userrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/user"
	"github.com/heartmarshall/lingocards-backend/internal/config"
	"github.com/heartmarshall/lingocards-backend/internal/service/auth"
	"github.com/heartmarshall/lingocards-backend/internal/service/deck"
	"github.com/heartmarshall/lingocards-backend/internal/service/progress"
	"github.com/heartmarshall/lingocards-backend/internal/service/relationship"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
	"github.com/heartmarshall/lingocards-backend/internal/service/study"
	syncservice "github.com/heartmarshall/lingocards-backend/internal/service/sync"
	"github.com/heartmarshall/lingocards-backend/internal/transport/middleware"
	"github.com/heartmarshall/lingocards-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects
// to the database, wires services and transport, and serves until the
// context is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	users := userrepo.New(pool)
	sessions := sessionrepo.New(pool)
	decks := deckrepo.New(pool)
	notes := noterepo.New(pool)
	cards := cardrepo.New(pool)
	events := revieweventrepo.New(pool)
	states := cardstaterepo.New(pool)
	daily := dailycountrepo.New(pool)
	syncMeta := syncmetarepo.New(pool)
	relationships := relationshiprepo.New(pool)
	invitations := invitationrepo.New(pool)

	defaults := schedulerDefaults(cfg.SRS)

	relationshipSvc := relationship.NewService(
		logger, relationships, invitations, users, txManager,
		cfg.Relationship.InvitationTTL,
	)
	authSvc := auth.NewService(logger, users, sessions, relationshipSvc, cfg.Auth.SessionTTL)
	deckSvc := deck.NewService(logger, decks, notes, txManager)
	syncSvc := syncservice.NewService(
		logger, events, cards, decks, states, daily, syncMeta, txManager, defaults,
	)
	studySvc, err := study.NewService(
		logger, decks, cards, events, states, daily, syncSvc,
		defaults, cfg.Study.DefaultNewCardsPerDay, nil,
	)
	if err != nil {
		return fmt.Errorf("create study service: %w", err)
	}
	progressSvc := progress.NewService(logger, relationshipSvc, studySvc, decks, events, users)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	router := rest.NewRouter(rest.RouterDeps{
		Auth:         rest.NewAuthHandler(authSvc, logger),
		Deck:         rest.NewDeckHandler(deckSvc, logger),
		Study:        rest.NewStudyHandler(studySvc, logger),
		Sync:         rest.NewSyncHandler(syncSvc, logger),
		Relationship: rest.NewRelationshipHandler(relationshipSvc, logger),
		Progress:     rest.NewProgressHandler(progressSvc, logger),
		Admin:        rest.NewAdminHandler(studySvc, logger),
		Health:       rest.NewHealthHandler(pool, BuildVersion()),
		TokenAuth:    middleware.Auth(authSvc),
		Metrics:      httpMetrics,
		Registry:     registry,
		CORS:         cfg.CORS,
		Logger:       logger,
	})

	if cfg.Janitor.Enabled {
		cronJanitor, err := startJanitor(logger, cfg.Janitor.Schedule, authSvc, relationshipSvc)
		if err != nil {
			return fmt.Errorf("start janitor: %w", err)
		}
		defer func() { <-cronJanitor.Stop().Done() }()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// schedulerDefaults builds the server-wide scheduling baseline from
// config. The weight vector is not configurable; decks override it per
// deck instead.
func schedulerDefaults(cfg config.SRSConfig) scheduler.Parameters {
	return scheduler.Parameters{
		W:                scheduler.DefaultWeights,
		RequestRetention: cfg.RequestRetention,
		MaxIntervalDays:  cfg.MaxIntervalDays,
		LearningSteps:    cfg.LearningSteps,
		RelearningSteps:  cfg.RelearningSteps,
	}
}
