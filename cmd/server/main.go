package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"onestop/internal/audit"
	"onestop/internal/drafting"
	httprouter "onestop/internal/http"
	identityhandler "onestop/internal/identity/handler"
	identitymetrics "onestop/internal/identity/metrics"
	identityservice "onestop/internal/identity/service"
	adminstore "onestop/internal/identity/store/admin"
	citizenstore "onestop/internal/identity/store/citizen"
	"onestop/internal/platform/config"
	"onestop/internal/platform/httpserver"
	"onestop/internal/platform/logger"
	platformmetrics "onestop/internal/platform/metrics"
	platformredis "onestop/internal/platform/redis"
	"onestop/internal/snapshot"
	submissionhandler "onestop/internal/submission/handler"
	submissionmetrics "onestop/internal/submission/metrics"
	submissionservice "onestop/internal/submission/service"
	submissionstore "onestop/internal/submission/store"
	"onestop/internal/token"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// In-memory collections plus the snapshot boundary that persists them.
	admins := adminstore.New()
	citizens := citizenstore.New()
	submissions := submissionstore.New()

	snapStore, closeSnap, err := buildSnapshotStore(cfg, log)
	if err != nil {
		log.Error("snapshot store init failed", "error", err)
		os.Exit(1)
	}
	defer closeSnap()

	manager := snapshot.NewManager(snapStore, admins, citizens, submissions, log)
	if err := manager.Load(ctx); err != nil {
		log.Error("state hydration failed", "error", err)
		os.Exit(1)
	}

	// Audit: kafka when brokers are configured, in-process worker otherwise.
	inbox := make(chan audit.Event, 256)
	var sink audit.Sink = audit.NewChannelSink(inbox)
	worker := audit.NewWorker(audit.NewMemorySink(), inbox)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka audit sink init failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		worker = audit.NewWorker(kafkaSink, inbox)
	}
	auditor := audit.NewPublisher(sink)

	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL)

	identitySvc := identityservice.New(admins, citizens, manager, tokens, auditor, log, identitymetrics.New(), identityservice.ServiceCredentials{
		Username: cfg.ServiceUsername,
		Password: cfg.ServicePassword,
	})
	submissionSvc := submissionservice.New(submissions, manager, auditor, log, submissionmetrics.New())

	var draftClient drafting.Client
	if cfg.DraftingAPIKey != "" {
		draftClient = drafting.NewGeminiClient(cfg.DraftingBaseURL, cfg.DraftingModel, cfg.DraftingAPIKey)
	}
	drafter := drafting.NewDrafter(draftClient, log)

	platformMetrics := platformmetrics.New()
	router := httprouter.NewRouter(
		identityhandler.New(identitySvc, log, tokens),
		submissionhandler.New(submissionSvc, drafter, log, tokens),
		log,
		platformMetrics,
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting onestop portal", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// buildSnapshotStore picks redis when configured, otherwise the local file.
func buildSnapshotStore(cfg config.Config, log *slog.Logger) (snapshot.Store, func(), error) {
	client, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	if client != nil {
		log.Info("snapshot persistence on redis", "key", snapshot.Key)
		return snapshot.NewRedisStore(client.Client), func() { _ = client.Close() }, nil
	}
	log.Info("snapshot persistence on file", "path", cfg.SnapshotFile)
	return snapshot.NewFileStore(cfg.SnapshotFile), func() {}, nil
}
