package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/mediavault/internal/audit"
	"github.com/abduss/mediavault/internal/auth"
	"github.com/abduss/mediavault/internal/config"
	"github.com/abduss/mediavault/internal/lock"
	"github.com/abduss/mediavault/internal/logger"
	"github.com/abduss/mediavault/internal/media"
	"github.com/abduss/mediavault/internal/quota"
	"github.com/abduss/mediavault/internal/server"
	"github.com/abduss/mediavault/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", false)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer dbPool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatal().Err(err).Msg("connect minio")
	}

	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		log.Fatal().Err(err).Msg("ensure bucket")
	}

	auditRepo := audit.NewRepository(dbPool)
	emitter := audit.NewEmitter(auditRepo, cfg.Audit.QueueSize, cfg.Audit.WriteTimeout, log)
	defer emitter.Close()

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, cfg.Auth)

	mediaRepo := media.NewRepository(dbPool)
	locks := lock.NewStore(dbPool, cfg.Quota.LockStaleAfter)
	ledger := quota.NewLedger(mediaRepo)
	policy := quota.Policy{
		MaxStorageBytes:        cfg.Quota.MaxStorageBytes,
		MaxDailyBandwidthBytes: cfg.Quota.MaxDailyBandwidthBytes,
	}

	mediaStore := media.NewMinIOStore(minioClient)
	mediaService := media.NewService(mediaRepo, mediaStore, locks, ledger, policy, emitter, log, cfg.MinIO.Bucket, cfg.MinIO.StreamURLTTL)

	router := server.NewRouter(server.Dependencies{
		Config:       cfg,
		DB:           dbPool,
		ObjectStore:  minioClient,
		AuthService:  authService,
		MediaService: mediaService,
		Ledger:       ledger,
		AuditRepo:    auditRepo,
		Audit:        emitter,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Address()).Msg("MediaVault API listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
