package main

import (
	"context"
	"log"

	"quickpoll/config"
	"quickpoll/internal/events"
	"quickpoll/internal/handler"
	qredis "quickpoll/internal/redis"
	"quickpoll/internal/repository"
	"quickpoll/internal/server"
	"quickpoll/internal/services"
	"quickpoll/internal/storage"
	"quickpoll/internal/websocket"
	"quickpoll/pkg/database"
	"quickpoll/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	logger.SetGlobalLogger(l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.ApplyMigrations(ctx, pool, "migrations"); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redisClient := qredis.NewClient(cfg)
	defer redisClient.Close()

	rateLimitCfg := qredis.DefaultRateLimitConfig()
	if cfg.VoteRateLimit > 0 {
		rateLimitCfg.VoteLimit = cfg.VoteRateLimit
	}
	limiter := qredis.NewRateLimiter(redisClient, rateLimitCfg)

	publisher := events.NewRedisPublisher(redisClient)
	subscriber := events.NewRedisSubscriber(redisClient)

	pollRepo := repository.NewPollRepository(pool)
	voteRepo := repository.NewVoteRepository(pool)
	deviceRepo := repository.NewDeviceRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	authService := services.NewAuthService(userRepo, cfg)
	identityService := services.NewIdentityService(deviceRepo)
	pollService := services.NewPollService(pollRepo, publisher, l)
	voteService := services.NewVoteService(pollRepo, voteRepo, publisher, l)
	exportService := services.NewExportService(voteService)

	var uploadService *services.UploadService
	if cfg.S3Bucket != "" {
		s3Client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
		})
		if err != nil {
			log.Fatalf("Failed to set up object storage: %v", err)
		}
		uploadService = services.NewUploadService(s3Client)
	} else {
		uploadService = services.NewUploadService(nil)
		l.Warnf("S3_BUCKET not set, image uploads disabled")
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	bridge := websocket.NewRedisBridge(subscriber, hub, pollService, voteService, l)
	go func() {
		if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
			l.Errorf("notification bridge stopped: %v", err)
		}
	}()

	handlers := &server.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Device: handler.NewDeviceHandler(identityService),
		Poll:   handler.NewPollHandler(pollService),
		Vote:   handler.NewVoteHandler(voteService, identityService),
		Export: handler.NewExportHandler(exportService, pollService),
		Upload: handler.NewUploadHandler(uploadService),
		WS:     websocket.NewHandler(authService, hub, voteService),
	}

	srv := server.New(cfg, l, pool)
	srv.SetupRoutes(handlers, authService, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
