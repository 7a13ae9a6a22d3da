package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mockmate/internal/cache"
	"mockmate/internal/config"
	"mockmate/internal/repository"
	"mockmate/internal/service"
	"mockmate/internal/transport/rest"
	"mockmate/internal/transport/ws"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx := context.Background()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal().Err(err).Msg("ping MongoDB")
	}
	log.Info().Msg("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal().Err(err).Msg("ping Redis")
	}
	log.Info().Msg("connected to Redis")

	// Repositories
	subscriptionRepo := repository.NewSubscriptionRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	participantRepo := repository.NewParticipantRepo(db)
	questionRepo := repository.NewQuestionRepo(db)
	answerRepo := repository.NewAnswerRepo(db)
	reportRepo := repository.NewReportRepo(db)

	// Caches
	sessionCache := cache.NewSessionCache(rdb)
	presenceCache := cache.NewPresenceCache(rdb)

	// Broadcast hub
	hub := ws.NewHub(log)

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	quotaSvc := service.NewQuotaService(subscriptionRepo, log)
	registrySvc := service.NewRegistryService(sessionRepo, sessionCache, log)
	presenceSvc := service.NewPresenceService(participantRepo, presenceCache, log)
	turnSvc := service.NewTurnService(questionRepo, answerRepo, log)
	feedbackSvc := service.NewFeedbackService(config.DefaultAIConfig(), log)
	reportSvc := service.NewReportService(sessionRepo, questionRepo, answerRepo, participantRepo, reportRepo, log)

	dispatcher := service.NewDispatcher(4, 1024, log)
	defer dispatcher.Close()

	orchestrator := service.NewOrchestrator(quotaSvc, registrySvc, presenceSvc, turnSvc, feedbackSvc, reportSvc, dispatcher, log)

	// The hub implements service.Broadcaster.
	registrySvc.SetBroadcaster(hub)
	orchestrator.SetBroadcaster(hub)

	wsHandler := ws.NewHandler(hub, authSvc, orchestrator, log)

	container := &rest.Container{
		AuthService:  authSvc,
		Orchestrator: orchestrator,
		Registry:     registrySvc,
		Presence:     presenceSvc,
		Quota:        quotaSvc,
		ReportSvc:    reportSvc,
		WSHandler:    wsHandler,
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: rest.NewRouter(container),
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen and serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	hub.Close()

	log.Info().Msg("server exited")
}
