package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/b4knamy/online-chat-backend/internal/auth"
	"github.com/b4knamy/online-chat-backend/internal/config"
	"github.com/b4knamy/online-chat-backend/internal/handler"
	"github.com/b4knamy/online-chat-backend/internal/hub"
	"github.com/b4knamy/online-chat-backend/internal/presence"
	"github.com/b4knamy/online-chat-backend/internal/pubsub"
	"github.com/b4knamy/online-chat-backend/internal/repository"
	"github.com/b4knamy/online-chat-backend/internal/service"
	"github.com/b4knamy/online-chat-backend/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	l := log.L()
	l.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat backend")

	// Persistence gateway
	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		l.Fatal().Err(err).Msg("failed to open database")
	}

	store, err := repository.NewGormStore(db)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seedUsers(ctx, store, cfg); err != nil {
		l.Fatal().Err(err).Msg("failed to seed users")
	}

	// Presence store
	presenceStore, err := presence.NewRedisStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect presence store")
	}
	defer presenceStore.Close()

	usernames, err := store.ListUsernames(ctx)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to list users for presence seed")
	}
	if err := presenceStore.Seed(ctx, usernames); err != nil {
		l.Fatal().Err(err).Msg("failed to seed presence store")
	}
	l.Info().Int("users", len(usernames)).Msg("presence store seeded")

	// Broadcast bus
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	bus := pubsub.NewBus(redisClient, cfg.Redis.BroadcastPrefix)

	wsHub := hub.New()
	go wsHub.Run()

	subscriber := pubsub.NewSubscriber(redisClient, cfg.Redis.BroadcastPrefix, wsHub)

	// Services
	gateway := auth.NewGateway(store, cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	roomSvc := service.NewRoomService(store, bus, cfg.Server.OpTimeout)
	chatSvc := service.NewChatService(store, bus, cfg.Server.OpTimeout)
	presenceSvc := service.NewPresenceService(presenceStore, gateway, bus, cfg.Server.OpTimeout)

	// HTTP + WS surface
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handler.NewWSHandler(wsHub, store, roomSvc, chatSvc, presenceSvc, cfg.WebSocket).RegisterRoutes(router)
	handler.NewHTTPHandler(roomSvc, store, gateway, cfg.Server.SystemUser).RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		subscriber.Run(gctx)
		return nil
	})

	g.Go(func() error {
		l.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		l.Info().Msg("shutting down")
	case <-subscriber.Done():
		l.Warn().Msg("broadcast subscriber stopped, shutting down")
	case <-gctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
	}
	cancel()

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("server error")
	}
	l.Info().Msg("stopped")
}

// seedUsers provisions the configured usernames with the shared seed
// password. Existing users are left untouched.
func seedUsers(ctx context.Context, store repository.Store, cfg *config.Config) error {
	if len(cfg.Database.SeedUsers) == 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.Database.SeedPassword)
	if err != nil {
		return err
	}

	for _, username := range cfg.Database.SeedUsers {
		if err := store.EnsureUser(ctx, username, hash); err != nil {
			return fmt.Errorf("failed to provision user %s: %w", username, err)
		}
	}
	return nil
}
