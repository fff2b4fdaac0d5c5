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

	"github.com/Mkw68Mkw/fast-chat/internal/cache"
	"github.com/Mkw68Mkw/fast-chat/internal/config"
	"github.com/Mkw68Mkw/fast-chat/internal/domain"
	"github.com/Mkw68Mkw/fast-chat/internal/handler"
	"github.com/Mkw68Mkw/fast-chat/internal/hub"
	"github.com/Mkw68Mkw/fast-chat/internal/producer"
	"github.com/Mkw68Mkw/fast-chat/internal/repository"
	"github.com/Mkw68Mkw/fast-chat/internal/service"
	"github.com/Mkw68Mkw/fast-chat/pkg/database"
	"github.com/Mkw68Mkw/fast-chat/pkg/jwt"
	pkglog "github.com/Mkw68Mkw/fast-chat/pkg/log"
	"github.com/Mkw68Mkw/fast-chat/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := pkglog.L()
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "fast-chat",
	})
	logger := pkglog.L()

	// Database
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.RoomModel{},
		&domain.MessageModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	// Repositories
	userRepo := repository.NewGormUserRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// History cache
	var historyCache cache.HistoryCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisHistoryCache(cache.Config{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Cache.Prefix)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		historyCache = redisCache
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis history cache connected")
	} else {
		historyCache = cache.NewNoopHistoryCache()
	}

	// Event stream
	var messageProducer producer.MessageProducer
	if cfg.Kafka.Enabled {
		kafkaProducer, err := producer.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		defer kafkaProducer.Close()
		messageProducer = kafkaProducer
		logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka producer connected")
	} else {
		messageProducer = producer.NewNoopProducer()
	}

	// Tokens
	tokens, err := jwt.NewManager(cfg.Auth.AccessDuration, cfg.Auth.RefreshDuration, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token manager")
	}

	// Revocation entries outlive the tokens they block; sweep them out
	// periodically so the map stays bounded.
	revocationSweeper := time.NewTicker(time.Hour)
	defer revocationSweeper.Stop()
	go func() {
		for range revocationSweeper.C {
			tokens.CleanupExpiredRevocations()
		}
	}()

	// Services
	accountService := service.NewAccountService(userRepo, tokens)
	roomService := service.NewRoomService(roomRepo)
	historyService := service.NewHistoryService(messageRepo, historyCache, cfg.Cache.TTL)

	registry := hub.NewRegistry()
	broadcaster := hub.NewBroadcaster(registry)
	verifier := service.NewJWTVerifier(tokens)
	chatService := service.NewChatService(registry, broadcaster, verifier, roomRepo, historyService, messageProducer)

	if cfg.Room.SeedDefaults {
		if err := roomService.SeedDefaults(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed default chatrooms")
		}
	}

	// HTTP
	authMiddleware := middleware.NewAuthMiddleware(tokens)
	httpHandler := handler.NewHandler(accountService, roomService, historyService, authMiddleware, cfg.Room)
	wsHandler := handler.NewWSHandler(chatService, cfg.WebSocket)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	httpHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("fast-chat listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("stopped")
}
