package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	v1 "github.com/KJsquare9/chat/cmd/api/router/v1"
	"github.com/KJsquare9/chat/internal/infrastructure/auth"
	cacheAdapter "github.com/KJsquare9/chat/internal/infrastructure/cache/adapter"
	"github.com/KJsquare9/chat/internal/infrastructure/database"
	"github.com/KJsquare9/chat/internal/infrastructure/logging"
	queueAdapter "github.com/KJsquare9/chat/internal/infrastructure/queue/adapter"
	"github.com/KJsquare9/chat/internal/infrastructure/realtime"
	"github.com/KJsquare9/chat/internal/pkg/messaging/application/relay"
	"github.com/KJsquare9/chat/internal/pkg/messaging/application/task"
	repoAdapter "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/adapter"
	pushAdapter "github.com/KJsquare9/chat/internal/pkg/messaging/push/adapter"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	logger, err := logging.NewFromEnv()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		cancel()
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		cancel()
		logger.Fatal("failed to apply schema", zap.Error(err))
	}
	cancel()

	cache, err := cacheAdapter.NewRedisAdapter()
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = cache.Close() }()

	queueClient, err := queueAdapter.NewAsynqClientFromEnv()
	if err != nil {
		logger.Fatal("failed to create queue client", zap.Error(err))
	}
	defer func() { _ = queueClient.Close() }()

	queueServer, err := queueAdapter.NewAsynqServer(logger)
	if err != nil {
		logger.Fatal("failed to create queue server", zap.Error(err))
	}

	verifier, err := auth.NewVerifierFromEnv()
	if err != nil {
		logger.Fatal("failed to configure token verifier", zap.Error(err))
	}

	users := repoAdapter.NewPgUserRepository(pool)
	registry := realtime.NewMemoryRegistry()

	gateway, err := pushAdapter.NewFCMGatewayFromEnv(context.Background(), users, logger)
	if err != nil {
		// Push delivery is best-effort; the relay still runs without it.
		logger.Warn("push gateway unavailable, notifications disabled", zap.Error(err))
	} else {
		task.RegisterPushNotifyTask(queueServer, gateway)
	}

	rly := relay.New(relay.Config{
		Conversations: repoAdapter.NewPgConversationRepository(pool),
		Messages:      repoAdapter.NewPgMessageRepository(pool),
		Users:         users,
		Registry:      registry,
		Queue:         queueClient,
		Cache:         cache,
		Logger:        logger,
	})

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	v1.RegisterRoutes(r, pool, registry, rly, verifier, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	// Worker loop for detached tasks (push dispatch) runs alongside the API.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	go func() {
		if err := queueServer.Run(workerCtx); err != nil {
			logger.Error("queue server stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("server listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	registry.CloseAll(websocket.CloseGoingAway, "server shutting down")
	stopWorker()
}
