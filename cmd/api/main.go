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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	v1 "delovrukah-chat/cmd/api/router/v1"
	"delovrukah-chat/internal/infrastructure/auth"
	cacheadapter "delovrukah-chat/internal/infrastructure/cache/adapter"
	"delovrukah-chat/internal/infrastructure/database"
	"delovrukah-chat/internal/infrastructure/logging"
	"delovrukah-chat/internal/infrastructure/metrics"
	queueadapter "delovrukah-chat/internal/infrastructure/queue/adapter"
	"delovrukah-chat/internal/infrastructure/realtime"
	"delovrukah-chat/internal/pkg/chat/application/task"
	msgadapter "delovrukah-chat/internal/pkg/chat/persistence/repository/adapter"
	msgport "delovrukah-chat/internal/pkg/chat/persistence/repository/port"
	"delovrukah-chat/internal/pkg/chat/presentation/controller"
	"delovrukah-chat/internal/pkg/order/access"
	orderadapter "delovrukah-chat/internal/pkg/order/persistence/repository/adapter"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	logger, err := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("GIN_MODE") != "release")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database on startup
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := database.NewPoolFromEnv(connectCtx)
	cancel()
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	verifier := auth.NewVerifierFromEnv()
	if os.Getenv("JWT_SECRET") == "" {
		// Verification fails closed without a secret; every connection will
		// be rejected until one is configured.
		logger.Error("JWT_SECRET is not set, all socket connections will be rejected")
	}

	roomRouter := realtime.NewRouter()
	defer roomRouter.Close()

	chatMetrics := metrics.NewChatMetrics()

	orderRepo := orderadapter.NewPgOrderRepository(pool)
	authority := access.NewAuthority(orderRepo)

	var messages msgport.MessageRepository = msgadapter.NewPgMessageRepository(pool)

	deps := controller.SocketDeps{
		Router:   roomRouter,
		Verifier: verifier,
		Messages: messages,
		Access:   authority,
		Metrics:  chatMetrics,
		Log:      logger,
	}

	// Redis is optional: without it the service runs with no history cache,
	// no notification queue and no cross-node relay.
	if os.Getenv("REDIS_URL") != "" {
		redisClient, err := cacheadapter.NewRedisClientFromEnv()
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()

		deps.Messages = msgadapter.NewCachedMessageRepository(messages, cacheadapter.NewRedisAdapter(redisClient))

		queueClient, err := queueadapter.NewAsynqClientFromEnv()
		if err != nil {
			logger.Fatal("failed to build queue client", zap.Error(err))
		}
		defer func() { _ = queueClient.Close() }()
		deps.Queue = queueClient

		queueServer, err := queueadapter.NewAsynqServer(logger)
		if err != nil {
			logger.Fatal("failed to build queue server", zap.Error(err))
		}
		task.RegisterNotifyMessageTask(queueServer, pool, logger)
		go func() {
			if err := queueServer.Run(ctx); err != nil {
				logger.Error("queue server stopped", zap.Error(err))
			}
		}()

		if os.Getenv("CHAT_RELAY_ENABLED") == "1" {
			relay := realtime.NewRelay(redisClient, roomRouter, logger)
			deps.Relay = relay
			go func() {
				if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("broadcast relay stopped", zap.Error(err))
				}
			}()
		}
	} else {
		logger.Warn("REDIS_URL not set, running without cache, queue and relay")
	}

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1.RegisterRoutes(r, deps)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		logger.Info("api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
}
