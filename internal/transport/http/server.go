package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deadpoets/internal/cache"
	"deadpoets/internal/config"
	"deadpoets/internal/database"
	"deadpoets/internal/handler"
	"deadpoets/internal/queue"
	"deadpoets/internal/redis"
	"deadpoets/internal/repository"
	"deadpoets/internal/service"
	"deadpoets/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Run wires the application together and serves until SIGINT/SIGTERM.
// Any datastore failure during startup is fatal.
func Run() error {
	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Postgres and apply schema migrations
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. Connect to Redis (timeline cache + event stream)
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Println("Connected to redis successfully")

	// 4. Wire repositories, services, and handlers
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	timeline := cache.NewTimelineCache(redisClient.Client)
	publisher := queue.NewPublisher(redisClient.Client)
	consumer := queue.NewConsumer(redisClient.Client)

	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.TokenMaxAge)
	userService := service.NewUserService(userRepo)
	postService := service.NewPostService(postRepo, timeline, publisher)

	authHandler := handler.NewAuthHandler(userService, tokenService)
	postHandler := handler.NewPostHandler(postService)

	router := NewRouter(RouterConfig{
		AuthHandler:  authHandler,
		PostHandler:  postHandler,
		TokenService: tokenService,
	})

	// 5. Start the timeline workers
	manager := worker.NewManager(consumer, worker.NewHandler(timeline), worker.DefaultManagerConfig())
	if err := manager.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}

	// 6. Serve until interrupted
	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server running on http://localhost:%s", cfg.ServerPort)
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		manager.Stop()
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Printf("Received %s, shutting down...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Printf("Server shutdown error: %v", err)
	}

	manager.Stop()

	log.Println("Shutdown complete")
	return nil
}
