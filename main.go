package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-parking/internal/api"
	"ms-parking/internal/auth"
	"ms-parking/internal/config"
	"ms-parking/internal/kafka"
	"ms-parking/internal/logger"
	"ms-parking/internal/models"
	"ms-parking/internal/parking"
	"ms-parking/internal/realtime"
	"ms-parking/internal/seed"
	"ms-parking/internal/storage"
	"ms-parking/internal/tickets/qr"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

// loadState opens the database when enabled and returns the working set:
// the stored snapshot if there is one, the seed file otherwise.
func loadState(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage.Store, *models.Snapshot) {
	if !cfg.Database.Enabled {
		log.Warn("DATABASE", "Database disabled, state will not survive a restart")
		snap, err := seed.Load(cfg.Seed.Path, cfg.Auth.BcryptCost)
		if err != nil {
			log.Fatal("SEED", err.Error())
		}
		return nil, snap
	}

	store, err := storage.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect: %v", err))
	}
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}

	snap, ok, err := store.LoadSnapshot(ctx)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to load snapshot: %v", err))
	}
	if ok {
		if err := seed.Normalize(snap); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Stored snapshot is inconsistent: %v", err))
		}
		log.Info("DATABASE", "✅ Restored state from database")
		return store, snap
	}

	snap, err = seed.Load(cfg.Seed.Path, cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatal("SEED", err.Error())
	}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to persist seed: %v", err))
	}
	log.Info("SEED", fmt.Sprintf("✅ Seeded database from %s", cfg.Seed.Path))
	return store, snap
}

func setupSessions(cfg *config.Config, log *logger.Logger) (auth.SessionStore, *redis.Client) {
	if !cfg.Redis.Enabled {
		log.Info("AUTH", "Redis disabled, sessions kept in memory")
		return auth.NewMemorySessionStore(), nil
	}
	client, err := auth.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Warn("AUTH", "Falling back to in-memory sessions")
		return auth.NewMemorySessionStore(), nil
	}
	return auth.NewRedisSessionStore(client), client
}

func setupPublisher(cfg *config.Config, log *logger.Logger) kafka.Publisher {
	if cfg.Kafka.MockMode {
		log.Info("KAFKA", "Mock mode, events are logged instead of published")
		return &kafka.LogPublisher{Logger: log}
	}

	log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers %v", cfg.Kafka.Brokers))
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}
	return kafka.NewProducer(cfg.Kafka.Brokers)
}

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger("parking-api", cfg.Log.Dir)
	defer log.Close()
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))

	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	log.Info("APP", "Starting parking service initialization")

	ctx := context.Background()
	store, snap := loadState(ctx, cfg, log)
	service := parking.NewService(snap)

	hub := realtime.NewHub(service, log)
	service.AddNotifier(hub)

	workers, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	var journal *storage.Journal
	if store != nil {
		journal = storage.NewJournal(store, log, 1024)
		journal.Start(workers)
		service.AddNotifier(journal)
	}

	var (
		publisher kafka.Publisher
		events    *kafka.EventPublisher
	)
	if cfg.Kafka.Enabled {
		publisher = setupPublisher(cfg, log)
		events = kafka.NewEventPublisher(publisher, cfg.Kafka.Topics, log, 1024)
		events.Start(workers)
		service.AddNotifier(events)
		log.Info("KAFKA", "Event publisher attached")
	}

	sessions, redisClient := setupSessions(cfg, log)
	authenticator := auth.NewAuthenticator(service, auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), sessions, log)

	log.Info("HTTP", "Setting up router and middleware")
	router := api.NewRouter(api.RouterConfig{
		BasePath:       cfg.Server.BasePath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Handler: &api.Handler{
			Service: service,
			Auth:    authenticator,
			QR:      qr.NewQRGenerator(cfg.Auth.QRKey),
			Logger:  log,
		},
		WS:  realtime.NewWSHandler(hub, log, cfg.Server.AllowedOrigins),
		SSE: realtime.NewSSEHandler(hub, log),
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Parking service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	}

	stopWorkers()
	if journal != nil {
		journal.Wait()
	}
	if events != nil {
		events.Wait()
		if err := publisher.Close(); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}

	if store != nil {
		saveCtx, cancelSave := context.WithTimeout(ctx, 10*time.Second)
		if err := store.SaveSnapshot(saveCtx, service.Snapshot()); err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to save snapshot: %v", err))
		}
		cancelSave()
		store.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	log.Info("APP", "✅ Parking service shutdown complete")
}
