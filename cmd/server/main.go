package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"

	"go-relay/internal/db"
	"go-relay/internal/gateway"
	"go-relay/internal/relay"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Config & Flags
	addr := flag.String("addr", ":8080", "http service address")
	flag.Parse()

	logger := newLogger()

	// Get Secrets from Environment (Docker)
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		logger.Error("❌ DB_DSN is not set")
		os.Exit(1)
	}

	blobDir := os.Getenv("BLOB_DIR")
	if blobDir == "" {
		blobDir = "./data"
	}
	blobBaseURL := os.Getenv("BLOB_BASE_URL")
	if blobBaseURL == "" {
		blobBaseURL = "http://localhost:8080/blobs"
	}

	// 2. Connect to Database (Platform Layer)
	database, err := db.NewDatabase(dsn)
	if err != nil {
		logger.Error("❌ Failed to connect to DB", "err", err)
		os.Exit(1)
	}
	logger.Info("✅ Connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		logger.Error("❌ Migration failed", "err", err)
		os.Exit(1)
	}
	logger.Info("✅ Database Schema Initialized")

	// 3. Persistence Gateway
	blobs := gateway.NewBlobStore(blobDir, blobBaseURL)
	store := gateway.NewStore(database.Conn, blobs, logger)

	// 4. Relay Core
	registry := relay.NewRegistry()

	// Redis is optional: with REDIS_ADDR set, instances relay targeted
	// events to each other; without it this is a single-instance deployment.
	var forward relay.Forwarder
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logger.Error("❌ Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		logger.Info("✅ Connected to Redis")

		bridge := relay.NewBridge(redisClient, registry, logger)
		go bridge.Run(context.Background())
		forward = bridge
	}

	router := relay.NewRouter(registry, forward, logger)
	server := relay.NewServer(registry, router, store, logger)
	wsHandler := relay.NewHandler(server, logger)

	// 5. Define Routes
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", wsHandler.ServeWs)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/blobs/*", http.StripPrefix("/blobs/", http.FileServer(http.Dir(blobDir))))

	logger.Info("🚀 Server starting", "addr", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		logger.Error("listen failed", "err", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler).With(
		slog.String("service", "go-relay"),
		slog.Int("pid", os.Getpid()),
	)
	slog.SetDefault(logger)
	return logger
}
