package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"visionchat/internal/app"
	"visionchat/internal/asset"
	"visionchat/internal/config"
	"visionchat/internal/ratelimit"
	"visionchat/internal/server"
	"visionchat/internal/session"
	"visionchat/internal/util"
	"visionchat/pkg/ai"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	}

	sessions, err := newSessionStore(cfg, redisClient)
	if err != nil {
		fatal("failed to init session store", err)
	}
	assets, err := newAssetStore(cfg)
	if err != nil {
		fatal("failed to init asset store", err)
	}

	gemini, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
	if err != nil {
		fatal("failed to init gemini client", err)
	}

	appCore, err := app.New(app.Config{
		Sessions:    sessions,
		Assets:      assets,
		Describer:   ai.NewGeminiDescriber(gemini, cfg.VisionModel),
		Generator:   ai.NewGeminiGenerator(gemini, cfg.ChatModel),
		CallTimeout: time.Duration(cfg.CallTimeoutSeconds) * time.Second,
	})
	if err != nil {
		fatal("failed to init app", err)
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewFixedWindowLimiter(redisClient, "visionchat:ratelimit", cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			fatal("failed to init rate limiter", err)
		}
	}

	httpServer := server.New(server.Config{
		App:               appCore,
		Assets:            assets,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AllowedExtensions: cfg.AllowedExtensions,
		Limiter:           limiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr,
		"session_backend", cfg.SessionBackend, "asset_backend", cfg.AssetBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func newSessionStore(cfg config.FileConfig, redisClient *redis.Client) (session.Store, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendFile:
		return session.NewFileStore(cfg.SessionFile)
	case config.SessionBackendMemory:
		return session.NewMemoryStore(), nil
	case config.SessionBackendRedis:
		return session.NewRedisStore(redisClient, ""), nil
	case config.SessionBackendPostgres:
		return session.NewGormStore(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func newAssetStore(cfg config.FileConfig) (asset.Store, error) {
	switch cfg.AssetBackend {
	case config.AssetBackendDisk:
		return asset.NewDiskStore(cfg.AssetDir)
	case config.AssetBackendMinio:
		return asset.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		return nil, fmt.Errorf("unknown asset backend %q", cfg.AssetBackend)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
