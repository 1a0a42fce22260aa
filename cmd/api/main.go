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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hashchat/internal/config"
	"hashchat/internal/db"
	apihttp "hashchat/internal/http"
	"hashchat/internal/metrics"
	"hashchat/internal/relay"
	"hashchat/internal/repository"
	"hashchat/internal/service"
	"hashchat/internal/session"
	"hashchat/internal/transport/ws"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var (
		pool        *pgxpool.Pool
		userRepo    repository.UserRepository
		messageRepo repository.MessageRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err = db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		userRepo = repository.NewPgUserRepository(pool)
		messageRepo = repository.NewPgMessageRepository(pool)
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		userRepo = repository.NewMemoryUserRepository()
		messageRepo = repository.NewMemoryMessageRepository()
	}

	var (
		loginLimiter service.LoginRateLimiter
		tokenStore   service.RefreshTokenStore
		nameCache    service.DisplayNameCache
		redisClient  *redis.Client
	)
	loginLimits := service.LoginLimits{
		Window: time.Duration(cfg.LoginWindowMinutes) * time.Minute,
		Email:  cfg.LoginAttemptsPerWindow,
		IP:     cfg.LoginIPAttemptsPerWindow,
	}
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, loginLimits)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			nameCache = service.NewRedisDisplayNameCache(redisClient, time.Duration(cfg.DisplayNameCacheTTLSeconds)*time.Second)
		}
		cancel()
	}
	if loginLimiter == nil {
		loginLimiter = service.NewLoginRateLimiter(loginLimits)
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	userSvc := service.NewUserService(logger, userRepo, loginLimiter)
	directorySvc := service.NewDirectoryService(logger, userRepo, nameCache)
	historySvc := service.NewHistoryService(messageRepo)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry := session.NewRegistry()
	metrics.RegisterSessionGauge(promReg, registry.Len)

	engine := relay.NewEngine(logger, messageRepo, directorySvc, registry, metrics.NewRelay(promReg))
	wsServer := ws.NewServer(logger, jwtSvc, engine, ws.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		SendRate:       cfg.WSSendRate,
		SendBurst:      cfg.WSSendBurst,
		OutboundBuffer: cfg.WSOutboundBuffer,
	})

	var health apihttp.HealthChecker
	if pool != nil {
		health = func(ctx context.Context) error { return db.Ping(ctx, pool) }
	}
	router := apihttp.NewRouter(logger, apihttp.RouterDeps{
		Users:     apihttp.NewUserHandler(logger, userSvc, jwtSvc),
		Directory: apihttp.NewDirectoryHandler(logger, directorySvc),
		History:   apihttp.NewHistoryHandler(logger, historySvc),
		JWT:       jwtSvc,
		WS:        wsServer,
		Metrics:   promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
		Health:    health,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           apihttp.WithCORS(router, cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := engine.Shutdown(ctxShutdown); err != nil {
		logger.Warn("relay drain incomplete", zap.Error(err))
	}
	wsServer.CloseAll()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}
