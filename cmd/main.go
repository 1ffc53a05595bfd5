package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/finapp/auth-service/internal/api/rest/router"
	restServer "github.com/finapp/auth-service/internal/api/rest/server"
	"github.com/finapp/auth-service/internal/config"
	"github.com/finapp/auth-service/internal/logger"
	"github.com/finapp/auth-service/internal/model"
	"github.com/finapp/auth-service/internal/ratelimit"
	"github.com/finapp/auth-service/internal/repository/postgres"
	"github.com/finapp/auth-service/internal/server"
	"github.com/finapp/auth-service/internal/service"
	"github.com/finapp/auth-service/internal/token"

	restctx "github.com/finapp/auth-service/internal/api/rest/context"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	tokenService := service.NewTokenService(tokenManager, refreshTokenRepo, userRepo, cfg.JWT.RefreshTTL, logger)
	authService := service.NewAuth(userRepo, tokenService, logger)
	ctxMgr := restctx.NewManager()

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to redis", "error", err)
		}
		limiter = ratelimit.NewFixedWindow(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	r := router.New(router.Config{
		AuthService:    authService,
		TokenService:   tokenService,
		UserStore:      userRepo,
		ContextManager: ctxMgr,
		DB:             db,
		Limiter:        limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Environment:    cfg.Environment,
		Version:        buildVersion,
		Production:     cfg.IsProduction(),
		Logger:         logger,
	})

	httpServer := restServer.NewRESTServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
