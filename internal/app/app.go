package app

import (
	"context"
	"database/sql"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"carburapp/internal/config"
	"carburapp/internal/db"
	httpserver "carburapp/internal/http"
	"carburapp/internal/http/handlers"
	"carburapp/internal/http/middleware"
	"carburapp/internal/mail"
	"carburapp/internal/password"
	"carburapp/internal/places"
	"carburapp/internal/redis"
	"carburapp/internal/repository"
	"carburapp/internal/service"
	"carburapp/internal/ws"
)

// App wires the application graph.
type App struct {
	server      *httpserver.Server
	hub         *ws.Hub
	rateLimiter *middleware.RateLimiter
	pool        *sql.DB
	cache       *goredis.Client
	logger      *zap.Logger
}

// New constructs the application.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := db.NewPostgresDB(cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}

	cache, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		pool.Close()
		return nil, err
	}

	priceRepo := repository.NewPriceRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	hub := ws.NewHub(0, 0)
	wsServer := ws.NewServer(hub, logger)

	searchCache := places.NewRedisCache(cache, cfg.PlacesCacheTTL())
	placesClient := places.NewClient(
		cfg.Places.BaseURL,
		cfg.Places.APIKey,
		cfg.Places.Language,
		cfg.Places.RadiusMeters,
		places.NewDefaultHTTPClient(cfg.PlacesTimeout()),
	)
	placesService := places.NewService(placesClient, searchCache, logger)

	priceService := service.NewPriceService(priceRepo, hub, searchCache, logger)
	gamification := service.NewGamificationService(userRepo)

	tokenService := service.NewTokenService(cfg.JWT.Secret, cfg.JWTExpiry())
	hasher := password.NewBcryptHasher(0)
	mailer := mail.NewSMTPMailer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.FromName,
		cfg.SMTP.FromEmail,
	)
	codeStore := mail.NewCodeStore(cache)
	authService := service.NewAuthService(userRepo, hasher, tokenService, codeStore, mailer, mail.NewCode, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandlers:        handlers.NewAuthHandlers(authService, logger),
		StationsHandlers:    handlers.NewStationsHandlers(placesService, priceService, logger),
		PricesHandlers:      handlers.NewPricesHandlers(priceService, logger),
		LeaderboardHandlers: handlers.NewLeaderboardHandlers(gamification, logger),
		PriceFeedHandler:    wsServer.HandleWS,
		HealthHandler:       handlers.NewHealthHandler(),
		RateLimiter:         rateLimiter,
	}, middleware.AuthMiddleware(cfg.JWT.Secret))

	server := httpserver.NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		middleware.RecoveryMiddleware(logger),
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(logger),
	)

	return &App{
		server:      server,
		hub:         hub,
		rateLimiter: rateLimiter,
		pool:        pool,
		cache:       cache,
		logger:      logger,
	}, nil
}

// Run starts serving HTTP traffic plus the background loops.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Start(ctx)
	go a.rateLimiter.StartCleanup(ctx.Done(), 0)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.pool != nil {
		_ = a.pool.Close()
	}
}
