// internal/app/server.go
package app

import (
	"context"
	"fmt"

	"sentinel-service/internal/config"
	"sentinel-service/internal/db"
	sessionHandler "sentinel-service/internal/handlers/session"
	wsHandler "sentinel-service/internal/handlers/websocket"
	"sentinel-service/internal/middleware"
	"sentinel-service/internal/pkg/events"
	"sentinel-service/internal/pkg/fingerprint"
	"sentinel-service/internal/pkg/token"
	"sentinel-service/internal/repository/postgres"
	"sentinel-service/internal/service/geo"
	sessionUsecase "sentinel-service/internal/service/session"
	ws "sentinel-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	pool   *pgxpool.Pool
	cache  *redis.Client
	cancel context.CancelFunc
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.Default()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := postgres.Connect(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool

	// ----- Redis -----
	cache, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.cache = cache

	// ----- Credential codec -----
	codec, err := token.NewCodec(s.cfg.Token)
	if err != nil {
		return fmt.Errorf("failed to build credential codec: %w", err)
	}

	// ----- Geolocation + fingerprinting -----
	resolver := geo.NewCachedResolver(geo.NewHTTPResolver(s.cfg.GeoAPIURL), cache, logger)
	extractor := fingerprint.NewExtractor(resolver, logger)

	// ----- Repositories -----
	sessionRepo := postgres.NewSessionRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)

	// ----- Event hub & sinks -----
	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	sink := events.Multi{events.NewZapSink(logger), hub}

	// ----- Session lifecycle -----
	sessionService := sessionUsecase.NewService(
		sessionRepo, accountRepo, codec, extractor, sink, logger,
		sessionUsecase.Config{
			SessionTTL:   s.cfg.SessionTTL,
			StoreTimeout: s.cfg.StoreTimeout,
		},
	)

	cleaner := sessionUsecase.NewCleaner(sessionService, s.cfg.CleanupInterval, logger)
	go cleaner.Run(ctx)

	// ----- Handlers & routes -----
	authMiddleware := middleware.NewAuthMiddleware(codec, sessionService)

	handlers := &Handlers{
		SessionHandler: sessionHandler.NewSessionHandler(sessionService, logger),
		WSHandler:      wsHandler.NewWebSocketHandler(hub, codec, logger),
		AuthMiddleware: authMiddleware,
	}

	SetupRouter(s.engine, logger, handlers)

	logger.Info("server starting", zap.String("addr", s.cfg.HTTPAddr))
	return s.engine.Run(s.cfg.HTTPAddr)
}

// Shutdown releases the server's resources.
func (s *Server) Shutdown(ctx context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}
