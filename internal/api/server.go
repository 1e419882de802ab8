// Package api serves the scan, mint and voice-token endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/logger"
	"ata-reclaim/internal/observability"
	"ata-reclaim/internal/reward"
	"ata-reclaim/internal/scanner"
	"ata-reclaim/internal/storage"
	"ata-reclaim/internal/voice"
)

// WalletScanner lists a wallet's reclaimable token accounts.
type WalletScanner interface {
	Scan(ctx context.Context, wallet string) (*scanner.Result, error)
}

// RewardMinter issues the reward for a verified reclaim.
type RewardMinter interface {
	Mint(ctx context.Context, wallet, reclaimSignature string) (*reward.Result, error)
}

// RoomAuthorizer grants room access to reward holders.
type RoomAuthorizer interface {
	Authorize(ctx context.Context, req voice.Request) (*domain.VoiceGrant, error)
}

// Config holds the server configuration
type Config struct {
	Debug          bool
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
	AllowedOrigins []string // empty allows any origin
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	scanner    WalletScanner
	minter     RewardMinter
	authorizer RoomAuthorizer
	events     storage.ClaimEventStore
	log        *zap.Logger
	now        func() time.Time
	httpServer *http.Server
}

// New creates a new API server. events may be nil, in which case claim
// events are not recorded.
func New(cfg Config, scan WalletScanner, minter RewardMinter, authorizer RoomAuthorizer, events storage.ClaimEventStore, log *zap.Logger) *Server {
	return &Server{
		config:     cfg,
		scanner:    scan,
		minter:     minter,
		authorizer: authorizer,
		events:     events,
		log:        logger.OrNop(log),
		now:        time.Now,
	}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(recovery(s.log))
	router.Use(requestLogger(s.log))
	router.Use(corsPolicy(s.config.AllowedOrigins))

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	apiGroup := router.Group("/api")
	if s.config.RateLimitRPS > 0 {
		apiGroup.Use(rateLimit(newClientLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)))
	}
	apiGroup.POST("/scan", s.scan)
	apiGroup.POST("/mint", s.mint)
	apiGroup.POST("/voice/token", s.voiceToken)

	return router
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info("Starting API server", zap.String("address", s.config.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	return nil
}
