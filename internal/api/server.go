// Package api serves the read-only status endpoints. It exposes what
// the bot is doing; it never accepts commands.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bitget-trading-bot/internal/events"
	"bitget-trading-bot/internal/feed"
	"bitget-trading-bot/internal/logging"
	"bitget-trading-bot/internal/risk"
	"bitget-trading-bot/internal/slots"
	"bitget-trading-bot/internal/target"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string   `json:"host"`
	Port         int      `json:"port"`
	AllowOrigins []string `json:"allow_origins"`
}

// BotStatus is the aggregate view assembled for /api/status.
type BotStatus struct {
	Feed      feed.Stats               `json:"feed"`
	Risk      risk.State               `json:"risk"`
	Targets   map[string]target.Status `json:"targets"`
	Slots     map[string]int           `json:"slots"`
	StartedAt time.Time                `json:"started_at"`
}

// StatusSource provides the live state the handlers read from.
type StatusSource interface {
	FeedStats() feed.Stats
	RiskState() risk.State
}

// Server represents the HTTP status server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	cfg        ServerConfig

	source    StatusSource
	tracker   *target.Tracker
	ledger    *slots.Ledger
	recorder  *events.Recorder
	startedAt time.Time
	log       zerolog.Logger
}

// NewServer creates the status server and wires its routes.
func NewServer(cfg ServerConfig, source StatusSource, tracker *target.Tracker, ledger *slots.Ledger, recorder *events.Recorder) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:    router,
		cfg:       cfg,
		source:    source,
		tracker:   tracker,
		ledger:    ledger,
		recorder:  recorder,
		startedAt: time.Now(),
		log:       logging.Component("api"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/targets", s.handleTargets)
		api.GET("/slots", s.handleSlots)
		api.GET("/risk", s.handleRisk)
		api.GET("/trades", s.handleTrades)
	}
}

// Start runs the HTTP server until it fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.log.Info().Str("addr", addr).Msg("status server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info().Msg("stopping status server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	stats := s.source.FeedStats()
	status := "healthy"
	code := http.StatusOK
	if !stats.Connected {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"feed":      stats.Connected,
		"uptime":    time.Since(s.startedAt).String(),
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, BotStatus{
		Feed:      s.source.FeedStats(),
		Risk:      s.source.RiskState(),
		Targets:   s.tracker.Snapshot(),
		Slots:     s.ledger.Snapshot(),
		StartedAt: s.startedAt,
	})
}

func (s *Server) handleTargets(c *gin.Context) {
	c.JSON(http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleSlots(c *gin.Context) {
	c.JSON(http.StatusOK, s.ledger.Snapshot())
}

func (s *Server) handleRisk(c *gin.Context) {
	c.JSON(http.StatusOK, s.source.RiskState())
}

func (s *Server) handleTrades(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"trades": s.recorder.Recent()})
}
