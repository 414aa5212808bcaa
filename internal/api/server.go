// Package api serves the radar's scans and per-symbol readouts over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"CryptoRadar/internal/metrics"
	"CryptoRadar/internal/model"
)

// Version is reported by the info endpoint.
const Version = "2.0.0"

const requestIDHeader = "X-Request-ID"

// Scanner produces the market-wide rankings.
type Scanner interface {
	Explosions(ctx context.Context) ([]model.ExplosionScore, error)
	NewListings(ctx context.Context) ([]model.NewListingCandidate, error)
}

// Analyzer produces per-symbol readouts.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (model.Analysis, error)
	Recommend(ctx context.Context, symbol string) (model.TradePlan, error)
}

// Server is the HTTP surface.
type Server struct {
	router   *gin.Engine
	logger   *zap.Logger
	scanner  Scanner
	analyzer Analyzer
	metrics  *metrics.Metrics
}

// NewServer builds the router with logging, recovery, CORS and request ids.
func NewServer(logger *zap.Logger, scanner Scanner, analyzer Analyzer, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(requestID())
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.Default())

	s := &Server{
		router:   router,
		logger:   logger,
		scanner:  scanner,
		analyzer: analyzer,
		metrics:  m,
	}
	s.registerRoutes()
	return s
}

// Router returns the gin engine, for http.Server and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// registerRoutes mounts every route at the root and again under /api.
func (s *Server) registerRoutes() {
	s.router.GET("/", s.info)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	for _, g := range []*gin.RouterGroup{&s.router.RouterGroup, s.router.Group("/api")} {
		g.GET("/health", s.health)
		g.GET("/explosions", s.explosions)
		g.GET("/new-listings", s.newListings)
		g.GET("/analysis/:symbol", s.analysis)
		g.GET("/recommendation/:symbol", s.recommendation)
	}
}

// requestID propagates or assigns an X-Request-ID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "CryptoRadar",
		"message": "Crypto explosion detection and scoring API",
		"version": Version,
		"endpoints": []string{
			"/api/health",
			"/api/explosions",
			"/api/new-listings",
			"/api/analysis/:symbol",
			"/api/recommendation/:symbol",
			"/metrics",
		},
	})
}
