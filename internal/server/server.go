// Package server hosts the interactive dashboard: a single embedded
// page backed by a JSON API. All pipeline state lives in one
// in-memory session; uploading again or changing the estimator count
// rebuilds everything from scratch.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/trafficlens/trafficlens/internal/config"
	"github.com/trafficlens/trafficlens/pkg/advisor"
	"github.com/trafficlens/trafficlens/pkg/pipeline"
)

// storedFile retains an upload so the pipeline can be re-run when the
// estimator slider changes.
type storedFile struct {
	name string
	data []byte
}

// session is the single interactive session's state.
type session struct {
	id         string
	files      []storedFile
	estimators int
	result     *pipeline.Result
}

// Server is the dashboard HTTP server.
type Server struct {
	router  *gin.Engine
	logger  *zap.Logger
	cfg     *config.Config
	advisor *advisor.Client

	mu      sync.Mutex
	session *session
}

// New builds the server and its routes.
func New(cfg *config.Config, logger *zap.Logger) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	s := &Server{
		router:  router,
		logger:  logger,
		cfg:     cfg,
		advisor: advisor.NewClient(cfg.Advisor, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.index)
	s.router.GET("/healthz", s.health)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/datasets", s.uploadDatasets)
		v1.POST("/retrain", s.retrain)
		v1.GET("/report", s.report)
		v1.POST("/anomalies", s.detectAnomalies)
		v1.POST("/advisory", s.advisory)
	}
}

// Run blocks serving HTTP on the configured address.
func (s *Server) Run() error {
	s.logger.Info("dashboard listening", zap.String("addr", s.cfg.Listen))
	return s.router.Run(s.cfg.Listen)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
