package api

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"phrase-quality-eval/internal/engine"
	"phrase-quality-eval/internal/store"
)

// Config defines server dependencies.
type Config struct {
	Engine         *engine.Engine
	DB             *store.Database
	AllowedOrigins []string
	Weights        engine.Weights
	Thresholds     engine.Thresholds
}

// Server wires HTTP handlers with the decision engine. Handlers only
// marshal input/output and map errors to status codes; no scoring logic
// lives here.
type Server struct {
	engine         *engine.Engine
	db             *store.Database
	allowedOrigins []string
	weights        engine.Weights
	thresholds     engine.Thresholds
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine required")
	}
	return &Server{
		engine:         cfg.Engine,
		db:             cfg.DB,
		allowedOrigins: cfg.AllowedOrigins,
		weights:        cfg.Weights,
		thresholds:     cfg.Thresholds,
	}, nil
}

// Router configures gin routes.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))
	r.Use(requestID())

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)
	r.GET("/api/stats", s.handleStats)

	api := r.Group("/api")
	{
		api.POST("/score", s.handleScore)
		api.POST("/score/batch", s.handleBatchScore)
	}
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{Status: "ok"}
	if s.db != nil {
		if entities, err := s.db.CountEntities(); err == nil {
			resp.Entities = entities
		}
		if ngrams, err := s.db.CountNgrams(); err == nil {
			resp.Ngrams = ngrams
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{
		Weights: map[string]float64{
			"distinctiveness":     s.weights.Distinctiveness,
			"describability":      s.weights.Describability,
			"legacy_heuristics":   s.weights.LegacyHeuristics,
			"cultural_validation": s.weights.CulturalValidation,
		},
		Thresholds: map[string]float64{
			"excellent":  s.thresholds.Excellent,
			"good":       s.thresholds.Good,
			"acceptable": s.thresholds.Acceptable,
			"poor":       s.thresholds.Poor,
		},
		BatchLimit: engine.BatchLimit,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Stats())
}

func (s *Server) handleScore(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.ScorePhrase(c.Request.Context(), req.Phrase)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrEmptyPhrase) || errors.Is(err, engine.ErrInvalidPhrase) {
			status = http.StatusBadRequest
		}
		s.respondError(c, status, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleBatchScore(c *gin.Context) {
	var req BatchScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.BatchScorePhrases(c.Request.Context(), req.Phrases)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrBatchSizeExceeded) {
			status = http.StatusBadRequest
		}
		s.respondError(c, status, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) respondError(c *gin.Context, status int, err error) {
	id, _ := c.Get("request_id")
	requestID, _ := id.(string)
	logrus.WithError(err).WithFields(logrus.Fields{
		"request_id": requestID,
		"path":       c.FullPath(),
		"status":     status,
	}).Warn("request failed")
	c.JSON(status, ErrorResponse{Error: err.Error(), RequestID: requestID})
}
