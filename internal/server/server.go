// Package server exposes the detection engine over HTTP: a JSON analyze
// endpoint, a CSV upload variant, health, and Prometheus metrics.
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ringsight/ringsight/internal/detection"
	"github.com/ringsight/ringsight/internal/ingest"
	pkgerrors "github.com/ringsight/ringsight/pkg/errors"
	"github.com/ringsight/ringsight/pkg/models"
)

// Server represents the HTTP server
type Server struct {
	logger   *zap.Logger
	analyzer *detection.Pool
}

// NewServer creates a new HTTP server around the bounded analyzer pool.
func NewServer(logger *zap.Logger, analyzer *detection.Pool) *Server {
	return &Server{
		logger:   logger,
		analyzer: analyzer,
	}
}

// Router creates a new HTTP router
func (s *Server) Router() *gin.Engine {
	registerValidations()

	router := gin.New()
	router.Use(ginzap.Ginzap(s.logger, "2006-01-02T15:04:05Z07:00", true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.POST("/analyze", s.handleAnalyze)
			v1.POST("/analyze/csv", s.handleAnalyzeCSV)
		}
	}
	return router
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.runAnalysis(c, req.Transactions)
}

func (s *Server) handleAnalyzeCSV(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing multipart field 'file'"})
		return
	}
	defer file.Close()

	txs, err := ingest.ReadBatch(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.runAnalysis(c, txs)
}

func (s *Server) runAnalysis(c *gin.Context, txs []models.Transaction) {
	result, err := s.analyzer.Analyze(c.Request.Context(), txs)
	if err != nil {
		status := http.StatusInternalServerError
		switch pkgerrors.KindOf(err) {
		case pkgerrors.KindInvalidInput, pkgerrors.KindMalformedTimestamp:
			status = http.StatusBadRequest
		}
		s.logger.Error("analysis failed", zap.Error(err), zap.Int("transactions", len(txs)))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
