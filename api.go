package feedsnap

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/feedsnap/snapshot"
)

// APIServer exposes the pipeline as an HTTP invocation endpoint.
type APIServer struct {
	pipeline *Pipeline
	writer   *snapshot.Writer
	budget   time.Duration
	now      func() time.Time
}

// NewAPIServer creates a new API server. Each invocation is cancelled after
// budget; zero means no cap.
func NewAPIServer(pipeline *Pipeline, writer *snapshot.Writer, budget time.Duration) *APIServer {
	return &APIServer{
		pipeline: pipeline,
		writer:   writer,
		budget:   budget,
		now:      time.Now,
	}
}

// InvokeResponse is the body returned after a successful run.
type InvokeResponse struct {
	Success       bool           `json:"success"`
	Count         int            `json:"count"`
	Categories    map[string]int `json:"categories"`
	Sources       int            `json:"sources"`
	FreshContent  int            `json:"freshContent"`
	FetchDuration int64          `json:"fetchDuration"`
	Timestamp     string         `json:"timestamp"`
	RunID         string         `json:"runId"`
}

// InvokeError is the body returned when a run fails.
type InvokeError struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// SetupRouter configures the Gin router with the invocation and snapshot
// routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/", s.HandleInvoke)
	router.POST("/", s.HandleInvoke)

	api := router.Group("/api/v1")
	api.GET("/refresh", s.HandleInvoke)
	api.POST("/refresh", s.HandleInvoke)
	api.GET("/snapshot", s.HandleGetSnapshot)

	return router
}

// HandleInvoke runs the pipeline once and reports the result.
func (s *APIServer) HandleInvoke(c *gin.Context) {
	ctx := c.Request.Context()
	if s.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}

	result, err := s.pipeline.Run(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, InvokeError{
			Success:   false,
			Error:     err.Error(),
			Timestamp: s.now().UTC().Format(snapshot.TimestampLayout),
		})
		return
	}

	c.JSON(http.StatusOK, NewInvokeResponse(result))
}

// HandleGetSnapshot serves the stored snapshot with the Cache-Control it was
// stored with.
func (s *APIServer) HandleGetSnapshot(c *gin.Context) {
	snap, opts, ok := s.writer.LoadWithOptions(c.Request.Context())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "not_found",
				"message": "No snapshot has been written yet",
			},
		})
		return
	}

	if opts.CacheControl != "" {
		c.Header("Cache-Control", opts.CacheControl)
	}
	c.JSON(http.StatusOK, snap)
}

// NewInvokeResponse summarizes a run for the invocation reply.
func NewInvokeResponse(result *Result) InvokeResponse {
	summary := result.Snapshot.Summary
	return InvokeResponse{
		Success:       true,
		Count:         summary.Total,
		Categories:    summary.CategoryCounts,
		Sources:       len(summary.Sources),
		FreshContent:  summary.FreshContent,
		FetchDuration: summary.FetchDuration,
		Timestamp:     summary.Timestamp,
		RunID:         result.RunID,
	}
}
