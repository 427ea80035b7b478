package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/feedback"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/gin-gonic/gin"
)

// ClassifyRequest is the body of POST /api/v1/classify.
type ClassifyRequest struct {
	Text string `json:"text" binding:"required"`
}

// FeedbackRequest is the body of POST /api/v1/feedback. When Category is empty the
// category is classified from ProductName.
type FeedbackRequest struct {
	OptionKey   string  `json:"option_key" binding:"required"`
	Category    string  `json:"category"`
	ProductName string  `json:"product_name"`
	Predicted   float64 `json:"predicted"`
	Actual      float64 `json:"actual"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "weightbot",
		"version": s.opts.Version,
	})
}

// estimate handles POST /api/v1/estimate.
func (s *Server) estimate(c *gin.Context) {
	var req engine.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	deltas := s.store.Deltas(c.Request.Context())
	out, err := s.pipeline.Run(req, deltas)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to estimate: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, out)
}

// classify handles POST /api/v1/classify.
func (s *Server) classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": s.pipeline.Classifier().Classify(req.Text)})
}

// recordFeedback handles POST /api/v1/feedback.
func (s *Server) recordFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	category := s.pipeline.Classifier().Classify(req.ProductName)
	if name := strings.TrimSpace(req.Category); name != "" {
		parsed, ok := model.ParseCategory(name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category: " + name})
			return
		}
		category = parsed
	}

	entry, err := s.store.RecordFeedback(c.Request.Context(), req.OptionKey, req.Predicted, req.Actual, category)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, entry)
	case errors.Is(err, feedback.ErrInvalidFeedback):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback: " + err.Error()})
	}
}

// listFeedback handles GET /api/v1/feedback.
func (s *Server) listFeedback(c *gin.Context) {
	set := s.store.LoadAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"entries":  set.Sorted(),
		"count":    set.Len(),
		"revision": set.Revision,
	})
}

// deltas handles GET /api/v1/feedback/deltas.
func (s *Server) deltas(c *gin.Context) {
	table := s.store.Deltas(c.Request.Context())
	out := make(map[string]float64, len(table))
	for category, delta := range table {
		out[string(category)] = delta
	}
	c.JSON(http.StatusOK, gin.H{"deltas": out, "max_delta": feedback.MaxDelta})
}
