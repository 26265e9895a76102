package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ModelChecker reports whether the forecasting model can be served.
type ModelChecker interface {
	Ready() error
}

type HealthHandler struct {
	Models ModelChecker
}

func (h *HealthHandler) Register(r gin.IRouter) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) ready(c *gin.Context) {
	if h.Models == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "model_missing"})
		return
	}
	if err := h.Models.Ready(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "model_missing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
