package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"novelbit/api/models"
	"novelbit/novelbit"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Health returns a handler for GET /health.
func Health(n *novelbit.Novelbit, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			OK:      true,
			Uptime:  time.Since(startTime).Seconds(),
			Version: Version,
			Storage: n.Storage.Dialect(),
		})
	}
}

// Stats returns a handler for GET /api/stats.
func Stats(n *novelbit.Novelbit) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := n.Stats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.StatsResponse{
			OK:              true,
			Attributes:      s.Attributes,
			Records:         s.Records,
			EmptyAttributes: s.EmptyAttributes,
		})
	}
}
