package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"novelbit/api/handler"
	"novelbit/api/middleware"
	"novelbit/config"
	"novelbit/novelbit"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     RateLimit
//
// ctx bounds background work owned by the middleware.
func NewRouter(ctx context.Context, n *novelbit.Novelbit, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", handler.Health(n, startTime))

	v := r.Group("/api")
	v.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	v.POST("/fingerprint", handler.Fingerprint(n))
	v.POST("/fingerprint/batch", handler.FingerprintBatch(n))

	v.GET("/attributes/all", handler.ListAttributes(n))
	v.GET("/attributes/search", handler.Search(n))
	v.GET("/attributes/verify", handler.Verify(n))
	v.POST("/attributes/delete", handler.DeleteAttribute(n))

	v.GET("/attributes/data", handler.ListData(n))
	v.POST("/attributes/data", handler.SaveData(n))
	v.POST("/attributes/data/delete", handler.DeleteData(n))
	v.POST("/attributes/autosave", handler.Autosave(n))

	v.GET("/stats", handler.Stats(n))

	return r
}
