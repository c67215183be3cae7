package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docsift/docsift/internal/middleware"
)

type RouterDeps struct {
	Ask       *AskHandler
	Documents *DocumentHandler
	AskWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	askGroup := api.Group("")
	if deps.AskWindow > 0 {
		askGroup.Use(middleware.RateLimit(deps.AskWindow))
	}
	askGroup.POST("/ask", deps.Ask.Ask)

	api.POST("/documents", deps.Documents.Ingest)
	api.DELETE("/documents/:id", deps.Documents.Delete)
	api.GET("/stats", deps.Documents.Stats)
}
