package api

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chxlky/trello-adpiler-sync/internal/metrics"
)

func NewRouter(logger *zap.Logger, h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/trello-webhook", h.TrelloWebhookHandler)
		apiGroup.HEAD("/trello-webhook", h.TrelloWebhookHandler)
		apiGroup.GET("/trello-webhook", h.TrelloWebhookHandler)
		apiGroup.GET("/health", h.HealthCheckHandler)
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}
