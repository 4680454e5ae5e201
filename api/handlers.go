package api

import (
	"net/http"

	"github.com/chxlky/trello-adpiler-sync/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// syncActions are the Trello action types that can change a card's labels,
// Client field, name or description.
var syncActions = map[string]bool{
	"createCard":            true,
	"updateCard":            true,
	"addLabelToCard":        true,
	"removeLabelFromCard":   true,
	"updateCustomFieldItem": true,
}

type Handler struct {
	Queue *SyncQueue
}

func (h *Handler) TrelloWebhookHandler(c *gin.Context) {
	// Trello can send HEAD, GET, and POST requests to the webhook URL
	if c.Request.Method != http.MethodPost {
		zap.L().Debug("Received non-POST request to webhook endpoint; responding with 200 OK")
		c.Status(http.StatusOK)
		return
	}

	var payload models.TrelloWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		// This could happen if Trello sends an empty POST request to verify the webhook
		zap.L().Debug("Could not bind JSON payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	action := payload.Action
	cardID := action.Data.Card.ID
	zap.L().Info("Received Trello webhook", zap.String("type", action.Type), zap.String("cardID", cardID))

	if !syncActions[action.Type] || cardID == "" || action.Data.Card.Closed {
		c.JSON(http.StatusOK, gin.H{"message": "No action taken"})
		return
	}

	if !h.Queue.Enqueue(cardID) {
		zap.L().Warn("Sync queue is full, dropping webhook", zap.String("cardID", cardID))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sync queue is full"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Card queued for sync", "cardID": cardID})
}

func (h *Handler) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
