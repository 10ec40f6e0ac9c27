package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renatodap/coach-context/internal/middleware"
)

type RouterDeps struct {
	Embeddings    *EmbeddingHandler
	Queue         *QueueHandler
	JWTSecret     []byte
	WebhookSecret string
	AdminKey      string
	RateWindow    time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	userGroup := api.Group("/embeddings")
	userGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	if deps.RateWindow > 0 {
		userGroup.Use(middleware.RateLimit(deps.RateWindow))
	}
	userGroup.POST("/generate", deps.Embeddings.Generate)
	userGroup.POST("/search", deps.Embeddings.Search)

	api.POST("/embeddings/process-queue", middleware.BearerSecret(deps.WebhookSecret), deps.Queue.Process)
	api.GET("/embeddings/process-queue", middleware.BearerSecret(deps.AdminKey), deps.Queue.Status)
}
