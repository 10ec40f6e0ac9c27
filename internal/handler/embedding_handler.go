package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/renatodap/coach-context/internal/model"
	"github.com/renatodap/coach-context/internal/pkg/response"
	"github.com/renatodap/coach-context/internal/service"
)

type EmbeddingHandler struct {
	embeddings *service.EmbeddingService
}

func NewEmbeddingHandler(embeddings *service.EmbeddingService) *EmbeddingHandler {
	return &EmbeddingHandler{embeddings: embeddings}
}

type generateRequest struct {
	Content     string                 `json:"content"`
	ContentType string                 `json:"contentType"`
	UserID      string                 `json:"userId"`
	Metadata    map[string]interface{} `json:"metadata"`
	ContentID   string                 `json:"contentId"`
	Update      bool                   `json:"update"`
}

type searchRequest struct {
	Query        string   `json:"query"`
	UserID       string   `json:"userId"`
	Limit        int      `json:"limit"`
	Threshold    float64  `json:"threshold"`
	ContentTypes []string `json:"contentTypes"`
}

func (h *EmbeddingHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Content, contentType, and userId are required")
		return
	}

	// Content alone means the caller only wants a query vector, nothing stored.
	if req.Content != "" && req.ContentType == "" && req.UserID == "" {
		h.generateQueryEmbedding(c, req.Content)
		return
	}

	if req.Content == "" || req.ContentType == "" || req.UserID == "" {
		response.Error(c, http.StatusBadRequest, "Content, contentType, and userId are required")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.Error(c, http.StatusBadRequest, "Content cannot be empty")
		return
	}
	if getUserID(c) != req.UserID {
		response.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// The write operation is decided here, once, from the request shape.
	op := service.OpInsert
	targetID := ""
	switch {
	case req.Update && req.ContentID != "":
		op = service.OpUpdateByID
		targetID = req.ContentID
	case metadataContentID(req.Metadata) != "":
		op = service.OpUpsertByContentKey
	}

	stored, err := h.embeddings.Generate(c.Request.Context(), service.GenerateInput{
		UserID:      req.UserID,
		ContentType: req.ContentType,
		Content:     req.Content,
		Metadata:    req.Metadata,
		Op:          op,
		TargetID:    targetID,
	})
	if err != nil {
		handleError(c, err, "Failed to generate embedding")
		return
	}
	response.Success(c, gin.H{
		"embedding": stored.Embedding,
		"id":        stored.ID,
		"stored":    true,
	})
}

func (h *EmbeddingHandler) generateQueryEmbedding(c *gin.Context, content string) {
	if strings.TrimSpace(content) == "" {
		response.Error(c, http.StatusBadRequest, "Content is required and cannot be empty")
		return
	}
	result, err := h.embeddings.EmbedQuery(c.Request.Context(), content)
	if err != nil {
		handleError(c, err, "Failed to generate embedding")
		return
	}
	response.Success(c, gin.H{
		"embedding":  result.Embedding,
		"dimensions": result.Dimensions,
		"model":      result.Model,
		"success":    true,
	})
}

func (h *EmbeddingHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Query and userId are required")
		return
	}
	if req.Query == "" || req.UserID == "" {
		response.Error(c, http.StatusBadRequest, "Query and userId are required")
		return
	}
	if getUserID(c) != req.UserID {
		response.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	results, elapsed, err := h.embeddings.Search(c.Request.Context(), service.SearchInput{
		UserID:       req.UserID,
		Query:        req.Query,
		Limit:        req.Limit,
		Threshold:    req.Threshold,
		ContentTypes: req.ContentTypes,
	})
	if err != nil {
		handleError(c, err, "Failed to search embeddings")
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	response.Success(c, gin.H{
		"results":        results,
		"query":          req.Query,
		"processingTime": elapsed.Milliseconds(),
	})
}

func metadataContentID(metadata map[string]interface{}) string {
	if metadata == nil {
		return ""
	}
	value, _ := metadata[model.MetaContentID].(string)
	return value
}
