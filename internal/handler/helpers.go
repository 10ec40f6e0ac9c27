package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/renatodap/coach-context/internal/middleware"
	appErr "github.com/renatodap/coach-context/internal/pkg/errors"
	"github.com/renatodap/coach-context/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

// handleError maps service errors onto the wire contract. fallback is the
// endpoint's caller-facing failure text; internals only surface in details.
func handleError(c *gin.Context, err error, fallback string) {
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		response.ErrorDetails(c, http.StatusBadRequest, fallback, err.Error())
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "Embedding not found")
	default:
		response.ErrorDetails(c, http.StatusInternalServerError, fallback, err.Error())
	}
}
