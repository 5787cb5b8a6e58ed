package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerUserID        = "X-User-Id"
	headerUserName      = "X-User-Name"
	headerCorrelationID = "Correlation-Id"

	ctxUserID = "user_id"

	// Matches the width of the creator_id and host_id columns.
	maxUserIDLength = 64
)

// requireUser trusts the caller's X-User-Id header. Requests without one, or
// with one longer than maxUserIDLength, are rejected before reaching a handler.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(headerUserID))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "X-User-Id header is required",
				"kind":  "unauthorized",
			})
			return
		}
		if len(userID) > maxUserIDLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "X-User-Id header must be 64 characters or fewer",
				"kind":  "validation",
			})
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func callerID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func callerName(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(headerUserName))
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		correlationID := c.GetHeader(headerCorrelationID)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		c.Header(headerCorrelationID, correlationID)
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("correlation_id", correlationID),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.log.Error("request", fields...)
			return
		}
		s.log.Info("request", fields...)
	}
}
