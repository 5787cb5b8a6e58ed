package server

import (
	"net/http"

	"cardforge/internal/apperr"

	"github.com/gin-gonic/gin"
)

// writeError maps err to its status. Internal errors are logged through the
// request and never echoed to the client.
func writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	kind := apperr.KindOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"kind":  string(kind),
	})
}

func writeBadRequest(c *gin.Context, message string) {
	writeError(c, apperr.Validation(message))
}
