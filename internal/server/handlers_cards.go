package server

import (
	"net/http"

	"cardforge/internal/authoring"

	"github.com/gin-gonic/gin"
)

type applyCardsRequest struct {
	Cards     []authoring.CardInput `json:"cards" binding:"max=500"`
	DeleteIDs []string              `json:"deleteIds" binding:"max=500"`
}

var cardMessages = bindMessages{
	"Cards":     {"max": "too many cards in one request"},
	"DeleteIDs": {"max": "too many deletions in one request"},
}

func (s *Server) handleApplyCards(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri, "pack id is required") {
		return
	}
	var req applyCardsRequest
	if !bindJSON(c, &req, cardMessages, "invalid cards payload") {
		return
	}
	if len(req.Cards)+len(req.DeleteIDs) > maxCardsPerCall {
		writeBadRequest(c, "too many changes in one request")
		return
	}
	resp, err := s.authoring.Apply(c.Request.Context(), callerID(c), authoring.Request{
		PackID:    uri.ID,
		Cards:     req.Cards,
		DeleteIDs: req.DeleteIDs,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
