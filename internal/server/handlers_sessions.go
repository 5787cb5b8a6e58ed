package server

import (
	"net/http"
	"strings"

	"cardforge/internal/game"
	"cardforge/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

type createSessionRequest struct {
	GameDefinitionID *string `json:"gameDefinitionId"`
	TemplateSlug     *string `json:"templateSlug"`
	HostNickname     string  `json:"hostNickname" binding:"required,max=40"`
	MaxPlayers       *int    `json:"maxPlayers"`
	IsPrivate        bool    `json:"isPrivate"`
	Password         *string `json:"password" binding:"omitempty,max=128"`
	AllowSpectators  *bool   `json:"allowSpectators"`
	TurnTimeLimit    *int    `json:"turnTimeLimit"`
}

type sessionCodeURI struct {
	Code string `uri:"code" binding:"required"`
}

type sessionResponse struct {
	game.Session
	JoinURL string `json:"joinUrl"`
}

var sessionMessages = bindMessages{
	"HostNickname": {
		"required": "hostNickname is required",
		"max":      "hostNickname is too long",
	},
	"Password": {"max": "password is too long"},
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if !bindJSON(c, &req, sessionMessages, "invalid session request") {
		return
	}
	created, err := s.sessions.Create(c.Request.Context(), session.Input{
		GameDefinitionID: req.GameDefinitionID,
		TemplateSlug:     req.TemplateSlug,
		HostID:           callerID(c),
		HostNickname:     req.HostNickname,
		MaxPlayers:       req.MaxPlayers,
		IsPrivate:        req.IsPrivate,
		Password:         req.Password,
		AllowSpectators:  req.AllowSpectators,
		TurnTimeLimit:    req.TurnTimeLimit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{
		Session: created,
		JoinURL: s.joinURL(c, created.RoomCode),
	})
}

func (s *Server) handleGetSession(c *gin.Context) {
	var uri sessionCodeURI
	if !bindURI(c, &uri, "room code is required") {
		return
	}
	found, err := s.sessions.Lookup(c.Request.Context(), uri.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		Session: found,
		JoinURL: s.joinURL(c, found.RoomCode),
	})
}

func (s *Server) handleSessionQR(c *gin.Context) {
	var uri sessionCodeURI
	if !bindURI(c, &uri, "room code is required") {
		return
	}
	found, err := s.sessions.Lookup(c.Request.Context(), uri.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	png, err := qrcode.Encode(s.joinURL(c, found.RoomCode), qrcode.Medium, qrSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// joinURL prefers the configured public URL and otherwise derives one from
// the request, honouring X-Forwarded-Proto.
func (s *Server) joinURL(c *gin.Context, code string) string {
	base := strings.TrimRight(s.cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/join/" + code
}
