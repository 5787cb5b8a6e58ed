package server

import (
	"net/http"

	"cardforge/internal/definition"

	"github.com/gin-gonic/gin"
)

type idURI struct {
	ID string `uri:"id" binding:"required"`
}

type createDefinitionRequest struct {
	TemplateID   string         `json:"templateId"`
	TemplateSlug string         `json:"templateSlug"`
	Name         string         `json:"name" binding:"required,max=120"`
	Slug         string         `json:"slug" binding:"omitempty,slug"`
	Description  *string        `json:"description"`
	GameConfig   map[string]any `json:"gameConfig"`
	MinPlayers   *int           `json:"minPlayers" binding:"omitempty,min=1"`
	MaxPlayers   *int           `json:"maxPlayers" binding:"omitempty,min=1"`
}

type updateDefinitionRequest struct {
	Name        *string        `json:"name" binding:"omitempty,max=120"`
	Slug        *string        `json:"slug" binding:"omitempty,slug"`
	Description *string        `json:"description"`
	GameConfig  map[string]any `json:"gameConfig"`
	MinPlayers  *int           `json:"minPlayers" binding:"omitempty,min=1"`
	MaxPlayers  *int           `json:"maxPlayers" binding:"omitempty,min=1"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type createPackRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description"`
	SortOrder   *int   `json:"sortOrder"`
}

var definitionMessages = bindMessages{
	"Name": {
		"required": "name is required",
		"max":      "name is too long",
	},
	"Slug":       {"slug": "slug may contain only lowercase letters, digits and dashes"},
	"MinPlayers": {"min": "minPlayers must be at least 1"},
	"MaxPlayers": {"min": "maxPlayers must be at least 1"},
	"Status":     {"required": "status is required"},
}

func (s *Server) handleListTemplates(c *gin.Context) {
	templates, err := s.definitions.ListTemplates(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (s *Server) handleCreateDefinition(c *gin.Context) {
	var req createDefinitionRequest
	if !bindJSON(c, &req, definitionMessages, "invalid definition") {
		return
	}
	creator := definition.Creator{ID: callerID(c), Name: callerName(c)}
	detail, err := s.definitions.Create(c.Request.Context(), creator, definition.CreateInput{
		TemplateID:   req.TemplateID,
		TemplateSlug: req.TemplateSlug,
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		GameConfig:   req.GameConfig,
		MinPlayers:   req.MinPlayers,
		MaxPlayers:   req.MaxPlayers,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (s *Server) handleListDefinitions(c *gin.Context) {
	page, perPage := parsePagination(c, defaultPerPage, maxPerPage)
	result, err := s.definitions.List(c.Request.Context(), callerID(c), page, perPage)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":      result.Items,
		"pagination": buildPagination(result.Page, result.PerPage, result.Total),
	})
}

func (s *Server) handleGetDefinition(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri, "definition id is required") {
		return
	}
	detail, err := s.definitions.Get(c.Request.Context(), callerID(c), uri.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleUpdateDefinition(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri, "definition id is required") {
		return
	}
	var req updateDefinitionRequest
	if !bindJSON(c, &req, definitionMessages, "invalid definition") {
		return
	}
	detail, err := s.definitions.Update(c.Request.Context(), callerID(c), uri.ID, definition.UpdateInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		GameConfig:  req.GameConfig,
		MinPlayers:  req.MinPlayers,
		MaxPlayers:  req.MaxPlayers,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleSetStatus(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri, "definition id is required") {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req, definitionMessages, "invalid status") {
		return
	}
	def, err := s.definitions.SetStatus(c.Request.Context(), callerID(c), uri.ID, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

func (s *Server) handlePreview(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri, "definition id is required") {
		return
	}
	bundle, err := s.definitions.Preview(c.Request.Context(), callerID(c), uri.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

func (s *Server) handleCreatePack(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri, "definition id is required") {
		return
	}
	var req createPackRequest
	if !bindJSON(c, &req, definitionMessages, "invalid pack") {
		return
	}
	pack, err := s.definitions.CreatePack(c.Request.Context(), callerID(c), uri.ID, definition.PackInput{
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pack)
}

func (s *Server) handleDeletePack(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri, "pack id is required") {
		return
	}
	if err := s.definitions.DeletePack(c.Request.Context(), callerID(c), uri.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handlePlayLoad(c *gin.Context) {
	token := c.Param("shareToken")
	bundle, err := s.definitions.LoadForPlay(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}
