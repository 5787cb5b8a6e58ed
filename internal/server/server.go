package server

import (
	"net/http"

	"cardforge/internal/authoring"
	"cardforge/internal/config"
	"cardforge/internal/definition"
	"cardforge/internal/game"
	"cardforge/internal/party"
	"cardforge/internal/roomcode"
	"cardforge/internal/session"
	"cardforge/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg         config.Config
	log         *zap.Logger
	store       store.Store
	definitions *definition.Service
	authoring   *authoring.Service
	sessions    *session.Bootstrapper
}

// New wires the services over st. A nil store means an in-memory store seeded
// with the stock templates.
func New(st store.Store, cfg config.Config, log *zap.Logger) *Server {
	if st == nil {
		st = store.NewMemory(game.StockTemplates()...)
	}
	if log == nil {
		log = zap.NewNop()
	}
	registerValidators()

	var host session.RoomHost
	if cfg.PartyHostURL != "" {
		host = party.NewClient(cfg.PartyHostURL, cfg.PartyHandoffTimeout)
	}
	allocator := roomcode.NewAllocator(cfg.RoomCodeLength, cfg.RoomCodeMaxAttempts)

	return &Server{
		cfg:         cfg,
		log:         log,
		store:       st,
		definitions: definition.NewService(st, log.Named("definition")),
		authoring:   authoring.NewService(st, log.Named("authoring")),
		sessions: session.NewBootstrapper(st, allocator, host, log.Named("session"), session.Options{
			CreateAttempts: cfg.SessionCreateAttempts,
			HandoffTimeout: cfg.PartyHandoffTimeout,
		}),
	}
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.handleHealth)
	router.GET("/play/:shareToken", s.handlePlayLoad)

	api := router.Group("/api")
	api.GET("/templates", s.handleListTemplates)
	api.GET("/sessions/:code", s.handleGetSession)
	api.GET("/sessions/:code/qr", s.handleSessionQR)

	creator := api.Group("", s.requireUser())
	creator.POST("/definitions", s.handleCreateDefinition)
	creator.GET("/definitions", s.handleListDefinitions)
	creator.GET("/definitions/:id", s.handleGetDefinition)
	creator.PATCH("/definitions/:id", s.handleUpdateDefinition)
	creator.POST("/definitions/:id/status", s.handleSetStatus)
	creator.GET("/definitions/:id/preview", s.handlePreview)
	creator.POST("/definitions/:id/packs", s.handleCreatePack)
	creator.DELETE("/packs/:id", s.handleDeletePack)
	creator.POST("/packs/:id/cards", s.handleApplyCards)
	creator.POST("/sessions", s.handleCreateSession)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
