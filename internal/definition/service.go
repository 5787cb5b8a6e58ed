// Package definition manages creators' game definitions and their packs, and
// serves the compiled bundle to the realtime engine.
package definition

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"cardforge/internal/apperr"
	"cardforge/internal/compiler"
	"cardforge/internal/game"
	"cardforge/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CorePackName = "Core"

	fallbackMinPlayers = 3
	fallbackMaxPlayers = 10
	maxNameLength      = 120
	maxSlugLength      = 120
	fallbackSlugPrefix = "game-"
	playCountTimeout   = 5 * time.Second
)

type Creator struct {
	ID   string
	Name string
}

// Detail is a definition together with its packs.
type Detail struct {
	game.Definition
	Packs []game.Pack `json:"packs"`
}

type CreateInput struct {
	TemplateID   string         `json:"templateId"`
	TemplateSlug string         `json:"templateSlug"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Description  *string        `json:"description"`
	GameConfig   map[string]any `json:"gameConfig"`
	MinPlayers   *int           `json:"minPlayers"`
	MaxPlayers   *int           `json:"maxPlayers"`
}

// UpdateInput carries only the fields to change.
type UpdateInput struct {
	Name        *string        `json:"name"`
	Slug        *string        `json:"slug"`
	Description *string        `json:"description"`
	GameConfig  map[string]any `json:"gameConfig"`
	MinPlayers  *int           `json:"minPlayers"`
	MaxPlayers  *int           `json:"maxPlayers"`
}

type PackInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   *int   `json:"sortOrder"`
}

type Page struct {
	Items   []game.Definition `json:"items"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"perPage"`
}

type Service struct {
	store store.Store
	log   *zap.Logger
	newID func() string
	// async runs best-effort side work off the request path.
	async func(func())
}

func NewService(s store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: s,
		log:   log,
		newID: uuid.NewString,
		async: func(f func()) { go f() },
	}
}

func (s *Service) ListTemplates(ctx context.Context) ([]game.Template, error) {
	return s.store.ListTemplates(ctx)
}

// Create stores a new DRAFT definition together with its core pack.
func (s *Service) Create(ctx context.Context, creator Creator, in CreateInput) (Detail, error) {
	if strings.TrimSpace(creator.ID) == "" {
		return Detail{}, apperr.Validation("creator id is required")
	}
	tmpl, err := s.resolveTemplate(ctx, in)
	if err != nil {
		return Detail{}, err
	}
	name, err := cleanName(in.Name)
	if err != nil {
		return Detail{}, err
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		// Names with no ASCII letters or digits slugify to nothing.
		slug = fallbackSlugPrefix + uuid.NewString()[:8]
	}
	if !ValidSlug(slug) {
		return Detail{}, apperr.Validation("slug must be lowercase letters, digits and dashes")
	}

	minPlayers, ok := game.ConfigInt(tmpl.BaseConfig, "minPlayers")
	if !ok {
		minPlayers = fallbackMinPlayers
	}
	maxPlayers, ok := game.ConfigInt(tmpl.BaseConfig, "maxPlayers")
	if !ok {
		maxPlayers = fallbackMaxPlayers
	}
	if in.MinPlayers != nil {
		minPlayers = *in.MinPlayers
	}
	if in.MaxPlayers != nil {
		maxPlayers = *in.MaxPlayers
	}
	if err := checkPlayerBounds(minPlayers, maxPlayers); err != nil {
		return Detail{}, err
	}

	token, err := newShareToken()
	if err != nil {
		return Detail{}, err
	}
	cfg := game.CloneConfig(in.GameConfig)
	if cfg == nil {
		cfg = map[string]any{}
	}
	def := game.Definition{
		ID:          s.newID(),
		TemplateID:  tmpl.ID,
		CreatorID:   creator.ID,
		CreatorName: strings.TrimSpace(creator.Name),
		Name:        name,
		Slug:        slug,
		Description: cleanDescription(in.Description),
		Status:      game.StatusDraft,
		GameConfig:  cfg,
		MinPlayers:  minPlayers,
		MaxPlayers:  maxPlayers,
		ShareToken:  token,
	}
	core := game.Pack{
		ID:           s.newID(),
		DefinitionID: def.ID,
		Name:         CorePackName,
		IsCore:       true,
	}
	if err := s.store.CreateDefinition(ctx, def, core); err != nil {
		return Detail{}, err
	}
	s.log.Info("definition created",
		zap.String("definition_id", def.ID),
		zap.String("creator_id", def.CreatorID),
		zap.String("template_slug", tmpl.Slug),
	)
	return s.detail(ctx, def.ID)
}

func (s *Service) resolveTemplate(ctx context.Context, in CreateInput) (game.Template, error) {
	switch {
	case strings.TrimSpace(in.TemplateID) != "":
		return s.store.GetTemplate(ctx, strings.TrimSpace(in.TemplateID))
	case strings.TrimSpace(in.TemplateSlug) != "":
		return s.store.GetTemplateBySlug(ctx, strings.TrimSpace(in.TemplateSlug))
	default:
		return game.Template{}, apperr.Validation("templateId or templateSlug is required")
	}
}

// Get returns a definition owned by callerID with its packs.
func (s *Service) Get(ctx context.Context, callerID, id string) (Detail, error) {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, id)
}

func (s *Service) List(ctx context.Context, callerID string, page, perPage int) (Page, error) {
	items, total, err := s.store.ListDefinitions(ctx, callerID, page, perPage)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *Service) Update(ctx context.Context, callerID, id string, in UpdateInput) (Detail, error) {
	def, err := s.owned(ctx, callerID, id)
	if err != nil {
		return Detail{}, err
	}
	if in.Name != nil {
		if def.Name, err = cleanName(*in.Name); err != nil {
			return Detail{}, err
		}
	}
	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		if !ValidSlug(slug) {
			return Detail{}, apperr.Validation("slug must be lowercase letters, digits and dashes")
		}
		def.Slug = slug
	}
	if in.Description != nil {
		def.Description = cleanDescription(in.Description)
	}
	if in.GameConfig != nil {
		def.GameConfig = game.CloneConfig(in.GameConfig)
	}
	if in.MinPlayers != nil {
		def.MinPlayers = *in.MinPlayers
	}
	if in.MaxPlayers != nil {
		def.MaxPlayers = *in.MaxPlayers
	}
	if err := checkPlayerBounds(def.MinPlayers, def.MaxPlayers); err != nil {
		return Detail{}, err
	}
	if err := s.store.UpdateDefinition(ctx, def); err != nil {
		return Detail{}, err
	}
	s.log.Info("definition updated", zap.String("definition_id", def.ID))
	return s.detail(ctx, id)
}

// SetStatus moves a definition through its lifecycle.
func (s *Service) SetStatus(ctx context.Context, callerID, id, raw string) (game.Definition, error) {
	def, err := s.owned(ctx, callerID, id)
	if err != nil {
		return game.Definition{}, err
	}
	next, ok := game.ParseStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !ok {
		return game.Definition{}, apperr.Validation(fmt.Sprintf("unknown status %q", raw))
	}
	if next == def.Status {
		return def, nil
	}
	if !game.CanTransition(def.Status, next) {
		return game.Definition{}, apperr.Validation(fmt.Sprintf("cannot move from %s to %s", def.Status, next))
	}
	previous := def.Status
	def.Status = next
	if err := s.store.UpdateDefinition(ctx, def); err != nil {
		return game.Definition{}, err
	}
	s.log.Info("definition status changed",
		zap.String("definition_id", def.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)
	return s.store.GetDefinition(ctx, id)
}

// Preview compiles the definition for its owner without touching playCount.
func (s *Service) Preview(ctx context.Context, callerID, id string) (compiler.PlayBundle, error) {
	def, err := s.owned(ctx, callerID, id)
	if err != nil {
		return compiler.PlayBundle{}, err
	}
	return s.compile(ctx, def)
}

// LoadForPlay compiles the definition behind a share token and bumps its play
// count in the background. A failed bump is logged and never reaches the
// caller.
func (s *Service) LoadForPlay(ctx context.Context, shareToken string) (compiler.PlayBundle, error) {
	def, err := s.store.GetDefinitionByShareToken(ctx, strings.TrimSpace(shareToken))
	if err != nil {
		return compiler.PlayBundle{}, err
	}
	if !def.Status.Playable() {
		return compiler.PlayBundle{}, apperr.Forbidden("game is archived")
	}
	bundle, err := s.compile(ctx, def)
	if err != nil {
		return compiler.PlayBundle{}, err
	}
	id := def.ID
	s.async(func() {
		incCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), playCountTimeout)
		defer cancel()
		if err := s.store.IncrementPlayCount(incCtx, id); err != nil {
			s.log.Warn("play count increment failed", zap.String("definition_id", id), zap.Error(err))
		}
	})
	return bundle, nil
}

func (s *Service) compile(ctx context.Context, def game.Definition) (compiler.PlayBundle, error) {
	tmpl, err := s.store.GetTemplate(ctx, def.TemplateID)
	if err != nil {
		return compiler.PlayBundle{}, err
	}
	packs, err := s.store.ListPacks(ctx, def.ID)
	if err != nil {
		return compiler.PlayBundle{}, err
	}
	bundle, err := compiler.Compile(def, tmpl, packs)
	if err != nil {
		return compiler.PlayBundle{}, err
	}
	if bundle.Skipped > 0 {
		s.log.Warn("cards with undeclared types left out",
			zap.String("definition_id", def.ID),
			zap.Int("skipped", bundle.Skipped),
		)
	}
	return bundle, nil
}

func (s *Service) CreatePack(ctx context.Context, callerID, definitionID string, in PackInput) (game.Pack, error) {
	if _, err := s.owned(ctx, callerID, definitionID); err != nil {
		return game.Pack{}, err
	}
	name, err := cleanName(in.Name)
	if err != nil {
		return game.Pack{}, err
	}
	pack := game.Pack{
		ID:           s.newID(),
		DefinitionID: definitionID,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Cards:        []game.Card{},
	}
	if in.SortOrder != nil {
		pack.SortOrder = *in.SortOrder
	} else {
		packs, err := s.store.ListPacks(ctx, definitionID)
		if err != nil {
			return game.Pack{}, err
		}
		for _, existing := range packs {
			pack.SortOrder = max(pack.SortOrder, existing.SortOrder+1)
		}
	}
	if err := s.store.CreatePack(ctx, pack); err != nil {
		return game.Pack{}, err
	}
	s.log.Info("pack created",
		zap.String("pack_id", pack.ID),
		zap.String("definition_id", definitionID),
	)
	return pack, nil
}

// AttachOfficialPack stores a pack produced by the ingestion pipeline on a
// definition. Ownership is not checked; this is an operator path.
func (s *Service) AttachOfficialPack(ctx context.Context, definitionID string, pack game.Pack) (game.Pack, error) {
	if _, err := s.store.GetDefinition(ctx, definitionID); err != nil {
		return game.Pack{}, err
	}
	pack.DefinitionID = definitionID
	pack.Official = true
	pack.IsCore = false
	if err := s.store.CreatePack(ctx, pack); err != nil {
		return game.Pack{}, err
	}
	s.log.Info("official pack attached",
		zap.String("pack_id", pack.ID),
		zap.String("definition_id", definitionID),
		zap.Int("cards", len(pack.Cards)),
	)
	return s.store.GetPack(ctx, pack.ID)
}

// DeletePack removes a non-core pack and its cards.
func (s *Service) DeletePack(ctx context.Context, callerID, packID string) error {
	pack, err := s.store.GetPack(ctx, packID)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, callerID, pack.DefinitionID); err != nil {
		if apperr.KindOf(err) == apperr.KindForbidden {
			return apperr.Forbidden("not your pack")
		}
		return err
	}
	if pack.IsCore {
		return apperr.Validation("core pack cannot be deleted")
	}
	if err := s.store.DeletePack(ctx, packID); err != nil {
		return err
	}
	s.log.Info("pack deleted",
		zap.String("pack_id", packID),
		zap.String("definition_id", pack.DefinitionID),
	)
	return nil
}

func (s *Service) owned(ctx context.Context, callerID, id string) (game.Definition, error) {
	def, err := s.store.GetDefinition(ctx, id)
	if err != nil {
		return game.Definition{}, err
	}
	if def.CreatorID != callerID {
		return game.Definition{}, apperr.Forbidden("not your game")
	}
	return def, nil
}

func (s *Service) detail(ctx context.Context, id string) (Detail, error) {
	def, err := s.store.GetDefinition(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	packs, err := s.store.ListPacks(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Definition: def, Packs: packs}, nil
}

func cleanName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", apperr.Validation("name is required")
	}
	if len(name) > maxNameLength {
		return "", apperr.Validation(fmt.Sprintf("name must be %d characters or fewer", maxNameLength))
	}
	return name, nil
}

// cleanDescription trims the description and maps blank to nil.
func cleanDescription(raw *string) *string {
	if raw == nil {
		return nil
	}
	desc := strings.TrimSpace(*raw)
	if desc == "" {
		return nil
	}
	return &desc
}

func checkPlayerBounds(minPlayers, maxPlayers int) error {
	if minPlayers < 1 {
		return apperr.Validation("minPlayers must be at least 1")
	}
	if maxPlayers < minPlayers {
		return apperr.Validation("maxPlayers must not be less than minPlayers")
	}
	return nil
}

func newShareToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Slugify lowercases name and collapses every run of other characters into
// a single dash.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimSuffix(slug[:maxSlugLength], "-")
	}
	return slug
}

func ValidSlug(slug string) bool {
	if slug == "" || len(slug) > maxSlugLength {
		return false
	}
	if slug[0] == '-' || slug[len(slug)-1] == '-' || strings.Contains(slug, "--") {
		return false
	}
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			continue
		}
		return false
	}
	return true
}
