// Package session creates game sessions and resolves the codes players join
// with.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardforge/internal/apperr"
	"cardforge/internal/compiler"
	"cardforge/internal/game"
	"cardforge/internal/party"
	"cardforge/internal/roomcode"
	"cardforge/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultCreateAttempts = 3
	defaultMaxPlayers     = 10
)

type Store interface {
	store.Sessions
	GetTemplate(ctx context.Context, id string) (game.Template, error)
	GetTemplateBySlug(ctx context.Context, slug string) (game.Template, error)
	GetDefinition(ctx context.Context, id string) (game.Definition, error)
	ListPacks(ctx context.Context, definitionID string) ([]game.Pack, error)
}

// RoomHost receives the handoff of a new session.
type RoomHost interface {
	Initialize(ctx context.Context, roomCode string, handoff party.Handoff) error
}

type Input struct {
	GameDefinitionID *string `json:"gameDefinitionId"`
	TemplateSlug     *string `json:"templateSlug"`
	HostID           string  `json:"-"`
	HostNickname     string  `json:"hostNickname"`
	MaxPlayers       *int    `json:"maxPlayers"`
	IsPrivate        bool    `json:"isPrivate"`
	Password         *string `json:"password"`
	AllowSpectators  *bool   `json:"allowSpectators"`
	TurnTimeLimit    *int    `json:"turnTimeLimit"`
}

type Options struct {
	CreateAttempts int
	HandoffTimeout time.Duration
}

type Bootstrapper struct {
	store     Store
	allocator *roomcode.Allocator
	host      RoomHost
	log       *zap.Logger
	opts      Options
	newID     func() string
}

func NewBootstrapper(s Store, allocator *roomcode.Allocator, host RoomHost, log *zap.Logger, opts Options) *Bootstrapper {
	if log == nil {
		log = zap.NewNop()
	}
	if allocator == nil {
		allocator = roomcode.NewAllocator(roomcode.DefaultLength, roomcode.DefaultMaxAttempts)
	}
	if opts.CreateAttempts <= 0 {
		opts.CreateAttempts = DefaultCreateAttempts
	}
	if opts.HandoffTimeout <= 0 {
		opts.HandoffTimeout = party.DefaultTimeout
	}
	return &Bootstrapper{
		store:     s,
		allocator: allocator,
		host:      host,
		log:       log,
		opts:      opts,
		newID:     uuid.NewString,
	}
}

type source struct {
	config       map[string]any
	definitionID *string
	templateSlug *string
	handoffSlug  *string
	maxPlayers   int
}

// Create validates in, freezes the game config, inserts the session under a
// fresh room code and hands it to the room host. A room code lost to a
// concurrent insert is replaced and the insert retried. Handoff failures are
// logged only.
func (b *Bootstrapper) Create(ctx context.Context, in Input) (game.Session, error) {
	defID := trimmed(in.GameDefinitionID)
	slug := trimmed(in.TemplateSlug)
	if (defID == "") == (slug == "") {
		return game.Session{}, apperr.Validation("exactly one of gameDefinitionId or templateSlug is required")
	}
	nickname := strings.TrimSpace(in.HostNickname)
	if nickname == "" {
		return game.Session{}, apperr.Validation("hostNickname is required")
	}
	if strings.TrimSpace(in.HostID) == "" {
		return game.Session{}, apperr.Validation("host id is required")
	}

	src, err := b.resolve(ctx, defID, slug)
	if err != nil {
		return game.Session{}, err
	}

	maxPlayers := src.maxPlayers
	if in.MaxPlayers != nil {
		if *in.MaxPlayers < 1 || *in.MaxPlayers > src.maxPlayers {
			return game.Session{}, apperr.Validation(fmt.Sprintf("maxPlayers must be between 1 and %d", src.maxPlayers))
		}
		maxPlayers = *in.MaxPlayers
	}
	if in.TurnTimeLimit != nil && *in.TurnTimeLimit <= 0 {
		return game.Session{}, apperr.Validation("turnTimeLimit must be positive")
	}
	allowSpectators := true
	if in.AllowSpectators != nil {
		allowSpectators = *in.AllowSpectators
	}
	var password *string
	if in.IsPrivate && trimmed(in.Password) != "" {
		pw := *in.Password
		password = &pw
	}

	session := game.Session{
		GameDefinitionID: src.definitionID,
		TemplateSlug:     src.templateSlug,
		GameConfig:       src.config,
		HostID:           in.HostID,
		HostNickname:     nickname,
		MaxPlayers:       maxPlayers,
		IsPrivate:        in.IsPrivate,
		Password:         password,
		AllowSpectators:  allowSpectators,
		TurnTimeLimit:    in.TurnTimeLimit,
		Status:           game.SessionStatusWaiting,
	}

	created := false
	for attempt := 1; attempt <= b.opts.CreateAttempts; attempt++ {
		code, err := b.allocator.Allocate(ctx, b.store.RoomCodeExists)
		if err != nil {
			return game.Session{}, err
		}
		session.ID = b.newID()
		session.RoomCode = code
		session.CreatedAt = time.Now().UTC()
		err = b.store.CreateSession(ctx, session)
		if errors.Is(err, store.ErrRoomCodeTaken) {
			b.log.Warn("room code taken on insert, retrying",
				zap.String("room_code", code),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return game.Session{}, err
		}
		created = true
		break
	}
	if !created {
		return game.Session{}, apperr.Conflict("could not reserve a room code")
	}

	b.log.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("room_code", session.RoomCode),
		zap.Stringp("definition_id", session.GameDefinitionID),
		zap.Stringp("template_slug", session.TemplateSlug),
	)
	b.handoff(ctx, session, src.handoffSlug)
	return session, nil
}

func (b *Bootstrapper) resolve(ctx context.Context, defID, slug string) (source, error) {
	if slug != "" {
		tmpl, err := b.store.GetTemplateBySlug(ctx, slug)
		if err != nil {
			return source{}, err
		}
		maxPlayers, ok := game.ConfigInt(tmpl.BaseConfig, "maxPlayers")
		if !ok || maxPlayers < 1 {
			maxPlayers = defaultMaxPlayers
		}
		return source{
			config:       compiler.TemplateSnapshot(tmpl),
			templateSlug: &tmpl.Slug,
			handoffSlug:  &tmpl.Slug,
			maxPlayers:   maxPlayers,
		}, nil
	}

	def, err := b.store.GetDefinition(ctx, defID)
	if err != nil {
		return source{}, err
	}
	if !def.Status.Playable() {
		return source{}, apperr.Forbidden("game is archived")
	}
	packs, err := b.store.ListPacks(ctx, def.ID)
	if err != nil {
		return source{}, err
	}
	src := source{
		config:       compiler.Snapshot(def, packs),
		definitionID: &def.ID,
		maxPlayers:   def.MaxPlayers,
	}
	if tmpl, err := b.store.GetTemplate(ctx, def.TemplateID); err == nil {
		src.handoffSlug = &tmpl.Slug
	}
	return src, nil
}

func (b *Bootstrapper) handoff(ctx context.Context, session game.Session, templateSlug *string) {
	if b.host == nil {
		return
	}
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.opts.HandoffTimeout)
	defer cancel()
	err := b.host.Initialize(hctx, session.RoomCode, party.Handoff{
		GameConfig:   session.GameConfig,
		TemplateSlug: templateSlug,
		Settings: party.Settings{
			MaxPlayers:      session.MaxPlayers,
			TurnTimeLimit:   session.TurnTimeLimit,
			AllowSpectators: session.AllowSpectators,
			IsPrivate:       session.IsPrivate,
		},
	})
	if err != nil {
		b.log.Warn("room host handoff failed",
			zap.String("room_code", session.RoomCode),
			zap.Error(err),
		)
	}
}

// Lookup finds a session by a code typed by a player.
func (b *Bootstrapper) Lookup(ctx context.Context, raw string) (game.Session, error) {
	code := roomcode.Normalize(raw)
	if !roomcode.IsValid(code) {
		return game.Session{}, apperr.Validation("invalid room code")
	}
	return b.store.GetSessionByRoomCode(ctx, code)
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
