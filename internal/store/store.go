// Package store is the persistence boundary for templates, definitions, packs,
// cards and sessions. Memory backs tests and database-less runs; Gorm backs
// Postgres.
package store

import (
	"context"

	"cardforge/internal/apperr"
	"cardforge/internal/game"
)

// ErrRoomCodeTaken is returned by CreateSession when the unique constraint on
// room codes rejects the insert. Callers allocate a fresh code and retry.
var ErrRoomCodeTaken = apperr.Conflict("room code already in use")

// ErrSlugTaken is returned when a creator already has a definition with the
// same slug.
var ErrSlugTaken = apperr.Conflict("slug already in use")

type Templates interface {
	ListTemplates(ctx context.Context) ([]game.Template, error)
	GetTemplate(ctx context.Context, id string) (game.Template, error)
	GetTemplateBySlug(ctx context.Context, slug string) (game.Template, error)
}

type Definitions interface {
	// CreateDefinition inserts def together with its core pack.
	CreateDefinition(ctx context.Context, def game.Definition, core game.Pack) error
	GetDefinition(ctx context.Context, id string) (game.Definition, error)
	GetDefinitionByShareToken(ctx context.Context, token string) (game.Definition, error)
	ListDefinitions(ctx context.Context, creatorID string, page, perPage int) ([]game.Definition, int64, error)
	UpdateDefinition(ctx context.Context, def game.Definition) error
	IncrementPlayCount(ctx context.Context, id string) error
}

// CardChanges is one resolved authoring batch. Deletes are applied before
// updates and creates.
type CardChanges struct {
	Delete []string
	Update []game.Card
	Create []game.Card
}

type Packs interface {
	// CreatePack inserts pack and any cards it carries.
	CreatePack(ctx context.Context, pack game.Pack) error
	// GetPack returns the pack with its cards ordered by sort order.
	GetPack(ctx context.Context, id string) (game.Pack, error)
	ListPacks(ctx context.Context, definitionID string) ([]game.Pack, error)
	DeletePack(ctx context.Context, id string) error
	// ApplyCardChanges applies changes to cards of packID only and returns the
	// number of cards deleted.
	ApplyCardChanges(ctx context.Context, packID string, changes CardChanges) (int, error)
}

type Sessions interface {
	RoomCodeExists(ctx context.Context, code string) (bool, error)
	CreateSession(ctx context.Context, session game.Session) error
	GetSessionByRoomCode(ctx context.Context, code string) (game.Session, error)
}

type Store interface {
	Templates
	Definitions
	Packs
	Sessions
}
