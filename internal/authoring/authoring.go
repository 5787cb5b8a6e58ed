// Package authoring applies creator edits to the cards of one pack.
package authoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cardforge/internal/apperr"
	"cardforge/internal/game"
	"cardforge/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the slice of persistence the authoring service needs.
type Store interface {
	store.Packs
	GetDefinition(ctx context.Context, id string) (game.Definition, error)
}

// CardInput describes one card to upsert. An ID that names a card of the
// target pack updates it; anything else creates a new card.
type CardInput struct {
	ID         string           `json:"id,omitempty"`
	CardType   string           `json:"cardType,omitempty"`
	Properties *game.Properties `json:"properties,omitempty"`
	SortOrder  *int             `json:"sortOrder,omitempty"`
}

type Request struct {
	PackID    string      `json:"packId"`
	Cards     []CardInput `json:"cards,omitempty"`
	DeleteIDs []string    `json:"deleteIds,omitempty"`
}

type Results struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

type Response struct {
	Results Results   `json:"results"`
	Pack    game.Pack `json:"pack"`
}

type Service struct {
	store Store
	log   *zap.Logger
	newID func() string
}

func NewService(s Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, log: log, newID: uuid.NewString}
}

// Authorize loads the pack and confirms callerID owns its definition.
func (s *Service) Authorize(ctx context.Context, packID, callerID string) (game.Pack, game.Definition, error) {
	pack, err := s.store.GetPack(ctx, packID)
	if err != nil {
		return game.Pack{}, game.Definition{}, err
	}
	def, err := s.store.GetDefinition(ctx, pack.DefinitionID)
	if err != nil {
		return game.Pack{}, game.Definition{}, err
	}
	if def.CreatorID != callerID {
		return game.Pack{}, game.Definition{}, apperr.Forbidden("not your pack")
	}
	return pack, def, nil
}

// Apply deletes req.DeleteIDs from the pack and then upserts req.Cards, all
// validated before anything is written. Ids that do not belong to the pack
// are ignored on delete and treated as new cards on upsert.
func (s *Service) Apply(ctx context.Context, callerID string, req Request) (Response, error) {
	pack, _, err := s.Authorize(ctx, req.PackID, callerID)
	if err != nil {
		return Response{}, err
	}

	remaining := make(map[string]game.Card, len(pack.Cards))
	for _, card := range pack.Cards {
		remaining[card.ID] = card
	}
	var deletes []string
	for _, id := range req.DeleteIDs {
		if _, ok := remaining[id]; ok {
			deletes = append(deletes, id)
			delete(remaining, id)
		}
	}

	nextSort := 0
	for _, card := range remaining {
		nextSort = max(nextSort, card.SortOrder)
	}

	changes := store.CardChanges{Delete: deletes}
	touched := make(map[string]struct{})
	for i, input := range req.Cards {
		if existing, ok := remaining[input.ID]; ok && input.ID != "" {
			if _, dup := touched[input.ID]; dup {
				return Response{}, apperr.Validation(fmt.Sprintf("cards[%d]: card %s listed twice", i, input.ID))
			}
			touched[input.ID] = struct{}{}
			card, err := updatedCard(existing, input)
			if err != nil {
				return Response{}, apperr.Validation(fmt.Sprintf("cards[%d]: %s", i, err))
			}
			changes.Update = append(changes.Update, card)
			continue
		}
		card, err := newCard(input)
		if err != nil {
			return Response{}, apperr.Validation(fmt.Sprintf("cards[%d]: %s", i, err))
		}
		card.ID = s.newID()
		card.PackID = pack.ID
		if input.SortOrder == nil {
			nextSort++
			card.SortOrder = nextSort
		} else {
			nextSort = max(nextSort, card.SortOrder)
		}
		changes.Create = append(changes.Create, card)
	}

	deleted, err := s.store.ApplyCardChanges(ctx, pack.ID, changes)
	if err != nil {
		return Response{}, err
	}
	refreshed, err := s.store.GetPack(ctx, pack.ID)
	if err != nil {
		return Response{}, err
	}
	results := Results{
		Created: len(changes.Create),
		Updated: len(changes.Update),
		Deleted: deleted,
	}
	s.log.Info("cards updated",
		zap.String("pack_id", pack.ID),
		zap.String("definition_id", pack.DefinitionID),
		zap.Int("created", results.Created),
		zap.Int("updated", results.Updated),
		zap.Int("deleted", results.Deleted),
	)
	return Response{Results: results, Pack: refreshed}, nil
}

func newCard(input CardInput) (game.Card, error) {
	if strings.TrimSpace(input.CardType) == "" {
		return game.Card{}, errors.New("cardType is required")
	}
	if input.Properties == nil {
		return game.Card{}, errors.New("properties are required")
	}
	card := game.Card{Properties: input.Properties.Clone()}
	if input.SortOrder != nil {
		card.SortOrder = *input.SortOrder
	}
	return finishCard(card, input.CardType)
}

// updatedCard overlays input on existing. Omitted fields keep their stored
// values.
func updatedCard(existing game.Card, input CardInput) (game.Card, error) {
	card := existing
	card.Properties = existing.Properties.Clone()
	if input.Properties != nil {
		card.Properties = input.Properties.Clone()
	}
	if input.SortOrder != nil {
		card.SortOrder = *input.SortOrder
	}
	cardType := existing.Type
	if strings.TrimSpace(input.CardType) != "" {
		cardType = input.CardType
	}
	return finishCard(card, cardType)
}

func finishCard(card game.Card, cardType string) (game.Card, error) {
	card.Type = game.NormalizeCardType(cardType)
	if !game.IsValidCardType(card.Type) {
		return game.Card{}, fmt.Errorf("invalid cardType %q", cardType)
	}
	if strings.TrimSpace(card.Properties.Text) == "" {
		return game.Card{}, errors.New("properties.text is required")
	}
	if card.Properties.Pick > game.MaxPick {
		return game.Card{}, fmt.Errorf("properties.pick must be at most %d", game.MaxPick)
	}
	if card.Type == game.CardTypePrompt {
		card.Properties.Pick = game.DefaultPick(card.Properties.Pick, card.Properties.Text)
	}
	return card, nil
}
