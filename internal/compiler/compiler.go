// Package compiler turns a template, a definition and its packs into the
// bundle the realtime engine plays from.
package compiler

import (
	"cmp"
	"maps"
	"slices"

	"cardforge/internal/apperr"
	"cardforge/internal/game"
)

type PackDescriptor struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Official    bool                   `json:"official"`
	Cards       map[string][]game.Card `json:"cards"`
}

type Meta struct {
	GameID      string `json:"gameId"`
	GameName    string `json:"gameName"`
	CreatorName string `json:"creatorName"`
	PlayCount   int    `json:"playCount"`
}

// PlayBundle is the compiled, play-ready form of a definition.
type PlayBundle struct {
	Definition map[string]any   `json:"definition"`
	Packs      []PackDescriptor `json:"packs"`
	Meta       Meta             `json:"meta"`

	// Skipped counts cards dropped because the template does not declare
	// their type.
	Skipped int `json:"-"`
}

// ShallowMerge returns base with every top-level key of override replacing
// it. Nested objects are replaced whole: overriding "decks" with one entry
// drops the base's other decks. Neither input is modified.
func ShallowMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	maps.Copy(out, game.CloneConfig(base))
	maps.Copy(out, game.CloneConfig(override))
	return out
}

// Compile builds the PlayBundle for def. It has no side effects. Archived
// definitions are refused.
func Compile(def game.Definition, tmpl game.Template, packs []game.Pack) (PlayBundle, error) {
	if !def.Status.Playable() {
		return PlayBundle{}, apperr.Forbidden("game is archived")
	}

	merged := ShallowMerge(tmpl.BaseConfig, def.GameConfig)
	merged["id"] = def.Slug
	merged["name"] = def.Name
	if def.Description != nil {
		merged["description"] = *def.Description
	} else if desc, ok := tmpl.BaseConfig["description"]; ok {
		merged["description"] = desc
	} else {
		delete(merged, "description")
	}
	merged["minPlayers"] = def.MinPlayers
	merged["maxPlayers"] = def.MaxPlayers

	bundle := PlayBundle{
		Definition: merged,
		Packs:      make([]PackDescriptor, 0, len(packs)),
		Meta: Meta{
			GameID:      def.ID,
			GameName:    def.Name,
			CreatorName: def.CreatorName,
			PlayCount:   def.PlayCount,
		},
	}
	for _, pack := range packs {
		descriptor := PackDescriptor{
			ID:          pack.ID,
			Name:        pack.Name,
			Description: pack.Description,
			Official:    pack.Official,
			Cards:       make(map[string][]game.Card),
		}
		for _, card := range sortedCards(pack.Cards) {
			if !tmpl.DeclaresCardType(card.Type) {
				bundle.Skipped++
				continue
			}
			descriptor.Cards[card.Type] = append(descriptor.Cards[card.Type], card)
		}
		bundle.Packs = append(bundle.Packs, descriptor)
	}
	return bundle, nil
}

func sortedCards(cards []game.Card) []game.Card {
	out := make([]game.Card, len(cards))
	for i, card := range cards {
		card.Properties = card.Properties.Clone()
		out[i] = card
	}
	slices.SortStableFunc(out, func(a, b game.Card) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
	return out
}

// Snapshot is the frozen config stored on a session created from a
// definition: the definition's own config, its identity and its raw packs.
// It skips the template merge that Compile does.
func Snapshot(def game.Definition, packs []game.Pack) map[string]any {
	out := game.CloneConfig(def.GameConfig)
	if out == nil {
		out = make(map[string]any)
	}
	out["id"] = def.Slug
	out["name"] = def.Name
	out["minPlayers"] = def.MinPlayers
	out["maxPlayers"] = def.MaxPlayers

	packValues := make([]any, 0, len(packs))
	for _, pack := range packs {
		cards := make([]any, 0, len(pack.Cards))
		for _, card := range sortedCards(pack.Cards) {
			cards = append(cards, cardValue(card))
		}
		packValues = append(packValues, map[string]any{
			"id":       pack.ID,
			"name":     pack.Name,
			"official": pack.Official,
			"cards":    cards,
		})
	}
	out["packs"] = packValues
	return out
}

// TemplateSnapshot is the frozen config for a session that plays a stock
// template without customization.
func TemplateSnapshot(tmpl game.Template) map[string]any {
	out := game.CloneConfig(tmpl.BaseConfig)
	if out == nil {
		out = make(map[string]any)
	}
	out["id"] = tmpl.Slug
	out["name"] = tmpl.Name
	return out
}

func cardValue(card game.Card) map[string]any {
	props := make(map[string]any, len(card.Properties.Extra)+2)
	maps.Copy(props, game.CloneConfig(card.Properties.Extra))
	props["text"] = card.Properties.Text
	if card.Properties.Pick > 0 {
		props["pick"] = card.Properties.Pick
	}
	return map[string]any{
		"id":         card.ID,
		"cardType":   card.Type,
		"properties": props,
		"sortOrder":  card.SortOrder,
	}
}
