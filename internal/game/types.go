package game

import "time"

// Status is a GameDefinition lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusTesting   Status = "TESTING"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

const (
	SessionStatusWaiting = "waiting"
)

// Template is a reusable game archetype. BaseConfig holds the default deck
// declarations, slot layout, phase graph and player bounds.
type Template struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	IconEmoji   string         `json:"iconEmoji"`
	Description string         `json:"description,omitempty"`
	CardTypes   []string       `json:"cardTypes"`
	BaseConfig  map[string]any `json:"baseConfig"`
	EditorHints map[string]any `json:"editorHints,omitempty"`
}

// DeclaresCardType reports whether cardType is one of the template's card
// types. A template with no declared types accepts everything.
func (t Template) DeclaresCardType(cardType string) bool {
	if len(t.CardTypes) == 0 {
		return true
	}
	for _, declared := range t.CardTypes {
		if declared == cardType {
			return true
		}
	}
	return false
}

// Definition is one creator's customization of a template.
type Definition struct {
	ID          string         `json:"id"`
	TemplateID  string         `json:"templateId"`
	CreatorID   string         `json:"creatorId"`
	CreatorName string         `json:"creatorName"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description *string        `json:"description,omitempty"`
	Status      Status         `json:"status"`
	GameConfig  map[string]any `json:"gameConfig"`
	MinPlayers  int            `json:"minPlayers"`
	MaxPlayers  int            `json:"maxPlayers"`
	ShareToken  string         `json:"shareToken"`
	PlayCount   int            `json:"playCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Pack is a named collection of cards owned by one definition. Official packs
// come from the ingestion pipeline.
type Pack struct {
	ID           string `json:"id"`
	DefinitionID string `json:"definitionId,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	IsCore       bool   `json:"isCore"`
	Official     bool   `json:"official"`
	SortOrder    int    `json:"sortOrder"`
	Cards        []Card `json:"cards"`
}

type Card struct {
	ID         string     `json:"id"`
	PackID     string     `json:"packId,omitempty"`
	Type       string     `json:"cardType"`
	Properties Properties `json:"properties"`
	SortOrder  int        `json:"sortOrder"`
}

// Session is one room playing one game. GameConfig is a frozen snapshot taken
// at creation; later definition edits never reach it.
type Session struct {
	ID               string         `json:"id"`
	RoomCode         string         `json:"roomCode"`
	GameDefinitionID *string        `json:"gameDefinitionId,omitempty"`
	TemplateSlug     *string        `json:"templateSlug,omitempty"`
	GameConfig       map[string]any `json:"gameConfig"`
	HostID           string         `json:"hostId"`
	HostNickname     string         `json:"hostNickname"`
	MaxPlayers       int            `json:"maxPlayers"`
	IsPrivate        bool           `json:"isPrivate"`
	Password         *string        `json:"-"`
	AllowSpectators  bool           `json:"allowSpectators"`
	TurnTimeLimit    *int           `json:"turnTimeLimit,omitempty"`
	PlayerCount      int            `json:"playerCount"`
	Status           string         `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
}
