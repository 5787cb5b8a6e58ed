package db

import (
	"time"

	"gorm.io/datatypes"
)

type GameTemplate struct {
	ID          string         `gorm:"primaryKey;size:36"`
	Name        string         `gorm:"size:120;not null"`
	Slug        string         `gorm:"size:120;not null;uniqueIndex:idx_game_templates_slug"`
	IconEmoji   string         `gorm:"size:16;not null;default:''"`
	Description string         `gorm:"type:text;not null;default:''"`
	CardTypes   datatypes.JSON `gorm:"type:jsonb;not null"`
	BaseConfig  datatypes.JSON `gorm:"type:jsonb;not null"`
	EditorHints datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

type GameDefinition struct {
	ID          string         `gorm:"primaryKey;size:36"`
	TemplateID  string         `gorm:"size:36;index;not null"`
	CreatorID   string         `gorm:"size:64;not null;uniqueIndex:idx_game_definitions_creator_slug"`
	CreatorName string         `gorm:"size:120;not null;default:''"`
	Name        string         `gorm:"size:120;not null"`
	Slug        string         `gorm:"size:120;not null;uniqueIndex:idx_game_definitions_creator_slug"`
	Description *string        `gorm:"type:text"`
	Status      string         `gorm:"size:16;not null;default:DRAFT"`
	GameConfig  datatypes.JSON `gorm:"type:jsonb;not null"`
	MinPlayers  int            `gorm:"not null"`
	MaxPlayers  int            `gorm:"not null"`
	ShareToken  string         `gorm:"size:64;not null;uniqueIndex:idx_game_definitions_share_token"`
	PlayCount   int            `gorm:"not null;default:0"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
	Template    GameTemplate   `gorm:"foreignKey:TemplateID"`
	CardPacks   []CardPack     `gorm:"foreignKey:DefinitionID;constraint:OnDelete:CASCADE"`
}

type CardPack struct {
	ID           string    `gorm:"primaryKey;size:36"`
	DefinitionID string    `gorm:"size:36;index;not null"`
	Name         string    `gorm:"size:120;not null"`
	Description  string    `gorm:"type:text;not null;default:''"`
	IsCore       bool      `gorm:"not null;default:false"`
	Official     bool      `gorm:"not null;default:false"`
	SortOrder    int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	Cards        []Card    `gorm:"foreignKey:PackID;constraint:OnDelete:CASCADE"`
}

type Card struct {
	ID         string         `gorm:"primaryKey;size:36"`
	PackID     string         `gorm:"size:36;index:idx_cards_pack_sort;not null"`
	CardType   string         `gorm:"size:32;not null"`
	Properties datatypes.JSON `gorm:"type:jsonb;not null"`
	SortOrder  int            `gorm:"not null;default:0;index:idx_cards_pack_sort"`
	CreatedAt  time.Time      `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

type GameSession struct {
	ID               string         `gorm:"primaryKey;size:36"`
	RoomCode         string         `gorm:"size:12;not null;uniqueIndex:idx_game_sessions_room_code"`
	GameDefinitionID *string        `gorm:"size:36;index"`
	TemplateSlug     *string        `gorm:"size:120"`
	GameConfig       datatypes.JSON `gorm:"type:jsonb;not null"`
	HostID           string         `gorm:"size:64;not null"`
	HostNickname     string         `gorm:"size:64;not null"`
	MaxPlayers       int            `gorm:"not null"`
	IsPrivate        bool           `gorm:"not null;default:false"`
	Password         *string        `gorm:"size:128"`
	AllowSpectators  bool           `gorm:"not null"`
	TurnTimeLimit    *int
	PlayerCount      int       `gorm:"not null;default:0"`
	Status           string    `gorm:"size:32;not null"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}
