package store

import (
	"encoding/json"
	"fmt"

	"cardforge/internal/db"
	"cardforge/internal/game"

	"gorm.io/datatypes"
)

func templateFromRecord(record db.GameTemplate) (game.Template, error) {
	tmpl := game.Template{
		ID:          record.ID,
		Name:        record.Name,
		Slug:        record.Slug,
		IconEmoji:   record.IconEmoji,
		Description: record.Description,
	}
	if err := unmarshalJSON(record.CardTypes, &tmpl.CardTypes); err != nil {
		return game.Template{}, fmt.Errorf("template %s card types: %w", record.ID, err)
	}
	if err := unmarshalJSON(record.BaseConfig, &tmpl.BaseConfig); err != nil {
		return game.Template{}, fmt.Errorf("template %s base config: %w", record.ID, err)
	}
	if err := unmarshalJSON(record.EditorHints, &tmpl.EditorHints); err != nil {
		return game.Template{}, fmt.Errorf("template %s editor hints: %w", record.ID, err)
	}
	if tmpl.BaseConfig == nil {
		tmpl.BaseConfig = map[string]any{}
	}
	return tmpl, nil
}

func definitionRecord(def game.Definition) (db.GameDefinition, error) {
	cfg, err := marshalConfig(def.GameConfig)
	if err != nil {
		return db.GameDefinition{}, err
	}
	return db.GameDefinition{
		ID:          def.ID,
		TemplateID:  def.TemplateID,
		CreatorID:   def.CreatorID,
		CreatorName: def.CreatorName,
		Name:        def.Name,
		Slug:        def.Slug,
		Description: def.Description,
		Status:      string(def.Status),
		GameConfig:  cfg,
		MinPlayers:  def.MinPlayers,
		MaxPlayers:  def.MaxPlayers,
		ShareToken:  def.ShareToken,
		PlayCount:   def.PlayCount,
	}, nil
}

func definitionFromRecord(record db.GameDefinition) (game.Definition, error) {
	def := game.Definition{
		ID:          record.ID,
		TemplateID:  record.TemplateID,
		CreatorID:   record.CreatorID,
		CreatorName: record.CreatorName,
		Name:        record.Name,
		Slug:        record.Slug,
		Description: record.Description,
		Status:      game.Status(record.Status),
		MinPlayers:  record.MinPlayers,
		MaxPlayers:  record.MaxPlayers,
		ShareToken:  record.ShareToken,
		PlayCount:   record.PlayCount,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
	if err := unmarshalJSON(record.GameConfig, &def.GameConfig); err != nil {
		return game.Definition{}, fmt.Errorf("definition %s game config: %w", record.ID, err)
	}
	if def.GameConfig == nil {
		def.GameConfig = map[string]any{}
	}
	return def, nil
}

func packRecord(pack game.Pack) (db.CardPack, error) {
	record := db.CardPack{
		ID:           pack.ID,
		DefinitionID: pack.DefinitionID,
		Name:         pack.Name,
		Description:  pack.Description,
		IsCore:       pack.IsCore,
		Official:     pack.Official,
		SortOrder:    pack.SortOrder,
	}
	for _, card := range pack.Cards {
		card.PackID = pack.ID
		cardRec, err := cardRecord(card)
		if err != nil {
			return db.CardPack{}, err
		}
		record.Cards = append(record.Cards, cardRec)
	}
	return record, nil
}

func packFromRecord(record db.CardPack) (game.Pack, error) {
	pack := game.Pack{
		ID:           record.ID,
		DefinitionID: record.DefinitionID,
		Name:         record.Name,
		Description:  record.Description,
		IsCore:       record.IsCore,
		Official:     record.Official,
		SortOrder:    record.SortOrder,
		Cards:        make([]game.Card, 0, len(record.Cards)),
	}
	for _, cardRec := range record.Cards {
		card := game.Card{
			ID:        cardRec.ID,
			PackID:    cardRec.PackID,
			Type:      cardRec.CardType,
			SortOrder: cardRec.SortOrder,
		}
		if err := card.Properties.UnmarshalJSON(cardRec.Properties); err != nil {
			return game.Pack{}, fmt.Errorf("card %s: %w", cardRec.ID, err)
		}
		pack.Cards = append(pack.Cards, card)
	}
	return pack, nil
}

func cardRecord(card game.Card) (db.Card, error) {
	props, err := card.Properties.MarshalJSON()
	if err != nil {
		return db.Card{}, err
	}
	return db.Card{
		ID:         card.ID,
		PackID:     card.PackID,
		CardType:   card.Type,
		Properties: datatypes.JSON(props),
		SortOrder:  card.SortOrder,
	}, nil
}

func sessionRecord(session game.Session) (db.GameSession, error) {
	cfg, err := marshalConfig(session.GameConfig)
	if err != nil {
		return db.GameSession{}, err
	}
	return db.GameSession{
		ID:               session.ID,
		RoomCode:         session.RoomCode,
		GameDefinitionID: session.GameDefinitionID,
		TemplateSlug:     session.TemplateSlug,
		GameConfig:       cfg,
		HostID:           session.HostID,
		HostNickname:     session.HostNickname,
		MaxPlayers:       session.MaxPlayers,
		IsPrivate:        session.IsPrivate,
		Password:         session.Password,
		AllowSpectators:  session.AllowSpectators,
		TurnTimeLimit:    session.TurnTimeLimit,
		PlayerCount:      session.PlayerCount,
		Status:           session.Status,
		CreatedAt:        session.CreatedAt,
	}, nil
}

func sessionFromRecord(record db.GameSession) (game.Session, error) {
	session := game.Session{
		ID:               record.ID,
		RoomCode:         record.RoomCode,
		GameDefinitionID: record.GameDefinitionID,
		TemplateSlug:     record.TemplateSlug,
		HostID:           record.HostID,
		HostNickname:     record.HostNickname,
		MaxPlayers:       record.MaxPlayers,
		IsPrivate:        record.IsPrivate,
		Password:         record.Password,
		AllowSpectators:  record.AllowSpectators,
		TurnTimeLimit:    record.TurnTimeLimit,
		PlayerCount:      record.PlayerCount,
		Status:           record.Status,
		CreatedAt:        record.CreatedAt,
	}
	if err := unmarshalJSON(record.GameConfig, &session.GameConfig); err != nil {
		return game.Session{}, fmt.Errorf("session %s game config: %w", record.RoomCode, err)
	}
	return session, nil
}

func marshalConfig(cfg map[string]any) (datatypes.JSON, error) {
	if cfg == nil {
		return datatypes.JSON("{}"), nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func unmarshalJSON(data datatypes.JSON, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
