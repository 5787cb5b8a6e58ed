package store

import (
	"context"
	"errors"
	"strings"

	"cardforge/internal/apperr"
	"cardforge/internal/db"
	"cardforge/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Gorm is the Postgres-backed Store.
type Gorm struct {
	db *gorm.DB
}

var _ Store = (*Gorm)(nil)

func NewGorm(conn *gorm.DB) *Gorm {
	return &Gorm{db: conn}
}

func (s *Gorm) ListTemplates(ctx context.Context) ([]game.Template, error) {
	var records []db.GameTemplate
	if err := s.db.WithContext(ctx).Order("slug ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]game.Template, 0, len(records))
	for _, record := range records {
		tmpl, err := templateFromRecord(record)
		if err != nil {
			return nil, err
		}
		list = append(list, tmpl)
	}
	return list, nil
}

func (s *Gorm) GetTemplate(ctx context.Context, id string) (game.Template, error) {
	var record db.GameTemplate
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return game.Template{}, notFound(err, "template not found")
	}
	return templateFromRecord(record)
}

func (s *Gorm) GetTemplateBySlug(ctx context.Context, slug string) (game.Template, error) {
	var record db.GameTemplate
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&record).Error; err != nil {
		return game.Template{}, notFound(err, "template not found")
	}
	return templateFromRecord(record)
}

func (s *Gorm) CreateDefinition(ctx context.Context, def game.Definition, core game.Pack) error {
	record, err := definitionRecord(def)
	if err != nil {
		return err
	}
	core.DefinitionID = def.ID
	packRec, err := packRecord(core)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.GameTemplate{}).Where("id = ?", def.TemplateID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("template not found")
		}
		if err := tx.Omit("CardPacks", "Template").Create(&record).Error; err != nil {
			return err
		}
		return tx.Create(&packRec).Error
	})
	return definitionWriteError(err)
}

func (s *Gorm) GetDefinition(ctx context.Context, id string) (game.Definition, error) {
	var record db.GameDefinition
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return game.Definition{}, notFound(err, "definition not found")
	}
	return definitionFromRecord(record)
}

func (s *Gorm) GetDefinitionByShareToken(ctx context.Context, token string) (game.Definition, error) {
	var record db.GameDefinition
	if err := s.db.WithContext(ctx).Where("share_token = ?", token).First(&record).Error; err != nil {
		return game.Definition{}, notFound(err, "game not found")
	}
	return definitionFromRecord(record)
}

func (s *Gorm) ListDefinitions(ctx context.Context, creatorID string, page, perPage int) ([]game.Definition, int64, error) {
	query := s.db.WithContext(ctx).Model(&db.GameDefinition{}).
		Where("creator_id = ?", creatorID).
		Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []db.GameDefinition
	if err := query.Order("created_at DESC, id ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}
	list := make([]game.Definition, 0, len(records))
	for _, record := range records {
		def, err := definitionFromRecord(record)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, def)
	}
	return list, total, nil
}

func (s *Gorm) UpdateDefinition(ctx context.Context, def game.Definition) error {
	cfg, err := marshalConfig(def.GameConfig)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&db.GameDefinition{}).
		Where("id = ?", def.ID).
		Updates(map[string]any{
			"name":        def.Name,
			"slug":        def.Slug,
			"description": def.Description,
			"status":      string(def.Status),
			"game_config": cfg,
			"min_players": def.MinPlayers,
			"max_players": def.MaxPlayers,
			"updated_at":  timeNowUTC(),
		})
	if result.Error != nil {
		return definitionWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("definition not found")
	}
	return nil
}

func (s *Gorm) IncrementPlayCount(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&db.GameDefinition{}).
		Where("id = ?", id).
		UpdateColumn("play_count", gorm.Expr("play_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("definition not found")
	}
	return nil
}

func (s *Gorm) CreatePack(ctx context.Context, pack game.Pack) error {
	record, err := packRecord(pack)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.GameDefinition{}).Where("id = ?", pack.DefinitionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("definition not found")
		}
		return tx.Create(&record).Error
	})
	if _, ok := isUniqueViolation(err); ok {
		return apperr.Wrap(apperr.KindConflict, "pack already exists", err)
	}
	return err
}

func (s *Gorm) GetPack(ctx context.Context, id string) (game.Pack, error) {
	var record db.CardPack
	if err := s.db.WithContext(ctx).
		Preload("Cards", orderCards).
		Where("id = ?", id).
		First(&record).Error; err != nil {
		return game.Pack{}, notFound(err, "pack not found")
	}
	return packFromRecord(record)
}

func (s *Gorm) ListPacks(ctx context.Context, definitionID string) ([]game.Pack, error) {
	var records []db.CardPack
	if err := s.db.WithContext(ctx).
		Preload("Cards", orderCards).
		Where("definition_id = ?", definitionID).
		Order("is_core DESC, sort_order ASC, name ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	packs := make([]game.Pack, 0, len(records))
	for _, record := range records {
		pack, err := packFromRecord(record)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

func (s *Gorm) DeletePack(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pack_id = ?", id).Delete(&db.Card{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&db.CardPack{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("pack not found")
		}
		return nil
	})
}

func (s *Gorm) ApplyCardChanges(ctx context.Context, packID string, changes CardChanges) (int, error) {
	deleted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.CardPack{}).Where("id = ?", packID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("pack not found")
		}
		if len(changes.Delete) > 0 {
			result := tx.Where("pack_id = ? AND id IN ?", packID, changes.Delete).Delete(&db.Card{})
			if result.Error != nil {
				return result.Error
			}
			deleted = int(result.RowsAffected)
		}
		for _, card := range changes.Update {
			props, err := card.Properties.MarshalJSON()
			if err != nil {
				return err
			}
			if err := tx.Model(&db.Card{}).
				Where("id = ? AND pack_id = ?", card.ID, packID).
				Updates(map[string]any{
					"card_type":  card.Type,
					"properties": datatypes.JSON(props),
					"sort_order": card.SortOrder,
					"updated_at": timeNowUTC(),
				}).Error; err != nil {
				return err
			}
		}
		if len(changes.Create) == 0 {
			return nil
		}
		records := make([]db.Card, 0, len(changes.Create))
		for _, card := range changes.Create {
			card.PackID = packID
			record, err := cardRecord(card)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return tx.Create(&records).Error
	})
	if _, ok := isUniqueViolation(err); ok {
		return 0, apperr.Wrap(apperr.KindConflict, "card already exists", err)
	}
	return deleted, err
}

func (s *Gorm) RoomCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.GameSession{}).
		Where("room_code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Gorm) CreateSession(ctx context.Context, session game.Session) error {
	session.RoomCode = strings.ToUpper(session.RoomCode)
	record, err := sessionRecord(session)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return ErrRoomCodeTaken
		}
		return err
	}
	return nil
}

func (s *Gorm) GetSessionByRoomCode(ctx context.Context, code string) (game.Session, error) {
	var record db.GameSession
	if err := s.db.WithContext(ctx).Where("room_code = ?", strings.ToUpper(code)).First(&record).Error; err != nil {
		return game.Session{}, notFound(err, "session not found")
	}
	return sessionFromRecord(record)
}

func orderCards(tx *gorm.DB) *gorm.DB {
	return tx.Order("sort_order ASC, created_at ASC, id ASC")
}

func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(message)
	}
	return err
}

func definitionWriteError(err error) error {
	pgErr, ok := isUniqueViolation(err)
	if !ok {
		return err
	}
	if strings.Contains(pgErr.ConstraintName, "creator_slug") {
		return ErrSlugTaken
	}
	return apperr.Wrap(apperr.KindConflict, "definition already exists", err)
}

func isUniqueViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, pgErr.Code == "23505"
	}
	return nil, false
}
