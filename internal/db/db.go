package db

import (
	"encoding/json"
	"errors"

	"cardforge/internal/config"
	"cardforge/internal/game"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres using cfg.DatabaseURL and applies the pool limits.
func Open(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	conn, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)
	return conn, nil
}

// Migrate runs GORM auto-migrations for the core tables and seeds the stock
// templates. The SQL files under db/migrations are the source of truth for
// deployed databases; this keeps local and test databases in step.
func Migrate(conn *gorm.DB, log *zap.Logger) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := conn.AutoMigrate(
		&GameTemplate{},
		&GameDefinition{},
		&CardPack{},
		&Card{},
		&GameSession{},
	); err != nil {
		return err
	}
	if err := SeedTemplates(conn, game.StockTemplates()); err != nil {
		return err
	}
	log.Info("database migration complete")
	return nil
}

// SeedTemplates inserts templates whose slug is not yet present.
func SeedTemplates(conn *gorm.DB, templates []game.Template) error {
	for _, tmpl := range templates {
		record, err := TemplateRecord(tmpl)
		if err != nil {
			return err
		}
		if err := conn.Where(GameTemplate{Slug: record.Slug}).FirstOrCreate(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

func TemplateRecord(tmpl game.Template) (GameTemplate, error) {
	cardTypes, err := json.Marshal(tmpl.CardTypes)
	if err != nil {
		return GameTemplate{}, err
	}
	baseConfig, err := marshalObject(tmpl.BaseConfig)
	if err != nil {
		return GameTemplate{}, err
	}
	var hints datatypes.JSON
	if tmpl.EditorHints != nil {
		if hints, err = marshalObject(tmpl.EditorHints); err != nil {
			return GameTemplate{}, err
		}
	}
	return GameTemplate{
		ID:          tmpl.ID,
		Name:        tmpl.Name,
		Slug:        tmpl.Slug,
		IconEmoji:   tmpl.IconEmoji,
		Description: tmpl.Description,
		CardTypes:   datatypes.JSON(cardTypes),
		BaseConfig:  baseConfig,
		EditorHints: hints,
	}, nil
}

func marshalObject(value map[string]any) (datatypes.JSON, error) {
	if value == nil {
		return datatypes.JSON("{}"), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
