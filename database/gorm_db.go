package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yroh0840/manga-relay/models"
)

// InitGormDB initializes and returns a GORM database instance
func InitGormDB(dataSourceName string, log zerolog.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		gormWriter{log: log},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(log.GetLevel()),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	// WAL lets the maintenance CLI read while the server holds the file
	if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		log.Warn().Err(err).Msg("failed to set WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL;").Error; err != nil {
		log.Warn().Err(err).Msg("failed to set synchronous mode")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetMaxOpenConns(8)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info().Str("path", dataSourceName).Msg("GORM database initialized")
	return db, nil
}

// AutoMigrateModels creates or updates the four application tables
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Comic{},
		&models.Koma{},
		&models.AdminMessage{},
		&models.PublicComment{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	return nil
}

// gormWriter forwards gorm's already-filtered output to zerolog. zerolog's own
// Printf logs at debug, which would hide slow query warnings at info level.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Info().Str("component", "gorm").Msgf(format, args...)
}

func gormLogLevel(level zerolog.Level) logger.LogLevel {
	switch {
	case level <= zerolog.DebugLevel:
		return logger.Info
	case level <= zerolog.WarnLevel:
		return logger.Warn
	default:
		return logger.Error
	}
}
