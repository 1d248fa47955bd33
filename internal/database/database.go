// Package database opens the auxiliary relational store connection. The
// store is a secondary, independently consistent owner of key sheet rows
// used only for listing and deletion; the grading backend remains the
// owner of all other durable state.
package database

import (
	"fmt"
	"time"

	"github.com/examgrid/gradeflow/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewAuxStore connects to the auxiliary store. Returns nil without error
// when the store is disabled or unconfigured; the rest of the workflow
// runs without it.
func NewAuxStore(cfg *config.AuxStoreConfig, log *zap.Logger) (*gorm.DB, error) {
	if cfg == nil || !cfg.Enabled {
		log.Info("Auxiliary store connection disabled")
		return nil, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.ConnectionString()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to auxiliary store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping auxiliary store: %w", err)
	}

	log.Info("Auxiliary store connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
	)
	return db, nil
}
