package testutil

import (
	"context"
	"time"

	"github.com/luckydrop/backend/config"
	"github.com/luckydrop/backend/migration"
	"github.com/luckydrop/backend/pkg/logger"
	"github.com/luckydrop/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MockContext returns a context carrying test configs, a silent logger and a
// fresh in-memory database with every table migrated.
func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// Every connection to :memory: opens a distinct database.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := config.Default()
	cfg.Env = "test"
	cfg.Auth.TokenSecret = "secret"
	cfg.Auth.AccessToken.Expiration = time.Minute
	cfg.Storage.Bucket = "media"
	cfg.File.MaxSize = 1
	cfg.Drop.ShareBaseURL = "https://luckydrop.test"

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.AutoMigrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(MockContext(), userID)
}
