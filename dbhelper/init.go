package dbhelper

import (
	"fmt"
	"time"

	"selfieapi/config"
	"selfieapi/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDB connects to postgres and migrates the asset and job tables. It returns nil without error when
// DB_HOST is unset; callers treat that as "cloud storage not configured".
func SetupDB() (*gorm.DB, error) {
	if !config.DatabaseConfigured() {
		return nil, nil
	}
	db, err := gorm.Open(postgres.Open(
		fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			config.GetEnv("DB_USERNAME", ""),
			config.GetEnv("DB_PASSWORD", ""),
			config.GetEnv("DB_HOST", ""),
			config.GetEnv("DB_PORT", "5432"),
			config.GetEnv("DB_NAME", ""),
		),
	), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Minute * 5)

	if err := MigrateAll(db); err != nil {
		return nil, err
	}
	return db, nil
}

func MigrateAll(db *gorm.DB) error {
	for _, model := range []interface{}{
		&models.CustomLocation{},
		&models.CustomOutfit{},
		&models.GenerationJob{},
	} {
		if err := Migrate(db, model); err != nil {
			return err
		}
	}
	return nil
}

// SetupTestDB opens a private in-memory SQLite database with the full schema.
func SetupTestDB() *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}
	if err := MigrateAll(db); err != nil {
		panic(err)
	}
	return db
}
