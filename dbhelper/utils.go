package dbhelper

import (
	"fmt"

	"selfieapi/models"

	"gorm.io/gorm"
)

func SetupCleaner(db *gorm.DB) func() {
	return func() {
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.GenerationJob{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CustomOutfit{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CustomLocation{})
	}
}

func Migrate(db *gorm.DB, model interface{}) error {
	if err := db.AutoMigrate(model); err != nil {
		return fmt.Errorf("migrating %T: %w", model, err)
	}
	return nil
}
